package capture

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestPNGEncoderProducesDataURI(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}

	enc := &PNGEncoder{}
	payload, err := enc.Encode(img)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(payload, prefix) {
		t.Fatalf("payload prefix = %q, want %q", payload[:min(len(payload), 30)], prefix)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(payload, prefix))
	if err != nil {
		t.Fatalf("base64 decode: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if got := decoded.Bounds(); got != img.Bounds() {
		t.Errorf("decoded bounds = %v, want %v", got, img.Bounds())
	}
}

func TestPNGEncoderNilImage(t *testing.T) {
	enc := &PNGEncoder{}
	if _, err := enc.Encode(nil); err == nil {
		t.Fatal("expected error for nil image")
	}
}
