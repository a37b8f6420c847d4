package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// PNGEncoder encodes frames as base64 PNG data URIs, usable directly as an
// image source by the presentation layer.
type PNGEncoder struct{}

func (PNGEncoder) Encode(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("encode frame: nil image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
