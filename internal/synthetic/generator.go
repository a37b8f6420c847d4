// Package synthetic provides stand-in frame and input sources for demo
// runs and for machines without a real display or hook support.
package synthetic

import (
	"context"
	"image"
	"image/color"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/dude613/avoda-desktop/internal/hook"
)

// FrameSource generates screen-like frames. Each grab shifts the pattern
// so consecutive captures are visibly different.
type FrameSource struct {
	width, height int
	seq           atomic.Uint64
}

func NewFrameSource(width, height int) *FrameSource {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 360
	}
	return &FrameSource{width: width, height: height}
}

// Grab renders the next frame in the sequence.
func (f *FrameSource) Grab() (image.Image, error) {
	n := f.seq.Add(1)
	phase := float64(n) / 4.0

	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			r := uint8(128 + 127*math.Sin(phase+float64(x)/40.0))
			g := uint8(128 + 127*math.Sin(phase/2+float64(y)/30.0))
			b := uint8(40 + (n*13)%160)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img, nil
}

// Frames reports how many frames have been grabbed.
func (f *FrameSource) Frames() uint64 {
	return f.seq.Load()
}

// InputFeeder emits bursts of synthetic keyboard and mouse activity
// through the same callbacks the real hooks use.
type InputFeeder struct {
	cb       hook.Callbacks
	interval time.Duration
	rand     *rand.Rand
}

func NewInputFeeder(cb hook.Callbacks) *InputFeeder {
	return &InputFeeder{
		cb:       cb,
		interval: 250 * time.Millisecond,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run generates activity until ctx is cancelled.
func (f *InputFeeder) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Typing bursts with occasional clicks.
			presses := f.rand.Intn(8)
			for i := 0; i < presses; i++ {
				if f.cb.OnKeyPress != nil {
					f.cb.OnKeyPress()
				}
			}
			if f.rand.Intn(4) == 0 && f.cb.OnMouseClick != nil {
				f.cb.OnMouseClick()
			}
		}
	}
}
