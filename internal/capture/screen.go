package capture

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// ScreenGrabber captures the primary display.
type ScreenGrabber struct{}

func (ScreenGrabber) Grab() (image.Image, error) {
	img, err := screenshot.CaptureScreen()
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	return img, nil
}
