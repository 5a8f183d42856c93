package render

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/gogpu/gg"
)

var barColors = []string{"#c0c0c0", "#c0c000", "#00c0c0", "#00c000", "#c000c0", "#c00000", "#0000c0"}

// TestPattern draws color bars with a centered circle, a stand-in source
// frame that makes stretching and cropping easy to spot.
func TestPattern(width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("test pattern %dx%d: invalid size", width, height)
	}
	dc := gg.NewContext(width, height)
	defer dc.Close()

	barWidth := float64(width) / float64(len(barColors))
	for i, hex := range barColors {
		dc.SetHexColor(hex)
		dc.DrawRectangle(float64(i)*barWidth, 0, barWidth+1, float64(height))
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("fill bar %d: %w", i, err)
		}
	}

	radius := float64(min(width, height)) / 3
	dc.SetRGB(1, 1, 1)
	dc.DrawCircle(float64(width)/2, float64(height)/2, radius)
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("fill circle: %w", err)
	}

	src := dc.Image()
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out, nil
}
