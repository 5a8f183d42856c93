package viewport

import (
	"fmt"
	"strings"
)

// Orientation of the display relative to the landscape-native capture
type Orientation int

const (
	Landscape Orientation = iota
	Portrait
)

func (o Orientation) String() string {
	if o == Portrait {
		return "portrait"
	}
	return "landscape"
}

// ParseOrientation accepts "landscape" or "portrait"
func ParseOrientation(name string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "landscape", "":
		return Landscape, nil
	case "portrait":
		return Portrait, nil
	}
	return Landscape, fmt.Errorf("unknown orientation: %q", name)
}

// OrientFrame returns the frame as it appears on a display with the given
// orientation. Portrait swaps the dimensions because the capture is rotated
// by 90 degrees.
func OrientFrame(frame FrameSize, o Orientation) FrameSize {
	if o == Portrait {
		return FrameSize{Width: frame.Height, Height: frame.Width}
	}
	return frame
}

// FillLayout sizes a child surface so the preview fills the view while
// keeping its aspect. The dimension needing the most correction is scaled
// up and the other one is cropped evenly on both sides, which shows up as
// a negative offset. The rectangle uses a top-left origin.
func FillLayout(preview FrameSize, view ViewSize) (Rect, error) {
	if !preview.valid() || !view.valid() {
		return Rect{}, fmt.Errorf("%w: preview %dx%d, view %dx%d",
			ErrInvalidDimensions, preview.Width, preview.Height, view.Width, view.Height)
	}

	widthRatio := float32(view.Width) / float32(preview.Width)
	heightRatio := float32(view.Height) / float32(preview.Height)

	var childWidth, childHeight, xOffset, yOffset int
	if widthRatio > heightRatio {
		childWidth = view.Width
		childHeight = int(float32(preview.Height) * widthRatio)
		yOffset = (childHeight - view.Height) / 2
	} else {
		childWidth = int(float32(preview.Width) * heightRatio)
		childHeight = view.Height
		xOffset = (childWidth - view.Width) / 2
	}

	return Rect{
		X:      -xOffset,
		Y:      -yOffset,
		Width:  childWidth,
		Height: childHeight,
	}, nil
}
