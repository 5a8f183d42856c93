// Viewport and scale mapping between a source frame and a destination view
package viewport

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidDimensions is returned when a frame or view dimension is not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions")
	// ErrUnknownPolicy is returned for a fit policy outside the known set.
	ErrUnknownPolicy = errors.New("unknown fit policy")
)

// FrameSize is the size of the source content in pixels
type FrameSize struct {
	Width  int
	Height int
}

// Aspect returns width divided by height
func (f FrameSize) Aspect() float64 {
	return float64(f.Width) / float64(f.Height)
}

func (f FrameSize) valid() bool {
	return f.Width > 0 && f.Height > 0
}

// ViewSize is the size of the destination surface. It is zero until the
// surface has been measured.
type ViewSize struct {
	Width  int
	Height int
}

// Aspect returns width divided by height
func (v ViewSize) Aspect() float64 {
	return float64(v.Width) / float64(v.Height)
}

func (v ViewSize) valid() bool {
	return v.Width > 0 && v.Height > 0
}

// Rect is a pixel rectangle. The origin is the bottom-left corner of the
// view, as with glViewport.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Within reports whether r lies inside the view rectangle
func (r Rect) Within(view ViewSize) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.Width >= 0 && r.Height >= 0 &&
		r.X+r.Width <= view.Width &&
		r.Y+r.Height <= view.Height
}

// FlipY converts r to a rectangle whose origin is the top-left corner of a
// view of the given height.
func (r Rect) FlipY(viewHeight int) Rect {
	return Rect{
		X:      r.X,
		Y:      viewHeight - r.Y - r.Height,
		Width:  r.Width,
		Height: r.Height,
	}
}

// Result is the viewport rectangle and the quad scale for one mapping
type Result struct {
	Viewport Rect
	ScaleX   float64
	ScaleY   float64
}

// IsIdentity reports whether the quad is drawn unscaled
func (r Result) IsIdentity() bool {
	return r.ScaleX == 1 && r.ScaleY == 1
}

// MVP returns the column-major model-view-projection matrix for the quad:
// identity followed by a scale of (ScaleX, ScaleY, 1).
func (r Result) MVP() [16]float32 {
	return [16]float32{
		float32(r.ScaleX), 0, 0, 0,
		0, float32(r.ScaleY), 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Compute maps a frame into a view under the given fit policy.
//
// The returned viewport is in bottom-left-origin pixels. ScaleX and ScaleY
// scale the unit quad relative to that viewport.
func Compute(frame FrameSize, view ViewSize, policy FitPolicy) (Result, error) {
	if !frame.valid() || !view.valid() {
		return Result{}, fmt.Errorf("%w: frame %dx%d, view %dx%d",
			ErrInvalidDimensions, frame.Width, frame.Height, view.Width, view.Height)
	}

	full := Rect{Width: view.Width, Height: view.Height}

	switch policy {
	case StretchFit:
		return Result{Viewport: full, ScaleX: 1, ScaleY: 1}, nil

	case KeepAspectViewport:
		return Result{Viewport: keepAspectViewport(frame, view), ScaleX: 1, ScaleY: 1}, nil

	case KeepAspect, CropCenter:
		fw, fh := float64(frame.Width), float64(frame.Height)
		vw, vh := float64(view.Width), float64(view.Height)
		scaleX := vw / fw
		scaleY := vh / fh
		scale := math.Min(scaleX, scaleY)
		if policy == CropCenter {
			scale = math.Max(scaleX, scaleY)
		}
		return Result{
			Viewport: full,
			ScaleX:   (scale * fw) / vw,
			ScaleY:   (scale * fh) / vh,
		}, nil

	case Square:
		return square(frame, view), nil
	}

	return Result{}, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(policy))
}

func keepAspectViewport(frame FrameSize, view ViewSize) Rect {
	frameAspect := frame.Aspect()
	if view.Aspect() > frameAspect {
		// view is wider than the frame: full height, narrower width
		width := int(math.Round(frameAspect * float64(view.Height)))
		return Rect{
			X:      (view.Width - width) / 2,
			Y:      0,
			Width:  width,
			Height: view.Height,
		}
	}
	height := int(math.Round(float64(view.Width) / frameAspect))
	return Rect{
		X:      0,
		Y:      (view.Height - height) / 2,
		Width:  view.Width,
		Height: height,
	}
}

func square(frame FrameSize, view ViewSize) Result {
	var vp Rect
	if view.Width >= view.Height {
		side := view.Height
		vp = Rect{X: (view.Width - side) / 2, Y: 0, Width: side, Height: side}
	} else {
		side := view.Width
		// two thirds of the slack goes below the square; this is not centering
		vp = Rect{X: 0, Y: ((view.Height - side) * 2) / 3, Width: side, Height: side}
	}

	res := Result{Viewport: vp, ScaleX: 1, ScaleY: 1}
	if aspect := frame.Aspect(); aspect >= 1 {
		res.ScaleX = aspect
	} else {
		res.ScaleY = 1 / aspect
	}
	return res
}
