// Software rendering of the mapped preview quad
package render

import (
	"image"
	"math"

	"github.com/gogpu/gg"

	"camera-filter-preview/internal/viewport"
)

// Placement is where a quad lands on a raster canvas and which part of the
// source frame it shows. Both rectangles use a top-left origin.
type Placement struct {
	Dst image.Rectangle
	Src image.Rectangle
}

// QuadMatrix maps the unit quad [-1, 1] x [-1, 1] (y up) into pixel
// coordinates of a top-left-origin viewport, after the quad scale.
func QuadMatrix(vp viewport.Rect, scaleX, scaleY float64) gg.Matrix {
	cx := float64(vp.X) + float64(vp.Width)/2
	cy := float64(vp.Y) + float64(vp.Height)/2
	return gg.Translate(cx, cy).Multiply(gg.Scale(float64(vp.Width)/2*scaleX, -float64(vp.Height)/2*scaleY))
}

// Place computes the placement of a mapped frame on a canvas of the given
// view size. The quad is clipped to its viewport and to the canvas; ok is
// false when nothing remains visible.
func Place(res viewport.Result, view viewport.ViewSize, frame viewport.FrameSize) (Placement, bool) {
	vp := res.Viewport.FlipY(view.Height)
	m := QuadMatrix(vp, res.ScaleX, res.ScaleY)

	topLeft := m.TransformPoint(gg.Pt(-1, 1))
	bottomRight := m.TransformPoint(gg.Pt(1, -1))
	quadW := bottomRight.X - topLeft.X
	quadH := bottomRight.Y - topLeft.Y
	if quadW <= 0 || quadH <= 0 {
		return Placement{}, false
	}

	clip := image.Rect(vp.X, vp.Y, vp.X+vp.Width, vp.Y+vp.Height).
		Intersect(image.Rect(0, 0, view.Width, view.Height))
	if clip.Empty() {
		return Placement{}, false
	}

	x0 := math.Max(topLeft.X, float64(clip.Min.X))
	y0 := math.Max(topLeft.Y, float64(clip.Min.Y))
	x1 := math.Min(bottomRight.X, float64(clip.Max.X))
	y1 := math.Min(bottomRight.Y, float64(clip.Max.Y))

	dst := image.Rect(round(x0), round(y0), round(x1), round(y1))
	if dst.Empty() {
		return Placement{}, false
	}

	fw, fh := float64(frame.Width), float64(frame.Height)
	src := image.Rect(
		round((x0-topLeft.X)/quadW*fw),
		round((y0-topLeft.Y)/quadH*fh),
		round((x1-topLeft.X)/quadW*fw),
		round((y1-topLeft.Y)/quadH*fh),
	).Intersect(image.Rect(0, 0, frame.Width, frame.Height))
	if src.Empty() {
		return Placement{}, false
	}

	return Placement{Dst: dst, Src: src}, true
}

func round(v float64) int {
	return int(math.Round(v))
}
