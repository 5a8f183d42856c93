// Preview surface widget: shows the rendered composite and reports its size
package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"camera-filter-preview/internal/viewport"
)

// PreviewSurface is a custom widget that displays the composite at device
// pixel resolution and forwards layout changes and taps in pixels.
type PreviewSurface struct {
	widget.BaseWidget

	logger *logrus.Logger
	image  *canvas.Image
	size   viewport.ViewSize

	onResize func(viewport.ViewSize)
	onTapped func(x, y int)
}

// NewPreviewSurface creates an empty preview surface
func NewPreviewSurface(logger *logrus.Logger) *PreviewSurface {
	ps := &PreviewSurface{
		logger: logger,
		image:  canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1))),
	}
	ps.image.FillMode = canvas.ImageFillStretch
	ps.image.ScaleMode = canvas.ImageScalePixels

	ps.ExtendBaseWidget(ps)
	return ps
}

// CreateRenderer creates the renderer for the preview surface
func (ps *PreviewSurface) CreateRenderer() fyne.WidgetRenderer {
	return &previewSurfaceRenderer{surface: ps}
}

// SetCallbacks registers the resize and tap handlers
func (ps *PreviewSurface) SetCallbacks(onResize func(viewport.ViewSize), onTapped func(x, y int)) {
	ps.onResize = onResize
	ps.onTapped = onTapped
}

// SetImage shows a new composite. Call from the fyne goroutine.
func (ps *PreviewSurface) SetImage(img image.Image) {
	if img == nil {
		return
	}
	ps.image.Image = img
	ps.image.Refresh()
}

// Tapped converts the tap position to surface pixels
func (ps *PreviewSurface) Tapped(event *fyne.PointEvent) {
	if ps.onTapped == nil {
		return
	}
	scale := ps.scale()
	x := int(event.Position.X * scale)
	y := int(event.Position.Y * scale)
	ps.logger.WithFields(logrus.Fields{"x": x, "y": y}).Debug("Preview surface tapped")
	ps.onTapped(x, y)
}

func (ps *PreviewSurface) measured(size fyne.Size) {
	scale := ps.scale()
	view := viewport.ViewSize{
		Width:  int(size.Width * scale),
		Height: int(size.Height * scale),
	}
	if view == ps.size {
		return
	}
	ps.size = view
	ps.logger.WithFields(logrus.Fields{
		"width":  view.Width,
		"height": view.Height,
		"scale":  scale,
	}).Debug("Preview surface resized")
	if ps.onResize != nil {
		ps.onResize(view)
	}
}

func (ps *PreviewSurface) scale() float32 {
	app := fyne.CurrentApp()
	if app == nil {
		return 1
	}
	c := app.Driver().CanvasForObject(ps)
	if c == nil || c.Scale() <= 0 {
		return 1
	}
	return c.Scale()
}

type previewSurfaceRenderer struct {
	surface *PreviewSurface
}

func (r *previewSurfaceRenderer) Layout(size fyne.Size) {
	r.surface.image.Resize(size)
	r.surface.measured(size)
}

func (r *previewSurfaceRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *previewSurfaceRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.surface.image}
}

func (r *previewSurfaceRenderer) Refresh() {
	r.surface.image.Refresh()
}

func (r *previewSurfaceRenderer) Destroy() {
}
