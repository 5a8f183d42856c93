package render

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/gogpu/gg"
	"github.com/sirupsen/logrus"

	"camera-filter-preview/internal/filters"
	"camera-filter-preview/internal/viewport"
)

var (
	// ErrNoFrame is returned when drawing before a source frame was set
	ErrNoFrame = errors.New("no source frame")
	// ErrNoCanvas is returned when drawing before the canvas was sized
	ErrNoCanvas = errors.New("canvas not sized")
)

// Filterer produces the filtered version of a source frame
type Filterer interface {
	Apply(id filters.ID, src image.Image) (image.Image, error)
}

// MatrixFilterer applies the filters' color matrices on the CPU
type MatrixFilterer struct{}

func (MatrixFilterer) Apply(id filters.ID, src image.Image) (image.Image, error) {
	v, ok := filters.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", filters.ErrUnknownFilter, int(id))
	}
	if id == filters.Identity {
		return src, nil
	}
	return v.Matrix.Apply(src), nil
}

// Software is a raster backend built on gg. It keeps one canvas the size of
// the view and redraws it on every DrawFrame.
type Software struct {
	mu         sync.Mutex
	dc         *gg.Context
	view       viewport.ViewSize
	frame      image.Image
	frameSize  viewport.FrameSize
	filtered   map[filters.ID]*gg.ImageBuf
	filterer   Filterer
	background gg.RGBA
	logger     *logrus.Logger
}

// NewSoftware creates a backend. A nil filterer uses MatrixFilterer.
func NewSoftware(filterer Filterer, logger *logrus.Logger) *Software {
	if filterer == nil {
		filterer = MatrixFilterer{}
	}
	return &Software{
		filtered:   make(map[filters.ID]*gg.ImageBuf),
		filterer:   filterer,
		background: gg.Black,
		logger:     logger,
	}
}

// SetBackground sets the color behind letterbox bars
func (s *Software) SetBackground(c gg.RGBA) {
	s.mu.Lock()
	s.background = c
	s.mu.Unlock()
}

// SetSource replaces the source frame and drops cached filter output. The
// frame is landscape-native; in portrait it is stored rotated by 90 degrees
// clockwise so its size matches the oriented frame the viewport was mapped
// for. Call it from the render goroutine only: the presenter does so at the
// start of Draw.
func (s *Software) SetSource(img image.Image, orientation viewport.Orientation) error {
	if img == nil {
		return ErrNoFrame
	}
	if orientation == viewport.Portrait {
		img = rotateClockwise(img)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b := img.Bounds()
	s.frame = img
	s.frameSize = viewport.FrameSize{Width: b.Dx(), Height: b.Dy()}
	s.filtered = make(map[filters.ID]*gg.ImageBuf)
	s.logger.WithFields(logrus.Fields{
		"width":       s.frameSize.Width,
		"height":      s.frameSize.Height,
		"orientation": orientation.String(),
	}).Debug("Source frame set")
	return nil
}

// FrameSize returns the size of the current source frame as drawn, after
// any rotation
func (s *Software) FrameSize() viewport.FrameSize {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameSize
}

// Resize reallocates the canvas. A non-positive size releases it.
func (s *Software) Resize(view viewport.ViewSize) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dc != nil && s.view == view {
		return nil
	}
	if s.dc != nil {
		if err := s.dc.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to release canvas")
		}
		s.dc = nil
	}
	s.view = view
	if view.Width <= 0 || view.Height <= 0 {
		return nil
	}

	s.dc = gg.NewContext(view.Width, view.Height)
	s.logger.WithFields(logrus.Fields{
		"width":  view.Width,
		"height": view.Height,
	}).Debug("Canvas resized")
	return nil
}

// DrawFrame clears the canvas and draws the filtered frame with res
func (s *Software) DrawFrame(filter filters.ID, res viewport.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dc == nil {
		return ErrNoCanvas
	}
	s.dc.ClearWithColor(s.background)
	return s.drawLocked(filter, res)
}

// DrawThumbnail draws one filter preview tile over the current canvas
func (s *Software) DrawThumbnail(filter filters.ID, tile viewport.Tile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dc == nil {
		return ErrNoCanvas
	}
	return s.drawLocked(filter, tile.Result())
}

func (s *Software) drawLocked(filter filters.ID, res viewport.Result) error {
	if s.frame == nil {
		return ErrNoFrame
	}

	place, ok := Place(res, s.view, s.frameSize)
	if !ok {
		return nil
	}

	buf, err := s.filteredLocked(filter)
	if err != nil {
		return err
	}

	src := place.Src
	s.dc.DrawImageEx(buf, gg.DrawImageOptions{
		X:             float64(place.Dst.Min.X),
		Y:             float64(place.Dst.Min.Y),
		DstWidth:      float64(place.Dst.Dx()),
		DstHeight:     float64(place.Dst.Dy()),
		SrcRect:       &src,
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
	return nil
}

func (s *Software) filteredLocked(filter filters.ID) (*gg.ImageBuf, error) {
	if buf, ok := s.filtered[filter]; ok {
		return buf, nil
	}
	img, err := s.filterer.Apply(filter, s.frame)
	if err != nil {
		return nil, fmt.Errorf("apply %s filter: %w", filter, err)
	}
	buf := gg.ImageBufFromImage(normalize(img))
	s.filtered[filter] = buf
	return buf, nil
}

// normalize moves the image origin to (0, 0) so source rectangles computed
// from the frame size address the right pixels.
func normalize(img image.Image) image.Image {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		return img
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// rotateClockwise returns src turned a quarter turn clockwise, with its
// origin at (0, 0).
func rotateClockwise(src image.Image) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < w; y++ {
		for x := 0; x < h; x++ {
			out.Set(x, y, src.At(b.Min.X+y, b.Min.Y+h-1-x))
		}
	}
	return out
}

// Image returns a copy of the current composite that stays valid while the
// next frame is drawn.
func (s *Software) Image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return nil
	}
	src := s.dc.Image()
	out := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

// SavePNG writes the current composite to path
func (s *Software) SavePNG(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return ErrNoCanvas
	}
	if err := s.dc.SavePNG(path); err != nil {
		return fmt.Errorf("save composite: %w", err)
	}
	return nil
}

// Close releases the canvas
func (s *Software) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return nil
	}
	err := s.dc.Close()
	s.dc = nil
	return err
}
