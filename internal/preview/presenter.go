// Preview presenter: owns the fit policy, selected filter and surface size
// for one preview surface and hands viewport updates to the render thread.
package preview

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"camera-filter-preview/internal/filters"
	"camera-filter-preview/internal/viewport"
)

// Backend draws textured quads. It is only called from Draw.
type Backend interface {
	DrawFrame(filter filters.ID, res viewport.Result) error
	DrawThumbnail(filter filters.ID, tile viewport.Tile) error
}

// Resizer is implemented by backends that own a surface matching the view.
// Resize is called from Draw, after pending updates and before drawing.
type Resizer interface {
	Resize(view viewport.ViewSize) error
}

// FrameSource is implemented by backends that hold the source image. Draw
// hands it the image queued with SetFrame and the display orientation,
// after pending updates and before drawing, whenever either changes.
type FrameSource interface {
	SetSource(img image.Image, orientation viewport.Orientation) error
}

// ThumbnailOptions configures the filter preview strip
type ThumbnailOptions struct {
	Enabled       bool
	TileDP        int
	Density       float64
	TilesPerRow   int
	StartFraction float64
}

// Options is the initial presenter state
type Options struct {
	Frame       viewport.FrameSize
	Policy      viewport.FitPolicy
	Filter      filters.ID
	Orientation viewport.Orientation
	Thumbnails  ThumbnailOptions
}

// DefaultOptions is a 320x240 frame in a square viewport with thumbnails
func DefaultOptions() Options {
	return Options{
		Frame:  viewport.FrameSize{Width: 320, Height: 240},
		Policy: viewport.Square,
		Filter: filters.Identity,
		Thumbnails: ThumbnailOptions{
			Enabled:       true,
			TileDP:        viewport.DefaultTileDP,
			Density:       1,
			TilesPerRow:   viewport.DefaultTilesPerRow,
			StartFraction: viewport.DefaultTileStartFraction,
		},
	}
}

// Snapshot is the state used by the most recent successful recomputation
type Snapshot struct {
	Frame       viewport.FrameSize
	View        viewport.ViewSize
	Orientation viewport.Orientation
	Policy      viewport.FitPolicy
	Filter      filters.ID
	Result      viewport.Result
	Tiles       []viewport.Tile
	// Fill is the child surface layout that fills the view with the frame
	Fill        viewport.Rect
	Valid       bool
}

// Stats counts presenter activity
type Stats struct {
	FramesDrawn    uint64
	FramesSkipped  uint64
	UpdatesApplied uint64
}

type state struct {
	frame       viewport.FrameSize
	view        viewport.ViewSize
	orientation viewport.Orientation
	policy      viewport.FitPolicy
	filter      filters.ID
	thumbs      ThumbnailOptions
	image       image.Image
	imageGen    uint64
}

// Presenter recomputes the viewport whenever the surface or the policy
// changes. Setters may be called from any goroutine; they queue the change
// and Draw applies the whole queue before it issues any draw call, so an
// update never lands in the middle of a frame.
type Presenter struct {
	mu       sync.Mutex
	pending  []func(*state)
	snapshot Snapshot

	// render goroutine only
	current state
	dirty   bool
	sized   viewport.ViewSize
	valid   bool
	result  viewport.Result
	tiles   []viewport.Tile

	// image generation and orientation last handed to a FrameSource
	sourcedGen    uint64
	sourcedOrient viewport.Orientation

	backend Backend
	logger  *logrus.Logger

	drawn   atomic.Uint64
	skipped atomic.Uint64
	applied atomic.Uint64
}

// New creates a presenter. Nothing is drawn until the first Resize.
func New(opts Options, backend Backend, logger *logrus.Logger) *Presenter {
	return &Presenter{
		current: state{
			frame:       opts.Frame,
			orientation: opts.Orientation,
			policy:      opts.Policy,
			filter:      opts.Filter,
			thumbs:      opts.Thumbnails,
		},
		dirty:   true,
		backend: backend,
		logger:  logger,
	}
}

func (p *Presenter) enqueue(update func(*state)) {
	p.mu.Lock()
	p.pending = append(p.pending, update)
	p.mu.Unlock()
}

// SetPolicy selects the fit policy for subsequent frames
func (p *Presenter) SetPolicy(policy viewport.FitPolicy) {
	if _, err := policy.MarshalText(); err != nil {
		p.logger.WithField("policy", int(policy)).Warn("Ignoring unknown fit policy")
		return
	}
	p.logger.WithField("policy", policy.String()).Debug("Fit policy selected")
	p.enqueue(func(s *state) { s.policy = policy })
}

// SelectFilter switches the filter used for the main frame
func (p *Presenter) SelectFilter(id filters.ID) {
	if !id.Valid() {
		p.logger.WithField("filter", int(id)).Warn("Ignoring unknown filter")
		return
	}
	p.logger.WithField("filter", id.String()).Debug("Filter selected")
	p.enqueue(func(s *state) { s.filter = id })
}

// Resize reports a new surface size and display orientation
func (p *Presenter) Resize(view viewport.ViewSize, orientation viewport.Orientation) {
	p.enqueue(func(s *state) {
		s.view = view
		s.orientation = orientation
	})
}

// SetFrame queues a new landscape-native source image. Its size replaces
// the frame size, and backends implementing FrameSource receive the image in
// the same Draw, so no frame mixes the old image with the new viewport.
func (p *Presenter) SetFrame(img image.Image) {
	if img == nil {
		p.logger.Warn("Ignoring nil source frame")
		return
	}
	b := img.Bounds()
	frame := viewport.FrameSize{Width: b.Dx(), Height: b.Dy()}
	p.logger.WithFields(logrus.Fields{
		"width":  frame.Width,
		"height": frame.Height,
	}).Debug("Source frame queued")
	p.enqueue(func(s *state) {
		s.image = img
		s.frame = frame
		s.imageGen++
	})
}

// SetFrameSize reports the landscape-native size of the source frames
func (p *Presenter) SetFrameSize(frame viewport.FrameSize) {
	p.enqueue(func(s *state) { s.frame = frame })
}

// SetThumbnailsEnabled shows or hides the filter preview strip
func (p *Presenter) SetThumbnailsEnabled(enabled bool) {
	p.enqueue(func(s *state) { s.thumbs.Enabled = enabled })
}

// Draw applies pending updates and renders one frame. It returns false
// without drawing when the surface cannot be mapped yet; the caller should
// try again on the next layout or resize.
func (p *Presenter) Draw() (bool, error) {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, update := range pending {
		update(&p.current)
	}
	if len(pending) > 0 {
		p.applied.Add(uint64(len(pending)))
		p.dirty = true
	}

	if p.dirty {
		if err := p.resizeBackend(); err != nil {
			return false, err
		}
		if err := p.updateSource(); err != nil {
			return false, err
		}
		if err := p.recompute(); err != nil {
			return false, err
		}
		p.dirty = false
	}

	if !p.valid {
		p.skipped.Add(1)
		return false, nil
	}

	if err := p.backend.DrawFrame(p.current.filter, p.result); err != nil {
		return false, fmt.Errorf("draw frame: %w", err)
	}

	ids := filters.IDs()
	for i, tile := range p.tiles {
		if err := p.backend.DrawThumbnail(ids[i], tile); err != nil {
			return false, fmt.Errorf("draw thumbnail %s: %w", ids[i], err)
		}
	}

	p.drawn.Add(1)
	return true, nil
}

func (p *Presenter) resizeBackend() error {
	r, ok := p.backend.(Resizer)
	if !ok || p.current.view == p.sized {
		return nil
	}
	if err := r.Resize(p.current.view); err != nil {
		return fmt.Errorf("resize backend: %w", err)
	}
	p.sized = p.current.view
	return nil
}

func (p *Presenter) updateSource() error {
	fs, ok := p.backend.(FrameSource)
	s := p.current
	if !ok || s.image == nil {
		return nil
	}
	if s.imageGen == p.sourcedGen && s.orientation == p.sourcedOrient {
		return nil
	}
	if err := fs.SetSource(s.image, s.orientation); err != nil {
		return fmt.Errorf("set backend source: %w", err)
	}
	p.sourcedGen = s.imageGen
	p.sourcedOrient = s.orientation
	return nil
}

func (p *Presenter) recompute() error {
	s := p.current
	frame := viewport.OrientFrame(s.frame, s.orientation)

	res, err := viewport.Compute(frame, s.view, s.policy)
	if errors.Is(err, viewport.ErrInvalidDimensions) {
		p.valid = false
		p.tiles = nil
		p.logger.WithFields(logrus.Fields{
			"view_width":   s.view.Width,
			"view_height":  s.view.Height,
			"frame_width":  frame.Width,
			"frame_height": frame.Height,
		}).Warn("Skipping frame until the surface is measured")
		p.publish(Snapshot{Frame: frame, View: s.view, Orientation: s.orientation, Policy: s.policy, Filter: s.filter})
		return nil
	}
	if err != nil {
		p.valid = false
		return fmt.Errorf("compute viewport: %w", err)
	}

	p.result = res
	p.valid = true
	p.tiles = p.layoutThumbnails(s, frame)

	// frame and view are both valid here
	fill, _ := viewport.FillLayout(frame, s.view)

	p.logger.WithFields(logrus.Fields{
		"policy":   s.policy.String(),
		"filter":   s.filter.String(),
		"view":     fmt.Sprintf("%dx%d", s.view.Width, s.view.Height),
		"frame":    fmt.Sprintf("%dx%d", frame.Width, frame.Height),
		"viewport": fmt.Sprintf("(%d,%d,%d,%d)", res.Viewport.X, res.Viewport.Y, res.Viewport.Width, res.Viewport.Height),
		"scale":    fmt.Sprintf("(%f,%f)", res.ScaleX, res.ScaleY),
		"tiles":    len(p.tiles),
	}).Debug("Viewport updated")

	p.publish(Snapshot{
		Frame:       frame,
		View:        s.view,
		Orientation: s.orientation,
		Policy:      s.policy,
		Filter:      s.filter,
		Result:      res,
		Tiles:       append([]viewport.Tile(nil), p.tiles...),
		Fill:        fill,
		Valid:       true,
	})
	return nil
}

func (p *Presenter) layoutThumbnails(s state, frame viewport.FrameSize) []viewport.Tile {
	if !s.thumbs.Enabled {
		return nil
	}
	grid, err := viewport.NewTileGrid(s.view, s.thumbs.TileDP, s.thumbs.Density, s.thumbs.TilesPerRow, s.thumbs.StartFraction)
	if err == nil {
		var tiles []viewport.Tile
		tiles, err = grid.Layout(len(filters.IDs()), frame)
		if err == nil {
			p.warnOffView(tiles, s.view)
			return tiles
		}
	}
	p.logger.WithError(err).Warn("Filter thumbnails hidden")
	return nil
}

func (p *Presenter) warnOffView(tiles []viewport.Tile, view viewport.ViewSize) {
	ids := filters.IDs()
	for i, tile := range tiles {
		if tile.Rect.Within(view) {
			continue
		}
		p.logger.WithFields(logrus.Fields{
			"filter": ids[i].String(),
			"x":      tile.Rect.X,
			"y":      tile.Rect.Y,
			"size":   tile.Rect.Width,
		}).Warn("Filter thumbnail falls outside the view")
	}
}

func (p *Presenter) publish(s Snapshot) {
	p.mu.Lock()
	p.snapshot = s
	p.mu.Unlock()
}

// Snapshot returns the state of the last recomputation
func (p *Presenter) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.snapshot
	s.Tiles = append([]viewport.Tile(nil), s.Tiles...)
	return s
}

// FilterAt returns the filter whose thumbnail covers x, y. The point uses a
// top-left origin, as pointer events do.
func (s Snapshot) FilterAt(x, y int) (filters.ID, bool) {
	if !s.Valid {
		return 0, false
	}
	ids := filters.IDs()
	for i, tile := range s.Tiles {
		r := tile.Rect.FlipY(s.View.Height)
		if x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height {
			return ids[i], true
		}
	}
	return 0, false
}

// Stats returns the presenter counters
func (p *Presenter) Stats() Stats {
	return Stats{
		FramesDrawn:    p.drawn.Load(),
		FramesSkipped:  p.skipped.Load(),
		UpdatesApplied: p.applied.Load(),
	}
}
