package preview

import (
	"errors"
	"image"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"camera-filter-preview/internal/filters"
	"camera-filter-preview/internal/viewport"
)

type drawCall struct {
	filter filters.ID
	res    viewport.Result
	tile   *viewport.Tile
}

type recordingBackend struct {
	calls []drawCall
	err   error
}

func (b *recordingBackend) DrawFrame(filter filters.ID, res viewport.Result) error {
	b.calls = append(b.calls, drawCall{filter: filter, res: res})
	return b.err
}

func (b *recordingBackend) DrawThumbnail(filter filters.ID, tile viewport.Tile) error {
	b.calls = append(b.calls, drawCall{filter: filter, tile: &tile})
	return nil
}

func (b *recordingBackend) frames() []drawCall {
	var out []drawCall
	for _, c := range b.calls {
		if c.tile == nil {
			out = append(out, c)
		}
	}
	return out
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestDrawSkipsUntilMeasured(t *testing.T) {
	backend := &recordingBackend{}
	p := New(DefaultOptions(), backend, testLogger())

	drawn, err := p.Draw()
	if err != nil || drawn {
		t.Fatalf("Draw() = %v, %v; want false, nil", drawn, err)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("backend called %d times before the surface was measured", len(backend.calls))
	}
	if s := p.Stats(); s.FramesSkipped != 1 || s.FramesDrawn != 0 {
		t.Errorf("Stats() = %+v", s)
	}
	if p.Snapshot().Valid {
		t.Error("Snapshot().Valid = true")
	}
}

func TestDrawSquareWithThumbnails(t *testing.T) {
	backend := &recordingBackend{}
	p := New(DefaultOptions(), backend, testLogger())
	p.Resize(viewport.ViewSize{Width: 640, Height: 480}, viewport.Landscape)

	drawn, err := p.Draw()
	if err != nil || !drawn {
		t.Fatalf("Draw() = %v, %v", drawn, err)
	}
	if len(backend.calls) != 5 {
		t.Fatalf("backend got %d calls, want 1 frame and 4 thumbnails", len(backend.calls))
	}

	frame := backend.calls[0]
	if frame.tile != nil || frame.filter != filters.Identity {
		t.Fatalf("first call = %+v", frame)
	}
	if want := (viewport.Rect{X: 80, Y: 0, Width: 480, Height: 480}); frame.res.Viewport != want {
		t.Errorf("viewport = %+v, want %+v", frame.res.Viewport, want)
	}

	for i, id := range filters.IDs() {
		call := backend.calls[i+1]
		if call.tile == nil || call.filter != id {
			t.Errorf("call %d = %+v, want thumbnail for %v", i+1, call, id)
		}
	}
	if x := backend.calls[1].tile.Rect.X; x != 88 {
		t.Errorf("first tile x = %d, want 88", x)
	}
}

func TestUpdatesApplyOnNextDraw(t *testing.T) {
	backend := &recordingBackend{}
	opts := DefaultOptions()
	opts.Thumbnails.Enabled = false
	p := New(opts, backend, testLogger())

	p.Resize(viewport.ViewSize{Width: 800, Height: 480}, viewport.Landscape)
	if _, err := p.Draw(); err != nil {
		t.Fatal(err)
	}

	p.SetPolicy(viewport.StretchFit)
	p.SelectFilter(filters.Sepia)
	if n := len(backend.frames()); n != 1 {
		t.Fatalf("setters drew a frame: %d frames", n)
	}

	if _, err := p.Draw(); err != nil {
		t.Fatal(err)
	}
	frames := backend.frames()
	last := frames[len(frames)-1]
	if last.filter != filters.Sepia {
		t.Errorf("filter = %v, want sepia", last.filter)
	}
	if last.res.Viewport != (viewport.Rect{Width: 800, Height: 480}) || !last.res.IsIdentity() {
		t.Errorf("result = %+v, want full view identity", last.res)
	}
	if s := p.Stats(); s.UpdatesApplied != 3 || s.FramesDrawn != 2 {
		t.Errorf("Stats() = %+v", s)
	}

	snap := p.Snapshot()
	if !snap.Valid || snap.Policy != viewport.StretchFit || snap.Filter != filters.Sepia {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestPortraitSwapsFrame(t *testing.T) {
	backend := &recordingBackend{}
	opts := DefaultOptions()
	opts.Policy = viewport.KeepAspectViewport
	opts.Thumbnails.Enabled = false
	p := New(opts, backend, testLogger())

	p.Resize(viewport.ViewSize{Width: 480, Height: 640}, viewport.Portrait)
	if _, err := p.Draw(); err != nil {
		t.Fatal(err)
	}
	got := backend.frames()[0].res.Viewport
	if got != (viewport.Rect{Width: 480, Height: 640}) {
		t.Errorf("portrait viewport = %+v, want full view", got)
	}
	if f := p.Snapshot().Frame; f != (viewport.FrameSize{Width: 240, Height: 320}) {
		t.Errorf("snapshot frame = %v", f)
	}
}

func TestShrinkToZeroStopsDrawing(t *testing.T) {
	backend := &recordingBackend{}
	p := New(DefaultOptions(), backend, testLogger())
	p.Resize(viewport.ViewSize{Width: 640, Height: 480}, viewport.Landscape)
	if drawn, _ := p.Draw(); !drawn {
		t.Fatal("first Draw() did not draw")
	}
	before := len(backend.calls)

	p.Resize(viewport.ViewSize{}, viewport.Landscape)
	drawn, err := p.Draw()
	if err != nil || drawn {
		t.Fatalf("Draw() = %v, %v", drawn, err)
	}
	if len(backend.calls) != before {
		t.Error("drew with a stale viewport")
	}
}

func TestThumbnailsToggle(t *testing.T) {
	backend := &recordingBackend{}
	p := New(DefaultOptions(), backend, testLogger())
	p.Resize(viewport.ViewSize{Width: 640, Height: 480}, viewport.Landscape)
	p.SetThumbnailsEnabled(false)
	if _, err := p.Draw(); err != nil {
		t.Fatal(err)
	}
	if len(backend.calls) != 1 {
		t.Errorf("backend got %d calls, want only the frame", len(backend.calls))
	}
}

func TestThumbnailsHiddenWhenTooNarrow(t *testing.T) {
	backend := &recordingBackend{}
	p := New(DefaultOptions(), backend, testLogger())
	p.Resize(viewport.ViewSize{Width: 200, Height: 200}, viewport.Landscape)
	drawn, err := p.Draw()
	if err != nil || !drawn {
		t.Fatalf("Draw() = %v, %v", drawn, err)
	}
	if len(backend.calls) != 1 {
		t.Errorf("backend got %d calls, want only the frame", len(backend.calls))
	}
}

func TestInvalidSelectionsIgnored(t *testing.T) {
	backend := &recordingBackend{}
	p := New(DefaultOptions(), backend, testLogger())
	p.SetPolicy(viewport.FitPolicy(42))
	p.SelectFilter(filters.ID(9))
	p.Resize(viewport.ViewSize{Width: 640, Height: 480}, viewport.Landscape)
	if _, err := p.Draw(); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if s := p.Stats(); s.UpdatesApplied != 1 {
		t.Errorf("UpdatesApplied = %d, want 1", s.UpdatesApplied)
	}
	if snap := p.Snapshot(); snap.Policy != viewport.Square || snap.Filter != filters.Identity {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestBackendErrorPropagates(t *testing.T) {
	boom := errors.New("context lost")
	backend := &recordingBackend{err: boom}
	p := New(DefaultOptions(), backend, testLogger())
	p.Resize(viewport.ViewSize{Width: 640, Height: 480}, viewport.Landscape)
	if _, err := p.Draw(); !errors.Is(err, boom) {
		t.Errorf("Draw() error = %v, want %v", err, boom)
	}
}

func TestConcurrentSetters(t *testing.T) {
	backend := &recordingBackend{}
	p := New(DefaultOptions(), backend, testLogger())
	p.Resize(viewport.ViewSize{Width: 1080, Height: 1920}, viewport.Portrait)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.SetPolicy(viewport.Policies()[(i+j)%len(viewport.Policies())])
				p.SelectFilter(filters.IDs()[j%len(filters.IDs())])
				_ = p.Snapshot()
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		if _, err := p.Draw(); err != nil {
			t.Fatalf("Draw() error = %v", err)
		}
		select {
		case <-done:
			if _, err := p.Draw(); err != nil {
				t.Fatal(err)
			}
			if s := p.Stats(); s.UpdatesApplied != 1+8*50*2 {
				t.Errorf("UpdatesApplied = %d", s.UpdatesApplied)
			}
			return
		default:
		}
	}
}

type sizedBackend struct {
	recordingBackend
	sizes []viewport.ViewSize
}

func (b *sizedBackend) Resize(view viewport.ViewSize) error {
	b.sizes = append(b.sizes, view)
	return nil
}

func TestDrawResizesBackendOnce(t *testing.T) {
	backend := &sizedBackend{}
	p := New(DefaultOptions(), backend, testLogger())
	view := viewport.ViewSize{Width: 640, Height: 480}

	p.Resize(view, viewport.Landscape)
	p.Draw()
	p.SelectFilter(filters.Sepia)
	p.Draw()
	p.Resize(view, viewport.Landscape)
	p.Draw()

	if len(backend.sizes) != 1 || backend.sizes[0] != view {
		t.Fatalf("Resize calls = %v, want one call with %v", backend.sizes, view)
	}

	p.Resize(viewport.ViewSize{Width: 800, Height: 480}, viewport.Landscape)
	p.Draw()
	if len(backend.sizes) != 2 {
		t.Errorf("Resize calls = %v, want a second call", backend.sizes)
	}
}

func TestSnapshotFilterAt(t *testing.T) {
	p := New(DefaultOptions(), &recordingBackend{}, testLogger())
	p.Resize(viewport.ViewSize{Width: 640, Height: 480}, viewport.Landscape)
	if _, err := p.Draw(); err != nil {
		t.Fatal(err)
	}
	snap := p.Snapshot()
	if len(snap.Tiles) != len(filters.IDs()) {
		t.Fatalf("got %d tiles", len(snap.Tiles))
	}

	first := snap.Tiles[0].Rect.FlipY(snap.View.Height)
	last := snap.Tiles[len(snap.Tiles)-1].Rect.FlipY(snap.View.Height)
	tests := []struct {
		name string
		x, y int
		want filters.ID
		ok   bool
	}{
		{name: "first tile", x: first.X + 1, y: first.Y + 1, want: filters.Identity, ok: true},
		{name: "last tile", x: last.X + last.Width - 1, y: last.Y + last.Height - 1, want: filters.Sepia, ok: true},
		{name: "left of first tile", x: first.X - 1, y: first.Y + 1},
		{name: "outside", x: 0, y: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := snap.FilterAt(tt.x, tt.y)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("FilterAt(%d, %d) = %v, %v; want %v, %v", tt.x, tt.y, got, ok, tt.want, tt.ok)
			}
		})
	}
}

type sourceCall struct {
	size        image.Point
	orientation viewport.Orientation
	callsBefore int
}

type sourcedBackend struct {
	recordingBackend
	sources []sourceCall
}

func (b *sourcedBackend) SetSource(img image.Image, o viewport.Orientation) error {
	b.sources = append(b.sources, sourceCall{size: img.Bounds().Size(), orientation: o, callsBefore: len(b.calls)})
	return nil
}

func TestSetFrameReachesBackendInDraw(t *testing.T) {
	backend := &sourcedBackend{}
	opts := DefaultOptions()
	opts.Thumbnails.Enabled = false
	p := New(opts, backend, testLogger())
	p.Resize(viewport.ViewSize{Width: 640, Height: 480}, viewport.Landscape)
	p.Draw()

	p.SetFrame(image.NewNRGBA(image.Rect(0, 0, 240, 320)))
	if len(backend.sources) != 0 {
		t.Fatal("SetFrame reached the backend before Draw")
	}
	p.Draw()

	if len(backend.sources) != 1 {
		t.Fatalf("SetSource calls = %d, want 1", len(backend.sources))
	}
	src := backend.sources[0]
	if src.size != image.Pt(240, 320) || src.orientation != viewport.Landscape || src.callsBefore != 1 {
		t.Errorf("SetSource call = %+v", src)
	}
	if got := p.Snapshot().Frame; got != (viewport.FrameSize{Width: 240, Height: 320}) {
		t.Errorf("Snapshot().Frame = %v, want the new frame size", got)
	}

	p.SelectFilter(filters.Sepia)
	p.Draw()
	if len(backend.sources) != 1 {
		t.Errorf("SetSource repeated without a new frame")
	}

	p.Resize(viewport.ViewSize{Width: 480, Height: 640}, viewport.Portrait)
	p.Draw()
	if len(backend.sources) != 2 || backend.sources[1].orientation != viewport.Portrait {
		t.Errorf("orientation change did not refresh the source: %+v", backend.sources)
	}
	if got := p.Snapshot().Frame; got != (viewport.FrameSize{Width: 320, Height: 240}) {
		t.Errorf("portrait Snapshot().Frame = %v", got)
	}
}

func TestSetFrameNilIgnored(t *testing.T) {
	p := New(DefaultOptions(), &sourcedBackend{}, testLogger())
	p.SetFrame(nil)
	p.Draw()
	if got := p.Stats().UpdatesApplied; got != 0 {
		t.Errorf("UpdatesApplied = %d, want 0", got)
	}
}

func TestSnapshotFill(t *testing.T) {
	p := New(DefaultOptions(), &recordingBackend{}, testLogger())
	p.Resize(viewport.ViewSize{Width: 800, Height: 480}, viewport.Landscape)
	p.Draw()
	if want := (viewport.Rect{X: 0, Y: -60, Width: 800, Height: 600}); p.Snapshot().Fill != want {
		t.Errorf("Snapshot().Fill = %+v, want %+v", p.Snapshot().Fill, want)
	}
}

func TestOffViewThumbnailWarns(t *testing.T) {
	tests := []struct {
		name          string
		startFraction float64
		warnings      int
	}{
		{name: "second row below the view", startFraction: viewport.DefaultTileStartFraction, warnings: 1},
		{name: "every tile on screen", startFraction: 0.5, warnings: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := logtest.NewNullLogger()
			opts := DefaultOptions()
			opts.Thumbnails.StartFraction = tt.startFraction
			p := New(opts, &recordingBackend{}, logger)
			p.Resize(viewport.ViewSize{Width: 800, Height: 480}, viewport.Landscape)
			p.Draw()

			warnings := 0
			for _, entry := range hook.AllEntries() {
				if entry.Level == logrus.WarnLevel && entry.Message == "Filter thumbnail falls outside the view" {
					warnings++
					if entry.Data["filter"] != filters.Sepia.String() {
						t.Errorf("warned about %v, want sepia", entry.Data["filter"])
					}
				}
			}
			if warnings != tt.warnings {
				t.Errorf("got %d off-view warnings, want %d", warnings, tt.warnings)
			}
		})
	}
}
