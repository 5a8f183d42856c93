// Main preview window: surface, controls and the render loop
package gui

import (
	"fmt"
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"github.com/sirupsen/logrus"

	"camera-filter-preview/internal/config"
	"camera-filter-preview/internal/cvfilter"
	"camera-filter-preview/internal/io"
	"camera-filter-preview/internal/preview"
	"camera-filter-preview/internal/render"
	"camera-filter-preview/internal/viewport"
)

const frameInterval = time.Second / 30

// Application is the desktop preview window
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Logger
	cfg    config.Config

	presenter *preview.Presenter
	backend   *render.Software
	loader    *io.FrameLoader

	surface     *PreviewSurface
	controls    *ControlPanel
	menuHandler *MenuHandler

	// fyne goroutine only
	view        viewport.ViewSize
	orientation viewport.Orientation

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewApplication(app fyne.App, cfg config.Config, logger *logrus.Logger) (*Application, error) {
	window := app.NewWindow("Camera Filter Preview")
	window.Resize(fyne.NewSize(float32(cfg.ViewWidth)+260, float32(cfg.ViewHeight)))
	window.CenterOnScreen()

	a := &Application{
		app:         app,
		window:      window,
		logger:      logger,
		cfg:         cfg,
		orientation: cfg.OrientationValue(),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	if err := a.initializeCore(); err != nil {
		return nil, err
	}
	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()

	return a, nil
}

func (a *Application) initializeCore() error {
	var filterer render.Filterer = render.MatrixFilterer{}
	if a.cfg.OpenCV {
		filterer = cvfilter.ImageFilter{}
	}
	a.backend = render.NewSoftware(filterer, a.logger)
	a.backend.SetBackground(a.cfg.BackgroundColor())
	a.loader = io.NewFrameLoader(a.logger)

	frame, err := a.initialFrame()
	if err != nil {
		return err
	}

	a.presenter = preview.New(a.cfg.PreviewOptions(), a.backend, a.logger)
	a.presenter.SetFrame(frame)
	return nil
}

func (a *Application) initialFrame() (image.Image, error) {
	if a.cfg.FramePath != "" {
		frame, err := a.loader.Load(a.cfg.FramePath)
		if err != nil {
			return nil, fmt.Errorf("load frame: %w", err)
		}
		return frame, nil
	}
	frame, err := render.TestPattern(a.cfg.FrameWidth, a.cfg.FrameHeight)
	if err != nil {
		return nil, fmt.Errorf("test pattern: %w", err)
	}
	return frame, nil
}

func (a *Application) initializeGUI() {
	a.surface = NewPreviewSurface(a.logger)
	a.controls = NewControlPanel()
	a.controls.SetInitial(a.cfg.PreviewOptions())
	a.menuHandler = NewMenuHandler(a.window, a.loader, a.backend, a.logger)
}

func (a *Application) setupLayout() {
	split := container.NewHSplit(
		a.surface,
		container.NewVScroll(a.controls.GetContainer()),
	)
	split.SetOffset(0.75)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(split)
}

func (a *Application) setupCallbacks() {
	a.surface.SetCallbacks(
		// onResize
		func(view viewport.ViewSize) {
			a.view = view
			a.presenter.Resize(view, a.orientation)
		},
		// onTapped
		func(x, y int) {
			if id, ok := a.presenter.Snapshot().FilterAt(x, y); ok {
				a.presenter.SelectFilter(id)
				a.controls.ShowFilter(id)
			}
		},
	)

	a.controls.SetCallbacks(
		a.presenter.SetPolicy,
		a.presenter.SelectFilter,
		func(o viewport.Orientation) {
			a.orientation = o
			a.presenter.Resize(a.view, o)
		},
		a.presenter.SetThumbnailsEnabled,
	)

	a.menuHandler.SetCallbacks(
		// onFrameLoaded
		func(path string, frame image.Image) {
			a.presenter.SetFrame(frame)
			a.window.SetTitle(fmt.Sprintf("Camera Filter Preview - %s", path))
		},
		// onSaved
		func(path string) {
			a.logger.WithField("filepath", path).Info("Composite saved")
			dialog.ShowInformation("Composite Saved", fmt.Sprintf("Saved to:\n%s", path), a.window)
		},
	)
}

// renderLoop plays the role of the continuous render thread: every tick it
// lets the presenter apply queued changes and draw, then hands the composite
// to the fyne goroutine.
func (a *Application) renderLoop() {
	defer close(a.done)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.renderFrame()
		}
	}
}

func (a *Application) renderFrame() {
	drawn, err := a.presenter.Draw()
	if err != nil {
		a.logger.WithError(err).Error("Render failed")
		return
	}

	snap := a.presenter.Snapshot()
	stats := a.presenter.Stats()
	var img image.Image
	if drawn {
		img = a.backend.Image()
	}

	fyne.Do(func() {
		a.surface.SetImage(img)
		a.controls.Update(snap, stats)
	})
}

func (a *Application) ShowAndRun() {
	a.logger.WithFields(logrus.Fields{
		"policy": a.cfg.Policy.String(),
		"filter": a.cfg.Filter.String(),
		"opencv": a.cfg.OpenCV,
	}).Info("Showing preview window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	go a.renderLoop()
	a.window.ShowAndRun()
	a.cleanup()
}

func (a *Application) cleanup() {
	a.stopOnce.Do(func() {
		a.logger.Info("Stopping render loop")
		close(a.stop)
		<-a.done

		stats := a.presenter.Stats()
		a.logger.WithFields(logrus.Fields{
			"frames_drawn":    stats.FramesDrawn,
			"frames_skipped":  stats.FramesSkipped,
			"updates_applied": stats.UpdatesApplied,
		}).Info("Preview statistics")

		if err := a.backend.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to release canvas")
		}
	})
}
