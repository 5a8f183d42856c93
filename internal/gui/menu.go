// Menu handler for application actions
package gui

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"camera-filter-preview/internal/io"
	"camera-filter-preview/internal/render"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window  fyne.Window
	loader  *io.FrameLoader
	backend *render.Software
	logger  *logrus.Logger

	onFrameLoaded func(path string, frame image.Image)
	onSaved       func(path string)
}

func NewMenuHandler(window fyne.Window, loader *io.FrameLoader, backend *render.Software, logger *logrus.Logger) *MenuHandler {
	return &MenuHandler{
		window:  window,
		loader:  loader,
		backend: backend,
		logger:  logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Frame...", mh.openFrame),
		fyne.NewMenuItem("Save Composite...", mh.saveComposite),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, helpMenu)
}

func (mh *MenuHandler) openFrame() {
	mh.logger.Info("Opening file dialog for frame selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		path := reader.URI().Path()
		frame, err := mh.loader.Load(path)
		if err != nil {
			mh.showError("Failed to Load Frame", err)
			return
		}

		if mh.onFrameLoaded != nil {
			mh.onFrameLoaded(path, frame)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) saveComposite() {
	mh.logger.Info("Opening file dialog for composite saving")

	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		// the encoders below open the path themselves
		path := writer.URI().Path()
		writer.Close()

		if err := mh.save(path); err != nil {
			mh.showError("Failed to Save Composite", err)
			return
		}
		if mh.onSaved != nil {
			mh.onSaved(path)
		}
	}, mh.window)

	fileDialog.SetFileName("preview.png")
	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) save(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return mh.backend.SavePNG(path)
	}
	img := mh.backend.Image()
	if img == nil {
		return fmt.Errorf("nothing rendered yet: %w", render.ErrNoCanvas)
	}
	return mh.loader.Save(img, path)
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("Camera Filter Preview"),
		widget.NewSeparator(),
		widget.NewLabel("Fits a camera frame into the preview surface"),
		widget.NewLabel("and shows every filter as a thumbnail."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne v2.6, gg and OpenCV"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 240))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error(title)
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) SetCallbacks(onFrameLoaded func(string, image.Image), onSaved func(string)) {
	mh.onFrameLoaded = onFrameLoaded
	mh.onSaved = onSaved
}
