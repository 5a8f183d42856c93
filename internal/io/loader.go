// Still-frame loading for the preview surface
package io

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"camera-filter-preview/internal/viewport"
)

// MaxDimension bounds the width and height of a loaded frame
const MaxDimension = 16384

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// FrameLoader reads source frames from image files
type FrameLoader struct {
	logger *logrus.Logger
}

func NewFrameLoader(logger *logrus.Logger) *FrameLoader {
	return &FrameLoader{
		logger: logger,
	}
}

// LoadMat reads a BGR frame. The caller owns the returned Mat.
func (fl *FrameLoader) LoadMat(path string) (gocv.Mat, error) {
	fl.logger.WithField("filepath", path).Debug("Loading frame")

	if !IsSupportedFormat(path) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return gocv.NewMat(), fmt.Errorf("failed to load image: %s", path)
	}

	if err := Validate(mat); err != nil {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%s: %w", path, err)
	}

	fl.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Frame loaded successfully")

	return mat, nil
}

// Load reads a frame as an image.Image
func (fl *FrameLoader) Load(path string) (image.Image, error) {
	mat, err := fl.LoadMat(path)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return img, nil
}

// Save writes an image through OpenCV, picking the codec from the extension
func (fl *FrameLoader) Save(img image.Image, path string) error {
	if !IsSupportedFormat(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to save image: %s", path)
	}

	fl.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Info("Image saved successfully")
	return nil
}

// Validate checks a frame's dimensions and channel count
func Validate(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("image is empty")
	}
	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("%w: %dx%d", viewport.ErrInvalidDimensions, mat.Cols(), mat.Rows())
	}
	if mat.Cols() > MaxDimension || mat.Rows() > MaxDimension {
		return fmt.Errorf("image too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), MaxDimension)
	}
	if channels := mat.Channels(); channels < 1 || channels > 4 {
		return fmt.Errorf("unsupported channel count: %d", channels)
	}
	return nil
}

// IsSupportedFormat reports whether path has a readable image extension
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// SupportedExtensions lists the extensions accepted by Load
func SupportedExtensions() []string {
	return append([]string(nil), supportedFormats...)
}
