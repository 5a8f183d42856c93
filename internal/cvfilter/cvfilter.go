// OpenCV implementations of the preview filters
package cvfilter

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"camera-filter-preview/internal/filters"
)

// Filter applies one preview filter to a BGR frame
type Filter interface {
	Apply(input gocv.Mat) (gocv.Mat, error)
	GetName() string
}

var registry = make(map[filters.ID]Filter)

func Register(id filters.ID, filter Filter) {
	registry[id] = filter
}

func Get(id filters.ID) (Filter, bool) {
	filter, exists := registry[id]
	return filter, exists
}

func Apply(id filters.ID, input gocv.Mat) (gocv.Mat, error) {
	filter, exists := Get(id)
	if !exists {
		return gocv.NewMat(), fmt.Errorf("%w: %s", filters.ErrUnknownFilter, id)
	}
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input frame is empty")
	}
	return filter.Apply(input)
}

func init() {
	for _, v := range filters.Ordered() {
		switch v.ID {
		case filters.Identity:
			Register(v.ID, passthrough{})
		case filters.ColorInvert:
			Register(v.ID, invert{})
		default:
			Register(v.ID, NewMatrixFilter(v))
		}
	}
}

type passthrough struct{}

func (passthrough) Apply(input gocv.Mat) (gocv.Mat, error) {
	return input.Clone(), nil
}

func (passthrough) GetName() string {
	return filters.Identity.String()
}

type invert struct{}

func (invert) Apply(input gocv.Mat) (gocv.Mat, error) {
	output := gocv.NewMat()
	gocv.BitwiseNot(input, &output)
	return output, nil
}

func (invert) GetName() string {
	return filters.ColorInvert.String()
}

// MatrixFilter runs a variant's color matrix through cv::transform
type MatrixFilter struct {
	name string
	bgr  [9]float64
}

// NewMatrixFilter converts the variant's RGB matrix to BGR channel order
func NewMatrixFilter(v filters.Variant) *MatrixFilter {
	rgb := v.Matrix.RGB()
	var bgr [9]float64
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			bgr[row*3+col] = rgb[(2-row)*3+(2-col)]
		}
	}
	return &MatrixFilter{name: v.Name, bgr: bgr}
}

func (m *MatrixFilter) Apply(input gocv.Mat) (gocv.Mat, error) {
	if input.Channels() != 3 {
		return gocv.NewMat(), fmt.Errorf("%s filter needs a 3-channel frame, got %d", m.name, input.Channels())
	}

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for i, v := range m.bgr {
		kernel.SetFloatAt(i/3, i%3, float32(v))
	}

	output := gocv.NewMat()
	gocv.Transform(input, &output, kernel)
	return output, nil
}

func (m *MatrixFilter) GetName() string {
	return m.name
}

// ImageFilter runs the registry on image.Image frames
type ImageFilter struct{}

func (ImageFilter) Apply(id filters.ID, src image.Image) (image.Image, error) {
	mat, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	out, err := Apply(id, mat)
	if err != nil {
		out.Close()
		return nil, err
	}
	defer out.Close()

	img, err := out.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert filtered frame: %w", err)
	}
	return img, nil
}
