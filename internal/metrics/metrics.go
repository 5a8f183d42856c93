// Agreement metrics between two renditions of the same filtered frame
package metrics

import (
	"fmt"
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"

	"camera-filter-preview/internal/cvfilter"
	"camera-filter-preview/internal/filters"
)

// Metric compares two frames of equal size and channel count
type Metric interface {
	Calculate(reference, candidate gocv.Mat) (float64, error)
	GetName() string
	IsHigherBetter() bool
}

// MSE is the mean squared error over every channel sample
type MSE struct{}

func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(reference, candidate gocv.Mat) (float64, error) {
	if err := checkPair(reference, candidate); err != nil {
		return 0, err
	}
	l2 := gocv.NormWithMats(reference, candidate, gocv.NormL2)
	samples := float64(reference.Rows() * reference.Cols() * reference.Channels())
	return l2 * l2 / samples, nil
}

func (m *MSE) GetName() string {
	return "MSE"
}

func (m *MSE) IsHigherBetter() bool {
	return false
}

// PSNR implements Peak Signal-to-Noise Ratio for 8-bit samples
type PSNR struct {
	mse MSE
}

func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(reference, candidate gocv.Mat) (float64, error) {
	mse, err := p.mse.Calculate(reference, candidate)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil // identical
	}
	return 10 * math.Log10(255*255/mse), nil
}

func (p *PSNR) GetName() string {
	return "PSNR"
}

func (p *PSNR) IsHigherBetter() bool {
	return true
}

func checkPair(reference, candidate gocv.Mat) error {
	if reference.Empty() || candidate.Empty() {
		return fmt.Errorf("empty images")
	}
	if reference.Rows() != candidate.Rows() || reference.Cols() != candidate.Cols() {
		return fmt.Errorf("image dimensions mismatch: %dx%d vs %dx%d",
			reference.Cols(), reference.Rows(), candidate.Cols(), candidate.Rows())
	}
	if reference.Channels() != candidate.Channels() {
		return fmt.Errorf("channel count mismatch: %d vs %d", reference.Channels(), candidate.Channels())
	}
	return nil
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator registers MSE and PSNR
func NewEvaluator() *Evaluator {
	e := &Evaluator{metrics: make(map[string]Metric)}
	e.Register("mse", NewMSE())
	e.Register("psnr", NewPSNR())
	return e
}

func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names in sorted order
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CalculateAll runs every metric, stopping at the first failure
func (e *Evaluator) CalculateAll(reference, candidate gocv.Mat) (map[string]float64, error) {
	results := make(map[string]float64, len(e.metrics))
	for name, metric := range e.metrics {
		value, err := metric.Calculate(reference, candidate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		results[name] = value
	}
	return results, nil
}

// FilterParity renders frame with the CPU color matrix and with OpenCV for
// every filter and reports how closely they agree.
func (e *Evaluator) FilterParity(frame image.Image) (map[filters.ID]map[string]float64, error) {
	src, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer src.Close()

	out := make(map[filters.ID]map[string]float64)
	for _, v := range filters.Ordered() {
		cpu, err := gocv.ImageToMatRGB(v.Matrix.Apply(frame))
		if err != nil {
			return nil, fmt.Errorf("convert %s output: %w", v.Name, err)
		}

		cv, err := cvfilter.Apply(v.ID, src)
		if err != nil {
			cpu.Close()
			cv.Close()
			return nil, err
		}

		results, err := e.CalculateAll(cpu, cv)
		cpu.Close()
		cv.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Name, err)
		}
		out[v.ID] = results
	}
	return out, nil
}
