// snapshot renders one preview composite without a window and writes it to disk

package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"camera-filter-preview/internal/config"
	"camera-filter-preview/internal/cvfilter"
	"camera-filter-preview/internal/filters"
	"camera-filter-preview/internal/io"
	"camera-filter-preview/internal/metrics"
	"camera-filter-preview/internal/preview"
	"camera-filter-preview/internal/render"
	"camera-filter-preview/internal/viewport"
)

func main() {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	out := fs.String("out", "preview.png", "Output image path")
	eachPolicy := fs.Bool("each-policy", false, "Write one composite per fit policy, suffixed with the policy name")
	parity := fs.Bool("parity", false, "Report how closely the CPU and OpenCV filters agree on the frame")

	cfg, err := config.Parse(fs, os.Args[1:])
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *parity {
		if err := reportParity(cfg, logger); err != nil {
			logger.WithError(err).Fatal("Parity check failed")
		}
	}

	if err := run(cfg, *out, *eachPolicy, logger); err != nil {
		logger.WithError(err).Fatal("Snapshot failed")
	}
}

func run(cfg config.Config, out string, eachPolicy bool, logger *logrus.Logger) error {
	loader := io.NewFrameLoader(logger)

	var filterer render.Filterer = render.MatrixFilterer{}
	if cfg.OpenCV {
		filterer = cvfilter.ImageFilter{}
	}
	backend := render.NewSoftware(filterer, logger)
	backend.SetBackground(cfg.BackgroundColor())
	defer backend.Close()

	frame, err := loadFrame(cfg, loader)
	if err != nil {
		return err
	}

	policies := []viewport.FitPolicy{cfg.Policy}
	if eachPolicy {
		policies = viewport.Policies()
	}

	for _, policy := range policies {
		path := out
		if eachPolicy {
			ext := filepath.Ext(out)
			path = fmt.Sprintf("%s-%s%s", strings.TrimSuffix(out, ext), policy, ext)
		}
		if err := renderOne(cfg, policy, frame, backend, loader, path, logger); err != nil {
			return fmt.Errorf("%s: %w", policy, err)
		}
	}
	return nil
}

func reportParity(cfg config.Config, logger *logrus.Logger) error {
	frame, err := loadFrame(cfg, io.NewFrameLoader(logger))
	if err != nil {
		return err
	}
	evaluator := metrics.NewEvaluator()
	results, err := evaluator.FilterParity(frame)
	if err != nil {
		return err
	}
	for _, id := range filters.IDs() {
		fields := logrus.Fields{"filter": id.String()}
		for _, name := range evaluator.Names() {
			fields[name] = results[id][name]
		}
		logger.WithFields(fields).Info("Filter parity")
	}
	return nil
}

func loadFrame(cfg config.Config, loader *io.FrameLoader) (image.Image, error) {
	if cfg.FramePath != "" {
		return loader.Load(cfg.FramePath)
	}
	return render.TestPattern(cfg.FrameWidth, cfg.FrameHeight)
}

func renderOne(cfg config.Config, policy viewport.FitPolicy, frame image.Image, backend *render.Software, loader *io.FrameLoader, path string, logger *logrus.Logger) error {
	opts := cfg.PreviewOptions()
	opts.Policy = policy

	p := preview.New(opts, backend, logger)
	p.SetFrame(frame)
	p.Resize(cfg.View(), cfg.OrientationValue())

	drawn, err := p.Draw()
	if err != nil {
		return err
	}
	if !drawn {
		return errors.New("frame skipped: view or frame size is not usable")
	}

	snap := p.Snapshot()
	vp := snap.Result.Viewport
	logger.WithFields(logrus.Fields{
		"policy":   policy.String(),
		"filter":   snap.Filter.String(),
		"viewport": fmt.Sprintf("(%d,%d,%d,%d)", vp.X, vp.Y, vp.Width, vp.Height),
		"scale":    fmt.Sprintf("(%.4f,%.4f)", snap.Result.ScaleX, snap.Result.ScaleY),
		"tiles":    len(snap.Tiles),
		"fill":     fmt.Sprintf("(%d,%d,%d,%d)", snap.Fill.X, snap.Fill.Y, snap.Fill.Width, snap.Fill.Height),
		"out":      path,
	}).Info("Composite rendered")

	if strings.EqualFold(filepath.Ext(path), ".png") {
		return backend.SavePNG(path)
	}
	return loader.Save(backend.Image(), path)
}
