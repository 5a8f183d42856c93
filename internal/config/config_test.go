package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"camera-filter-preview/internal/filters"
	"camera-filter-preview/internal/viewport"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preview.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	opts := cfg.PreviewOptions()
	if opts.Policy != viewport.Square || opts.Frame != (viewport.FrameSize{Width: 320, Height: 240}) {
		t.Errorf("PreviewOptions() = %+v", opts)
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := Parse(newFlagSet(), []string{
		"-debug", "-width", "1080", "-height", "1920",
		"-orientation", "portrait", "-policy", "crop-center", "-filter", "bw",
		"-no-thumbnails", "-density", "2.5", "-opencv", "-background", "#204060",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !cfg.Debug || !cfg.OpenCV || cfg.View() != (viewport.ViewSize{Width: 1080, Height: 1920}) {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.OrientationValue() != viewport.Portrait || cfg.Policy != viewport.CropCenter || cfg.Filter != filters.Grayscale {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Thumbnails.Enabled || cfg.Thumbnails.Density != 2.5 {
		t.Errorf("thumbnails = %+v", cfg.Thumbnails)
	}
	if bg := cfg.BackgroundColor(); bg.A != 1 || bg.R < 0.12 || bg.R > 0.13 {
		t.Errorf("BackgroundColor() = %+v", bg)
	}
}

func TestParseConfigFileThenFlags(t *testing.T) {
	path := writeConfig(t, `
frame_width = 640
frame_height = 480
policy = "keep-aspect"
filter = "sepia"

[thumbnails]
enabled = true
tile_dp = 64
density = 2.0
tiles_per_row = 4
start_fraction = 0.5
`)
	cfg, err := Parse(newFlagSet(), []string{"-config", path, "-policy", "stretch"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.FrameWidth != 640 || cfg.FrameHeight != 480 {
		t.Errorf("frame = %dx%d", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.Policy != viewport.StretchFit {
		t.Errorf("flag did not override file policy: %v", cfg.Policy)
	}
	if cfg.Filter != filters.Sepia {
		t.Errorf("filter = %v", cfg.Filter)
	}
	if cfg.Thumbnails.TilesPerRow != 4 || cfg.Thumbnails.StartFraction != 0.5 {
		t.Errorf("thumbnails = %+v", cfg.Thumbnails)
	}
	if cfg.ViewWidth != 800 {
		t.Errorf("default view width lost: %d", cfg.ViewWidth)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		body string
		is   error
	}{
		{name: "unknown policy flag", args: []string{"-policy", "zoom"}, is: viewport.ErrUnknownPolicy},
		{name: "unknown filter flag", args: []string{"-filter", "blur"}, is: filters.ErrUnknownFilter},
		{name: "bad frame in file", body: "frame_width = 0\n", is: viewport.ErrInvalidDimensions},
		{name: "bad policy in file", body: "policy = \"fill\"\n"},
		{name: "unknown key", body: "zoom = 2\n"},
		{name: "bad orientation", args: []string{"-orientation", "sideways"}},
		{name: "bad background", args: []string{"-background", "#12345"}},
		{name: "bad background in file", body: "background = \"black\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.body != "" {
				args = append([]string{"-config", writeConfig(t, tt.body)}, args...)
			}
			_, err := Parse(newFlagSet(), args)
			if err == nil {
				t.Fatal("Parse() succeeded")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Parse() error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestValidateThumbnails(t *testing.T) {
	cfg := Default()
	cfg.Thumbnails.StartFraction = 1.5
	cfg.Thumbnails.TileDP = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted bad thumbnail settings")
	}
}

func TestDefaultThumbnailsStayOnScreen(t *testing.T) {
	cfg := Default()
	th := cfg.Thumbnails
	grid, err := viewport.NewTileGrid(cfg.View(), th.TileDP, th.Density, th.TilesPerRow, th.StartFraction)
	if err != nil {
		t.Fatal(err)
	}
	tiles, err := grid.Layout(len(filters.IDs()), viewport.FrameSize{Width: cfg.FrameWidth, Height: cfg.FrameHeight})
	if err != nil {
		t.Fatal(err)
	}
	for i, tile := range tiles {
		if !tile.Rect.Within(cfg.View()) {
			t.Errorf("tile %d at %+v is outside the %v view", i, tile.Rect, cfg.View())
		}
	}
}
