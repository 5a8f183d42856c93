// Application configuration: defaults, optional TOML file, command-line flags
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/gg"

	"camera-filter-preview/internal/filters"
	"camera-filter-preview/internal/preview"
	"camera-filter-preview/internal/viewport"
)

// DefaultTileStartFraction places the first thumbnail row at half the view
// height. With the default view and tile size the second row then still
// lands on screen, which the lower fraction used on phones does not give.
const DefaultTileStartFraction = 0.5

// DefaultBackground is the letterbox color
const DefaultBackground = "#000000"

// Config holds everything needed to start a preview surface
type Config struct {
	Debug bool `toml:"debug"`

	// OpenCV applies filters through gocv instead of the CPU color matrices
	OpenCV bool `toml:"opencv"`

	// FramePath is an optional still image used as the source frame
	FramePath   string `toml:"frame_path"`
	FrameWidth  int    `toml:"frame_width"`
	FrameHeight int    `toml:"frame_height"`

	ViewWidth   int                `toml:"view_width"`
	ViewHeight  int                `toml:"view_height"`
	Orientation string             `toml:"orientation"`
	Policy      viewport.FitPolicy `toml:"policy"`
	Filter      filters.ID         `toml:"filter"`
	Thumbnails  ThumbnailConfig    `toml:"thumbnails"`

	// Background is the letterbox color as #RGB or #RRGGBB
	Background string `toml:"background"`
}

// ThumbnailConfig is the [thumbnails] table
type ThumbnailConfig struct {
	Enabled       bool    `toml:"enabled"`
	TileDP        int     `toml:"tile_dp"`
	Density       float64 `toml:"density"`
	TilesPerRow   int     `toml:"tiles_per_row"`
	StartFraction float64 `toml:"start_fraction"`
}

// Default returns a 320x240 square preview on an 800x480 view
func Default() Config {
	return Config{
		FrameWidth:  320,
		FrameHeight: 240,
		ViewWidth:   800,
		ViewHeight:  480,
		Orientation: viewport.Landscape.String(),
		Policy:      viewport.Square,
		Filter:      filters.Identity,
		Thumbnails: ThumbnailConfig{
			Enabled:       true,
			TileDP:        viewport.DefaultTileDP,
			Density:       1,
			TilesPerRow:   viewport.DefaultTilesPerRow,
			StartFraction: DefaultTileStartFraction,
		},
		Background: DefaultBackground,
	}
}

// LoadFile overlays the TOML file at path onto cfg
func LoadFile(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("read config %s: unknown keys %v", path, undecoded)
	}
	return nil
}

// Parse builds a Config from defaults, the file named by -config and the
// remaining flags, in that order of precedence.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Default()

	configPath := fs.String("config", "", "Path to a TOML configuration file")
	debug := fs.Bool("debug", false, "Enable debug mode with verbose logging")
	framePath := fs.String("frame", "", "Still image to use as the source frame")
	viewWidth := fs.Int("width", 0, "View width in pixels")
	viewHeight := fs.Int("height", 0, "View height in pixels")
	orientation := fs.String("orientation", "", "Display orientation: landscape or portrait")
	policy := fs.String("policy", "", "Fit policy: stretch, keep-aspect-viewport, keep-aspect, crop-center, square")
	filter := fs.String("filter", "", "Filter: identity, grayscale, invert, sepia")
	useOpenCV := fs.Bool("opencv", false, "Apply filters with OpenCV")
	noThumbs := fs.Bool("no-thumbnails", false, "Hide the filter thumbnail strip")
	background := fs.String("background", "", "Letterbox color as #RGB or #RRGGBB")
	density := fs.Float64("density", 0, "Display density used to size thumbnails")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		if err := LoadFile(*configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	if *debug {
		cfg.Debug = true
	}
	if *useOpenCV {
		cfg.OpenCV = true
	}
	if *framePath != "" {
		cfg.FramePath = *framePath
	}
	if *viewWidth > 0 {
		cfg.ViewWidth = *viewWidth
	}
	if *viewHeight > 0 {
		cfg.ViewHeight = *viewHeight
	}
	if *orientation != "" {
		cfg.Orientation = *orientation
	}
	if *policy != "" {
		p, err := viewport.ParseFitPolicy(*policy)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = p
	}
	if *filter != "" {
		id, err := filters.ParseID(*filter)
		if err != nil {
			return Config{}, err
		}
		cfg.Filter = id
	}
	if *noThumbs {
		cfg.Thumbnails.Enabled = false
	}
	if *background != "" {
		cfg.Background = *background
	}
	if *density > 0 {
		cfg.Thumbnails.Density = *density
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the presenter cannot use
func (c Config) Validate() error {
	var errs []error
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		errs = append(errs, fmt.Errorf("frame size %dx%d: %w", c.FrameWidth, c.FrameHeight, viewport.ErrInvalidDimensions))
	}
	if c.ViewWidth <= 0 || c.ViewHeight <= 0 {
		errs = append(errs, fmt.Errorf("view size %dx%d: %w", c.ViewWidth, c.ViewHeight, viewport.ErrInvalidDimensions))
	}
	if _, err := viewport.ParseOrientation(c.Orientation); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Policy.MarshalText(); err != nil {
		errs = append(errs, err)
	}
	if !c.Filter.Valid() {
		errs = append(errs, fmt.Errorf("%w: %d", filters.ErrUnknownFilter, int(c.Filter)))
	}
	t := c.Thumbnails
	if t.TileDP <= 0 || t.Density <= 0 || t.TilesPerRow <= 0 {
		errs = append(errs, fmt.Errorf("thumbnails: tile_dp, density and tiles_per_row must be positive"))
	}
	if t.StartFraction < 0 || t.StartFraction > 1 {
		errs = append(errs, fmt.Errorf("thumbnails: start_fraction %v outside [0, 1]", t.StartFraction))
	}
	if !validHexColor(c.Background) {
		errs = append(errs, fmt.Errorf("background %q: want #RGB or #RRGGBB", c.Background))
	}
	return errors.Join(errs...)
}

func validHexColor(s string) bool {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 3 && len(s) != 6 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// View returns the configured view size
func (c Config) View() viewport.ViewSize {
	return viewport.ViewSize{Width: c.ViewWidth, Height: c.ViewHeight}
}

// OrientationValue returns the parsed orientation
func (c Config) OrientationValue() viewport.Orientation {
	o, _ := viewport.ParseOrientation(c.Orientation)
	return o
}

// BackgroundColor returns the parsed letterbox color
func (c Config) BackgroundColor() gg.RGBA {
	return gg.Hex(c.Background)
}

// PreviewOptions converts the configuration into presenter options
func (c Config) PreviewOptions() preview.Options {
	return preview.Options{
		Frame:       viewport.FrameSize{Width: c.FrameWidth, Height: c.FrameHeight},
		Policy:      c.Policy,
		Filter:      c.Filter,
		Orientation: c.OrientationValue(),
		Thumbnails: preview.ThumbnailOptions{
			Enabled:       c.Thumbnails.Enabled,
			TileDP:        c.Thumbnails.TileDP,
			Density:       c.Thumbnails.Density,
			TilesPerRow:   c.Thumbnails.TilesPerRow,
			StartFraction: c.Thumbnails.StartFraction,
		},
	}
}
