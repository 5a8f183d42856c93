package viewport

import (
	"fmt"
	"math"
)

// Defaults for the filter thumbnail strip
const (
	DefaultTileDP            = 96
	DefaultTilesPerRow       = 3
	DefaultTileStartFraction = 0.20
)

// TileGrid arranges fixed-size square tiles in rows across the screen.
// Coordinates use the same bottom-left origin as Rect, so moving down a
// row decreases Y.
type TileGrid struct {
	ScreenWidth  int
	ScreenHeight int
	TileSize     int
	TilesPerRow  int
	StartY       int
}

// Tile is one placed thumbnail with its own fill transform
type Tile struct {
	Rect   Rect
	ScaleX float64
	ScaleY float64
}

// NewTileGrid derives a grid from the screen size and display metrics
func NewTileGrid(screen ViewSize, tileDP int, density float64, tilesPerRow int, startFraction float64) (TileGrid, error) {
	g := TileGrid{
		ScreenWidth:  screen.Width,
		ScreenHeight: screen.Height,
		TileSize:     int(float64(tileDP) * density),
		TilesPerRow:  tilesPerRow,
		StartY:       int(startFraction * float64(screen.Height)),
	}
	if err := g.Validate(); err != nil {
		return TileGrid{}, err
	}
	return g, nil
}

// Validate checks that the tiles fit on one row of the screen
func (g TileGrid) Validate() error {
	if g.ScreenWidth <= 0 || g.ScreenHeight <= 0 || g.TileSize <= 0 || g.TilesPerRow <= 0 {
		return fmt.Errorf("%w: screen %dx%d, tile %d, per row %d",
			ErrInvalidDimensions, g.ScreenWidth, g.ScreenHeight, g.TileSize, g.TilesPerRow)
	}
	if g.Margin() < 0 {
		return fmt.Errorf("%w: %d tiles of %dpx do not fit in %dpx",
			ErrInvalidDimensions, g.TilesPerRow, g.TileSize, g.ScreenWidth)
	}
	return nil
}

// Margin is the gap left of, between and right of the tiles of a full row
func (g TileGrid) Margin() int {
	return (g.ScreenWidth - g.TileSize*g.TilesPerRow) / (g.TilesPerRow + 1)
}

// Layout places n tiles showing content of the given source size
func (g TileGrid) Layout(n int, source FrameSize) ([]Tile, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if !source.valid() {
		return nil, fmt.Errorf("%w: source %dx%d", ErrInvalidDimensions, source.Width, source.Height)
	}

	scaleX, scaleY := g.fill(source)
	margin := g.Margin()
	step := g.TileSize + margin

	tiles := make([]Tile, 0, n)
	x, y := margin, g.StartY
	for i := 0; i < n; i++ {
		tiles = append(tiles, Tile{
			Rect:   Rect{X: x, Y: y, Width: g.TileSize, Height: g.TileSize},
			ScaleX: scaleX,
			ScaleY: scaleY,
		})

		x += step
		if g.ScreenWidth < x+g.TileSize+margin {
			x = margin
			y -= step
		}
	}
	return tiles, nil
}

// fill returns the crop-to-fill quad scale for a square tile
func (g TileGrid) fill(source FrameSize) (float64, float64) {
	t := float64(g.TileSize)
	fw, fh := float64(source.Width), float64(source.Height)
	scale := math.Max(t/fw, t/fh)
	return (scale * fw) / t, (scale * fh) / t
}

// Result returns the tile as a viewport mapping result
func (t Tile) Result() Result {
	return Result{Viewport: t.Rect, ScaleX: t.ScaleX, ScaleY: t.ScaleY}
}
