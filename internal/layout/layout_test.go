package layout

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/nuclearfall/howm/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 1 (spec.md §8): single client A on zoom layout with a top bar.
func TestZoomSingleClient(t *testing.T) {
	a := client.New(1)
	screen := Screen{W: 1920, H: 1080, BarHeight: 20, BarOnTop: true}

	placements := Arrange([]*client.Client{a}, screen, Zoom, 0.5, 2, false)
	require.Len(t, placements, 1)
	assert.Equal(t, Rect{X: 0, Y: 20, W: 1920, H: 1060}, placements[0].Rect)
	assert.Equal(t, uint32(0), placements[0].Border, "zoom with zoomGap disabled has zero border")
}

// Scenario 2 (spec.md §8): A, B, C on vstack with master_ratio 0.5, no gap.
func TestVstackThreeClients(t *testing.T) {
	a, b, c := client.New(1), client.New(2), client.New(3)
	screen := Screen{W: 1920, H: 1080, BarHeight: 20, BarOnTop: true}

	placements := Arrange([]*client.Client{a, b, c}, screen, VStack, 0.5, 0, false)
	require.Len(t, placements, 3)
	byClient := map[*client.Client]Rect{}
	for _, p := range placements {
		byClient[p.Client] = p.Rect
	}
	assert.Equal(t, Rect{X: 0, Y: 20, W: 960, H: 1060}, byClient[a])
	assert.Equal(t, Rect{X: 960, Y: 20, W: 960, H: 530}, byClient[b])
	assert.Equal(t, Rect{X: 960, Y: 550, W: 960, H: 530}, byClient[c])
}

func TestZoomFallbackWhenSingleTilable(t *testing.T) {
	a := client.New(1)
	screen := Screen{W: 1000, H: 1000}
	placements := Arrange([]*client.Client{a}, screen, Grid, 0.5, 0, true)
	require.Len(t, placements, 1)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 1000, H: 1000}, placements[0].Rect)
}

func TestGridTilesDrawableArea(t *testing.T) {
	n := 7
	clients := make([]*client.Client, n)
	for i := range clients {
		clients[i] = client.New(xproto.Window(100 + i))
	}
	screen := Screen{W: 1920, H: 1080}
	placements := Arrange(clients, screen, Grid, 0.5, 0, true)
	require.Len(t, placements, n)

	var area uint64
	for _, p := range placements {
		area += uint64(p.Rect.W) * uint64(p.Rect.H)
	}
	drawableArea := uint64(1920) * uint64(1080)
	// cols=3, rows=2 -> bound is (cols+rows) rows/cols of slack in pixels,
	// generously bounded here by a full row/col of pixels.
	assert.InDelta(t, float64(drawableArea), float64(area), float64(1920+1080)*10)
}

func TestFFTClientsSkippedByTiling(t *testing.T) {
	tiled := client.New(1)
	floating := client.New(2)
	floating.Floating = true
	floating.X, floating.Y, floating.W, floating.H = 100, 100, 400, 300

	screen := Screen{W: 1920, H: 1080}
	placements := Arrange([]*client.Client{tiled, floating}, screen, Zoom, 0.5, 0, true)
	require.Len(t, placements, 2)

	var floatRect, tiledRect Rect
	for _, p := range placements {
		if p.Client == floating {
			floatRect = p.Rect
		} else {
			tiledRect = p.Rect
		}
	}
	assert.Equal(t, Rect{X: 100, Y: 100, W: 400, H: 300}, floatRect, "floating geometry is untouched by layout")
	assert.Equal(t, Rect{X: 0, Y: 0, W: 1920, H: 1080}, tiledRect, "sole tiled client still gets full drawable area")
}

func TestFullscreenIgnoresGapAndBorder(t *testing.T) {
	fs := client.New(1)
	fs.Fullscreen = true
	fs.Gap = 20
	screen := Screen{W: 1920, H: 1080, BarHeight: 20, BarOnTop: true}
	placements := Arrange([]*client.Client{fs}, screen, Zoom, 0.5, 4, false)
	require.Len(t, placements, 1)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 1920, H: 1080}, placements[0].Rect, "fullscreen ignores bar reservation and gap")
	assert.Equal(t, uint32(0), placements[0].Border)
}
