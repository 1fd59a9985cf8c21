// Package layout implements the pure geometry functions that arrange a
// workspace's clients (spec.md §4.3). Every exported function here is a
// pure function of its arguments — no X11, no global state — so the whole
// package is unit-testable without a display server.
package layout

import (
	"math"

	"github.com/nuclearfall/howm/internal/client"
)

// Kind identifies one of the four supported layouts.
type Kind int

const (
	Zoom Kind = iota
	Grid
	HStack
	VStack
)

// Rect is an axis-aligned screen-pixel rectangle. X/Y may be negative only
// transiently during arithmetic; final placements are always on-screen.
type Rect struct {
	X, Y int32
	W, H uint32
}

// Screen describes the physical output and its bar reservation.
type Screen struct {
	W, H      uint32
	BarHeight uint32
	// BarOnTop, when true, reserves BarHeight at the top of the screen
	// (drawable area starts below it); otherwise it is reserved at the
	// bottom.
	BarOnTop bool
}

// Drawable returns the rectangle remaining after the bar reservation.
func (s Screen) Drawable() Rect {
	h := s.H
	if h < s.BarHeight {
		h = 0
	} else {
		h -= s.BarHeight
	}
	y := int32(0)
	if s.BarOnTop {
		y = int32(s.BarHeight)
	}
	return Rect{X: 0, Y: y, W: s.W, H: h}
}

// Placement is the final, gap/border-adjusted rectangle for one client plus
// the border width the draw pass should configure.
type Placement struct {
	Client *client.Client
	Rect   Rect
	Border uint32
}

// Arrange computes placements for every client in clients, which may be in
// any order and may include FFT clients (spec.md glossary): floating,
// transient and fullscreen clients get their own policy-driven placement
// (points 1 and 2 below); only non-FFT clients participate in the tiling
// math.
//
// Drawing policy (spec.md §4.3):
//  1. fullscreen, or zoom layout with zoomGap disabled: zero border, full
//     rectangle.
//  2. floating or transient: configured border, geometry the client already owns
//     (its stored X/Y/W/H) — untouched by the tiling math.
//  3. otherwise (tiled): inset by the client's gap on each side, with the
//     border width counted on both sides of the content rectangle too.
func Arrange(clients []*client.Client, screen Screen, kind Kind, masterRatio float64, borderWidth uint32, zoomGapEnabled bool) []Placement {
	drawable := screen.Drawable()

	var tilable []*client.Client
	placements := make([]Placement, 0, len(clients))

	for _, c := range clients {
		switch {
		case c.Fullscreen:
			placements = append(placements, Placement{Client: c, Rect: Rect{X: 0, Y: 0, W: screen.W, H: screen.H}, Border: 0})
		case c.Floating || c.Transient:
			placements = append(placements, Placement{
				Client: c,
				Rect:   Rect{X: int32(c.X), Y: int32(c.Y), W: uint32(c.W), H: uint32(c.H)},
				Border: borderWidth,
			})
		default:
			tilable = append(tilable, c)
		}
	}

	if len(tilable) == 0 {
		return placements
	}

	effectiveKind := kind
	if kind != Zoom && len(tilable) <= 1 {
		effectiveKind = Zoom
	}

	var raw []Rect
	switch effectiveKind {
	case Grid:
		raw = grid(tilable, drawable)
	case VStack:
		raw = vstack(tilable, drawable, masterRatio)
	case HStack:
		raw = hstack(tilable, drawable, masterRatio)
	default:
		raw = zoom(tilable, drawable)
	}

	zeroBorder := effectiveKind == Zoom && !zoomGapEnabled
	for i, c := range tilable {
		if zeroBorder {
			placements = append(placements, Placement{Client: c, Rect: raw[i], Border: 0})
			continue
		}
		placements = append(placements, Placement{
			Client: c,
			Rect:   insetForGapAndBorder(raw[i], clampGap(c.Gap), borderWidth),
			Border: borderWidth,
		})
	}
	return placements
}

// clampGap saturates a negative-after-conversion gap at zero (spec.md §4.3
// numeric semantics: "negative configured gap saturates at zero"). Client.Gap
// is unsigned, so this only matters when it is constructed from a signed
// source upstream; kept explicit so the intent is visible here too.
func clampGap(gap uint16) int32 {
	g := int32(gap)
	if g < 0 {
		return 0
	}
	return g
}

// insetForGapAndBorder shrinks rect by gap on every side, then further
// shrinks the content rectangle by borderWidth on every side so that the
// total on-screen footprint (content + border) still fits within the
// gap-inset rectangle.
func insetForGapAndBorder(r Rect, gap int32, border uint32) Rect {
	inset := gap + int32(border)
	w := shrink(r.W, uint32(inset)*2)
	h := shrink(r.H, uint32(inset)*2)
	return Rect{
		X: r.X + inset,
		Y: r.Y + inset,
		W: w,
		H: h,
	}
}

func shrink(v, by uint32) uint32 {
	if by >= v {
		return 0
	}
	return v - by
}

func zoom(tilable []*client.Client, drawable Rect) []Rect {
	out := make([]Rect, len(tilable))
	for i := range tilable {
		out[i] = drawable
	}
	return out
}

// grid chooses cols = ceil(sqrt(n)), rows = n/cols, and gives the last
// `extra` columns one additional row each, where extra = n - rows*cols, so
// that every client is placed and the union of rectangles tiles drawable up
// to integer-division remainders (spec.md §4.3, §8 grid property).
func grid(tilable []*client.Client, drawable Rect) []Rect {
	n := len(tilable)
	out := make([]Rect, n)

	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	rows := n / cols
	extra := n - rows*cols

	colWidth := drawable.W / uint32(cols)
	idx := 0
	x := drawable.X
	for col := 0; col < cols; col++ {
		w := colWidth
		if col == cols-1 {
			w = drawable.W - colWidth*uint32(cols-1)
		}
		rowsInCol := rows
		if col >= cols-extra {
			rowsInCol++
		}
		if rowsInCol == 0 {
			continue
		}
		rowHeight := drawable.H / uint32(rowsInCol)
		y := drawable.Y
		for row := 0; row < rowsInCol; row++ {
			h := rowHeight
			if row == rowsInCol-1 {
				h = drawable.H - rowHeight*uint32(rowsInCol-1)
			}
			out[idx] = Rect{X: x, Y: y, W: w, H: h}
			idx++
			y += int32(h)
		}
		x += int32(w)
	}
	return out
}

// vstack places a master region on the left (width = drawable.W *
// masterRatio, full drawable height), stacking the remaining clients
// vertically in the right strip (spec.md §4.3).
func vstack(tilable []*client.Client, drawable Rect, masterRatio float64) []Rect {
	n := len(tilable)
	out := make([]Rect, n)
	masterW := uint32(float64(drawable.W) * masterRatio)
	out[0] = Rect{X: drawable.X, Y: drawable.Y, W: masterW, H: drawable.H}
	if n == 1 {
		return out
	}
	stackN := n - 1
	stackW := drawable.W - masterW
	stackX := drawable.X + int32(masterW)
	stackHEach := drawable.H / uint32(stackN)
	y := drawable.Y
	for i := 0; i < stackN; i++ {
		h := stackHEach
		if i == stackN-1 {
			h = drawable.H - stackHEach*uint32(stackN-1)
		}
		out[i+1] = Rect{X: stackX, Y: y, W: stackW, H: h}
		y += int32(h)
	}
	return out
}

// hstack is the transpose of vstack: master on top, the rest in a row
// beneath it (spec.md §4.3).
func hstack(tilable []*client.Client, drawable Rect, masterRatio float64) []Rect {
	n := len(tilable)
	out := make([]Rect, n)
	masterH := uint32(float64(drawable.H) * masterRatio)
	out[0] = Rect{X: drawable.X, Y: drawable.Y, W: drawable.W, H: masterH}
	if n == 1 {
		return out
	}
	stackN := n - 1
	stackH := drawable.H - masterH
	stackY := drawable.Y + int32(masterH)
	stackWEach := drawable.W / uint32(stackN)
	x := drawable.X
	for i := 0; i < stackN; i++ {
		w := stackWEach
		if i == stackN-1 {
			w = drawable.W - stackWEach*uint32(stackN-1)
		}
		out[i+1] = Rect{X: x, Y: stackY, W: w, H: stackH}
		x += int32(w)
	}
	return out
}
