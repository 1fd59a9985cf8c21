// Package manager wires the leaf packages (workspace, layout, fsa, rules,
// ewmhsync, command) into the concrete event handlers spec.md §4.6's
// dispatch table describes, and implements eventloop.Dispatcher so the
// assembled Manager can be driven by internal/eventloop's multiplexer.
package manager

import (
	"github.com/nuclearfall/howm/internal/layout"
	"github.com/nuclearfall/howm/internal/rules"
)

// Config is the single literal-built configuration object referenced by
// Manager, the way marwind.Config is referenced from wm/manager but built
// by the caller in main().
type Config struct {
	Workspaces int

	Gap         uint16
	BorderWidth uint32
	BorderColor uint32
	BorderColorUrgent uint32

	MasterRatio   float64
	DefaultLayout layout.Kind
	ZoomGap       bool

	BarHeight uint32
	BarOnTop  bool

	FocusFollowsMouse bool
	FocusOnClick      bool

	// CountModMask is the real X modifier mask a count digit must be
	// pressed with (spec.md §4.4's CountModifier is a grammar placeholder;
	// this is what it is bound to at runtime, e.g. Mod1Mask).
	CountModMask uint16

	RegisterDepth int

	// SpawnWidth/SpawnHeight are the fallback dimensions for a client
	// whose initial geometry query comes back empty (spec.md §4.6:
	// "falling back to configured spawn dims, optionally centred").
	SpawnWidth, SpawnHeight uint16
	CenterFloating          bool

	ScratchpadWidthFrac, ScratchpadHeightFrac float64

	Rules Table

	SocketPath string
}

// Table is an alias kept local so cmd/howm can build a rule table without
// importing internal/rules directly for this one type.
type Table = rules.Table
