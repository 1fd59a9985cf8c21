// Package fsa implements the operator/count/motion input grammar (spec.md
// §4.4): a three-state automaton (OPERATOR, COUNT, MOTION) plus a pending
// (operator, count) tuple, re-entrant after every completed triple. No
// goroutine or coroutine is needed (spec.md §9) — Feed is called
// synchronously from the key-press handler.
package fsa

import "github.com/BurntSushi/xgb/xproto"

// State is one of the three automaton states.
type State int

const (
	StateOperator State = iota
	StateCount
	StateMotion
)

// MotionType identifies what an invoked operator should act on.
type MotionType int

const (
	MotionClient MotionType = iota
	MotionWorkspace
)

// Operator is invoked with the resolved motion type and count once a full
// triple is assembled.
type Operator func(motion MotionType, count int)

// OperatorRow binds a (keysym, modifiers, mode) triple to an Operator.
type OperatorRow struct {
	Sym  xproto.Keysym
	Mods uint16
	Mode int
	Op   Operator
	// Name identifies this row for replay bookkeeping and status output.
	Name string
}

// MotionRow binds a (keysym, modifiers) pair to a motion type.
type MotionRow struct {
	Sym   xproto.Keysym
	Mods  uint16
	Motion MotionType
}

// DirectBinding is a non-operator command bound to a single key, scanned on
// every key press regardless of automaton state (spec.md §4.4).
type DirectBinding struct {
	Sym      xproto.Keysym
	Mods     uint16
	Mode     int
	Name     string
	Invoke   func()
	IsReplay bool
}

// CountModifier is the dedicated modifier that must accompany a count
// digit in StateCount (spec.md §4.4).
const CountModifier = uint16(1 << 15) // placeholder bit reserved for the count chord; rebindable via Config

// Triple is the last completed (operator, motion, count) triple, retained
// for replay.
type Triple struct {
	Op     Operator
	OpName string
	Motion MotionType
	Count  int
}

// Automaton assembles operator/count/motion triples from a stream of key
// presses (spec.md §4.4).
type Automaton struct {
	state State

	operatorRows   []OperatorRow
	motionRows     []MotionRow
	directBindings []DirectBinding

	pendingOp    Operator
	pendingName  string
	pendingCount int

	// OnTriple is called whenever a full triple is invoked, for replay
	// bookkeeping (spec.md §4.6 replay record).
	OnTriple func(Triple)
	// OnDirect is called after a direct binding fires, unless it is the
	// replay command itself (spec.md §4.4: "to prevent self-reference
	// loops").
	OnDirect func(DirectBinding)
}

// New builds an Automaton starting in StateOperator.
func New(operatorRows []OperatorRow, motionRows []MotionRow, directBindings []DirectBinding) *Automaton {
	return &Automaton{
		state:          StateOperator,
		operatorRows:   operatorRows,
		motionRows:     motionRows,
		directBindings: directBindings,
		pendingCount:   1,
	}
}

// State reports the automaton's current state (for status output).
func (a *Automaton) State() State { return a.state }

// SetBindings installs the binding tables after construction, so the
// automaton can be built before the operators that close over its owning
// Manager exist (cmd/howm wires Manager first, then feeds its methods back
// in as operators/invokers).
func (a *Automaton) SetBindings(operatorRows []OperatorRow, motionRows []MotionRow, directBindings []DirectBinding) {
	a.operatorRows = operatorRows
	a.motionRows = motionRows
	a.directBindings = directBindings
}

// OperatorRows, MotionRows, and DirectBindings expose the bound tables for
// the startup key-grab pass (cmd/howm), which must grab exactly the keys
// the automaton will actually recognise.
func (a *Automaton) OperatorRows() []OperatorRow     { return a.operatorRows }
func (a *Automaton) MotionRows() []MotionRow         { return a.motionRows }
func (a *Automaton) DirectBindings() []DirectBinding { return a.directBindings }

// String renders the status-line fragment for s (spec.md §6:
// "mode:layout:workspace:fsa-state:client-count").
func (s State) String() string {
	switch s {
	case StateCount:
		return "count"
	case StateMotion:
		return "motion"
	default:
		return "operator"
	}
}

// reset returns the automaton to its initial, terminal state with the
// default count (spec.md §4.4: "Counts ... a count of 1 is the implicit
// default").
func (a *Automaton) reset() {
	a.state = StateOperator
	a.pendingOp = nil
	a.pendingName = ""
	a.pendingCount = 1
}

// Feed processes one key press (already stripped of numlock/caps-lock by
// the caller, spec.md §4.4) in the given mode, and scans direct bindings
// regardless of automaton state.
func (a *Automaton) Feed(sym xproto.Keysym, mods uint16, mode int) {
	a.feedOperatorGrammar(sym, mods, mode)
	a.feedDirectBindings(sym, mods, mode)
}

func (a *Automaton) feedOperatorGrammar(sym xproto.Keysym, mods uint16, mode int) {
	switch a.state {
	case StateOperator:
		for _, row := range a.operatorRows {
			if row.Sym == sym && row.Mods == mods && row.Mode == mode {
				a.pendingOp = row.Op
				a.pendingName = row.Name
				a.state = StateCount
				return
			}
		}
		// No operator matched: stays in StateOperator, falls through to
		// direct-binding scanning in Feed.

	case StateCount:
		if mods == CountModifier && sym >= '1' && sym <= '9' {
			a.pendingCount = int(sym - '0')
			a.state = StateMotion
			return
		}
		// "fall through to MOTION on any other key" (vim-style implicit
		// count of 1).
		a.state = StateMotion
		a.feedMotion(sym, mods)

	case StateMotion:
		a.feedMotion(sym, mods)
	}
}

func (a *Automaton) feedMotion(sym xproto.Keysym, mods uint16) {
	for _, row := range a.motionRows {
		if row.Sym == sym && row.Mods == mods {
			op, name, count := a.pendingOp, a.pendingName, a.pendingCount
			a.reset()
			if op == nil {
				return
			}
			op(row.Motion, count)
			if a.OnTriple != nil {
				a.OnTriple(Triple{Op: op, OpName: name, Motion: row.Motion, Count: count})
			}
			return
		}
	}
	// No motion matched yet: remain in StateMotion awaiting one.
}

func (a *Automaton) feedDirectBindings(sym xproto.Keysym, mods uint16, mode int) {
	for _, b := range a.directBindings {
		if b.Sym == sym && b.Mods == mods && b.Mode == mode {
			b.Invoke()
			if !b.IsReplay && a.OnDirect != nil {
				a.OnDirect(b)
			}
			return
		}
	}
}
