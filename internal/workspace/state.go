package workspace

import (
	"errors"
	"fmt"

	"github.com/nuclearfall/howm/internal/client"
	"github.com/nuclearfall/howm/internal/layout"
	"github.com/nuclearfall/howm/internal/register"
	"github.com/sirupsen/logrus"
)

// ErrNoSuchWorkspace is returned when an index outside [1, N] is used.
var ErrNoSuchWorkspace = errors.New("workspace: no such workspace")

// ReplayKind identifies which half of the replay record is live
// (spec.md §3: "exactly one of the two is live at any time").
type ReplayKind int

const (
	ReplayNone ReplayKind = iota
	ReplayCommand
	ReplayTriple
)

// Replay is the last-command-or-last-triple record (spec.md §3, §4.6).
type Replay struct {
	Kind ReplayKind

	CommandName string
	CommandArg  interface{}
	CommandFn   func(arg interface{}) error

	TripleOpName string
	TripleMotion int
	TripleCount  int
	TripleFn     func(motion int, count int)
}

// State is the manager's global process state (spec.md §3): the fixed-size
// workspace array, the current/last-focused workspace indices, the
// scratchpad slot, the delete register, and the replay record.
type State struct {
	Workspaces []*Workspace // index 0 unused; 1..N are live, matching cw's 1-based range
	N          int

	CW         int
	LastWS     int
	PrevLayout layout.Kind

	Scratchpad *client.Client

	Register *register.Stack

	Replay Replay

	Log *logrus.Logger
}

// NewState allocates N workspaces (spec.md §3: "N is a compile-time
// constant, typically 5-9") and a delete register of the given depth.
func NewState(n int, registerDepth int, log *logrus.Logger) *State {
	ws := make([]*Workspace, n+1)
	for i := 1; i <= n; i++ {
		ws[i] = New(i)
	}
	return &State{
		Workspaces: ws,
		N:          n,
		CW:         1,
		LastWS:     1,
		Register:   register.New(registerDepth),
		Log:        log,
	}
}

// Current returns the current workspace.
func (s *State) Current() *Workspace { return s.Workspaces[s.CW] }

// At returns workspace i, or nil if i is out of [1, N].
func (s *State) At(i int) *Workspace {
	if i < 1 || i > s.N {
		return nil
	}
	return s.Workspaces[i]
}

// UnlinkAny removes target from whichever workspace currently owns it,
// without the caller needing to know which (spec.md §4.1). Returns the
// owning workspace, or nil if target was not found on any workspace (it
// may be in the scratchpad slot or a register sublist instead).
func (s *State) UnlinkAny(target *client.Client) *Workspace {
	for i := 1; i <= s.N; i++ {
		ws := s.Workspaces[i]
		if ws.List.Contains(target) {
			pred := ws.List.Predecessor(target)
			ws.List.Unlink(target)
			ws.refocusAfterRemoval(target, pred)
			return ws
		}
	}
	return nil
}

// Switch activates workspace i (spec.md §4.2). A no-op, not an error, when
// i equals the current workspace or is out of range.
func (s *State) Switch(i int, wm WindowMapper, sync FocusSyncer) error {
	if i == s.CW || i < 1 || i > s.N {
		return nil
	}
	next := s.Workspaces[i]
	old := s.Workspaces[s.CW]

	for c := next.List.Head; c != nil; c = c.Next {
		if err := wm.MapWindow(c.Window); err != nil {
			return fmt.Errorf("workspace: map client on switch-in: %w", err)
		}
	}
	for c := old.List.Head; c != nil; c = c.Next {
		if err := wm.UnmapWindow(c.Window); err != nil {
			return fmt.Errorf("workspace: unmap client on switch-out: %w", err)
		}
	}

	s.LastWS = s.CW
	s.CW = i

	if next.Current != nil {
		if err := sync.SyncFocus(next.Current.Window); err != nil {
			return fmt.Errorf("workspace: sync focus on switch: %w", err)
		}
	}
	if err := sync.SyncWorkspaceSwitch(s.CW); err != nil {
		return fmt.Errorf("workspace: sync desktop on switch: %w", err)
	}
	return nil
}

// FocusLastWorkspace switches back to the last-focused workspace
// (spec.md §8 scenario 3's "focus-last-ws" command).
func (s *State) FocusLastWorkspace(wm WindowMapper, sync FocusSyncer) error {
	return s.Switch(s.LastWS, wm, sync)
}

// MoveClient moves c from the current workspace to workspace j, optionally
// following it (spec.md §4.2).
func (s *State) MoveClient(c *client.Client, j int, follow bool, wm WindowMapper, sync FocusSyncer) error {
	target := s.At(j)
	if target == nil {
		return ErrNoSuchWorkspace
	}
	cw := s.Current()
	if target == cw {
		return nil
	}
	pred := cw.List.Predecessor(c)
	if !cw.List.Unlink(c) {
		return fmt.Errorf("workspace: client not on current workspace")
	}
	cw.refocusAfterRemoval(c, pred)

	target.AppendNew(c)

	if follow {
		return s.Switch(j, wm, sync)
	}
	if err := wm.UnmapWindow(c.Window); err != nil {
		return fmt.Errorf("workspace: unmap moved client: %w", err)
	}
	if pred != nil {
		cw.focus(pred)
	}
	return nil
}
