// Package workspace implements the workspace and global-state model
// (spec.md §3, §4.2): an ordered client list per workspace plus
// focus/previous-focus pointers, and the fixed-size array of workspaces
// that is the manager's single source of truth (spec.md §9).
package workspace

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/nuclearfall/howm/internal/client"
	"github.com/nuclearfall/howm/internal/clientlist"
	"github.com/nuclearfall/howm/internal/layout"
	"github.com/sirupsen/logrus"
)

// MinMasterRatio and MaxMasterRatio bound the master-ratio invariant
// (spec.md §3: "never set to a value that would collapse either region to
// zero").
const (
	MinMasterRatio = 0.1
	MaxMasterRatio = 0.9
)

// Workspace is an ordered list of clients plus its layout bookkeeping.
type Workspace struct {
	ID int

	List clientlist.List

	Layout      layout.Kind
	GapBaseline uint16
	MasterRatio float64
	BarHeight   uint32
	BarOnTop    bool

	Current  *client.Client
	Previous *client.Client
}

// New builds a Workspace with sane layout defaults.
func New(id int) *Workspace {
	return &Workspace{
		ID:          id,
		Layout:      layout.Zoom,
		MasterRatio: 0.5,
	}
}

// Count is the number of clients currently on this workspace. Spec.md §3
// invariant: "client count ... must equal list length" — this is the list's
// own stored Count, which Append/Unlink and the cut/paste splices keep equal
// to the list length.
func (w *Workspace) Count() int { return w.List.Count }

// SetMasterRatio clamps r into [MinMasterRatio, MaxMasterRatio], preserving
// the invariant that neither stack region ever collapses to zero.
func (w *Workspace) SetMasterRatio(r float64) {
	switch {
	case r < MinMasterRatio:
		r = MinMasterRatio
	case r > MaxMasterRatio:
		r = MaxMasterRatio
	}
	w.MasterRatio = r
}

// AppendNew adds c to the tail of the list, inheriting the workspace's gap
// baseline, and makes it current.
func (w *Workspace) AppendNew(c *client.Client) {
	if c.Gap == 0 {
		c.Gap = w.GapBaseline
	}
	w.List.Append(c)
	w.focus(c)
}

// focus sets Current/Previous, preserving the invariant that both, when
// non-nil, reference clients in this workspace's list.
func (w *Workspace) focus(c *client.Client) {
	if c != nil && !w.List.Contains(c) {
		return
	}
	if w.Current != c {
		w.Previous = w.Current
	}
	w.Current = c
}

// Focus explicitly sets the current client (used by enter-notify,
// button-press and _NET_ACTIVE_WINDOW handlers).
func (w *Workspace) Focus(c *client.Client) { w.focus(c) }

// refocusAfterRemoval is called after c leaves the list (unlink, move,
// cut) to keep Current/Previous valid. pred is c's former predecessor, if
// known (may be nil).
func (w *Workspace) refocusAfterRemoval(c, pred *client.Client) {
	if w.Current == c {
		w.Current = pred
	}
	if w.Previous == c {
		w.Previous = nil
	}
}

// WindowMapper is the X11 side effect boundary switch/move/kill drive
// (spec.md §9: "collected into one context object passed through
// handlers"); kept as a small interface here so this package stays
// testable without a display server.
type WindowMapper interface {
	MapWindow(xproto.Window) error
	UnmapWindow(xproto.Window) error
}

// Closer performs the polite-vs-forceful window close of spec.md §4.2's
// kill operation (WM_DELETE_WINDOW when advertised, else a destroy).
type Closer interface {
	Close(xproto.Window) error
}

// FocusSyncer propagates EWMH state after focus/workspace changes
// (spec.md §4.9).
type FocusSyncer interface {
	SyncFocus(xproto.Window) error
	SyncWorkspaceSwitch(current int) error
}

// Kill closes and unlinks the workspace's current client (spec.md §4.2). A
// no-op on an empty workspace.
func (w *Workspace) Kill(closer Closer, log *logrus.Logger) error {
	c := w.Current
	if c == nil {
		return nil
	}
	if err := closer.Close(c.Window); err != nil {
		if log != nil {
			log.WithError(err).Warn("workspace: close failed, unlinking anyway")
		}
	}
	pred := w.List.Predecessor(c)
	w.List.Unlink(c)
	w.refocusAfterRemoval(c, pred)
	return nil
}

// String renders the status line fragment for this workspace (spec.md §6:
// "mode:layout:workspace:fsa-state:client-count" — the layout and count
// portions live here).
func (w *Workspace) String() string {
	return fmt.Sprintf("ws%d:%s:%d", w.ID, layoutName(w.Layout), w.Count())
}

func layoutName(k layout.Kind) string {
	switch k {
	case layout.Grid:
		return "grid"
	case layout.HStack:
		return "hstack"
	case layout.VStack:
		return "vstack"
	default:
		return "zoom"
	}
}
