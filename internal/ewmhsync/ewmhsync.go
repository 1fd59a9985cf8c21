// Package ewmhsync pushes the manager's state out as the EWMH properties
// other tools (bars, pagers, compositors) read (spec.md §4.9). It is built
// entirely on top of internal/x11's atom/property primitives — no separate
// EWMH library is depended on, since the only candidate in the retrieval
// pack (xgbutil) could not be reliably reconstructed (see DESIGN.md).
//
// Syncer implements workspace.FocusSyncer so that internal/workspace's
// Switch/MoveClient/FocusLastWorkspace operations can drive EWMH updates
// without depending on internal/x11 directly.
package ewmhsync

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/nuclearfall/howm/internal/client"
)

// PropertyConn is the subset of *x11.Conn that ewmhsync depends on, kept
// narrow so this package can be unit tested without a live X server.
type PropertyConn interface {
	Atom(name string) (xproto.Atom, error)
	SetPropertyAtoms(win xproto.Window, property xproto.Atom, values []xproto.Atom) error
	SetPropertyCardinals(win xproto.Window, property xproto.Atom, values []uint32) error
	SetPropertyWindow(win xproto.Window, property xproto.Atom, value xproto.Window) error
	SetPropertyString(win xproto.Window, property, typ xproto.Atom, value string) error
}

// supportedAtomNames lists every property this package ever writes,
// advertised via _NET_SUPPORTED at setup (spec.md §4.9: "advertise the
// list of supported atoms").
var supportedAtomNames = []string{
	"_NET_SUPPORTED",
	"_NET_ACTIVE_WINDOW",
	"_NET_CURRENT_DESKTOP",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_DESKTOP_GEOMETRY",
	"_NET_DESKTOP_VIEWPORT",
	"_NET_WORKAREA",
	"_NET_WM_STATE",
	"_NET_WM_STATE_FULLSCREEN",
	"_NET_WM_NAME",
}

// Syncer pushes manager state to the root and client windows as EWMH
// properties.
type Syncer struct {
	conn PropertyConn
	root xproto.Window
	log  *logrus.Logger

	screenW, screenH uint32
}

// New builds a Syncer bound to root. screenW/screenH are the screen
// dimensions used for _NET_DESKTOP_GEOMETRY/_NET_WORKAREA; no bar
// reservation is subtracted here.
func New(conn PropertyConn, root xproto.Window, screenW, screenH uint32, log *logrus.Logger) *Syncer {
	return &Syncer{conn: conn, root: root, screenW: screenW, screenH: screenH, log: log}
}

// Setup advertises supported atoms and the static desktop properties
// (spec.md §4.9: "At setup, advertise the list of supported atoms and set
// _NET_NUMBER_OF_DESKTOPS, desktop viewport, desktop geometry, and the
// name 'howm'"). workspaceCount is N.
func (s *Syncer) Setup(workspaceCount int) error {
	atoms := make([]xproto.Atom, 0, len(supportedAtomNames))
	for _, name := range supportedAtomNames {
		a, err := s.conn.Atom(name)
		if err != nil {
			return fmt.Errorf("ewmhsync: setup: intern atom %q: %w", name, err)
		}
		atoms = append(atoms, a)
	}

	if err := s.setAtoms("_NET_SUPPORTED", atoms); err != nil {
		return err
	}
	if err := s.setCardinal("_NET_NUMBER_OF_DESKTOPS", []uint32{uint32(workspaceCount)}); err != nil {
		return err
	}
	if err := s.setCardinal("_NET_DESKTOP_GEOMETRY", []uint32{s.screenW, s.screenH}); err != nil {
		return err
	}
	if err := s.setCardinal("_NET_DESKTOP_VIEWPORT", []uint32{0, 0}); err != nil {
		return err
	}
	if err := s.setCardinal("_NET_WORKAREA", []uint32{0, 0, s.screenW, s.screenH}); err != nil {
		return err
	}

	nameAtom, err := s.conn.Atom("_NET_WM_NAME")
	if err != nil {
		return fmt.Errorf("ewmhsync: setup: intern atom %q: %w", "_NET_WM_NAME", err)
	}
	utf8, err := s.conn.Atom("UTF8_STRING")
	if err != nil {
		return fmt.Errorf("ewmhsync: setup: intern atom %q: %w", "UTF8_STRING", err)
	}
	if err := s.conn.SetPropertyString(s.root, nameAtom, utf8, "howm"); err != nil {
		return fmt.Errorf("ewmhsync: setup: set _NET_WM_NAME: %w", err)
	}
	return nil
}

// SyncFocus propagates _NET_ACTIVE_WINDOW after a focus change (spec.md
// §4.9: "After every focus change, propagate _NET_ACTIVE_WINDOW"). win is
// 0 (the X None window) when no client is focused. Implements
// workspace.FocusSyncer.
func (s *Syncer) SyncFocus(win xproto.Window) error {
	atom, err := s.conn.Atom("_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("ewmhsync: sync focus: intern atom: %w", err)
	}
	if err := s.conn.SetPropertyWindow(s.root, atom, win); err != nil {
		return fmt.Errorf("ewmhsync: sync focus: %w", err)
	}
	return nil
}

// SyncWorkspaceSwitch propagates _NET_CURRENT_DESKTOP and _NET_WORKAREA
// after a workspace switch (spec.md §4.9). current is the one-based
// workspace index; EWMH desktops are zero-based, so it is translated here.
// Implements workspace.FocusSyncer.
func (s *Syncer) SyncWorkspaceSwitch(current int) error {
	if err := s.setCardinal("_NET_CURRENT_DESKTOP", []uint32{uint32(current - 1)}); err != nil {
		return err
	}
	return s.setCardinal("_NET_WORKAREA", []uint32{0, 0, s.screenW, s.screenH})
}

// SyncFullscreen sets or clears _NET_WM_STATE_FULLSCREEN on a client's
// window after a fullscreen transition (spec.md §4.9: "On client
// fullscreen transitions, set _NET_WM_STATE on that window").
func (s *Syncer) SyncFullscreen(c *client.Client) error {
	atom, err := s.conn.Atom("_NET_WM_STATE")
	if err != nil {
		return fmt.Errorf("ewmhsync: sync fullscreen: intern atom: %w", err)
	}
	if !c.Fullscreen {
		if err := s.conn.SetPropertyAtoms(c.Window, atom, nil); err != nil {
			return fmt.Errorf("ewmhsync: sync fullscreen: clear state: %w", err)
		}
		return nil
	}
	fsAtom, err := s.conn.Atom("_NET_WM_STATE_FULLSCREEN")
	if err != nil {
		return fmt.Errorf("ewmhsync: sync fullscreen: intern atom: %w", err)
	}
	if err := s.conn.SetPropertyAtoms(c.Window, atom, []xproto.Atom{fsAtom}); err != nil {
		return fmt.Errorf("ewmhsync: sync fullscreen: set state: %w", err)
	}
	return nil
}

func (s *Syncer) setAtoms(name string, values []xproto.Atom) error {
	atom, err := s.conn.Atom(name)
	if err != nil {
		return fmt.Errorf("ewmhsync: intern atom %q: %w", name, err)
	}
	if err := s.conn.SetPropertyAtoms(s.root, atom, values); err != nil {
		return fmt.Errorf("ewmhsync: set property %q: %w", name, err)
	}
	return nil
}

func (s *Syncer) setCardinal(name string, values []uint32) error {
	atom, err := s.conn.Atom(name)
	if err != nil {
		return fmt.Errorf("ewmhsync: intern atom %q: %w", name, err)
	}
	if err := s.conn.SetPropertyCardinals(s.root, atom, values); err != nil {
		return fmt.Errorf("ewmhsync: set property %q: %w", name, err)
	}
	return nil
}
