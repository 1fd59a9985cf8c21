package x11

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
)

// SetPropertyAtoms replaces property on win with a list of atoms (format 32,
// type ATOM) — the shape used for _NET_SUPPORTED, _NET_WM_STATE, etc.
func (c *Conn) SetPropertyAtoms(win xproto.Window, property xproto.Atom, values []xproto.Atom) error {
	u32 := make([]uint32, len(values))
	for i, a := range values {
		u32[i] = uint32(a)
	}
	return c.setProperty32(win, property, xproto.AtomAtom, u32)
}

// SetPropertyCardinals replaces property on win with a list of CARDINALs
// (format 32) — _NET_NUMBER_OF_DESKTOPS, _NET_CURRENT_DESKTOP,
// _NET_WORKAREA, _NET_DESKTOP_GEOMETRY, _NET_DESKTOP_VIEWPORT.
func (c *Conn) SetPropertyCardinals(win xproto.Window, property xproto.Atom, values []uint32) error {
	return c.setProperty32(win, property, xproto.AtomCardinal, values)
}

// SetPropertyWindow replaces property on win with a single WINDOW value
// (format 32) — _NET_ACTIVE_WINDOW.
func (c *Conn) SetPropertyWindow(win xproto.Window, property xproto.Atom, value xproto.Window) error {
	return c.setProperty32(win, property, xproto.AtomWindow, []uint32{uint32(value)})
}

func (c *Conn) setProperty32(win xproto.Window, property, typ xproto.Atom, values []uint32) error {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	err := xproto.ChangePropertyChecked(c.conn, xproto.PropModeReplace, win, property, typ, 32, uint32(len(values)), data).Check()
	if err != nil {
		return fmt.Errorf("x11: change property (32-bit): %w", err)
	}
	return nil
}

// SetPropertyString replaces property on win with a UTF8_STRING/STRING
// value (format 8) — used for the WM name at setup and for debug status.
func (c *Conn) SetPropertyString(win xproto.Window, property, typ xproto.Atom, value string) error {
	err := xproto.ChangePropertyChecked(c.conn, xproto.PropModeReplace, win, property, typ, 8, uint32(len(value)), []byte(value)).Check()
	if err != nil {
		return fmt.Errorf("x11: change property (string): %w", err)
	}
	return nil
}

// GetPropertyAtoms reads a format-32 ATOM-typed property, for
// _NET_WM_WINDOW_TYPE / _NET_WM_STATE reads.
func (c *Conn) GetPropertyAtoms(win xproto.Window, property xproto.Atom) ([]xproto.Atom, error) {
	reply, err := xproto.GetProperty(c.conn, false, win, property, xproto.AtomAtom, 0, 64).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11: get property (atoms): %w", err)
	}
	if reply == nil || reply.Format != 32 {
		return nil, nil
	}
	return unpackAtoms(reply.Value), nil
}

func unpackAtoms(b []byte) []xproto.Atom {
	n := len(b) / 4
	out := make([]xproto.Atom, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, xproto.Atom(binary.LittleEndian.Uint32(b[i*4:])))
	}
	return out
}

// GetPropertyWindow reads a format-32 WINDOW-typed property (e.g.
// WM_TRANSIENT_FOR), returning 0 if the property is unset.
func (c *Conn) GetPropertyWindow(win xproto.Window, property xproto.Atom) (xproto.Window, error) {
	reply, err := xproto.GetProperty(c.conn, false, win, property, xproto.AtomWindow, 0, 1).Reply()
	if err != nil {
		return 0, fmt.Errorf("x11: get property (window): %w", err)
	}
	if reply == nil || reply.Format != 32 || len(reply.Value) < 4 {
		return 0, nil
	}
	return xproto.Window(binary.LittleEndian.Uint32(reply.Value)), nil
}

// WMProtocols reads WM_PROTOCOLS, used to decide whether kill should send
// WM_DELETE_WINDOW or destroy the window outright (spec.md §4.2).
func (c *Conn) WMProtocols(win xproto.Window) ([]xproto.Atom, error) {
	protocols, err := c.Atom("WM_PROTOCOLS")
	if err != nil {
		return nil, err
	}
	return c.GetPropertyAtoms(win, protocols)
}

// WMClass reads WM_CLASS as its (instance, class) pair of NUL-separated
// strings (ICCCM shape), used by the rule engine (spec.md §4.8).
func (c *Conn) WMClass(win xproto.Window) (instance, class string, err error) {
	atom, err := c.Atom("WM_CLASS")
	if err != nil {
		return "", "", err
	}
	reply, err := xproto.GetProperty(c.conn, false, win, atom, xproto.AtomString, 0, 256).Reply()
	if err != nil {
		return "", "", fmt.Errorf("x11: get WM_CLASS: %w", err)
	}
	if reply == nil {
		return "", "", nil
	}
	parts := strings.SplitN(strings.TrimRight(string(reply.Value), "\x00"), "\x00", 2)
	if len(parts) == 2 {
		return parts[0], parts[1], nil
	}
	if len(parts) == 1 {
		return parts[0], parts[0], nil
	}
	return "", "", nil
}

// SendClientMessage32 sends a format-32 ClientMessage to win, used for
// WM_DELETE_WINDOW and the EWMH request-style properties.
func (c *Conn) SendClientMessage32(win xproto.Window, msgType xproto.Atom, data [5]uint32) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   msgType,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	}
	err := xproto.SendEventChecked(c.conn, false, win, xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
	if err != nil {
		return fmt.Errorf("x11: send client message: %w", err)
	}
	return nil
}

// Close implements workspace.Closer: politely request WM_DELETE_WINDOW if
// advertised, otherwise forcibly destroy the window (spec.md §4.2).
func (c *Conn) Close(win xproto.Window) error {
	protocols, err := c.WMProtocols(win)
	if err == nil {
		deleteAtom, aerr := c.Atom("WM_DELETE_WINDOW")
		if aerr == nil {
			for _, p := range protocols {
				if p == deleteAtom {
					wmProtocols, _ := c.Atom("WM_PROTOCOLS")
					return c.SendClientMessage32(win, wmProtocols, [5]uint32{uint32(deleteAtom), 0, 0, 0, 0})
				}
			}
		}
	}
	return c.DestroyWindow(win)
}
