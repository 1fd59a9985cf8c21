// Package x11 is the thin facade over the X protocol library (spec.md §2
// "X binding facade"): window operations, the event stream, keysym↔keycode
// translation, atom interning, and the handful of EWMH property writes the
// rest of the manager needs. Window, property and grab requests all go
// through this package. Other packages still import xgb/xproto for its
// types (windows, atoms, keysyms, events), and internal/eventloop reads
// events from the raw *xgb.Conn that Raw exposes (spec.md §1 treats the
// binding library as an external collaborator).
package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
)

// Conn wraps an X11 connection, the chosen screen, and the small pieces of
// cached state (atoms, keymap, numlock mask) every handler needs.
type Conn struct {
	conn *xgb.Conn

	Root   xproto.Window
	Screen *xproto.ScreenInfo

	ScreenW, ScreenH uint16

	atomMu sync.Mutex
	atoms  map[string]xproto.Atom

	Keymap      Keymap
	NumLockMask uint16

	// SetupWarning holds a non-fatal error encountered while probing
	// Xinerama or the numlock modifier at connect time (spec.md §7: such
	// failures warn and continue with a reduced feature, never abort).
	SetupWarning error
}

// Connect opens the X11 connection and loads the default screen, mirroring
// driusan/dewm's main() setup sequence.
func Connect() (*Conn, error) {
	xc, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}
	setup := xproto.Setup(xc)
	if setup == nil || len(setup.Roots) < 1 {
		xc.Close()
		return nil, fmt.Errorf("x11: could not parse X setup info")
	}
	screen := &setup.Roots[0]

	c := &Conn{
		conn:    xc,
		Root:    screen.Root,
		Screen:  screen,
		ScreenW: screen.WidthInPixels,
		ScreenH: screen.HeightInPixels,
		atoms:   make(map[string]xproto.Atom),
	}

	if err := c.queryScreenGeometry(); err != nil {
		// Xinerama is advisory only (spec.md §7: "atom intern failure:
		// warn and continue"); fall back to the root screen's own size,
		// already set above.
		c.SetupWarning = err
	}

	km, err := LoadKeymap(xc)
	if err != nil {
		xc.Close()
		return nil, fmt.Errorf("x11: load keymap: %w", err)
	}
	c.Keymap = km

	mask, err := computeNumLockMask(xc, km)
	if err != nil {
		c.SetupWarning = err // non-fatal; grabs just won't ignore numlock correctly
	} else {
		c.NumLockMask = mask
	}

	return c, nil
}

func (c *Conn) queryScreenGeometry() error {
	if err := xinerama.Init(c.conn); err != nil {
		return err
	}
	reply, err := xinerama.QueryScreens(c.conn).Reply()
	if err != nil {
		return err
	}
	if reply == nil || len(reply.ScreenInfo) == 0 {
		return nil // no Xinerama heads reported; keep the root screen size
	}
	c.ScreenW = reply.ScreenInfo[0].Width
	c.ScreenH = reply.ScreenInfo[0].Height
	return nil
}

// Close tears down the X11 connection.
func (c *Conn) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// Raw exposes the underlying xgb.Conn for the handful of packages
// (eventloop) that need WaitForEvent directly.
func (c *Conn) Raw() *xgb.Conn { return c.conn }

// Flush forces queued requests out (spec.md §4.6: "after each wake, flush
// the X connection").
func (c *Conn) Flush() {
	// xgb.Conn has no explicit flush call beyond issuing Checked requests;
	// this issues a no-op GetInputFocus request, without waiting for its
	// reply, in place of the explicit XFlush of Xlib-based managers.
	xproto.GetInputFocus(c.conn)
}

// BecomeWM registers for substructure redirect/notify plus the input
// events the manager cares about (spec.md §4.6, §6), the way both teacher
// generations set up the root window.
func (c *Conn) BecomeWM() error {
	mask := []uint32{
		xproto.EventMaskKeyPress |
			xproto.EventMaskButtonPress |
			xproto.EventMaskEnterWindow |
			xproto.EventMaskStructureNotify |
			xproto.EventMaskSubstructureNotify |
			xproto.EventMaskSubstructureRedirect,
	}
	err := xproto.ChangeWindowAttributesChecked(c.conn, c.Root, xproto.CwEventMask, mask).Check()
	if err != nil {
		return fmt.Errorf("x11: become WM: %w", err)
	}
	return nil
}

// Cleanup clears the root event mask and releases all key grabs
// (spec.md §5: "on shutdown ... the event mask on the root is cleared;
// all key grabs are released").
func (c *Conn) Cleanup() {
	_ = xproto.ChangeWindowAttributesChecked(c.conn, c.Root, xproto.CwEventMask, []uint32{xproto.EventMaskNoEvent}).Check()
	_ = xproto.UngrabKeyChecked(c.conn, xproto.GrabAny, c.Root, xproto.ModMaskAny).Check()
}
