package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// MapWindow implements workspace.WindowMapper.
func (c *Conn) MapWindow(win xproto.Window) error {
	if err := xproto.MapWindowChecked(c.conn, win).Check(); err != nil {
		return fmt.Errorf("x11: map window: %w", err)
	}
	return nil
}

// UnmapWindow implements workspace.WindowMapper.
func (c *Conn) UnmapWindow(win xproto.Window) error {
	if err := xproto.UnmapWindowChecked(c.conn, win).Check(); err != nil {
		return fmt.Errorf("x11: unmap window: %w", err)
	}
	return nil
}

// DestroyWindow forcibly destroys win (spec.md §4.2: used when the client
// does not advertise WM_DELETE_WINDOW).
func (c *Conn) DestroyWindow(win xproto.Window) error {
	if err := xproto.DestroyWindowChecked(c.conn, win).Check(); err != nil {
		return fmt.Errorf("x11: destroy window: %w", err)
	}
	return nil
}

// Configure applies position, size, and border width to win in one request
// (spec.md §4.3: "a single draw pass configures each window").
func (c *Conn) Configure(win xproto.Window, x, y int32, w, h, border uint32) error {
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY |
		xproto.ConfigWindowWidth | xproto.ConfigWindowHeight | xproto.ConfigWindowBorderWidth)
	values := []uint32{uint32(x), uint32(y), w, h, border}
	if err := xproto.ConfigureWindowChecked(c.conn, win, mask, values).Check(); err != nil {
		return fmt.Errorf("x11: configure window: %w", err)
	}
	return nil
}

// ConfigureRequestAck honours a ConfigureRequestEvent's value mask bit for
// bit (spec.md §4.6): every requested field is applied, width/height is
// clamped to the screen minus border, and y is shifted down by the bar
// reservation when the bar sits on top.
func (c *Conn) ConfigureRequestAck(e xproto.ConfigureRequestEvent, barHeight uint32, barOnTop bool) error {
	var values []uint32
	var mask uint16

	x, y := e.X, e.Y
	w, h := e.Width, e.Height

	maxW := c.ScreenW
	maxH := c.ScreenH
	if uint16(w)+2*e.BorderWidth > maxW {
		w = maxW - 2*e.BorderWidth
	}
	if uint16(h)+2*e.BorderWidth > maxH {
		h = maxH - 2*e.BorderWidth
	}
	if barOnTop {
		y += int16(barHeight)
	}

	if e.ValueMask&xproto.ConfigWindowX != 0 {
		mask |= xproto.ConfigWindowX
		values = append(values, uint32(int32(x)))
	}
	if e.ValueMask&xproto.ConfigWindowY != 0 {
		mask |= xproto.ConfigWindowY
		values = append(values, uint32(int32(y)))
	}
	if e.ValueMask&xproto.ConfigWindowWidth != 0 {
		mask |= xproto.ConfigWindowWidth
		values = append(values, uint32(w))
	}
	if e.ValueMask&xproto.ConfigWindowHeight != 0 {
		mask |= xproto.ConfigWindowHeight
		values = append(values, uint32(h))
	}
	if e.ValueMask&xproto.ConfigWindowBorderWidth != 0 {
		mask |= xproto.ConfigWindowBorderWidth
		values = append(values, uint32(e.BorderWidth))
	}
	if e.ValueMask&xproto.ConfigWindowSibling != 0 {
		mask |= xproto.ConfigWindowSibling
		values = append(values, uint32(e.Sibling))
	}
	if e.ValueMask&xproto.ConfigWindowStackMode != 0 {
		mask |= xproto.ConfigWindowStackMode
		values = append(values, uint32(e.StackMode))
	}

	if err := xproto.ConfigureWindowChecked(c.conn, e.Window, mask, values).Check(); err != nil {
		return fmt.Errorf("x11: honour configure request: %w", err)
	}
	return nil
}

// Attributes reports whether win is override-redirect, per spec.md §4.6's
// map-request/gather-windows filter.
func (c *Conn) Attributes(win xproto.Window) (overrideRedirect bool, err error) {
	reply, err := xproto.GetWindowAttributes(c.conn, win).Reply()
	if err != nil {
		return false, fmt.Errorf("x11: get window attributes: %w", err)
	}
	return reply.OverrideRedirect, nil
}

// QueryChildren lists the root's top-level windows, for gathering
// already-mapped windows at startup (spec.md's manager lifecycle, dwm/
// marwind-style `gatherWindows`).
func (c *Conn) QueryChildren() ([]xproto.Window, error) {
	reply, err := xproto.QueryTree(c.conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11: query tree: %w", err)
	}
	if reply == nil {
		return nil, fmt.Errorf("x11: query tree returned no reply")
	}
	return reply.Children, nil
}

// ChangeBorderColor sets the border pixel value for win.
func (c *Conn) ChangeBorderColor(win xproto.Window, pixel uint32) error {
	err := xproto.ChangeWindowAttributesChecked(c.conn, win, xproto.CwBorderPixel, []uint32{pixel}).Check()
	if err != nil {
		return fmt.Errorf("x11: set border colour: %w", err)
	}
	return nil
}

// SaveSetInsert adds win to the client's save-set, so an already-mapped
// window is not orphaned if the manager exits unexpectedly (core X11
// semantics; the teacher performs the equivalent step on its reparented
// frame windows, we perform it directly on the client window since we do
// not reparent — see DESIGN.md).
func (c *Conn) SaveSetInsert(win xproto.Window) error {
	if err := xproto.ChangeSaveSetChecked(c.conn, xproto.SetModeInsert, win).Check(); err != nil {
		return fmt.Errorf("x11: change save set: %w", err)
	}
	return nil
}

// GrabKey grabs keycode+modifiers on the root, plus the numlock/caps-lock
// variants so that those locks never suppress a binding (spec.md §6).
func (c *Conn) GrabKey(mods uint16, keycode xproto.Keycode) error {
	const lockMask = xproto.ModMaskLock
	variants := []uint16{mods, mods | lockMask}
	if c.NumLockMask != 0 {
		variants = append(variants, mods|c.NumLockMask, mods|c.NumLockMask|lockMask)
	}
	for _, m := range variants {
		err := xproto.GrabKeyChecked(c.conn, false, c.Root, m, keycode,
			xproto.GrabModeAsync, xproto.GrabModeAsync).Check()
		if err != nil {
			return fmt.Errorf("x11: grab key: %w", err)
		}
	}
	return nil
}

// UngrabAllKeys releases every key grab on the root (spec.md §5, §6).
func (c *Conn) UngrabAllKeys() error {
	err := xproto.UngrabKeyChecked(c.conn, xproto.GrabAny, c.Root, xproto.ModMaskAny).Check()
	if err != nil {
		return fmt.Errorf("x11: ungrab all keys: %w", err)
	}
	return nil
}

// AllowEvents releases a frozen pointer/keyboard grab, used after a
// button-press so the click still reaches the client (spec.md §4.6:
// "always allow replay pointer").
func (c *Conn) AllowEvents(mode byte, t xproto.Timestamp) error {
	if err := xproto.AllowEventsChecked(c.conn, mode, t).Check(); err != nil {
		return fmt.Errorf("x11: allow events: %w", err)
	}
	return nil
}

// SetInputFocus focuses win, matching the teacher's setFocus fallback path.
func (c *Conn) SetInputFocus(win xproto.Window, t xproto.Timestamp) error {
	err := xproto.SetInputFocusChecked(c.conn, xproto.InputFocusPointerRoot, win, t).Check()
	if err != nil {
		return fmt.Errorf("x11: set input focus: %w", err)
	}
	return nil
}
