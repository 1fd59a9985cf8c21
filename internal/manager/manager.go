package manager

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/nuclearfall/howm/internal/client"
	"github.com/nuclearfall/howm/internal/command"
	"github.com/nuclearfall/howm/internal/fsa"
	"github.com/nuclearfall/howm/internal/layout"
	"github.com/nuclearfall/howm/internal/rules"
	"github.com/nuclearfall/howm/internal/workspace"
)

// XOps is the surface of internal/x11 this package depends on, narrowed to
// an interface so Manager is unit-testable without a display server.
type XOps interface {
	workspace.WindowMapper
	workspace.Closer

	Atom(name string) (xproto.Atom, error)
	GetPropertyAtoms(win xproto.Window, property xproto.Atom) ([]xproto.Atom, error)
	GetPropertyWindow(win xproto.Window, property xproto.Atom) (xproto.Window, error)
	WMClass(win xproto.Window) (instance, class string, err error)
	Geometry(win xproto.Window) (x, y int16, w, h uint16, err error)
	Attributes(win xproto.Window) (overrideRedirect bool, err error)
	ConfigureRequestAck(e xproto.ConfigureRequestEvent, barHeight uint32, barOnTop bool) error
	ChangeBorderColor(win xproto.Window, pixel uint32) error
	SaveSetInsert(win xproto.Window) error
	GrabKey(mods uint16, keycode xproto.Keycode) error
	UngrabAllKeys() error
	SetInputFocus(win xproto.Window, t xproto.Timestamp) error
	AllowEvents(mode byte, t xproto.Timestamp) error
	Draw(placements []layout.Placement) error
	StripLocks(mods uint16) uint16
	Lookup(keycode xproto.Keycode) xproto.Keysym
	Flush()
}

// FocusSyncer is ewmhsync's interface surface, kept local so this package
// depends on the three methods it actually calls, not on the ewmhsync
// package itself.
type FocusSyncer interface {
	workspace.FocusSyncer
	SyncFullscreen(c *client.Client) error
}

// Manager wires workspace/layout/fsa/rules/ewmhsync/command into the
// concrete event handlers spec.md §4.6's dispatch table describes, and
// implements eventloop.Dispatcher.
type Manager struct {
	x     XOps
	sync  FocusSyncer
	state *workspace.State
	rules rules.Table

	scratchpad rules.Scratchpad
	automaton  *fsa.Automaton
	commands   command.Table
	cfg        Config
	mode       int

	root             xproto.Window
	screenW, screenH uint16
	log              *logrus.Logger

	atomWindowType        xproto.Atom
	atomTransientFor      xproto.Atom
	atomWMState                 xproto.Atom
	atomWMStateFullscreen       xproto.Atom
	atomWMStateDemandsAttention xproto.Atom
	atomNetCloseWindow          xproto.Atom
	atomNetActiveWindow   xproto.Atom
	atomNetCurrentDesktop xproto.Atom
	windowTypeAtoms       map[xproto.Atom]windowTypeClass
}

type windowTypeClass int

const (
	windowTypeNormal windowTypeClass = iota
	windowTypeDrop
	windowTypeFloating
)

// X11 ClientMessage _NET_WM_STATE action codes (EWMH spec).
const (
	netWMStateRemove = 0
	netWMStateAdd    = 1
	netWMStateToggle = 2
)

// New builds a Manager. The caller is responsible for having already
// called x.BecomeWM and grabbed whatever keys the automaton/command table
// need.
func New(x XOps, sync FocusSyncer, state *workspace.State, ruleTable rules.Table, automaton *fsa.Automaton, cfg Config, root xproto.Window, screenW, screenH uint16, log *logrus.Logger) *Manager {
	m := &Manager{
		x:         x,
		sync:      sync,
		state:     state,
		rules:     ruleTable,
		automaton: automaton,
		commands:  make(command.Table),
		cfg:       cfg,
		root:      root,
		screenW:   screenW,
		screenH:   screenH,
		log:       log,
	}
	m.internAtoms()
	return m
}

func (m *Manager) atomOrZero(name string) xproto.Atom {
	a, err := m.x.Atom(name)
	if err != nil {
		if m.log != nil {
			m.log.WithError(err).Warn("manager: intern atom failed")
		}
		return xproto.AtomNone
	}
	return a
}

func (m *Manager) internAtoms() {
	m.atomWindowType = m.atomOrZero("_NET_WM_WINDOW_TYPE")
	m.atomTransientFor = m.atomOrZero("WM_TRANSIENT_FOR")
	m.atomWMState = m.atomOrZero("_NET_WM_STATE")
	m.atomWMStateFullscreen = m.atomOrZero("_NET_WM_STATE_FULLSCREEN")
	m.atomWMStateDemandsAttention = m.atomOrZero("_NET_WM_STATE_DEMANDS_ATTENTION")
	m.atomNetCloseWindow = m.atomOrZero("_NET_CLOSE_WINDOW")
	m.atomNetActiveWindow = m.atomOrZero("_NET_ACTIVE_WINDOW")
	m.atomNetCurrentDesktop = m.atomOrZero("_NET_CURRENT_DESKTOP")

	m.windowTypeAtoms = map[xproto.Atom]windowTypeClass{
		m.atomOrZero("_NET_WM_WINDOW_TYPE_DOCK"):          windowTypeDrop,
		m.atomOrZero("_NET_WM_WINDOW_TYPE_TOOLBAR"):       windowTypeDrop,
		m.atomOrZero("_NET_WM_WINDOW_TYPE_NOTIFICATION"):  windowTypeFloating,
		m.atomOrZero("_NET_WM_WINDOW_TYPE_DROPDOWN_MENU"): windowTypeFloating,
		m.atomOrZero("_NET_WM_WINDOW_TYPE_SPLASH"):        windowTypeFloating,
		m.atomOrZero("_NET_WM_WINDOW_TYPE_POPUP_MENU"):    windowTypeFloating,
		m.atomOrZero("_NET_WM_WINDOW_TYPE_TOOLTIP"):       windowTypeFloating,
		m.atomOrZero("_NET_WM_WINDOW_TYPE_DIALOG"):        windowTypeFloating,
	}
}

// RegisterCommand adds a named command to the table the control socket
// dispatches against.
func (m *Manager) RegisterCommand(cmd command.Command) {
	m.commands.Register(cmd)
}

// HandleCommand implements eventloop.Dispatcher.
func (m *Manager) HandleCommand(datagram []byte) command.Status {
	return m.commands.Dispatch(datagram)
}

// Flush implements eventloop.Dispatcher.
func (m *Manager) Flush() {
	m.x.Flush()
}

// HandleXEvent implements eventloop.Dispatcher (spec.md §4.6's dispatch
// table).
func (m *Manager) HandleXEvent(ev xgb.Event) {
	var err error
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		mods := m.x.StripLocks(e.State)
		sym := m.x.Lookup(e.Detail)
		// Translate the real grabbed modifier bound to the count chord into
		// the grammar's placeholder bit (spec.md §4.4, internal/fsa's
		// CountModifier comment: "rebindable via Config").
		if m.cfg.CountModMask != 0 && mods == m.cfg.CountModMask {
			mods = fsa.CountModifier
		}
		m.automaton.Feed(sym, mods, m.mode)
	case xproto.MapRequestEvent:
		err = m.handleMapRequest(e.Window)
	case xproto.UnmapNotifyEvent:
		// A synthetic unmap sent directly to the root (rather than generated
		// by the window's own unmap) is a client's own doing, not ours to
		// react to (spec.md §9).
		if e.Event != m.root {
			err = m.handleClientGone(e.Window)
		}
	case xproto.DestroyNotifyEvent:
		err = m.handleClientGone(e.Window)
	case xproto.EnterNotifyEvent:
		err = m.handleEnterNotify(e.Event)
	case xproto.ButtonPressEvent:
		err = m.handleButtonPress(e)
	case xproto.ConfigureRequestEvent:
		err = m.x.ConfigureRequestAck(e, m.cfg.BarHeight, m.cfg.BarOnTop)
	case xproto.ClientMessageEvent:
		err = m.handleClientMessage(e)
	}
	if err != nil && m.log != nil {
		m.log.WithError(err).Warn("manager: event handler failed")
	}
}

// findClient scans every workspace for the client owning win, returning it
// and its workspace, or (nil, nil) if win is unmanaged (spec.md §4.1's
// ownership note: the caller does not need to know which workspace owns a
// client up front).
func (m *Manager) findClient(win xproto.Window) (*client.Client, *workspace.Workspace) {
	for i := 1; i <= m.state.N; i++ {
		ws := m.state.At(i)
		for c := ws.List.Head; c != nil; c = c.Next {
			if c.Window == win {
				return c, ws
			}
		}
	}
	return nil, nil
}

// Adopt manages an already-mapped top-level window found at startup, the
// same path a live map-request takes (dwm/marwind-lineage "scan" pass).
func (m *Manager) Adopt(win xproto.Window) error {
	return m.handleMapRequest(win)
}

// handleMapRequest implements spec.md §4.6's map-request row.
func (m *Manager) handleMapRequest(win xproto.Window) error {
	if override, err := m.x.Attributes(win); err == nil && override {
		return nil
	}
	if existing, _ := m.findClient(win); existing != nil {
		return nil
	}

	c := client.New(win)

	if typ, ok := m.classifyWindowType(win); ok {
		switch typ {
		case windowTypeDrop:
			return nil
		case windowTypeFloating:
			c.Floating = true
		}
	}

	if transientFor, err := m.x.GetPropertyWindow(win, m.atomTransientFor); err == nil && transientFor != 0 {
		c.Transient = true
	}

	x, y, w, h, err := m.x.Geometry(win)
	fellBackToSpawnDims := false
	if err == nil && w > 0 && h > 0 {
		c.X, c.Y, c.W, c.H = x, y, w, h
	} else {
		c.W, c.H = m.cfg.SpawnWidth, m.cfg.SpawnHeight
		fellBackToSpawnDims = true
	}
	// Centre whenever the geometry read failed (spec.md §4.6's spawn-dims
	// fallback note) or the client is floating/a dialog (spec.md §8
	// scenario 6: a dialog's own geometry is centred, its size preserved,
	// not replaced by spawn dims).
	if m.cfg.CenterFloating && (fellBackToSpawnDims || c.Floating) {
		c.X = int16((int32(m.screenW) - int32(c.W)) / 2)
		c.Y = int16((int32(m.screenH) - int32(m.cfg.BarHeight) - int32(c.H)) / 2)
	}

	instance, class, err := m.x.WMClass(win)
	if err == nil {
		c.Instance, c.Class = instance, class
	}

	target := m.state.CW
	if rule, ok := m.rules.Match(instance, class); ok {
		target = rules.Apply(c, rule, m.state.CW)
	}

	ws := m.state.At(target)
	if ws == nil {
		ws = m.state.Current()
	}
	ws.AppendNew(c)

	if err := m.x.SaveSetInsert(win); err != nil && m.log != nil {
		m.log.WithError(err).Warn("manager: save-set insert failed")
	}

	if ws == m.state.Current() {
		if err := m.redraw(); err != nil {
			return err
		}
	}
	if err := m.x.MapWindow(win); err != nil {
		return fmt.Errorf("manager: map client: %w", err)
	}
	if ws == m.state.Current() {
		return m.focusAndSync(c)
	}
	return nil
}

// classifyWindowType reads _NET_WM_WINDOW_TYPE and reports the class of the
// first atom in the list that has one (spec.md §4.6: "dock/toolbar → drop
// entirely; notification/dropdown/splash/popup/tooltip/dialog →
// floating").
func (m *Manager) classifyWindowType(win xproto.Window) (windowTypeClass, bool) {
	atoms, err := m.x.GetPropertyAtoms(win, m.atomWindowType)
	if err != nil || len(atoms) == 0 {
		return windowTypeNormal, false
	}
	for _, a := range atoms {
		if cls, ok := m.windowTypeAtoms[a]; ok {
			return cls, true
		}
	}
	return windowTypeNormal, false
}

// handleClientGone implements the destroy-notify/unmap-notify row (spec.md
// §4.6: "unlink the client, re-arrange").
func (m *Manager) handleClientGone(win xproto.Window) error {
	c, _ := m.findClient(win)
	if c == nil {
		return nil
	}
	m.state.UnlinkAny(c)
	return m.redraw()
}

// handleEnterNotify implements the enter-notify row.
func (m *Manager) handleEnterNotify(win xproto.Window) error {
	if !m.cfg.FocusFollowsMouse {
		return nil
	}
	cw := m.state.Current()
	if cw.Layout == layout.Zoom {
		return nil
	}
	c, ws := m.findClient(win)
	if c == nil || ws != cw {
		return nil
	}
	cw.Focus(c)
	return m.focusAndSync(c)
}

// handleButtonPress implements the button-press row: focus on click when
// enabled, and always release the frozen pointer grab so the click still
// reaches the client (spec.md §4.6: "always allow replay pointer").
func (m *Manager) handleButtonPress(e xproto.ButtonPressEvent) error {
	defer func() {
		if err := m.x.AllowEvents(xproto.AllowReplayPointer, e.Time); err != nil && m.log != nil {
			m.log.WithError(err).Warn("manager: allow events failed")
		}
	}()

	if !m.cfg.FocusOnClick {
		return nil
	}
	c, ws := m.findClient(e.Event)
	if c == nil || ws != m.state.Current() {
		return nil
	}
	ws.Focus(c)
	return m.focusAndSync(c)
}

// handleClientMessage implements the client-message row: _NET_WM_STATE,
// _NET_CLOSE_WINDOW, _NET_ACTIVE_WINDOW, _NET_CURRENT_DESKTOP.
func (m *Manager) handleClientMessage(e xproto.ClientMessageEvent) error {
	switch e.Type {
	case m.atomWMState:
		return m.handleNetWMState(e)
	case m.atomNetCloseWindow:
		return m.x.Close(e.Window)
	case m.atomNetActiveWindow:
		return m.focusWindow(e.Window)
	case m.atomNetCurrentDesktop:
		data := e.Data.Data32()
		if len(data) > 0 {
			return m.state.Switch(int(data[0])+1, m.x, m.sync)
		}
	}
	return nil
}

func (m *Manager) handleNetWMState(e xproto.ClientMessageEvent) error {
	data := e.Data.Data32()
	if len(data) < 2 {
		return nil
	}
	action := data[0]

	target, _ := m.findClient(e.Window)
	if target == nil {
		return nil
	}

	// Up to two simultaneous state atoms per message (spec.md §4.6).
	end := len(data)
	if end > 3 {
		end = 3
	}
	urgencyTouched := false
	for _, raw := range data[1:end] {
		atom := xproto.Atom(raw)
		switch atom {
		case m.atomWMStateFullscreen:
			applyToggle(&target.Fullscreen, action)
		case m.atomWMStateDemandsAttention:
			applyToggle(&target.Urgent, action)
			urgencyTouched = true
		}
	}
	if m.sync != nil {
		if err := m.sync.SyncFullscreen(target); err != nil {
			return err
		}
	}
	if urgencyTouched {
		color := m.cfg.BorderColor
		if target.Urgent {
			color = m.cfg.BorderColorUrgent
		}
		if err := m.x.ChangeBorderColor(target.Window, color); err != nil {
			return err
		}
	}
	return m.redraw()
}

func applyToggle(flag *bool, action uint32) {
	switch action {
	case netWMStateRemove:
		*flag = false
	case netWMStateAdd:
		*flag = true
	case netWMStateToggle:
		*flag = !*flag
	}
}

func (m *Manager) focusWindow(win xproto.Window) error {
	c, ws := m.findClient(win)
	if c == nil {
		return nil
	}
	ws.Focus(c)
	return m.focusAndSync(c)
}

func (m *Manager) focusAndSync(c *client.Client) error {
	if err := m.x.SetInputFocus(c.Window, xproto.TimeCurrentTime); err != nil {
		return fmt.Errorf("manager: set input focus: %w", err)
	}
	if m.sync != nil {
		if err := m.sync.SyncFocus(c.Window); err != nil {
			return fmt.Errorf("manager: sync focus: %w", err)
		}
	}
	return nil
}

// redraw runs a single draw pass over the current workspace's clients
// (spec.md §4.3).
func (m *Manager) redraw() error {
	cw := m.state.Current()
	screen := layout.Screen{W: uint32(m.screenW), H: uint32(m.screenH), BarHeight: m.cfg.BarHeight, BarOnTop: m.cfg.BarOnTop}
	placements := layout.Arrange(cw.List.Slice(), screen, cw.Layout, cw.MasterRatio, m.cfg.BorderWidth, m.cfg.ZoomGap)
	return m.x.Draw(placements)
}
