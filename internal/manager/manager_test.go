package manager

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuclearfall/howm/internal/client"
	"github.com/nuclearfall/howm/internal/command"
	"github.com/nuclearfall/howm/internal/fsa"
	"github.com/nuclearfall/howm/internal/layout"
	"github.com/nuclearfall/howm/internal/rules"
	"github.com/nuclearfall/howm/internal/workspace"
)

const rootWindow = xproto.Window(1)

type fakeX struct {
	atoms    map[string]xproto.Atom
	nextAtom xproto.Atom

	override   map[xproto.Window]bool
	winTypes   map[xproto.Window][]xproto.Atom
	transients map[xproto.Window]xproto.Window
	geometry   map[xproto.Window][4]int
	class      map[xproto.Window][2]string

	mapped   map[xproto.Window]bool
	unmapped map[xproto.Window]bool
	closed   map[xproto.Window]bool
	saveSet  map[xproto.Window]bool

	focused       xproto.Window
	allowedEvents int
	drawn         []layout.Placement
	flushed       bool
	borderColors  map[xproto.Window]uint32
}

func newFakeX() *fakeX {
	return &fakeX{
		atoms:      make(map[string]xproto.Atom),
		nextAtom:   1,
		override:   make(map[xproto.Window]bool),
		winTypes:   make(map[xproto.Window][]xproto.Atom),
		transients: make(map[xproto.Window]xproto.Window),
		geometry:   make(map[xproto.Window][4]int),
		class:      make(map[xproto.Window][2]string),
		mapped:     make(map[xproto.Window]bool),
		unmapped:   make(map[xproto.Window]bool),
		closed:     make(map[xproto.Window]bool),
		saveSet:    make(map[xproto.Window]bool),
		borderColors: make(map[xproto.Window]uint32),
	}
}

func (f *fakeX) Atom(name string) (xproto.Atom, error) {
	if a, ok := f.atoms[name]; ok {
		return a, nil
	}
	f.nextAtom++
	f.atoms[name] = f.nextAtom
	return f.nextAtom, nil
}

func (f *fakeX) atomFor(name string) xproto.Atom {
	a, _ := f.Atom(name)
	return a
}

func (f *fakeX) MapWindow(win xproto.Window) error   { f.mapped[win] = true; return nil }
func (f *fakeX) UnmapWindow(win xproto.Window) error { f.unmapped[win] = true; return nil }
func (f *fakeX) Close(win xproto.Window) error       { f.closed[win] = true; return nil }

func (f *fakeX) GetPropertyAtoms(win xproto.Window, property xproto.Atom) ([]xproto.Atom, error) {
	return f.winTypes[win], nil
}

func (f *fakeX) GetPropertyWindow(win xproto.Window, property xproto.Atom) (xproto.Window, error) {
	return f.transients[win], nil
}

func (f *fakeX) WMClass(win xproto.Window) (string, string, error) {
	c := f.class[win]
	return c[0], c[1], nil
}

func (f *fakeX) Geometry(win xproto.Window) (int16, int16, uint16, uint16, error) {
	g, ok := f.geometry[win]
	if !ok {
		return 0, 0, 0, 0, nil
	}
	return int16(g[0]), int16(g[1]), uint16(g[2]), uint16(g[3]), nil
}

func (f *fakeX) Attributes(win xproto.Window) (bool, error) {
	return f.override[win], nil
}

func (f *fakeX) ConfigureRequestAck(e xproto.ConfigureRequestEvent, barHeight uint32, barOnTop bool) error {
	return nil
}

func (f *fakeX) ChangeBorderColor(win xproto.Window, pixel uint32) error {
	f.borderColors[win] = pixel
	return nil
}

func (f *fakeX) SaveSetInsert(win xproto.Window) error { f.saveSet[win] = true; return nil }

func (f *fakeX) GrabKey(mods uint16, keycode xproto.Keycode) error { return nil }
func (f *fakeX) UngrabAllKeys() error                              { return nil }

func (f *fakeX) SetInputFocus(win xproto.Window, t xproto.Timestamp) error {
	f.focused = win
	return nil
}

func (f *fakeX) AllowEvents(mode byte, t xproto.Timestamp) error {
	f.allowedEvents++
	return nil
}

func (f *fakeX) Draw(placements []layout.Placement) error {
	f.drawn = placements
	return nil
}

func (f *fakeX) StripLocks(mods uint16) uint16 { return mods }

func (f *fakeX) Lookup(keycode xproto.Keycode) xproto.Keysym { return xproto.Keysym(keycode) }

func (f *fakeX) Flush() { f.flushed = true }

type fakeSync struct {
	focused       xproto.Window
	switched      int
	fullscreenSet map[*client.Client]bool
}

func newFakeSync() *fakeSync {
	return &fakeSync{fullscreenSet: make(map[*client.Client]bool)}
}

func (f *fakeSync) SyncFocus(win xproto.Window) error {
	f.focused = win
	return nil
}

func (f *fakeSync) SyncWorkspaceSwitch(current int) error {
	f.switched = current
	return nil
}

func (f *fakeSync) SyncFullscreen(c *client.Client) error {
	f.fullscreenSet[c] = c.Fullscreen
	return nil
}

func newTestManager(t *testing.T) (*Manager, *fakeX, *fakeSync) {
	t.Helper()
	x := newFakeX()
	sync := newFakeSync()
	state := workspace.NewState(3, 8, logrus.New())
	automaton := fsa.New(nil, nil, nil)
	cfg := Config{
		Workspaces:   3,
		BorderWidth:  1,
		SpawnWidth:   400,
		SpawnHeight:  300,
		FocusOnClick: true,
	}
	m := New(x, sync, state, rules.Table{}, automaton, cfg, rootWindow, 1920, 1080, logrus.New())
	return m, x, sync
}

func TestHandleMapRequestAddsClientAndFocuses(t *testing.T) {
	m, x, sync := newTestManager(t)

	win := xproto.Window(10)
	x.geometry[win] = [4]int{0, 0, 640, 480}

	require.NoError(t, m.handleMapRequest(win))

	c, ws := m.findClient(win)
	require.NotNil(t, c)
	assert.Equal(t, m.state.Current(), ws)
	assert.True(t, x.mapped[win])
	assert.True(t, x.saveSet[win])
	assert.Equal(t, win, x.focused)
	assert.Equal(t, win, sync.focused)
}

func TestHandleMapRequestSkipsOverrideRedirect(t *testing.T) {
	m, x, _ := newTestManager(t)
	win := xproto.Window(11)
	x.override[win] = true

	require.NoError(t, m.handleMapRequest(win))

	c, _ := m.findClient(win)
	assert.Nil(t, c)
	assert.False(t, x.mapped[win])
}

func TestHandleMapRequestSkipsAlreadyManaged(t *testing.T) {
	m, x, _ := newTestManager(t)
	win := xproto.Window(12)
	x.geometry[win] = [4]int{0, 0, 100, 100}

	require.NoError(t, m.handleMapRequest(win))
	require.NoError(t, m.handleMapRequest(win))

	ws := m.state.Current()
	assert.Equal(t, 1, ws.Count())
}

func TestHandleMapRequestDropsDockWindowType(t *testing.T) {
	m, x, _ := newTestManager(t)
	win := xproto.Window(13)
	x.winTypes[win] = []xproto.Atom{x.atomFor("_NET_WM_WINDOW_TYPE_DOCK")}

	require.NoError(t, m.handleMapRequest(win))

	c, _ := m.findClient(win)
	assert.Nil(t, c)
	assert.False(t, x.mapped[win])
}

func TestHandleMapRequestFallsBackToSpawnDimsAndCenters(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.cfg.CenterFloating = true
	win := xproto.Window(14)

	require.NoError(t, m.handleMapRequest(win))

	c, _ := m.findClient(win)
	require.NotNil(t, c)
	assert.Equal(t, m.cfg.SpawnWidth, c.W)
	assert.Equal(t, m.cfg.SpawnHeight, c.H)
	assert.Equal(t, int16((1920-400)/2), c.X)
}

func TestHandleMapRequestCentersFloatingDialogPreservingOwnGeometry(t *testing.T) {
	m, x, _ := newTestManager(t)
	m.cfg.CenterFloating = true
	m.cfg.BarHeight = 20
	win := xproto.Window(19)
	x.geometry[win] = [4]int{100, 100, 400, 300}
	x.winTypes[win] = []xproto.Atom{x.atomFor("_NET_WM_WINDOW_TYPE_DIALOG")}

	require.NoError(t, m.handleMapRequest(win))

	c, _ := m.findClient(win)
	require.NotNil(t, c)
	assert.True(t, c.Floating)
	assert.Equal(t, uint16(400), c.W)
	assert.Equal(t, uint16(300), c.H)
	assert.Equal(t, int16(760), c.X)
	assert.Equal(t, int16(380), c.Y)
}

func TestHandleClientMessageTogglesUrgentAndBorderColor(t *testing.T) {
	m, x, _ := newTestManager(t)
	m.cfg.BorderColor = 0x444444
	m.cfg.BorderColorUrgent = 0xcc4444
	win := xproto.Window(20)
	x.geometry[win] = [4]int{0, 0, 320, 240}
	require.NoError(t, m.handleMapRequest(win))

	c, _ := m.findClient(win)
	require.False(t, c.Urgent)

	demandsAttention := x.atomFor("_NET_WM_STATE_DEMANDS_ATTENTION")
	msg := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   m.atomWMState,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			netWMStateAdd, uint32(demandsAttention), 0, 0,
		}),
	}
	require.NoError(t, m.handleClientMessage(msg))

	assert.True(t, c.Urgent)
	assert.Equal(t, m.cfg.BorderColorUrgent, x.borderColors[win])

	msg.Data = xproto.ClientMessageDataUnionData32New([]uint32{
		netWMStateRemove, uint32(demandsAttention), 0, 0,
	})
	require.NoError(t, m.handleClientMessage(msg))

	assert.False(t, c.Urgent)
	assert.Equal(t, m.cfg.BorderColor, x.borderColors[win])
}

func TestHandleClientGoneUnlinksAndRedraws(t *testing.T) {
	m, x, _ := newTestManager(t)
	win := xproto.Window(15)
	x.geometry[win] = [4]int{0, 0, 320, 240}
	require.NoError(t, m.handleMapRequest(win))

	require.NoError(t, m.handleClientGone(win))

	c, _ := m.findClient(win)
	assert.Nil(t, c)
}

func TestHandleButtonPressAlwaysAllowsEventsRegardlessOfFocusOnClick(t *testing.T) {
	m, x, _ := newTestManager(t)
	m.cfg.FocusOnClick = false

	require.NoError(t, m.handleButtonPress(xproto.ButtonPressEvent{Event: 99, Time: 1}))

	assert.Equal(t, 1, x.allowedEvents)
}

func TestHandleButtonPressFocusesClientWhenEnabled(t *testing.T) {
	m, x, sync := newTestManager(t)
	win := xproto.Window(16)
	x.geometry[win] = [4]int{0, 0, 320, 240}
	require.NoError(t, m.handleMapRequest(win))

	require.NoError(t, m.handleButtonPress(xproto.ButtonPressEvent{Event: win, Time: 2}))

	assert.Equal(t, win, sync.focused)
	assert.Equal(t, 1, x.allowedEvents)
}

func TestHandleClientMessageTogglesFullscreen(t *testing.T) {
	m, x, sync := newTestManager(t)
	win := xproto.Window(17)
	x.geometry[win] = [4]int{0, 0, 320, 240}
	require.NoError(t, m.handleMapRequest(win))

	c, _ := m.findClient(win)
	require.False(t, c.Fullscreen)

	msg := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   m.atomWMState,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			netWMStateAdd, uint32(m.atomWMStateFullscreen), 0, 0,
		}),
	}
	require.NoError(t, m.handleClientMessage(msg))

	assert.True(t, c.Fullscreen)
	assert.True(t, sync.fullscreenSet[c])
}

func TestHandleClientMessageCurrentDesktopSwitchesWorkspace(t *testing.T) {
	m, _, sync := newTestManager(t)

	msg := xproto.ClientMessageEvent{
		Format: 32,
		Window: rootWindow,
		Type:   m.atomNetCurrentDesktop,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{1, 0, 0, 0}),
	}
	require.NoError(t, m.handleClientMessage(msg))

	assert.Equal(t, 2, m.state.CW)
	assert.Equal(t, 2, sync.switched)
}

func TestHandleClientMessageCloseWindow(t *testing.T) {
	m, x, _ := newTestManager(t)
	win := xproto.Window(18)

	msg := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   m.atomNetCloseWindow,
	}
	require.NoError(t, m.handleClientMessage(msg))

	assert.True(t, x.closed[win])
}

func TestScratchpadToggleGetSetsFloatingAndCentersClient(t *testing.T) {
	m, x, _ := newTestManager(t)
	m.cfg.ScratchpadWidthFrac = 0.6
	m.cfg.ScratchpadHeightFrac = 0.6
	win := xproto.Window(21)
	x.geometry[win] = [4]int{0, 0, 320, 240}
	require.NoError(t, m.handleMapRequest(win))

	c, _ := m.findClient(win)
	require.NotNil(t, c)
	require.NoError(t, m.scratchpad.Send(c))
	m.state.UnlinkAny(c)

	status := m.ScratchpadToggle(0)
	assert.Equal(t, command.StatusNone, status)

	c2, ws := m.findClient(win)
	require.NotNil(t, c2)
	assert.Same(t, c, c2)
	assert.Equal(t, m.state.Current(), ws)
	assert.True(t, c.Floating)

	wantX, wantY, wantW, wantH := rules.CenteredRect(1920, 1080, 0.6, 0.6)
	assert.Equal(t, wantX, c.X)
	assert.Equal(t, wantY, c.Y)
	assert.Equal(t, wantW, c.W)
	assert.Equal(t, wantH, c.H)
	assert.True(t, x.mapped[win])
}
