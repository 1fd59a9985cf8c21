package workspace

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/nuclearfall/howm/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMapper struct {
	mapped, unmapped []xproto.Window
}

func (f *fakeMapper) MapWindow(w xproto.Window) error {
	f.mapped = append(f.mapped, w)
	return nil
}
func (f *fakeMapper) UnmapWindow(w xproto.Window) error {
	f.unmapped = append(f.unmapped, w)
	return nil
}

type fakeSync struct {
	focused []xproto.Window
	desktop []int
}

func (f *fakeSync) SyncFocus(w xproto.Window) error {
	f.focused = append(f.focused, w)
	return nil
}
func (f *fakeSync) SyncWorkspaceSwitch(cw int) error {
	f.desktop = append(f.desktop, cw)
	return nil
}

type fakeCloser struct{ closed []xproto.Window }

func (f *fakeCloser) Close(w xproto.Window) error {
	f.closed = append(f.closed, w)
	return nil
}

func newTestState(n int) *State {
	return NewState(n, 8, nil)
}

func TestSwitchIsNoOpOnSameWorkspace(t *testing.T) {
	s := newTestState(3)
	m, sy := &fakeMapper{}, &fakeSync{}
	require.NoError(t, s.Switch(s.CW, m, sy))
	assert.Empty(t, m.mapped)
	assert.Empty(t, m.unmapped)
	assert.Empty(t, sy.desktop)
}

func TestSwitchOutOfRangeIsNoOp(t *testing.T) {
	s := newTestState(3)
	require.NoError(t, s.Switch(99, &fakeMapper{}, &fakeSync{}))
	assert.Equal(t, 1, s.CW)
}

// spec.md §8: switch(a); switch(b); switch(a) leaves last-focused-workspace = b.
func TestSwitchSequenceTracksLastWorkspace(t *testing.T) {
	s := newTestState(3)
	m, sy := &fakeMapper{}, &fakeSync{}

	require.NoError(t, s.Switch(2, m, sy))
	require.NoError(t, s.Switch(3, m, sy))
	require.NoError(t, s.Switch(2, m, sy))

	assert.Equal(t, 2, s.CW)
	assert.Equal(t, 3, s.LastWS)
}

func TestFocusLastWorkspace(t *testing.T) {
	s := newTestState(3)
	m, sy := &fakeMapper{}, &fakeSync{}
	require.NoError(t, s.Switch(2, m, sy))
	require.NoError(t, s.FocusLastWorkspace(m, sy))
	assert.Equal(t, 1, s.CW)
}

func TestMoveClientFollow(t *testing.T) {
	s := newTestState(2)
	c := client.New(xproto.Window(1))
	s.Current().AppendNew(c)

	m, sy := &fakeMapper{}, &fakeSync{}
	require.NoError(t, s.MoveClient(c, 2, true, m, sy))

	assert.Equal(t, 2, s.CW)
	assert.Equal(t, 0, s.Workspaces[1].Count())
	assert.Equal(t, 1, s.Workspaces[2].Count())
	assert.Equal(t, c, s.Workspaces[2].Current)
}

func TestMoveClientNoFollowUnmapsAndRefocusesPredecessor(t *testing.T) {
	s := newTestState(2)
	a, b := client.New(xproto.Window(1)), client.New(xproto.Window(2))
	s.Current().AppendNew(a)
	s.Current().AppendNew(b)

	m, sy := &fakeMapper{}, &fakeSync{}
	require.NoError(t, s.MoveClient(b, 2, false, m, sy))

	assert.Equal(t, 1, s.CW, "no-follow move does not switch workspaces")
	assert.Contains(t, m.unmapped, xproto.Window(2))
	assert.Equal(t, a, s.Workspaces[1].Current)
}

func TestKillOnEmptyWorkspaceIsNoOp(t *testing.T) {
	ws := New(1)
	require.NoError(t, ws.Kill(&fakeCloser{}, nil))
}

func TestKillUnlinksCurrent(t *testing.T) {
	ws := New(1)
	c := client.New(xproto.Window(1))
	ws.AppendNew(c)

	closer := &fakeCloser{}
	require.NoError(t, ws.Kill(closer, nil))

	assert.Equal(t, 0, ws.Count())
	assert.Nil(t, ws.List.Head)
	assert.Contains(t, closer.closed, xproto.Window(1))
}

// spec.md §8: cut k clients then paste k times on the same workspace
// reproduces the original multiset of window handles.
func TestCutThenPasteRoundTrip(t *testing.T) {
	s := newTestState(1)
	cw := s.Current()
	handles := []xproto.Window{1, 2, 3, 4}
	for _, h := range handles {
		cw.AppendNew(client.New(h))
	}
	cw.Current = cw.List.Head // start the cut at the first client

	m := &fakeMapper{}
	require.NoError(t, s.Cut(CutClient, 2, m))
	assert.Equal(t, 2, cw.Count())
	assert.Equal(t, 1, s.Register.Len())

	require.NoError(t, s.Paste(m))
	assert.Equal(t, 0, s.Register.Len(), "register drained by the paste")

	got := map[xproto.Window]bool{}
	for c := cw.List.Head; c != nil; c = c.Next {
		got[c.Window] = true
	}
	for _, h := range handles {
		assert.True(t, got[h], "window %d present after cut+paste round trip", h)
	}
	assert.Equal(t, len(handles), cw.Count())
}

func TestCutDegeneratesToWorkspaceWhenCountCoversAll(t *testing.T) {
	s := newTestState(1)
	cw := s.Current()
	cw.AppendNew(client.New(1))
	cw.AppendNew(client.New(2))
	cw.Current = cw.List.Head

	m := &fakeMapper{}
	require.NoError(t, s.Cut(CutClient, 5, m))
	assert.Equal(t, 0, cw.Count())
	assert.Nil(t, cw.List.Head)
}

func TestCutRefusesOnOverflow(t *testing.T) {
	st := NewState(1, 1, nil)
	cw := st.Current()
	cw.AppendNew(client.New(1))
	cw.AppendNew(client.New(2))
	cw.Current = cw.List.Head

	m := &fakeMapper{}
	require.NoError(t, st.Cut(CutClient, 1, m))
	require.Error(t, st.Cut(CutClient, 1, m), "register at capacity 1 refuses a second cut")
}
