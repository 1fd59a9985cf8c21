package eventloop

import (
	"encoding/binary"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuclearfall/howm/internal/command"
)

type fakeXSource struct {
	mu     sync.Mutex
	events []xgb.Event
	errAt  int // index at which to return an error instead, -1 to never
	i      int
	block  chan struct{}
}

func (f *fakeXSource) WaitForEvent() (xgb.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errAt >= 0 && f.i == f.errAt {
		return nil, errors.New("fake x error")
	}
	if f.i < len(f.events) {
		ev := f.events[f.i]
		f.i++
		return ev, nil
	}
	// Block "forever" (until the test ends) once the scripted events are
	// exhausted, mirroring a real idle WaitForEvent call.
	<-f.block
	return nil, errors.New("fake x source closed")
}

type fakeDispatcher struct {
	mu        sync.Mutex
	xEvents   []xgb.Event
	commands  [][]byte
	flushes   int
	cmdStatus command.Status
}

func (d *fakeDispatcher) HandleXEvent(ev xgb.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.xEvents = append(d.xEvents, ev)
}

func (d *fakeDispatcher) HandleCommand(datagram []byte) command.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := append([]byte(nil), datagram...)
	d.commands = append(d.commands, cp)
	return d.cmdStatus
}

func (d *fakeDispatcher) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushes++
}

func (d *fakeDispatcher) xEventCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.xEvents)
}

func (d *fakeDispatcher) commandCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.commands)
}

type fakeKeyPressEvent struct{ xgb.Event }

func TestRunDispatchesXEventsAndStops(t *testing.T) {
	x := &fakeXSource{events: []xgb.Event{fakeKeyPressEvent{}, fakeKeyPressEvent{}}, errAt: -1, block: make(chan struct{})}
	defer close(x.block)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	d := &fakeDispatcher{}
	loop := New(x, listener, d, nil)

	done := make(chan error, 1)
	go func() { done <- loop.Run() }()

	require.Eventually(t, func() bool { return d.xEventCount() == 2 }, time.Second, time.Millisecond)

	loop.Stop()
	err = <-done
	assert.NoError(t, err)
}

func TestRunHandlesControlSocketCommand(t *testing.T) {
	x := &fakeXSource{errAt: -1, block: make(chan struct{})}
	defer close(x.block)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	d := &fakeDispatcher{cmdStatus: command.StatusNone}
	loop := New(x, listener, d, nil)

	done := make(chan error, 1)
	go func() { done <- loop.Run() }()

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	_, err = conn.Write([]byte("quit\x00"))
	require.NoError(t, err)

	reply := make([]byte, 16)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	n, _ := conn.Read(reply)
	require.Equal(t, 4, n)
	assert.Equal(t, int32(0), int32(binary.NativeEndian.Uint32(reply[:n])))
	conn.Close()

	require.Eventually(t, func() bool { return d.commandCount() == 1 }, time.Second, time.Millisecond)

	loop.Stop()
	<-done
}

func TestRunReturnsErrorOnXConnectionFailure(t *testing.T) {
	x := &fakeXSource{errAt: 0, block: make(chan struct{})}
	defer close(x.block)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	d := &fakeDispatcher{}
	loop := New(x, listener, d, nil)

	err = loop.Run()
	assert.Error(t, err)
}
