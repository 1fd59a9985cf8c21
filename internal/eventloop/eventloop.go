// Package eventloop is the Go-idiomatic re-expression of spec.md §5's
// blocking multi-fd wait: a goroutine drains the X connection, a goroutine
// accepts control-socket connections, and Loop.Run is the single
// dispatching goroutine, so every handler call happens-before the next —
// spec.md §5's ordering and atomicity guarantees hold by construction.
package eventloop

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/BurntSushi/xgb"
	"github.com/sirupsen/logrus"

	"github.com/nuclearfall/howm/internal/command"
)

// socketReadBuffer bounds a single control-socket read (spec.md §4.6:
// "read up to buffer size").
const socketReadBuffer = 4096

// XEventSource is the subset of *xgb.Conn the loop needs, narrowed so the
// loop can be driven by a fake in tests.
type XEventSource interface {
	WaitForEvent() (xgb.Event, error)
}

// Dispatcher receives the two kinds of work the loop hands out. It owns
// all manager state; the loop itself holds none.
type Dispatcher interface {
	HandleXEvent(ev xgb.Event)
	HandleCommand(datagram []byte) command.Status
	Flush()
}

// Loop is the single-goroutine event multiplexer.
type Loop struct {
	x          XEventSource
	listener   net.Listener
	dispatcher Dispatcher
	log        *logrus.Logger
	quit       chan struct{}
}

// New builds a Loop. listener is the already-bound control socket
// (typically a Unix domain socket, spec.md §6); x is usually the raw
// *xgb.Conn obtained via (*x11.Conn).Raw().
func New(x XEventSource, listener net.Listener, dispatcher Dispatcher, log *logrus.Logger) *Loop {
	return &Loop{x: x, listener: listener, dispatcher: dispatcher, log: log, quit: make(chan struct{})}
}

// Stop signals Run to return after its current wake. Safe to call once.
func (l *Loop) Stop() {
	close(l.quit)
}

// Run blocks until Stop is called or the X connection errors. Any
// X-connection error terminates the loop (spec.md §4.6). A listener closed
// out from under the accept goroutine only stops new control-socket
// connections; Run does not return because of it.
func (l *Loop) Run() error {
	xEvents := make(chan xgb.Event)
	xErrs := make(chan error, 1)
	go l.drainX(xEvents, xErrs)

	conns := make(chan net.Conn)
	go l.acceptLoop(conns)

	for {
		// Socket-before-X priority (spec.md §4.6: "when both fds are
		// ready, socket is processed first"): a non-blocking check for an
		// already-queued connection runs before the blocking select below
		// can pick an X event instead.
		select {
		case conn := <-conns:
			l.handleConn(conn)
			l.dispatcher.Flush()
			continue
		default:
		}

		select {
		case <-l.quit:
			return nil

		case err := <-xErrs:
			return fmt.Errorf("eventloop: x connection: %w", err)

		case conn := <-conns:
			l.handleConn(conn)

		case ev := <-xEvents:
			l.dispatcher.HandleXEvent(ev)
			l.drainPendingX(xEvents)
		}

		l.dispatcher.Flush()
	}
}

// drainPendingX dispatches every X event already queued on the channel
// without blocking, so one wake processes the whole backlog before the
// loop returns to wait (spec.md §5: "draining fully before the loop
// returns to wait").
func (l *Loop) drainPendingX(xEvents <-chan xgb.Event) {
	for {
		select {
		case ev := <-xEvents:
			l.dispatcher.HandleXEvent(ev)
		default:
			return
		}
	}
}

func (l *Loop) drainX(out chan<- xgb.Event, errs chan<- error) {
	for {
		ev, err := l.x.WaitForEvent()
		if err != nil {
			errs <- err
			return
		}
		select {
		case out <- ev:
		case <-l.quit:
			return
		}
	}
}

func (l *Loop) acceptLoop(out chan<- net.Conn) {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			return
		}
		select {
		case out <- conn:
		case <-l.quit:
			conn.Close()
			return
		}
	}
}

// handleConn reads one datagram, dispatches it, writes the status reply,
// and closes the connection (spec.md §4.5: "The socket connection is
// closed after each reply").
func (l *Loop) handleConn(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, socketReadBuffer)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		l.warn("read control socket", err)
		return
	}

	status := l.dispatcher.HandleCommand(buf[:n])

	// spec.md §6: the reply is one machine-order native-int status, not a
	// textual decimal.
	if err := binary.Write(conn, binary.NativeEndian, int32(status)); err != nil {
		l.warn("write control socket reply", err)
	}
}

func (l *Loop) warn(action string, err error) {
	if l.log == nil {
		return
	}
	l.log.Warn(fmt.Errorf("eventloop: %s: %w", action, err))
}
