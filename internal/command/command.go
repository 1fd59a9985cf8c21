// Package command implements the named command table and the control
// socket's wire framing and dispatch (spec.md §4.5). Framing itself (NUL
// delimiting within one read) is intentionally simple — the socket's
// accept/read loop lives in internal/eventloop; this package only parses
// and dispatches a single already-read datagram.
package command

import (
	"bytes"
	"strconv"

	"github.com/nuclearfall/howm/internal/fsa"
)

// Status is the single integer reply code sent back on the control
// socket after a command is processed (spec.md §4.5).
type Status int

const (
	StatusNone Status = iota
	StatusSyntax
	StatusAlloc
	StatusNoCommand
	StatusTooManyArgs
	StatusTooFewArgs
	StatusArgNotInt
	StatusArgTooLarge
)

// ArgType tags how a command's arguments should be parsed.
type ArgType int

const (
	// ArgInt is a one- or two-digit decimal integer with optional leading
	// minus.
	ArgInt ArgType = iota
	// ArgCommand treats the whole remainder as argv for spawning a
	// subprocess.
	ArgCommand
	// ArgIgnored takes no meaningful argument payload.
	ArgIgnored
	// ArgOperator is the two-argument (count, motion-type-char) shape used
	// by operator commands relayed over the socket.
	ArgOperator
)

// IntInvoker is the shape of a unary command taking a single tagged
// integer argument.
type IntInvoker func(arg int) Status

// StringsInvoker is the shape of a unary command taking a string-vector
// argument (spawn argv).
type StringsInvoker func(argv []string) Status

// OperatorInvoker is the shape of a binary operator command taking
// (motion type, count), mirroring the FSA's own operator signature
// (spec.md §4.4/§4.5).
type OperatorInvoker func(motion fsa.MotionType, count int) Status

// Command is one named entry of the command table.
type Command struct {
	Name    string
	ArgType ArgType
	ArgCount int

	IntFn      IntInvoker
	StringsFn  StringsInvoker
	OperatorFn OperatorInvoker
}

// Table is the full set of named commands, looked up by name.
type Table map[string]Command

// Register adds cmd to the table, keyed by its name.
func (t Table) Register(cmd Command) {
	t[cmd.Name] = cmd
}

// Dispatch parses one NUL-framed datagram (name followed by its
// NUL-separated arguments, per spec.md §4.5) and invokes the matching
// command, returning the status to send back on the socket.
func (t Table) Dispatch(datagram []byte) Status {
	fields := splitNUL(datagram)
	if len(fields) == 0 {
		return StatusSyntax
	}
	name := fields[0]
	args := fields[1:]

	cmd, ok := t[name]
	if !ok {
		return StatusNoCommand
	}

	switch cmd.ArgType {
	case ArgIgnored:
		if len(args) > 0 {
			return StatusTooManyArgs
		}
		return cmd.IntFn(0)

	case ArgInt:
		if len(args) < 1 {
			return StatusTooFewArgs
		}
		if len(args) > 1 {
			return StatusTooManyArgs
		}
		n, status := parseInt(args[0])
		if status != StatusNone {
			return status
		}
		return cmd.IntFn(n)

	case ArgCommand:
		if len(args) < 1 {
			return StatusTooFewArgs
		}
		return cmd.StringsFn(args)

	case ArgOperator:
		if len(args) < 2 {
			return StatusTooFewArgs
		}
		if len(args) > 2 {
			return StatusTooManyArgs
		}
		count, status := parseInt(args[0])
		if status != StatusNone {
			return status
		}
		motionChar := args[1]
		var motion fsa.MotionType
		switch motionChar {
		case "w":
			motion = fsa.MotionWorkspace
		case "c":
			motion = fsa.MotionClient
		default:
			return StatusSyntax
		}
		return cmd.OperatorFn(motion, count)
	}

	return StatusSyntax
}

// parseInt accepts a one- or two-digit decimal with an optional leading
// minus (spec.md §4.5), rejecting anything larger as too-large rather
// than silently truncating.
func parseInt(s string) (int, Status) {
	if len(s) == 0 {
		return 0, StatusArgNotInt
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, StatusArgNotInt
	}
	digits := s
	if digits[0] == '-' {
		digits = digits[1:]
	}
	if len(digits) > 2 {
		return 0, StatusArgTooLarge
	}
	return n, StatusNone
}

// splitNUL splits a datagram into its NUL-separated fields, dropping a
// single trailing empty field caused by a terminating NUL.
func splitNUL(datagram []byte) []string {
	parts := bytes.Split(datagram, []byte{0})
	if len(parts) > 0 && len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}
