// Package register implements the bounded delete-register stack used by
// cut/paste (spec.md §3 "Delete register", §4.7). Each element is the head
// of an entire detached client sublist.
package register

import (
	"errors"

	"github.com/nuclearfall/howm/internal/client"
)

// ErrFull is returned by Push when the register is already at capacity.
var ErrFull = errors.New("register: delete register is full")

// ErrEmpty is returned by Pop when the register has nothing to return.
var ErrEmpty = errors.New("register: delete register is empty")

// Stack is a fixed-capacity LIFO of detached client sublist heads.
type Stack struct {
	depth []*client.Client
	cap   int
}

// New creates a Stack with the given bounded depth.
func New(capacity int) *Stack {
	return &Stack{cap: capacity}
}

// Push stores sublistHead as the newest entry. Refused (ErrFull) once the
// stack is already at capacity; state is left unchanged on refusal.
func (s *Stack) Push(sublistHead *client.Client) error {
	if len(s.depth) >= s.cap {
		return ErrFull
	}
	s.depth = append(s.depth, sublistHead)
	return nil
}

// Pop removes and returns the most recently pushed sublist head.
func (s *Stack) Pop() (*client.Client, error) {
	if len(s.depth) == 0 {
		return nil, ErrEmpty
	}
	top := s.depth[len(s.depth)-1]
	s.depth = s.depth[:len(s.depth)-1]
	return top, nil
}

// Len reports how many sublists are currently held.
func (s *Stack) Len() int {
	return len(s.depth)
}

// Cap reports the configured bound.
func (s *Stack) Cap() int {
	return s.cap
}
