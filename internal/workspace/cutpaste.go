package workspace

import (
	"fmt"

	"github.com/nuclearfall/howm/internal/client"
	"github.com/nuclearfall/howm/internal/register"
)

// CutType selects whether Cut operates on whole workspaces or on a run of
// clients within the current workspace (spec.md §4.7).
type CutType int

const (
	CutClient CutType = iota
	CutWorkspace
)

// Cut detaches count workspaces' worth of clients, or a run of count
// clients starting at the current workspace's current client, and pushes
// the detached sublist onto the delete register (spec.md §4.7).
func (s *State) Cut(typ CutType, count int, wm WindowMapper) error {
	if typ == CutWorkspace {
		return s.cutWorkspaces(count, wm)
	}

	cw := s.Current()
	if count >= cw.Count() {
		return s.cutWorkspaces(1, wm)
	}
	return s.cutClients(cw, count, wm)
}

// cutWorkspaces pushes the next count workspaces (starting at cw) onto the
// register as whole sublists, clearing each.
func (s *State) cutWorkspaces(count int, wm WindowMapper) error {
	if s.Register.Len()+count > s.Register.Cap() {
		if s.Log != nil {
			s.Log.Warn("workspace: cut refused, delete register would overflow")
		}
		return register.ErrFull
	}
	for n := 0; n < count; n++ {
		idx := s.CW + n
		if idx > s.N {
			idx -= s.N
		}
		ws := s.Workspaces[idx]
		for c := ws.List.Head; c != nil; c = c.Next {
			if err := wm.UnmapWindow(c.Window); err != nil {
				return fmt.Errorf("workspace: unmap during cut: %w", err)
			}
		}
		head := ws.List.Head
		if err := s.Register.Push(head); err != nil {
			return err
		}
		ws.List.Head = nil
		ws.List.Count = 0
		ws.Current = nil
		ws.Previous = nil
	}
	return nil
}

// cutClients detaches the run [current, current+count-1] from cw, walking
// forward around a temporary ring so a run that passes the tail wraps to the
// head without special-casing (spec.md §4.7, §9: the list is temporarily closed
// into a ring to simplify wrap counting, then broken before returning).
func (s *State) cutClients(cw *Workspace, count int, wm WindowMapper) error {
	if s.Register.Len() >= s.Register.Cap() {
		if s.Log != nil {
			s.Log.Warn("workspace: cut refused, delete register is full")
		}
		return register.ErrFull
	}
	start := cw.Current
	if start == nil {
		return nil
	}

	pred := cw.List.Predecessor(start)

	// Close the list into a ring transiently to walk `count` nodes
	// forward even when that wraps past the tail back to the head.
	tail := cw.List.Last()
	tail.Next = cw.List.Head

	run := make([]*client.Client, 0, count)
	cur := start
	for i := 0; i < count; i++ {
		run = append(run, cur)
		cur = cur.Next
	}
	afterRun := cur // first client past the cut run; may equal start if count spans the whole ring

	// Break the ring before mutating list pointers.
	tail.Next = nil

	for _, c := range run {
		if err := wm.UnmapWindow(c.Window); err != nil {
			return fmt.Errorf("workspace: unmap during cut: %w", err)
		}
	}

	detachRun(cw, run, pred, afterRun)

	head := run[0]
	for i := 0; i < len(run)-1; i++ {
		run[i].Next = run[i+1]
	}
	run[len(run)-1].Next = nil

	if err := s.Register.Push(head); err != nil {
		return err
	}

	cw.refocusAfterRemoval(start, pred)
	if pred != nil {
		cw.focus(pred)
	} else if cw.List.Head != nil {
		cw.focus(cw.List.Head)
	} else {
		cw.Current = nil
		cw.Previous = nil
	}
	return nil
}

// detachRun relinks cw's list around the cut run, preserving the remaining
// clients and updating the count.
func detachRun(cw *Workspace, run []*client.Client, pred, afterRun *client.Client) {
	remaining := cw.List.Count - len(run)
	if remaining < 0 {
		remaining = 0
	}
	cw.List.Count = remaining

	if remaining == 0 {
		cw.List.Head = nil
		return
	}
	if pred == nil {
		cw.List.Head = afterRun
		return
	}
	for _, c := range run {
		if c == cw.List.Head {
			// The run wrapped past the tail: the survivors are the stretch
			// from afterRun up to pred, which becomes the new tail.
			cw.List.Head = afterRun
			pred.Next = nil
			return
		}
	}
	pred.Next = afterRun
}

// Paste pops the most recently cut sublist and splices it into the current
// workspace after the current client (spec.md §4.7).
func (s *State) Paste(wm WindowMapper) error {
	head, err := s.Register.Pop()
	if err != nil {
		return err
	}

	cw := s.Current()
	nodes := []*client.Client{}
	for c := head; c != nil; c = c.Next {
		nodes = append(nodes, c)
	}

	if cw.List.Head == nil {
		cw.List.Head = head
	} else if cw.Current == nil || cw.List.Last() == cw.Current {
		cw.List.Last().Next = head
	} else {
		after := cw.Current
		rest := after.Next
		after.Next = head
		nodes[len(nodes)-1].Next = rest
	}
	cw.List.Count += len(nodes)

	for _, c := range nodes {
		if err := wm.MapWindow(c.Window); err != nil {
			return fmt.Errorf("workspace: map pasted client: %w", err)
		}
	}
	cw.focus(nodes[len(nodes)-1])
	return nil
}
