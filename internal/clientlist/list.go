// Package clientlist implements the singly-linked ordered client list that
// backs every workspace (spec.md §4.1). Empty-list and single-element cases
// need no special caller code: all operations are safe on a nil head.
package clientlist

import "github.com/nuclearfall/howm/internal/client"

// List is a singly-linked ordered sequence of clients. The zero value is an
// empty list.
type List struct {
	Head  *client.Client
	Count int
}

// Append adds c at the tail of the list.
func (l *List) Append(c *client.Client) {
	c.Next = nil
	if l.Head == nil {
		l.Head = c
		l.Count = 1
		return
	}
	tail := l.Head
	for tail.Next != nil {
		tail = tail.Next
	}
	tail.Next = c
	l.Count++
}

// Predecessor returns the client preceding target in the list, or nil if
// target is the head or is not present. O(n).
func (l *List) Predecessor(target *client.Client) *client.Client {
	if l.Head == nil || l.Head == target {
		return nil
	}
	prev := l.Head
	for prev.Next != nil {
		if prev.Next == target {
			return prev
		}
		prev = prev.Next
	}
	return nil
}

// Contains reports whether target is present in the list.
func (l *List) Contains(target *client.Client) bool {
	for c := l.Head; c != nil; c = c.Next {
		if c == target {
			return true
		}
	}
	return false
}

// Unlink removes target from the list if present, relinking around it.
// Reports whether target was found here.
func (l *List) Unlink(target *client.Client) bool {
	if l.Head == nil {
		return false
	}
	if l.Head == target {
		l.Head = target.Next
		target.Next = nil
		l.Count--
		return true
	}
	prev := l.Predecessor(target)
	if prev == nil {
		return false
	}
	prev.Next = target.Next
	target.Next = nil
	l.Count--
	return true
}

// NextWithWrap returns the client following cur, wrapping to Head when cur
// is the tail. Returns nil only when the list is empty. When cur is nil it
// returns Head.
func (l *List) NextWithWrap(cur *client.Client) *client.Client {
	if l.Head == nil {
		return nil
	}
	if cur == nil {
		return l.Head
	}
	if cur.Next != nil {
		return cur.Next
	}
	return l.Head
}

// Slice returns the clients in list order. Convenience for layout/testing;
// never mutated in place by callers.
func (l *List) Slice() []*client.Client {
	out := make([]*client.Client, 0, l.Count)
	for c := l.Head; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}

// Last returns the tail client, or nil if the list is empty.
func (l *List) Last() *client.Client {
	if l.Head == nil {
		return nil
	}
	c := l.Head
	for c.Next != nil {
		c = c.Next
	}
	return c
}
