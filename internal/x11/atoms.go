package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// Atom interns name, caching the result (spec.md §2: "atom interning").
// A failed intern is a warn-and-continue condition (spec.md §7): the
// caller gets the error and decides whether the feature it backs is
// disabled.
func (c *Conn) Atom(name string) (xproto.Atom, error) {
	c.atomMu.Lock()
	if a, ok := c.atoms[name]; ok {
		c.atomMu.Unlock()
		return a, nil
	}
	c.atomMu.Unlock()

	reply, err := xproto.InternAtom(c.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("x11: intern atom %q: %w", name, err)
	}

	c.atomMu.Lock()
	c.atoms[name] = reply.Atom
	c.atomMu.Unlock()
	return reply.Atom, nil
}

// MustAtom interns name, returning 0 (xproto.AtomNone) on failure rather
// than propagating an error; the failure is not logged — for call sites during setup
// where a missing, rarely-supported atom should not block startup.
func (c *Conn) MustAtom(name string) xproto.Atom {
	a, err := c.Atom(name)
	if err != nil {
		return xproto.AtomNone
	}
	return a
}
