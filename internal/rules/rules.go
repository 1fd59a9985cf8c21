// Package rules implements the class-based spawn rule table and the single
// scratchpad slot (spec.md §4.8).
package rules

import (
	"errors"
	"strings"

	"github.com/nuclearfall/howm/internal/client"
)

// ErrScratchpadOccupied is returned by Scratchpad.Send when the slot
// already holds a client.
var ErrScratchpadOccupied = errors.New("rules: scratchpad already occupied")

// ErrScratchpadEmpty is returned by Scratchpad.Take when the slot is
// empty.
var ErrScratchpadEmpty = errors.New("rules: scratchpad is empty")

// Rule is one row of the spawn rule table: class-substring, target
// workspace (0 meaning "current"), and the flags to apply on match
// (spec.md §4.8).
type Rule struct {
	ClassSubstring string
	Workspace      int
	Follow         bool
	Floating       bool
	Fullscreen     bool
}

// Table is an ordered list of rules; the first row whose substring occurs
// in either the instance or class name wins.
type Table []Rule

// Match returns the first rule whose ClassSubstring occurs in instance or
// class (case-sensitive, matching WM_CLASS's exact string contents), and
// true if one was found.
func (t Table) Match(instance, class string) (Rule, bool) {
	for _, r := range t {
		if strings.Contains(instance, r.ClassSubstring) || strings.Contains(class, r.ClassSubstring) {
			return r, true
		}
	}
	return Rule{}, false
}

// Apply sets c's flags from rule and reports which workspace the client
// should land on: rule.Workspace, or currentWorkspace when the rule uses
// the 0 ("current") sentinel.
func Apply(c *client.Client, rule Rule, currentWorkspace int) (targetWorkspace int) {
	c.Floating = rule.Floating
	c.Fullscreen = rule.Fullscreen
	if rule.Workspace == 0 {
		return currentWorkspace
	}
	return rule.Workspace
}

// Scratchpad holds the single optional detached client of spec.md §4.8 and
// §3's "Global process state".
type Scratchpad struct {
	client *client.Client
}

// Send detaches c into the scratchpad slot. Refused if the slot is already
// occupied; the caller is responsible for unmapping c and removing it from
// its owning workspace before calling Send.
func (s *Scratchpad) Send(c *client.Client) error {
	if s.client != nil {
		return ErrScratchpadOccupied
	}
	c.Next = nil
	s.client = c
	return nil
}

// Take removes and returns the stored client, or ErrScratchpadEmpty if the
// slot holds nothing.
func (s *Scratchpad) Take() (*client.Client, error) {
	if s.client == nil {
		return nil, ErrScratchpadEmpty
	}
	c := s.client
	s.client = nil
	return c, nil
}

// Occupied reports whether the slot currently holds a client.
func (s *Scratchpad) Occupied() bool {
	return s.client != nil
}

// CenteredRect computes the fixed central rectangle a scratchpad client is
// placed at on return (spec.md §4.8: "attaches the stored client as
// floating to the current workspace's tail at a fixed central rectangle"),
// sized to a fraction of the screenW x screenH area and centred on it; no
// bar reservation is taken into account.
func CenteredRect(screenW, screenH uint16, widthFrac, heightFrac float64) (x, y int16, w, h uint16) {
	w = uint16(float64(screenW) * widthFrac)
	h = uint16(float64(screenH) * heightFrac)
	x = int16((int32(screenW) - int32(w)) / 2)
	y = int16((int32(screenH) - int32(h)) / 2)
	return x, y, w, h
}
