// Package client defines the managed-window type shared by every other
// package in howm. A Client never outlives the single list, scratchpad
// slot, or delete-register sublist that owns it (see clientlist and
// register).
package client

import "github.com/BurntSushi/xgb/xproto"

// Client is one managed top-level window (spec.md §3).
type Client struct {
	Window xproto.Window

	X, Y int16
	W, H uint16

	Gap uint16

	Floating   bool
	Fullscreen bool
	Transient  bool
	Urgent     bool

	// Class is the WM_CLASS pair read once at creation time (instance,
	// class); used by the rule engine.
	Instance string
	Class    string

	// Next links clients within a workspace's singly-linked list. It is
	// unexported-by-convention only in spirit; clientlist owns the
	// traversal logic but needs the field, so it stays exported within
	// the module.
	Next *Client
}

// FFT reports whether c is excluded from tiling layouts (spec.md §4.3:
// "floating, fullscreen, or transient").
func (c *Client) FFT() bool {
	return c.Floating || c.Fullscreen || c.Transient
}

// New builds a Client for a freshly mapped window with default geometry.
func New(win xproto.Window) *Client {
	return &Client{Window: win}
}
