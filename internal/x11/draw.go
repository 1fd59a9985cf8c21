package x11

import (
	"fmt"

	"github.com/nuclearfall/howm/internal/layout"
)

// Draw applies a single layout pass: each placement's rect and border are
// pushed to the X server in one ConfigureWindow call (spec.md §4.3: "a
// single draw pass configures each window in one pass"). Errors from
// individual windows are collected but do not stop the pass — a client
// that has already been destroyed should not prevent its neighbours from
// being placed.
func (c *Conn) Draw(placements []layout.Placement) error {
	var firstErr error
	for _, p := range placements {
		err := c.Configure(p.Client.Window, p.Rect.X, p.Rect.Y, p.Rect.W, p.Rect.H, p.Border)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("x11: draw pass: %w", err)
		}
	}
	return firstErr
}
