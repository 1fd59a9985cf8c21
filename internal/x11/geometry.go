package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// Geometry reads win's current position and size, used to seed a
// freshly mapped client's initial rectangle before rules/centring are
// applied (spec.md §4.6: "read initial geometry").
func (c *Conn) Geometry(win xproto.Window) (x, y int16, w, h uint16, err error) {
	reply, err := xproto.GetGeometry(c.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("x11: get geometry: %w", err)
	}
	return reply.X, reply.Y, reply.Width, reply.Height, nil
}
