// Package keysym names the small set of X11 keysym constants cmd/howm's
// default bindings reference, grounded on the standard X11 keysymdef.h
// values (the printable ASCII keysyms match their ASCII code; the named
// keys are the fixed values every X server advertises).
package keysym

import "github.com/BurntSushi/xgb/xproto"

const (
	Return    = xproto.Keysym(0xff0d)
	Tab       = xproto.Keysym(0xff09)
	BackSpace = xproto.Keysym(0xff08)
	Space     = xproto.Keysym(0x0020)

	N1 = xproto.Keysym('1')
	N2 = xproto.Keysym('2')
	N3 = xproto.Keysym('3')
	N4 = xproto.Keysym('4')
	N5 = xproto.Keysym('5')
	N6 = xproto.Keysym('6')
	N7 = xproto.Keysym('7')
	N8 = xproto.Keysym('8')
	N9 = xproto.Keysym('9')

	C = xproto.Keysym('c')
	D = xproto.Keysym('d')
	F = xproto.Keysym('f')
	H = xproto.Keysym('h')
	J = xproto.Keysym('j')
	K = xproto.Keysym('k')
	L = xproto.Keysym('l')
	M = xproto.Keysym('m')
	P = xproto.Keysym('p')
	Q = xproto.Keysym('q')
	S = xproto.Keysym('s')
	V = xproto.Keysym('v')
	W = xproto.Keysym('w')
	X = xproto.Keysym('x')
)

// Digits orders N1..N9 for workspace-index bindings.
var Digits = [9]xproto.Keysym{N1, N2, N3, N4, N5, N6, N7, N8, N9}
