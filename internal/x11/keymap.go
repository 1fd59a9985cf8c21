package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Keymap maps a keycode to its keysyms-per-column table, the shape used by
// the teacher (`wm.keymap[e.Detail][0]`).
type Keymap map[xproto.Keycode][]xproto.Keysym

// keysymNumLock is the fixed X keysym value for Num_Lock.
const keysymNumLock = xproto.Keysym(0xff7f)

// LoadKeymap queries the full keycode range and builds a Keymap, the same
// shape and call site as the teacher's keysym.LoadKeyMapping(x11.X).
func LoadKeymap(conn *xgb.Conn) (Keymap, error) {
	setup := xproto.Setup(conn)
	first := setup.MinKeycode
	count := int(setup.MaxKeycode-setup.MinKeycode) + 1

	reply, err := xproto.GetKeyboardMapping(conn, first, byte(count)).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11: get keyboard mapping: %w", err)
	}

	perKeycode := int(reply.KeysymsPerKeycode)
	km := make(Keymap, count)
	for i := 0; i < count; i++ {
		kc := xproto.Keycode(int(first) + i)
		start := i * perKeycode
		end := start + perKeycode
		if end > len(reply.Keysyms) {
			end = len(reply.Keysyms)
		}
		km[kc] = reply.Keysyms[start:end]
	}
	return km, nil
}

// Lookup returns the base (column 0) keysym bound to keycode, or 0 if
// unmapped.
func (k Keymap) Lookup(keycode xproto.Keycode) xproto.Keysym {
	syms := k[keycode]
	if len(syms) == 0 {
		return 0
	}
	return syms[0]
}

// computeNumLockMask finds which of the eight X modifiers (Shift, Lock,
// Control, Mod1..Mod5) has Num_Lock bound to one of its keycodes, the way
// dwm-lineage window managers derive the mask to strip before matching
// bindings (spec.md §4.4: "after stripping numlock/caps-lock").
func computeNumLockMask(conn *xgb.Conn, km Keymap) (uint16, error) {
	reply, err := xproto.GetModifierMapping(conn).Reply()
	if err != nil {
		return 0, fmt.Errorf("x11: get modifier mapping: %w", err)
	}
	perMod := int(reply.KeycodesPerModifier)
	for modIndex := 0; modIndex < 8; modIndex++ {
		for j := 0; j < perMod; j++ {
			kc := reply.Keycodes[modIndex*perMod+j]
			if kc == 0 {
				continue
			}
			for _, sym := range km[kc] {
				if sym == keysymNumLock {
					return 1 << uint(modIndex), nil
				}
			}
		}
	}
	return 0, nil
}

// StripLocks clears the numlock and caps-lock bits from a modifier mask
// (spec.md §4.4, §6: "Mod-mask comparison ignores numlock and caps-lock").
func (c *Conn) StripLocks(mods uint16) uint16 {
	return mods &^ (xproto.ModMaskLock | c.NumLockMask)
}

// Lookup resolves a keycode to its base keysym using the connection's
// loaded keymap, for the key-press handler feeding internal/fsa.
func (c *Conn) Lookup(keycode xproto.Keycode) xproto.Keysym {
	return c.Keymap.Lookup(keycode)
}

// Keycode reverse-looks-up the keycode bound to sym in column 0, for
// grabbing a binding expressed as a keysym (cmd/howm's startup grab pass).
func (k Keymap) Keycode(sym xproto.Keysym) (xproto.Keycode, bool) {
	for kc, syms := range k {
		if len(syms) > 0 && syms[0] == sym {
			return kc, true
		}
	}
	return 0, false
}

// Keycode resolves sym via the connection's loaded keymap.
func (c *Conn) Keycode(sym xproto.Keysym) (xproto.Keycode, bool) {
	return c.Keymap.Keycode(sym)
}
