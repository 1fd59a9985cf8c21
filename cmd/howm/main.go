// Command howm is the window manager daemon: it owns the X11 connection,
// assembles internal/manager's event handlers, and runs the event loop
// until a quit command is received (spec.md §1, §6).
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/nuclearfall/howm/internal/command"
	"github.com/nuclearfall/howm/internal/eventloop"
	"github.com/nuclearfall/howm/internal/ewmhsync"
	"github.com/nuclearfall/howm/internal/fsa"
	"github.com/nuclearfall/howm/internal/howmlog"
	"github.com/nuclearfall/howm/internal/keysym"
	"github.com/nuclearfall/howm/internal/layout"
	"github.com/nuclearfall/howm/internal/manager"
	"github.com/nuclearfall/howm/internal/rules"
	"github.com/nuclearfall/howm/internal/workspace"
	"github.com/nuclearfall/howm/internal/x11"
)

// modKey is the primary binding modifier (Mod4 — the "super"/"windows" key),
// matching the dwm/marwind lineage's default.
const modKey = xproto.ModMask4

// countMod is the real modifier the count-chord digit must be held with
// (spec.md §4.4's CountModifier placeholder bit, bound here to Mod1 so it
// never collides with the plain workspace-switch digits below).
const countMod = xproto.ModMask1

func main() {
	debug := flag.Bool("debug", false, "enable verbose logging")
	socketPath := flag.String("socket", defaultSocketPath(), "control socket path")
	flag.Parse()

	log := howmlog.New()
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := defaultConfig(*socketPath)

	conn, err := x11.Connect()
	if err != nil {
		log.WithError(err).Fatal("howm: connect to X server")
	}
	defer conn.Close()
	if conn.SetupWarning != nil {
		log.WithError(conn.SetupWarning).Warn("howm: non-fatal setup warning")
	}

	if err := conn.BecomeWM(); err != nil {
		log.WithError(err).Fatal("howm: become window manager (is another WM running?)")
	}
	defer conn.Cleanup()

	sync := ewmhsync.New(conn, conn.Root, uint32(conn.ScreenW), uint32(conn.ScreenH), log)
	if err := sync.Setup(cfg.Workspaces); err != nil {
		log.WithError(err).Warn("howm: EWMH setup")
	}

	state := workspace.NewState(cfg.Workspaces, cfg.RegisterDepth, log)

	automaton := fsa.New(nil, nil, nil)

	m := manager.New(conn, sync, state, cfg.Rules, automaton, cfg, conn.Root, conn.ScreenW, conn.ScreenH, log)

	bindKeys(automaton, state, m)
	registerCommands(m)

	if err := conn.UngrabAllKeys(); err != nil {
		log.WithError(err).Warn("howm: ungrab all keys at startup")
	}
	if err := grabBoundKeys(conn, automaton, log); err != nil {
		log.WithError(err).Warn("howm: grab configured bindings")
	}

	adoptExistingWindows(conn, m, log)

	listener, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		log.WithError(err).Fatal("howm: listen on control socket")
	}
	defer listener.Close()
	defer os.Remove(cfg.SocketPath)

	loop := eventloop.New(conn.Raw(), listener, m, log)

	quit := make(chan struct{})
	m.RegisterCommand(command.Command{
		Name:    "quit",
		ArgType: command.ArgIgnored,
		IntFn: func(int) command.Status {
			close(quit)
			loop.Stop()
			return command.StatusNone
		},
	})

	go func() {
		<-quit
	}()

	if err := loop.Run(); err != nil {
		log.WithError(err).Warn("howm: event loop exited")
	}
}

func defaultSocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return fmt.Sprintf("%s/howm.sock", dir)
}

// defaultConfig builds the single literal Config object referenced by
// Manager (spec.md §6's default layout/gap/border policy).
func defaultConfig(socketPath string) manager.Config {
	return manager.Config{
		Workspaces:            9,
		Gap:                   4,
		BorderWidth:           2,
		BorderColor:           0x444444,
		BorderColorUrgent:     0xcc4444,
		MasterRatio:           0.5,
		DefaultLayout:         layout.Zoom,
		ZoomGap:               false,
		BarHeight:             20,
		BarOnTop:              true,
		FocusFollowsMouse:     true,
		FocusOnClick:          true,
		CountModMask:          uint16(countMod),
		RegisterDepth:         8,
		SpawnWidth:            800,
		SpawnHeight:           600,
		CenterFloating:        true,
		ScratchpadWidthFrac:   0.6,
		ScratchpadHeightFrac:  0.6,
		Rules:                 defaultRules(),
		SocketPath:            socketPath,
	}
}

// defaultRules matches a handful of well-known class names, the way
// marwind's sample configuration special-cases scratchpad-style terminals
// and floating dialogs (spec.md §4.8).
func defaultRules() rules.Table {
	return rules.Table{
		{ClassSubstring: "Gimp", Floating: true},
		{ClassSubstring: "mpv", Floating: true},
		{ClassSubstring: "pavucontrol", Floating: true},
	}
}

// bindKeys builds the operator/motion/direct binding tables (spec.md §4.4)
// and wires replay bookkeeping (spec.md §3, §8's replay property) into
// state.Replay.
func bindKeys(automaton *fsa.Automaton, state *workspace.State, m *manager.Manager) {
	operatorRows := []fsa.OperatorRow{
		{Sym: keysym.Q, Mods: modKey, Mode: 0, Op: m.KillOperator, Name: "kill"},
		{Sym: keysym.X, Mods: modKey, Mode: 0, Op: m.CutOperator, Name: "cut"},
	}
	motionRows := []fsa.MotionRow{
		{Sym: keysym.C, Mods: modKey, Motion: fsa.MotionClient},
		{Sym: keysym.W, Mods: modKey, Motion: fsa.MotionWorkspace},
	}

	directBindings := []fsa.DirectBinding{
		{Sym: keysym.Return, Mods: modKey, Name: "spawn-terminal", Invoke: func() { m.Spawn([]string{"xterm"}) }},
		{Sym: keysym.P, Mods: modKey, Name: "spawn-launcher", Invoke: func() { m.Spawn([]string{"dmenu_run"}) }},
		{Sym: keysym.V, Mods: modKey, Name: "paste", Invoke: func() { m.Paste(0) }},
		{Sym: keysym.J, Mods: modKey, Name: "focus-next", Invoke: func() { m.FocusNext() }},
		{Sym: keysym.K, Mods: modKey, Name: "focus-prev", Invoke: func() { m.FocusPrev() }},
		{Sym: keysym.H, Mods: modKey, Name: "ratio-shrink", Invoke: func() { m.AdjustMasterRatio(-0.05) }},
		{Sym: keysym.L, Mods: modKey, Name: "ratio-grow", Invoke: func() { m.AdjustMasterRatio(0.05) }},
		{Sym: keysym.Space, Mods: modKey, Name: "cycle-layout", Invoke: func() { m.CycleLayout() }},
		{Sym: keysym.F, Mods: modKey, Name: "toggle-fullscreen", Invoke: func() { m.ToggleFullscreen(0) }},
		{Sym: keysym.S, Mods: modKey, Name: "scratchpad-toggle", Invoke: func() { m.ScratchpadToggle(0) }},
		{Sym: keysym.Tab, Mods: modKey, Name: "focus-last-ws", Invoke: func() { m.FocusLastWorkspace(0) }},
		{Sym: keysym.BackSpace, Mods: modKey, Name: "quit", Invoke: func() { os.Exit(0) }},
		// The replay binding itself must never become the replay record,
		// or invoking it would re-invoke itself (fsa's IsReplay guard,
		// spec.md §4.4: "to prevent self-reference loops").
		{Sym: keysym.M, Mods: modKey, Name: "replay-last", Invoke: func() { m.ReplayLast(0) }, IsReplay: true},
	}
	for i, sym := range keysym.Digits {
		ws := i + 1
		directBindings = append(directBindings,
			fsa.DirectBinding{Sym: sym, Mods: modKey, Name: "switch-workspace", Invoke: func() { m.SwitchWorkspace(ws) }},
			fsa.DirectBinding{Sym: sym, Mods: modKey | xproto.ModMaskShift, Name: "move-client-follow", Invoke: func() { m.MoveClientFollow(ws) }},
		)
	}

	automaton.SetBindings(operatorRows, motionRows, directBindings)

	// A completed triple becomes the live replay record; TripleFn closes
	// back over the same operator so replaying it needs nothing from the
	// automaton's now-stale state (spec.md §3, §4.6).
	automaton.OnTriple = func(t fsa.Triple) {
		state.Replay = workspace.Replay{
			Kind:         workspace.ReplayTriple,
			TripleOpName: t.OpName,
			TripleMotion: int(t.Motion),
			TripleCount:  t.Count,
			TripleFn: func(motion int, count int) {
				t.Op(fsa.MotionType(motion), count)
			},
		}
	}
	// A direct binding other than the replay command itself becomes the
	// live replay record (spec.md §4.4: "to prevent self-reference loops").
	automaton.OnDirect = func(b fsa.DirectBinding) {
		state.Replay = workspace.Replay{
			Kind:        workspace.ReplayCommand,
			CommandName: b.Name,
			CommandFn: func(interface{}) error {
				b.Invoke()
				return nil
			},
		}
	}
}

// grabBoundKeys reverse-resolves every bound keysym (and the count-chord
// digits) to its keycode and grabs it on the root, per spec.md §6: "grab
// each configured binding ... both without and with the caps-lock
// modifier", which Conn.GrabKey already does per call.
func grabBoundKeys(conn *x11.Conn, automaton *fsa.Automaton, log *logrus.Logger) error {
	seen := make(map[xproto.Keycode]map[uint16]bool)
	grab := func(sym xproto.Keysym, mods uint16) {
		kc, ok := conn.Keycode(sym)
		if !ok {
			return
		}
		if seen[kc] == nil {
			seen[kc] = make(map[uint16]bool)
		}
		if seen[kc][mods] {
			return
		}
		seen[kc][mods] = true
		if err := conn.GrabKey(mods, kc); err != nil {
			log.WithError(err).Warn("howm: grab key failed")
		}
	}

	for _, row := range automaton.OperatorRows() {
		grab(row.Sym, row.Mods)
	}
	for _, row := range automaton.MotionRows() {
		grab(row.Sym, row.Mods)
	}
	for _, b := range automaton.DirectBindings() {
		grab(b.Sym, b.Mods)
	}
	for _, d := range keysym.Digits {
		grab(d, countMod)
	}
	return nil
}

// registerCommands wires the control-socket command table (spec.md §4.5).
func registerCommands(m *manager.Manager) {
	m.RegisterCommand(command.Command{Name: "kill", ArgType: command.ArgIgnored, IntFn: m.Kill})
	m.RegisterCommand(command.Command{Name: "switch-workspace", ArgType: command.ArgInt, IntFn: m.SwitchWorkspace})
	m.RegisterCommand(command.Command{Name: "focus-last-ws", ArgType: command.ArgIgnored, IntFn: m.FocusLastWorkspace})
	m.RegisterCommand(command.Command{Name: "move-client", ArgType: command.ArgInt, IntFn: m.MoveClient})
	m.RegisterCommand(command.Command{Name: "move-client-follow", ArgType: command.ArgInt, IntFn: m.MoveClientFollow})
	m.RegisterCommand(command.Command{Name: "set-layout", ArgType: command.ArgInt, IntFn: m.SetLayout})
	m.RegisterCommand(command.Command{Name: "set-master-ratio", ArgType: command.ArgInt, IntFn: m.SetMasterRatioTenths})
	m.RegisterCommand(command.Command{Name: "cut-clients", ArgType: command.ArgInt, IntFn: m.CutClients})
	m.RegisterCommand(command.Command{Name: "cut-workspaces", ArgType: command.ArgInt, IntFn: m.CutWorkspaces})
	m.RegisterCommand(command.Command{Name: "kill-operator", ArgType: command.ArgOperator, OperatorFn: m.KillOperatorCommand})
	m.RegisterCommand(command.Command{Name: "cut-operator", ArgType: command.ArgOperator, OperatorFn: m.CutOperatorCommand})
	m.RegisterCommand(command.Command{Name: "paste", ArgType: command.ArgIgnored, IntFn: m.Paste})
	m.RegisterCommand(command.Command{Name: "toggle-fullscreen", ArgType: command.ArgIgnored, IntFn: m.ToggleFullscreen})
	m.RegisterCommand(command.Command{Name: "scratchpad-toggle", ArgType: command.ArgIgnored, IntFn: m.ScratchpadToggle})
	m.RegisterCommand(command.Command{Name: "spawn", ArgType: command.ArgCommand, StringsFn: m.Spawn})
	m.RegisterCommand(command.Command{Name: "query", ArgType: command.ArgCommand, StringsFn: m.Query})
}

// adoptExistingWindows manages any already-mapped top-level window found at
// startup (spec.md's manager lifecycle; dwm/marwind-lineage "scan").
func adoptExistingWindows(conn *x11.Conn, m *manager.Manager, log *logrus.Logger) {
	children, err := conn.QueryChildren()
	if err != nil {
		log.WithError(err).Warn("howm: query existing windows")
		return
	}
	for _, win := range children {
		m.Adopt(win)
	}
}
