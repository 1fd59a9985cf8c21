package manager

import (
	"fmt"
	"os/exec"
	"syscall"

	"github.com/nuclearfall/howm/internal/client"
	"github.com/nuclearfall/howm/internal/command"
	"github.com/nuclearfall/howm/internal/fsa"
	"github.com/nuclearfall/howm/internal/layout"
	"github.com/nuclearfall/howm/internal/rules"
	"github.com/nuclearfall/howm/internal/workspace"
)

// The methods in this file are the command-table invokers cmd/howm wires up
// over the control socket (spec.md §4.5). Every handler recovers locally
// and logs rather than surfacing a status code of its own (spec.md §7:
// "errors ... are recovered locally and logged"); the wire status enum is
// reserved for framing/argument mistakes, which internal/command already
// catches before these run.

func (m *Manager) warn(action string, err error) {
	if err != nil && m.log != nil {
		m.log.WithError(err).Warn(action)
	}
}

// Kill closes and unlinks the current workspace's current client.
func (m *Manager) Kill(int) command.Status {
	cw := m.state.Current()
	m.warn("manager: kill failed", cw.Kill(m.x, m.log))
	m.warn("manager: redraw after kill failed", m.redraw())
	return command.StatusNone
}

// SwitchWorkspace activates workspace i (1-based).
func (m *Manager) SwitchWorkspace(i int) command.Status {
	m.warn("manager: switch workspace failed", m.state.Switch(i, m.x, m.sync))
	return command.StatusNone
}

// FocusLastWorkspace switches back to the workspace active before the
// current one.
func (m *Manager) FocusLastWorkspace(int) command.Status {
	m.warn("manager: focus-last-ws failed", m.state.FocusLastWorkspace(m.x, m.sync))
	return command.StatusNone
}

// MoveClient relocates the current client to workspace j without following.
func (m *Manager) MoveClient(j int) command.Status {
	return m.moveClient(j, false)
}

// MoveClientFollow relocates the current client to workspace j and switches
// to it.
func (m *Manager) MoveClientFollow(j int) command.Status {
	return m.moveClient(j, true)
}

func (m *Manager) moveClient(j int, follow bool) command.Status {
	cw := m.state.Current()
	c := cw.Current
	if c == nil {
		return command.StatusNone
	}
	m.warn("manager: move client failed", m.state.MoveClient(c, j, follow, m.x, m.sync))
	m.warn("manager: redraw after move failed", m.redraw())
	return command.StatusNone
}

// SetLayout applies one of the four layout kinds to the current workspace
// by ordinal (spec.md §4.3: zoom=0, grid=1, hstack=2, vstack=3).
func (m *Manager) SetLayout(kind int) command.Status {
	k := layout.Kind(kind)
	if k < layout.Zoom || k > layout.VStack {
		return command.StatusNone
	}
	m.state.Current().Layout = k
	m.warn("manager: redraw after layout change failed", m.redraw())
	return command.StatusNone
}

// SetMasterRatioTenths sets the current workspace's master ratio from a
// single decimal digit n representing n/10 (spec.md §4.5's int-only
// argument shape; SetMasterRatio already clamps to the workspace's
// invariant bounds).
func (m *Manager) SetMasterRatioTenths(n int) command.Status {
	cw := m.state.Current()
	cw.SetMasterRatio(float64(n) / 10.0)
	m.warn("manager: redraw after master-ratio change failed", m.redraw())
	return command.StatusNone
}

// CutClients detaches count clients starting at the current workspace's
// current client into the delete register (spec.md §4.7).
func (m *Manager) CutClients(count int) command.Status {
	err := m.state.Cut(workspace.CutClient, count, m.x)
	m.warn("manager: cut failed", err)
	m.warn("manager: redraw after cut failed", m.redraw())
	return command.StatusNone
}

// CutWorkspaces pushes count whole workspaces, starting at the current one,
// onto the delete register (spec.md §4.7).
func (m *Manager) CutWorkspaces(count int) command.Status {
	err := m.state.Cut(workspace.CutWorkspace, count, m.x)
	m.warn("manager: cut workspaces failed", err)
	m.warn("manager: redraw after cut failed", m.redraw())
	return command.StatusNone
}

// Paste splices the most recently cut sublist back in after the current
// client (spec.md §4.7).
func (m *Manager) Paste(int) command.Status {
	m.warn("manager: paste failed", m.state.Paste(m.x))
	m.warn("manager: redraw after paste failed", m.redraw())
	return command.StatusNone
}

// ToggleFullscreen flips the current client's fullscreen flag and syncs
// EWMH state.
func (m *Manager) ToggleFullscreen(int) command.Status {
	c := m.state.Current().Current
	if c == nil {
		return command.StatusNone
	}
	c.Fullscreen = !c.Fullscreen
	if m.sync != nil {
		m.warn("manager: sync fullscreen failed", m.sync.SyncFullscreen(c))
	}
	m.warn("manager: redraw after fullscreen toggle failed", m.redraw())
	return command.StatusNone
}

// ScratchpadToggle sends the current client to the single-slot scratchpad,
// or brings the scratchpad's occupant back onto the current workspace if
// the slot is already occupied (spec.md §4.8).
func (m *Manager) ScratchpadToggle(int) command.Status {
	if m.scratchpad.Occupied() {
		c, err := m.scratchpad.Take()
		if err != nil {
			m.warn("manager: scratchpad take failed", err)
			return command.StatusNone
		}
		c.Floating = true
		c.X, c.Y, c.W, c.H = rules.CenteredRect(m.screenW, m.screenH, m.cfg.ScratchpadWidthFrac, m.cfg.ScratchpadHeightFrac)
		ws := m.state.Current()
		ws.AppendNew(c)
		m.warn("manager: map scratchpad client failed", m.x.MapWindow(c.Window))
		m.warn("manager: redraw after scratchpad take failed", m.redraw())
		m.warn("manager: focus scratchpad client failed", m.focusAndSync(c))
		return command.StatusNone
	}

	cw := m.state.Current()
	c := cw.Current
	if c == nil {
		return command.StatusNone
	}
	m.state.UnlinkAny(c)
	m.warn("manager: unmap scratchpad client failed", m.x.UnmapWindow(c.Window))
	if err := m.scratchpad.Send(c); err != nil {
		m.warn("manager: scratchpad send failed", err)
		cw.AppendNew(c)
		m.warn("manager: remap refused scratchpad client failed", m.x.MapWindow(c.Window))
		return command.StatusNone
	}
	m.warn("manager: redraw after scratchpad send failed", m.redraw())
	return command.StatusNone
}

// Spawn launches argv[0] detached from the manager's own process group, the
// way a shell-less exec avoids leaving children tied to the manager's
// controlling terminal (spec.md §1 treats process spawning as an external
// collaborator).
func (m *Manager) Spawn(argv []string) command.Status {
	if len(argv) == 0 {
		return command.StatusNone
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		m.warn("manager: spawn failed", err)
	}
	return command.StatusNone
}

// Query prints a read-only introspection line to the log (spec.md §6's
// status emission, extended per SPEC_FULL.md §4.5 to an explicit query
// command rather than only an after-the-fact side effect).
func (m *Manager) Query(argv []string) command.Status {
	if len(argv) == 0 {
		return command.StatusNone
	}
	switch argv[0] {
	case "--workspaces":
		for i := 1; i <= m.state.N; i++ {
			m.logStatus(m.state.At(i).String())
		}
	case "--state":
		m.logStatus(m.StatusLine())
	}
	return command.StatusNone
}

func (m *Manager) logStatus(line string) {
	if m.log != nil {
		m.log.Info(line)
	} else {
		fmt.Println(line)
	}
}

// StatusLine renders spec.md §6's status format:
// "mode:layout:workspace:fsa-state:client-count".
func (m *Manager) StatusLine() string {
	cw := m.state.Current()
	return fmt.Sprintf("mode%d:%s:%d:%s:%d", m.mode, layoutName(cw.Layout), cw.ID, m.automaton.State(), cw.Count())
}

// KillOperator is an fsa.Operator binding the kill command into the input
// grammar (spec.md §8 scenario 4: "q 3 c" kills 3 clients). A workspace
// motion has no kill meaning and is ignored.
func (m *Manager) KillOperator(motion fsa.MotionType, count int) {
	if motion != fsa.MotionClient {
		return
	}
	cw := m.state.Current()
	for i := 0; i < count && cw.Current != nil; i++ {
		m.warn("manager: kill failed", cw.Kill(m.x, m.log))
	}
	m.warn("manager: redraw after kill failed", m.redraw())
}

// CutOperator is an fsa.Operator binding cut into the input grammar: a
// client motion cuts count clients starting at the current one, a
// workspace motion cuts count whole workspaces (spec.md §4.7).
func (m *Manager) CutOperator(motion fsa.MotionType, count int) {
	var err error
	if motion == fsa.MotionWorkspace {
		err = m.state.Cut(workspace.CutWorkspace, count, m.x)
	} else {
		err = m.state.Cut(workspace.CutClient, count, m.x)
	}
	m.warn("manager: cut failed", err)
	m.warn("manager: redraw after cut failed", m.redraw())
}

// KillOperatorCommand is the control-socket form of KillOperator (spec.md
// §4.5: operator commands relayed over the socket take a decimal count and
// a single 'w'/'c' motion char).
func (m *Manager) KillOperatorCommand(motion fsa.MotionType, count int) command.Status {
	m.KillOperator(motion, count)
	return command.StatusNone
}

// CutOperatorCommand is the control-socket form of CutOperator.
func (m *Manager) CutOperatorCommand(motion fsa.MotionType, count int) command.Status {
	m.CutOperator(motion, count)
	return command.StatusNone
}

// ReplayLast re-invokes whichever half of the replay record is live: the
// last completed operator triple, or the last direct command (spec.md §3:
// "exactly one of the two is live at any time").
func (m *Manager) ReplayLast(int) command.Status {
	switch m.state.Replay.Kind {
	case workspace.ReplayTriple:
		if fn := m.state.Replay.TripleFn; fn != nil {
			fn(m.state.Replay.TripleMotion, m.state.Replay.TripleCount)
		}
	case workspace.ReplayCommand:
		if fn := m.state.Replay.CommandFn; fn != nil {
			m.warn("manager: replay command failed", fn(m.state.Replay.CommandArg))
		}
	}
	return command.StatusNone
}

// FocusNext/FocusPrev cycle focus within the current workspace, wrapping,
// for direct key bindings.
func (m *Manager) FocusNext() command.Status { return m.cycleFocus(true) }
func (m *Manager) FocusPrev() command.Status { return m.cycleFocus(false) }

func (m *Manager) cycleFocus(forward bool) command.Status {
	cw := m.state.Current()
	if cw.List.Head == nil {
		return command.StatusNone
	}
	var next *client.Client
	if forward {
		next = cw.List.NextWithWrap(cw.Current)
	} else if pred := cw.List.Predecessor(cw.Current); pred != nil {
		next = pred
	} else {
		next = cw.List.Last()
	}
	cw.Focus(next)
	m.warn("manager: focus cycle failed", m.focusAndSync(next))
	return command.StatusNone
}

// CycleLayout advances the current workspace to the next layout kind,
// wrapping from vstack back to zoom.
func (m *Manager) CycleLayout() command.Status {
	cw := m.state.Current()
	cw.Layout = (cw.Layout + 1) % (layout.VStack + 1)
	m.warn("manager: redraw after layout cycle failed", m.redraw())
	return command.StatusNone
}

// AdjustMasterRatio nudges the current workspace's master ratio by delta.
func (m *Manager) AdjustMasterRatio(delta float64) command.Status {
	cw := m.state.Current()
	cw.SetMasterRatio(cw.MasterRatio + delta)
	m.warn("manager: redraw after ratio adjust failed", m.redraw())
	return command.StatusNone
}

func layoutName(k layout.Kind) string {
	switch k {
	case layout.Grid:
		return "grid"
	case layout.HStack:
		return "hstack"
	case layout.VStack:
		return "vstack"
	default:
		return "zoom"
	}
}
