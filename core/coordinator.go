package core

import "fmt"

// SpawnGUIMode selects whether a spawn_gui launcher terminal stays visible
// (background) or is hidden until the GUI exits (foreground).
type SpawnGUIMode uint8

const (
	SpawnGUIBackground SpawnGUIMode = iota
	SpawnGUIForeground
)

// pendingGUISpawn correlates an in-flight spawn_gui call with the external
// toplevel that will announce itself asynchronously once the child process
// maps a window. link's GUICellID is zero until that announcement arrives —
// the output terminal itself may already have been inserted into the stack
// (on its first byte of output) well before then.
type pendingGUISpawn struct {
	link        *OutputTerminalLink
	mode        SpawnGUIMode
	launcherID  CellID
	hasLauncher bool
}

// Coordinator owns the stack Model and orchestrates the layout, scroll,
// hit-testing, sizing, resize, and output-terminal components against it. It
// is the sole entry point external collaborators call into.
type Coordinator struct {
	model    *Model
	scroll   *ScrollController
	terminal TerminalDriver
	surface  SurfaceDriver
	clock    Clock

	viewportHeight float64
	viewportWidth  int32

	autoScrollEnabled     bool
	clientDecoratedAppIDs map[string]bool

	pendingGUISpawns   map[string]*pendingGUISpawn    // keyed by the driver-assigned pid
	linksByTerminalID  map[CellID]*OutputTerminalLink // keyed by the output terminal's own cell ID
	linksByGUIID       map[CellID]*OutputTerminalLink // keyed by the GUI cell ID, once known

	// foregroundSessions maps an output-terminal cell's identity to the
	// launcher cell it was spawned from, so the launcher can be restored to
	// the stack if the GUI's toplevel never announces (process died before
	// mapping a window) or once the toplevel closes normally.
	foregroundSessions map[CellID]CellID
	hiddenLaunchers    map[CellID]Cell
}

// NewCoordinator wires a fresh, empty stack to the given collaborators.
func NewCoordinator(terminal TerminalDriver, surface SurfaceDriver, clock Clock) *Coordinator {
	model := NewModel()
	return &Coordinator{
		model:                 model,
		scroll:                NewScrollController(model),
		terminal:              terminal,
		surface:               surface,
		clock:                 clock,
		autoScrollEnabled:     true,
		clientDecoratedAppIDs: make(map[string]bool),
		pendingGUISpawns:      make(map[string]*pendingGUISpawn),
		linksByTerminalID:     make(map[CellID]*OutputTerminalLink),
		linksByGUIID:          make(map[CellID]*OutputTerminalLink),
		foregroundSessions:    make(map[CellID]CellID),
		hiddenLaunchers:       make(map[CellID]Cell),
	}
}

// Model exposes the underlying stack for read access by the renderer.
func (c *Coordinator) Model() *Model { return c.model }

// SetViewportHeight records the current viewport height, consulted by the
// scroll controller and the terminal row-cap logic.
func (c *Coordinator) SetViewportHeight(h float64) { c.viewportHeight = h }

// SetViewportWidth records the single column's current width in pixels,
// the width every external cell's surface is expected to commit at.
func (c *Coordinator) SetViewportWidth(w int32) { c.viewportWidth = w }

// SetAutoScrollEnabled toggles whether content growth keeps a pinned-bottom
// view scrolled to the bottom. Defaults to enabled.
func (c *Coordinator) SetAutoScrollEnabled(enabled bool) { c.autoScrollEnabled = enabled }

// SetClientDecoratedAppIDs records which app IDs get client-side decoration
// on their external cells; any app ID not in this set gets server-side
// decoration. appID resolution happens in ExternalToplevelAnnounced.
func (c *Coordinator) SetClientDecoratedAppIDs(ids []string) {
	c.clientDecoratedAppIDs = make(map[string]bool, len(ids))
	for _, id := range ids {
		c.clientDecoratedAppIDs[id] = true
	}
}

func (c *Coordinator) resolveDecoration(appID string) DecorationMode {
	if c.clientDecoratedAppIDs[appID] {
		return ClientDecorated
	}
	return ServerDecorated
}

// SpawnTerminal creates a terminal cell, launches its process via the
// terminal collaborator, and inserts it below the currently focused cell.
func (c *Coordinator) SpawnTerminal(env []string, cwd, cmd string) (CellID, error) {
	handle, err := c.terminal.Spawn(env, cwd, cmd)
	if err != nil {
		return CellID{}, err
	}
	maxRows := maxRowsForViewport(c.viewportHeight)
	cell := NewTerminalCell(NewCellID(), handle, 1, maxRows, true)
	idx := c.model.InsertAtFocus(cell)
	c.model.SetFocus(cell.ID)
	c.scroll.ScrollToShowBottom(idx, c.viewportHeight)
	return cell.ID, nil
}

// SpawnBuiltin creates an inert builtin cell recording a shell builtin's
// already-completed execution.
func (c *Coordinator) SpawnBuiltin(prompt, cmd, output string, failed bool) CellID {
	cell := NewBuiltinCell(NewCellID(), prompt, cmd, output, failed)
	idx := c.model.InsertAtFocus(cell)
	c.scroll.ScrollToShowBottom(idx, c.viewportHeight)
	return cell.ID
}

// SpawnGUI creates a hidden output-capture terminal and launches the GUI
// child; its toplevel, when it appears, arrives via ExternalToplevelAnnounced
// carrying the returned pid for correlation. In foreground mode the
// currently focused cell (the "launcher") is hidden immediately — it is
// restored either when the GUI's toplevel closes or, if the child dies
// before ever mapping a window, once its output-terminal process exits
// (see ResolveAbortedForegroundSpawn).
func (c *Coordinator) SpawnGUI(env []string, cwd, cmd string, mode SpawnGUIMode) (pid string, err error) {
	outputHandle, err := c.terminal.Spawn(env, cwd, "")
	if err != nil {
		return "", err
	}
	outputTerm := NewTerminalCell(NewCellID(), outputHandle, 1, maxRowsForViewport(c.viewportHeight), false)

	pid, err = c.surface.SpawnGUI(env, cwd, cmd)
	if err != nil {
		c.terminal.Close(outputHandle)
		logDegraded("spawn_gui", err.Error())
		return "", fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, err)
	}

	link := NewOutputTerminalLink(CellID{}, outputTerm)
	c.linksByTerminalID[outputTerm.ID] = link

	spawn := &pendingGUISpawn{link: link, mode: mode}
	if mode == SpawnGUIForeground {
		if launcherID, ok := c.model.FocusedID(); ok {
			spawn.launcherID = launcherID
			spawn.hasLauncher = true
			c.foregroundSessions[outputTerm.ID] = launcherID
			c.hideLauncher(launcherID)
		}
	}
	c.pendingGUISpawns[pid] = spawn
	return pid, nil
}

func (c *Coordinator) hideLauncher(id CellID) {
	if cell, removed := c.model.Remove(id); removed {
		c.hiddenLaunchers[id] = cell
	}
}

func (c *Coordinator) restoreLauncher(id CellID) {
	cell, ok := c.hiddenLaunchers[id]
	if !ok {
		return
	}
	delete(c.hiddenLaunchers, id)
	c.model.Insert(cell, c.model.Len())
	c.model.SetFocus(id)
}

// ExternalToplevelAnnounced inserts a newly mapped external cell below the
// currently focused cell. pid correlates this toplevel to a pending
// SpawnGUI call, or is "" for a toplevel that arrived unsolicited (no
// matching spawn_gui, e.g. a window opened by a process spawned outside the
// coordinator's launcher). appID resolves the cell's decoration mode against
// the configured client-decorated set.
func (c *Coordinator) ExternalToplevelAnnounced(pid, surfaceHandle, appID string, initialHeight float64) CellID {
	cell := NewExternalCell(NewCellID(), surfaceHandle, c.resolveDecoration(appID))
	if initialHeight > 0 {
		cell.Height = initialHeight
	}
	idx := c.model.InsertAtFocus(cell)
	c.model.SetFocus(cell.ID)
	c.scroll.ScrollToShowBottom(idx, c.viewportHeight)

	spawn, ok := c.pendingGUISpawns[pid]
	if !ok {
		return cell.ID
	}
	delete(c.pendingGUISpawns, pid)

	spawn.link.GUICellID = cell.ID
	c.linksByGUIID[cell.ID] = spawn.link
	if spawn.hasLauncher {
		c.foregroundSessions[spawn.link.TerminalCell.ID] = spawn.launcherID
	}
	return cell.ID
}

// OnTerminalLine handles one new content line produced by a terminal cell
// (visible terminal or hidden/visible output-capture terminal), driving the
// sizing state machine and, for output-capture terminals, the
// hidden-until-first-output insertion.
func (c *Coordinator) OnTerminalLine(id CellID) {
	if link, ok := c.linksByTerminalID[id]; ok && !link.HasOutput() {
		if link.OnPTYOutput() {
			c.insertOutputTerminal(link)
		}
		return
	}

	c.model.MutateCell(id, func(cell *Cell) {
		if cell.Kind != CellTerminal || cell.Terminal == nil {
			return
		}
		action := cell.Terminal.Sizing.OnNewLine()
		c.applySizingAction(id, action)
	})
}

// insertOutputTerminal places a linked output-capture terminal into the
// stack on its first byte of output. If the GUI's toplevel has already
// announced, it goes immediately below the GUI cell (InsertOutputTerminal's
// normal anchor); otherwise the toplevel hasn't appeared yet and it is
// anchored below the currently focused cell instead, same as a plain
// spawn_terminal.
func (c *Coordinator) insertOutputTerminal(link *OutputTerminalLink) {
	if link.GUICellID != (CellID{}) {
		if _, ok := InsertOutputTerminal(c.model, link); ok {
			return
		}
	}
	c.model.InsertAtFocus(link.TerminalCell)
}

func (c *Coordinator) applySizingAction(id CellID, action SizingAction) {
	switch action.Kind {
	case ActionRequestGrowth:
		c.model.MutateCell(id, func(cell *Cell) {
			cell.Terminal.Sizing.RequestGrowth(action.TargetRows)
		})
		c.completeResize(id, action.TargetRows)
	case ActionApplyResize:
		c.terminal.Resize(c.handleOf(id), action.Rows)
	case ActionRestoreScrollback:
		// No-op: TerminalDriver has no call for replaying lines, so the
		// RestoreLine count is not passed on. OnResizeComplete likewise
		// discards the restore action the sizing machine returns.
	}
}

// completeResize asks the terminal collaborator to resize the PTY to rows
// and, since a local PTY resize completes before pty.Setsize returns, drives
// the sizing state machine's configure/ack round trip through to Stable in
// the same call rather than leaving it waiting on a completion callback the
// collaborator never sends. OnConfigure issues the one real resize call;
// OnResizeComplete is the synchronous "ack" for it.
func (c *Coordinator) completeResize(id CellID, rows uint16) {
	c.OnConfigure(id, rows)
	c.OnResizeComplete(id)
}

func (c *Coordinator) handleOf(id CellID) string {
	cell, ok := c.model.CellByID(id)
	if !ok || cell.Terminal == nil {
		return ""
	}
	return cell.Terminal.TerminalHandle
}

// OnConfigure handles an external resize (the external resize protocol's
// configure/ack path applying to a terminal cell) or an unsolicited window
// resize from the windowing collaborator, converting newRows into a
// TerminalSizing transition.
func (c *Coordinator) OnConfigure(id CellID, newRows uint16) {
	c.model.MutateCell(id, func(cell *Cell) {
		if cell.Kind != CellTerminal || cell.Terminal == nil {
			return
		}
		action := cell.Terminal.Sizing.OnConfigure(newRows)
		if action.Kind == ActionApplyResize {
			c.terminal.Resize(cell.Terminal.TerminalHandle, action.Rows)
		}
	})
}

// OnAltScreenEnter handles the terminal collaborator signaling that a
// terminal cell entered alternate-screen mode: the PTY is synchronously
// resized to the viewport-derived maximum and the sizing state machine is
// frozen there, ignoring content growth, until OnAltScreenExit.
func (c *Coordinator) OnAltScreenEnter(id CellID) {
	c.model.MutateCell(id, func(cell *Cell) {
		if cell.Kind != CellTerminal || cell.Terminal == nil {
			return
		}
		action := cell.Terminal.Sizing.Freeze()
		if action.Kind == ActionApplyResize {
			c.terminal.Resize(cell.Terminal.TerminalHandle, action.Rows)
		}
	})
}

// OnAltScreenExit handles alternate-screen exit, resuming content-aware
// sizing from wherever the configured row count was left frozen.
func (c *Coordinator) OnAltScreenExit(id CellID) {
	c.model.MutateCell(id, func(cell *Cell) {
		if cell.Kind != CellTerminal || cell.Terminal == nil {
			return
		}
		cell.Terminal.Sizing.Unfreeze()
	})
}

// OnResizeComplete handles the terminal collaborator acknowledging a
// completed PTY resize.
func (c *Coordinator) OnResizeComplete(id CellID) {
	c.model.MutateCell(id, func(cell *Cell) {
		if cell.Kind != CellTerminal || cell.Terminal == nil {
			return
		}
		cell.Terminal.Sizing.OnResizeComplete()
	})
}

// RequestExternalResize drives a drag-resize of an external cell, sending a
// configure through the surface collaborator when RequestResize decides to.
// If the cell's bottom edge was visible before the request and the request
// grows the cell, the view follows it down per the sticky-bottom policy.
func (c *Coordinator) RequestExternalResize(id CellID, visualHeight float64) {
	idx, found := c.model.IndexOf(id)
	wasBottomVisible := found && c.scroll.IsBottomVisible(idx, c.viewportHeight)
	grew := false
	c.model.MutateCell(id, func(cell *Cell) {
		if cell.Kind != CellExternal {
			return
		}
		outcome, serial, requested := RequestResize(cell, visualHeight, c.clock.NowMillis())
		if outcome == ResizeSent {
			grew = requested > dimensionHeight(cell.External, cell.Height)
			c.surface.SendConfigure(cell.External.SurfaceHandle, c.viewportWidth, requested, serial)
		}
	})
	if wasBottomVisible && grew && c.autoScrollEnabled {
		c.scroll.OnContentGrew(c.viewportHeight)
	}
}

// OnExternalCommit handles a commit from an external client acknowledging
// serial with a committed width and height (height in the cell's own
// comparison dimension). A client that committed at the wrong width, having
// ignored or raced the compositor's last configure, gets an immediate
// corrective configure forcing the column width back.
func (c *Coordinator) OnExternalCommit(id CellID, serial uint64, committedWidth int32, committedHeight float64) AckOutcome {
	var outcome AckOutcome
	var wrongWidth bool
	found := c.model.MutateCell(id, func(cell *Cell) {
		outcome = OnCommitAck(cell, serial, committedHeight)
		if cell.Kind == CellExternal {
			wrongWidth = cell.External.EnforceWidth(committedWidth, c.viewportWidth)
		}
	})
	if !found {
		logDroppedEvent(fmt.Sprintf("%s: commit for unknown cell %x", ErrCellNotFound, id))
		return AckStale
	}
	if outcome == AckStale {
		logDroppedEvent(ErrStaleEvent.Error())
	}
	if wrongWidth {
		if cell, ok := c.model.CellByID(id); ok {
			fixSerial := allocateResizeSerial()
			c.surface.SendConfigure(cell.External.SurfaceHandle, c.viewportWidth, dimensionHeight(cell.External, cell.Height), fixSerial)
		}
	}
	return outcome
}

// ExternalToplevelClosed handles an external GUI window closing: resolves
// any linked output terminal (promote or discard) and, for a foreground
// spawn, restores the launcher terminal.
func (c *Coordinator) ExternalToplevelClosed(id CellID) {
	link, linked := c.linksByGUIID[id]
	if !linked {
		c.model.Remove(id)
		return
	}
	delete(c.linksByGUIID, id)
	delete(c.linksByTerminalID, link.TerminalCell.ID)
	ResolveGUIClosed(c.model, link)

	if launcherID, ok := c.foregroundSessions[link.TerminalCell.ID]; ok {
		delete(c.foregroundSessions, link.TerminalCell.ID)
		c.restoreLauncher(launcherID)
	}
}

// ResolveAbortedForegroundSpawn handles an output-capture terminal's process
// exiting before its GUI ever announced a toplevel (the child crashed, or
// the command was not actually a GUI app). It restores the launcher exactly
// as a normal toplevel-close would, without a GUI cell to clean up.
func (c *Coordinator) ResolveAbortedForegroundSpawn(outputTerminalID CellID) {
	launcherID, ok := c.foregroundSessions[outputTerminalID]
	if !ok {
		return
	}
	delete(c.foregroundSessions, outputTerminalID)
	delete(c.linksByTerminalID, outputTerminalID)
	c.restoreLauncher(launcherID)
}

// FrameRendered writes back the renderer's measured heights for this frame.
// A cell whose measured height grew past its previous cached value follows
// the sticky-bottom auto-scroll policy: if the view was already pinned to
// the bottom, it advances to keep the newly grown content visible.
func (c *Coordinator) FrameRendered(measured map[CellID]float64) {
	grew := false
	for id, h := range measured {
		if cell, ok := c.model.CellByID(id); ok && h > cell.Height {
			grew = true
		}
		c.model.UpdateCachedHeight(id, h)
	}
	if grew && c.autoScrollEnabled {
		c.scroll.OnContentGrew(c.viewportHeight)
	}
}

// HitTest runs hit testing against the current frame's layout.
func (c *Coordinator) HitTest(point ScreenPoint) (HitResult, bool) {
	return HitTestCells(c.model.Cells(), c.viewportHeight, c.model.ScrollOffset(), point)
}

// Layout computes the current frame's layout from the model's cached
// heights.
func (c *Coordinator) Layout() LayoutResult {
	return Layout(c.model.Heights(), c.viewportHeight, c.model.ScrollOffset())
}

// ResizeFocusedTerminal drives the focused terminal cell's sizing state
// machine to either its viewport-derived maximum (full) or the number of
// rows its content currently occupies (content), mirroring the two modes a
// shell-integration wrapper's explicit resize request can ask for.
func (c *Coordinator) ResizeFocusedTerminal(full bool) bool {
	id, ok := c.model.FocusedID()
	if !ok {
		return false
	}
	var target uint16
	applicable := false
	c.model.MutateCell(id, func(cell *Cell) {
		if cell.Kind != CellTerminal || cell.Terminal == nil {
			return
		}
		if full {
			target = cell.Terminal.Sizing.MaxRows()
		} else {
			target = uint16(cell.Terminal.Sizing.ContentRows())
			if target < 1 {
				target = 1
			}
		}
		applicable = true
	})
	if !applicable {
		return false
	}
	c.completeResize(id, target)
	return true
}

// maxRowsForViewport derives a terminal's growth cap from the viewport
// height, per the sizing state machine's maxRows contract.
func maxRowsForViewport(viewportHeight float64) uint16 {
	rows := viewportHeight / MinRowHeight
	if rows < 1 {
		return 1
	}
	return uint16(rows)
}
