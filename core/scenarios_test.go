package core

import "testing"

// fakeTerminalDriver and fakeSurfaceDriver let the scenario tests drive the
// Coordinator without any real PTY or windowing collaborator.
type fakeTerminalDriver struct {
	nextHandle int
	resized    map[string]uint16
	closed     map[string]bool
}

func newFakeTerminalDriver() *fakeTerminalDriver {
	return &fakeTerminalDriver{resized: map[string]uint16{}, closed: map[string]bool{}}
}

func (f *fakeTerminalDriver) Spawn(env []string, cwd, cmd string) (string, error) {
	f.nextHandle++
	return "term-handle", nil
}

func (f *fakeTerminalDriver) Resize(handle string, rows uint16) { f.resized[handle] = rows }
func (f *fakeTerminalDriver) Close(handle string)                { f.closed[handle] = true }

type fakeSurfaceDriver struct {
	nextPid       int
	configures    []configureCall
	closedHandles map[string]bool
}

type configureCall struct {
	surfaceHandle string
	width         int32
	height        float64
	serial        uint64
}

func newFakeSurfaceDriver() *fakeSurfaceDriver {
	return &fakeSurfaceDriver{closedHandles: map[string]bool{}}
}

func (f *fakeSurfaceDriver) SpawnGUI(env []string, cwd, cmd string) (string, error) {
	f.nextPid++
	return "pid-1", nil
}

func (f *fakeSurfaceDriver) SendConfigure(surfaceHandle string, width int32, height float64, serial uint64) {
	f.configures = append(f.configures, configureCall{surfaceHandle, width, height, serial})
}

func (f *fakeSurfaceDriver) Close(surfaceHandle string) { f.closedHandles[surfaceHandle] = true }

type fakeClock struct{ now float64 }

func (f *fakeClock) NowMillis() float64 { return f.now }

func newTestCoordinator() (*Coordinator, *fakeTerminalDriver, *fakeSurfaceDriver, *fakeClock) {
	td := newFakeTerminalDriver()
	sd := newFakeSurfaceDriver()
	clk := &fakeClock{}
	return NewCoordinator(td, sd, clk), td, sd, clk
}

func TestScenario1SpawnTerminalOneLine(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetViewportHeight(720)

	id, err := c.SpawnTerminal(nil, "/home", "bash")
	if err != nil {
		t.Fatal(err)
	}
	c.OnTerminalLine(id)

	if c.Model().Len() != 1 {
		t.Fatalf("want stack size 1, got %d", c.Model().Len())
	}
	if c.Model().ScrollOffset() != 0 {
		t.Fatalf("want no scroll, got %v", c.Model().ScrollOffset())
	}
}

func TestScenario2TerminalGrowthCapsAtViewport(t *testing.T) {
	c, td, _, _ := newTestCoordinator()
	c.SetViewportHeight(720)

	id, _ := c.SpawnTerminal(nil, "/home", "bash")
	cell, _ := c.Model().CellByID(id)
	initialRows := cell.Terminal.Sizing.ConfiguredRows()

	grew := false
	for i := 0; i < 1000; i++ {
		c.OnTerminalLine(id)
		// The growth handshake now completes synchronously within
		// OnTerminalLine itself (no real collaborator ever calls back into
		// OnConfigure/OnResizeComplete on its own), so the state machine
		// must already be back at Stable by the time this call returns.
		cell, _ := c.Model().CellByID(id)
		if cell.Terminal.Sizing.Phase() != SizingStable {
			t.Fatalf("expected the growth handshake to complete synchronously, got phase %v", cell.Terminal.Sizing.Phase())
		}
		if cell.Terminal.Sizing.ConfiguredRows() > initialRows {
			grew = true
		}
	}
	if !grew {
		t.Fatal("expected configured rows to grow over 1000 lines")
	}
	cell, _ = c.Model().CellByID(id)
	maxRows := maxRowsForViewport(720)
	if cell.Terminal.Sizing.ConfiguredRows() != maxRows {
		t.Fatalf("expected growth to reach the cap %d after 1000 lines, got %d", maxRows, cell.Terminal.Sizing.ConfiguredRows())
	}
	if td.resized["term-handle"] == 0 {
		t.Fatal("expected the terminal driver to have been asked to resize")
	}

	// Growth beyond the viewport overflows the content; since the view
	// started pinned to the bottom, each frame's measured growth should
	// carry the scroll offset along with it.
	before := c.Model().ScrollOffset()
	c.FrameRendered(map[CellID]float64{id: 1200})
	after := c.Model().ScrollOffset()
	if after <= before {
		t.Fatalf("expected scroll offset to grow past %v, got %v", before, after)
	}
	if after != 1200-720 {
		t.Fatalf("expected scroll pinned to new max %v, got %v", 1200-720.0, after)
	}
}

func TestScenario2bAltScreenFreezesAndUnfreezesSizing(t *testing.T) {
	c, td, _, _ := newTestCoordinator()
	c.SetViewportHeight(720)

	id, _ := c.SpawnTerminal(nil, "/home", "bash")
	maxRows := maxRowsForViewport(720)

	c.OnAltScreenEnter(id)
	cell, _ := c.Model().CellByID(id)
	if cell.Terminal.Sizing.ConfiguredRows() != maxRows {
		t.Fatalf("want frozen at max rows %d, got %d", maxRows, cell.Terminal.Sizing.ConfiguredRows())
	}
	if td.resized["term-handle"] != maxRows {
		t.Fatalf("want synchronous resize to %d, got %d", maxRows, td.resized["term-handle"])
	}

	// Content growth while frozen must not request further growth.
	for i := 0; i < 50; i++ {
		c.OnTerminalLine(id)
	}
	cell, _ = c.Model().CellByID(id)
	if cell.Terminal.Sizing.Phase() != SizingStable || cell.Terminal.Sizing.ConfiguredRows() != maxRows {
		t.Fatalf("expected sizing to stay frozen at max rows, got phase=%v rows=%d", cell.Terminal.Sizing.Phase(), cell.Terminal.Sizing.ConfiguredRows())
	}

	// Unfreezing lifts the gate: frozen, contentRows never moved past
	// maxRows (OnNewLine returns before incrementing it); unfrozen, the very
	// next line advances it again, even though configuredRows was already
	// at the cap and so has nowhere further to go.
	contentBeforeUnfreeze := cell.Terminal.Sizing.ContentRows()
	c.OnAltScreenExit(id)
	c.OnTerminalLine(id)
	cell, _ = c.Model().CellByID(id)
	if cell.Terminal.Sizing.ContentRows() <= contentBeforeUnfreeze {
		t.Fatalf("expected content rows to advance past %d once unfrozen, got %d", contentBeforeUnfreeze, cell.Terminal.Sizing.ContentRows())
	}
	// configuredRows is already at the cap, so this line requests no further
	// growth and the machine stays Stable.
	if cell.Terminal.Sizing.Phase() != SizingStable {
		t.Fatalf("expected sizing to stay Stable at the cap, got phase %v", cell.Terminal.Sizing.Phase())
	}
}

func TestScenario3ScrollSettling(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetViewportHeight(720)

	for i := 0; i < 2; i++ {
		ext := NewExternalCell(NewCellID(), "ext", ClientDecorated)
		ext.Height = 400
		c.Model().Insert(ext, c.Model().Len())
	}
	term := NewTerminalCell(NewCellID(), "h", 24, 1000, true)
	term.Height = 400
	c.Model().Insert(term, c.Model().Len())

	ctl := NewScrollController(c.Model())
	targets := []struct{ target, want float64 }{
		{0, 0}, {100, 100}, {500, 480}, {2000, 480},
	}
	for _, tc := range targets {
		c.Model().SetScrollOffset(0)
		ctl.ScrollBy(tc.target, 720)
		if c.Model().ScrollOffset() != tc.want {
			t.Fatalf("target %v: got %v, want %v", tc.target, c.Model().ScrollOffset(), tc.want)
		}
	}
}

func TestScenario4HitExternalTitleBar(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetViewportHeight(720)
	for i := 0; i < 3; i++ {
		ext := NewExternalCell(NewCellID(), "ext", ServerDecorated)
		ext.Height = 400
		c.Model().Insert(ext, c.Model().Len())
	}
	result, ok := c.HitTest(ScreenPoint{X: 10, Y: ScreenY(10)})
	if !ok {
		t.Fatal("expected a hit")
	}
	if result.Index != 0 || result.Region != RegionTitleBar {
		t.Fatalf("got %+v", result)
	}
}

func TestScenario5DragResizeHandle(t *testing.T) {
	c, _, sd, clk := newTestCoordinator()
	c.SetViewportHeight(720)

	ext := NewExternalCell(NewCellID(), "ext", ServerDecorated)
	ext.Height = 200
	c.Model().Insert(ext, 0)

	c.RequestExternalResize(ext.ID, 250)
	if len(sd.configures) != 1 {
		t.Fatalf("want exactly one configure sent, got %d", len(sd.configures))
	}
	got := sd.configures[0]
	if got.height != 250-TitleBarHeight {
		t.Fatalf("got content height %v, want %v", got.height, 250-TitleBarHeight)
	}

	clk.now = 10
	c.RequestExternalResize(ext.ID, 252)
	if len(sd.configures) != 1 {
		t.Fatal("micro-drag within 10ms should have been throttle-suppressed")
	}

	outcome := c.OnExternalCommit(ext.ID, got.serial, 0, got.height)
	if outcome != AckApplied {
		t.Fatalf("got %v, want AckApplied", outcome)
	}
	cell, _ := c.Model().CellByID(ext.ID)
	if cell.Height != 250 {
		t.Fatalf("got cached height %v, want 250", cell.Height)
	}
}

func TestScenario5bWrongWidthCommitGetsCorrectiveConfigure(t *testing.T) {
	c, _, sd, _ := newTestCoordinator()
	c.SetViewportHeight(720)
	c.SetViewportWidth(800)

	ext := NewExternalCell(NewCellID(), "ext", ServerDecorated)
	ext.Height = 200
	c.Model().Insert(ext, 0)

	outcome := c.OnExternalCommit(ext.ID, 0, 640, 200-TitleBarHeight)
	if outcome != AckStale {
		t.Fatalf("got %v, want AckStale (no pending resize to correlate)", outcome)
	}
	if len(sd.configures) != 1 {
		t.Fatalf("want exactly one corrective configure, got %d", len(sd.configures))
	}
	got := sd.configures[0]
	if got.width != 800 {
		t.Fatalf("got corrective width %d, want 800", got.width)
	}
}

func TestScenario5cMatchingWidthCommitSendsNoConfigure(t *testing.T) {
	c, _, sd, _ := newTestCoordinator()
	c.SetViewportHeight(720)
	c.SetViewportWidth(800)

	ext := NewExternalCell(NewCellID(), "ext", ServerDecorated)
	ext.Height = 200
	c.Model().Insert(ext, 0)

	c.OnExternalCommit(ext.ID, 0, 800, 200-TitleBarHeight)
	if len(sd.configures) != 0 {
		t.Fatalf("want no configure sent when width already matches, got %d", len(sd.configures))
	}
}

func TestScenario6GUIWithNoOutputLeavesNoTrace(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetViewportHeight(720)

	before := NewBuiltinCell(NewCellID(), "$ ", "x", "", false)
	c.Model().Insert(before, 0)
	priorSize := c.Model().Len()

	pid, err := c.SpawnGUI(nil, "/home", "gui-app", SpawnGUIBackground)
	if err != nil {
		t.Fatal(err)
	}
	c.SetClientDecoratedAppIDs([]string{"gui-app"})
	guiID := c.ExternalToplevelAnnounced(pid, "surface-1", "gui-app", 0)

	// No output at all before the window closes.
	c.ExternalToplevelClosed(guiID)

	if c.Model().Len() != priorSize {
		t.Fatalf("want stack size back to %d, got %d", priorSize, c.Model().Len())
	}
	if _, ok := c.Model().IndexOf(guiID); ok {
		t.Fatal("GUI cell should be gone")
	}
}

func TestScenario7GUIWithOutputPromotesOnClose(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetViewportHeight(720)

	pid, err := c.SpawnGUI(nil, "/home", "gui-app", SpawnGUIBackground)
	if err != nil {
		t.Fatal(err)
	}
	c.SetClientDecoratedAppIDs([]string{"gui-app"})
	guiID := c.ExternalToplevelAnnounced(pid, "surface-1", "gui-app", 0)

	link := c.linksByGUIID[guiID]
	if link == nil {
		t.Fatal("expected a link to have been established on announcement")
	}
	// One line written to stderr before the window closes.
	c.OnTerminalLine(link.TerminalCell.ID)

	if c.Model().Len() != 2 {
		t.Fatalf("output terminal should have been inserted inline, got %d cells", c.Model().Len())
	}

	c.ExternalToplevelClosed(guiID)

	if c.Model().Len() != 1 {
		t.Fatalf("want 1 cell after promotion, got %d", c.Model().Len())
	}
	if _, ok := c.Model().IndexOf(guiID); ok {
		t.Fatal("GUI cell should be gone")
	}
	if _, ok := c.Model().IndexOf(link.TerminalCell.ID); !ok {
		t.Fatal("output terminal should remain, promoted into the GUI cell's slot")
	}
}

func TestForegroundGUIHidesAndRestoresLauncher(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetViewportHeight(720)

	launcherID, err := c.SpawnTerminal(nil, "/home", "bash")
	if err != nil {
		t.Fatal(err)
	}
	c.Model().SetFocus(launcherID)

	pid, err := c.SpawnGUI(nil, "/home", "gui-app", SpawnGUIForeground)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Model().IndexOf(launcherID); ok {
		t.Fatal("launcher should be hidden immediately for a foreground spawn")
	}

	c.SetClientDecoratedAppIDs([]string{"gui-app"})
	guiID := c.ExternalToplevelAnnounced(pid, "surface-1", "gui-app", 0)
	c.ExternalToplevelClosed(guiID)

	if _, ok := c.Model().IndexOf(launcherID); !ok {
		t.Fatal("launcher should be restored after the foreground GUI closes")
	}
	focused, ok := c.Model().FocusedID()
	if !ok || focused != launcherID {
		t.Fatal("launcher should regain focus after being restored")
	}
}

func TestClientDecoratedAppIDsResolveDecoration(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetViewportHeight(720)
	c.SetClientDecoratedAppIDs([]string{"org.gnome.Nautilus"})

	clientID := c.ExternalToplevelAnnounced("", "surface-1", "org.gnome.Nautilus", 0)
	cell, _ := c.Model().CellByID(clientID)
	if cell.External.Decoration != ClientDecorated {
		t.Fatalf("want ClientDecorated for a configured app ID, got %v", cell.External.Decoration)
	}

	serverID := c.ExternalToplevelAnnounced("", "surface-2", "some.other.app", 0)
	cell, _ = c.Model().CellByID(serverID)
	if cell.External.Decoration != ServerDecorated {
		t.Fatalf("want ServerDecorated for an app ID outside the configured set, got %v", cell.External.Decoration)
	}
}

func TestAutoScrollEnabledGatesContentGrowth(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetViewportHeight(720)
	c.SetAutoScrollEnabled(false)

	id, _ := c.SpawnTerminal(nil, "/home", "bash")
	c.Model().SetScrollOffset(0)

	before := c.Model().ScrollOffset()
	c.FrameRendered(map[CellID]float64{id: 1200})
	after := c.Model().ScrollOffset()
	if after != before {
		t.Fatalf("want scroll offset unchanged with auto-scroll disabled, got %v -> %v", before, after)
	}
}

func TestResizeFocusedTerminalFullAndContent(t *testing.T) {
	c, td, _, _ := newTestCoordinator()
	c.SetViewportHeight(160) // maxRows = 160/16 = 10

	id, _ := c.SpawnTerminal(nil, "/home", "bash")
	for i := 0; i < 3; i++ {
		c.OnTerminalLine(id)
	}

	if !c.ResizeFocusedTerminal(true) {
		t.Fatal("expected the focused terminal to accept a full resize")
	}
	if td.resized["term-handle"] != 10 {
		t.Fatalf("want resize to max rows 10, got %d", td.resized["term-handle"])
	}
	c.OnResizeComplete(id)

	if !c.ResizeFocusedTerminal(false) {
		t.Fatal("expected the focused terminal to accept a content resize")
	}
	cell, _ := c.Model().CellByID(id)
	if cell.Terminal.Sizing.TargetRows() != 3 {
		t.Fatalf("want content resize target 3, got %d", cell.Terminal.Sizing.TargetRows())
	}
}
