package core

// TerminalDriver abstracts the PTY/terminal-emulation collaborator. The
// stack engine never parses terminal output itself; it only asks the driver
// to spawn, resize, and tear down terminal processes, and learns about their
// line/alt-screen activity through the Coordinator's OnTerminalLine and
// OnAltScreenEnter/Exit calls, which the driver's event loop is expected to
// invoke.
type TerminalDriver interface {
	// Spawn starts a terminal process and returns an opaque handle the core
	// stores on the Terminal cell; it never inspects the handle's contents.
	Spawn(env []string, cwd, cmd string) (handle string, err error)
	// Resize asks the driver to change a terminal's PTY row count.
	Resize(handle string, rows uint16)
	// Close tears down the terminal process and its PTY.
	Close(handle string)
}

// SurfaceDriver abstracts the windowing/surface collaborator that owns
// external GUI toplevels. The core never touches Wayland objects directly;
// it sends configure requests and learns about commits and toplevel
// lifecycle through the Coordinator's ExternalToplevel* and OnExternalCommit
// entry points, which the driver's event loop is expected to invoke.
type SurfaceDriver interface {
	// SpawnGUI launches a GUI child process; its toplevel surface arrives
	// later, asynchronously, via ExternalToplevelAnnounced.
	SpawnGUI(env []string, cwd, cmd string) (pid string, err error)
	// SendConfigure asks the driver to request a new size from the client
	// identified by surfaceHandle, carrying the correlation serial. width is
	// the compositor's single-column width in pixels; 0 means unconstrained.
	SendConfigure(surfaceHandle string, width int32, contentOrVisualHeight float64, serial uint64)
	// Close asks the driver to close the toplevel.
	Close(surfaceHandle string)
}

// Clock supplies monotonic time readings in milliseconds, kept as a narrow
// collaborator interface so the core itself never reads the wall clock
// (needed by the resize throttle and nothing else).
type Clock interface {
	NowMillis() float64
}
