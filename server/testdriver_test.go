package server

import "github.com/karlb/termstack/core"

// fakeTerminalDriver lets server-package tests exercise dispatch without
// spawning a real PTY/process, mirroring core's own scenario-test fakes.
type fakeTerminalDriver struct {
	next    int
	resized map[string]uint16
	closed  map[string]bool
}

func newFakeTerminalDriver() *fakeTerminalDriver {
	return &fakeTerminalDriver{resized: map[string]uint16{}, closed: map[string]bool{}}
}

func (f *fakeTerminalDriver) Spawn(env []string, cwd, cmd string) (string, error) {
	f.next++
	return "fake-pty", nil
}

func (f *fakeTerminalDriver) Resize(handle string, rows uint16) { f.resized[handle] = rows }
func (f *fakeTerminalDriver) Close(handle string)               { f.closed[handle] = true }

type fakeSurfaceDriver struct{}

func (fakeSurfaceDriver) SpawnGUI(env []string, cwd, cmd string) (string, error) { return "fake-pid", nil }
func (fakeSurfaceDriver) SendConfigure(surfaceHandle string, width int32, contentOrVisualHeight float64, serial uint64) {
}
func (fakeSurfaceDriver) Close(surfaceHandle string) {}

type fakeClock struct{ millis float64 }

func (c *fakeClock) NowMillis() float64 { return c.millis }

// newFakeSession builds a Session around fake collaborators, for tests that
// exercise dispatch logic without touching a real PTY.
func newFakeSession(id [16]byte) *Session {
	coordinator := core.NewCoordinator(newFakeTerminalDriver(), fakeSurfaceDriver{}, &fakeClock{})
	coordinator.SetViewportHeight(720)
	return newSessionWithCoordinator(id, nil, coordinator, nil)
}
