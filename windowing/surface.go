package windowing

import (
	"fmt"
	"log"
	"os/exec"
)

// LocalSurfaceDriver implements core.SurfaceDriver by launching the GUI
// command as a plain child process and logging the configure/close calls a
// real Wayland surface transport would forward to it. It never announces a
// toplevel on its own — that requires a protocol round trip with the child
// (the excluded Wayland transport) — so callers driving a real compositor
// must supply ExternalToplevelAnnounced from their own surface-management
// code, not from this stub.
type LocalSurfaceDriver struct{}

func (d *LocalSurfaceDriver) SpawnGUI(env []string, cwd, cmd string) (string, error) {
	c := exec.Command("sh", "-c", cmd)
	c.Dir = cwd
	c.Env = env
	if err := c.Start(); err != nil {
		return "", err
	}
	go c.Wait()
	return fmt.Sprintf("pid-%d", c.Process.Pid), nil
}

func (d *LocalSurfaceDriver) SendConfigure(surfaceHandle string, width int32, contentOrVisualHeight float64, serial uint64) {
	log.Printf("windowing: configure %s width=%d height=%v serial=%d (no surface transport wired)", surfaceHandle, width, contentOrVisualHeight, serial)
}

func (d *LocalSurfaceDriver) Close(surfaceHandle string) {
	log.Printf("windowing: close %s (no surface transport wired)", surfaceHandle)
}
