// Package ptycollab implements the stack engine's TerminalDriver collaborator
// interface against a real PTY. It owns process spawning and row/column
// resizing only; parsing the byte stream into a grid is the terminal
// emulation engine, which stays out of scope.
package ptycollab

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// LineFunc is called with each line a terminal handle produces, so the
// caller can feed core.Coordinator.OnTerminalLine.
type LineFunc func(handle string, line []byte)

// AltScreenFunc is called when a terminal handle's byte stream crosses into
// or out of alternate-screen mode, so the caller can feed
// core.Coordinator.OnAltScreenEnter/Exit. entering is true on the DECSET
// sequence that switches to the alternate buffer, false on the DECRST that
// restores the primary one.
type AltScreenFunc func(handle string, entering bool)

// altScreenSequences are the DECSET/DECRST pairs applications commonly use
// to switch to and restore from the alternate screen buffer (1049 saves and
// restores the cursor too; 47 and 1047 are older equivalents still seen in
// the wild). Detecting the raw escape bytes is enough here — interpreting
// the rest of the stream is the terminal emulation engine's job, which
// stays out of scope for this driver.
var altScreenSequences = []struct {
	enter, exit []byte
}{
	{[]byte("\x1b[?1049h"), []byte("\x1b[?1049l")},
	{[]byte("\x1b[?1047h"), []byte("\x1b[?1047l")},
	{[]byte("\x1b[?47h"), []byte("\x1b[?47l")},
}

// Driver implements core.TerminalDriver by shelling out through creack/pty.
type Driver struct {
	onLine      LineFunc
	onAltScreen AltScreenFunc

	mu    sync.Mutex
	ptys  map[string]*os.File
	procs map[string]*exec.Cmd
	next  uint64
}

// New returns a Driver that calls onLine for every newline-terminated chunk
// read from a spawned PTY, and onAltScreen whenever that chunk crosses an
// alternate-screen boundary. onAltScreen may be nil.
func New(onLine LineFunc, onAltScreen AltScreenFunc) *Driver {
	return &Driver{
		onLine:      onLine,
		onAltScreen: onAltScreen,
		ptys:        make(map[string]*os.File),
		procs:       make(map[string]*exec.Cmd),
	}
}

func (d *Driver) Spawn(env []string, cwd, cmd string) (string, error) {
	shell := cmd
	if shell == "" {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
	}
	c := exec.Command("sh", "-c", shell)
	c.Dir = cwd
	c.Env = env

	f, err := pty.Start(c)
	if err != nil {
		return "", fmt.Errorf("ptycollab: start: %w", err)
	}

	d.mu.Lock()
	d.next++
	handle := fmt.Sprintf("pty-%d", d.next)
	d.ptys[handle] = f
	d.procs[handle] = c
	d.mu.Unlock()

	go d.readLoop(handle, f)
	return handle, nil
}

func (d *Driver) readLoop(handle string, f *os.File) {
	buf := make([]byte, 4096)
	var partial []byte
	for {
		n, err := f.Read(buf)
		if n > 0 {
			d.scanAltScreen(handle, buf[:n])
			partial = append(partial, buf[:n]...)
			for {
				idx := bytes.IndexByte(partial, '\n')
				if idx < 0 {
					break
				}
				line := bytes.TrimSuffix(partial[:idx], []byte("\r"))
				partial = partial[idx+1:]
				if d.onLine != nil {
					d.onLine(handle, line)
				}
			}
		}
		if err != nil {
			return
		}
	}
}

// scanAltScreen reports the last alt-screen transition found in chunk, if
// any, picking whichever sequence occurs latest regardless of which pair it
// belongs to. A chunk straddling a sequence boundary across two reads is
// missed; acceptable for a best-effort signal that only gates terminal
// sizing.
func (d *Driver) scanAltScreen(handle string, chunk []byte) {
	if d.onAltScreen == nil {
		return
	}
	lastIdx := -1
	var entering bool
	for _, seq := range altScreenSequences {
		if i := bytes.LastIndex(chunk, seq.enter); i > lastIdx {
			lastIdx, entering = i, true
		}
		if i := bytes.LastIndex(chunk, seq.exit); i > lastIdx {
			lastIdx, entering = i, false
		}
	}
	if lastIdx >= 0 {
		d.onAltScreen(handle, entering)
	}
}

func (d *Driver) Resize(handle string, rows uint16) {
	d.mu.Lock()
	f := d.ptys[handle]
	d.mu.Unlock()
	if f == nil {
		return
	}
	cols, _, _ := pty.Getsize(f)
	_ = pty.Setsize(f, &pty.Winsize{Rows: rows, Cols: uint16(cols)})
}

func (d *Driver) Close(handle string) {
	d.mu.Lock()
	f := d.ptys[handle]
	c := d.procs[handle]
	delete(d.ptys, handle)
	delete(d.procs, handle)
	d.mu.Unlock()

	if f != nil {
		f.Close()
	}
	if c != nil && c.Process != nil {
		c.Process.Kill()
	}
}
