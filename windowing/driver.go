// Package windowing holds the collaborator interfaces and input-event types
// on the rendering/transport side of the stack engine boundary: the screen
// driver a frontend implements to paint the stack, and the input events a
// frontend translates from tcell. No Coordinator method takes either type. The
// Wayland surface transport and the actual pixel compositing it would drive
// are the explicitly excluded low-level rendering layer; this package only
// carries the shapes that cross that boundary.
package windowing

import "github.com/gdamore/tcell/v2"

// ScreenDriver abstracts a rendering surface as a subset of tcell.Screen, so
// a remote or headless implementation can stand in for a real terminal.
type ScreenDriver interface {
	Init() error
	Fini()
	Size() (int, int)
	SetStyle(style tcell.Style)
	HideCursor()
	Show()
	PollEvent() tcell.Event
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	GetContent(x, y int) (rune, []rune, tcell.Style, int)
}

// InputEvent is a screen-space event translated from a tcell.Event by the
// frontend that owns the ScreenDriver.
type InputEvent struct {
	Key    *tcell.EventKey
	Mouse  *tcell.EventMouse
	Resize *tcell.EventResize
}

// FromTcell classifies a tcell.Event into the subset InputEvent names.
func FromTcell(ev tcell.Event) InputEvent {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return InputEvent{Key: e}
	case *tcell.EventMouse:
		return InputEvent{Mouse: e}
	case *tcell.EventResize:
		return InputEvent{Resize: e}
	}
	return InputEvent{}
}
