package core

// CellID identifies a cell independent of its position in the stack. It is
// generated once at cell creation and never reused, so focus and linkage can
// be expressed as identity rather than index.
type CellID [16]byte

// CellKind tags which variant a Cell carries. Cell is a tagged union, not an
// interface hierarchy: the three variants are disjoint enough that giving
// them a common base type would add indirection without shared behavior.
type CellKind uint8

const (
	CellTerminal CellKind = iota
	CellExternal
	CellBuiltin
)

// DecorationMode records whether the compositor (server) or the client draws
// a cell's title bar. It changes how a cell's visual height maps to its
// content height.
type DecorationMode uint8

const (
	ServerDecorated DecorationMode = iota
	ClientDecorated
)

const (
	// TitleBarHeight is the height in pixels of a server-drawn title bar.
	TitleBarHeight = 24.0
	// ResizeHandleHeight is the height in pixels of the bottom resize-handle
	// hit-test band on external GUI cells.
	ResizeHandleHeight = 4.0
	// DefaultExternalHeight is used for an external cell's initial cached
	// height when the client announced no preferred size.
	DefaultExternalHeight = 200.0
	// MinRowHeight is the pixel height of a single terminal content row,
	// used to size a terminal cell's default (one row) height and to derive
	// the row cap from the viewport.
	MinRowHeight = 16.0
)

// TerminalCellData is the payload of a Terminal cell.
type TerminalCellData struct {
	// TerminalHandle is an opaque identifier for the PTY/grid collaborator
	// that owns this terminal's byte stream. The stack engine never
	// interprets it.
	TerminalHandle string
	Sizing         *TerminalSizing
	// ShowTitleBar is false only for the launcher terminal (see Glossary).
	ShowTitleBar bool
}

// PendingResize records an in-flight configure sent to an external client,
// awaiting a matching commit.
type PendingResize struct {
	CurrentHeight   float64
	RequestedHeight float64
	Serial          uint64
	LastConfigureAt float64 // monotonic clock reading, seconds; see resize.go
}

// ExternalCellData is the payload of an External cell.
type ExternalCellData struct {
	// SurfaceHandle is an opaque identifier for the Wayland toplevel this
	// cell wraps.
	SurfaceHandle  string
	Decoration     DecorationMode
	Pending        *PendingResize
	OutputTerminal *CellID // linked output-terminal cell, if any
}

// BuiltinCellData is the payload of a Builtin cell: an immutable record of a
// shell-builtin execution.
type BuiltinCellData struct {
	Prompt  string
	Command string
	Output  string
	Failed  bool
}

// Cell is one entry in the stack.
type Cell struct {
	ID     CellID
	Kind   CellKind
	Height float64 // cached height from the most recently rendered frame

	Terminal *TerminalCellData
	External *ExternalCellData
	Builtin  *BuiltinCellData
}

// DefaultHeight returns the height a newly inserted cell should be assigned
// before it has ever been rendered.
func (c *Cell) DefaultHeight() float64 {
	switch c.Kind {
	case CellTerminal:
		h := MinRowHeight
		if c.Terminal != nil && c.Terminal.ShowTitleBar {
			h += TitleBarHeight
		}
		return h
	case CellExternal:
		return DefaultExternalHeight
	case CellBuiltin:
		return TitleBarHeight + MinRowHeight
	}
	return MinRowHeight
}

// Title returns the cell's title-bar text, or "" if the cell has no title
// bar (e.g. the launcher terminal, or a client-decorated external).
func (c *Cell) Title() string {
	switch c.Kind {
	case CellTerminal:
		if c.Terminal != nil && c.Terminal.ShowTitleBar {
			return c.Terminal.TerminalHandle
		}
		return ""
	case CellExternal:
		if c.External != nil && c.External.Decoration == ServerDecorated {
			return c.External.SurfaceHandle
		}
		return ""
	case CellBuiltin:
		if c.Builtin != nil {
			return c.Builtin.Prompt + c.Builtin.Command
		}
	}
	return ""
}

// TitleForWidth returns Title() truncated, rune-width-aware, to fit within
// maxCellWidth columns, so a title containing wide (e.g. CJK) characters
// doesn't overrun the title bar it's drawn into.
func (c *Cell) TitleForWidth(maxCellWidth int) string {
	return truncateToWidth(c.Title(), maxCellWidth)
}

// HasTitleBar reports whether the cell's top TitleBarHeight pixels are a
// title-bar hit-test region.
func (c *Cell) HasTitleBar() bool {
	switch c.Kind {
	case CellTerminal:
		return c.Terminal != nil && c.Terminal.ShowTitleBar
	case CellExternal:
		return c.External != nil && c.External.Decoration == ServerDecorated
	case CellBuiltin:
		return true
	}
	return false
}

// HasResizeHandle reports whether the cell's bottom ResizeHandleHeight pixels
// are a resize-handle hit-test region. Only external GUI cells are manually
// resizable.
func (c *Cell) HasResizeHandle() bool {
	return c.Kind == CellExternal
}

// NewTerminalCell builds a Terminal cell with the given identity.
func NewTerminalCell(id CellID, handle string, initialRows, maxRows uint16, showTitleBar bool) Cell {
	return Cell{
		ID:   id,
		Kind: CellTerminal,
		Terminal: &TerminalCellData{
			TerminalHandle: handle,
			Sizing:         NewTerminalSizing(initialRows, maxRows),
			ShowTitleBar:   showTitleBar,
		},
	}
}

// NewExternalCell builds an External cell with the given identity.
func NewExternalCell(id CellID, surfaceHandle string, decoration DecorationMode) Cell {
	return Cell{
		ID:   id,
		Kind: CellExternal,
		External: &ExternalCellData{
			SurfaceHandle: surfaceHandle,
			Decoration:    decoration,
		},
	}
}

// NewBuiltinCell builds a Builtin cell with the given identity.
func NewBuiltinCell(id CellID, prompt, command, output string, failed bool) Cell {
	return Cell{
		ID:   id,
		Kind: CellBuiltin,
		Builtin: &BuiltinCellData{
			Prompt:  prompt,
			Command: command,
			Output:  output,
			Failed:  failed,
		},
	}
}
