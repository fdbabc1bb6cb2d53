package core

// OutputTerminalLink tracks a hidden terminal cell spawned to capture an
// external GUI child process's stdout/stderr. It starts hidden (never
// inserted into the stack) and is inserted on the first byte of output;
// when the associated GUI window closes, it is either promoted into the
// GUI cell's slot (if it produced content) or discarded (if it never did).
type OutputTerminalLink struct {
	GUICellID    CellID
	TerminalCell Cell
	hasOutput    bool
}

// NewOutputTerminalLink creates a link for a GUI cell about to be spawned,
// holding terminalCell hidden until output arrives.
func NewOutputTerminalLink(guiCellID CellID, terminalCell Cell) *OutputTerminalLink {
	return &OutputTerminalLink{GUICellID: guiCellID, TerminalCell: terminalCell}
}

// HasOutput reports whether this link's terminal has ever received output
// (and therefore has been inserted into the stack).
func (l *OutputTerminalLink) HasOutput() bool {
	return l.hasOutput
}

// OnPTYOutput records that the linked terminal received output. It returns
// true exactly once — the first time — telling the caller to insert
// l.TerminalCell into the stack immediately below the GUI cell.
func (l *OutputTerminalLink) OnPTYOutput() bool {
	if l.hasOutput {
		return false
	}
	l.hasOutput = true
	return true
}

// OutputTerminalOutcome reports what ResolveGUIClosed did to the stack.
type OutputTerminalOutcome uint8

const (
	OutputTerminalRemoved OutputTerminalOutcome = iota
	OutputTerminalPromoted
)

// ResolveGUIClosed handles the associated GUI window closing: if the output
// terminal ever produced content, it is promoted — it replaces the GUI cell
// at the GUI cell's own index. Otherwise both the GUI cell and (if inserted)
// the empty output terminal are removed.
func ResolveGUIClosed(model *Model, link *OutputTerminalLink) OutputTerminalOutcome {
	if !link.hasOutput {
		model.Remove(link.GUICellID)
		return OutputTerminalRemoved
	}

	// The terminal is already live in the stack (inserted on first output).
	// Pull it out of its current slot, drop the GUI cell, then reinsert the
	// terminal at the GUI cell's now-vacated index.
	if cell, removed := model.Remove(link.TerminalCell.ID); removed {
		link.TerminalCell = cell
	}
	guiIndex, _ := model.IndexOf(link.GUICellID)
	model.Remove(link.GUICellID)
	model.Insert(link.TerminalCell, guiIndex)
	return OutputTerminalPromoted
}

// InsertOutputTerminal inserts link's terminal cell immediately below the
// GUI cell it is attached to. Callers invoke this exactly once, when
// OnPTYOutput first returns true.
func InsertOutputTerminal(model *Model, link *OutputTerminalLink) (int, bool) {
	guiIndex, ok := model.IndexOf(link.GUICellID)
	if !ok {
		return 0, false
	}
	index := model.Insert(link.TerminalCell, guiIndex+1)
	return index, true
}
