package core

// SizingPhase names the three states of TerminalSizing.
type SizingPhase uint8

const (
	SizingStable SizingPhase = iota
	SizingGrowthRequested
	SizingResizing
)

// SizingActionKind tags the action a TerminalSizing transition emits.
type SizingActionKind uint8

const (
	ActionNone SizingActionKind = iota
	ActionRequestGrowth
	ActionApplyResize
	ActionRestoreScrollback
)

// SizingAction is the side effect a TerminalSizing method returns. The
// coordinator inspects Kind and acts on the matching field.
type SizingAction struct {
	Kind        SizingActionKind
	TargetRows  uint16 // ActionRequestGrowth
	Rows        uint16 // ActionApplyResize
	RestoreLine uint32 // ActionRestoreScrollback
}

// TerminalSizing tracks a terminal cell's row count against the number of
// content lines it has produced, growing the configured row count to follow
// content without double-counting lines that arrive mid-resize.
//
// content_rows only increments while Phase == SizingStable. Lines produced in
// GrowthRequested or Resizing accumulate in pendingScrollback instead, and are
// handed back to the terminal collaborator via ActionRestoreScrollback once
// the resize completes.
type TerminalSizing struct {
	phase SizingPhase

	configuredRows uint16
	contentRows    uint32

	targetRows uint16 // GrowthRequested, Resizing (to_rows)
	fromRows   uint16 // Resizing

	pendingScrollback uint32

	// maxRows is the viewport-derived cap on configured rows (viewport
	// height / cell row height). Growth requests never exceed it.
	maxRows uint16

	// frozen holds true while the cell is in alternate-screen mode: the PTY
	// is pinned at maxRows and content-aware growth is suppressed.
	frozen bool
}

// NewTerminalSizing creates a sizing state machine starting Stable at
// initialRows, capped for growth purposes at maxRows.
func NewTerminalSizing(initialRows, maxRows uint16) *TerminalSizing {
	return &TerminalSizing{
		phase:          SizingStable,
		configuredRows: initialRows,
		maxRows:        maxRows,
	}
}

// Phase reports the current state.
func (s *TerminalSizing) Phase() SizingPhase { return s.phase }

// IsStable reports whether the machine is in the Stable phase.
func (s *TerminalSizing) IsStable() bool { return s.phase == SizingStable }

// ConfiguredRows reports the PTY row count currently in effect (or, mid-resize,
// the row count the cell is transitioning from).
func (s *TerminalSizing) ConfiguredRows() uint16 {
	if s.phase == SizingResizing {
		return s.fromRows
	}
	return s.configuredRows
}

// ContentRows reports the total number of lines the grid has produced.
func (s *TerminalSizing) ContentRows() uint32 { return s.contentRows }

// TargetRows reports the row count a GrowthRequested or Resizing transition
// is heading toward. Meaningless in Stable.
func (s *TerminalSizing) TargetRows() uint16 { return s.targetRows }

// MaxRows reports the viewport-derived growth cap.
func (s *TerminalSizing) MaxRows() uint16 { return s.maxRows }

// Freeze pins the machine at Stable{configuredRows: max, contentRows: max},
// suppressing content-aware growth. Used when the terminal collaborator
// signals alternate-screen entry.
func (s *TerminalSizing) Freeze() SizingAction {
	s.phase = SizingStable
	s.configuredRows = s.maxRows
	s.contentRows = uint32(s.maxRows)
	s.pendingScrollback = 0
	s.frozen = true
	return SizingAction{Kind: ActionApplyResize, Rows: s.maxRows}
}

// Unfreeze resumes content-aware sizing after alternate-screen exit.
func (s *TerminalSizing) Unfreeze() {
	s.frozen = false
}

// OnNewLine handles a line produced by the grid. Only Stable increments
// contentRows; other phases track the line as pending scrollback. In Stable,
// once contentRows exceeds the configured rows and the capped target is above
// them, the machine moves to GrowthRequested and returns RequestGrowth.
func (s *TerminalSizing) OnNewLine() SizingAction {
	switch s.phase {
	case SizingStable:
		if s.frozen {
			return SizingAction{Kind: ActionNone}
		}
		s.contentRows++
		if s.contentRows > uint32(s.configuredRows) {
			target := s.contentRows
			if target > uint32(s.maxRows) {
				target = uint32(s.maxRows)
			}
			if target <= uint32(s.configuredRows) {
				return SizingAction{Kind: ActionNone}
			}
			s.phase = SizingGrowthRequested
			s.targetRows = uint16(target)
			s.pendingScrollback = 0
			return SizingAction{Kind: ActionRequestGrowth, TargetRows: uint16(target)}
		}
		return SizingAction{Kind: ActionNone}

	case SizingGrowthRequested, SizingResizing:
		s.pendingScrollback++
		return SizingAction{Kind: ActionNone}
	}
	return SizingAction{Kind: ActionNone}
}

// RequestGrowth transitions Stable -> GrowthRequested, recording the target
// the coordinator intends to configure the cell to.
func (s *TerminalSizing) RequestGrowth(targetRows uint16) SizingAction {
	if s.phase != SizingStable {
		return SizingAction{Kind: ActionNone}
	}
	if targetRows > s.maxRows {
		targetRows = s.maxRows
	}
	s.phase = SizingGrowthRequested
	s.targetRows = targetRows
	s.pendingScrollback = 0
	return SizingAction{Kind: ActionNone}
}

// OnConfigure handles a configure event from the external resize protocol (or
// an unsolicited window resize). From GrowthRequested it starts the Resizing
// phase; from Stable with a differing row count it starts an unsolicited
// resize; from Resizing it re-targets the in-flight resize.
func (s *TerminalSizing) OnConfigure(newRows uint16) SizingAction {
	switch s.phase {
	case SizingGrowthRequested:
		s.phase = SizingResizing
		s.fromRows = s.configuredRows
		s.targetRows = newRows
		return SizingAction{Kind: ActionApplyResize, Rows: newRows}

	case SizingStable:
		if newRows == s.configuredRows {
			return SizingAction{Kind: ActionNone}
		}
		s.phase = SizingResizing
		s.fromRows = s.configuredRows
		s.targetRows = newRows
		s.pendingScrollback = 0
		return SizingAction{Kind: ActionApplyResize, Rows: newRows}

	case SizingResizing:
		if newRows == s.targetRows {
			return SizingAction{Kind: ActionNone}
		}
		s.targetRows = newRows
		return SizingAction{Kind: ActionApplyResize, Rows: newRows}
	}
	return SizingAction{Kind: ActionNone}
}

// OnResizeComplete handles the PTY acknowledging the new row count, returning
// to Stable and emitting ActionRestoreScrollback if lines accumulated while
// non-Stable.
func (s *TerminalSizing) OnResizeComplete() SizingAction {
	if s.phase != SizingResizing {
		return SizingAction{Kind: ActionNone}
	}
	restore := s.pendingScrollback
	s.phase = SizingStable
	s.configuredRows = s.targetRows
	s.pendingScrollback = 0

	if restore > 0 {
		return SizingAction{Kind: ActionRestoreScrollback, RestoreLine: restore}
	}
	return SizingAction{Kind: ActionNone}
}
