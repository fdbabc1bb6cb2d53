package core

// Model is the ordered stack of cells: identity-based focus, a scroll
// offset, and the height cache that both hit testing and layout read from.
//
// Focus is stored as an identity, never an index or a back-pointer from the
// cell: insertions and removals shift indices but never change which cell is
// focused unless that cell itself was removed. The resolved index is cached
// and invalidated on any mutation, mirroring the focused-index cache in the
// original compositor's focus tracking.
type Model struct {
	cells []Cell

	hasFocus bool
	focused  CellID

	cachedIndex      int
	cachedIndexValid bool

	scrollOffset float64
}

// NewModel returns an empty stack.
func NewModel() *Model {
	return &Model{}
}

// Len returns the number of cells currently in the stack.
func (m *Model) Len() int { return len(m.cells) }

// Cells returns the stack in order. Callers must not mutate the returned
// slice's cell pointers' payloads through this view without going through
// the Model's own mutators, or the height/focus caches will desync.
func (m *Model) Cells() []Cell { return m.cells }

// CellAt returns the cell at index i, or false if out of range.
func (m *Model) CellAt(i int) (Cell, bool) {
	if i < 0 || i >= len(m.cells) {
		return Cell{}, false
	}
	return m.cells[i], true
}

// CellByID returns the cell with the given identity, or false if absent.
func (m *Model) CellByID(id CellID) (Cell, bool) {
	idx, ok := m.IndexOf(id)
	if !ok {
		return Cell{}, false
	}
	return m.cells[idx], true
}

// IndexOf returns the index of the cell with the given identity, or false.
func (m *Model) IndexOf(id CellID) (int, bool) {
	for i := range m.cells {
		if m.cells[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// Insert places cell at position, clamping to the end if position exceeds
// the stack length. The cell's cached height is seeded from its own default.
func (m *Model) Insert(cell Cell, position int) int {
	if position < 0 {
		position = 0
	}
	if position > len(m.cells) {
		position = len(m.cells)
	}
	if cell.Height == 0 {
		cell.Height = cell.DefaultHeight()
	}

	m.cells = append(m.cells, Cell{})
	copy(m.cells[position+1:], m.cells[position:])
	m.cells[position] = cell

	m.invalidateFocusCache()
	return position
}

// InsertAtFocus inserts a cell directly below the currently focused cell, or
// at the end if nothing is focused.
func (m *Model) InsertAtFocus(cell Cell) int {
	idx, ok := m.FocusedIndex()
	if !ok {
		return m.Insert(cell, len(m.cells))
	}
	return m.Insert(cell, idx+1)
}

// Remove deletes the cell with the given identity. It returns the removed
// cell and true, or false if no cell had that identity. Focus transfers to
// the neighbor by identity if the removed cell was focused.
func (m *Model) Remove(id CellID) (Cell, bool) {
	idx, ok := m.IndexOf(id)
	if !ok {
		return Cell{}, false
	}
	removed := m.cells[idx]
	m.cells = append(m.cells[:idx], m.cells[idx+1:]...)

	wasFocused := m.hasFocus && m.focused == id
	m.invalidateFocusCache()

	if wasFocused {
		m.focusNeighborAfterRemoval(idx)
	}
	return removed, true
}

// focusNeighborAfterRemoval implements the focus-persistence rule: prefer the
// cell that slid into the removed index (the one after it), falling back to
// the new last cell if the removed cell was last.
func (m *Model) focusNeighborAfterRemoval(removedIndex int) {
	if len(m.cells) == 0 {
		m.clearFocus()
		return
	}
	newIndex := removedIndex
	if newIndex >= len(m.cells) {
		newIndex = len(m.cells) - 1
	}
	m.setFocusByIndex(newIndex)
}

func (m *Model) clearFocus() {
	m.hasFocus = false
	m.invalidateFocusCache()
}

func (m *Model) setFocusByIndex(index int) {
	if index < 0 || index >= len(m.cells) {
		return
	}
	m.hasFocus = true
	m.focused = m.cells[index].ID
	m.cachedIndex = index
	m.cachedIndexValid = true
}

// SetFocus resolves id to an index and focuses it. A no-op with a warning if
// id is not in the stack.
func (m *Model) SetFocus(id CellID) {
	idx, ok := m.IndexOf(id)
	if !ok {
		logInvariantViolation("SetFocus on identity not in stack, ignoring")
		return
	}
	m.setFocusByIndex(idx)
}

// FocusedIndex resolves the focused identity to its current index, using the
// cache when it's still valid. Returns false if nothing is focused or the
// focused identity no longer exists in the stack.
func (m *Model) FocusedIndex() (int, bool) {
	if !m.hasFocus {
		return 0, false
	}
	if m.cachedIndexValid {
		return m.cachedIndex, true
	}
	idx, ok := m.IndexOf(m.focused)
	if !ok {
		return 0, false
	}
	m.cachedIndex = idx
	m.cachedIndexValid = true
	return idx, true
}

// FocusedID returns the currently focused identity, if any.
func (m *Model) FocusedID() (CellID, bool) {
	if !m.hasFocus {
		return CellID{}, false
	}
	return m.focused, true
}

func (m *Model) invalidateFocusCache() {
	m.cachedIndexValid = false
}

// FocusNext moves focus one position down, clamped at the end (no wrap).
func (m *Model) FocusNext() {
	idx, ok := m.FocusedIndex()
	if !ok {
		if len(m.cells) > 0 {
			m.setFocusByIndex(0)
		}
		return
	}
	if idx+1 < len(m.cells) {
		m.setFocusByIndex(idx + 1)
	}
}

// FocusPrev moves focus one position up, clamped at the start (no wrap).
func (m *Model) FocusPrev() {
	idx, ok := m.FocusedIndex()
	if !ok {
		if len(m.cells) > 0 {
			m.setFocusByIndex(0)
		}
		return
	}
	if idx > 0 {
		m.setFocusByIndex(idx - 1)
	}
}

// UpdateCachedHeight writes back a render-measured height for the cell with
// the given identity. A no-op if the identity is not in the stack.
func (m *Model) UpdateCachedHeight(id CellID, measuredPx float64) {
	idx, ok := m.IndexOf(id)
	if !ok {
		return
	}
	if measuredPx < 0 {
		logInvariantViolation("negative measured height for cell, clamping to 0")
		measuredPx = 0
	}
	m.cells[idx].Height = measuredPx
}

// MutateCell runs fn against the cell with the given identity in place,
// letting callers update a cell's payload (sizing state, pending resize)
// without a remove/reinsert round trip. Returns false if id is not present.
func (m *Model) MutateCell(id CellID, fn func(*Cell)) bool {
	idx, ok := m.IndexOf(id)
	if !ok {
		return false
	}
	fn(&m.cells[idx])
	return true
}

// Heights returns the cached height of each cell, in stack order.
func (m *Model) Heights() []float64 {
	out := make([]float64, len(m.cells))
	for i := range m.cells {
		out[i] = m.cells[i].Height
	}
	return out
}

// TotalHeight returns the sum of all cached cell heights.
func (m *Model) TotalHeight() float64 {
	var total float64
	for i := range m.cells {
		total += m.cells[i].Height
	}
	return total
}

// ScrollOffset returns the current scroll offset in content space.
func (m *Model) ScrollOffset() float64 { return m.scrollOffset }

// SetScrollOffset stores a scroll offset already clamped by the caller (the
// Scroll Controller owns clamping; Model just records the result).
func (m *Model) SetScrollOffset(offset float64) { m.scrollOffset = offset }
