package core

// ClampScroll clamps a requested scroll offset to [0, max(0, totalHeight -
// viewportHeight)].
func ClampScroll(requested, totalHeight, viewportHeight float64) float64 {
	maxScroll := totalHeight - viewportHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if requested < 0 {
		return 0
	}
	if requested > maxScroll {
		return maxScroll
	}
	return requested
}

// pageOverlapFraction is the fraction of the viewport height retained on a
// page up/down so the user keeps visual context across the page boundary.
const pageOverlapFraction = 0.10

// ScrollController owns a Model's scroll offset and the "was the user
// already at the bottom" stickiness that drives auto-scroll on content
// growth.
type ScrollController struct {
	model *Model

	// stickyBottom is true whenever the scroll offset was within one line of
	// the bottom the last time content grew or the user scrolled. It goes
	// false the moment the user scrolls away from the bottom, and true again
	// only once they scroll back down to it — "manual scroll up is sticky".
	stickyBottom bool
}

// NewScrollController wraps model, starting in the sticky-bottom state (an
// empty or freshly created stack is always "at the bottom").
func NewScrollController(model *Model) *ScrollController {
	return &ScrollController{model: model, stickyBottom: true}
}

func (s *ScrollController) maxScroll(viewportHeight float64) float64 {
	max := s.model.TotalHeight() - viewportHeight
	if max < 0 {
		max = 0
	}
	return max
}

// isAtBottom reports whether offset is within one text row of the maximum
// scroll for the given viewport.
func (s *ScrollController) isAtBottom(offset, viewportHeight float64) bool {
	return offset >= s.maxScroll(viewportHeight)-MinRowHeight
}

// ScrollBy moves the scroll offset by delta, clamping to the valid range, and
// updates the sticky-bottom flag from the result.
func (s *ScrollController) ScrollBy(delta, viewportHeight float64) {
	offset := ClampScroll(s.model.ScrollOffset()+delta, s.model.TotalHeight(), viewportHeight)
	s.model.SetScrollOffset(offset)
	s.stickyBottom = s.isAtBottom(offset, viewportHeight)
}

// ScrollToTop sets the scroll offset to 0.
func (s *ScrollController) ScrollToTop() {
	s.model.SetScrollOffset(0)
	s.stickyBottom = s.isAtBottom(0, 0)
}

// ScrollToBottom sets the scroll offset to the maximum for viewportHeight.
func (s *ScrollController) ScrollToBottom(viewportHeight float64) {
	offset := s.maxScroll(viewportHeight)
	s.model.SetScrollOffset(offset)
	s.stickyBottom = true
}

// PageUp scrolls up by one viewport height minus a small overlap.
func (s *ScrollController) PageUp(viewportHeight float64) {
	s.ScrollBy(-pageStep(viewportHeight), viewportHeight)
}

// PageDown scrolls down by one viewport height minus a small overlap.
func (s *ScrollController) PageDown(viewportHeight float64) {
	s.ScrollBy(pageStep(viewportHeight), viewportHeight)
}

func pageStep(viewportHeight float64) float64 {
	overlap := viewportHeight * pageOverlapFraction
	if overlap < MinRowHeight {
		overlap = MinRowHeight
	}
	step := viewportHeight - overlap
	if step < MinRowHeight {
		step = MinRowHeight
	}
	return step
}

// OnContentGrew is called after a mutation that increased total content
// height (new line, newly inserted cell). If the scroll position was
// previously sticky to the bottom, it advances to keep the new content
// visible; otherwise it leaves the offset untouched.
func (s *ScrollController) OnContentGrew(viewportHeight float64) {
	if !s.stickyBottom {
		return
	}
	s.model.SetScrollOffset(s.maxScroll(viewportHeight))
}

// ScrollToShowBottom scrolls the minimum amount necessary to bring the given
// cell's bottom edge into view, used when a newly focused or newly inserted
// cell would otherwise sit below the viewport.
func (s *ScrollController) ScrollToShowBottom(index int, viewportHeight float64) {
	heights := s.model.Heights()
	if index < 0 || index >= len(heights) {
		return
	}
	var top float64
	for i := 0; i < index; i++ {
		top += heights[i]
	}
	bottom := top + heights[index]

	offset := s.model.ScrollOffset()
	minScrollForBottom := bottom - viewportHeight
	if minScrollForBottom < 0 {
		minScrollForBottom = 0
	}
	if offset < minScrollForBottom {
		offset = ClampScroll(minScrollForBottom, s.model.TotalHeight(), viewportHeight)
		s.model.SetScrollOffset(offset)
	}
	s.stickyBottom = s.isAtBottom(s.model.ScrollOffset(), viewportHeight)
}

// IsBottomVisible reports whether the given cell's bottom edge is at or
// above the bottom of the current scroll's visible range. It is the "was
// bottom visible before this resize" check Coordinator.RequestExternalResize
// uses to decide whether to auto-scroll.
func (s *ScrollController) IsBottomVisible(index int, viewportHeight float64) bool {
	heights := s.model.Heights()
	if index < 0 || index >= len(heights) {
		return false
	}
	var bottom float64
	for i := 0; i <= index; i++ {
		bottom += heights[i]
	}
	minScrollForBottom := bottom - viewportHeight
	if minScrollForBottom < 0 {
		minScrollForBottom = 0
	}
	return s.model.ScrollOffset() >= minScrollForBottom-1.0
}
