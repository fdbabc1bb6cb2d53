package core

// LayoutEntry is the per-cell output of Layout: its content-space top, its
// render-space top, and whether any part of it falls within the viewport.
type LayoutEntry struct {
	ContentTop ContentY
	RenderTop  RenderY
	Height     float64
	Visible    bool
}

// LayoutResult is the full output of a Layout pass.
type LayoutResult struct {
	Entries     []LayoutEntry
	TotalHeight float64
}

// Layout computes cell positions as a pure function of cached heights,
// viewport height, and scroll offset. It has no side effects and performs no
// I/O — this is the function property tests in §8 exercise directly.
func Layout(heights []float64, viewportHeight, scrollOffset float64) LayoutResult {
	entries := make([]LayoutEntry, len(heights))

	var contentTop float64
	for i, h := range heights {
		renderTop := viewportHeight - (contentTop + h - scrollOffset)
		visible := contentTop+h > scrollOffset && contentTop < scrollOffset+viewportHeight

		entries[i] = LayoutEntry{
			ContentTop: ContentY(contentTop),
			RenderTop:  RenderY(renderTop),
			Height:     h,
			Visible:    visible,
		}
		contentTop += h
	}

	return LayoutResult{Entries: entries, TotalHeight: contentTop}
}
