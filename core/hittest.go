package core

// HitRegion classifies which sub-region of a cell a hit test landed in.
type HitRegion uint8

const (
	RegionTitleBar HitRegion = iota
	RegionContent
	RegionResizeHandle
)

// HitResult is the outcome of a successful HitTest.
type HitResult struct {
	Index  int
	Region HitRegion
}

// cellMeta carries the per-cell flags classify needs beyond geometry.
type cellMeta struct {
	hasTitleBar     bool
	hasResizeHandle bool
}

func classify(index int, entry LayoutEntry, y RenderY, meta cellMeta) HitResult {
	// Render space increases upward, so the cell's screen-visual top sits at
	// the *high* end of its render range and its visual bottom at the low
	// end. entry.RenderTop is that low end despite its name (it names the
	// top of the cell's position in the stack, not the top of its visual
	// extent) — [visualBottomEdge, visualTopEdge) with visualBottomEdge ==
	// entry.RenderTop. Distance from the visual top (title bar) is
	// visualTopEdge - y; distance from the visual bottom (resize handle) is
	// y - visualBottomEdge.
	visualBottomEdge := entry.RenderTop
	visualTopEdge := visualBottomEdge + RenderY(entry.Height)

	if meta.hasTitleBar {
		distanceFromVisualTop := float64(visualTopEdge) - float64(y)
		if distanceFromVisualTop <= TitleBarHeight {
			return HitResult{Index: index, Region: RegionTitleBar}
		}
	}
	if meta.hasResizeHandle {
		distanceFromVisualBottom := float64(y) - float64(visualBottomEdge)
		if distanceFromVisualBottom <= ResizeHandleHeight {
			return HitResult{Index: index, Region: RegionResizeHandle}
		}
	}
	return HitResult{Index: index, Region: RegionContent}
}

// HitTestCells converts a screen-space point to a cell index and sub-region.
// It runs Layout over cells' cached heights — the critical invariant (§4.5)
// is that hit testing and rendering read the exact same cached heights,
// which holds here because both call Layout with the Model's current
// Heights() — and classifies the hit using each cell's own title-bar/resize
// flags.
func HitTestCells(cells []Cell, viewportHeight, scrollOffset float64, point ScreenPoint) (HitResult, bool) {
	heights := make([]float64, len(cells))
	for i := range cells {
		heights[i] = cells[i].Height
	}
	layout := Layout(heights, viewportHeight, scrollOffset)
	renderPoint := point.ToRender(viewportHeight)

	for i, entry := range layout.Entries {
		visualBottomEdge := entry.RenderTop
		visualTopEdge := visualBottomEdge + RenderY(entry.Height)
		if renderPoint.Y < visualBottomEdge || renderPoint.Y >= visualTopEdge {
			continue
		}
		meta := cellMeta{hasTitleBar: cells[i].HasTitleBar(), hasResizeHandle: cells[i].HasResizeHandle()}
		return classify(i, entry, renderPoint.Y, meta), true
	}
	return HitResult{}, false
}
