package core

// ScreenY is a Y coordinate with origin at the top of the viewport, increasing
// downward — the convention used by windowing-collaborator input events.
type ScreenY float64

// RenderY is a Y coordinate with origin at the bottom of the viewport,
// increasing upward — the convention used by the renderer collaborator.
type RenderY float64

// ContentY is an absolute Y coordinate in the full scrollable content space,
// with origin at the top of cell 0, increasing downward, independent of the
// current scroll offset.
type ContentY float64

// ToRender converts a screen coordinate to render space given the viewport
// height. The Y axis flips: screen top (0) becomes render bottom (H).
func (y ScreenY) ToRender(viewportHeight float64) RenderY {
	return RenderY(viewportHeight - float64(y))
}

// ToScreen converts a render coordinate back to screen space. The inverse of
// ToRender.
func (y RenderY) ToScreen(viewportHeight float64) ScreenY {
	return ScreenY(viewportHeight - float64(y))
}

// ToContent converts a render coordinate into absolute content space, per
// §4.1: content = scrollOffset + (viewportHeight − render). Content is
// top-origin/downward (agreeing with layout.go's ContentTop), render is
// bottom-origin/upward, so the viewport height is what folds the axis flip
// into the scroll offset.
func (y RenderY) ToContent(scrollOffset, viewportHeight float64) ContentY {
	return ContentY(scrollOffset + (viewportHeight - float64(y)))
}

// ToRender is the inverse of RenderY.ToContent: render = viewportHeight −
// content + scrollOffset.
func (y ContentY) ToRender(scrollOffset, viewportHeight float64) RenderY {
	return RenderY(viewportHeight - float64(y) + scrollOffset)
}

// ScreenPoint is a 2D point in screen space.
type ScreenPoint struct {
	X float64
	Y ScreenY
}

// RenderPoint is a 2D point in render space.
type RenderPoint struct {
	X float64
	Y RenderY
}

// ToRender converts a screen point to render space; X is unaffected by the
// Y-space flip.
func (p ScreenPoint) ToRender(viewportHeight float64) RenderPoint {
	return RenderPoint{X: p.X, Y: p.Y.ToRender(viewportHeight)}
}

// ToScreen converts a render point back to screen space.
func (p RenderPoint) ToScreen(viewportHeight float64) ScreenPoint {
	return ScreenPoint{X: p.X, Y: p.Y.ToScreen(viewportHeight)}
}
