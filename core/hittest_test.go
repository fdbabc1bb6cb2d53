package core

import "testing"

func externalOf(height float64) Cell {
	c := NewExternalCell(NewCellID(), "xterm-clone", ServerDecorated)
	c.Height = height
	return c
}

func TestHitTestScenario4ThreeExternalsTopTitleBar(t *testing.T) {
	cells := []Cell{externalOf(400), externalOf(400), externalOf(400)}
	const viewport = 720.0

	result, ok := HitTestCells(cells, viewport, 0, ScreenPoint{X: 10, Y: ScreenY(10)})
	if !ok {
		t.Fatal("expected a hit")
	}
	if result.Index != 0 {
		t.Fatalf("got index %d, want 0", result.Index)
	}
	if result.Region != RegionTitleBar {
		t.Fatalf("got region %v, want RegionTitleBar", result.Region)
	}
}

func TestHitTestEachRegionClassified(t *testing.T) {
	c := externalOf(200)
	cells := []Cell{c}
	const viewport = 200.0

	// top of the cell (screen y=0..24) -> title bar
	if r, ok := HitTestCells(cells, viewport, 0, ScreenPoint{Y: ScreenY(5)}); !ok || r.Region != RegionTitleBar {
		t.Fatalf("expected title bar, got %+v ok=%v", r, ok)
	}
	// middle -> content
	if r, ok := HitTestCells(cells, viewport, 0, ScreenPoint{Y: ScreenY(100)}); !ok || r.Region != RegionContent {
		t.Fatalf("expected content, got %+v ok=%v", r, ok)
	}
	// bottom 4px -> resize handle (external cell)
	if r, ok := HitTestCells(cells, viewport, 0, ScreenPoint{Y: ScreenY(199)}); !ok || r.Region != RegionResizeHandle {
		t.Fatalf("expected resize handle, got %+v ok=%v", r, ok)
	}
}

func TestHitTestTerminalHasNoResizeHandle(t *testing.T) {
	c := NewTerminalCell(NewCellID(), "shell", 24, 1000, true)
	c.Height = 200
	cells := []Cell{c}
	const viewport = 200.0

	r, ok := HitTestCells(cells, viewport, 0, ScreenPoint{Y: ScreenY(199)})
	if !ok || r.Region != RegionContent {
		t.Fatalf("terminal bottom edge should be content, got %+v ok=%v", r, ok)
	}
}

func TestHitTestOutOfRangeIsNoHit(t *testing.T) {
	cells := []Cell{externalOf(100)}
	const viewport = 720.0

	if _, ok := HitTestCells(cells, viewport, 0, ScreenPoint{Y: ScreenY(700)}); ok {
		t.Fatal("expected no hit in the gap below the last cell")
	}
}

func TestHitTestExactlyOneCellMatches(t *testing.T) {
	cells := []Cell{externalOf(100), externalOf(100), externalOf(100)}
	const viewport = 300.0

	for _, y := range []float64{1, 50, 101, 150, 251, 299} {
		r, ok := HitTestCells(cells, viewport, 0, ScreenPoint{Y: ScreenY(y)})
		if !ok {
			t.Fatalf("y=%v: expected a hit", y)
		}
		wantIndex := int(y / 100)
		if r.Index != wantIndex {
			t.Fatalf("y=%v: got index %d, want %d", y, r.Index, wantIndex)
		}
	}
}
