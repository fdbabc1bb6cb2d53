package core

import (
	"math/rand"
	"testing"
)

func TestScrollByStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 200; trial++ {
		m := NewModel()
		n := rng.Intn(6)
		for i := 0; i < n; i++ {
			cell := NewBuiltinCell(NewCellID(), "$ ", "x", "", false)
			cell.Height = float64(rng.Intn(300) + 1)
			m.Insert(cell, m.Len())
		}
		ctl := NewScrollController(m)
		viewport := float64(rng.Intn(900) + 1)

		delta := float64(rng.Intn(4000) - 2000)
		ctl.ScrollBy(delta, viewport)

		got := m.ScrollOffset()
		max := m.TotalHeight() - viewport
		if max < 0 {
			max = 0
		}
		if got < 0 || got > max {
			t.Fatalf("trial %d: scroll %v out of range [0,%v]", trial, got, max)
		}
	}
}

func TestScrollScenario3Settling(t *testing.T) {
	m := NewModel()
	for _, h := range []float64{400, 400, 400} {
		cell := NewBuiltinCell(NewCellID(), "$ ", "x", "", false)
		cell.Height = h
		m.Insert(cell, m.Len())
	}
	ctl := NewScrollController(m)
	const viewport = 720.0

	steps := []struct {
		target float64
		want   float64
	}{
		{0, 0},
		{100, 100},
		{500, 480},
		{2000, 480},
	}
	for _, step := range steps {
		m.SetScrollOffset(0) // absolute target, not relative
		ctl.ScrollBy(step.target, viewport)
		if m.ScrollOffset() != step.want {
			t.Fatalf("target %v: got %v, want %v", step.target, m.ScrollOffset(), step.want)
		}
	}
}

func TestScrollToTopAndBottom(t *testing.T) {
	m := NewModel()
	for _, h := range []float64{300, 300, 300} {
		cell := NewBuiltinCell(NewCellID(), "$ ", "x", "", false)
		cell.Height = h
		m.Insert(cell, m.Len())
	}
	ctl := NewScrollController(m)
	ctl.ScrollToBottom(400)
	if m.ScrollOffset() != 500 {
		t.Fatalf("got %v, want 500", m.ScrollOffset())
	}
	ctl.ScrollToTop()
	if m.ScrollOffset() != 0 {
		t.Fatalf("got %v, want 0", m.ScrollOffset())
	}
}

func TestAutoScrollStickyToBottom(t *testing.T) {
	m := NewModel()
	c1 := NewBuiltinCell(NewCellID(), "$ ", "x", "", false)
	c1.Height = 300
	m.Insert(c1, 0)
	ctl := NewScrollController(m)
	const viewport = 300.0

	ctl.ScrollToBottom(viewport)

	c2 := NewBuiltinCell(NewCellID(), "$ ", "y", "", false)
	c2.Height = 200
	m.Insert(c2, m.Len())
	ctl.OnContentGrew(viewport)

	if m.ScrollOffset() != 200 {
		t.Fatalf("expected auto-scroll to new bottom 200, got %v", m.ScrollOffset())
	}
}

func TestAutoScrollSuppressedAfterManualScrollUp(t *testing.T) {
	m := NewModel()
	c1 := NewBuiltinCell(NewCellID(), "$ ", "x", "", false)
	c1.Height = 1000
	m.Insert(c1, 0)
	ctl := NewScrollController(m)
	const viewport = 300.0

	ctl.ScrollToBottom(viewport) // 700
	ctl.ScrollBy(-600, viewport) // manual scroll up, now far from bottom

	before := m.ScrollOffset()

	c2 := NewBuiltinCell(NewCellID(), "$ ", "y", "", false)
	c2.Height = 200
	m.Insert(c2, m.Len())
	ctl.OnContentGrew(viewport)

	if m.ScrollOffset() != before {
		t.Fatalf("scroll should not advance after manual scroll-up, got %v want %v", m.ScrollOffset(), before)
	}
}

func TestAutoScrollResumesAfterReturningToBottom(t *testing.T) {
	m := NewModel()
	c1 := NewBuiltinCell(NewCellID(), "$ ", "x", "", false)
	c1.Height = 1000
	m.Insert(c1, 0)
	ctl := NewScrollController(m)
	const viewport = 300.0

	ctl.ScrollToBottom(viewport)
	ctl.ScrollBy(-600, viewport)
	ctl.ScrollToBottom(viewport) // user scrolls back down

	c2 := NewBuiltinCell(NewCellID(), "$ ", "y", "", false)
	c2.Height = 200
	m.Insert(c2, m.Len())
	ctl.OnContentGrew(viewport)

	want := m.TotalHeight() - viewport
	if m.ScrollOffset() != want {
		t.Fatalf("expected sticky auto-scroll to resume, got %v want %v", m.ScrollOffset(), want)
	}
}
