package server

import (
	"log"
	"sync"
	"time"

	"github.com/karlb/termstack/config"
	"github.com/karlb/termstack/core"
	"github.com/karlb/termstack/ptycollab"
	"github.com/karlb/termstack/scrollback"
	"github.com/karlb/termstack/windowing"
)

// wallClock implements core.Clock against the real monotonic clock.
type wallClock struct{ start time.Time }

func newWallClock() *wallClock { return &wallClock{start: time.Now()} }

func (c *wallClock) NowMillis() float64 { return float64(time.Since(c.start).Milliseconds()) }

// SessionStats summarizes a session's per-connection message queue health,
// reported through a SessionStatsObserver.
type SessionStats struct {
	ID             [16]byte
	PendingCount   int
	DroppedDiffs   int
	LastDroppedSeq uint64
}

// Session is one client's stack-engine instance: its own Coordinator, kept
// alive across reconnects by Manager so a dropped connection doesn't lose
// state.
type Session struct {
	id          [16]byte
	coordinator *core.Coordinator
	terminals   *ptycollab.Driver
	classifier  *Classifier
	index       scrollback.Index

	mu              sync.Mutex
	stats           SessionStats
	lastSeq         uint64
	lineCount       map[core.CellID]int64
	publishObserver PublishObserver
	statsObserver   SessionStatsObserver
	closed          bool
}

// SetPublishObserver wires a metrics sink invoked after every dispatched
// message, whether or not it changed this session's cell stack.
func (s *Session) SetPublishObserver(obs PublishObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishObserver = obs
}

// SetStatsObserver wires a metrics sink invoked after every dispatched
// message with this session's current queue-health snapshot.
func (s *Session) SetStatsObserver(obs SessionStatsObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statsObserver = obs
}

// recordDispatch reports this dispatch's outcome to whichever observers are
// wired, and advances the sequence-gap tracking used to flag stale clients.
func (s *Session) recordDispatch(seq uint64, duration time.Duration) {
	s.mu.Lock()
	publishObserver := s.publishObserver
	statsObserver := s.statsObserver
	if seq <= s.lastSeq && s.lastSeq != 0 {
		s.stats.LastDroppedSeq = seq
		s.stats.DroppedDiffs++
	}
	s.lastSeq = seq
	stats := s.stats
	s.mu.Unlock()

	if publishObserver != nil {
		publishObserver.ObservePublish(s, len(s.coordinator.Model().Cells()), duration)
	}
	if statsObserver != nil {
		statsObserver.ObserveSessionStats(stats)
	}
}

// NewSession constructs a session with its own Coordinator, wired to a real
// PTY-backed terminal collaborator and a stub surface driver (no Wayland
// transport is implemented; see windowing.LocalSurfaceDriver). index may be
// nil, in which case terminal output is never indexed for search. cfg's
// auto-scroll and client-decorated-app-id settings are applied to the
// Coordinator at construction time.
func NewSession(id [16]byte, index scrollback.Index, cfg config.Config) *Session {
	s := &Session{
		id:         id,
		classifier: NewClassifier(),
		index:      index,
		lineCount:  make(map[core.CellID]int64),
	}
	terminals := ptycollab.New(func(handle string, line []byte) {
		s.onTerminalOutput(handle, line)
	}, func(handle string, entering bool) {
		s.onAltScreen(handle, entering)
	})
	s.terminals = terminals
	s.coordinator = core.NewCoordinator(terminals, &windowing.LocalSurfaceDriver{}, newWallClock())
	s.coordinator.SetViewportHeight(720)
	s.coordinator.SetViewportWidth(1280)
	s.coordinator.SetAutoScrollEnabled(cfg.AutoScrollEnabled)
	s.coordinator.SetClientDecoratedAppIDs(cfg.ClientDecoratedAppIDs)
	s.stats.ID = id
	return s
}

// newSessionWithCoordinator builds a session around an already-constructed
// Coordinator, letting tests substitute fake collaborators without spawning
// real processes. terminals may be nil if the session never needs to close
// PTYs (i.e. it was never given a real ptycollab.Driver).
func newSessionWithCoordinator(id [16]byte, index scrollback.Index, coordinator *core.Coordinator, terminals *ptycollab.Driver) *Session {
	s := &Session{
		id:          id,
		coordinator: coordinator,
		terminals:   terminals,
		classifier:  NewClassifier(),
		index:       index,
		lineCount:   make(map[core.CellID]int64),
	}
	s.stats.ID = id
	return s
}

func (s *Session) ID() [16]byte { return s.id }

func (s *Session) Coordinator() *core.Coordinator { return s.coordinator }

func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// onTerminalOutput correlates a PTY handle back to the cell it belongs to.
// The stack engine only tracks cells by identity, so the session keeps its
// own handle->id map rather than teaching core about PTY handles.
func (s *Session) onTerminalOutput(handle string, line []byte) {
	id, ok := s.handleToCell(handle)
	if !ok {
		return
	}
	s.coordinator.OnTerminalLine(id)
	s.indexLine(id, line)
}

// onAltScreen correlates a PTY handle back to its cell and drives the
// coordinator's freeze/unfreeze of that cell's sizing state machine.
func (s *Session) onAltScreen(handle string, entering bool) {
	id, ok := s.handleToCell(handle)
	if !ok {
		return
	}
	if entering {
		s.coordinator.OnAltScreenEnter(id)
	} else {
		s.coordinator.OnAltScreenExit(id)
	}
}

func (s *Session) indexLine(id core.CellID, line []byte) {
	if s.index == nil {
		return
	}
	s.mu.Lock()
	idx := s.lineCount[id]
	s.lineCount[id]++
	s.mu.Unlock()

	if err := s.index.IndexLine(id, idx, time.Now(), string(line), false); err != nil {
		log.Printf("server: failed to index scrollback line: %v", err)
	}
}

// SearchScrollback searches this session's own cells (cell zero-value means
// every cell) for query, returning nothing if no index is configured.
func (s *Session) SearchScrollback(cell core.CellID, query string, limit int) ([]scrollback.Result, error) {
	if s.index == nil {
		return nil, nil
	}
	if cell == (core.CellID{}) {
		return s.index.SearchAll(query, limit)
	}
	return s.index.Search(cell, query, limit)
}

func (s *Session) handleToCell(handle string) (core.CellID, bool) {
	for _, cell := range s.coordinator.Model().Cells() {
		if cell.Kind == core.CellTerminal && cell.Terminal != nil && cell.Terminal.TerminalHandle == handle {
			return cell.ID, true
		}
	}
	return core.CellID{}, false
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.terminals == nil {
		return
	}
	for _, cell := range s.coordinator.Model().Cells() {
		if cell.Kind == core.CellTerminal && cell.Terminal != nil {
			s.terminals.Close(cell.Terminal.TerminalHandle)
		}
	}
}
