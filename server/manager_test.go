package server

import (
	"testing"
	"time"
)

type publishFunc func(*Session, int, time.Duration)

func (f publishFunc) ObservePublish(s *Session, paneCount int, d time.Duration) { f(s, paneCount, d) }

type statsFunc func(SessionStats)

func (f statsFunc) ObserveSessionStats(stats SessionStats) { f(stats) }

func TestManagerNewSessionIsLookupable(t *testing.T) {
	m := NewManager()
	session, err := m.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if m.ActiveSessions() != 1 {
		t.Fatalf("want 1 active session, got %d", m.ActiveSessions())
	}

	found, err := m.Lookup(session.ID())
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found != session {
		t.Fatal("Lookup returned a different session instance")
	}
}

func TestManagerLookupMissingReturnsError(t *testing.T) {
	m := NewManager()
	if _, err := m.Lookup([16]byte{1, 2, 3}); err != ErrSessionNotFound {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
}

func TestManagerCloseRemovesSession(t *testing.T) {
	m := NewManager()
	session, _ := m.NewSession()
	m.Close(session.ID())

	if m.ActiveSessions() != 0 {
		t.Fatalf("want 0 active sessions after close, got %d", m.ActiveSessions())
	}
	if _, err := m.Lookup(session.ID()); err != ErrSessionNotFound {
		t.Fatalf("got %v, want ErrSessionNotFound after close", err)
	}
}

func TestManagerAppliesMetricsObserversToNewSessions(t *testing.T) {
	m := NewManager()
	publishCalls := 0
	statsCalls := 0
	m.SetMetricsObservers(
		publishFunc(func(*Session, int, time.Duration) { publishCalls++ }),
		statsFunc(func(SessionStats) { statsCalls++ }),
	)

	session, _ := m.NewSession()
	session.recordDispatch(1, 0)

	if publishCalls != 1 {
		t.Fatalf("want 1 publish observation, got %d", publishCalls)
	}
	if statsCalls != 1 {
		t.Fatalf("want 1 stats observation, got %d", statsCalls)
	}
}
