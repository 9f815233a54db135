package snapshot

import (
	"testing"
	"time"

	"github.com/cuemby/coldb/pkg/config"
	"github.com/cuemby/coldb/pkg/manager"
)

func newTestManager(t *testing.T) *manager.Manager {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	m, err := manager.New(cfg)
	if err != nil {
		t.Fatalf("manager.New() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestSnapshotNow(t *testing.T) {
	m := newTestManager(t)
	s := New(m, 0)

	if err := s.SnapshotNow(); err != nil {
		t.Fatalf("SnapshotNow() error = %v", err)
	}
}

func TestSnapshotterPeriodicLoop(t *testing.T) {
	m := newTestManager(t)
	s := New(m, 10*time.Millisecond)

	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.Stop()
}

func TestSnapshotterZeroIntervalDisabled(t *testing.T) {
	m := newTestManager(t)
	s := New(m, 0)

	s.Start()
	s.Stop()
}

func TestSnapshotterStopWithoutStart(t *testing.T) {
	m := newTestManager(t)
	s := New(m, time.Second)
	s.Stop()
}
