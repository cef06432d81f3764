package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32

	// Trigger rapidly 10 times
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	// Wait for debounce to complete
	time.Sleep(100 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool

	d.Trigger(func() {
		called.Store(true)
	})

	// Cancel before debounce completes
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_DetectsNewFile(t *testing.T) {
	dir := t.TempDir()

	var hits atomic.Int32
	w, err := New([]string{dir},
		WithDebounceDuration(30*time.Millisecond),
		WithOnChange(func(string) { hits.Add(1) }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)

	if err := os.WriteFile(filepath.Join(dir, "experiment_results_01-01-26_10_00.csv"), []byte("round,elapsed_ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return hits.Load() > 0 }) {
		t.Error("change was not detected")
	}
}

func TestWatcher_PollingDetectsNewFile(t *testing.T) {
	dir := t.TempDir()

	w, err := New([]string{dir},
		WithForcePoll(true),
		WithPollInterval(30*time.Millisecond),
		WithDebounceDuration(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)

	if !w.IsPolling() {
		t.Fatal("forced polling mode not active")
	}

	if err := os.WriteFile(filepath.Join(dir, "cfg.yaml"), []byte("Query: Q1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Changed():
		if got != w.Dirs()[0] {
			t.Errorf("changed dir = %s, want %s", got, w.Dirs()[0])
		}
	case <-time.After(2 * time.Second):
		t.Error("no change signal received")
	}
}

func TestWatcher_StartTwice(t *testing.T) {
	w, err := New([]string{t.TempDir()}, WithForcePoll(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)

	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestWatcher_CreatesMissingDirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "configs")

	w, err := New([]string{dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("watched dir was not created: %v", err)
	}
	_ = w
}
