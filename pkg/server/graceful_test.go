package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

// fakeFront stands in for the HTTP server: Start blocks until Shutdown.
type fakeFront struct {
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newFakeFront() *fakeFront {
	return &fakeFront{stopCh: make(chan struct{})}
}

func (f *fakeFront) Start() error {
	<-f.stopCh
	return http.ErrServerClosed
}

func (f *fakeFront) Shutdown(ctx context.Context) error {
	f.stopOnce.Do(func() { close(f.stopCh) })
	return nil
}

func TestGracefulShutdownOrder(t *testing.T) {
	front := newFakeFront()
	gs := NewGracefulServer(front, nil)

	var order []string
	var mu sync.Mutex
	record := func(name string) func(context.Context) error {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}
	gs.AddComponent("supervisor", record("supervisor"))
	gs.AddComponent("history", record("history"))
	gs.AddComponent("ring", record("ring"))

	runErr := make(chan error, 1)
	go func() { runErr <- gs.Run() }()

	// Give Run time to block in Start.
	time.Sleep(50 * time.Millisecond)

	if err := gs.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"supervisor", "history", "ring"}
	if len(order) != len(want) {
		t.Fatalf("Closed %d components, want %d: %v", len(order), len(want), order)
	}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("order[%d] = %s, want %s", i, order[i], name)
		}
	}
}

func TestGracefulShutdownTwice(t *testing.T) {
	front := newFakeFront()
	gs := NewGracefulServer(front, nil)

	closed := 0
	gs.AddComponent("once", func(ctx context.Context) error {
		closed++
		return nil
	})

	go gs.Run()
	time.Sleep(20 * time.Millisecond)

	if err := gs.Shutdown(time.Second); err != nil {
		t.Fatalf("First Shutdown: %v", err)
	}
	if err := gs.Shutdown(time.Second); err != nil {
		t.Fatalf("Second Shutdown: %v", err)
	}
	if closed != 1 {
		t.Errorf("Component closed %d times, want 1", closed)
	}
}

func TestGracefulShutdownReportsComponentError(t *testing.T) {
	front := newFakeFront()
	gs := NewGracefulServer(front, nil)

	boom := errors.New("store close failed")
	gs.AddComponent("store", func(ctx context.Context) error { return boom })

	reached := false
	gs.AddComponent("after", func(ctx context.Context) error {
		reached = true
		return nil
	})

	go gs.Run()
	time.Sleep(20 * time.Millisecond)

	if err := gs.Shutdown(time.Second); !errors.Is(err, boom) {
		t.Errorf("Shutdown error = %v, want %v", err, boom)
	}
	// One failing component must not stop the rest from closing.
	if !reached {
		t.Error("Later component did not close after an earlier failure")
	}
}

func TestIsShuttingDown(t *testing.T) {
	front := newFakeFront()
	gs := NewGracefulServer(front, nil)

	if gs.IsShuttingDown() {
		t.Error("Fresh server reports shutting down")
	}

	go gs.Run()
	time.Sleep(20 * time.Millisecond)
	gs.Shutdown(time.Second)

	if !gs.IsShuttingDown() {
		t.Error("Server does not report shutting down after Shutdown")
	}

	select {
	case <-gs.ShutdownChannel():
	default:
		t.Error("ShutdownChannel still open after Shutdown")
	}
}

// TestGracefulServer_ReloadConfig tests the ReloadConfig method
func TestGracefulServer_ReloadConfig(t *testing.T) {
	gs := NewGracefulServer(newFakeFront(), nil)

	reloadCalled := false
	gs.SetConfigReloadFunc(func() error {
		reloadCalled = true
		return nil
	})

	if err := gs.ReloadConfig(); err != nil {
		t.Errorf("ReloadConfig() error = %v", err)
	}
	if !reloadCalled {
		t.Error("Config reload function was not called")
	}
}

// TestGracefulServer_ReloadConfigWithError tests error handling during reload
func TestGracefulServer_ReloadConfigWithError(t *testing.T) {
	gs := NewGracefulServer(newFakeFront(), nil)

	gs.SetConfigReloadFunc(func() error {
		return http.ErrServerClosed
	})

	err := gs.ReloadConfig()
	if err == nil {
		t.Error("ReloadConfig() expected error, got nil")
	}
	if err != http.ErrServerClosed {
		t.Errorf("ReloadConfig() error = %v, want %v", err, http.ErrServerClosed)
	}
}

func TestReloadConfigWithoutFunc(t *testing.T) {
	gs := NewGracefulServer(newFakeFront(), nil)
	if err := gs.ReloadConfig(); err != nil {
		t.Errorf("ReloadConfig() without a function = %v, want nil", err)
	}
}
