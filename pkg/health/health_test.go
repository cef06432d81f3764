package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewHealthChecker(t *testing.T) {
	hc := NewHealthChecker()

	if hc == nil {
		t.Fatal("NewHealthChecker returned nil")
	}
	if hc.checks == nil {
		t.Error("checks map not initialized")
	}
	if hc.startTime.IsZero() {
		t.Error("startTime not set")
	}
}

func TestRegisterCheck(t *testing.T) {
	hc := NewHealthChecker()

	called := false
	hc.RegisterCheck("test", func() Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	resp := hc.Check()
	if !called {
		t.Error("registered check was not called")
	}
	if _, exists := resp.Checks["test"]; !exists {
		t.Error("check result not in response")
	}
}

func TestCheckStatusAggregation(t *testing.T) {
	tests := []struct {
		name           string
		checkStatuses  []Status
		expectedStatus Status
	}{
		{
			name:           "all healthy",
			checkStatuses:  []Status{StatusHealthy, StatusHealthy, StatusHealthy},
			expectedStatus: StatusHealthy,
		},
		{
			name:           "one degraded",
			checkStatuses:  []Status{StatusHealthy, StatusDegraded, StatusHealthy},
			expectedStatus: StatusDegraded,
		},
		{
			name:           "one unhealthy",
			checkStatuses:  []Status{StatusHealthy, StatusUnhealthy, StatusHealthy},
			expectedStatus: StatusUnhealthy,
		},
		{
			name:           "degraded and unhealthy",
			checkStatuses:  []Status{StatusDegraded, StatusUnhealthy, StatusHealthy},
			expectedStatus: StatusUnhealthy,
		},
		{
			name:           "no checks",
			checkStatuses:  []Status{},
			expectedStatus: StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()

			for i, status := range tt.checkStatuses {
				s := status // capture
				hc.RegisterCheck(string(rune('a'+i)), func() Check {
					return Check{Status: s}
				})
			}

			resp := hc.Check()
			if resp.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, resp.Status)
			}
		})
	}
}

func TestCheckDuration(t *testing.T) {
	hc := NewHealthChecker()

	sleepDuration := 10 * time.Millisecond
	hc.RegisterCheck("slow", func() Check {
		time.Sleep(sleepDuration)
		return Check{Status: StatusHealthy}
	})

	resp := hc.Check()
	check := resp.Checks["slow"]

	if check.Duration < sleepDuration {
		t.Errorf("duration %v less than sleep time %v", check.Duration, sleepDuration)
	}
}

func TestCheckUptime(t *testing.T) {
	hc := NewHealthChecker()

	time.Sleep(5 * time.Millisecond)
	resp := hc.Check()

	if resp.Uptime <= 0 {
		t.Errorf("expected positive uptime, got %v", resp.Uptime)
	}
}

func TestDirWritableCheck(t *testing.T) {
	t.Run("writable directory", func(t *testing.T) {
		check := DirWritableCheck("results_dir", t.TempDir())()

		if check.Status != StatusHealthy {
			t.Errorf("expected healthy, got %s (%s)", check.Status, check.Message)
		}
		if check.Message != "Writable" {
			t.Errorf("expected message 'Writable', got %q", check.Message)
		}
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "not", "yet", "there")
		check := DirWritableCheck("results_dir", dir)()

		if check.Status != StatusHealthy {
			t.Errorf("expected healthy, got %s (%s)", check.Status, check.Message)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("directory was not created: %v", err)
		}
	})

	t.Run("path under a file is unhealthy", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "blocker")
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}

		check := DirWritableCheck("results_dir", filepath.Join(file, "sub"))()
		if check.Status != StatusUnhealthy {
			t.Errorf("expected unhealthy, got %s", check.Status)
		}
	})
}

func TestCommandCheck(t *testing.T) {
	t.Run("existing path", func(t *testing.T) {
		bin := filepath.Join(t.TempDir(), "runbench")
		if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}

		check := CommandCheck(bin)()
		if check.Status != StatusHealthy {
			t.Errorf("expected healthy, got %s (%s)", check.Status, check.Message)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		check := CommandCheck(filepath.Join(t.TempDir(), "nope"))()
		if check.Status != StatusUnhealthy {
			t.Errorf("expected unhealthy, got %s", check.Status)
		}
	})

	t.Run("bare name not in PATH", func(t *testing.T) {
		check := CommandCheck("definitely-not-a-real-command-491274")()
		if check.Status != StatusUnhealthy {
			t.Errorf("expected unhealthy, got %s", check.Status)
		}
	})
}

func TestStoreCheck(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus Status
		expectedMsg    string
	}{
		{
			name:           "connected",
			pingErr:        nil,
			expectedStatus: StatusHealthy,
			expectedMsg:    "Connected",
		},
		{
			name:           "connection error",
			pingErr:        errors.New("connection refused"),
			expectedStatus: StatusUnhealthy,
			expectedMsg:    "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkFunc := StoreCheck(func(ctx context.Context) error {
				return tt.pingErr
			})

			check := checkFunc()

			if check.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, check.Status)
			}
			if check.Message != tt.expectedMsg {
				t.Errorf("expected message %q, got %q", tt.expectedMsg, check.Message)
			}
			if check.Name != "history_store" {
				t.Errorf("expected name 'history_store', got %s", check.Name)
			}
		})
	}
}

func TestHTTPHandler(t *testing.T) {
	tests := []struct {
		name         string
		checkStatus  Status
		expectedCode int
	}{
		{
			name:         "healthy returns 200",
			checkStatus:  StatusHealthy,
			expectedCode: http.StatusOK,
		},
		{
			name:         "degraded returns 200",
			checkStatus:  StatusDegraded,
			expectedCode: http.StatusOK,
		},
		{
			name:         "unhealthy returns 503",
			checkStatus:  StatusUnhealthy,
			expectedCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			hc.RegisterCheck("test", func() Check {
				return Check{Status: tt.checkStatus}
			})

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()

			hc.HTTPHandler()(rec, req)

			if rec.Code != tt.expectedCode {
				t.Errorf("expected status code %d, got %d", tt.expectedCode, rec.Code)
			}

			if rec.Header().Get("Content-Type") != "application/json" {
				t.Error("expected Content-Type application/json")
			}

			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if resp.Status != tt.checkStatus {
				t.Errorf("expected response status %s, got %s", tt.checkStatus, resp.Status)
			}
		})
	}
}

func TestConcurrentCheckRegistration(t *testing.T) {
	hc := NewHealthChecker()

	// Register checks concurrently
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			hc.RegisterCheck(string(rune('a'+id)), func() Check {
				return Check{Status: StatusHealthy}
			})
			done <- true
		}(i)
	}

	// Wait for all registrations
	for i := 0; i < 10; i++ {
		<-done
	}

	// Run checks concurrently
	for i := 0; i < 10; i++ {
		go func() {
			hc.Check()
			done <- true
		}()
	}

	// Wait for all checks
	for i := 0; i < 10; i++ {
		<-done
	}

	// Verify all checks registered
	resp := hc.Check()
	if len(resp.Checks) != 10 {
		t.Errorf("expected 10 checks, got %d", len(resp.Checks))
	}
}
