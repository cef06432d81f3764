package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// storePingTimeout bounds a history store ping so a wedged database does
// not stall the health endpoint.
const storePingTimeout = 2 * time.Second

// SimpleCheck creates a simple health check that always returns healthy
func SimpleCheck(name string) Check {
	return Check{
		Name:        name,
		Status:      StatusHealthy,
		LastChecked: time.Now(),
	}
}

// DirWritableCheck verifies the directory exists (creating it if needed)
// and that a probe file can be written and removed.
func DirWritableCheck(name, dir string) CheckFunc {
	return func() Check {
		check := Check{
			Name:    name,
			Details: map[string]any{"dir": dir},
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			check.Status = StatusUnhealthy
			check.Message = fmt.Sprintf("cannot create directory: %v", err)
			return check
		}

		probe := filepath.Join(dir, ".health-probe")
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			check.Status = StatusUnhealthy
			check.Message = fmt.Sprintf("cannot write: %v", err)
			return check
		}
		os.Remove(probe)

		check.Status = StatusHealthy
		check.Message = "Writable"
		return check
	}
}

// CommandCheck verifies the benchmark command can be resolved. Bare names
// are looked up in PATH; paths are checked directly.
func CommandCheck(command string) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "benchmark_command",
			Details: map[string]any{"command": command},
		}

		var err error
		if strings.ContainsRune(command, os.PathSeparator) {
			_, err = os.Stat(command)
		} else {
			_, err = exec.LookPath(command)
		}

		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}

		check.Status = StatusHealthy
		check.Message = "Resolvable"
		return check
	}
}

// StoreCheck verifies the history store answers a ping.
func StoreCheck(ping func(ctx context.Context) error) CheckFunc {
	return func() Check {
		check := Check{
			Name: "history_store",
		}

		ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}

		return check
	}
}
