package config

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// LockFile is the well-known run-lock filename (spec.md §4.11, §6).
const LockFile = ".bogrep.lock"

// ErrAlreadyRunning is returned when a live lock is held by another process.
var ErrAlreadyRunning = fmt.Errorf("config: another bogrep process is already running")

type lockContents struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// Lock acquires the run lock in dir, reclaiming a stale lock (whose pid is
// no longer alive) automatically. The returned release func must be
// called on every exit path, including signal-driven ones.
func Lock(dir string) (release func(), err error) {
	path := filepath.Join(dir, LockFile)

	if existing, readErr := os.ReadFile(path); readErr == nil {
		var l lockContents
		if jsonErr := json.Unmarshal(existing, &l); jsonErr == nil && processAlive(l.PID) {
			return nil, ErrAlreadyRunning
		}
		// Stale: pid not alive, reclaim by overwriting below.
	}

	contents := lockContents{PID: os.Getpid(), StartedAt: time.Now()}
	data, err := json.Marshal(contents)
	if err != nil {
		return nil, fmt.Errorf("config: marshal lock: %w", err)
	}
	if err := atomicWrite(path, data); err != nil {
		return nil, fmt.Errorf("config: write lock: %w", err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		os.Remove(path)
	}, nil
}

// processAlive reports whether pid names a live process, via the
// zero-signal probe (syscall.Kill(pid, 0)).
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, syscall.Signal(0)) == nil
}
