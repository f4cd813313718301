package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/catpoint/internal/logger"
)

// ErrAlreadyRunning indicates another server process owns the controller state.
var ErrAlreadyRunning = errors.New("another catpoint-server is already running")

// processLister returns the running processes.
type processLister func() ([]ps.Process, error)

// ensureSingleInstance fails when another process runs the same executable.
func ensureSingleInstance(ctx context.Context) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("detect executable: %w", err)
	}

	pids, err := findInstances(ps.Processes, filepath.Base(executable), os.Getpid())
	if err != nil {
		// Listing may be forbidden in containers; do not block the start.
		logger.WarnKV(ctx, "Unable to list processes", "error", err)

		return nil
	}

	if len(pids) > 0 {
		return fmt.Errorf("%w: pid %v, use --force to start anyway", ErrAlreadyRunning, pids)
	}

	return nil
}

// findInstances returns the identifiers of other processes named processName.
func findInstances(list processLister, processName string, thisProcessID int) ([]int, error) {
	processList, err := list()
	if err != nil {
		return nil, err
	}

	var pids []int

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}
