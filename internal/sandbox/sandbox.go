// Package sandbox runs persisted analysis scripts inside an isolated,
// resource-bounded process with an enforced wall-clock timeout.
//
// The isolation technology sits behind the Launcher interface so a container
// engine can be swapped for another mechanism without touching callers.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultTimeout is the wall-clock limit for one sandboxed execution.
const DefaultTimeout = time.Hour

// Launcher executes a previously persisted script inside an isolated
// environment.
//
// Contract:
//   - Execute blocks until the process exits or the wall-clock timeout elapses.
//   - Non-zero exit and timeout are normal Results, never errors.
//   - A launch precondition failure (missing configuration, unlaunchable
//     process) is returned as an error without a Result.
//   - No retry at this layer; every invocation is exactly-once.
type Launcher interface {
	Execute(ctx context.Context, scriptPath string) (Result, error)
}

// runCommand runs argv with the given timeout, capturing stdout and stderr
// separately, and classifies the outcome. A process that cannot be started
// at all returns an error.
func runCommand(ctx context.Context, timeout time.Duration, argv []string) (Result, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		// Partial stderr captured up to the kill is kept.
		return Result{Status: StatusTimedOut, Stdout: stdout.String(), Stderr: stderr.String()}, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Status: StatusFailed, Stdout: stdout.String(), Stderr: stderr.String()}, nil
		}
		return Result{}, err
	}

	return Result{Status: StatusSucceeded, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}
