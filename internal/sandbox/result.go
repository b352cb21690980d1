package sandbox

import "fmt"

// Status classifies how a sandboxed execution ended.
type Status string

const (
	// StatusSucceeded means the process exited with status 0.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the process exited non-zero.
	StatusFailed Status = "failed"
	// StatusTimedOut means the wall-clock limit elapsed and the process was
	// forcibly terminated.
	StatusTimedOut Status = "timed_out"
)

// Result is the outcome of one sandbox invocation. It is produced exactly
// once per launch and consumed immediately by the caller; a non-zero exit or
// timeout is a normal result, not an error.
type Result struct {
	Status Status
	Stdout string
	Stderr string
}

// Report renders the result as the textual outcome returned to the caller.
func (r Result) Report() string {
	switch r.Status {
	case StatusSucceeded:
		return fmt.Sprintf("--- ART Core Execution Successful ---\nSTDOUT:\n%s", r.Stdout)
	case StatusTimedOut:
		return fmt.Sprintf("--- ERROR: ART Core execution timed out. ---\nSTDERR:\n%s", r.Stderr)
	default:
		return fmt.Sprintf("--- ERROR Running ART Core ---\nSTDERR:\n%s", r.Stderr)
	}
}
