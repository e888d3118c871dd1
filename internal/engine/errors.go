package engine

import "fmt"

// FatalError ends a run without a bounded retry: schema introspection,
// generator or extraction failures.
type FatalError struct {
	Stage State
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// ExhaustedError reports that every correction cycle was used and the last
// candidate still failed.
type ExhaustedError struct {
	Attempts  int
	LastError string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("Failed to execute SQL after %d attempts. Last error: %s", e.Attempts, e.LastError)
}
