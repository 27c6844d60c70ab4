package analysis

import "fmt"

// ParseError: the structural analyzer could not parse a file for its
// declared language. The file is skipped and recorded as a gap.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AgentError: a specialist review failed (remote call error, timeout, or
// malformed model output). Scoped to one (file, role) pair.
type AgentError struct {
	Role Role
	Path string
	Err  error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s review of %s: %v", e.Role, e.Path, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// SynthesisError: one of the two summary stages failed. Non-fatal; the run
// completes with an empty executive summary.
type SynthesisError struct {
	Stage string // themes | narrative
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis stage %s: %v", e.Stage, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
