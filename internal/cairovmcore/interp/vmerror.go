package interp

import (
	"fmt"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
)

// ErrorCode classifies a VmException the way the public API surfaces it.
type ErrorCode int

const (
	ErrUnknown ErrorCode = iota
	ErrInstructionDecode
	ErrUnknownOperand
	ErrDiffAssertValues
	ErrInvalidCallOperands
	ErrInvalidJump
	ErrInconsistentMemory
	ErrInconsistentAutoDeduction
	ErrHintFailed
	ErrUnbalancedScopes
)

// VmException wraps a failure with the run state needed to explain it: the
// pc it happened at, the traceback of calls leading there, which hint (if
// any) was executing, and the underlying cause. Mirrors cairo-lang's
// VmException, the exception type run_instruction wraps every inner error
// in before it escapes the step loop.
type VmException struct {
	Code       ErrorCode
	Pc         memory.Relocatable
	Cause      error
	Traceback  []memory.Relocatable
	HintIndex  int // -1 when the failure happened outside hint execution
	Notes      []string
}

// FormatTraceback renders a traceback the way cairo-lang's get_traceback
// does: one "Unknown location (pc=...)" line per call site, most recent call
// last. Returns "" when tb is empty so callers can omit the section entirely.
func FormatTraceback(tb []memory.Relocatable) string {
	if len(tb) == 0 {
		return ""
	}
	s := "cairo traceback:"
	for _, pc := range tb {
		s += fmt.Sprintf("\n  Unknown location (pc=%s)", pc.String())
	}
	return s
}

// Error renders the exception with its pc and, if present, the hint index
// and traceback, the same diagnostic shape cairo-lang's VmException.__str__
// produces.
func (e *VmException) Error() string {
	msg := fmt.Sprintf("vm error at pc=%s: %v", e.Pc.String(), e.Cause)
	if e.HintIndex >= 0 {
		msg = fmt.Sprintf("%s (while executing hint %d)", msg, e.HintIndex)
	}
	for _, n := range e.Notes {
		msg = fmt.Sprintf("%s\n  note: %s", msg, n)
	}
	if tb := FormatTraceback(e.Traceback); tb != "" {
		msg += "\n" + tb
	}
	return msg
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *VmException) Unwrap() error { return e.Cause }

// wrap builds a VmException at pc with the given cause and traceback,
// tagging the hint index if one was executing (-1 otherwise).
func wrap(code ErrorCode, pc memory.Relocatable, cause error, traceback []memory.Relocatable, hintIndex int) *VmException {
	return &VmException{
		Code:      code,
		Pc:        pc,
		Cause:     cause,
		Traceback: traceback,
		HintIndex: hintIndex,
	}
}
