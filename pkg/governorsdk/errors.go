package governorsdk

import (
	"errors"
	"fmt"

	"github.com/workspace-governor/governor/internal/response"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrActionBlocked is returned when a policy evaluation results in a
	// blocked decision.
	ErrActionBlocked = errors.New("action blocked")

	// ErrActionFailed is returned when a call completes with a non-blocked
	// error status (invalid input, not found, tool failure, timeout).
	ErrActionFailed = errors.New("action failed")
)

// ActionBlockedError is returned when the governor's policy pipeline
// blocks an action. It carries the same violation the response envelope
// nests under data.policy_violation.
type ActionBlockedError struct {
	Violation response.Violation
	Summary   string
	AuditID   string
}

func (e *ActionBlockedError) Error() string {
	if e.Violation.Key != "" {
		return fmt.Sprintf("action blocked by %s: %s", e.Violation.Key, e.Summary)
	}
	return fmt.Sprintf("action blocked: %s", e.Summary)
}

// Is reports whether this error matches the target error, supporting
// errors.Is(err, ErrActionBlocked).
func (e *ActionBlockedError) Is(target error) bool {
	return target == ErrActionBlocked
}

// ActionFailedError is returned for any non-ok, non-blocked response
// status (invalid_input, not_found, tool_failed, timeout).
type ActionFailedError struct {
	Code    string
	Summary string
	AuditID string
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("action failed [%s]: %s", e.Code, e.Summary)
}

// Is reports whether this error matches the target error, supporting
// errors.Is(err, ErrActionFailed).
func (e *ActionFailedError) Is(target error) bool {
	return target == ErrActionFailed
}
