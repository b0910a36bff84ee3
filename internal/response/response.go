// Package response defines the canonical envelope every tool call returns:
// a fixed set of top-level fields plus a closed-set meta block. The
// contract is deliberately rigid — a drifted meta key set is a
// programming error, not a runtime condition to tolerate.
package response

import (
	"fmt"
	"time"
)

// ContractVersion is embedded in every response. Bump only on a breaking
// envelope change.
const ContractVersion = "1.1"

// Status values.
const (
	StatusOK      = "ok"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// Code values. A response's Code must always be consistent with Status:
// ok -> success; blocked -> blocked; error -> one of the remaining four.
const (
	CodeSuccess      = "success"
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeBlocked      = "blocked"
	CodeToolFailed   = "tool_failed"
	CodeTimeout      = "timeout"
)

// CanonicalMetaKeys is the closed set every meta block must contain,
// exactly, before a response is emitted.
var CanonicalMetaKeys = []string{
	"audit_id", "tool", "risk", "decision", "code", "duration_ms",
	"run_id", "run_counter", "policy_hash", "policy_profile",
	"server_instance_id", "output_truncated", "timestamp",
}

// Meta is the canonical meta block. RunID is an empty string when not
// applicable (marshaled as "" rather than omitted, to keep the key set
// closed and the envelope shape stable across responses).
type Meta struct {
	AuditID          string `json:"audit_id"`
	Tool             string `json:"tool"`
	Risk             string `json:"risk"`
	Decision         string `json:"decision"`
	Code             string `json:"code"`
	DurationMs       int64  `json:"duration_ms"`
	RunID            string `json:"run_id"`
	RunCounter       int64  `json:"run_counter"`
	PolicyHash       string `json:"policy_hash"`
	PolicyProfile    string `json:"policy_profile"`
	ServerInstanceID string `json:"server_instance_id"`
	OutputTruncated  bool   `json:"output_truncated"`
	Timestamp        string `json:"timestamp"`
}

// NewTimestamp returns the current UTC time formatted as the contract
// requires: ISO-8601 with a literal "Z" suffix.
func NewTimestamp(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Response is the full envelope returned by every tool call.
type Response struct {
	ContractVersion      string         `json:"contract_version"`
	Status               string         `json:"status"`
	Code                 string         `json:"code"`
	Summary              string         `json:"summary"`
	Data                 map[string]any `json:"data"`
	Warnings             []string       `json:"warnings"`
	NextSuggestedActions []string       `json:"next_suggested_actions"`
	Meta                 Meta           `json:"meta"`
}

// finalize applies the one cross-cutting invariant the contract demands:
// meta.code always mirrors the top-level code, even if the caller built
// Meta before the final code was known.
func finalize(r Response) Response {
	r.Meta.Code = r.Code
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	if r.NextSuggestedActions == nil {
		r.NextSuggestedActions = []string{}
	}
	return r
}

// Success builds an "ok" response.
func Success(summary string, data map[string]any, meta Meta) Response {
	return finalize(Response{
		ContractVersion: ContractVersion,
		Status:          StatusOK,
		Code:            CodeSuccess,
		Summary:         summary,
		Data:            data,
		Meta:            meta,
	})
}

// Blocked builds a "blocked" response, nesting the policy violation under
// data.policy_violation as the original contract requires.
func Blocked(reason string, violation Violation, meta Meta) Response {
	return finalize(Response{
		ContractVersion: ContractVersion,
		Status:          StatusBlocked,
		Code:            CodeBlocked,
		Summary:         fmt.Sprintf("Action blocked: %s", reason),
		Data:            map[string]any{"policy_violation": violation},
		Meta:            meta,
	})
}

// Error builds an "error" response with the given code (anything except
// success/blocked) and optional structured details.
func Error(message, code string, details map[string]any, meta Meta) Response {
	if details == nil {
		details = map[string]any{}
	}
	return finalize(Response{
		ContractVersion: ContractVersion,
		Status:          StatusError,
		Code:            code,
		Summary:         message,
		Data:            details,
		Meta:            meta,
	})
}

// Violation describes the specific policy rule that rejected a call.
type Violation struct {
	Key        string         `json:"key"`
	Details    map[string]any `json:"details"`
	ConfigPath string         `json:"config_path"`
}
