// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, not_found, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., vote_pending, version_mismatch) describe
//     session state errors that cannot be conveyed by status alone.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "version_mismatch",
//	  "message": "play was modified concurrently, re-fetch and retry"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeDeckTooSmall     = "deck_too_small"
	ErrCodePlayExpired      = "play_expired"
	ErrCodePlayCompleted    = "play_completed"
	ErrCodeVotePending      = "vote_pending"
	ErrCodeNoVotePending    = "no_vote_pending"
	ErrCodeStaleComparison  = "stale_comparison"
	ErrCodeVersionMismatch  = "version_mismatch"
	ErrCodeResultsNotReady  = "results_not_ready"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
