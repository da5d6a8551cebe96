package core

import (
	"net/http"
)

// Error is a typed ledger failure. Kind is the wire error string, the
// status is what the HTTP adapter answers with. Parameter errors carry
// the offending parameter name.
type Error struct {
	Kind   string
	Status int
	Param  string
}

func (e *Error) Error() string {
	if e.Param != "" {
		return "core: " + e.Kind + " (" + e.Param + ")"
	}
	return "core: " + e.Kind
}

// Is matches errors by kind, so sentinel comparisons work across
// instances carrying different parameters.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrAuthFailed          = &Error{Kind: "auth_failed", Status: http.StatusUnauthorized}
	ErrAddressNotFound     = &Error{Kind: "address_not_found", Status: http.StatusNotFound}
	ErrNameNotFound        = &Error{Kind: "name_not_found", Status: http.StatusNotFound}
	ErrBlockNotFound       = &Error{Kind: "block_not_found", Status: http.StatusNotFound}
	ErrTransactionNotFound = &Error{Kind: "transaction_not_found", Status: http.StatusNotFound}
	ErrInsufficientFunds   = &Error{Kind: "insufficient_funds", Status: http.StatusForbidden}
	ErrNotNameOwner        = &Error{Kind: "not_name_owner", Status: http.StatusForbidden}
	ErrSolutionIncorrect   = &Error{Kind: "solution_incorrect", Status: http.StatusForbidden}
	ErrUnselectedValidator = &Error{Kind: "unselected_validator", Status: http.StatusForbidden}
	ErrInvalidToken        = &Error{Kind: "invalid_token", Status: http.StatusForbidden}
	ErrNameTaken           = &Error{Kind: "name_taken", Status: http.StatusConflict}
	ErrSolutionDuplicate   = &Error{Kind: "solution_duplicate", Status: http.StatusConflict}
	ErrMiningDisabled      = &Error{Kind: "mining_disabled", Status: http.StatusLocked}
	ErrRateLimit           = &Error{Kind: "rate_limit_hit", Status: http.StatusTooManyRequests}
	ErrServer              = &Error{Kind: "server_error", Status: http.StatusInternalServerError}
)

// ErrMissingParameter flags an absent request parameter.
func ErrMissingParameter(name string) *Error {
	return &Error{Kind: "missing_parameter", Status: http.StatusBadRequest, Param: name}
}

// ErrInvalidParameter flags a malformed request parameter.
func ErrInvalidParameter(name string) *Error {
	return &Error{Kind: "invalid_parameter", Status: http.StatusBadRequest, Param: name}
}

// ErrLargeParameter flags a parameter over its size bound.
func ErrLargeParameter(name string) *Error {
	return &Error{Kind: "large_parameter", Status: http.StatusBadRequest, Param: name}
}
