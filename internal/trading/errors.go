// Package trading is the execution core: it validates trade requests, applies
// them to positions with weighted-average cost accounting, and keeps portfolio
// aggregates consistent. All mutation for one portfolio is serialized behind a
// per-portfolio lock.
package trading

import "fmt"

// Rejection reasons carried by TradeError. Handlers map these onto HTTP
// status codes; the strings are part of the API surface.
const (
	ReasonUnauthorized         = "unauthorized"
	ReasonInvalidQuantity      = "invalid_quantity"
	ReasonInsufficientPosition = "insufficient_position"
	ReasonNotCancellable       = "not_cancellable"
	ReasonStorage              = "storage"
)

// TradeError is a rejected or failed trade with a machine-readable reason.
type TradeError struct {
	Reason string
	Detail string
	Err    error
}

func (e *TradeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("trade rejected (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("trade rejected (%s)", e.Reason)
}

func (e *TradeError) Unwrap() error { return e.Err }

func rejectf(reason, format string, args ...any) *TradeError {
	return &TradeError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func storageErr(err error) *TradeError {
	return &TradeError{Reason: ReasonStorage, Detail: "persistence failure", Err: err}
}
