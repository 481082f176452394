package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrProviderUnavailable = errors.New("travel provider unavailable")
	ErrPersistence         = errors.New("persistence failure")
)

// ErrorCode classifies a per-agent or run-level failure for API consumers.
type ErrorCode string

const (
	CodeInvalidInput        ErrorCode = "INVALID_INPUT"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	CodePersistence         ErrorCode = "PERSISTENCE_ERROR"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// CodeFor maps an error chain to its ErrorCode.
func CodeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrProviderUnavailable):
		return CodeProviderUnavailable
	case errors.Is(err, ErrPersistence):
		return CodePersistence
	default:
		return CodeInternal
	}
}
