package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidPrompt = errors.New("invalid prompt")
	ErrNoFormats     = errors.New("no formats requested")
	ErrJobInFlight   = errors.New("job already in flight")
	ErrInvalidJob    = errors.New("invalid job id")
	ErrNoJob         = errors.New("no job")
	ErrBusy          = errors.New("busy completing")
)
