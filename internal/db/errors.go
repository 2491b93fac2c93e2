package db

import "errors"

// ErrKeyNotFound is returned by Get for absent keys.
var ErrKeyNotFound = errors.New("db: key not found")

// Op constants map to Valkey/Redis command names for error context.
const (
	OpPing = "PING"
	OpGet  = "GET"
	OpSet  = "SET"
	OpDel  = "DEL"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
