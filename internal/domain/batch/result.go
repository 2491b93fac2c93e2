// Package batch holds per-item outcomes of a batch query execution.
package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of executing one query of a batch.
type Result struct {
	index  int
	status ItemStatus
	data   any
	err    error
}

// NewOK creates a successful batch result carrying the formatted output.
func NewOK(index int, data any) Result {
	return Result{index: index, status: StatusOK, data: data}
}

// NewError creates a failed batch result.
func NewError(index int, err error) Result {
	return Result{index: index, status: StatusError, err: err}
}

// Index returns the position of the query in the batch.
func (r Result) Index() int { return r.index }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Data returns the formatted output of a successful query.
func (r Result) Data() any { return r.data }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }
