// Package query defines the edge/select query model accepted by the engine.
package query

import (
	"encoding/json"
	"errors"

	"github.com/kailas-cloud/edgeq/internal/domain"
	"github.com/kailas-cloud/edgeq/internal/domain/edge"
)

// Format is the requested output shape.
type Format string

const (
	// FormatCube returns one dense array per metric.
	FormatCube Format = "cube"
	// FormatTable returns a header and rows.
	FormatTable Format = "table"
	// FormatList returns one record per coordinate.
	FormatList Format = "list"
)

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	switch f {
	case FormatCube, FormatTable, FormatList:
		return true
	default:
		return false
	}
}

// Query is an edge/select aggregation request.
type Query struct {
	From   string          `json:"from,omitempty"`
	Select Selects         `json:"select,omitempty"`
	Edges  []edge.Edge     `json:"edges"`
	Where  json.RawMessage `json:"where,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Format Format          `json:"format,omitempty"`
}

// Selects is the select clause. It decodes from a single object or a list.
type Selects []Metric

// UnmarshalJSON accepts `{...}` as well as `[{...}, ...]`.
func (s *Selects) UnmarshalJSON(data []byte) error {
	var list []Metric
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single Metric
	if err := json.Unmarshal(data, &single); err != nil {
		return errors.New("select must be an object or a list of objects")
	}
	*s = Selects{single}
	return nil
}

// Names returns the metric names in declaration order.
func (s Selects) Names() []string {
	out := make([]string, len(s))
	for i, m := range s {
		out[i] = m.Name
	}
	return out
}

// Normalize fills defaults: the default select is a document count, empty
// domain types become default, empty format becomes defaultFormat.
// Select and Edges are copied first, so a Query value shared between
// goroutines is never written through.
func (q *Query) Normalize(defaultFormat Format) {
	q.Select = append(Selects(nil), q.Select...)
	q.Edges = append([]edge.Edge(nil), q.Edges...)
	if len(q.Select) == 0 {
		q.Select = Selects{{Name: "count", Aggregate: AggCount}}
	}
	for i := range q.Select {
		q.Select[i] = q.Select[i].normalized()
	}
	for i := range q.Edges {
		if q.Edges[i].Domain.Type == "" {
			q.Edges[i].Domain.Type = edge.TypeDefault
		}
	}
	if q.Format == "" {
		q.Format = defaultFormat
	}
}

// Validate checks the query after Normalize.
func (q *Query) Validate() error {
	if len(q.Edges) == 0 {
		return domain.InvalidQueryf("at least one edge is required")
	}
	if q.Limit < 0 {
		return domain.InvalidQueryf("limit must not be negative, got %d", q.Limit)
	}
	if !q.Format.Valid() {
		return &domain.UnsupportedFormatError{Format: string(q.Format)}
	}

	names := make(map[string]struct{}, len(q.Edges)+len(q.Select))
	for _, e := range q.Edges {
		if e.Name == "" {
			return domain.InvalidQueryf("edge name is required")
		}
		if _, dup := names[e.Name]; dup {
			return domain.InvalidQueryf("duplicate column name %q", e.Name)
		}
		names[e.Name] = struct{}{}
	}
	for _, m := range q.Select {
		if err := m.Validate(); err != nil {
			return err
		}
		if _, dup := names[m.Name]; dup {
			return domain.InvalidQueryf("duplicate column name %q", m.Name)
		}
		names[m.Name] = struct{}{}
	}
	return nil
}
