package aggs

import (
	"bytes"
	"encoding/json"

	"github.com/kailas-cloud/edgeq/internal/domain"
	"github.com/kailas-cloud/edgeq/internal/domain/query"
)

// Plan is a compiled query: the request to send and the decoders that read
// the answer.
type Plan struct {
	Request  Fragment
	Decoders []Decoder
	Depth    int
}

// Compile turns a normalized query into a nested aggregation request.
//
// Metric aggregations sit in the innermost level. Edges are folded from the
// first (innermost) to the last (outermost), each decoder taking the next
// contiguous range of coordinate slots.
func Compile(q query.Query, opts Options) (*Plan, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	frag := metricFragment(q.Select)

	decoders := make([]Decoder, 0, len(q.Edges))
	start := 0
	for _, e := range q.Edges {
		d, err := NewDecoder(e, opts)
		if err != nil {
			return nil, err
		}
		frag = d.AppendQuery(frag, start)
		start += d.NumColumns()
		decoders = append(decoders, d)
	}

	req := Fragment{"size": q.Limit}
	if a, ok := frag["aggs"]; ok {
		req["aggs"] = a
	}
	filter, err := combineFilters(q.Where, decoders)
	if err != nil {
		return nil, err
	}
	if filter != nil {
		req["filter"] = filter
	}

	return &Plan{Request: req, Decoders: decoders, Depth: start}, nil
}

func metricFragment(selects query.Selects) Fragment {
	metrics := make(map[string]any)
	for _, s := range selects {
		if s.IsDocCount() {
			continue
		}
		agg, _ := s.BackendAggregate()
		metrics[s.Name] = map[string]any{agg: map[string]any{"field": s.Value}}
	}
	if len(metrics) == 0 {
		return Fragment{}
	}
	return Fragment{"aggs": metrics}
}

// combineFilters ANDs the where clause with every domain-level filter.
func combineFilters(where json.RawMessage, decoders []Decoder) (any, error) {
	var filters []any
	if w := bytes.TrimSpace(where); len(w) > 0 && !bytes.Equal(w, []byte("null")) {
		if !json.Valid(w) {
			return nil, domain.InvalidQueryf("where clause is not valid JSON")
		}
		filters = append(filters, json.RawMessage(w))
	}
	for _, d := range decoders {
		if f := d.Filter(); f != nil {
			filters = append(filters, f)
		}
	}
	switch len(filters) {
	case 0:
		return nil, nil
	case 1:
		return filters[0], nil
	default:
		return map[string]any{"and": filters}, nil
	}
}
