package edgeq

import (
	"context"
	"encoding/json"
	"fmt"
)

// QueryBuilder is a fluent builder for edge/select queries.
type QueryBuilder struct {
	client *Client
	q      Query
	err    error
}

// From starts a query against index. An empty index uses the client default.
func (c *Client) From(index string) *QueryBuilder {
	return &QueryBuilder{client: c, q: Query{From: index}}
}

// GroupBy adds an edge over field whose values are discovered from the response.
func (b *QueryBuilder) GroupBy(name, field string) *QueryBuilder {
	b.q.Edges = append(b.q.Edges, Edge{Name: name, Value: field})
	return b
}

// GroupByValues adds an edge over field restricted to a known set of values,
// in display order. Documents with other values fail decoding.
func (b *QueryBuilder) GroupByValues(name, field string, values ...any) *QueryBuilder {
	parts := make([]Partition, len(values))
	for i, v := range values {
		parts[i] = Partition{Value: v}
	}
	b.q.Edges = append(b.q.Edges, Edge{
		Name:   name,
		Value:  field,
		Domain: Domain{Type: DomainSet, Partitions: parts},
	})
	return b
}

// Edge adds a fully specified edge.
func (b *QueryBuilder) Edge(e Edge) *QueryBuilder {
	b.q.Edges = append(b.q.Edges, e)
	return b
}

// Count adds a document count metric.
func (b *QueryBuilder) Count(name string) *QueryBuilder {
	return b.Metric(name, AggCount, "")
}

// Sum adds a sum over field.
func (b *QueryBuilder) Sum(name, field string) *QueryBuilder {
	return b.Metric(name, AggSum, field)
}

// Avg adds an average over field.
func (b *QueryBuilder) Avg(name, field string) *QueryBuilder {
	return b.Metric(name, AggAvg, field)
}

// Metric adds a select item.
func (b *QueryBuilder) Metric(name string, agg Aggregate, field string) *QueryBuilder {
	b.q.Select = append(b.q.Select, Metric{Name: name, Aggregate: agg, Value: field})
	return b
}

// Where sets a raw backend filter applied to the whole query.
func (b *QueryBuilder) Where(filter any) *QueryBuilder {
	raw, err := json.Marshal(filter)
	if err != nil {
		b.err = fmt.Errorf("%w: where: %s", ErrInvalidQuery, err.Error())
		return b
	}
	b.q.Where = raw
	return b
}

// Limit sets the number of hits the backend returns alongside aggregations.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	b.q.Limit = n
	return b
}

// Format sets the output format.
func (b *QueryBuilder) Format(f Format) *QueryBuilder {
	b.q.Format = f
	return b
}

// Build returns the assembled query.
func (b *QueryBuilder) Build() Query {
	return b.q
}

// Do executes the query.
func (b *QueryBuilder) Do(ctx context.Context) (*Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	res, err := b.client.Query(ctx, b.q)
	if err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}
	return res, nil
}
