package query

import (
	"github.com/kailas-cloud/edgeq/internal/domain"
)

// Aggregate names a metric aggregation.
type Aggregate string

// Supported aggregates.
const (
	AggCount       Aggregate = "count"
	AggSum         Aggregate = "sum"
	AggAvg         Aggregate = "avg"
	AggMin         Aggregate = "min"
	AggMax         Aggregate = "max"
	AggValueCount  Aggregate = "value_count"
	AggCardinality Aggregate = "cardinality"
)

var aggregateAliases = map[Aggregate]Aggregate{
	"average":        AggAvg,
	"mean":           AggAvg,
	"minimum":        AggMin,
	"maximum":        AggMax,
	"add":            AggSum,
	"count_distinct": AggCardinality,
}

// backendAggregates maps aggregates to the backend's metric aggregation names.
var backendAggregates = map[Aggregate]string{
	AggCount:       "value_count",
	AggSum:         "sum",
	AggAvg:         "avg",
	AggMin:         "min",
	AggMax:         "max",
	AggValueCount:  "value_count",
	AggCardinality: "cardinality",
}

// Metric is one select item.
type Metric struct {
	Name      string    `json:"name"`
	Aggregate Aggregate `json:"aggregate"`
	Value     string    `json:"value,omitempty"`
}

// IsDocCount reports whether the metric is answered from bucket doc_count.
func (m Metric) IsDocCount() bool {
	return m.Aggregate == AggCount && m.Value == ""
}

// BackendAggregate returns the backend aggregation name for m.
func (m Metric) BackendAggregate() (string, bool) {
	name, ok := backendAggregates[m.Aggregate]
	return name, ok
}

// Validate checks a normalized metric.
func (m Metric) Validate() error {
	if m.Name == "" {
		return domain.InvalidQueryf("select item needs a name")
	}
	if _, ok := backendAggregates[m.Aggregate]; !ok {
		return domain.InvalidQueryf("select %q: aggregate %q is not supported", m.Name, m.Aggregate)
	}
	if m.Value == "" && m.Aggregate != AggCount {
		return domain.InvalidQueryf("select %q: aggregate %q requires a value", m.Name, m.Aggregate)
	}
	return nil
}

func (m Metric) normalized() Metric {
	if m.Aggregate == "" {
		m.Aggregate = AggCount
	}
	if a, ok := aggregateAliases[m.Aggregate]; ok {
		m.Aggregate = a
	}
	if m.Name == "" {
		if m.Value != "" {
			m.Name = m.Value
		} else {
			m.Name = string(m.Aggregate)
		}
	}
	return m
}
