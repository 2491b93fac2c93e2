package edgeq

import (
	"github.com/kailas-cloud/edgeq/internal/domain/edge"
	domquery "github.com/kailas-cloud/edgeq/internal/domain/query"
)

// Query model types. They decode from and encode to the query JSON format.
type (
	Query      = domquery.Query
	Metric     = domquery.Metric
	Selects    = domquery.Selects
	Aggregate  = domquery.Aggregate
	Format     = domquery.Format
	Edge       = edge.Edge
	Domain     = edge.Domain
	DomainType = edge.DomainType
	Partition  = edge.Partition
	Dimension  = edge.Dimension
	Fields     = edge.Fields
)

// Output formats.
const (
	FormatCube  = domquery.FormatCube
	FormatTable = domquery.FormatTable
	FormatList  = domquery.FormatList
)

// Domain types.
const (
	DomainDefault  = edge.TypeDefault
	DomainSet      = edge.TypeSet
	DomainUID      = edge.TypeUID
	DomainTime     = edge.TypeTime
	DomainDuration = edge.TypeDuration
	DomainRange    = edge.TypeRange
)

// Aggregates.
const (
	AggCount       = domquery.AggCount
	AggSum         = domquery.AggSum
	AggAvg         = domquery.AggAvg
	AggMin         = domquery.AggMin
	AggMax         = domquery.AggMax
	AggValueCount  = domquery.AggValueCount
	AggCardinality = domquery.AggCardinality
)

// FieldList builds the ordered source fields of a composite dimension.
func FieldList(fields ...string) Fields { return edge.NewFieldList(fields...) }

// FieldDict builds the name-to-field mapping of a composite dimension.
func FieldDict(fields map[string]string) Fields { return edge.NewFieldDict(fields) }

// Result is the formatted output of one query.
type Result struct {
	QueryID string
	Format  Format
	// Data is the cube, table or list, ready for json.Marshal.
	Data any
	// Rows is the number of decoded terminal buckets.
	Rows int
}

// BatchResult is the outcome of one query of a batch.
type BatchResult struct {
	Data any
	Err  error
}
