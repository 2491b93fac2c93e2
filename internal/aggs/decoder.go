// Package aggs compiles edge/select queries into nested backend aggregations
// and decodes the bucket tree that comes back.
//
// One Decoder is created per edge per execution. Decoders are laid out left
// to right over a flat coordinate vector: decoder i owns slots
// [Start, Start+NumColumns). In the request the first edge is the innermost
// aggregation and the last edge the outermost, so slot depth-1 is the root
// level of the response and slot 0 holds the leaf buckets.
package aggs

import (
	"github.com/kailas-cloud/edgeq/internal/domain"
	"github.com/kailas-cloud/edgeq/internal/domain/edge"
)

// NullIndex is the part index of the missing group. It never equals a partition index.
const NullIndex = -1

// Options tunes the generated request.
type Options struct {
	// TermsSize bounds every terms aggregation; zero leaves the backend default.
	TermsSize int
}

// Decoder emits the aggregation fragment for one edge and interprets the
// matching slots of every coordinate.
type Decoder interface {
	// Edge returns the edge, bound to the decoder's current domain.
	Edge() edge.Edge
	// Start is the first coordinate slot owned by the decoder.
	Start() int
	// NumColumns is the number of coordinate slots the decoder consumes.
	NumColumns() int
	// AppendQuery wraps inner in this edge's aggregations rooted at start and
	// fixes the decoder's start offset. inner is not modified.
	AppendQuery(inner Fragment, start int) Fragment
	// GetPart resolves the decoder's slots of coord to a partition index or NullIndex.
	GetPart(coord Coordinate) (int, error)
	// HasMissing reports whether slot has a "<slot>_missing" sibling aggregation.
	HasMissing(slot int) bool
	// NeedsDomain reports whether the domain is discovered from the response.
	NeedsDomain() bool
	// Filter returns the domain-level filter, or nil.
	Filter() any
	// WithDomain returns a copy of the decoder bound to d.
	WithDomain(d edge.Domain) Decoder
}

// NewDecoder selects the decoder for e by its shape.
func NewDecoder(e edge.Edge, opts Options) (Decoder, error) {
	b := base{edge: e, termsSize: opts.TermsSize}
	switch {
	case e.Value != "" && e.Domain.Type == edge.TypeDefault:
		return &DefaultDecoder{base: b, index: edge.NewIndex(e.Domain)}, nil
	case e.Value != "" && e.Domain.Type.IsPartition():
		return &SimpleDecoder{base: b, index: edge.NewIndex(e.Domain)}, nil
	case e.Value == "" && e.Domain.HasDimensionFields() && e.Domain.Dimension.Fields.IsDict():
		return &DimFieldDictDecoder{
			base:   b,
			fields: e.Domain.Dimension.Fields.Sorted(),
			index:  edge.NewIndex(e.Domain),
		}, nil
	case e.Value == "" && e.Domain.HasDimensionFields():
		return &DimFieldListDecoder{base: b, fields: e.Domain.Dimension.Fields.List()}, nil
	default:
		return nil, &domain.UnsupportedDomainError{Edge: e.Name, Type: string(e.Domain.Type)}
	}
}

type base struct {
	edge      edge.Edge
	start     int
	termsSize int
}

func (b *base) Edge() edge.Edge   { return b.edge }
func (b *base) Start() int        { return b.start }
func (b *base) NeedsDomain() bool { return false }
func (b *base) Filter() any       { return nil }

func (b *base) unknownKey(key any) error {
	return &domain.UnknownKeyError{Edge: b.edge.Name, Key: key}
}
