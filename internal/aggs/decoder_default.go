package aggs

import (
	"github.com/kailas-cloud/edgeq/internal/domain/edge"
)

// DefaultDecoder groups on one field whose values are unknown until the
// response arrives. It requests a terms aggregation and a missing sibling.
type DefaultDecoder struct {
	base
	index edge.Index
}

// NumColumns implements Decoder.
func (d *DefaultDecoder) NumColumns() int { return 1 }

// AppendQuery emits "<start>" (terms) and "<start>_missing" (missing), both
// wrapping their own copy of inner.
func (d *DefaultDecoder) AppendQuery(inner Fragment, start int) Fragment {
	d.start = start
	counter := inner.Clone()
	counter["terms"] = termsBody(d.edge.Value, d.termsSize)
	missing := inner.Clone()
	missing["missing"] = map[string]any{"field": d.edge.Value}
	return wrap(map[string]any{
		offsetKey(start):  counter,
		missingKey(start): missing,
	})
}

// GetPart resolves against the materialized domain.
func (d *DefaultDecoder) GetPart(coord Coordinate) (int, error) {
	k, err := coord.at(d.start)
	if err != nil {
		return NullIndex, err
	}
	if k.IsMissing() {
		return NullIndex, nil
	}
	i, ok := d.index.IndexByKey(k.Value())
	if !ok {
		return NullIndex, d.unknownKey(k.Value())
	}
	return i, nil
}

// HasMissing implements Decoder.
func (d *DefaultDecoder) HasMissing(slot int) bool { return slot == d.start }

// NeedsDomain implements Decoder.
func (d *DefaultDecoder) NeedsDomain() bool { return true }

// WithDomain implements Decoder.
func (d *DefaultDecoder) WithDomain(dom edge.Domain) Decoder {
	cp := *d
	cp.edge = d.edge.WithDomain(dom)
	cp.index = edge.NewIndex(dom)
	return &cp
}
