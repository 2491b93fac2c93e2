package aggs

import (
	"github.com/kailas-cloud/edgeq/internal/domain/edge"
)

// SimpleDecoder groups on one field whose domain is known before the query runs.
type SimpleDecoder struct {
	base
	index edge.Index
}

// NumColumns implements Decoder.
func (d *SimpleDecoder) NumColumns() int { return 1 }

// AppendQuery emits a single terms aggregation at start.
func (d *SimpleDecoder) AppendQuery(inner Fragment, start int) Fragment {
	d.start = start
	terms := inner.Clone()
	terms["terms"] = termsBody(d.edge.Value, d.termsSize)
	return wrap(map[string]any{offsetKey(start): terms})
}

// GetPart looks the bucket key up in the known domain. Keys outside the
// domain are errors: the domain was declared exhaustive.
func (d *SimpleDecoder) GetPart(coord Coordinate) (int, error) {
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

// HasMissing implements Decoder. Known domains carry no missing sibling.
func (d *SimpleDecoder) HasMissing(int) bool { return false }

// WithDomain implements Decoder.
func (d *SimpleDecoder) WithDomain(dom edge.Domain) Decoder {
	cp := *d
	cp.edge = d.edge.WithDomain(dom)
	cp.index = edge.NewIndex(dom)
	return &cp
}
