package aggs

import (
	"github.com/kailas-cloud/edgeq/internal/domain/edge"
)

// DimFieldListDecoder groups on an ordered list of fields, one nested terms
// aggregation per field. Field i owns slot Start+i.
//
// Resolving a composite list coordinate to a partition is not defined;
// GetPart always reports the missing group.
type DimFieldListDecoder struct {
	base
	fields []string
}

// NumColumns implements Decoder.
func (d *DimFieldListDecoder) NumColumns() int { return len(d.fields) }

// AppendQuery nests one terms aggregation per field, the first field innermost.
func (d *DimFieldListDecoder) AppendQuery(inner Fragment, start int) Fragment {
	d.start = start
	frag := inner
	for i, f := range d.fields {
		terms := frag.Clone()
		terms["terms"] = termsBody(f, d.termsSize)
		frag = wrap(map[string]any{offsetKey(start + i): terms})
	}
	return frag
}

// GetPart implements Decoder.
func (d *DimFieldListDecoder) GetPart(coord Coordinate) (int, error) {
	if _, err := coord.at(d.start + len(d.fields) - 1); err != nil {
		return NullIndex, err
	}
	return NullIndex, nil
}

// HasMissing implements Decoder.
func (d *DimFieldListDecoder) HasMissing(int) bool { return false }

// Filter returns the domain's esfilter.
func (d *DimFieldListDecoder) Filter() any { return d.edge.Domain.ESFilter }

// WithDomain implements Decoder.
func (d *DimFieldListDecoder) WithDomain(dom edge.Domain) Decoder {
	cp := *d
	cp.edge = d.edge.WithDomain(dom)
	return &cp
}

// DimFieldDictDecoder groups on a name-to-field mapping. Fields are ordered by
// name; field i owns slot Start+i and gets its own missing sibling.
type DimFieldDictDecoder struct {
	base
	fields []edge.NamedField
	index  edge.Index
}

// NumColumns implements Decoder.
func (d *DimFieldDictDecoder) NumColumns() int { return len(d.fields) }

// AppendQuery nests a terms and a missing aggregation per field.
func (d *DimFieldDictDecoder) AppendQuery(inner Fragment, start int) Fragment {
	d.start = start
	frag := inner
	for i, f := range d.fields {
		terms := frag.Clone()
		terms["terms"] = termsBody(f.Field, d.termsSize)
		missing := frag.Clone()
		missing["missing"] = map[string]any{"field": f.Field}
		frag = wrap(map[string]any{
			offsetKey(start + i):  terms,
			missingKey(start + i): missing,
		})
	}
	return frag
}

// GetPart assembles {name: bucket key} over the decoder's slots and resolves
// it against the domain. Any missing slot puts the coordinate in the missing group.
func (d *DimFieldDictDecoder) GetPart(coord Coordinate) (int, error) {
	part := make(map[string]any, len(d.fields))
	for i, f := range d.fields {
		k, err := coord.at(d.start + i)
		if err != nil {
			return NullIndex, err
		}
		if k.IsMissing() {
			return NullIndex, nil
		}
		part[f.Name] = k.Value()
	}
	idx, ok := d.index.IndexByPart(part)
	if !ok {
		return NullIndex, d.unknownKey(part)
	}
	return idx, nil
}

// HasMissing implements Decoder.
func (d *DimFieldDictDecoder) HasMissing(slot int) bool {
	return slot >= d.start && slot < d.start+len(d.fields)
}

// Filter returns the domain's esfilter.
func (d *DimFieldDictDecoder) Filter() any { return d.edge.Domain.ESFilter }

// WithDomain implements Decoder.
func (d *DimFieldDictDecoder) WithDomain(dom edge.Domain) Decoder {
	cp := *d
	cp.edge = d.edge.WithDomain(dom)
	cp.index = edge.NewIndex(dom)
	return &cp
}
