package aggs

import (
	"sort"

	"github.com/kailas-cloud/edgeq/internal/domain/edge"
)

// Materialize discovers the domain of every decoder that NeedsDomain. A
// discovered domain is global: the keys of its slot are unioned across every
// branch of the tree, keyed buckets and missing branches alike, so a value
// seen in one branch is addressable from all others.
//
// The result is a new decoder slice; decoders that need no domain are passed
// through, and the input slice is left untouched.
func Materialize(root Node, decoders []Decoder) ([]Decoder, error) {
	l := NewLayout(decoders)
	seen := make([]*valueSet, l.Depth())
	discover := false
	for slot, d := range l.owners {
		if d.NeedsDomain() {
			seen[slot] = newValueSet()
			discover = true
		}
	}

	out := append([]Decoder(nil), decoders...)
	if !discover {
		return out, nil
	}
	if err := collect(root, l, l.Depth()-1, seen); err != nil {
		return nil, err
	}

	for i, d := range out {
		if !d.NeedsDomain() {
			continue
		}
		dom := edge.NewSetDomain(edge.TypeDefault, seen[d.Start()].sorted())
		out[i] = d.WithDomain(dom)
	}
	return out, nil
}

func collect(n Node, l Layout, slot int, seen []*valueSet) error {
	buckets, err := n.Buckets(offsetKey(slot))
	if err != nil {
		return err
	}
	for _, b := range buckets {
		if seen[slot] != nil {
			key, err := b.Key()
			if err != nil {
				return err
			}
			seen[slot].add(key)
		}
		if slot > 0 {
			if err := collect(b, l, slot-1, seen); err != nil {
				return err
			}
		}
	}

	if slot == 0 || !l.hasMissing(slot) {
		return nil
	}
	m, err := n.Child(missingKey(slot))
	if err != nil {
		return err
	}
	return collect(m, l, slot-1, seen)
}

type valueSet struct {
	byKey map[string]any
}

func newValueSet() *valueSet {
	return &valueSet{byKey: make(map[string]any)}
}

func (s *valueSet) add(v any) {
	k := edge.CanonicalKey(v)
	if _, ok := s.byKey[k]; !ok {
		s.byKey[k] = v
	}
}

func (s *valueSet) sorted() []any {
	out := make([]any, 0, len(s.byKey))
	for _, v := range s.byKey {
		out = append(out, v)
	}
	SortValues(out)
	return out
}

// SortValues orders values deterministically: numbers ascending, then strings,
// then booleans (false first), then everything else by canonical form.
func SortValues(values []any) {
	sort.SliceStable(values, func(i, j int) bool {
		return lessValue(values[i], values[j])
	})
}

func valueRank(v any) int {
	if _, ok := edge.ToFloat(v); ok {
		return 0
	}
	switch v.(type) {
	case string:
		return 1
	case bool:
		return 2
	default:
		return 3
	}
}

func lessValue(a, b any) bool {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 0:
		if ia, ok := edge.ExactInt(a); ok {
			if ib, ok := edge.ExactInt(b); ok {
				return ia < ib
			}
		}
		fa, _ := edge.ToFloat(a)
		fb, _ := edge.ToFloat(b)
		return fa < fb
	case 1:
		return a.(string) < b.(string)
	case 2:
		return !a.(bool) && b.(bool)
	default:
		return edge.CanonicalKey(a) < edge.CanonicalKey(b)
	}
}
