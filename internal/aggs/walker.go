package aggs

import (
	"fmt"

	"github.com/kailas-cloud/edgeq/internal/domain"
)

// Key is one coordinate slot: a bucket key, or the missing sentinel.
type Key struct {
	value   any
	missing bool
}

// Missing is the slot value of the missing-value branch. It is distinct from
// every bucket key, including a null key and the string "null".
var Missing = Key{missing: true}

// Present wraps a bucket key.
func Present(v any) Key { return Key{value: v} }

// IsMissing reports whether k is the missing sentinel.
func (k Key) IsMissing() bool { return k.missing }

// Value returns the bucket key; nil for Missing.
func (k Key) Value() any { return k.value }

func (k Key) String() string {
	if k.missing {
		return "<missing>"
	}
	return fmt.Sprintf("%v", k.value)
}

// Coordinate holds one Key per slot, grouped in edge declaration order.
type Coordinate []Key

// Clone returns an independent copy.
func (c Coordinate) Clone() Coordinate {
	return append(Coordinate(nil), c...)
}

func (c Coordinate) at(slot int) (Key, error) {
	if slot < 0 || slot >= len(c) {
		return Key{}, &domain.DecodeShapeError{
			Reason: fmt.Sprintf("coordinate has %d slots, slot %d requested", len(c), slot),
		}
	}
	return c[slot], nil
}

// Row is one terminal bucket with its coordinate.
type Row struct {
	Coord Coordinate
	Leaf  Node
}

// Layout maps coordinate slots to their owning decoders.
type Layout struct {
	owners []Decoder
}

// NewLayout builds the slot table. Decoders must already have their starts fixed.
func NewLayout(decoders []Decoder) Layout {
	depth := 0
	for _, d := range decoders {
		depth += d.NumColumns()
	}
	owners := make([]Decoder, depth)
	for _, d := range decoders {
		for i := 0; i < d.NumColumns(); i++ {
			owners[d.Start()+i] = d
		}
	}
	return Layout{owners: owners}
}

// Depth is the total coordinate width.
func (l Layout) Depth() int { return len(l.owners) }

func (l Layout) hasMissing(slot int) bool {
	return l.owners[slot].HasMissing(slot)
}

// Walk visits every terminal bucket of the tree rooted at root, outermost
// slot first. For each slot the keyed buckets come first, then the missing
// branch if the slot has one. yield receives a coordinate it may keep; an
// error from yield stops the walk and is returned.
func Walk(root Node, decoders []Decoder, yield func(Row) error) error {
	l := NewLayout(decoders)
	if l.Depth() == 0 {
		return &domain.DecodeShapeError{Reason: "query has no coordinate slots"}
	}
	coord := make(Coordinate, l.Depth())
	return walk(root, l, l.Depth()-1, coord, yield)
}

func walk(n Node, l Layout, slot int, coord Coordinate, yield func(Row) error) error {
	buckets, err := n.Buckets(offsetKey(slot))
	if err != nil {
		return err
	}
	for _, b := range buckets {
		key, err := b.Key()
		if err != nil {
			return err
		}
		coord[slot] = Present(key)
		if err := descend(b, l, slot, coord, yield); err != nil {
			return err
		}
	}

	if !l.hasMissing(slot) {
		return nil
	}
	m, err := n.Child(missingKey(slot))
	if err != nil {
		return err
	}
	coord[slot] = Missing
	return descend(m, l, slot, coord, yield)
}

func descend(n Node, l Layout, slot int, coord Coordinate, yield func(Row) error) error {
	if slot > 0 {
		return walk(n, l, slot-1, coord, yield)
	}
	return yield(Row{Coord: coord.Clone(), Leaf: n})
}

// Rows collects the full walk.
func Rows(root Node, decoders []Decoder) ([]Row, error) {
	var rows []Row
	err := Walk(root, decoders, func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
