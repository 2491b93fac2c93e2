package edge

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DomainType describes how the values of an edge are known.
type DomainType string

const (
	// TypeDefault means the values are unknown until the response is seen.
	TypeDefault DomainType = "default"
	// TypeSet is an explicit set of partitions.
	TypeSet DomainType = "set"
	// TypeUID is a set of unique identifiers.
	TypeUID DomainType = "uid"
	// TypeTime is a set of time buckets.
	TypeTime DomainType = "time"
	// TypeDuration is a set of duration buckets.
	TypeDuration DomainType = "duration"
	// TypeRange is a set of numeric ranges.
	TypeRange DomainType = "range"
	// TypeOther is any domain without an aggregation decoder.
	TypeOther DomainType = "other"
)

// IsPartition reports whether the domain's partitions are known ahead of query time.
func (t DomainType) IsPartition() bool {
	switch t {
	case TypeSet, TypeUID, TypeTime, TypeDuration, TypeRange:
		return true
	default:
		return false
	}
}

// DefaultKey is the partition attribute used for lookups when Domain.Key is empty.
const DefaultKey = "value"

// Partition is one legal value of a domain.
type Partition struct {
	Name  string `json:"name,omitempty"`
	Value any    `json:"value"`
	Where any    `json:"where,omitempty"`
}

// Dimension describes a composite domain backed by several source fields.
type Dimension struct {
	Fields Fields `json:"fields"`
}

// Domain is the ordered set of values an edge can take.
type Domain struct {
	Type       DomainType  `json:"type"`
	Key        string      `json:"key,omitempty"`
	Partitions []Partition `json:"partitions,omitempty"`
	Dimension  *Dimension  `json:"dimension,omitempty"`
	ESFilter   any         `json:"esfilter,omitempty"`
}

// HasDimensionFields reports whether the domain carries composite source fields.
func (d Domain) HasDimensionFields() bool {
	return d.Dimension != nil && !d.Dimension.Fields.IsEmpty()
}

// Size returns the number of partitions.
func (d Domain) Size() int { return len(d.Partitions) }

// KeyOf returns the lookup value of p under this domain's key.
func (d Domain) KeyOf(p Partition) any {
	if d.Key == "name" {
		return p.Name
	}
	return p.Value
}

// NewSetDomain builds a domain of the given type whose partitions carry the values in order.
func NewSetDomain(t DomainType, values []any) Domain {
	parts := make([]Partition, len(values))
	for i, v := range values {
		parts[i] = Partition{Value: v}
	}
	return Domain{Type: t, Key: DefaultKey, Partitions: parts}
}

// Index is a read-only lookup table from canonical partition keys to partition indices.
type Index struct {
	byKey map[string]int
}

// NewIndex builds the lookup table for d. Duplicate keys keep their first position.
func NewIndex(d Domain) Index {
	idx := Index{byKey: make(map[string]int, len(d.Partitions))}
	for i, p := range d.Partitions {
		k := CanonicalKey(d.KeyOf(p))
		if _, dup := idx.byKey[k]; !dup {
			idx.byKey[k] = i
		}
	}
	return idx
}

// IndexByKey returns the partition index for a scalar key.
func (x Index) IndexByKey(key any) (int, bool) {
	i, ok := x.byKey[CanonicalKey(key)]
	return i, ok
}

// IndexByPart returns the partition index for a composite field-to-value mapping.
func (x Index) IndexByPart(part map[string]any) (int, bool) {
	i, ok := x.byKey[CanonicalKey(part)]
	return i, ok
}

// CanonicalKey renders v as a type-tagged string so that values of different
// types never collide: the string "1" and the number 1 map to different keys.
func CanonicalKey(v any) string {
	switch t := v.(type) {
	case nil:
		return "n:"
	case string:
		return "s:" + t
	case bool:
		if t {
			return "b:true"
		}
		return "b:false"
	case json.Number:
		if _, ok := ExactInt(t); !ok {
			if _, err := t.Float64(); err != nil {
				return "s:" + t.String()
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteString("m:{")
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(CanonicalKey(t[k]))
		}
		sb.WriteByte('}')
		return sb.String()
	}
	if i, ok := ExactInt(v); ok {
		return "i:" + strconv.FormatInt(i, 10)
	}
	if f, ok := ToFloat(v); ok {
		return fmt.Sprintf("f:%v", f)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("x:%v", v)
	}
	return "j:" + string(data)
}

// ToFloat converts Go numeric kinds to float64.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ExactInt returns v as an int64 when v is an integral number that int64
// holds without loss. Integer keys above 2^53 stay exact this way.
func ExactInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint32:
		return int64(t), true
	case uint:
		return int64(t), uint64(t) <= math.MaxInt64
	case uint64:
		return int64(t), t <= math.MaxInt64
	case float32:
		return floatInt(float64(t))
	case float64:
		return floatInt(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		if f, err := t.Float64(); err == nil {
			return floatInt(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func floatInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
