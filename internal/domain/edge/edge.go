// Package edge holds the grouping dimensions of a query and their value domains.
package edge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Edge is one grouping dimension of a query, the GROUP BY term of the cube.
type Edge struct {
	Name       string `json:"name"`
	Value      string `json:"value,omitempty"`
	Domain     Domain `json:"domain"`
	AllowNulls *bool  `json:"allowNulls,omitempty"`
}

// NullsAllowed reports whether the edge keeps a slot for the missing group.
// Only an explicit false removes it.
func (e Edge) NullsAllowed() bool {
	return e.AllowNulls == nil || *e.AllowNulls
}

// WithDomain returns a copy of e bound to d.
func (e Edge) WithDomain(d Domain) Edge {
	e.Domain = d
	return e
}

// Fields is the source-field collection of a composite dimension: either an
// ordered list of fields or a name-to-field mapping.
type Fields struct {
	list []string
	dict map[string]string
}

// NewFieldList creates an ordered field collection.
func NewFieldList(fields ...string) Fields {
	return Fields{list: append([]string(nil), fields...)}
}

// NewFieldDict creates a name-to-field collection.
func NewFieldDict(fields map[string]string) Fields {
	d := make(map[string]string, len(fields))
	for k, v := range fields {
		d[k] = v
	}
	return Fields{dict: d}
}

// IsList reports whether the fields are an ordered sequence.
func (f Fields) IsList() bool { return len(f.list) > 0 }

// IsDict reports whether the fields are a name-to-field mapping.
func (f Fields) IsDict() bool { return len(f.dict) > 0 }

// IsEmpty reports whether no fields are present.
func (f Fields) IsEmpty() bool { return !f.IsList() && !f.IsDict() }

// List returns the ordered fields.
func (f Fields) List() []string { return append([]string(nil), f.list...) }

// NamedField pairs a dimension name with its source field.
type NamedField struct {
	Name  string
	Field string
}

// Sorted returns the mapping entries ordered by dimension name.
func (f Fields) Sorted() []NamedField {
	out := make([]NamedField, 0, len(f.dict))
	for k, v := range f.dict {
		out = append(out, NamedField{Name: k, Field: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MarshalJSON renders the fields in their original shape.
func (f Fields) MarshalJSON() ([]byte, error) {
	if f.IsDict() {
		return json.Marshal(f.dict)
	}
	if f.list == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f.list)
}

// UnmarshalJSON accepts a JSON array of fields or an object of name to field.
func (f *Fields) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = Fields{list: list}
		return nil
	}
	var dict map[string]string
	if err := json.Unmarshal(data, &dict); err == nil {
		*f = Fields{dict: dict}
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil && single != "" {
		*f = Fields{list: []string{single}}
		return nil
	}
	return errors.New("dimension fields must be a list or a mapping of field names")
}

// String renders the fields for diagnostics.
func (f Fields) String() string {
	if f.IsDict() {
		return fmt.Sprintf("%v", f.Sorted())
	}
	return fmt.Sprintf("%v", f.list)
}
