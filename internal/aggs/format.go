package aggs

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/edgeq/internal/domain"
	"github.com/kailas-cloud/edgeq/internal/domain/edge"
	"github.com/kailas-cloud/edgeq/internal/domain/query"
)

// Table is the tabular output shape.
type Table struct {
	Header []string `json:"header"`
	Data   [][]any  `json:"data"`
}

// Cube is the dense output shape: one array per metric, one axis per edge.
type Cube struct {
	Select query.Selects      `json:"select"`
	Edges  []edge.Edge        `json:"edges"`
	Data   map[string]*Matrix `json:"data"`
}

// Format renders walked rows in the requested shape. decoders must be the
// materialized decoders the rows were walked with. Format has no state of
// its own: the same rows always give the same output.
func Format(f query.Format, selects query.Selects, decoders []Decoder, rows []Row) (any, error) {
	switch f {
	case query.FormatCube:
		return formatCube(selects, decoders, rows)
	case query.FormatTable:
		return formatTable(selects, decoders, rows)
	case query.FormatList:
		return formatList(selects, decoders, rows)
	default:
		return nil, &domain.UnsupportedFormatError{Format: string(f)}
	}
}

type resolvedRow struct {
	parts  []int
	values []any
}

func resolve(selects query.Selects, decoders []Decoder, rows []Row) ([]resolvedRow, error) {
	out := make([]resolvedRow, len(rows))
	for i, r := range rows {
		parts := make([]int, len(decoders))
		for j, d := range decoders {
			p, err := d.GetPart(r.Coord)
			if err != nil {
				return nil, err
			}
			parts[j] = p
		}
		values := make([]any, len(selects))
		for j, s := range selects {
			v, err := metricValue(s, r.Leaf)
			if err != nil {
				return nil, err
			}
			values[j] = v
		}
		out[i] = resolvedRow{parts: parts, values: values}
	}
	return mergeRows(selects, out), nil
}

// mergeRows folds rows that resolve to the same parts into one, keeping the
// position of the first. A composite dict edge sends every combination with
// a missing field to the missing group, so several leaves can share a cell.
func mergeRows(selects query.Selects, rows []resolvedRow) []resolvedRow {
	seen := make(map[string]int, len(rows))
	out := make([]resolvedRow, 0, len(rows))
	for _, r := range rows {
		k := partsKey(r.parts)
		i, dup := seen[k]
		if !dup {
			seen[k] = len(out)
			out = append(out, r)
			continue
		}
		for j, s := range selects {
			out[i].values[j] = mergeValue(s, out[i].values[j], r.values[j])
		}
	}
	return out
}

func partsKey(parts []int) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(p))
	}
	return sb.String()
}

// mergeValue combines two partial results of metric s. Counts and sums add,
// min and max keep the extreme. Averages and cardinalities cannot be
// recovered from partial results and become null.
func mergeValue(s query.Metric, a, b any) any {
	if s.IsDocCount() {
		x, _ := a.(int64)
		y, _ := b.(int64)
		return x + y
	}
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	x, okA := edge.ToFloat(a)
	y, okB := edge.ToFloat(b)
	if !okA || !okB {
		return nil
	}
	switch s.Aggregate {
	case query.AggCount, query.AggSum, query.AggValueCount:
		if ia, ok := a.(int64); ok {
			if ib, ok := b.(int64); ok {
				return ia + ib
			}
		}
		return x + y
	case query.AggMin:
		if y < x {
			return b
		}
		return a
	case query.AggMax:
		if y > x {
			return b
		}
		return a
	default:
		return nil
	}
}

func metricValue(s query.Metric, leaf Node) (any, error) {
	if s.IsDocCount() {
		return leaf.DocCount()
	}
	return leaf.MetricValue(s.Name)
}

// sortRows orders rows by part index in edge order, the missing group last.
func sortRows(rows []resolvedRow) {
	rank := func(p int) int {
		if p == NullIndex {
			return int(^uint(0) >> 1)
		}
		return p
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].parts, rows[j].parts
		for k := range a {
			if ra, rb := rank(a[k]), rank(b[k]); ra != rb {
				return ra < rb
			}
		}
		return false
	})
}

func partValue(d Decoder, part int) any {
	if part == NullIndex {
		return nil
	}
	return d.Edge().Domain.Partitions[part].Value
}

func formatTable(selects query.Selects, decoders []Decoder, rows []Row) (*Table, error) {
	resolved, err := resolve(selects, decoders, rows)
	if err != nil {
		return nil, err
	}
	sortRows(resolved)

	header := make([]string, 0, len(decoders)+len(selects))
	for _, d := range decoders {
		header = append(header, d.Edge().Name)
	}
	header = append(header, selects.Names()...)

	data := make([][]any, len(resolved))
	for i, r := range resolved {
		row := make([]any, 0, len(header))
		for j, d := range decoders {
			row = append(row, partValue(d, r.parts[j]))
		}
		row = append(row, r.values...)
		data[i] = row
	}
	return &Table{Header: header, Data: data}, nil
}

func formatList(selects query.Selects, decoders []Decoder, rows []Row) ([]map[string]any, error) {
	resolved, err := resolve(selects, decoders, rows)
	if err != nil {
		return nil, err
	}
	sortRows(resolved)

	out := make([]map[string]any, len(resolved))
	for i, r := range resolved {
		rec := make(map[string]any, len(decoders)+len(selects))
		for j, d := range decoders {
			rec[d.Edge().Name] = partValue(d, r.parts[j])
		}
		for j, s := range selects {
			rec[s.Name] = r.values[j]
		}
		out[i] = rec
	}
	return out, nil
}

func formatCube(selects query.Selects, decoders []Decoder, rows []Row) (*Cube, error) {
	resolved, err := resolve(selects, decoders, rows)
	if err != nil {
		return nil, err
	}

	edges := make([]edge.Edge, len(decoders))
	dims := make([]int, len(decoders))
	for i, d := range decoders {
		e := d.Edge()
		edges[i] = e
		dims[i] = e.Domain.Size()
		if e.NullsAllowed() {
			dims[i]++
		}
	}

	data := make(map[string]*Matrix, len(selects))
	for _, s := range selects {
		var zero any
		if s.IsDocCount() {
			zero = int64(0)
		}
		data[s.Name] = NewMatrix(dims, zero)
	}

	for _, r := range resolved {
		coord, ok := cubeCoord(edges, r.parts)
		if !ok {
			continue
		}
		for j, s := range selects {
			data[s.Name].Set(coord, r.values[j])
		}
	}
	return &Cube{Select: selects, Edges: edges, Data: data}, nil
}

// cubeCoord maps part indices to cell positions. The missing group takes the
// last slot of its axis; edges without that slot drop the row.
func cubeCoord(edges []edge.Edge, parts []int) ([]int, bool) {
	coord := make([]int, len(parts))
	for i, p := range parts {
		if p != NullIndex {
			coord[i] = p
			continue
		}
		if !edges[i].NullsAllowed() {
			return nil, false
		}
		coord[i] = edges[i].Domain.Size()
	}
	return coord, true
}
