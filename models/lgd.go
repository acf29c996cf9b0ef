package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tier is one level of the LGD hierarchy.
type Tier string

const (
	TierState       Tier = "state"
	TierDistrict    Tier = "district"
	TierSubDistrict Tier = "subdistrict"
	TierVillage     Tier = "village"
)

// Tiers lists every tier in hierarchy order.
var Tiers = []Tier{TierState, TierDistrict, TierSubDistrict, TierVillage}

// ParseTier accepts the path forms used by the API ("sub-district" and
// "sub_district" are aliases of "subdistrict").
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "state", "states":
		return TierState, nil
	case "district", "districts":
		return TierDistrict, nil
	case "subdistrict", "sub-district", "sub_district", "subdistricts", "sub-districts":
		return TierSubDistrict, nil
	case "village", "villages":
		return TierVillage, nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// Title is the display name of the tier.
func (t Tier) Title() string {
	switch t {
	case TierState:
		return "State"
	case TierDistrict:
		return "District"
	case TierSubDistrict:
		return "Sub-District"
	case TierVillage:
		return "Village"
	}
	return string(t)
}

// Dataset is an ordered, read-only table of text cells for one tier.
// Rows are aligned with Columns; a Dataset is never mutated after it is built,
// so filtered views share row storage with their parent.
type Dataset struct {
	Tier     Tier
	Columns  []string
	Rows     [][]string
	Source   string
	LoadedAt time.Time

	index map[string]int
}

// NewDataset builds a dataset and its column index.
func NewDataset(tier Tier, columns []string, rows [][]string) *Dataset {
	ds := &Dataset{
		Tier:    tier,
		Columns: columns,
		Rows:    rows,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		ds.index[c] = i
	}
	return ds
}

// ColumnIndex returns the position of a column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	if d.index == nil {
		for i, c := range d.Columns {
			if c == name {
				return i
			}
		}
		return -1
	}
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// Value returns the cell at row/column, or "" when either is out of range.
func (d *Dataset) Value(row int, column string) string {
	i := d.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(d.Rows) || i >= len(d.Rows[row]) {
		return ""
	}
	return d.Rows[row][i]
}

// Len is the number of rows; a nil dataset is empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Shape returns (rows, columns).
func (d *Dataset) Shape() [2]int {
	return [2]int{len(d.Rows), len(d.Columns)}
}

// WithRows returns a view over the same schema holding the given rows.
func (d *Dataset) WithRows(rows [][]string) *Dataset {
	return &Dataset{
		Tier:     d.Tier,
		Columns:  d.Columns,
		Rows:     rows,
		Source:   d.Source,
		LoadedAt: d.LoadedAt,
		index:    d.index,
	}
}

// Head returns the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n < 0 || n >= len(d.Rows) {
		return d
	}
	return d.WithRows(d.Rows[:n])
}

// Unique counts distinct non-empty values of a column.
func (d *Dataset) Unique(column string) int {
	i := d.ColumnIndex(column)
	if i < 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(d.Rows))
	for _, row := range d.Rows {
		if i < len(row) && row[i] != "" {
			seen[row[i]] = struct{}{}
		}
	}
	return len(seen)
}

// Records converts rows to column-keyed maps.
func (d *Dataset) Records() []map[string]string {
	out := make([]map[string]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		rec := make(map[string]string, len(d.Columns))
		for i, c := range d.Columns {
			if i < len(row) {
				rec[c] = row[i]
			} else {
				rec[c] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// TablePreview is the JSON form of a dataset slice.
type TablePreview struct {
	Tier    Tier       `json:"tier"`
	Shape   [2]int     `json:"shape"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// MarshalJSON keeps column order by emitting columns and rows separately.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	rows := d.Rows
	if rows == nil {
		rows = [][]string{}
	}
	return json.Marshal(TablePreview{
		Tier:    d.Tier,
		Shape:   d.Shape(),
		Columns: d.Columns,
		Rows:    rows,
	})
}
