package lgd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"lgd_site/models"
)

// missingMarkers are the cell values read as "no value" in code columns.
var missingMarkers = map[string]struct{}{
	"": {}, "nan": {}, "-nan": {}, "null": {}, "none": {}, "na": {}, "n/a": {}, "#n/a": {}, "<na>": {},
}

// NormalizeCode renders a nullable numeric code as integer text: missing
// values become "0" and "1234.0" becomes "1234". Values that are not numbers
// are returned trimmed.
func NormalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if _, missing := missingMarkers[strings.ToLower(s)]; missing {
		return "0"
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return s
	}
	if math.IsNaN(f) {
		return "0"
	}
	return strconv.FormatInt(int64(f), 10)
}

// ReadDataset parses a CSV stream, keeps only the tier's columns (in TierSpec
// order) and normalizes its code columns. Rows shorter than the header are
// padded with empty cells.
func ReadDataset(spec TierSpec, r io.Reader) (*models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv: %w", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if _, dup := positions[h]; !dup {
			positions[h] = i
		}
	}

	source := make([]int, len(spec.Columns))
	var missing []string
	for j, col := range spec.Columns {
		idx, ok := positions[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		source[j] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	var codes []int
	for _, col := range spec.CodeColumns {
		for j, c := range spec.Columns {
			if c == col {
				codes = append(codes, j)
			}
		}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		row := make([]string, len(spec.Columns))
		for j, idx := range source {
			if idx < len(record) {
				row[j] = record[idx]
			}
		}
		for _, j := range codes {
			row[j] = NormalizeCode(row[j])
		}
		rows = append(rows, row)
	}

	columns := make([]string, len(spec.Columns))
	copy(columns, spec.Columns)
	return models.NewDataset(spec.Tier, columns, rows), nil
}
