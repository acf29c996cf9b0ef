package lgd

import (
	"strings"

	"lgd_site/models"
)

// Filter returns the rows of ds where any of columns contains query,
// ignoring case. Row order is preserved and the result shares row storage
// with ds. An empty query returns ds itself; columns missing from ds are
// ignored.
func Filter(ds *models.Dataset, query string, columns []string) *models.Dataset {
	if query == "" {
		return ds
	}

	idx := make([]int, 0, len(columns))
	for _, c := range columns {
		if i := ds.ColumnIndex(c); i >= 0 {
			idx = append(idx, i)
		}
	}

	needle := strings.ToLower(query)
	rows := make([][]string, 0)
	for _, row := range ds.Rows {
		for _, i := range idx {
			if i < len(row) && strings.Contains(strings.ToLower(row[i]), needle) {
				rows = append(rows, row)
				break
			}
		}
	}
	return ds.WithRows(rows)
}

// Search filters ds on its tier's searchable columns.
func Search(ds *models.Dataset, query string) *models.Dataset {
	return Filter(ds, query, SearchColumns(ds.Tier))
}
