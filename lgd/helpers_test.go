package lgd

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"lgd_site/models"
)

// csvFor renders a CSV with every column of spec plus an unrelated trailing
// column. Cells not given in a row are left empty.
func csvFor(t *testing.T, spec TierSpec, rows ...map[string]string) string {
	t.Helper()

	header := append(append([]string{}, spec.Columns...), "Unused Column")
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(header))
	for _, row := range rows {
		record := make([]string, len(header))
		for i, col := range header {
			record[i] = row[col]
		}
		require.NoError(t, w.Write(record))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.String()
}

func mustSpec(t *testing.T, tier string) TierSpec {
	t.Helper()
	spec, err := Spec(models.Tier(tier))
	require.NoError(t, err)
	return spec
}
