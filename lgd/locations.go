package lgd

import (
	"sort"
	"strings"

	"lgd_site/models"
)

const (
	columnVillageDistrictName    = "District Name (In English)"
	columnVillageSubDistrictName = "Sub-District Name (In English)"
	columnVillageName            = "Village Name (In English)"
)

// Browse walks the village dataset one level at a time: no state lists the
// states, a state lists its districts, a district lists its sub-districts and
// a sub-district lists its villages. Names match case-insensitively and come
// back sorted without duplicates.
func Browse(ds *models.Dataset, state, district, subDistrict string) models.LocationResponse {
	var resp models.LocationResponse

	filters := []struct {
		column string
		value  string
	}{
		{ColumnVillageStateName, state},
		{columnVillageDistrictName, district},
		{columnVillageSubDistrictName, subDistrict},
	}

	var target string
	switch {
	case state == "":
		target = ColumnVillageStateName
	case district == "":
		target = columnVillageDistrictName
	case subDistrict == "":
		target = columnVillageSubDistrictName
	default:
		target = columnVillageName
	}

	names := distinct(ds, target, func(row []string) bool {
		for _, f := range filters {
			if f.value == "" {
				break
			}
			i := ds.ColumnIndex(f.column)
			if i < 0 || i >= len(row) || !strings.EqualFold(strings.TrimSpace(row[i]), strings.TrimSpace(f.value)) {
				return false
			}
		}
		return true
	})

	switch target {
	case ColumnVillageStateName:
		resp.States = names
	case columnVillageDistrictName:
		resp.Districts = names
	case columnVillageSubDistrictName:
		resp.Subdistricts = names
	default:
		resp.Villages = names
	}
	return resp
}

func distinct(ds *models.Dataset, column string, keep func([]string) bool) []string {
	col := ds.ColumnIndex(column)
	if col < 0 {
		return []string{}
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, row := range ds.Rows {
		if col >= len(row) || !keep(row) {
			continue
		}
		name := strings.TrimSpace(row[col])
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
