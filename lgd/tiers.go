package lgd

import (
	"fmt"
	"strings"

	"lgd_site/models"
)

// DefaultBaseURL hosts the June 2024 LGD snapshot.
const DefaultBaseURL = "https://media.githubusercontent.com/media/sjpradhan/lgd_hierarchy/main"

// IconURL is the page icon shown by the dashboard.
const IconURL = "https://raw.githubusercontent.com/sjpradhan/lgd_hierarchy/main/Data/img_1.png"

// Column names used outside the tier table.
const (
	ColumnHierarchy        = "Hierarchy"
	ColumnVillageStateName = "State Name (In English)"
)

// TierSpec describes how one tier's CSV is projected and normalized.
type TierSpec struct {
	Tier models.Tier
	// File is the CSV path relative to the base URL, already escaped.
	File string
	// Columns are projected in this order; all must be present.
	Columns []string
	// CodeColumns get zero-safe integer text normalization.
	CodeColumns []string
	// SearchColumns are matched by Filter, in order.
	SearchColumns []string
	// KPIColumn is the code whose distinct count is the tier KPI.
	KPIColumn string
	KPILabel  string
}

var tierSpecs = map[models.Tier]TierSpec{
	models.TierState: {
		Tier: models.TierState,
		File: "Data/State%20Details.csv",
		Columns: []string{
			"State LGD Code", "State Name (In English)", "State Name (In Local language)",
			"State or UT", "Census2011 Code",
		},
		SearchColumns: []string{"State Name (In English)", "State LGD Code"},
		KPIColumn:     "State LGD Code",
		KPILabel:      "States / Union Territories",
	},
	models.TierDistrict: {
		Tier: models.TierDistrict,
		File: "Data/District%20Details.csv",
		Columns: []string{
			"District LGD Code", "District Name (In English)", "District Name (In Local language)",
			ColumnHierarchy, "Short Name of District", "Census2011 Code", "Pesa Status",
		},
		SearchColumns: []string{"District Name (In English)", "District LGD Code", ColumnHierarchy},
		KPIColumn:     "District LGD Code",
		KPILabel:      "Districts",
	},
	models.TierSubDistrict: {
		Tier: models.TierSubDistrict,
		File: "Data/Sub-districts%20Details.csv",
		Columns: []string{
			"Sub-District LGD Code", "Sub-District Name (In English)", "Sub-District Name (In Local language)",
			ColumnHierarchy, "Census2011 Code", "Pesa Status",
		},
		CodeColumns:   []string{"Census2011 Code"},
		SearchColumns: []string{"Sub-District Name (In English)", "Sub-District LGD Code", ColumnHierarchy},
		KPIColumn:     "Sub-District LGD Code",
		KPILabel:      "Sub-Districts",
	},
	models.TierVillage: {
		Tier: models.TierVillage,
		File: "Data/Village%20Details.csv",
		Columns: []string{
			"State Code", ColumnVillageStateName, "District Code", "District Name (In English)",
			"Sub-District Code", "Sub-District Name (In English)", "Village Code", "Village Version",
			"Village Name (In English)", "Village Name (In Local)", "Village Status", "Census 2011 Code",
		},
		CodeColumns: []string{"Census 2011 Code", "Sub-District Code"},
		SearchColumns: []string{
			"Village Name (In English)", "Village Code", "State Code", ColumnVillageStateName,
			"District Code", "District Name (In English)", "Sub-District Code", "Sub-District Name (In English)",
		},
		KPIColumn: "Village Code",
		KPILabel:  "Villages",
	},
}

// Spec returns the TierSpec of a tier.
func Spec(tier models.Tier) (TierSpec, error) {
	spec, ok := tierSpecs[tier]
	if !ok {
		return TierSpec{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	return spec, nil
}

// SearchColumns returns the fixed searchable columns of a tier.
func SearchColumns(tier models.Tier) []string {
	spec, ok := tierSpecs[tier]
	if !ok {
		return nil
	}
	out := make([]string, len(spec.SearchColumns))
	copy(out, spec.SearchColumns)
	return out
}

// DefaultURLs returns the CSV location of every tier under baseURL.
func DefaultURLs(baseURL string) map[models.Tier]string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	urls := make(map[models.Tier]string, len(tierSpecs))
	for tier, spec := range tierSpecs {
		urls[tier] = baseURL + "/" + spec.File
	}
	return urls
}
