package lgd

import (
	"errors"
	"fmt"
	"sort"

	"lgd_site/models"
)

// SummaryCaption is shown under the state wise records table.
const SummaryCaption = "Update till June 2024, To get latest LGD Data Please visit LGD Official site."

// labelCounts counts labels and remembers first appearance.
type labelCounts struct {
	order  []string
	counts map[string]int
}

func newLabelCounts() *labelCounts {
	return &labelCounts{counts: make(map[string]int)}
}

func (c *labelCounts) add(label string) {
	if _, seen := c.counts[label]; !seen {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

// byCount returns labels by descending count, ties in first-seen order.
func (c *labelCounts) byCount() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	sort.SliceStable(out, func(i, j int) bool {
		return c.counts[out[i]] > c.counts[out[j]]
	})
	return out
}

// countDistrictsByState groups district rows by DistrictStateLabel. Rows with
// an empty Hierarchy are not counted.
func countDistrictsByState(ds *models.Dataset) *labelCounts {
	c := newLabelCounts()
	col := ds.ColumnIndex(ColumnHierarchy)
	for _, row := range ds.Rows {
		if col < 0 || col >= len(row) || row[col] == "" {
			continue
		}
		c.add(DistrictStateLabel(row[col]))
	}
	return c
}

// countSubDistrictsByState groups sub-district rows by SubDistrictStateLabel.
func countSubDistrictsByState(ds *models.Dataset) *labelCounts {
	c := newLabelCounts()
	col := ds.ColumnIndex(ColumnHierarchy)
	for _, row := range ds.Rows {
		if col < 0 || col >= len(row) || row[col] == "" {
			continue
		}
		if label, ok := SubDistrictStateLabel(row[col]); ok {
			c.add(label)
		}
	}
	return c
}

// countVillagesByState groups village rows by their state name column.
func countVillagesByState(ds *models.Dataset) *labelCounts {
	c := newLabelCounts()
	col := ds.ColumnIndex(ColumnVillageStateName)
	for _, row := range ds.Rows {
		if col < 0 || col >= len(row) || row[col] == "" {
			continue
		}
		c.add(row[col])
	}
	return c
}

// SummarizeDatasets builds one row per state found in the district data,
// ordered by district count. States missing from the sub-district or village
// data get 0.
func SummarizeDatasets(district, subDistrict, village *models.Dataset) []models.StateSummary {
	districts := countDistrictsByState(district)
	subDistricts := countSubDistrictsByState(subDistrict)
	villages := countVillagesByState(village)

	out := make([]models.StateSummary, 0, len(districts.order))
	for _, state := range districts.byCount() {
		out = append(out, models.StateSummary{
			State:        state,
			Districts:    districts.counts[state],
			SubDistricts: subDistricts.counts[state],
			Villages:     villages.counts[state],
		})
	}
	return out
}

// Summarize is SummarizeDatasets over load results. If any input failed the
// summary is not computed and the error wraps ErrAggregationUnavailable
// together with each failed tier's error.
func Summarize(district, subDistrict, village Result) ([]models.StateSummary, error) {
	var errs []error
	for _, r := range []Result{district, subDistrict, village} {
		if r.OK() {
			continue
		}
		err := r.Err
		if err == nil {
			err = fmt.Errorf("%s dataset missing", r.Tier)
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrAggregationUnavailable, errors.Join(errs...))
	}
	return SummarizeDatasets(district.Dataset, subDistrict.Dataset, village.Dataset), nil
}

// TopStates returns the n rows with the largest metric, largest first.
func TopStates(rows []models.StateSummary, n int, metric func(models.StateSummary) int) []models.StateSummary {
	sorted := make([]models.StateSummary, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return metric(sorted[i]) > metric(sorted[j])
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func series(title, kind string, rows []models.StateSummary, metric func(models.StateSummary) int) models.ChartSeries {
	s := models.ChartSeries{
		Title:  title,
		Kind:   kind,
		Labels: make([]string, 0, len(rows)),
		Values: make([]int, 0, len(rows)),
	}
	for _, r := range rows {
		s.Labels = append(s.Labels, r.State)
		s.Values = append(s.Values, metric(r))
	}
	return s
}

// Charts derives the dashboard's top-N chart series from the summary.
func Charts(rows []models.StateSummary) []models.ChartSeries {
	districts := func(r models.StateSummary) int { return r.Districts }
	subDistricts := func(r models.StateSummary) int { return r.SubDistricts }
	villages := func(r models.StateSummary) int { return r.Villages }

	pieDistricts := series("Top 5 States by most Districts", "pie", TopStates(rows, 5, districts), districts)
	pieDistricts.Hole = 0.6

	pieSubDistricts := series("Sub-Districts", "pie", TopStates(rows, 5, subDistricts), subDistricts)
	pieSubDistricts.Hole = 0.5

	barVillages := series("Top 10 States by most Villages", "bar", TopStates(rows, 10, villages), villages)
	barVillages.XTitle = "States"
	barVillages.YTitle = "Number of Villages"

	return []models.ChartSeries{pieDistricts, pieSubDistricts, barVillages}
}

// KPI counts the distinct codes of a loaded tier.
func KPI(ds *models.Dataset) (models.TierKPI, error) {
	spec, err := Spec(ds.Tier)
	if err != nil {
		return models.TierKPI{}, err
	}
	return models.TierKPI{
		Tier:   ds.Tier,
		Label:  spec.KPILabel,
		Column: spec.KPIColumn,
		Unique: ds.Unique(spec.KPIColumn),
	}, nil
}
