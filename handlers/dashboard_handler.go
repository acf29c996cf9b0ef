package handlers

import (
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"lgd_site/lgd"
	"lgd_site/models"
)

// ConverterSection is the converter part of the dashboard.
type ConverterSection struct {
	Conversion Section `json:"conversion"`
	Table      Section `json:"table"`
}

// DashboardResponse holds every page section. Each section carries its own
// ok flag; one failing section never hides the others.
type DashboardResponse struct {
	Icon      string                  `json:"icon"`
	Converter ConverterSection        `json:"converter"`
	KPI       map[models.Tier]Section `json:"kpi"`
	Tiers     map[models.Tier]Section `json:"tiers"`
	Summary   Section                 `json:"summary"`
	Charts    Section                 `json:"charts"`
	Units     []string                `json:"units"`
	Queries   map[models.Tier]string  `json:"queries,omitempty"`
}

// tierQueryParams maps dashboard query parameters to tiers.
var tierQueryParams = map[models.Tier]string{
	models.TierState:       "state",
	models.TierDistrict:    "district",
	models.TierSubDistrict: "subdistrict",
	models.TierVillage:     "village",
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := DashboardResponse{
		Icon:    lgd.IconURL,
		Units:   h.converter.UnitNames(),
		Tiers:   make(map[models.Tier]Section, len(models.Tiers)),
		Queries: make(map[models.Tier]string),
	}

	// The unit pickers start on the first unit, the value on 0.
	from, to := q.Get("from"), q.Get("to")
	if names := resp.Units; len(names) > 0 {
		if from == "" {
			from = names[0]
		}
		if to == "" {
			to = names[0]
		}
	}
	conv, convErr := h.convert(q.Get("value"), from, to)
	h.metrics.Conversion(convErr)
	resp.Converter.Conversion = newSection(conv, convErr)
	resp.Converter.Table = newSection(h.convertAll(q.Get("value"), from))

	results := h.store.LoadAll(r.Context())
	resp.KPI = kpiSections(results)

	var (
		g     errgroup.Group
		mutex sync.Mutex
	)
	for _, tier := range models.Tiers {
		tier := tier // per-iteration copy (go directive lowered to 1.21)
		query := q.Get(tierQueryParams[tier])
		if query != "" {
			resp.Queries[tier] = query
		}
		res := results[tier]
		g.Go(func() error {
			var s Section
			if res.OK() {
				view := buildTierView(res.Dataset, query, limit)
				h.metrics.Search(string(tier), searchOutcome(view))
				s = newSection(view, nil)
			} else {
				s = newSection(nil, loadError(tier, res))
			}
			mutex.Lock()
			resp.Tiers[tier] = s
			mutex.Unlock()
			return nil
		})
	}

	rows, sumErr := lgd.Summarize(
		results[models.TierDistrict],
		results[models.TierSubDistrict],
		results[models.TierVillage],
	)
	if sumErr != nil {
		resp.Summary = newSection(nil, sumErr)
		resp.Charts = newSection(nil, sumErr)
	} else {
		resp.Summary = newSection(SummaryResponse{Caption: lgd.SummaryCaption, Rows: rows}, nil)
		resp.Charts = newSection(ChartsResponse{Charts: lgd.Charts(rows)}, nil)
	}
	g.Wait()

	h.recordSectionFailures(resp)
	sendJSON(w, http.StatusOK, resp)
}

func (h *Handler) recordSectionFailures(resp DashboardResponse) {
	if !resp.Converter.Conversion.OK {
		h.metrics.SectionFailed("converter")
	}
	for tier, s := range resp.KPI {
		if !s.OK {
			h.metrics.SectionFailed("kpi_" + string(tier))
		}
	}
	for tier, s := range resp.Tiers {
		if !s.OK {
			h.metrics.SectionFailed("tier_" + string(tier))
		}
	}
	if !resp.Summary.OK {
		h.metrics.SectionFailed("summary")
	}
}
