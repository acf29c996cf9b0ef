package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"lgd_site/lgd"
	"lgd_site/logging"
	"lgd_site/models"
)

const (
	previewRows       = 5
	defaultMatchLimit = 500
	notFoundMessage   = "Opps! No matching results found"
)

// TierView is the preview of one tier plus, when a query was given, the
// matching rows.
type TierView struct {
	Tier    models.Tier     `json:"tier"`
	Title   string          `json:"title"`
	Shape   [2]int          `json:"shape"`
	Preview *models.Dataset `json:"preview"`

	Query      string          `json:"query,omitempty"`
	Matched    *models.Dataset `json:"matched,omitempty"`
	MatchCount int             `json:"match_count"`
	Truncated  bool            `json:"truncated,omitempty"`
	NotFound   bool            `json:"not_found"`
	Message    string          `json:"message,omitempty"`
}

// SummaryResponse is the state wise records table.
type SummaryResponse struct {
	Caption string                `json:"caption"`
	Rows    []models.StateSummary `json:"rows"`
}

// ChartsResponse carries the top-N chart series.
type ChartsResponse struct {
	Charts []models.ChartSeries `json:"charts"`
}

// RefreshResponse lists the tiers whose cache was dropped.
type RefreshResponse struct {
	Refreshed []models.Tier `json:"refreshed"`
}

// buildTierView previews ds and applies query. limit caps the returned
// matches; 0 returns all of them.
func buildTierView(ds *models.Dataset, query string, limit int) TierView {
	view := TierView{
		Tier:    ds.Tier,
		Title:   ds.Tier.Title(),
		Shape:   ds.Shape(),
		Preview: ds.Head(previewRows),
		Query:   query,
	}
	if query == "" {
		return view
	}

	matched := lgd.Search(ds, query)
	view.MatchCount = matched.Len()
	if view.MatchCount == 0 {
		view.NotFound = true
		view.Message = notFoundMessage
		return view
	}
	if limit > 0 && matched.Len() > limit {
		matched = matched.Head(limit)
		view.Truncated = true
	}
	view.Matched = matched
	return view
}

func searchOutcome(view TierView) string {
	switch {
	case view.Query == "":
		return "unfiltered"
	case view.NotFound:
		return "not_found"
	default:
		return "matched"
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultMatchLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest)
	}
	return n, nil
}

func (h *Handler) GetTier(w http.ResponseWriter, r *http.Request) {
	tier, err := models.ParseTier(mux.Vars(r)["tier"])
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", lgd.ErrUnknownTier, err))
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ds, err := h.store.Load(r.Context(), tier)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := buildTierView(ds, r.URL.Query().Get("q"), limit)
	h.metrics.Search(string(tier), searchOutcome(view))
	sendJSON(w, http.StatusOK, view)
}

// loadError is the error of a failed result, or a DataLoadError when the
// tier is absent.
func loadError(tier models.Tier, res lgd.Result) error {
	if res.Err != nil {
		return res.Err
	}
	return &lgd.DataLoadError{Tier: tier, Err: fmt.Errorf("not loaded")}
}

// kpiSections computes one KPI section per tier from load results.
func kpiSections(results map[models.Tier]lgd.Result) map[models.Tier]Section {
	out := make(map[models.Tier]Section, len(models.Tiers))
	for _, tier := range models.Tiers {
		res := results[tier]
		if !res.OK() {
			out[tier] = newSection(nil, loadError(tier, res))
			continue
		}
		out[tier] = newSection(lgd.KPI(res.Dataset))
	}
	return out
}

func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	sections := kpiSections(h.store.LoadAll(r.Context()))
	for tier, s := range sections {
		if !s.OK {
			h.metrics.SectionFailed("kpi_" + string(tier))
		}
	}
	sendJSON(w, http.StatusOK, sections)
}

func (h *Handler) summarize(ctx context.Context) ([]models.StateSummary, error) {
	results := h.store.LoadAll(ctx)
	return lgd.Summarize(
		results[models.TierDistrict],
		results[models.TierSubDistrict],
		results[models.TierVillage],
	)
}

func (h *Handler) GetStateSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.summarize(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, SummaryResponse{Caption: lgd.SummaryCaption, Rows: rows})
}

func (h *Handler) GetCharts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.summarize(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, ChartsResponse{Charts: lgd.Charts(rows)})
}

func (h *Handler) GetLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := strings.TrimSpace(q.Get("state"))
	district := strings.TrimSpace(q.Get("district"))
	subDistrict := strings.TrimSpace(q.Get("subdistrict"))

	if (district != "" && state == "") || (subDistrict != "" && district == "") {
		writeError(w, r, fmt.Errorf("%w: district needs state and subdistrict needs district", errBadRequest))
		return
	}

	ds, err := h.store.Load(r.Context(), models.TierVillage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, lgd.Browse(ds, state, district, subDistrict))
}

func (h *Handler) RefreshDatasets(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("tier"))
	log := logging.FromContext(r.Context(), "handlers")

	if raw == "" || strings.EqualFold(raw, "all") {
		h.store.RefreshAll()
		log.Info("all datasets refreshed")
		sendJSON(w, http.StatusOK, RefreshResponse{Refreshed: models.Tiers})
		return
	}

	tier, err := models.ParseTier(raw)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", lgd.ErrUnknownTier, err))
		return
	}
	if err := h.store.Refresh(tier); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info("dataset refreshed", "tier", tier)
	sendJSON(w, http.StatusOK, RefreshResponse{Refreshed: []models.Tier{tier}})
}
