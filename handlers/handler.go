package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"lgd_site/lgd"
	"lgd_site/metrics"
	"lgd_site/models"
	"lgd_site/utils"
)

// DatasetStore is the part of *lgd.Store the handlers use.
type DatasetStore interface {
	Load(ctx context.Context, tier models.Tier) (*models.Dataset, error)
	LoadAll(ctx context.Context) map[models.Tier]lgd.Result
	Refresh(tier models.Tier) error
	RefreshAll()
	Status() []lgd.TierStatus
}

// Handler serves the dashboard API.
type Handler struct {
	store     DatasetStore
	converter *utils.AreaConverter
	metrics   *metrics.Metrics
	startedAt time.Time
}

// New builds the API handlers. A nil converter uses the default unit table;
// m may be nil.
func New(store DatasetStore, converter *utils.AreaConverter, m *metrics.Metrics) *Handler {
	if converter == nil {
		converter = utils.DefaultAreaConverter
	}
	return &Handler{
		store:     store,
		converter: converter,
		metrics:   m,
		startedAt: time.Now(),
	}
}

// Register mounts every route on api, which is expected to be the /api/v1
// subrouter. Fixed /lgd paths are registered before /lgd/{tier}.
func (h *Handler) Register(api *mux.Router) {
	// Health
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/health/detailed", h.HealthDetailed).Methods(http.MethodGet)

	// Area converter
	api.HandleFunc("/area/units", h.GetAreaUnits).Methods(http.MethodGet)
	api.HandleFunc("/area/convert", h.ConvertArea).Methods(http.MethodGet)
	api.HandleFunc("/area/convert-all", h.ConvertAreaToAll).Methods(http.MethodGet)

	// LGD data
	api.HandleFunc("/lgd/kpi", h.GetKPIs).Methods(http.MethodGet)
	api.HandleFunc("/lgd/summary", h.GetStateSummary).Methods(http.MethodGet)
	api.HandleFunc("/lgd/charts", h.GetCharts).Methods(http.MethodGet)
	api.HandleFunc("/lgd/locations", h.GetLocations).Methods(http.MethodGet)
	api.HandleFunc("/lgd/refresh", h.RefreshDatasets).Methods(http.MethodPost)
	api.HandleFunc("/lgd/{tier}", h.GetTier).Methods(http.MethodGet)

	// Whole page
	api.HandleFunc("/dashboard", h.GetDashboard).Methods(http.MethodGet)
}
