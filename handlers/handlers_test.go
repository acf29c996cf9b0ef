package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lgd_site/lgd"
	"lgd_site/metrics"
	"lgd_site/models"
)

type fakeStore struct {
	datasets  map[models.Tier]*models.Dataset
	errs      map[models.Tier]error
	refreshed []models.Tier
}

func (f *fakeStore) Load(ctx context.Context, tier models.Tier) (*models.Dataset, error) {
	if _, err := lgd.Spec(tier); err != nil {
		return nil, &lgd.DataLoadError{Tier: tier, Err: err}
	}
	if err := f.errs[tier]; err != nil {
		return nil, err
	}
	if ds := f.datasets[tier]; ds != nil {
		return ds, nil
	}
	return nil, &lgd.DataLoadError{Tier: tier, Err: fmt.Errorf("no fixture")}
}

func (f *fakeStore) LoadAll(ctx context.Context) map[models.Tier]lgd.Result {
	out := make(map[models.Tier]lgd.Result)
	for _, tier := range models.Tiers {
		ds, err := f.Load(ctx, tier)
		out[tier] = lgd.Result{Tier: tier, Dataset: ds, Err: err}
	}
	return out
}

func (f *fakeStore) Refresh(tier models.Tier) error {
	if _, err := lgd.Spec(tier); err != nil {
		return err
	}
	f.refreshed = append(f.refreshed, tier)
	return nil
}

func (f *fakeStore) RefreshAll() {
	f.refreshed = append(f.refreshed, models.Tiers...)
}

func (f *fakeStore) Status() []lgd.TierStatus {
	out := make([]lgd.TierStatus, 0, len(models.Tiers))
	for _, tier := range models.Tiers {
		ds := f.datasets[tier]
		out = append(out, lgd.TierStatus{Tier: tier, Cached: ds != nil, Rows: ds.Len()})
	}
	return out
}

func dataset(t *testing.T, tier models.Tier, rows ...map[string]string) *models.Dataset {
	t.Helper()
	spec, err := lgd.Spec(tier)
	require.NoError(t, err)

	var out [][]string
	for _, r := range rows {
		row := make([]string, len(spec.Columns))
		for i, c := range spec.Columns {
			row[i] = r[c]
		}
		out = append(out, row)
	}
	return models.NewDataset(tier, spec.Columns, out)
}

func newFixtureStore(t *testing.T) *fakeStore {
	t.Helper()

	states := dataset(t, models.TierState,
		map[string]string{"State LGD Code": "27", "State Name (In English)": "Maharashtra"},
		map[string]string{"State LGD Code": "30", "State Name (In English)": "Goa"},
		map[string]string{"State LGD Code": "10", "State Name (In English)": "Bihar"},
	)
	var districtRows []map[string]string
	for i, h := range []string{"Maharashtra(State)", "Maharashtra(State)", "Goa(State)", "Bihar(State)", "Maharashtra(State)", "Goa(State)", "Bihar(State)"} {
		districtRows = append(districtRows, map[string]string{
			"District LGD Code":          fmt.Sprint(400 + i),
			"District Name (In English)": fmt.Sprintf("District %d", i),
			lgd.ColumnHierarchy:          h,
		})
	}
	districts := dataset(t, models.TierDistrict, districtRows...)
	subDistricts := dataset(t, models.TierSubDistrict,
		map[string]string{"Sub-District LGD Code": "4201", "Sub-District Name (In English)": "Haveli", lgd.ColumnHierarchy: "Pune(District) / Maharashtra(State)"},
		map[string]string{"Sub-District LGD Code": "4202", "Sub-District Name (In English)": "Mohania", lgd.ColumnHierarchy: "Kaimur (Bhabua)(District) / Bihar(State)"},
	)
	villages := dataset(t, models.TierVillage,
		map[string]string{"Village Code": "1", "Village Name (In English)": "Wagholi", lgd.ColumnVillageStateName: "Maharashtra", "District Name (In English)": "Pune", "Sub-District Name (In English)": "Haveli"},
		map[string]string{"Village Code": "2", "Village Name (In English)": "Lohegaon", lgd.ColumnVillageStateName: "Maharashtra", "District Name (In English)": "Pune", "Sub-District Name (In English)": "Haveli"},
		map[string]string{"Village Code": "3", "Village Name (In English)": "Aldona", lgd.ColumnVillageStateName: "Goa", "District Name (In English)": "North Goa", "Sub-District Name (In English)": "Bardez"},
	)

	return &fakeStore{
		datasets: map[models.Tier]*models.Dataset{
			models.TierState:       states,
			models.TierDistrict:    districts,
			models.TierSubDistrict: subDistricts,
			models.TierVillage:     villages,
		},
		errs: map[models.Tier]error{},
	}
}

func newRouter(store DatasetStore, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()
	New(store, nil, m).Register(r.PathPrefix("/api/v1").Subrouter())
	return r
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type errorBody struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, code int) errorBody {
	t.Helper()
	require.Equal(t, code, rec.Code, rec.Body.String())
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, code, body.Code)
	assert.Equal(t, http.StatusText(code), body.Status)
	assert.NotEmpty(t, body.Error)
	assert.NotEmpty(t, body.Timestamp)
	return body
}

func TestHealth(t *testing.T) {
	r := newRouter(newFixtureStore(t), nil)

	rec := do(t, r, http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/v1/health/detailed")
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	decode(t, rec, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Len(t, health.Datasets, 4)
}

func TestAreaUnits(t *testing.T) {
	rec := do(t, newRouter(newFixtureStore(t), nil), http.MethodGet, "/api/v1/area/units")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AreaUnitsResponse
	decode(t, rec, &resp)
	assert.Len(t, resp.Units, 19)
	assert.Equal(t, "Acre", resp.Units[0].Name)
	assert.Equal(t, SliderRange{Min: 0, Max: 10, Step: 0.1}, resp.Slider)
}

func TestConvertArea(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry(), "test")
	r := newRouter(newFixtureStore(t), m)

	rec := do(t, r, http.MethodGet, "/api/v1/area/convert?value=2.5&from=Bigha&to=Square+feet")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConversionResponse
	decode(t, rec, &resp)
	assert.InDelta(t, 35999.913889, resp.Result, 1e-6)
	assert.Equal(t, "2.5 Bigha is equal to 35999.913889 Square feet", resp.Text)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Conversions.WithLabelValues("ok")))
}

func TestConvertArea_Errors(t *testing.T) {
	r := newRouter(newFixtureStore(t), nil)

	tests := []struct {
		name   string
		target string
	}{
		{"unknown unit", "/api/v1/area/convert?value=1&from=Acre&to=Furlong"},
		{"missing unit", "/api/v1/area/convert?value=1&from=Acre"},
		{"negative value", "/api/v1/area/convert?value=-1&from=Acre&to=Hectare"},
		{"garbage value", "/api/v1/area/convert?value=lots&from=Acre&to=Hectare"},
		{"convert-all unknown unit", "/api/v1/area/convert-all?value=1&from=Furlong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, do(t, r, http.MethodGet, tt.target), http.StatusBadRequest)
		})
	}
}

func TestConvertAreaToAll(t *testing.T) {
	r := newRouter(newFixtureStore(t), nil)

	rec := do(t, r, http.MethodGet, "/api/v1/area/convert-all?value=1&from=Acre")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ConversionTableResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Conversions, 19)
	assert.Equal(t, "Acre", resp.Conversions[0].Unit)
	assert.InDelta(t, 1.0, resp.Conversions[0].Value, 1e-12)
	assert.Equal(t, "Hectare", resp.Conversions[1].Unit)
	assert.InDelta(t, 0.404686, resp.Conversions[1].Value, 1e-9)

	rec = do(t, r, http.MethodGet, "/api/v1/area/convert-all?value=0&from=Acre")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Empty(t, resp.Conversions)
}

func TestGetTier_Preview(t *testing.T) {
	rec := do(t, newRouter(newFixtureStore(t), nil), http.MethodGet, "/api/v1/lgd/districts")
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Tier    models.Tier          `json:"tier"`
		Shape   [2]int               `json:"shape"`
		Preview models.TablePreview  `json:"preview"`
		Matched *models.TablePreview `json:"matched"`
	}
	decode(t, rec, &view)
	assert.Equal(t, models.TierDistrict, view.Tier)
	assert.Equal(t, [2]int{7, 7}, view.Shape)
	assert.Len(t, view.Preview.Rows, 5)
	assert.Equal(t, "District LGD Code", view.Preview.Columns[0])
	assert.Nil(t, view.Matched)
}

func TestGetTier_Search(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry(), "test")
	r := newRouter(newFixtureStore(t), m)

	rec := do(t, r, http.MethodGet, "/api/v1/lgd/village?q=GOA")
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		MatchCount int                 `json:"match_count"`
		NotFound   bool                `json:"not_found"`
		Matched    models.TablePreview `json:"matched"`
	}
	decode(t, rec, &view)
	assert.Equal(t, 1, view.MatchCount)
	assert.False(t, view.NotFound)
	require.Len(t, view.Matched.Rows, 1)

	rec = do(t, r, http.MethodGet, "/api/v1/lgd/sub-district?q=nowhere")
	require.Equal(t, http.StatusOK, rec.Code)
	var miss TierView
	decode(t, rec, &miss)
	assert.True(t, miss.NotFound)
	assert.Equal(t, "Opps! No matching results found", miss.Message)
	assert.Equal(t, 0, miss.MatchCount)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("village", "matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("subdistrict", "not_found")))
}

func TestGetTier_SearchKeepsWhitespace(t *testing.T) {
	r := newRouter(newFixtureStore(t), nil)

	var view TierView
	rec := do(t, r, http.MethodGet, "/api/v1/lgd/state?q=goa")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Equal(t, 1, view.MatchCount)

	view = TierView{}
	rec = do(t, r, http.MethodGet, "/api/v1/lgd/state?q=%20goa")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Equal(t, " goa", view.Query)
	assert.True(t, view.NotFound)
	assert.Equal(t, 0, view.MatchCount)
}

func TestGetTier_Limit(t *testing.T) {
	r := newRouter(newFixtureStore(t), nil)

	rec := do(t, r, http.MethodGet, "/api/v1/lgd/district?q=maharashtra&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		MatchCount int                 `json:"match_count"`
		Truncated  bool                `json:"truncated"`
		Matched    models.TablePreview `json:"matched"`
	}
	decode(t, rec, &view)
	assert.Equal(t, 3, view.MatchCount)
	assert.True(t, view.Truncated)
	assert.Len(t, view.Matched.Rows, 2)

	assertError(t, do(t, r, http.MethodGet, "/api/v1/lgd/district?limit=-3"), http.StatusBadRequest)
}

func TestGetTier_Errors(t *testing.T) {
	store := newFixtureStore(t)
	store.errs[models.TierVillage] = &lgd.DataLoadError{Tier: models.TierVillage, Source: "x", Err: lgd.ErrUnexpectedStatus}
	r := newRouter(store, nil)

	assertError(t, do(t, r, http.MethodGet, "/api/v1/lgd/blocks"), http.StatusNotFound)
	assertError(t, do(t, r, http.MethodGet, "/api/v1/lgd/village"), http.StatusBadGateway)
}

func TestGetKPIs_IsolatesFailures(t *testing.T) {
	store := newFixtureStore(t)
	store.errs[models.TierVillage] = &lgd.DataLoadError{Tier: models.TierVillage, Source: "x", Err: lgd.ErrUnexpectedStatus}

	rec := do(t, newRouter(store, nil), http.MethodGet, "/api/v1/lgd/kpi")
	require.Equal(t, http.StatusOK, rec.Code)

	var sections map[models.Tier]struct {
		OK    bool           `json:"ok"`
		Data  models.TierKPI `json:"data"`
		Error *SectionError  `json:"error"`
	}
	decode(t, rec, &sections)

	assert.True(t, sections[models.TierState].OK)
	assert.Equal(t, 3, sections[models.TierState].Data.Unique)
	assert.Equal(t, 7, sections[models.TierDistrict].Data.Unique)
	assert.Equal(t, 2, sections[models.TierSubDistrict].Data.Unique)

	village := sections[models.TierVillage]
	assert.False(t, village.OK)
	require.NotNil(t, village.Error)
	assert.Equal(t, http.StatusBadGateway, village.Error.Code)
}

func TestGetStateSummary(t *testing.T) {
	rec := do(t, newRouter(newFixtureStore(t), nil), http.MethodGet, "/api/v1/lgd/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SummaryResponse
	decode(t, rec, &resp)
	assert.Equal(t, lgd.SummaryCaption, resp.Caption)
	assert.Equal(t, []models.StateSummary{
		{State: "Maharashtra", Districts: 3, SubDistricts: 1, Villages: 2},
		{State: "Goa", Districts: 2, SubDistricts: 0, Villages: 1},
		{State: "Bihar", Districts: 2, SubDistricts: 1, Villages: 0},
	}, resp.Rows)
}

func TestGetStateSummary_Unavailable(t *testing.T) {
	store := newFixtureStore(t)
	store.errs[models.TierSubDistrict] = &lgd.DataLoadError{Tier: models.TierSubDistrict, Source: "x", Err: context.DeadlineExceeded}
	r := newRouter(store, nil)

	assertError(t, do(t, r, http.MethodGet, "/api/v1/lgd/summary"), http.StatusServiceUnavailable)
	assertError(t, do(t, r, http.MethodGet, "/api/v1/lgd/charts"), http.StatusServiceUnavailable)
}

func TestGetCharts(t *testing.T) {
	rec := do(t, newRouter(newFixtureStore(t), nil), http.MethodGet, "/api/v1/lgd/charts")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChartsResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Charts, 3)
	assert.Equal(t, []string{"Maharashtra", "Goa", "Bihar"}, resp.Charts[0].Labels)
	assert.Equal(t, []int{3, 2, 2}, resp.Charts[0].Values)
	assert.Equal(t, "bar", resp.Charts[2].Kind)
	assert.Equal(t, []string{"Maharashtra", "Goa", "Bihar"}, resp.Charts[2].Labels)
}

func TestGetLocations(t *testing.T) {
	r := newRouter(newFixtureStore(t), nil)

	rec := do(t, r, http.MethodGet, "/api/v1/lgd/locations")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.LocationResponse
	decode(t, rec, &resp)
	assert.Equal(t, []string{"Goa", "Maharashtra"}, resp.States)

	rec = do(t, r, http.MethodGet, "/api/v1/lgd/locations?state=Maharashtra&district=Pune&subdistrict=Haveli")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = models.LocationResponse{}
	decode(t, rec, &resp)
	assert.Equal(t, []string{"Lohegaon", "Wagholi"}, resp.Villages)

	assertError(t, do(t, r, http.MethodGet, "/api/v1/lgd/locations?district=Pune"), http.StatusBadRequest)
}

func TestRefreshDatasets(t *testing.T) {
	store := newFixtureStore(t)
	r := newRouter(store, nil)

	rec := do(t, r, http.MethodPost, "/api/v1/lgd/refresh?tier=district")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.Tier{models.TierDistrict}, store.refreshed)

	rec = do(t, r, http.MethodPost, "/api/v1/lgd/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RefreshResponse
	decode(t, rec, &resp)
	assert.Equal(t, models.Tiers, resp.Refreshed)

	assertError(t, do(t, r, http.MethodPost, "/api/v1/lgd/refresh?tier=block"), http.StatusNotFound)

	rec = do(t, r, http.MethodGet, "/api/v1/lgd/refresh")
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

type dashboardBody struct {
	Converter struct {
		Conversion struct {
			OK    bool               `json:"ok"`
			Data  ConversionResponse `json:"data"`
			Error *SectionError      `json:"error"`
		} `json:"conversion"`
		Table struct {
			OK   bool                    `json:"ok"`
			Data ConversionTableResponse `json:"data"`
		} `json:"table"`
	} `json:"converter"`
	KPI     map[models.Tier]Section `json:"kpi"`
	Tiers   map[models.Tier]Section `json:"tiers"`
	Summary Section                 `json:"summary"`
	Charts  Section                 `json:"charts"`
	Units   []string                `json:"units"`
	Queries map[models.Tier]string  `json:"queries"`
}

func TestGetDashboard(t *testing.T) {
	rec := do(t, newRouter(newFixtureStore(t), nil), http.MethodGet,
		"/api/v1/dashboard?value=2.5&from=Bigha&to=Square+feet&village=wagh")
	require.Equal(t, http.StatusOK, rec.Code)

	var body dashboardBody
	decode(t, rec, &body)

	assert.True(t, body.Converter.Conversion.OK)
	assert.Equal(t, "2.5 Bigha is equal to 35999.913889 Square feet", body.Converter.Conversion.Data.Text)
	assert.Len(t, body.Converter.Table.Data.Conversions, 19)
	assert.Len(t, body.Units, 19)

	for _, tier := range models.Tiers {
		assert.True(t, body.KPI[tier].OK, tier)
		assert.True(t, body.Tiers[tier].OK, tier)
	}
	assert.True(t, body.Summary.OK)
	assert.True(t, body.Charts.OK)
	assert.Equal(t, map[models.Tier]string{models.TierVillage: "wagh"}, body.Queries)
}

func TestGetDashboard_SectionsFailIndependently(t *testing.T) {
	store := newFixtureStore(t)
	store.errs[models.TierVillage] = &lgd.DataLoadError{Tier: models.TierVillage, Source: "x", Err: lgd.ErrUnexpectedStatus}
	m := metrics.New(prometheus.NewRegistry(), "test")

	rec := do(t, newRouter(store, m), http.MethodGet, "/api/v1/dashboard?value=1&from=Furlong")
	require.Equal(t, http.StatusOK, rec.Code)

	var body dashboardBody
	decode(t, rec, &body)

	assert.False(t, body.Converter.Conversion.OK)
	require.NotNil(t, body.Converter.Conversion.Error)
	assert.Equal(t, http.StatusBadRequest, body.Converter.Conversion.Error.Code)

	assert.True(t, body.Tiers[models.TierState].OK)
	assert.True(t, body.KPI[models.TierDistrict].OK)
	assert.False(t, body.Tiers[models.TierVillage].OK)
	assert.False(t, body.KPI[models.TierVillage].OK)

	assert.False(t, body.Summary.OK)
	require.NotNil(t, body.Summary.Error)
	assert.Equal(t, http.StatusServiceUnavailable, body.Summary.Error.Code)
	assert.False(t, body.Charts.OK)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SectionFailures.WithLabelValues("summary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SectionFailures.WithLabelValues("tier_village")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SectionFailures.WithLabelValues("converter")))
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", lgd.ErrUnknownTier), http.StatusNotFound},
		{&lgd.DataLoadError{Tier: "block", Err: lgd.ErrUnknownTier}, http.StatusNotFound},
		{&lgd.DataLoadError{Tier: models.TierState, Err: context.Canceled}, http.StatusBadGateway},
		{fmt.Errorf("%w: %w", lgd.ErrAggregationUnavailable, &lgd.DataLoadError{}), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}
