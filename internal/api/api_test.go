package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GridSentinel/internal/collector"
	"GridSentinel/internal/factor"
	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
	"GridSentinel/internal/recorder"
	"GridSentinel/internal/service"
)

type stubFetcher struct{}

func (stubFetcher) Name() string { return "stub" }

func (stubFetcher) FetchDailyBars(_ context.Context, symbol string, n int) ([]model.OHLCV, error) {
	if symbol == "BAD" {
		return nil, errors.New("upstream down")
	}
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := 50.0
		if i%2 == 1 {
			c = 50.5
		}
		bars[i] = model.OHLCV{Close: c, Volume: 1_000_000, Turnover: 0.02}
	}
	return bars, nil
}

func (stubFetcher) FetchFundamentals(context.Context, string) (model.Fundamentals, error) {
	return model.Fundamentals{PE: model.Float(15), MarketCap: model.Float(2e10)}, nil
}

func newTestRouter(t *testing.T, cfg *factor.Config) (http.Handler, recorder.Recorder) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	svc := service.New(collector.NewCollector(stubFetcher{}, 60), cfg)
	return NewRouter(NewHandler(svc, rec)), rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, factor.Defaults())
	w := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","service":"gridsentinel"}`, w.Body.String())
}

func TestEvaluate(t *testing.T) {
	h, rec := newTestRouter(t, factor.Defaults())
	w := get(t, h, "/api/evaluate/600000")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Symbol      string                                  `json:"symbol"`
		IsSupported bool                                    `json:"is_supported"`
		Reason      map[model.Category][]model.FactorResult `json:"reason"`
		GridConfig  *model.GridConfig                       `json:"grid_config"`
		PassRate    float64                                 `json:"pass_rate"`
		Summary     string                                  `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "600000", body.Symbol)
	assert.True(t, body.IsSupported)
	assert.Len(t, body.Reason[model.CategoryFundamental], 1)
	require.NotNil(t, body.GridConfig)
	assert.Equal(t, 20, body.GridConfig.GridCount)
	assert.Equal(t, 1.0, body.PassRate)
	assert.Contains(t, body.Summary, "通过7个")

	recs, err := rec.ListEvaluations("600000", 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestEvaluate_Unsupported(t *testing.T) {
	cfg := factor.Defaults()
	cfg.PERatio.MaxPE = 10
	h, _ := newTestRouter(t, cfg)

	w := get(t, h, "/api/evaluate/600000")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["is_supported"])
	assert.Nil(t, body["grid_config"])
}

func TestEvaluate_UpstreamError(t *testing.T) {
	h, _ := newTestRouter(t, factor.Defaults())
	w := get(t, h, "/api/evaluate/bad")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream down")
}

func TestFactors(t *testing.T) {
	cfg := factor.Defaults()
	cfg.DisableFactor(factor.NameTurnover)
	h, _ := newTestRouter(t, cfg)

	w := get(t, h, "/api/factors")
	require.Equal(t, http.StatusOK, w.Code)

	var body FactorsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Factors, len(factor.Names()))
	assert.NotContains(t, body.Enabled, factor.NameTurnover)
	for _, f := range body.Factors {
		assert.Equal(t, f.Name != factor.NameTurnover, f.Enabled, f.Name)
		assert.Equal(t, string(service.CategoryOf(f.Name)), f.Category)
	}
}

func TestEvaluations(t *testing.T) {
	h, _ := newTestRouter(t, factor.Defaults())
	get(t, h, "/api/evaluate/600000")
	get(t, h, "/api/evaluate/000001")
	get(t, h, "/api/evaluate/600000")

	w := get(t, h, "/api/evaluations?symbol=600000")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []EvaluationSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)
	assert.Len(t, rows[0].Factors, 7)

	w = get(t, h, "/api/evaluations?limit=1")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)

	w = get(t, h, "/api/evaluations?limit=-3")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t, factor.Defaults())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/factors", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Default().WithComponent("test"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}
