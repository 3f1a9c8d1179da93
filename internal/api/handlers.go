package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"GridSentinel/internal/factor"
	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
	"GridSentinel/internal/recorder"
	"GridSentinel/internal/service"
)

// Handler serves the evaluation endpoints.
type Handler struct {
	Service  *service.StockEvaluationService
	Recorder recorder.Recorder

	log *logrus.Entry
}

func NewHandler(svc *service.StockEvaluationService, rec recorder.Recorder) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{
		Service:  svc,
		Recorder: rec,
		log:      logger.Default().WithComponent("api"),
	}
}

// EvaluateResponse is the body of GET /api/evaluate/{symbol}.
type EvaluateResponse struct {
	*model.EvaluationResult
	PassRate float64 `json:"pass_rate"`
	Summary  string  `json:"summary"`
}

// FactorInfo describes one registered factor.
type FactorInfo struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Enabled  bool   `json:"enabled"`
}

// FactorsResponse is the body of GET /api/factors.
type FactorsResponse struct {
	Source  string       `json:"source,omitempty"`
	Enabled []string     `json:"enabled_factors"`
	Factors []FactorInfo `json:"factors"`
}

// EvaluationSummary is one row of GET /api/evaluations.
type EvaluationSummary struct {
	ID          int64                `json:"id"`
	Timestamp   time.Time            `json:"timestamp"`
	Symbol      string               `json:"symbol"`
	IsSupported bool                 `json:"is_supported"`
	Total       int                  `json:"total"`
	Passed      int                  `json:"passed"`
	Factors     []model.FactorResult `json:"factors"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "gridsentinel",
	})
}

// Evaluate runs every enabled factor for a symbol.
// GET /api/evaluate/{symbol}
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	run, res, err := h.Service.EvaluateDetailed(r.Context(), symbol)
	if err != nil {
		h.log.WithError(err).WithField("symbol", symbol).Error("evaluate symbol")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err := h.Recorder.RecordEvaluation(res); err != nil {
		h.log.WithError(err).WithField("symbol", symbol).Error("record evaluation")
	}

	respondJSON(w, http.StatusOK, EvaluateResponse{
		EvaluationResult: res,
		PassRate:         run.PassRate(),
		Summary:          run.Summary(),
	})
}

// Factors lists the registry with the enabled state.
// GET /api/factors
func (h *Handler) Factors(w http.ResponseWriter, r *http.Request) {
	cfg := h.Service.Config
	if cfg == nil {
		cfg = factor.Default()
	}
	resp := FactorsResponse{
		Source:  cfg.Source,
		Enabled: cfg.EnabledFactors,
	}
	for _, name := range factor.Names() {
		resp.Factors = append(resp.Factors, FactorInfo{
			Name:     name,
			Category: string(service.CategoryOf(name)),
			Enabled:  cfg.IsFactorEnabled(name),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// Evaluations lists recorded evaluations, newest first.
// GET /api/evaluations?symbol=600000&limit=20
func (h *Handler) Evaluations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 20
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := h.Recorder.ListEvaluations(strings.ToUpper(q.Get("symbol")), limit)
	if err != nil {
		h.log.WithError(err).Error("list evaluations")
		respondError(w, http.StatusInternalServerError, "failed to list evaluations")
		return
	}
	out := make([]EvaluationSummary, len(recs))
	for i, rec := range recs {
		out[i] = EvaluationSummary(rec)
	}
	respondJSON(w, http.StatusOK, out)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
