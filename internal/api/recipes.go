package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ecolabel/platescore/internal/lcia"
	"github.com/ecolabel/platescore/internal/notify"
)

// Scorer runs the scoring pipeline for one recipe request.
type Scorer interface {
	Score(ctx context.Context, req lcia.RecipeRequest) (*lcia.Result, error)
}

type RecipesHandler struct {
	scorer  Scorer
	events  notify.Client
	metrics *Metrics
}

func NewRecipesHandler(s Scorer, events notify.Client, m *Metrics) *RecipesHandler {
	return &RecipesHandler{scorer: s, events: events, metrics: m}
}

type ScoreRecipeRequest struct {
	Items      map[string]float64 `json:"items"`
	SchemeName string             `json:"scheme_name,omitempty"`
	SchemeID   *int               `json:"scheme_id,omitempty"`
}

func (h *RecipesHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	start := time.Now()
	result, err := h.scorer.Score(r.Context(), lcia.RecipeRequest{
		Items:      req.Items,
		SchemeName: req.SchemeName,
		SchemeID:   req.SchemeID,
	})
	if err != nil {
		h.observe("error", time.Since(start), 0, 0)

		var verr *lcia.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
			return
		}
		var nferr *lcia.SchemeNotFoundError
		if errors.As(err, &nferr) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": nferr.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	outcome := "ok"
	if len(result.Failures) > 0 {
		outcome = "partial"
	}
	h.observe(outcome, time.Since(start), len(result.Items), len(result.Failures))

	if h.events != nil {
		_ = h.events.Publish(notify.SubjectRecipeScored(result.CalculationID.String()), notify.RecipeScoredEvent{
			CalculationID: result.CalculationID.String(),
			Scheme:        result.Scheme.Name,
			Items:         len(result.Items),
			Failures:      len(result.Failures),
			Timestamp:     time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *RecipesHandler) observe(outcome string, d time.Duration, items, failures int) {
	if h.metrics == nil {
		return
	}
	h.metrics.recipesScored.WithLabelValues(outcome).Inc()
	h.metrics.scoreDuration.Observe(d.Seconds())
	if items > 0 {
		h.metrics.itemsPerRecipe.Observe(float64(items))
	}
	h.metrics.itemFailures.Add(float64(failures))
}
