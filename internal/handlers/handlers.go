package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/engine"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/ledger"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// Handler serves the edge-engine HTTP API.
type Handler struct {
	engine *engine.Engine
	store  *ledger.Store
}

func NewHandler(eng *engine.Engine, store *ledger.Store) *Handler {
	return &Handler{
		engine: eng,
		store:  store,
	}
}

// Routes mounts all endpoints on a fresh chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/analysis", h.GetAnalysis)
		r.Get("/predictions/{id}", h.GetPrediction)
		r.Post("/predictions/{id}/outcome", h.RecordOutcome)
		r.Get("/snapshots/{sportKey}", h.GetSnapshots)
	})

	return r
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "edge-engine",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// GetAnalysis handles GET /api/v1/analysis?home=...&away=...&sport=...&date=YYYY-MM-DD
//
// Serves from cache when the entry is fresh; recomputes when the cache
// misses or the fixture is inside the kickoff bypass window.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	homeTeam := r.URL.Query().Get("home")
	awayTeam := r.URL.Query().Get("away")
	sportKey := r.URL.Query().Get("sport")

	if homeTeam == "" || awayTeam == "" || sportKey == "" {
		respondError(w, http.StatusBadRequest, "home, away and sport query parameters are required", nil)
		return
	}

	date := time.Now().UTC()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", err)
			return
		}
		date = parsed
	}

	analysis, err := h.engine.GetOrCompute(ctx, homeTeam, awayTeam, sportKey, date)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrFixtureNotFound):
			respondError(w, http.StatusNotFound, "no fixture found for the requested teams and date", err)
		case errors.Is(err, models.ErrNoMarketData), errors.Is(err, models.ErrInvalidOdds):
			respondError(w, http.StatusUnprocessableEntity, "no usable market data for this fixture", err)
		case errors.Is(err, models.ErrRateLimited):
			respondError(w, http.StatusServiceUnavailable, "upstream provider rate limited", err)
		default:
			respondError(w, http.StatusInternalServerError, "analysis failed", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, analysis)
}

// GetPrediction handles GET /api/v1/predictions/{id}
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "prediction id is required", nil)
		return
	}

	prediction, err := h.store.GetPrediction(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load prediction", err)
		return
	}
	if prediction == nil {
		respondError(w, http.StatusNotFound, "prediction not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, prediction)
}

type outcomeRequest struct {
	Outcome string `json:"outcome"`
}

// RecordOutcome handles POST /api/v1/predictions/{id}/outcome
//
// Settles a pending prediction. Settling an already-settled prediction
// is a no-op and still returns 200.
func (h *Handler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "prediction id is required", nil)
		return
	}

	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	outcome := models.Outcome(req.Outcome)
	switch outcome {
	case models.OutcomeHome, models.OutcomeAway, models.OutcomeDraw:
	default:
		respondError(w, http.StatusBadRequest, "outcome must be home, away or draw", nil)
		return
	}

	prediction, err := h.store.GetPrediction(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load prediction", err)
		return
	}
	if prediction == nil {
		respondError(w, http.StatusNotFound, "prediction not found", nil)
		return
	}

	if err := h.store.RecordOutcome(ctx, id, outcome); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to record outcome", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"id":      id,
		"outcome": string(outcome),
		"status":  "recorded",
	})
}

// GetSnapshots handles GET /api/v1/snapshots/{sportKey}?min_alert=MEDIUM
func (h *Handler) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sportKey := chi.URLParam(r, "sportKey")
	if sportKey == "" {
		respondError(w, http.StatusBadRequest, "sport key is required", nil)
		return
	}

	minAlert := models.AlertLow
	if levelStr := r.URL.Query().Get("min_alert"); levelStr != "" {
		level := models.AlertLevel(levelStr)
		switch level {
		case models.AlertHigh, models.AlertMedium, models.AlertLow:
			minAlert = level
		default:
			respondError(w, http.StatusBadRequest, "min_alert must be HIGH, MEDIUM or LOW", nil)
			return
		}
	}

	snapshots, err := h.store.ListSnapshots(ctx, sportKey, minAlert)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list snapshots", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport_key": sportKey,
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("error encoding response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		fmt.Printf("error: %s - %v\n", message, err)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		fmt.Printf("error encoding error response: %v\n", err)
	}
}
