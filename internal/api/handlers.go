// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/basketlift/basketlift/internal/config"
	"github.com/basketlift/basketlift/internal/ingest"
	"github.com/basketlift/basketlift/internal/logging"
	"github.com/basketlift/basketlift/internal/metrics"
	"github.com/basketlift/basketlift/internal/models"
	"github.com/basketlift/basketlift/internal/quality"
	"github.com/basketlift/basketlift/internal/recommend"
	"github.com/basketlift/basketlift/internal/training"
)

// Recommender serves suggestions from the active rule snapshot.
type Recommender interface {
	Recommend(basket []string, limit int) []recommend.Suggestion
	ActiveRules(limit int) []models.AssociationRule
}

// Trainer starts background training runs and reports their state.
type Trainer interface {
	Start(ctx context.Context, params training.Params) error
	Status() training.Status
}

// CheckoutStore records completed checkouts and answers readiness probes.
type CheckoutStore interface {
	SaveCheckout(ctx context.Context, recommended, purchased []string, at time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// QualityReporter computes the on-demand quality snapshot.
type QualityReporter interface {
	Compute(ctx context.Context) quality.Snapshot
}

// Ingestor bulk-loads raw retail rows.
type Ingestor interface {
	Ingest(ctx context.Context, rows []ingest.RawRow) (ingest.Result, error)
}

// Handler holds the endpoint implementations.
type Handler struct {
	engine   Recommender
	trainer  Trainer
	store    CheckoutStore
	quality  QualityReporter
	ingestor Ingestor
	training config.TrainingConfig
}

// NewHandler wires the endpoints to their collaborators.
func NewHandler(engine Recommender, trainer Trainer, store CheckoutStore, reporter QualityReporter, ingestor Ingestor, trainingDefaults config.TrainingConfig) *Handler {
	return &Handler{
		engine:   engine,
		trainer:  trainer,
		store:    store,
		quality:  reporter,
		ingestor: ingestor,
		training: trainingDefaults,
	}
}

type recommendRequest struct {
	Basket []string `json:"basket"`
	Limit  int      `json:"limit"`
}

type suggestionResponse struct {
	Item       string  `json:"item"`
	Confidence float64 `json:"confidence"`
	InBasket   bool    `json:"in_basket"`
	Display    string  `json:"display"`
}

// Recommendations returns ranked suggestions for a live basket. An empty
// basket or an unreadable rule set yields an empty list, never a failure;
// recommendations must not block a checkout.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Limit < 0 {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "limit must not be negative")
		return
	}

	suggestions := h.engine.Recommend(req.Basket, req.Limit)

	metrics.RecommendationRequests.Inc()
	metrics.RecommendationLatency.Observe(time.Since(start).Seconds())
	metrics.SuggestionsReturned.Observe(float64(len(suggestions)))

	out := make([]suggestionResponse, len(suggestions))
	for i, s := range suggestions {
		out[i] = suggestionResponse{
			Item:       s.Item,
			Confidence: s.Confidence,
			InBasket:   s.InBasket,
			Display:    s.Display(),
		}
	}
	writeSuccess(w, r, http.StatusOK, map[string]any{"suggestions": out})
}

type checkoutRequest struct {
	Recommended []string `json:"recommended"`
	Purchased   []string `json:"purchased"`
}

// Checkout records a completed sale: the purchased transaction, its
// anonymization log entry, and the recommendation log pairing suggested
// with bought.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if len(req.Purchased) == 0 {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "purchased items must not be empty")
		return
	}

	id, err := h.store.SaveCheckout(r.Context(), req.Recommended, req.Purchased, time.Now().UTC())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Checkout write failed")
		writeError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to record checkout")
		return
	}
	writeSuccess(w, r, http.StatusCreated, map[string]any{"transaction_id": id})
}

type trainRequest struct {
	MinSupport          *float64 `json:"min_support"`
	LiftThreshold       *float64 `json:"lift_threshold"`
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
}

// Train kicks off a background training run and returns 202 immediately.
// A run already in flight yields 409; the caller polls /train/status.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	params := training.Params{
		MinSupport:          h.training.MinSupport,
		LiftThreshold:       h.training.LiftThreshold,
		ConfidenceThreshold: h.training.ConfidenceThreshold,
	}

	if r.ContentLength != 0 {
		var req trainRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
		if req.MinSupport != nil {
			params.MinSupport = *req.MinSupport
		}
		if req.LiftThreshold != nil {
			params.LiftThreshold = *req.LiftThreshold
		}
		if req.ConfidenceThreshold != nil {
			params.ConfidenceThreshold = *req.ConfidenceThreshold
		}
	}

	if err := h.trainer.Start(r.Context(), params); err != nil {
		switch {
		case errors.Is(err, training.ErrTrainingInProgress):
			writeError(w, r, http.StatusConflict, ErrCodeConflict, "a training run is already in progress")
		case errors.Is(err, training.ErrInvalidThreshold):
			writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to start training")
		}
		return
	}
	writeSuccess(w, r, http.StatusAccepted, h.trainer.Status())
}

type ingestRequest struct {
	Rows []ingestRow `json:"rows"`
}

type ingestRow struct {
	TransactionID string    `json:"transaction_id"`
	ProductName   string    `json:"product_name"`
	CustomerID    string    `json:"customer_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// Transactions bulk-loads raw retail rows through the ingestion pipeline.
// Customer identifiers are dropped before anything is persisted.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if len(req.Rows) == 0 {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "rows must not be empty")
		return
	}

	rows := make([]ingest.RawRow, len(req.Rows))
	for i, row := range req.Rows {
		rows[i] = ingest.RawRow{
			TransactionID: row.TransactionID,
			ProductName:   row.ProductName,
			CustomerID:    row.CustomerID,
			Timestamp:     row.Timestamp,
		}
	}

	result, err := h.ingestor.Ingest(r.Context(), rows)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Bulk ingestion failed")
		writeError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "ingestion failed")
		return
	}
	writeSuccess(w, r, http.StatusCreated, result)
}

// TrainStatus reports the orchestrator state for polling clients.
func (h *Handler) TrainStatus(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, http.StatusOK, h.trainer.Status())
}

// Rules exposes the top active rules by lift, as shown on the shelf panel.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	rules := h.engine.ActiveRules(limit)
	writeSuccess(w, r, http.StatusOK, map[string]any{"rules": rules, "count": len(rules)})
}

// Quality computes and returns the current metric snapshot with any drift
// warnings. Computation degrades internally and never fails the request.
func (h *Handler) Quality(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, http.StatusOK, h.quality.Compute(r.Context()))
}

// HealthLive answers liveness probes.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady answers readiness probes by pinging the store.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness probe failed")
		writeError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "storage unavailable")
		return
	}
	writeSuccess(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
