// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/basketlift/basketlift/internal/config"
)

// Router assembles the HTTP surface.
type Router struct {
	handler *Handler
	config  config.ServerConfig
}

// NewRouter builds a router around the given handler set.
func NewRouter(handler *Handler, cfg config.ServerConfig) *Router {
	return &Router{handler: handler, config: cfg}
}

// Setup returns the fully wired chi handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order to every route.
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(corsMiddleware(router.config.CORSAllowedOrigins))

	// Health endpoints stay outside the API rate limit so monitoring is
	// never throttled out.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httpMetrics)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(router.config.RateLimit))
		r.Use(httpMetrics)

		r.Post("/recommendations", router.handler.Recommendations)
		r.Post("/checkout", router.handler.Checkout)
		r.Post("/transactions", router.handler.Transactions)
		r.Post("/train", router.handler.Train)
		r.Get("/train/status", router.handler.TrainStatus)
		r.Get("/rules", router.handler.Rules)
		r.Get("/quality", router.handler.Quality)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
