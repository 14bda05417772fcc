// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package api exposes the checkout-facing HTTP surface.
//
// Routing is built on Chi with middleware from its ecosystem: go-chi/cors
// for preflight handling and go-chi/httprate for per-IP rate limiting.
// Responses use a uniform envelope with a request identifier for tracing.
//
// The serving path never blocks on training: recommendation requests read
// an in-memory rule snapshot, and POST /train returns 202 while the run
// proceeds in the background.
package api
