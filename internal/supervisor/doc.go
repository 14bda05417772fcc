// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package supervisor runs Basketlift's long-lived components under a
// Suture supervision tree. A crash in one service is restarted with
// backoff without taking the process down. Supervision events are logged
// through sutureslog into the shared zerolog stream.
package supervisor
