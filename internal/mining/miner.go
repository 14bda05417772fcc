// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package mining

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidSupport is returned when the minimum support threshold is
// outside (0, 1].
var ErrInvalidSupport = errors.New("minimum support must be in (0, 1]")

// Itemset is a set of item names together with its support: the fraction of
// transactions containing every item in the set.
type Itemset struct {
	// Items holds the item names in canonical (lexicographic) order.
	Items []string `json:"items"`

	// Support is in (0, 1]. An item present in every transaction has
	// support 1.0.
	Support float64 `json:"support"`

	// Count is the absolute number of transactions containing the set.
	Count int `json:"count"`
}

// Key returns the canonical identity of the itemset, suitable for support
// lookups. Items must already be in canonical order, which Mine guarantees.
func (s Itemset) Key() string {
	return strings.Join(s.Items, "\x1f")
}

// KeyFor builds the canonical key for an arbitrary item list without
// mutating the input.
func KeyFor(items []string) string {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x1f")
}

// Config contains miner tuning parameters.
type Config struct {
	// Workers bounds the number of concurrent branch-mining goroutines.
	// Zero or negative means runtime.NumCPU().
	Workers int
}

// Miner computes frequent itemsets from a transaction corpus.
type Miner struct {
	workers int
	logger  zerolog.Logger
}

// NewMiner creates a miner with the given configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMiner(cfg Config, logger zerolog.Logger) *Miner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Miner{
		workers: workers,
		logger:  logger.With().Str("component", "mining").Logger(),
	}
}

// Mine returns every itemset whose support is at least minSupport.
//
// Each input transaction is treated as a set: duplicate item names are
// collapsed before counting. An empty corpus yields an empty result, not an
// error. minSupport outside (0, 1] fails with ErrInvalidSupport before any
// work is done.
func (m *Miner) Mine(ctx context.Context, transactions [][]string, minSupport float64) ([]Itemset, error) {
	if minSupport <= 0 || minSupport > 1 {
		return nil, ErrInvalidSupport
	}
	if len(transactions) == 0 {
		return []Itemset{}, nil
	}

	start := time.Now()
	total := len(transactions)

	paths := make([]weightedPath, 0, total)
	for _, txn := range transactions {
		if items := dedupe(txn); len(items) > 0 {
			paths = append(paths, weightedPath{items: items, weight: 1})
		}
	}

	// Smallest absolute count satisfying count/total >= minSupport. The
	// epsilon guards against float rounding on exact thresholds such as
	// 0.5 over 4 transactions.
	minCount := int(math.Ceil(minSupport*float64(total) - 1e-9))
	if minCount < 1 {
		minCount = 1
	}

	tree := newFPTree(paths, minCount)
	if tree == nil {
		m.logger.Debug().
			Int("transactions", total).
			Float64("min_support", minSupport).
			Msg("no items reach minimum support")
		return []Itemset{}, nil
	}

	itemsets, err := m.mineParallel(ctx, tree, minCount)
	if err != nil {
		return nil, err
	}

	for i := range itemsets {
		sort.Strings(itemsets[i].Items)
		itemsets[i].Support = float64(itemsets[i].Count) / float64(total)
	}

	// Deterministic output order regardless of branch scheduling:
	// support descending, then smaller sets first, then item order.
	sort.Slice(itemsets, func(i, j int) bool {
		a, b := itemsets[i], itemsets[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if len(a.Items) != len(b.Items) {
			return len(a.Items) < len(b.Items)
		}
		return a.Key() < b.Key()
	})

	m.logger.Debug().
		Int("transactions", total).
		Float64("min_support", minSupport).
		Int("itemsets", len(itemsets)).
		Dur("elapsed", time.Since(start)).
		Msg("mining complete")

	return itemsets, nil
}

// mineParallel fans header-table branches out to a bounded worker pool.
// Branches are independent: each emits only itemsets ending with its own
// item, so the union over branches covers every frequent itemset exactly
// once.
func (m *Miner) mineParallel(ctx context.Context, tree *fpTree, minCount int) ([]Itemset, error) {
	workers := m.workers
	if workers > len(tree.order) {
		workers = len(tree.order)
	}

	branches := make(chan string, len(tree.order))
	for _, item := range tree.order {
		branches <- item
	}
	close(branches)

	var (
		mu       sync.Mutex
		itemsets []Itemset
		wg       sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var local []Itemset
			for item := range branches {
				if ctx.Err() != nil {
					return
				}
				tree.mineBranch(item, nil, minCount, func(items []string, count int) {
					local = append(local, Itemset{Items: items, Count: count})
				})
			}

			mu.Lock()
			itemsets = append(itemsets, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return itemsets, nil
}

// dedupe collapses duplicate item names within one transaction, preserving
// first-occurrence order.
func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
