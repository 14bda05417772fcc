// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package mining

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func testMiner(workers int) *Miner {
	return NewMiner(Config{Workers: workers}, zerolog.Nop())
}

// supportsByKey indexes mined itemsets for lookup in assertions.
func supportsByKey(itemsets []Itemset) map[string]float64 {
	m := make(map[string]float64, len(itemsets))
	for _, s := range itemsets {
		m[s.Key()] = s.Support
	}
	return m
}

func TestMineRejectsInvalidSupport(t *testing.T) {
	m := testMiner(1)
	corpus := [][]string{{"milk"}}

	for _, minSupport := range []float64{0, -0.5, 1.5} {
		if _, err := m.Mine(context.Background(), corpus, minSupport); !errors.Is(err, ErrInvalidSupport) {
			t.Errorf("Mine(minSupport=%v) error = %v, want ErrInvalidSupport", minSupport, err)
		}
	}
}

func TestMineEmptyCorpus(t *testing.T) {
	itemsets, err := testMiner(1).Mine(context.Background(), nil, 0.5)
	if err != nil {
		t.Fatalf("Mine() on empty corpus: %v", err)
	}
	if len(itemsets) != 0 {
		t.Errorf("expected empty result, got %v", itemsets)
	}
}

func TestMineGroceryCorpus(t *testing.T) {
	corpus := [][]string{
		{"milk", "bread"},
		{"milk", "bread", "butter"},
		{"milk"},
		{"bread", "butter"},
	}

	itemsets, err := testMiner(1).Mine(context.Background(), corpus, 0.5)
	if err != nil {
		t.Fatalf("Mine(): %v", err)
	}

	got := supportsByKey(itemsets)
	want := map[string]float64{
		KeyFor([]string{"milk"}):            0.75,
		KeyFor([]string{"bread"}):           0.75,
		KeyFor([]string{"butter"}):          0.5,
		KeyFor([]string{"milk", "bread"}):   0.5,
		KeyFor([]string{"bread", "butter"}): 0.5,
	}

	if len(got) != len(want) {
		t.Errorf("got %d itemsets %v, want %d", len(got), got, len(want))
	}
	for key, support := range want {
		if math.Abs(got[key]-support) > 1e-9 {
			t.Errorf("support for %q = %v, want %v", key, got[key], support)
		}
	}
	if _, ok := got[KeyFor([]string{"milk", "butter"})]; ok {
		t.Error("{milk, butter} has support 0.25 and must be excluded at 0.5")
	}
}

func TestMineUbiquitousItem(t *testing.T) {
	corpus := [][]string{
		{"milk", "eggs"},
		{"milk"},
		{"milk", "bread"},
	}

	itemsets, err := testMiner(1).Mine(context.Background(), corpus, 0.9)
	if err != nil {
		t.Fatalf("Mine(): %v", err)
	}

	got := supportsByKey(itemsets)
	if support, ok := got[KeyFor([]string{"milk"})]; !ok || support != 1.0 {
		t.Errorf("item in 100%% of transactions should mine at support 1.0, got %v", got)
	}
}

func TestMineDeduplicatesWithinTransaction(t *testing.T) {
	// "milk, milk, bread" is the transaction {milk, bread}.
	corpus := [][]string{
		{"milk", "milk", "bread"},
		{"milk"},
	}

	itemsets, err := testMiner(1).Mine(context.Background(), corpus, 0.5)
	if err != nil {
		t.Fatalf("Mine(): %v", err)
	}

	got := supportsByKey(itemsets)
	if support := got[KeyFor([]string{"milk"})]; support != 1.0 {
		t.Errorf("support(milk) = %v, want 1.0 after dedup", support)
	}
}

func TestMineDownwardClosure(t *testing.T) {
	corpus := [][]string{
		{"a", "b", "c"},
		{"a", "b", "c"},
		{"a", "b"},
		{"b", "c"},
		{"a", "c", "d"},
	}

	itemsets, err := testMiner(2).Mine(context.Background(), corpus, 0.4)
	if err != nil {
		t.Fatalf("Mine(): %v", err)
	}

	got := supportsByKey(itemsets)
	for _, s := range itemsets {
		if s.Support < 0.4-1e-9 {
			t.Errorf("itemset %v has support %v below threshold", s.Items, s.Support)
		}
		if len(s.Items) < 2 {
			continue
		}
		// Every (n-1)-subset must also be present.
		for drop := range s.Items {
			subset := make([]string, 0, len(s.Items)-1)
			for i, item := range s.Items {
				if i != drop {
					subset = append(subset, item)
				}
			}
			sub, ok := got[KeyFor(subset)]
			if !ok {
				t.Errorf("subset %v of %v missing from result", subset, s.Items)
				continue
			}
			if sub < s.Support-1e-9 {
				t.Errorf("subset %v support %v below superset %v support %v", subset, sub, s.Items, s.Support)
			}
		}
	}
}

func TestMineDeterministicAcrossWorkerCounts(t *testing.T) {
	corpus := [][]string{
		{"a", "b", "c", "d"},
		{"a", "b", "c"},
		{"a", "b"},
		{"b", "c", "d"},
		{"a", "c"},
		{"b", "d"},
		{"a", "b", "d"},
	}

	serial, err := testMiner(1).Mine(context.Background(), corpus, 0.25)
	if err != nil {
		t.Fatalf("Mine(): %v", err)
	}

	for _, workers := range []int{2, 4, 8} {
		parallel, err := testMiner(workers).Mine(context.Background(), corpus, 0.25)
		if err != nil {
			t.Fatalf("Mine() with %d workers: %v", workers, err)
		}
		if !reflect.DeepEqual(serial, parallel) {
			t.Errorf("workers=%d produced different output than serial mining", workers)
		}
	}
}

func TestMineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	corpus := [][]string{
		{"a", "b"},
		{"b", "c"},
	}

	if _, err := testMiner(2).Mine(ctx, corpus, 0.1); !errors.Is(err, context.Canceled) {
		t.Errorf("Mine() with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestKeyForDoesNotMutateInput(t *testing.T) {
	items := []string{"c", "a", "b"}
	KeyFor(items)
	if !reflect.DeepEqual(items, []string{"c", "a", "b"}) {
		t.Errorf("KeyFor mutated input: %v", items)
	}
}
