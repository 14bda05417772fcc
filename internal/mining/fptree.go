// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package mining

import "sort"

// fpNode is one node of the frequent-pattern tree. Each node represents a
// prefix of one or more transactions; count is how many transactions share
// that prefix.
type fpNode struct {
	item     string
	count    int
	parent   *fpNode
	children map[string]*fpNode
}

// weightedPath is a transaction (or conditional pattern) with a multiplicity.
// Base transactions carry weight 1; conditional pattern bases carry the
// count of the node they were projected from.
type weightedPath struct {
	items  []string
	weight int
}

// fpTree is a compressed prefix tree of item co-occurrences. Items within a
// path are ordered by descending tree-wide frequency so common prefixes
// collapse into shared nodes.
type fpTree struct {
	root    *fpNode
	headers map[string][]*fpNode
	counts  map[string]int

	// order lists frequent items by ascending frequency: the mining order.
	// Least-frequent-first keeps conditional trees small.
	order []string

	// rank gives each frequent item its position in the descending
	// frequency order used for path insertion.
	rank map[string]int
}

// newFPTree builds a tree from weighted paths, keeping only items whose
// weighted count reaches minCount. Returns nil if no item is frequent.
func newFPTree(paths []weightedPath, minCount int) *fpTree {
	counts := make(map[string]int)
	for _, p := range paths {
		for _, item := range p.items {
			counts[item] += p.weight
		}
	}

	frequent := make([]string, 0, len(counts))
	for item, c := range counts {
		if c >= minCount {
			frequent = append(frequent, item)
		}
	}
	if len(frequent) == 0 {
		return nil
	}

	// Descending count, ties broken lexicographically so insertion order
	// is identical across runs.
	sort.Slice(frequent, func(i, j int) bool {
		a, b := frequent[i], frequent[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return a < b
	})

	rank := make(map[string]int, len(frequent))
	for i, item := range frequent {
		rank[item] = i
	}

	t := &fpTree{
		root:    &fpNode{children: make(map[string]*fpNode)},
		headers: make(map[string][]*fpNode, len(frequent)),
		counts:  make(map[string]int, len(frequent)),
		rank:    rank,
	}
	for _, item := range frequent {
		t.counts[item] = counts[item]
	}

	// Mining order is the reverse of insertion order.
	t.order = make([]string, len(frequent))
	for i, item := range frequent {
		t.order[len(frequent)-1-i] = item
	}

	for _, p := range paths {
		t.insert(p)
	}
	return t
}

// insert adds one weighted path, filtered to frequent items and sorted by
// insertion rank.
func (t *fpTree) insert(p weightedPath) {
	items := make([]string, 0, len(p.items))
	for _, item := range p.items {
		if _, ok := t.rank[item]; ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return
	}
	sort.Slice(items, func(i, j int) bool {
		return t.rank[items[i]] < t.rank[items[j]]
	})

	node := t.root
	for _, item := range items {
		child, ok := node.children[item]
		if !ok {
			child = &fpNode{
				item:     item,
				parent:   node,
				children: make(map[string]*fpNode),
			}
			node.children[item] = child
			t.headers[item] = append(t.headers[item], child)
		}
		child.count += p.weight
		node = child
	}
}

// conditionalBase projects the pattern base for an item: every prefix path
// leading to one of its nodes, weighted by that node's count.
func (t *fpTree) conditionalBase(item string) []weightedPath {
	nodes := t.headers[item]
	base := make([]weightedPath, 0, len(nodes))
	for _, n := range nodes {
		var prefix []string
		for p := n.parent; p != nil && p.item != ""; p = p.parent {
			prefix = append(prefix, p.item)
		}
		if len(prefix) == 0 {
			continue
		}
		// Reverse into root-to-node order.
		for i, j := 0, len(prefix)-1; i < j; i, j = i+1, j-1 {
			prefix[i], prefix[j] = prefix[j], prefix[i]
		}
		base = append(base, weightedPath{items: prefix, weight: n.count})
	}
	return base
}

// mineBranch emits every frequent itemset that extends suffix with the given
// item, recursing through conditional trees. Emission order within a branch
// is deterministic; the caller is still expected to sort the merged result.
func (t *fpTree) mineBranch(item string, suffix []string, minCount int, emit func(items []string, count int)) {
	support := t.counts[item]
	if support < minCount {
		return
	}

	itemset := make([]string, 0, len(suffix)+1)
	itemset = append(itemset, suffix...)
	itemset = append(itemset, item)
	emit(itemset, support)

	base := t.conditionalBase(item)
	if len(base) == 0 {
		return
	}
	cond := newFPTree(base, minCount)
	if cond == nil {
		return
	}
	for _, next := range cond.order {
		cond.mineBranch(next, itemset, minCount, emit)
	}
}
