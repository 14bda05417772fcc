// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package models

import "strings"

// NoneLiteral is the persisted placeholder for an empty item list.
// Historical logs use it in recommended_items and purchased_items columns.
const NoneLiteral = "None"

// JoinItems encodes an item list into its persisted form: items joined by
// ", ", or NoneLiteral when the list is empty.
func JoinItems(items []string) string {
	if len(items) == 0 {
		return NoneLiteral
	}
	return strings.Join(items, ", ")
}

// SplitItems decodes a persisted item list. The empty string and NoneLiteral
// both decode to nil. Surrounding whitespace is trimmed per item and empty
// cells are dropped.
func SplitItems(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == NoneLiteral {
		return nil
	}

	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// NormalizeItem canonicalizes an item name for matching: trimmed and
// lowercased. Display casing is preserved elsewhere; matching is always
// case-insensitive.
func NormalizeItem(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DedupeItems returns the list with duplicate names removed, keeping first
// occurrence order. Comparison is case-insensitive; the first-seen casing
// is preserved.
func DedupeItems(items []string) []string {
	if len(items) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := NormalizeItem(item)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(item))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
