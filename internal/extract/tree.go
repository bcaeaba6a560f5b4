package extract

import (
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxDepth bounds every walk over a decoded document
const MaxDepth = 14

var (
	nameKeys  = []string{"name", "title", "localized_name", "productName"}
	imageKeys = []string{"images", "media", "image", "imageUrl"}
	priceKeys = []string{"price", "prices", "default_sku", "skus", "webctas"}
)

// Candidate is a node that looks like a product
type Candidate struct {
	Node  map[string]any
	Name  string
	Score int
}

// FindProductNode searches doc for the node most likely to describe a
// product. A node qualifies with a name longer than two characters and an
// images-like or price-like field. Score: images +2, price +2, name longer
// than five characters +1. The highest score wins and ties keep the first
// node found. Map keys are visited in sorted order so the result does not
// depend on map iteration. Best effort only: the upstream shape is not a
// stable contract.
func FindProductNode(doc any) (Candidate, bool) {
	var best Candidate
	found := false

	walk(doc, func(m map[string]any) bool {
		c, ok := scoreNode(m)
		if ok && (!found || c.Score > best.Score) {
			best = c
			found = true
		}
		return true
	})
	return best, found
}

func scoreNode(m map[string]any) (Candidate, bool) {
	name := firstString(m, nameKeys)
	if utf8.RuneCountInString(name) <= 2 {
		return Candidate{}, false
	}
	hasImages := hasAny(m, imageKeys)
	hasPrice := hasAny(m, priceKeys)
	if !hasImages && !hasPrice {
		return Candidate{}, false
	}

	score := 0
	if hasImages {
		score += 2
	}
	if hasPrice {
		score += 2
	}
	if utf8.RuneCountInString(name) > 5 {
		score++
	}
	return Candidate{Node: m, Name: name, Score: score}, true
}

// walk visits every map in v depth-first, in sorted key order, up to
// MaxDepth. Maps and slices already seen are skipped. visit returning false
// stops the walk.
func walk(v any, visit func(map[string]any) bool) {
	visited := make(map[uintptr]bool)
	var rec func(v any, depth int) bool
	rec = func(v any, depth int) bool {
		if depth > MaxDepth {
			return true
		}
		switch node := v.(type) {
		case map[string]any:
			ptr := reflect.ValueOf(node).Pointer()
			if visited[ptr] {
				return true
			}
			visited[ptr] = true

			if !visit(node) {
				return false
			}
			for _, k := range sortedKeys(node) {
				if !rec(node[k], depth+1) {
					return false
				}
			}
		case []any:
			if len(node) == 0 {
				return true
			}
			ptr := reflect.ValueOf(node).Pointer()
			if visited[ptr] {
				return true
			}
			visited[ptr] = true

			for _, item := range node {
				if !rec(item, depth+1) {
					return false
				}
			}
		}
		return true
	}
	rec(v, 0)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func hasAny(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if present(m[k]) {
			return true
		}
	}
	return false
}

func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
