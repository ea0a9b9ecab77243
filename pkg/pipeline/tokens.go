package pipeline

import (
	"fmt"
	"sort"
)

// tokenMap is the bidirectional mapping between attachment IDs and the short
// tokens (A1, A2, ...) shown to the LLM. Built per resolution pass, never
// persisted.
type tokenMap struct {
	forward map[string]string // attachment ID -> token
	reverse map[string]string // token -> attachment ID
}

// newTokenMap assigns tokens A1..An over the given IDs in sorted order.
func newTokenMap(ids []string) *tokenMap {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	tm := &tokenMap{
		forward: make(map[string]string, len(sorted)),
		reverse: make(map[string]string, len(sorted)),
	}
	for i, id := range sorted {
		token := fmt.Sprintf("A%d", i+1)
		tm.forward[id] = token
		tm.reverse[token] = id
	}
	return tm
}

// tokensFor maps attachment IDs to their tokens. IDs with no mapping are
// skipped. Always returns a non-nil slice so empty lists marshal as [].
func (tm *tokenMap) tokensFor(ids []string) []string {
	tokens := make([]string, 0, len(ids))
	for _, id := range ids {
		if token, ok := tm.forward[id]; ok {
			tokens = append(tokens, token)
		}
	}
	sortTokens(tokens)
	return tokens
}

// sortTokens orders tokens numerically (A2 before A10). Tokens share the
// A<n> form, so shorter strings always carry smaller numbers.
func sortTokens(tokens []string) {
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) < len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
}

// idFor resolves a token back to its attachment ID.
func (tm *tokenMap) idFor(token string) (string, bool) {
	id, ok := tm.reverse[token]
	return id, ok
}

// unionAttachmentIDs collects the sorted, deduplicated union of attachment
// IDs across all existing memories and candidate facts.
func unionAttachmentIDs(existing []Existing, facts []CandidateFact) []string {
	seen := make(map[string]struct{})
	for _, mem := range existing {
		for _, id := range mem.AttachmentIDs {
			seen[id] = struct{}{}
		}
	}
	for _, fact := range facts {
		for _, id := range fact.AttachmentIDs {
			seen[id] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	union := make([]string, 0, len(seen))
	for id := range seen {
		union = append(union, id)
	}
	sort.Strings(union)
	return union
}

// mergeAttachmentIDs returns the sorted set union of two attachment ID
// lists as a new slice. Neither input is modified.
func mergeAttachmentIDs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		seen[id] = struct{}{}
	}

	if len(seen) == 0 {
		return nil
	}

	merged := make([]string, 0, len(seen))
	for id := range seen {
		merged = append(merged, id)
	}
	sort.Strings(merged)
	return merged
}
