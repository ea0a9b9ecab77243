package sqlite

import (
	"math"
	"sort"
	"strings"

	"github.com/openmemory-ai/openmemory-go/pkg/vectorstore"
)

// buildWhereClause builds a WHERE clause for user/agent scoping.
//
// When activeOnly is true, the clause restricts rows to the active lifecycle
// state so that archived and paused memories never surface in search.
func buildWhereClause(userID, agentID string, activeOnly bool) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if userID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, userID)
	}

	if agentID != "" {
		conditions = append(conditions, "agent_id = ?")
		args = append(args, agentID)
	}

	if activeOnly {
		conditions = append(conditions, "state = ?")
		args = append(args, string(vectorstore.StateActive))
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// matchesFilters reports whether a memory's metadata satisfies every filter entry.
func matchesFilters(metadata map[string]interface{}, filters map[string]interface{}) bool {
	if len(filters) == 0 {
		return true
	}
	if metadata == nil {
		return false
	}
	for k, want := range filters {
		got, ok := metadata[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sortByScore sorts memories by score (descending) and limits the number of results.
func sortByScore(memories []*vectorstore.Memory, limit int) []*vectorstore.Memory {
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].Score > memories[j].Score
	})

	if limit > 0 && len(memories) > limit {
		return memories[:limit]
	}

	return memories
}
