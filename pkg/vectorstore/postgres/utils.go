package postgres

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// vectorToString converts a float64 vector to pgvector's text format.
func vectorToString(vector []float64) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVectorString parses pgvector's text format back into a float64 slice.
func parseVectorString(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	vector := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		vector[i] = v
	}

	return vector, nil
}

// buildWhereClauseWithOffset builds a WHERE clause with numbered placeholders
// starting at the given index. Metadata filters use JSONB containment.
func buildWhereClauseWithOffset(userID, agentID string, filters map[string]interface{}, activeOnly bool, startIndex int) (string, []interface{}, error) {
	var conditions []string
	var args []interface{}

	idx := startIndex

	if userID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", idx))
		args = append(args, userID)
		idx++
	}

	if agentID != "" {
		conditions = append(conditions, fmt.Sprintf("agent_id = $%d", idx))
		args = append(args, agentID)
		idx++
	}

	if activeOnly {
		conditions = append(conditions, fmt.Sprintf("state = $%d", idx))
		args = append(args, "active")
		idx++
	}

	if len(filters) > 0 {
		filterJSON, err := json.Marshal(filters)
		if err != nil {
			return "", nil, fmt.Errorf("marshal filters: %w", err)
		}
		conditions = append(conditions, fmt.Sprintf("metadata @> $%d", idx))
		args = append(args, string(filterJSON))
		idx++
	}

	if len(conditions) == 0 {
		return "", args, nil
	}

	return "WHERE " + strings.Join(conditions, " AND "), args, nil
}
