package search

import (
	"strings"

	"github.com/gartstein/partnerhub/internal/partner/models"
)

// ApplyPriorityOrder moves partners whose name matches a priority name
// (case-insensitively) to the front, ordered by their position in
// priorityNames. The remaining partners follow in their original order.
// The input slice is not modified.
func ApplyPriorityOrder(partners []models.Partner, priorityNames []string) []models.Partner {
	if len(priorityNames) == 0 {
		return partners
	}

	rank := make(map[string]int, len(priorityNames))
	for i, name := range priorityNames {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := rank[key]; !seen {
			rank[key] = i
		}
	}

	buckets := make([][]models.Partner, len(priorityNames))
	rest := make([]models.Partner, 0, len(partners))
	for _, p := range partners {
		if i, ok := rank[strings.ToLower(strings.TrimSpace(p.Name))]; ok {
			buckets[i] = append(buckets[i], p)
			continue
		}
		rest = append(rest, p)
	}

	out := make([]models.Partner, 0, len(partners))
	for _, b := range buckets {
		out = append(out, b...)
	}
	return append(out, rest...)
}
