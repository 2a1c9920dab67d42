package resolver

import "strings"

// buildQueries produces the cascading query list for one record, most to
// least specific. Empty fields drop out of their query, and a query that
// collapses to an earlier one is skipped, preserving first-seen order.
func buildQueries(name, address, city, country string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	address = strings.TrimSpace(address)
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)

	shapes := [][]string{
		{name, address, city, country},
		{name, city, country},
		{name, city},
		{name, country},
		{name},
		{name, address},
	}

	queries := make([]string, 0, len(shapes))
	seen := make(map[string]struct{}, len(shapes))
	for _, shape := range shapes {
		parts := make([]string, 0, len(shape))
		for _, part := range shape {
			if part != "" {
				parts = append(parts, part)
			}
		}
		query := strings.Join(parts, " ")
		if _, dup := seen[query]; dup {
			continue
		}
		seen[query] = struct{}{}
		queries = append(queries, query)
	}
	return queries
}
