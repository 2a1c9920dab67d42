package resolver

import "strings"

// DefaultSocialPriority orders social platforms for the fallback pick when
// no website verifies.
var DefaultSocialPriority = []string{"facebook", "linkedin", "instagram", "twitter"}

// platformAliases maps a priority token to the URL fragments that identify
// the platform.
var platformAliases = map[string][]string{
	"twitter": {"twitter.com", "x.com"},
}

// dedupeOrdered removes duplicates while preserving first-seen order.
// Comparison is case-insensitive on the trimmed URL.
func dedupeOrdered(urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		trimmed := strings.TrimSpace(u)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// pickSocial chooses the best social profile by platform priority, falling
// back to the first candidate seen.
func pickSocial(candidates, priority []string) string {
	if len(candidates) == 0 {
		return ""
	}
	for _, platform := range priority {
		platform = strings.ToLower(strings.TrimSpace(platform))
		if platform == "" {
			continue
		}
		fragments := platformAliases[platform]
		if len(fragments) == 0 {
			fragments = []string{platform}
		}
		for _, candidate := range candidates {
			lowered := strings.ToLower(candidate)
			for _, fragment := range fragments {
				if strings.Contains(lowered, fragment) {
					return candidate
				}
			}
		}
	}
	return candidates[0]
}
