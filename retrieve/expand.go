package retrieve

import "strings"

// maxSynonymsPerTrigger bounds expansion so long queries are not diluted.
const maxSynonymsPerTrigger = 2

// synonyms maps trigger terms to related terms appended to the query.
// The table is deliberately small and fixed; it targets short, ambiguous
// developer queries where recall suffers most.
var synonyms = map[string][]string{
	"error":     {"exception", "bug"},
	"exception": {"error", "panic"},
	"install":   {"setup", "installation"},
	"config":    {"configuration", "settings"},
	"auth":      {"authentication", "authorization"},
	"delete":    {"remove", "drop"},
	"create":    {"add", "new"},
	"async":     {"concurrent", "goroutine"},
	"deploy":    {"deployment", "release"},
	"test":      {"testing", "unit"},
}

// expandQuery appends synonym-table terms for any trigger word found in
// the query, at most two per trigger, skipping terms already present.
func expandQuery(query string) string {
	words := strings.Fields(query)
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[strings.ToLower(w)] = true
	}

	var extra []string
	for _, w := range words {
		related, ok := synonyms[strings.ToLower(w)]
		if !ok {
			continue
		}
		added := 0
		for _, term := range related {
			if added >= maxSynonymsPerTrigger {
				break
			}
			if present[term] {
				continue
			}
			extra = append(extra, term)
			present[term] = true
			added++
		}
	}

	if len(extra) == 0 {
		return query
	}
	return query + " " + strings.Join(extra, " ")
}
