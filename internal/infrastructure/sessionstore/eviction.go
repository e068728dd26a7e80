package sessionstore

import (
	"cmp"
	"slices"
	"time"
)

// candidate is the part of a stored session that eviction looks at.
type candidate struct {
	token        string
	userID       string
	lastActivity time.Time
}

// byLastActivity orders candidates oldest first. Ties break on token so the
// selection is deterministic.
func byLastActivity(a, b candidate) int {
	if c := a.lastActivity.Compare(b.lastActivity); c != 0 {
		return c
	}
	return cmp.Compare(a.token, b.token)
}

// selectGlobalEvictions returns the tokens of the oldest tenth of
// candidates, at least one, by ascending last activity.
func selectGlobalEvictions(candidates []candidate) []string {
	if len(candidates) == 0 {
		return nil
	}

	sorted := slices.Clone(candidates)
	slices.SortFunc(sorted, byLastActivity)

	n := max(1, len(sorted)/10)
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = sorted[i].token
	}
	return tokens
}

// selectUserEviction returns the least recently active token of userID when
// the user already holds limit or more sessions.
func selectUserEviction(candidates []candidate, userID string, limit int) (string, bool) {
	var (
		oldest candidate
		count  int
	)
	for _, c := range candidates {
		if c.userID != userID {
			continue
		}
		if count == 0 || byLastActivity(c, oldest) < 0 {
			oldest = c
		}
		count++
	}

	if count == 0 || count < limit {
		return "", false
	}
	return oldest.token, true
}
