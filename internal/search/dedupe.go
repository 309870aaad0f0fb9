package search

import (
	"strings"

	"moviestream/searchservice/internal/domain"
)

// MergeUnique folds the per-tier result lists into one list unique by en.ID,
// first occurrence wins. Tiers arrive cheapest/most-trusted first, so a
// catalog record is never shadowed by a thinner one harvested from an
// indexer. Records without an id are dropped.
func MergeUnique(tiers ...[]domain.TranslatedMovie) []domain.TranslatedMovie {
	seen := make(map[string]struct{})
	var out []domain.TranslatedMovie
	for _, tier := range tiers {
		for _, movie := range tier {
			id := strings.TrimSpace(movie.En.ID)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, movie)
		}
	}
	return out
}
