package search

import (
	"testing"

	"moviestream/searchservice/internal/domain"
)

func translated(id, title string) domain.TranslatedMovie {
	movie := domain.Movie{ID: id, Title: title}
	return domain.TranslatedMovie{En: movie, Ru: movie}
}

func TestMergeUniqueFirstOccurrenceWins(t *testing.T) {
	catalogTier := []domain.TranslatedMovie{translated("tt1", "Rich Catalog Record")}
	indexerTier := []domain.TranslatedMovie{
		translated("tt1", "Thin Indexer Record"),
		translated("tt2", "New Record"),
	}

	merged := MergeUnique(catalogTier, indexerTier)
	if len(merged) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(merged))
	}
	if merged[0].En.Title != "Rich Catalog Record" {
		t.Fatalf("catalog record shadowed by later tier: %q", merged[0].En.Title)
	}
	if merged[1].En.ID != "tt2" {
		t.Fatalf("unexpected second movie: %#v", merged[1])
	}
}

func TestMergeUniqueIDsAreUnique(t *testing.T) {
	merged := MergeUnique(
		[]domain.TranslatedMovie{translated("tt1", "A"), translated("tt2", "B")},
		[]domain.TranslatedMovie{translated("tt2", "B2"), translated("tt3", "C")},
		[]domain.TranslatedMovie{translated("tt1", "A3")},
	)
	seen := make(map[string]bool)
	for _, movie := range merged {
		if seen[movie.En.ID] {
			t.Fatalf("duplicate id %q in merged output", movie.En.ID)
		}
		seen[movie.En.ID] = true
	}
	if len(merged) != 3 {
		t.Fatalf("expected 3 unique movies, got %d", len(merged))
	}
}

func TestMergeUniqueDropsEmptyIDs(t *testing.T) {
	merged := MergeUnique([]domain.TranslatedMovie{
		translated("", "No ID"),
		translated("  ", "Blank ID"),
		translated("tt1", "Real"),
	})
	if len(merged) != 1 || merged[0].En.ID != "tt1" {
		t.Fatalf("expected only the identified record, got %#v", merged)
	}
}

func TestMergeUniqueEmptyInput(t *testing.T) {
	if merged := MergeUnique(); merged != nil {
		t.Fatalf("expected nil, got %#v", merged)
	}
	if merged := MergeUnique(nil, nil); merged != nil {
		t.Fatalf("expected nil, got %#v", merged)
	}
}
