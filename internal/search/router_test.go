package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"moviestream/searchservice/internal/domain"
)

type fakeMovieIndexer struct {
	movies []domain.Movie
	err    error
	calls  int
}

func (f *fakeMovieIndexer) Name() string { return "cheap" }

func (f *fakeMovieIndexer) SearchMovies(_ context.Context, _ string, _ int) ([]domain.Movie, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Movie(nil), f.movies...), nil
}

type fakeMetadata struct {
	byTitle map[string]domain.Movie
}

func (f *fakeMetadata) Lookup(_ context.Context, title string, _ int) (domain.Movie, bool, error) {
	movie, ok := f.byTitle[title]
	return movie, ok, nil
}

func TestFindCatalogTierShortCircuits(t *testing.T) {
	indexer := &fakeIndexer{name: "indexer", items: []domain.Listing{{Title: "Movie 2020", Seeds: 1}}}
	cheap := &fakeMovieIndexer{movies: []domain.Movie{{ID: "tt9", Title: "Cheap Hit"}}}
	service := NewService([]IndexerProvider{indexer}, time.Second,
		WithRetryConfig(singleAttempt()),
		WithCheapIndexer(cheap),
		WithCatalog(&fakeCatalog{movies: []domain.Movie{{ID: "tt1", Title: "Catalog Hit"}}}),
	)

	movies, err := service.Find(context.Background(), domain.FindRequest{Search: "hit"})
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	if len(movies) != 1 || movies[0].En.ID != "tt1" {
		t.Fatalf("expected the catalog record, got %#v", movies)
	}
	if cheap.calls != 0 {
		t.Fatal("cheap indexer consulted despite catalog hit")
	}
	if indexer.hits.Load() != 0 {
		t.Fatal("aggregation ran despite catalog hit")
	}
}

func TestFindFallsThroughToCheapTier(t *testing.T) {
	indexer := &fakeIndexer{name: "indexer"}
	cheap := &fakeMovieIndexer{movies: []domain.Movie{{ID: "tt2", Title: "Cheap Hit"}}}
	service := NewService([]IndexerProvider{indexer}, time.Second,
		WithRetryConfig(singleAttempt()),
		WithCheapIndexer(cheap),
		WithCatalog(&fakeCatalog{}),
	)

	movies, err := service.Find(context.Background(), domain.FindRequest{Search: "hit"})
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	if len(movies) != 1 || movies[0].En.ID != "tt2" {
		t.Fatalf("expected the cheap-tier record, got %#v", movies)
	}
	if indexer.hits.Load() != 0 {
		t.Fatal("aggregation ran despite cheap-tier hit")
	}
}

func TestFindFallsThroughToAggregation(t *testing.T) {
	indexer := &fakeIndexer{name: "indexer", items: []domain.Listing{
		{Title: "Inception (2010) 1080p", Seeds: 100, Peers: 10},
		{Title: "inception 2010 BluRay", Seeds: 40},
	}}
	service := NewService([]IndexerProvider{indexer}, time.Second,
		WithRetryConfig(singleAttempt()),
		WithCheapIndexer(&fakeMovieIndexer{}),
		WithCatalog(&fakeCatalog{}),
		WithMetadata(&fakeMetadata{byTitle: map[string]domain.Movie{
			"inception": {ID: "tt1375666", Title: "Inception", Year: 2010},
		}}),
	)

	movies, err := service.Find(context.Background(), domain.FindRequest{Search: "inception"})
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	if len(movies) != 1 || movies[0].En.ID != "tt1375666" {
		t.Fatalf("expected one enriched movie, got %#v", movies)
	}
	want := float64(100) + 0.1*float64(10) + float64(40)
	if movies[0].En.Availability != want {
		t.Fatalf("availability = %v, want %v", movies[0].En.Availability, want)
	}
}

func TestFindAllTiersEmptyYieldsNotFound(t *testing.T) {
	service := NewService([]IndexerProvider{
		&fakeIndexer{name: "empty1"},
		&fakeIndexer{name: "empty2"},
	}, time.Second,
		WithRetryConfig(singleAttempt()),
		WithCheapIndexer(&fakeMovieIndexer{}),
		WithCatalog(&fakeCatalog{}),
	)

	_, err := service.Find(context.Background(), domain.FindRequest{Search: ""})
	if !errors.Is(err, ErrNoMovies) {
		t.Fatalf("expected ErrNoMovies, got %v", err)
	}
}

func TestFindCatalogErrorIsInternal(t *testing.T) {
	service := NewService([]IndexerProvider{&fakeIndexer{name: "indexer"}}, time.Second,
		WithRetryConfig(singleAttempt()),
		WithCatalog(&fakeCatalog{searchErr: errors.New("connection refused")}),
	)

	_, err := service.Find(context.Background(), domain.FindRequest{Search: "anything"})
	if err == nil || errors.Is(err, ErrNoMovies) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if !strings.Contains(err.Error(), domain.TierCatalog) {
		t.Fatalf("expected tier name in error, got %q", err.Error())
	}
}

func TestFindCheapTierFailureDegrades(t *testing.T) {
	indexer := &fakeIndexer{name: "indexer", items: []domain.Listing{
		{Title: "Fallback Movie 2021", Seeds: 7},
	}}
	service := NewService([]IndexerProvider{indexer}, time.Second,
		WithRetryConfig(singleAttempt()),
		WithCheapIndexer(&fakeMovieIndexer{err: errors.New("http 503: unavailable")}),
		WithMetadata(&fakeMetadata{byTitle: map[string]domain.Movie{
			"fallback movie": {ID: "tt7", Title: "Fallback Movie", Year: 2021},
		}}),
	)

	movies, err := service.Find(context.Background(), domain.FindRequest{Search: "fallback"})
	if err != nil {
		t.Fatalf("expected cheap tier failure to degrade, got %v", err)
	}
	if len(movies) != 1 || movies[0].En.ID != "tt7" {
		t.Fatalf("expected aggregation result, got %#v", movies)
	}
}

func TestFindLetterBrowseUsesCatalogOnly(t *testing.T) {
	indexer := &fakeIndexer{name: "indexer", items: []domain.Listing{{Title: "Noise 2020"}}}
	service := NewService([]IndexerProvider{indexer}, time.Second,
		WithRetryConfig(singleAttempt()),
		WithCatalog(&fakeCatalog{movies: []domain.Movie{{ID: "tt3", Title: "Alphaville"}}}),
	)

	movies, err := service.Find(context.Background(), domain.FindRequest{Letter: "A"})
	if err != nil {
		t.Fatalf("browse error: %v", err)
	}
	if len(movies) != 1 || movies[0].En.ID != "tt3" {
		t.Fatalf("expected catalog browse result, got %#v", movies)
	}
	if indexer.hits.Load() != 0 {
		t.Fatal("browse must not touch indexers")
	}
}

func TestFindBrowseWithoutCatalogIsNotFound(t *testing.T) {
	service := NewService(nil, time.Second)
	_, err := service.Find(context.Background(), domain.FindRequest{Genre: "drama"})
	if !errors.Is(err, ErrNoMovies) {
		t.Fatalf("expected ErrNoMovies, got %v", err)
	}
}

func TestTranslatePrefersCachedRecord(t *testing.T) {
	cached := domain.Movie{ID: "tt1", Title: "Начало"}
	translator := &fakeTranslator{byID: map[string]domain.Movie{"tt1": {ID: "tt1", Title: "live"}}}
	service := NewService(nil, time.Second,
		WithTranslator(translator),
		WithCatalog(&fakeCatalog{translations: map[string]domain.Movie{"tt1": cached}}),
	)

	movie, err := service.Translate(context.Background(), "tt1", "Inception")
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	if movie.Title != "Начало" {
		t.Fatalf("expected cached record, got %q", movie.Title)
	}
	if translator.calls != 0 {
		t.Fatal("live translator consulted despite cache hit")
	}
}

func TestTranslateProviderErrorSurfaces(t *testing.T) {
	service := NewService(nil, time.Second,
		WithTranslator(&fakeTranslator{err: errors.New("http 500: boom")}),
	)

	_, err := service.Translate(context.Background(), "tt1", "Inception")
	if err == nil || errors.Is(err, ErrNoMovies) {
		t.Fatalf("expected provider error to surface, got %v", err)
	}
}

func TestTranslateMissIsNotFound(t *testing.T) {
	service := NewService(nil, time.Second,
		WithTranslator(&fakeTranslator{byID: map[string]domain.Movie{}}),
	)

	_, err := service.Translate(context.Background(), "tt404", "Unknown")
	if !errors.Is(err, ErrNoMovies) {
		t.Fatalf("expected ErrNoMovies, got %v", err)
	}
}

func TestTranslateWithoutTranslatorIsNotFound(t *testing.T) {
	service := NewService(nil, time.Second)
	_, err := service.Translate(context.Background(), "tt1", "Inception")
	if !errors.Is(err, ErrNoMovies) {
		t.Fatalf("expected ErrNoMovies, got %v", err)
	}
}
