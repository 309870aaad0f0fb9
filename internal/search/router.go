package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"moviestream/searchservice/internal/domain"
	"moviestream/searchservice/internal/metrics"
)

// tierFn is one stage of the fallback chain. It returns its (possibly empty)
// result list; only an internal failure is returned as an error. Provider
// trouble inside a tier degrades the tier to empty instead.
type tierFn struct {
	name string
	run  func(ctx context.Context) ([]domain.TranslatedMovie, error)
}

// Find runs the tiered fallback chain: catalog lookup, then the cheap
// single-indexer tier, then full aggregation. Tiers are tried in increasing
// cost order and the chain stops at the first non-empty, deduplicated
// result. All tiers empty yields ErrNoMovies, which is a not-found
// condition, not an internal failure.
//
// A letter or genre browse only ever consults the catalog.
func (s *Service) Find(ctx context.Context, req domain.FindRequest) ([]domain.TranslatedMovie, error) {
	startedAt := time.Now()

	if req.Letter != "" || req.Genre != "" {
		return s.browseCatalog(ctx, req)
	}

	tiers := []tierFn{
		{name: domain.TierCatalog, run: func(ctx context.Context) ([]domain.TranslatedMovie, error) {
			return s.catalogTier(ctx, req)
		}},
		{name: domain.TierCheapIndex, run: func(ctx context.Context) ([]domain.TranslatedMovie, error) {
			return s.cheapTier(ctx, req)
		}},
		{name: domain.TierAggregation, run: func(ctx context.Context) ([]domain.TranslatedMovie, error) {
			return s.aggregationTier(ctx, req)
		}},
	}

	collected := make([][]domain.TranslatedMovie, 0, len(tiers))
	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := tier.run(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s tier: %w", tier.name, err)
		}
		metrics.TierResultsTotal.WithLabelValues(tier.name).Add(float64(len(results)))

		if len(results) == 0 {
			continue
		}
		collected = append(collected, results)

		merged := MergeUnique(collected...)
		if len(merged) > 0 {
			s.logger.Info("search resolved",
				slog.String("search", req.Search),
				slog.String("tier", tier.name),
				slog.Int("results", len(merged)),
				slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
			)
			return merged, nil
		}
	}

	s.logger.Info("search found nothing",
		slog.String("search", req.Search),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)
	return nil, ErrNoMovies
}

func (s *Service) browseCatalog(ctx context.Context, req domain.FindRequest) ([]domain.TranslatedMovie, error) {
	if s.catalog == nil {
		return nil, ErrNoMovies
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.resultLimit
	}

	var (
		movies []domain.Movie
		err    error
	)
	switch {
	case req.Letter != "":
		movies, err = s.catalog.MoviesByLetter(ctx, req.Letter, limit, req.Offset)
	default:
		movies, err = s.catalog.MoviesByGenre(ctx, req.Genre, limit, req.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog browse: %w", err)
	}
	if len(movies) == 0 {
		return nil, ErrNoMovies
	}
	return s.TranslateMovies(ctx, movies), nil
}

// catalogTier serves the request straight from the internal catalog. A
// catalog error here is an internal failure; the catalog is this service's
// own storage, not a best-effort upstream.
func (s *Service) catalogTier(ctx context.Context, req domain.FindRequest) ([]domain.TranslatedMovie, error) {
	if s.catalog == nil || strings.TrimSpace(req.Search) == "" {
		return nil, nil
	}
	movies, err := s.catalog.SearchMovies(ctx, req.Search, s.resultLimit, req.Offset)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, nil
	}
	return s.TranslateMovies(ctx, movies), nil
}

// cheapTier asks the movie-level indexer, which returns canonical records in
// a single call. Its failure is provider-scoped: logged, swallowed, tier
// degrades to empty.
func (s *Service) cheapTier(ctx context.Context, req domain.FindRequest) ([]domain.TranslatedMovie, error) {
	if s.cheap == nil || strings.TrimSpace(req.Search) == "" {
		return nil, nil
	}

	var movies []domain.Movie
	err := RetryWithBackoff(ctx, s.retry, func() error {
		var searchErr error
		movies, searchErr = s.cheap.SearchMovies(ctx, req.Search, s.resultLimit)
		return searchErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("cheap indexer failed",
			slog.String("provider", s.cheap.Name()),
			slog.String("search", req.Search),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}
	if len(movies) == 0 {
		return nil, nil
	}
	return s.TranslateMovies(ctx, movies), nil
}

// aggregationTier is the full pipeline: concurrent indexer fan-out, title
// grouping, metadata enrichment, translation merge.
func (s *Service) aggregationTier(ctx context.Context, req domain.FindRequest) ([]domain.TranslatedMovie, error) {
	listings, statuses, err := s.FanOut(ctx, req.Search, req.Category)
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, status := range statuses {
		if !status.OK {
			failed++
		}
	}
	s.logger.Debug("fan-out settled",
		slog.Int("listings", len(listings)),
		slog.Int("providers", len(statuses)),
		slog.Int("failed", failed),
	)

	clusters := GroupListings(listings)
	if len(clusters) == 0 {
		return nil, nil
	}

	movies, err := s.EnrichClusters(ctx, clusters)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, nil
	}
	return s.TranslateMovies(ctx, movies), nil
}

// Translate serves the /translate operation: cached localized record first,
// then the translation provider. Unlike the merge inside Find, a provider
// failure here is reported to the caller.
func (s *Service) Translate(ctx context.Context, imdbID, title string) (domain.Movie, error) {
	if s.catalog != nil {
		cached, ok, err := s.catalog.CachedTranslation(ctx, imdbID)
		if err != nil {
			s.logger.Warn("translation cache lookup failed",
				slog.String("id", imdbID),
				slog.String("error", err.Error()),
			)
		} else if ok && validMovie(cached) {
			metrics.TranslationCacheHitsTotal.Inc()
			return cached, nil
		}
	}

	if s.translator == nil {
		return domain.Movie{}, ErrNoMovies
	}

	ru, found, err := s.translator.Translate(ctx, imdbID, title)
	if err != nil {
		return domain.Movie{}, fmt.Errorf("translate %s: %w", imdbID, err)
	}
	if !found || !validMovie(ru) {
		return domain.Movie{}, ErrNoMovies
	}
	return ru, nil
}
