package search

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
	"moviestream/searchservice/internal/domain"
)

// EnrichClusters resolves one canonical movie per cluster: the internal
// catalog by normalized title/year first, then the metadata provider.
// Clusters that resolve nowhere are dropped and logged; a single resolution
// failure never fails the request. Calls run concurrently with the same
// all-settled discipline as the indexer fan-out.
//
// Availability is computed here, once, from the cluster's listings.
// Output preserves the input cluster order (clusters arrive sorted by
// availability).
func (s *Service) EnrichClusters(ctx context.Context, clusters []domain.Cluster) ([]domain.Movie, error) {
	if len(clusters) == 0 {
		return nil, nil
	}
	if len(clusters) > s.resultLimit {
		clusters = clusters[:s.resultLimit]
	}

	resolved := make([]*domain.Movie, len(clusters))

	sem := semaphore.NewWeighted(maxConcurrentProviders)
	var wg sync.WaitGroup

	for i, cluster := range clusters {
		wg.Add(1)
		go func(index int, cluster domain.Cluster) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			movie, ok := s.resolveCluster(ctx, cluster)
			if !ok {
				s.logger.Info("cluster dropped: no metadata",
					slog.String("title", cluster.Title),
					slog.Int("year", cluster.Year),
					slog.Int("listings", len(cluster.Listings)),
				)
				return
			}
			movie.Availability = cluster.Availability()
			resolved[index] = &movie
		}(i, cluster)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	movies := make([]domain.Movie, 0, len(resolved))
	for _, movie := range resolved {
		if movie != nil {
			movies = append(movies, *movie)
		}
	}
	return movies, nil
}

func (s *Service) resolveCluster(ctx context.Context, cluster domain.Cluster) (domain.Movie, bool) {
	if s.catalog != nil {
		movie, ok, err := s.catalog.MovieByTitleYear(ctx, cluster.Title, cluster.Year)
		if err != nil {
			s.logger.Warn("catalog lookup failed",
				slog.String("title", cluster.Title),
				slog.String("error", err.Error()),
			)
		} else if ok {
			return movie, true
		}
	}

	if s.metadata == nil {
		return domain.Movie{}, false
	}

	var (
		movie domain.Movie
		found bool
	)
	err := RetryWithBackoff(ctx, s.retry, func() error {
		var lookupErr error
		movie, found, lookupErr = s.metadata.Lookup(ctx, cluster.Title, cluster.Year)
		return lookupErr
	})
	if err != nil {
		s.logger.Warn("metadata lookup failed",
			slog.String("title", cluster.Title),
			slog.String("error", err.Error()),
		)
		return domain.Movie{}, false
	}
	if !found || movie.ID == "" {
		return domain.Movie{}, false
	}
	return movie, true
}
