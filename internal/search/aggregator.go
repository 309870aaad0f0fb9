package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"moviestream/searchservice/internal/domain"
)

// maxConcurrentProviders bounds concurrent provider calls inside one request
// so a wide provider configuration cannot overwhelm upstreams.
const maxConcurrentProviders = 10

// FanOut queries every configured indexer concurrently and joins with
// all-settled semantics: it waits for each provider to succeed, exhaust its
// retry budget, or time out, and returns the union of successful payloads
// plus a per-provider status. A failing provider is logged and contributes
// nothing; it never aborts the aggregate.
//
// The union is sorted by (provider, title) before being returned, so
// downstream grouping is deterministic regardless of network timing.
func (s *Service) FanOut(ctx context.Context, term, category string) ([]domain.Listing, []domain.ProviderStatus, error) {
	providers := s.sortedIndexers()
	if len(providers) == 0 {
		return nil, nil, ErrNoProviders
	}

	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	statuses := make([]domain.ProviderStatus, len(providers))
	collected := make([][]domain.Listing, len(providers))

	sem := semaphore.NewWeighted(maxConcurrentProviders)
	var wg sync.WaitGroup

	for i, provider := range providers {
		wg.Add(1)
		go func(index int, current IndexerProvider) {
			defer wg.Done()

			name := strings.ToLower(strings.TrimSpace(current.Name()))

			if err := sem.Acquire(runCtx, 1); err != nil {
				statuses[index] = domain.ProviderStatus{Name: name, OK: false, Error: "context cancelled"}
				return
			}
			defer sem.Release(1)

			now := time.Now()
			if blocked, until, lastErr := s.isProviderBlocked(name, now); blocked {
				s.logger.Warn("indexer skipped: temporarily unhealthy",
					slog.String("provider", name),
					slog.String("until", until.UTC().Format(time.RFC3339)),
					slog.String("lastError", lastErr),
				)
				statuses[index] = domain.ProviderStatus{Name: name, OK: false, Error: "provider temporarily unhealthy"}
				return
			}

			if err := s.waitProviderRate(runCtx, name); err != nil {
				statuses[index] = domain.ProviderStatus{Name: name, OK: false, Error: "rate limit wait cancelled"}
				return
			}

			startedAt := time.Now()
			var items []domain.Listing
			searchErr := RetryWithBackoff(runCtx, s.retry, func() error {
				var err error
				items, err = current.Search(runCtx, term, category, s.resultLimit)
				return err
			})
			elapsed := time.Since(startedAt)
			s.recordProviderResult(name, searchErr, elapsed, time.Now())

			if searchErr != nil {
				s.logger.Warn("indexer failed",
					slog.String("provider", name),
					slog.String("term", term),
					slog.Int64("elapsedMs", elapsed.Milliseconds()),
					slog.String("error", searchErr.Error()),
				)
				statuses[index] = domain.ProviderStatus{Name: name, OK: false, Error: searchErr.Error()}
				return
			}

			// Stamp provider identity so grouping can attribute listings.
			for j := range items {
				if items[j].Provider == "" {
					items[j].Provider = name
				}
			}
			collected[index] = items
			statuses[index] = domain.ProviderStatus{Name: name, OK: true, Count: len(items)}
		}(i, provider)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		// A cancelled request produces no partial aggregate.
		return nil, nil, err
	}

	total := 0
	for _, items := range collected {
		total += len(items)
	}
	union := make([]domain.Listing, 0, total)
	for _, items := range collected {
		union = append(union, items...)
	}

	sort.SliceStable(union, func(i, j int) bool {
		if union[i].Provider != union[j].Provider {
			return union[i].Provider < union[j].Provider
		}
		return union[i].Title < union[j].Title
	})

	return union, statuses, nil
}
