package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"moviestream/searchservice/internal/domain"
)

var (
	// ErrNoMovies means every tier came back empty. It maps to the
	// not-found HTTP response and is not an internal failure.
	ErrNoMovies = errors.New("no movies found")

	ErrNoProviders = errors.New("no indexer providers configured")
)

// IndexerProvider is a torrent-indexer client. A definitive empty result is
// returned as (nil, nil), never as an error.
type IndexerProvider interface {
	Name() string
	Info() domain.ProviderInfo
	Search(ctx context.Context, term, category string, limit int) ([]domain.Listing, error)
}

// MovieIndexer is the cheap single-indexer tier: a source that returns
// already-canonical movie records (imdb ids and seed counts) in one call.
type MovieIndexer interface {
	Name() string
	SearchMovies(ctx context.Context, term string, limit int) ([]domain.Movie, error)
}

// MetadataClient resolves one canonical movie record by title and year.
// The boolean reports whether a record was found; a miss is not an error.
type MetadataClient interface {
	Lookup(ctx context.Context, title string, year int) (domain.Movie, bool, error)
}

// TranslationClient fetches the localized variant of a movie by imdb id.
type TranslationClient interface {
	Translate(ctx context.Context, imdbID, title string) (domain.Movie, bool, error)
}

// Catalog is the internal catalog's read path. Implemented over postgres in
// internal/catalog; the pipeline only ever reads.
type Catalog interface {
	SearchMovies(ctx context.Context, title string, limit, offset int) ([]domain.Movie, error)
	MoviesByLetter(ctx context.Context, letter string, limit, offset int) ([]domain.Movie, error)
	MoviesByGenre(ctx context.Context, genre string, limit, offset int) ([]domain.Movie, error)
	MovieByTitleYear(ctx context.Context, title string, year int) (domain.Movie, bool, error)
	CachedTranslation(ctx context.Context, imdbID string) (domain.Movie, bool, error)
}

type Service struct {
	indexers   map[string]IndexerProvider
	cheap      MovieIndexer
	metadata   MetadataClient
	translator TranslationClient
	catalog    Catalog

	logger      *slog.Logger
	timeout     time.Duration
	resultLimit int
	retry       RetryConfig

	healthMu sync.Mutex
	health   map[string]*providerHealth

	ratesMu     sync.Mutex
	rates       map[string]*rate.Limiter
	providerRPS float64
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCheapIndexer(indexer MovieIndexer) ServiceOption {
	return func(s *Service) {
		s.cheap = indexer
	}
}

func WithMetadata(client MetadataClient) ServiceOption {
	return func(s *Service) {
		s.metadata = client
	}
}

func WithTranslator(client TranslationClient) ServiceOption {
	return func(s *Service) {
		s.translator = client
	}
}

func WithCatalog(catalog Catalog) ServiceOption {
	return func(s *Service) {
		s.catalog = catalog
	}
}

// WithResultLimit caps how many clusters are enriched per request.
func WithResultLimit(limit int) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.resultLimit = limit
		}
	}
}

func WithRetryConfig(cfg RetryConfig) ServiceOption {
	return func(s *Service) {
		if cfg.MaxAttempts > 0 {
			s.retry = cfg
		}
	}
}

// WithProviderRate sets a per-provider token bucket applied before every
// outbound indexer call. Zero disables rate limiting.
func WithProviderRate(rps float64) ServiceOption {
	return func(s *Service) {
		s.providerRPS = rps
	}
}

const defaultResultLimit = 20

func NewService(indexers []IndexerProvider, timeout time.Duration, opts ...ServiceOption) *Service {
	registry := make(map[string]IndexerProvider, len(indexers))
	for _, provider := range indexers {
		if provider == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(provider.Name()))
		if name == "" {
			continue
		}
		registry[name] = provider
	}

	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	svc := &Service{
		indexers:    registry,
		logger:      slog.Default(),
		timeout:     timeout,
		resultLimit: defaultResultLimit,
		retry:       DefaultRetryConfig(),
		health:      make(map[string]*providerHealth),
		rates:       make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Providers() []domain.ProviderInfo {
	if len(s.indexers) == 0 {
		return nil
	}
	items := make([]domain.ProviderInfo, 0, len(s.indexers))
	for _, provider := range s.indexers {
		info := provider.Info()
		if info.Name == "" {
			info.Name = strings.ToLower(strings.TrimSpace(provider.Name()))
		}
		if info.Label == "" {
			info.Label = info.Name
		}
		items = append(items, info)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}

func (s *Service) sortedIndexers() []IndexerProvider {
	providers := make([]IndexerProvider, 0, len(s.indexers))
	for _, provider := range s.indexers {
		providers = append(providers, provider)
	}
	sort.Slice(providers, func(i, j int) bool {
		return strings.ToLower(providers[i].Name()) < strings.ToLower(providers[j].Name())
	})
	return providers
}

// waitProviderRate blocks until the provider's token bucket grants a slot,
// or the context is cancelled.
func (s *Service) waitProviderRate(ctx context.Context, providerName string) error {
	if s.providerRPS <= 0 {
		return nil
	}
	s.ratesMu.Lock()
	limiter, ok := s.rates[providerName]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.providerRPS), 1)
		s.rates[providerName] = limiter
	}
	s.ratesMu.Unlock()
	return limiter.Wait(ctx)
}
