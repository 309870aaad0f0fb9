package search

import (
	"context"
	"log/slog"
	"strings"

	"moviestream/searchservice/internal/domain"
	"moviestream/searchservice/internal/metrics"
)

// TranslateMovies attaches the localized variant to each canonical movie:
// cached record from the internal catalog first, then a live call to the
// translation provider. Any failure, including a payload that does not
// validate, falls back to ru = en. Callers never see a missing localization
// and never see a translation error.
func (s *Service) TranslateMovies(ctx context.Context, movies []domain.Movie) []domain.TranslatedMovie {
	out := make([]domain.TranslatedMovie, 0, len(movies))
	for _, en := range movies {
		if err := ctx.Err(); err != nil {
			return nil
		}
		out = append(out, s.translateMovie(ctx, en))
	}
	return out
}

func (s *Service) translateMovie(ctx context.Context, en domain.Movie) domain.TranslatedMovie {
	if s.catalog != nil {
		cached, ok, err := s.catalog.CachedTranslation(ctx, en.ID)
		if err != nil {
			s.logger.Warn("translation cache lookup failed",
				slog.String("id", en.ID),
				slog.String("error", err.Error()),
			)
		} else if ok && validMovie(cached) {
			metrics.TranslationCacheHitsTotal.Inc()
			cached.Availability = en.Availability
			return domain.TranslatedMovie{En: en, Ru: cached}
		}
	}

	if s.translator == nil {
		return domain.TranslatedMovie{En: en, Ru: en}
	}

	ru, found, err := s.translator.Translate(ctx, en.ID, en.Title)
	if err != nil || !found || !validMovie(ru) {
		if err != nil {
			s.logger.Warn("translation failed, falling back to original",
				slog.String("id", en.ID),
				slog.String("error", err.Error()),
			)
		}
		metrics.TranslationFallbacksTotal.Inc()
		return domain.TranslatedMovie{En: en, Ru: en}
	}

	ru.Availability = en.Availability
	return domain.TranslatedMovie{En: en, Ru: ru}
}

// validMovie is the shape gate for localized records arriving from loosely
// typed upstream payloads: an id and a title are the minimum a consumer can
// render.
func validMovie(movie domain.Movie) bool {
	return strings.TrimSpace(movie.ID) != "" && strings.TrimSpace(movie.Title) != ""
}
