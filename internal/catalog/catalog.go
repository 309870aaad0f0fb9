package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"moviestream/searchservice/internal/domain"
	"moviestream/searchservice/internal/providers/common"
)

// Catalog is the read path over the curated movie database. Writes happen
// out of band; this service only ever selects.
type Catalog struct {
	db *sql.DB
}

func Connect(ctx context.Context, databaseURL string) (*Catalog, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

const movieColumns = `imdb_id, title, year, genres, rating, imdb_rating,
	runtime_minutes, countries, description, actors, directors, poster`

func (c *Catalog) SearchMovies(ctx context.Context, title string, limit, offset int) ([]domain.Movie, error) {
	query := `SELECT ` + movieColumns + `
		FROM movies
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY rating DESC, title ASC
		LIMIT $2 OFFSET $3`
	return c.queryMovies(ctx, query, strings.TrimSpace(title), pageLimit(limit), maxInt(offset, 0))
}

func (c *Catalog) MoviesByLetter(ctx context.Context, letter string, limit, offset int) ([]domain.Movie, error) {
	query := `SELECT ` + movieColumns + `
		FROM movies
		WHERE title ILIKE $1 || '%'
		ORDER BY title ASC
		LIMIT $2 OFFSET $3`
	return c.queryMovies(ctx, query, strings.TrimSpace(letter), pageLimit(limit), maxInt(offset, 0))
}

func (c *Catalog) MoviesByGenre(ctx context.Context, genre string, limit, offset int) ([]domain.Movie, error) {
	query := `SELECT ` + movieColumns + `
		FROM movies
		WHERE genres ILIKE '%' || $1 || '%'
		ORDER BY rating DESC, title ASC
		LIMIT $2 OFFSET $3`
	return c.queryMovies(ctx, query, strings.TrimSpace(genre), pageLimit(limit), maxInt(offset, 0))
}

func (c *Catalog) MovieByTitleYear(ctx context.Context, title string, year int) (domain.Movie, bool, error) {
	query := `SELECT ` + movieColumns + `
		FROM movies
		WHERE lower(title) = lower($1)
		  AND ($2 = 0 OR year BETWEEN $2 - 1 AND $2 + 1)
		ORDER BY rating DESC
		LIMIT 1`
	row := c.db.QueryRowContext(ctx, query, strings.TrimSpace(title), year)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Movie{}, false, nil
	}
	if err != nil {
		return domain.Movie{}, false, fmt.Errorf("catalog lookup: %w", err)
	}
	return movie, true, nil
}

// CachedTranslation returns a previously stored localized record. The ru
// document is stored as jsonb exactly as it was served, so a hit bypasses
// the external translator entirely.
func (c *Catalog) CachedTranslation(ctx context.Context, imdbID string) (domain.Movie, bool, error) {
	var payload []byte
	query := `SELECT ru FROM movie_translations WHERE imdb_id = $1`
	err := c.db.QueryRowContext(ctx, query, strings.TrimSpace(imdbID)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Movie{}, false, nil
	}
	if err != nil {
		return domain.Movie{}, false, fmt.Errorf("translation lookup: %w", err)
	}
	var movie domain.Movie
	if err := json.Unmarshal(payload, &movie); err != nil {
		return domain.Movie{}, false, fmt.Errorf("decode stored translation: %w", err)
	}
	if movie.ID == "" || movie.Title == "" {
		return domain.Movie{}, false, nil
	}
	return movie, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (c *Catalog) queryMovies(ctx context.Context, query string, args ...any) ([]domain.Movie, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog query: %w", err)
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog scan: %w", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog rows: %w", err)
	}
	return movies, nil
}

// List columns are stored comma separated; empty and null collapse to nil.
func scanMovie(row rowScanner) (domain.Movie, error) {
	var (
		movie                     domain.Movie
		genres, countries         sql.NullString
		actors, directors, poster sql.NullString
		description               sql.NullString
		rating, imdbRating        sql.NullFloat64
		year, runtime             sql.NullInt64
	)
	err := row.Scan(&movie.ID, &movie.Title, &year, &genres, &rating, &imdbRating,
		&runtime, &countries, &description, &actors, &directors, &poster)
	if err != nil {
		return domain.Movie{}, err
	}
	movie.Year = int(year.Int64)
	movie.Genres = common.SplitList(genres.String)
	movie.Rating = rating.Float64
	movie.IMDBRating = imdbRating.Float64
	movie.RuntimeMinutes = int(runtime.Int64)
	movie.Countries = common.SplitList(countries.String)
	movie.Description = description.String
	movie.Cast = common.SplitList(actors.String)
	movie.Directors = common.SplitList(directors.String)
	movie.Poster = poster.String
	return movie, nil
}

func pageLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

func maxInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}
