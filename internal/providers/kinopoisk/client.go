package kinopoisk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"moviestream/searchservice/internal/domain"
	"moviestream/searchservice/internal/providers/common"
)

const (
	defaultBaseURL   = "https://kinopoiskapiunofficial.tech/api/v2.2"
	defaultUserAgent = "moviestream-search/1.0"
	redisCacheKey    = "msearch:kinopoisk:"
)

type Config struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	Client    *http.Client
	Redis     *redis.Client
	CacheTTL  time.Duration
}

// Client resolves the russian-language variant of a movie by imdb id.
// Responses are cached in redis keyed by imdb id since translations never
// change once published.
type Client struct {
	apiKey    string
	baseURL   string
	userAgent string
	http      *http.Client
	redis     *redis.Client
	cacheTTL  time.Duration
}

type searchResponse struct {
	Items []apiFilm `json:"items"`
}

type apiFilm struct {
	ImdbID          string           `json:"imdbId"`
	NameRu          string           `json:"nameRu"`
	NameOriginal    string           `json:"nameOriginal"`
	Year            common.FlexInt   `json:"year"`
	RatingKinopoisk common.FlexFloat `json:"ratingKinopoisk"`
	RatingImdb      common.FlexFloat `json:"ratingImdb"`
	Description     string           `json:"description"`
	PosterURL       string           `json:"posterUrl"`
	Genres          []apiNamed       `json:"genres"`
	Countries       []apiNamed       `json:"countries"`
}

type apiNamed struct {
	Genre   string `json:"genre"`
	Country string `json:"country"`
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 7 * 24 * time.Hour
	}
	return &Client{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      httpClient,
		redis:     cfg.Redis,
		cacheTTL:  cacheTTL,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

func (c *Client) Translate(ctx context.Context, imdbID, title string) (domain.Movie, bool, error) {
	if !c.Enabled() {
		return domain.Movie{}, false, nil
	}
	id := strings.TrimSpace(imdbID)
	if id == "" {
		return domain.Movie{}, false, nil
	}

	if c.redis != nil {
		data, err := c.redis.Get(ctx, redisCacheKey+id).Bytes()
		if err == nil {
			var cached domain.Movie
			if json.Unmarshal(data, &cached) == nil && cached.ID != "" {
				return cached, true, nil
			}
		}
	}

	params := url.Values{
		"imdbId":  {id},
		"keyword": {strings.TrimSpace(title)},
		"page":    {"1"},
	}
	reqURL := c.baseURL + "/films?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Movie{}, false, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Movie{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Movie{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Movie{}, false, fmt.Errorf("translator HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return domain.Movie{}, false, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.Movie{}, false, fmt.Errorf("unexpected translator payload: %w", err)
	}

	film, ok := pickFilm(parsed.Items, id)
	if !ok {
		return domain.Movie{}, false, nil
	}
	movie := toMovie(film, id)
	if movie.Title == "" {
		return domain.Movie{}, false, nil
	}

	if c.redis != nil {
		if data, err := json.Marshal(movie); err == nil {
			_ = c.redis.Set(ctx, redisCacheKey+id, data, c.cacheTTL).Err()
		}
	}
	return movie, true, nil
}

// pickFilm prefers the item whose imdb id matches exactly; the keyword
// search can surface remakes and sequels ahead of the requested film.
func pickFilm(items []apiFilm, imdbID string) (apiFilm, bool) {
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item.ImdbID), imdbID) {
			return item, true
		}
	}
	if len(items) > 0 {
		return items[0], true
	}
	return apiFilm{}, false
}

func toMovie(film apiFilm, imdbID string) domain.Movie {
	title := common.CleanText(film.NameRu)
	if title == "" {
		title = common.CleanText(film.NameOriginal)
	}
	genres := make([]string, 0, len(film.Genres))
	for _, g := range film.Genres {
		if name := strings.TrimSpace(g.Genre); name != "" {
			genres = append(genres, name)
		}
	}
	countries := make([]string, 0, len(film.Countries))
	for _, c := range film.Countries {
		if name := strings.TrimSpace(c.Country); name != "" {
			countries = append(countries, name)
		}
	}
	return domain.Movie{
		ID:          imdbID,
		Title:       title,
		Year:        int(film.Year),
		Genres:      genres,
		Rating:      float64(film.RatingKinopoisk),
		IMDBRating:  float64(film.RatingImdb),
		Countries:   countries,
		Description: common.CleanText(film.Description),
		Poster:      strings.TrimSpace(film.PosterURL),
	}
}
