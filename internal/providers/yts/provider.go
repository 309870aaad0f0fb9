package yts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"moviestream/searchservice/internal/domain"
	"moviestream/searchservice/internal/providers/common"
)

const (
	defaultEndpoint  = "https://yts.mx/api/v2/list_movies.json"
	defaultUserAgent = "moviestream-search/1.0"
)

type Config struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

// Provider is the cheap single-call indexer. One list_movies request yields
// canonical records with imdb ids and per-release seed counts, so a hit here
// skips the full fan-out entirely.
type Provider struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

type apiResponse struct {
	Status string  `json:"status"`
	Data   apiData `json:"data"`
}

type apiData struct {
	MovieCount int        `json:"movie_count"`
	Movies     []apiMovie `json:"movies"`
}

type apiMovie struct {
	ImdbCode   string           `json:"imdb_code"`
	Title      string           `json:"title"`
	Year       common.FlexInt   `json:"year"`
	Rating     common.FlexFloat `json:"rating"`
	Runtime    common.FlexInt   `json:"runtime"`
	Genres     []string         `json:"genres"`
	Summary    string           `json:"summary"`
	Language   string           `json:"language"`
	CoverImage string           `json:"large_cover_image"`
	Torrents   []apiTorrent     `json:"torrents"`
}

type apiTorrent struct {
	Seeds common.FlexInt `json:"seeds"`
	Peers common.FlexInt `json:"peers"`
}

func NewProvider(cfg Config) *Provider {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Provider{
		client:    client,
		endpoint:  endpoint,
		userAgent: userAgent,
	}
}

func (p *Provider) Name() string {
	return "yts"
}

func (p *Provider) SearchMovies(ctx context.Context, term string, limit int) ([]domain.Movie, error) {
	if limit <= 0 {
		limit = 20
	}
	uri, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	query := uri.Query()
	query.Set("query_term", strings.TrimSpace(term))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("sort_by", "seeds")
	uri.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("indexer HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected indexer payload: %w", err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("indexer status %q", parsed.Status)
	}
	if parsed.Data.MovieCount == 0 || len(parsed.Data.Movies) == 0 {
		return nil, nil
	}

	movies := make([]domain.Movie, 0, len(parsed.Data.Movies))
	for _, item := range parsed.Data.Movies {
		id := strings.TrimSpace(item.ImdbCode)
		title := common.CleanText(item.Title)
		if id == "" || title == "" {
			continue
		}
		var seeds, peers int
		for _, t := range item.Torrents {
			seeds += int(t.Seeds)
			peers += int(t.Peers)
		}
		movies = append(movies, domain.Movie{
			ID:             id,
			Title:          title,
			Year:           int(item.Year),
			Genres:         item.Genres,
			IMDBRating:     float64(item.Rating),
			RuntimeMinutes: int(item.Runtime),
			Description:    common.CleanText(item.Summary),
			Poster:         strings.TrimSpace(item.CoverImage),
			Availability:   float64(seeds) + 0.1*float64(peers),
		})
		if len(movies) >= limit {
			break
		}
	}
	return movies, nil
}
