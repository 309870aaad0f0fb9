package omdb

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
	defaultEndpoint  = "https://www.omdbapi.com/"
	defaultUserAgent = "moviestream-search/1.0"
)

type Config struct {
	Endpoint  string
	APIKey    string
	UserAgent string
	Client    *http.Client
}

type Client struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	userAgent string
}

// omdb returns every field as a string, "N/A" included.
type apiMovie struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	ImdbID     string `json:"imdbID"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Runtime    string `json:"Runtime"`
	ImdbRating string `json:"imdbRating"`
	Country    string `json:"Country"`
	Plot       string `json:"Plot"`
	Actors     string `json:"Actors"`
	Director   string `json:"Director"`
	Poster     string `json:"Poster"`
}

func NewClient(cfg Config) *Client {
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
	return &Client{
		client:    client,
		endpoint:  endpoint,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		userAgent: userAgent,
	}
}

func (c *Client) Lookup(ctx context.Context, title string, year int) (domain.Movie, bool, error) {
	uri, err := url.Parse(c.endpoint)
	if err != nil {
		return domain.Movie{}, false, fmt.Errorf("invalid endpoint: %w", err)
	}
	query := uri.Query()
	query.Set("t", strings.TrimSpace(title))
	query.Set("type", "movie")
	query.Set("plot", "short")
	if year > 0 {
		query.Set("y", strconv.Itoa(year))
	}
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}
	uri.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return domain.Movie{}, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Movie{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.Movie{}, false, fmt.Errorf("metadata HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return domain.Movie{}, false, err
	}

	var parsed apiMovie
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return domain.Movie{}, false, fmt.Errorf("unexpected metadata payload: %w", err)
	}
	if !strings.EqualFold(parsed.Response, "True") {
		// "Movie not found!" is a miss, anything else is a service problem.
		if strings.Contains(strings.ToLower(parsed.Error), "not found") {
			return domain.Movie{}, false, nil
		}
		return domain.Movie{}, false, fmt.Errorf("metadata error: %s", parsed.Error)
	}

	movie := domain.Movie{
		ID:             strings.TrimSpace(parsed.ImdbID),
		Title:          common.CleanText(parsed.Title),
		Year:           common.ParseInt(parsed.Year),
		Genres:         common.SplitList(parsed.Genre),
		IMDBRating:     common.ParseFloat(parsed.ImdbRating),
		RuntimeMinutes: common.ParseInt(parsed.Runtime),
		Countries:      common.SplitList(parsed.Country),
		Description:    common.CleanText(parsed.Plot),
		Cast:           common.SplitList(parsed.Actors),
		Directors:      common.SplitList(parsed.Director),
	}
	if poster := strings.TrimSpace(parsed.Poster); poster != "" && poster != "N/A" {
		movie.Poster = poster
	}
	if movie.ID == "" || movie.Title == "" {
		return domain.Movie{}, false, nil
	}
	return movie, true, nil
}
