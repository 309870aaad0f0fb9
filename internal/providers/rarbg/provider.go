package rarbg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"moviestream/searchservice/internal/domain"
	"moviestream/searchservice/internal/providers/common"
)

const (
	defaultEndpoint  = "https://torrentapi.org/pubapi_v2.php"
	defaultUserAgent = "moviestream-search/1.0"

	// torrentapi error codes that mean "no hits", not a failure.
	codeNoResults      = 20
	codeNoImdbResults  = 10
	codeCantFindSearch = 14
)

type Config struct {
	Endpoint  string
	AppID     string
	UserAgent string
	Client    *http.Client
}

type Provider struct {
	client    *http.Client
	endpoint  string
	appID     string
	userAgent string
}

type apiResponse struct {
	Results   []apiTorrent `json:"torrent_results"`
	Error     string       `json:"error"`
	ErrorCode int          `json:"error_code"`
}

type apiTorrent struct {
	Title    string         `json:"title"`
	Download string         `json:"download"`
	Seeders  common.FlexInt `json:"seeders"`
	Leechers common.FlexInt `json:"leechers"`
	Category string         `json:"category"`
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
	appID := strings.TrimSpace(cfg.AppID)
	if appID == "" {
		appID = "moviestream"
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Provider{
		client:    client,
		endpoint:  endpoint,
		appID:     appID,
		userAgent: userAgent,
	}
}

func (p *Provider) Name() string {
	return "rarbg"
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.Name(),
		Label:   "RARBG (torrentapi)",
		Kind:    "indexer",
		Enabled: true,
	}
}

func (p *Provider) Search(ctx context.Context, term, category string, limit int) ([]domain.Listing, error) {
	uri, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	query := uri.Query()
	query.Set("mode", "search")
	query.Set("search_string", strings.TrimSpace(term))
	query.Set("format", "json_extended")
	query.Set("app_id", p.appID)
	if cat := strings.TrimSpace(category); cat != "" {
		query.Set("category", cat)
	}
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
		return nil, fmt.Errorf("provider HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected provider payload: %w", err)
	}
	if parsed.Error != "" {
		switch parsed.ErrorCode {
		case codeNoResults, codeNoImdbResults, codeCantFindSearch:
			// Definitive empty answer.
			return nil, nil
		default:
			return nil, fmt.Errorf("provider error %d: %s", parsed.ErrorCode, parsed.Error)
		}
	}

	if limit <= 0 {
		limit = 50
	}
	listings := make([]domain.Listing, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		title := common.CleanText(item.Title)
		magnet := strings.TrimSpace(item.Download)
		if title == "" || magnet == "" {
			continue
		}
		listings = append(listings, domain.Listing{
			Title:     title,
			SourceURL: magnet,
			Seeds:     int(item.Seeders),
			Peers:     int(item.Leechers),
			Category:  strings.TrimSpace(item.Category),
			Provider:  p.Name(),
		})
		if len(listings) >= limit {
			break
		}
	}
	return listings, nil
}
