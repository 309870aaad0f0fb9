package piratebay

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
	defaultEndpoint  = "https://apibay.org/q.php"
	defaultUserAgent = "moviestream-search/1.0"
)

var defaultTrackers = []string{
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://open.stealth.si:80/announce",
	"udp://tracker.torrent.eu.org:451/announce",
}

// Category codes of the apibay video sections.
var categoryCodes = map[string]string{
	"movies": "201",
	"hd":     "207",
	"tv":     "205",
	"4k":     "211",
}

type Config struct {
	Endpoint  string
	UserAgent string
	Trackers  []string
	Client    *http.Client
}

type Provider struct {
	client    *http.Client
	endpoint  string
	userAgent string
	trackers  []string
}

type apiItem struct {
	Name     string         `json:"name"`
	InfoHash string         `json:"info_hash"`
	Seeders  common.FlexInt `json:"seeders"`
	Leechers common.FlexInt `json:"leechers"`
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
	trackers := cfg.Trackers
	if len(trackers) == 0 {
		trackers = append([]string(nil), defaultTrackers...)
	}

	return &Provider{
		client:    client,
		endpoint:  endpoint,
		userAgent: userAgent,
		trackers:  trackers,
	}
}

func (p *Provider) Name() string {
	return "piratebay"
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.Name(),
		Label:   "The Pirate Bay",
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
	query.Set("q", strings.TrimSpace(term))
	if code, ok := categoryCodes[strings.ToLower(strings.TrimSpace(category))]; ok {
		query.Set("cat", code)
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

	items, err := parseAPIItems(payload)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	listings := make([]domain.Listing, 0, len(items))
	for _, item := range items {
		listing, ok := p.toListing(item, category)
		if !ok {
			continue
		}
		listings = append(listings, listing)
		if len(listings) >= limit {
			break
		}
	}
	return listings, nil
}

func parseAPIItems(payload []byte) ([]apiItem, error) {
	var items []apiItem
	if err := json.Unmarshal(payload, &items); err == nil {
		return items, nil
	}

	// The API answers a lone object when there are no hits.
	var single map[string]any
	if err := json.Unmarshal(payload, &single); err == nil {
		return nil, nil
	}

	return nil, fmt.Errorf("unexpected provider payload")
}

func (p *Provider) toListing(item apiItem, category string) (domain.Listing, bool) {
	name := common.CleanText(item.Name)
	infoHash := common.NormalizeInfoHash(item.InfoHash)
	if infoHash == "" || name == "" {
		return domain.Listing{}, false
	}
	if strings.Contains(strings.ToLower(name), "no results returned") {
		return domain.Listing{}, false
	}
	return domain.Listing{
		Title:     name,
		SourceURL: common.BuildMagnet(infoHash, name, p.trackers),
		Seeds:     int(item.Seeders),
		Peers:     int(item.Leechers),
		Category:  category,
		Provider:  p.Name(),
	}, true
}
