package domain

// Listing is one raw torrent listing as returned by an indexer provider.
// Listings live only inside a single search request.
type Listing struct {
	Title     string `json:"title"`
	SourceURL string `json:"sourceUrl"`
	Seeds     int    `json:"seeds"`
	Peers     int    `json:"peers"`
	Category  string `json:"category,omitempty"`
	Provider  string `json:"provider"`
}

// Availability is the popularity/health contribution of a single listing.
func (l Listing) Availability() float64 {
	return float64(l.Seeds) + 0.1*float64(l.Peers)
}

// Cluster groups listings believed to reference the same movie.
// Key is the normalized-title grouping key; Year is 0 when no listing
// carried a year token.
type Cluster struct {
	Key      string
	Title    string
	Year     int
	Listings []Listing
}

// Availability sums the contribution of every listing in the cluster.
func (c Cluster) Availability() float64 {
	total := 0.0
	for _, listing := range c.Listings {
		total += listing.Availability()
	}
	return total
}

// Movie is the canonical, enriched metadata record identified by a stable
// imdb-style id.
type Movie struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Year           int      `json:"year"`
	Genres         []string `json:"genres"`
	Rating         float64  `json:"rating"`
	IMDBRating     float64  `json:"imdbRating"`
	RuntimeMinutes int      `json:"runtimeMins"`
	Countries      []string `json:"countries"`
	Description    string   `json:"description"`
	Cast           []string `json:"cast,omitempty"`
	Directors      []string `json:"directors,omitempty"`
	Poster         string   `json:"img,omitempty"`
	Availability   float64  `json:"availability"`
}

// TranslatedMovie is the unit returned to callers. En is always populated;
// Ru falls back to a copy of En when no localized record exists, so
// consumers never observe a missing localization.
type TranslatedMovie struct {
	En Movie `json:"en"`
	Ru Movie `json:"ru"`
}

// ProviderInfo describes a configured provider for diagnostics.
type ProviderInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
}

// ProviderStatus reports how one provider fared inside a single fan-out.
type ProviderStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// FindRequest carries the parameters of one /find search.
type FindRequest struct {
	Search   string
	Category string
	Letter   string
	Genre    string
	Limit    int
	Offset   int
}

// Tier names, in increasing cost order.
const (
	TierCatalog     = "catalog"
	TierCheapIndex  = "cheap-indexer"
	TierAggregation = "aggregation"
)
