package rarbg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchParsesTorrentResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("mode"); got != "search" {
			t.Errorf("unexpected mode %q", got)
		}
		if got := r.URL.Query().Get("search_string"); got != "inception" {
			t.Errorf("unexpected search string %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"torrent_results": [
			{"title": "Inception.2010.1080p", "download": "magnet:?xt=urn:btih:aa01", "seeders": 120, "leechers": "25", "category": "Movies/x264"},
			{"title": "Inception.2010.720p", "download": "magnet:?xt=urn:btih:aa02", "seeders": "44", "leechers": 9, "category": "Movies/x264"}
		]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL, Client: server.Client()})
	listings, err := provider.Search(context.Background(), "inception", "", 50)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[0].Seeds != 120 || listings[0].Peers != 25 {
		t.Fatalf("counts not coerced: %+v", listings[0])
	}
	if listings[0].Provider != "rarbg" {
		t.Fatalf("provider not stamped: %q", listings[0].Provider)
	}
}

func TestSearchNoResultsCodeIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "No results found", "error_code": 20}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL, Client: server.Client()})
	listings, err := provider.Search(context.Background(), "zzzzz", "", 10)
	if err != nil {
		t.Fatalf("expected empty result, got error: %v", err)
	}
	if listings != nil {
		t.Fatalf("expected nil listings, got %v", listings)
	}
}

func TestSearchOtherErrorCodeSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "Too many requests", "error_code": 5}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL, Client: server.Client()})
	_, err := provider.Search(context.Background(), "inception", "", 10)
	if err == nil {
		t.Fatal("expected provider error to surface")
	}
}

func TestSearchSkipsBrokenEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"torrent_results": [
			{"title": "", "download": "magnet:?xt=urn:btih:aa01", "seeders": 1},
			{"title": "No magnet", "download": "", "seeders": 1},
			{"title": "Good", "download": "magnet:?xt=urn:btih:aa02", "seeders": 5}
		]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL, Client: server.Client()})
	listings, err := provider.Search(context.Background(), "x", "", 10)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(listings) != 1 || listings[0].Title != "Good" {
		t.Fatalf("expected only the well-formed entry, got %#v", listings)
	}
}
