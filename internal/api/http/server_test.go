package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"moviestream/searchservice/internal/domain"
	"moviestream/searchservice/internal/search"
)

type fakeMovieService struct {
	findResult      []domain.TranslatedMovie
	findErr         error
	translateResult domain.Movie
	translateErr    error
	lastRequest     domain.FindRequest
}

func (f *fakeMovieService) Find(_ context.Context, req domain.FindRequest) ([]domain.TranslatedMovie, error) {
	f.lastRequest = req
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findResult, nil
}

func (f *fakeMovieService) Translate(context.Context, string, string) (domain.Movie, error) {
	if f.translateErr != nil {
		return domain.Movie{}, f.translateErr
	}
	return f.translateResult, nil
}

func (f *fakeMovieService) Providers() []domain.ProviderInfo {
	return []domain.ProviderInfo{{Name: "test", Label: "test", Kind: "indexer", Enabled: true}}
}

type envelope struct {
	Status bool            `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func doRequest(t *testing.T, handler http.Handler, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	var body envelope
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v (%s)", err, recorder.Body.String())
	}
	return recorder, body
}

func TestFindReturnsEnvelope(t *testing.T) {
	movie := domain.Movie{ID: "tt1", Title: "Inception", Year: 2010}
	service := &fakeMovieService{findResult: []domain.TranslatedMovie{{En: movie, Ru: movie}}}
	handler := NewServer(service).Handler()

	recorder, body := doRequest(t, handler, "/find?category=movies&search=inception")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !body.Status {
		t.Fatal("expected status=true")
	}

	var movies []domain.TranslatedMovie
	if err := json.Unmarshal(body.Data, &movies); err != nil {
		t.Fatalf("invalid data payload: %v", err)
	}
	if len(movies) != 1 || movies[0].En.ID != "tt1" {
		t.Fatalf("unexpected payload: %#v", movies)
	}
	if service.lastRequest.Search != "inception" || service.lastRequest.Category != "movies" {
		t.Fatalf("request not forwarded: %#v", service.lastRequest)
	}
}

func TestFindNotFound(t *testing.T) {
	service := &fakeMovieService{findErr: search.ErrNoMovies}
	handler := NewServer(service).Handler()

	recorder, body := doRequest(t, handler, "/find?search=nothing")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
	if body.Status {
		t.Fatal("expected status=false")
	}
	if body.Error != "Could not find movies" {
		t.Fatalf("unexpected error message: %q", body.Error)
	}
}

func TestFindInternalError(t *testing.T) {
	service := &fakeMovieService{findErr: errors.New("catalog tier: connection refused")}
	handler := NewServer(service).Handler()

	recorder, body := doRequest(t, handler, "/find?search=anything")
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	if body.Error != "Error getting torrents" {
		t.Fatalf("unexpected error message: %q", body.Error)
	}
}

func TestFindForwardsBrowseParams(t *testing.T) {
	movie := domain.Movie{ID: "tt1", Title: "Alphaville"}
	service := &fakeMovieService{findResult: []domain.TranslatedMovie{{En: movie, Ru: movie}}}
	handler := NewServer(service).Handler()

	recorder, _ := doRequest(t, handler, "/find?letter=A&genre=drama&limit=5&offset=10")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	req := service.lastRequest
	if req.Letter != "A" || req.Genre != "drama" || req.Limit != 5 || req.Offset != 10 {
		t.Fatalf("browse params not forwarded: %#v", req)
	}
}

func TestFindRejectsBadPagination(t *testing.T) {
	handler := NewServer(&fakeMovieService{}).Handler()

	recorder, _ := doRequest(t, handler, "/find?search=x&limit=abc")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", recorder.Code)
	}
	recorder, _ = doRequest(t, handler, "/find?search=x&offset=-2")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad offset, got %d", recorder.Code)
	}
}

func TestFindMethodNotAllowed(t *testing.T) {
	handler := NewServer(&fakeMovieService{}).Handler()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/find?search=x", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
}

func TestTranslateSuccess(t *testing.T) {
	service := &fakeMovieService{translateResult: domain.Movie{ID: "tt1", Title: "Начало"}}
	handler := NewServer(service).Handler()

	recorder, body := doRequest(t, handler, "/translate?imdbid=tt1&title=Inception")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var movie domain.Movie
	if err := json.Unmarshal(body.Data, &movie); err != nil {
		t.Fatalf("invalid data payload: %v", err)
	}
	if movie.Title != "Начало" {
		t.Fatalf("unexpected movie: %#v", movie)
	}
}

func TestTranslateNotFound(t *testing.T) {
	service := &fakeMovieService{translateErr: search.ErrNoMovies}
	handler := NewServer(service).Handler()

	recorder, _ := doRequest(t, handler, "/translate?imdbid=tt404")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestTranslateInternalError(t *testing.T) {
	service := &fakeMovieService{translateErr: errors.New("translate tt1: http 500")}
	handler := NewServer(service).Handler()

	recorder, body := doRequest(t, handler, "/translate?imdbid=tt1")
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	if body.Error != "Error translating movie" {
		t.Fatalf("unexpected error message: %q", body.Error)
	}
}

func TestTranslateRequiresImdbID(t *testing.T) {
	handler := NewServer(&fakeMovieService{}).Handler()
	recorder, _ := doRequest(t, handler, "/translate?title=Inception")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := NewServer(&fakeMovieService{}).Handler()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestProvidersEndpoint(t *testing.T) {
	handler := NewServer(&fakeMovieService{}).Handler()
	recorder, body := doRequest(t, handler, "/providers")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var providers []domain.ProviderInfo
	if err := json.Unmarshal(body.Data, &providers); err != nil {
		t.Fatalf("invalid data payload: %v", err)
	}
	if len(providers) != 1 || providers[0].Name != "test" {
		t.Fatalf("unexpected providers: %#v", providers)
	}
}

func TestRateLimitReturns429(t *testing.T) {
	handler := NewServer(&fakeMovieService{findErr: search.ErrNoMovies},
		WithRateLimit(1, 1),
	).Handler()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/find?search=x", nil))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/find?search=x", nil))

	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst exhausted, got %d", second.Code)
	}
}
