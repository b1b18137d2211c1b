package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkfinder/backend/internal/cache"
	"github.com/parkfinder/backend/internal/geo"
)

func newReverse(t *testing.T, baseURL string) *Reverse {
	t.Helper()
	return &Reverse{
		BaseURL:   baseURL,
		UserAgent: "parkfinder-test/1.0",
		Client:    &http.Client{Timeout: 2 * time.Second},
		Cache:     cache.New[string](filepath.Join(t.TempDir(), "reverse.json"), zerolog.Nop()),
		Logger:    zerolog.Nop(),
	}
}

func TestStreetPrefersRoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"road":"George Street","suburb":"The Rocks","city":"Sydney"}}`))
	}))
	defer srv.Close()

	r := newReverse(t, srv.URL)
	street := r.Street(context.Background(), geo.Coordinate{Lat: -33.8688, Lng: 151.2093})
	if street != "George Street" {
		t.Fatalf("expected road to win, got %s", street)
	}
	if cached, _ := r.Cache.Get("-33.8688,151.2093"); cached != "George Street" {
		t.Fatalf("expected street to be cached, got %q", cached)
	}
}

func TestStreetFallsThroughSuburbThenCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"suburb":"Newtown"}}`))
	}))
	defer srv.Close()

	r := newReverse(t, srv.URL)
	if street := r.Street(context.Background(), geo.Coordinate{Lat: -33.89, Lng: 151.17}); street != "Newtown" {
		t.Fatalf("expected suburb fallback, got %s", street)
	}
}

func TestStreetCachesUnknownWhenNoComponents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{}}`))
	}))
	defer srv.Close()

	r := newReverse(t, srv.URL)
	if street := r.Street(context.Background(), geo.Coordinate{Lat: 0.1, Lng: 0.1}); street != UnknownStreet {
		t.Fatalf("expected %s, got %s", UnknownStreet, street)
	}
	if r.Cache.Len() != 1 {
		t.Fatalf("missing-components result should be cached")
	}
}

func TestStreetFailureIsNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := newReverse(t, srv.URL)
	if street := r.Street(context.Background(), geo.Coordinate{Lat: 0.2, Lng: 0.2}); street != UnknownStreet {
		t.Fatalf("expected %s on failure, got %s", UnknownStreet, street)
	}
	if r.Cache.Len() != 0 {
		t.Fatalf("failures must not be cached")
	}
}

func TestStreetUsesCacheWithoutNetworkCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	r := newReverse(t, srv.URL)
	r.Cache.Put("-33.8688,151.2093", "George Street")
	if street := r.Street(context.Background(), geo.Coordinate{Lat: -33.86881, Lng: 151.20931}); street != "George Street" {
		t.Fatalf("expected cached street, got %s", street)
	}
	if calls != 0 {
		t.Fatalf("expected no upstream calls, got %d", calls)
	}
}
