package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkfinder/backend/internal/cache"
	"github.com/parkfinder/backend/internal/geo"
	"github.com/parkfinder/backend/internal/retry"
)

// Fallback coordinate returned when geocoding fails entirely (Sydney CBD).
var FallbackCoordinate = geo.Coordinate{Lat: -33.8688, Lng: 151.2093}

var ErrNoResult = errors.New("geocode: no usable result")

// Result distinguishes a real geocode from the degraded fallback so
// callers do not have to infer it from the coordinate value.
type Result struct {
	Coordinate geo.Coordinate
	Fallback   bool
}

// Forward resolves a free-text "location, city" query to coordinates via
// a Nominatim search endpoint, consulting the persistent cache first.
type Forward struct {
	BaseURL    string
	UserAgent  string
	Client     *http.Client
	Cache      *cache.Store[geo.Coordinate]
	Retries    int
	RetryDelay time.Duration
	Logger     zerolog.Logger
}

type searchItem struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NormalizeQuery builds the cache key: lowercased, trimmed, internal
// whitespace collapsed, location and city joined by ", ".
func NormalizeQuery(location, city string) string {
	q := strings.TrimSpace(location) + ", " + city
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Geocode never fails: an exhausted or unusable upstream yields the
// fallback coordinate with Fallback set.
func (f *Forward) Geocode(ctx context.Context, location, city string) Result {
	key := NormalizeQuery(location, city)
	if coord, ok := f.Cache.Get(key); ok {
		return Result{Coordinate: coord}
	}

	items, err := retry.Do(ctx, f.Logger, "nominatim_search", f.Retries, f.RetryDelay, func(ctx context.Context) ([]searchItem, error) {
		return f.search(ctx, key)
	})
	if err != nil {
		f.Logger.Warn().Str("query", key).Err(err).Msg("geocode failed, using fallback coordinate")
		return Result{Coordinate: FallbackCoordinate, Fallback: true}
	}

	coord, err := parseSearchItems(items)
	if err != nil {
		f.Logger.Warn().Str("query", key).Err(err).Msg("geocode returned no usable result, using fallback coordinate")
		return Result{Coordinate: FallbackCoordinate, Fallback: true}
	}

	f.Cache.Put(key, coord)
	return Result{Coordinate: coord}
}

func (f *Forward) search(ctx context.Context, query string) ([]searchItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &retry.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var items []searchItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

func parseSearchItems(items []searchItem) (geo.Coordinate, error) {
	if len(items) == 0 {
		return geo.Coordinate{}, ErrNoResult
	}
	lat, err := strconv.ParseFloat(items[0].Lat, 64)
	if err != nil {
		return geo.Coordinate{}, err
	}
	lng, err := strconv.ParseFloat(items[0].Lon, 64)
	if err != nil {
		return geo.Coordinate{}, err
	}
	coord := geo.Coordinate{Lat: lat, Lng: lng}
	if !coord.Valid() {
		return geo.Coordinate{}, ErrNoResult
	}
	return coord, nil
}
