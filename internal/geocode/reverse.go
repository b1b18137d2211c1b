package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkfinder/backend/internal/cache"
	"github.com/parkfinder/backend/internal/geo"
	"github.com/parkfinder/backend/internal/retry"
)

const UnknownStreet = "Unknown Street"

// Reverse resolves coordinates to a street name via a Nominatim reverse
// endpoint. Calls are paced to at most one per MinInterval because the
// upstream forbids bursts; there is no retry, a failed call falls back
// to UnknownStreet without caching.
type Reverse struct {
	BaseURL     string
	UserAgent   string
	Client      *http.Client
	Cache       *cache.Store[string]
	MinInterval time.Duration
	Logger      zerolog.Logger

	mu        sync.Mutex
	lastReqAt time.Time
}

type reverseResponse struct {
	Address struct {
		Road   string `json:"road"`
		Suburb string `json:"suburb"`
		City   string `json:"city"`
	} `json:"address"`
}

// Street returns the street name for a point, keyed by the 4-decimal
// grid cell. Failures degrade to UnknownStreet.
func (r *Reverse) Street(ctx context.Context, c geo.Coordinate) string {
	key := c.RoundKey()
	if street, ok := r.Cache.Get(key); ok {
		return street
	}

	r.throttle()

	street, err := r.lookup(ctx, c)
	if err != nil {
		r.Logger.Warn().Str("cell", key).Err(err).Msg("reverse geocode failed")
		return UnknownStreet
	}

	r.Cache.Put(key, street)
	return street
}

func (r *Reverse) throttle() {
	r.mu.Lock()
	sleepFor := time.Until(r.lastReqAt.Add(r.MinInterval))
	if sleepFor > 0 {
		r.mu.Unlock()
		time.Sleep(sleepFor)
		r.mu.Lock()
	}
	r.lastReqAt = time.Now()
	r.mu.Unlock()
}

func (r *Reverse) lookup(ctx context.Context, c geo.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(c.Lng, 'f', -1, 64))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", &retry.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var decoded reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}

	switch {
	case decoded.Address.Road != "":
		return decoded.Address.Road, nil
	case decoded.Address.Suburb != "":
		return decoded.Address.Suburb, nil
	case decoded.Address.City != "":
		return decoded.Address.City, nil
	default:
		return UnknownStreet, nil
	}
}
