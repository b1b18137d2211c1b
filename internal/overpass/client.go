package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parkfinder/backend/internal/geo"
	"github.com/parkfinder/backend/internal/retry"
)

// Element is a node or way returned by the Overpass interpreter. Ways
// carry their geometry in Center instead of direct lat/lon.
type Element struct {
	ID     int64             `json:"id"`
	Type   string            `json:"type"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Coordinate flattens the element to a single point. ok is false when
// the element carries no usable geometry.
func (e Element) Coordinate() (geo.Coordinate, bool) {
	if e.Center != nil {
		return geo.Coordinate{Lat: e.Center.Lat, Lng: e.Center.Lon}, true
	}
	if e.Lat == 0 && e.Lon == 0 {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: e.Lat, Lng: e.Lon}, true
}

// Client issues area queries against an Overpass interpreter endpoint.
type Client struct {
	Endpoint string
	Client   *http.Client
	Logger   zerolog.Logger
}

type searchResponse struct {
	Elements []Element `json:"elements"`
}

// SearchParking returns parking nodes and ways within radiusMeters of
// the center, way geometries resolved to their centers.
func (c *Client) SearchParking(ctx context.Context, center geo.Coordinate, radiusMeters int) ([]Element, error) {
	query := fmt.Sprintf(
		`[out:json][timeout:25];(node["amenity"="parking"](around:%d,%f,%f);way["amenity"="parking"](around:%d,%f,%f););out center;`,
		radiusMeters, center.Lat, center.Lng,
		radiusMeters, center.Lat, center.Lng,
	)
	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &retry.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}

	c.Logger.Debug().Int("elements", len(decoded.Elements)).Msg("overpass search complete")
	return decoded.Elements, nil
}
