package parking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/parkfinder/backend/internal/geo"
	"github.com/parkfinder/backend/internal/geocode"
	"github.com/parkfinder/backend/internal/models"
	"github.com/parkfinder/backend/internal/overpass"
	"github.com/parkfinder/backend/internal/retry"
)

const (
	maxCandidates      = 10
	fallbackCandidates = 3
	maxDistanceKm      = 2.0
)

// Service turns raw Overpass parking features into ranked spots:
// enrich, filter by distance and free/paid preference, dedupe by
// street keeping the nearest, sort ascending by distance.
type Service struct {
	Overpass     *overpass.Client
	Reverse      *geocode.Reverse
	Retries      int
	RetryDelay   time.Duration
	RadiusMeters int
	Logger       zerolog.Logger
}

type candidate struct {
	name       string
	street     string
	coord      geo.Coordinate
	distanceKm float64
	free       bool
}

// Search never fails: an exhausted upstream degrades to a single
// synthetic spot at the query coordinate.
func (s *Service) Search(ctx context.Context, origin geo.Coordinate, parkingType string) []models.Spot {
	elements, err := retry.Do(ctx, s.Logger, "overpass_search", s.Retries, s.RetryDelay, func(ctx context.Context) ([]overpass.Element, error) {
		return s.Overpass.SearchParking(ctx, origin, s.RadiusMeters)
	})
	if err != nil {
		s.Logger.Warn().Err(err).Msg("parking search exhausted retries, returning fallback spot")
		return []models.Spot{fallbackSpot(origin)}
	}

	if len(elements) > maxCandidates {
		elements = elements[:maxCandidates]
	}
	candidates := s.enrich(ctx, elements, origin, maxCandidates)

	matched := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.distanceKm > maxDistanceKm {
			continue
		}
		if !typeMatch(parkingType, c.free) {
			continue
		}
		matched = append(matched, c)
	}
	matched = dedupeByStreet(matched)
	sortByDistance(matched)

	if len(matched) == 0 && parkingType == models.ParkingTypeFree && len(elements) > 0 {
		return s.paidFallback(ctx, elements, origin)
	}

	spots := make([]models.Spot, 0, len(matched))
	for _, c := range matched {
		spots = append(spots, c.toSpot(""))
	}
	return spots
}

// paidFallback recomputes from the first raw elements with no free or
// distance filter, labelling everything paid.
func (s *Service) paidFallback(ctx context.Context, elements []overpass.Element, origin geo.Coordinate) []models.Spot {
	if len(elements) > fallbackCandidates {
		elements = elements[:fallbackCandidates]
	}
	candidates := s.enrich(ctx, elements, origin, fallbackCandidates)
	sortByDistance(candidates)

	spots := make([]models.Spot, 0, len(candidates))
	for _, c := range candidates {
		c.free = false
		spots = append(spots, c.toSpot("No free spots found nearby; paid parking may be available"))
	}
	return spots
}

// enrich resolves geometry, street and distance for each element with a
// bounded concurrent join. Completion order is irrelevant: results keep
// their slot and get sorted afterwards.
func (s *Service) enrich(ctx context.Context, elements []overpass.Element, origin geo.Coordinate, limit int) []candidate {
	out := make([]candidate, len(elements))
	resolved := make([]bool, len(elements))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, el := range elements {
		i, el := i, el
		g.Go(func() error {
			coord, ok := el.Coordinate()
			if !ok {
				return nil
			}

			street := el.Tags["addr:street"]
			if street == "" {
				street = el.Tags["highway"]
			}
			if street == "" {
				street = s.Reverse.Street(ctx, coord)
			}

			fee, hasFee := el.Tags["fee"]
			free := el.Tags["access"] == "public" || fee == "no" || !hasFee

			name := el.Tags["name"]
			if name == "" {
				if street != "" && street != geocode.UnknownStreet {
					name = street + " Parking"
				} else {
					name = "Unnamed Parking"
				}
			}

			out[i] = candidate{
				name:       name,
				street:     street,
				coord:      coord,
				distanceKm: geo.DistanceKm(origin, coord),
				free:       free,
			}
			resolved[i] = true
			return nil
		})
	}
	_ = g.Wait()

	candidates := make([]candidate, 0, len(elements))
	for i, ok := range resolved {
		if ok {
			candidates = append(candidates, out[i])
		}
	}
	return candidates
}

func typeMatch(parkingType string, free bool) bool {
	switch parkingType {
	case models.ParkingTypeFree:
		return free
	case models.ParkingTypePaid:
		return !free
	default:
		return true
	}
}

// dedupeByStreet keeps the nearest candidate for each street name.
func dedupeByStreet(candidates []candidate) []candidate {
	nearest := map[string]candidate{}
	for _, c := range candidates {
		if best, ok := nearest[c.street]; ok && best.distanceKm <= c.distanceKm {
			continue
		}
		nearest[c.street] = c
	}
	out := make([]candidate, 0, len(nearest))
	for _, c := range nearest {
		out = append(out, c)
	}
	return out
}

func sortByDistance(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].distanceKm < candidates[j].distanceKm
	})
}

func (c candidate) toSpot(rules string) models.Spot {
	if rules == "" {
		if c.free {
			rules = "Free parking"
		} else {
			rules = "Paid parking"
		}
	}
	return models.Spot{
		Address:    c.name,
		Street:     c.street,
		Latitude:   c.coord.Lat,
		Longitude:  c.coord.Lng,
		Free:       c.free,
		Rules:      rules,
		DistanceKm: fmt.Sprintf("%.2f", c.distanceKm),
	}
}

// fallbackSpot is the last-resort placeholder when the upstream is down.
func fallbackSpot(origin geo.Coordinate) models.Spot {
	return models.Spot{
		Address:    "Fallback Parking",
		Street:     geocode.UnknownStreet,
		Latitude:   origin.Lat,
		Longitude:  origin.Lng,
		Free:       true,
		Rules:      "No live parking data available",
		DistanceKm: "0.00",
	}
}
