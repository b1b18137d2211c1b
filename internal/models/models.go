package models

// Spot is a ranked parking candidate. Derived per request, never persisted.
type Spot struct {
	Address    string  `json:"address"`
	Street     string  `json:"street"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Free       bool    `json:"free"`
	Rules      string  `json:"rules"`
	DistanceKm string  `json:"distance_km"`
}

const (
	ParkingTypeFree = "free"
	ParkingTypePaid = "paid"
	ParkingTypeAny  = "any"
)
