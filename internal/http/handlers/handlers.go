package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/parkfinder/backend/internal/geocode"
	"github.com/parkfinder/backend/internal/parking"
)

type Handler struct {
	Geocoder  *geocode.Forward
	Parking   *parking.Service
	Validator *validator.Validate
	Logger    zerolog.Logger
}

type ParkingRequest struct {
	City          string `json:"city" validate:"required"`
	Location      string `json:"location" validate:"required"`
	ParkingLength string `json:"parkingLength"`
	ParkingTime   string `json:"parkingTime"`
	ParkingType   string `json:"parkingType" validate:"required,oneof=free paid any"`
}

type ReportRequest struct {
	Location   string `json:"location" validate:"required"`
	Free       *bool  `json:"free" validate:"required"`
	Rules      string `json:"rules"`
	MaxMinutes int    `json:"maxMinutes"`
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Find parking spots
// @Description Geocode a location and return ranked nearby parking spots
// @Tags parking
// @Accept json
// @Produce json
// @Param request body ParkingRequest true "search request"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /parking [post]
func (h *Handler) FindParking(c *gin.Context) {
	var req ParkingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err), err.Error())
		return
	}

	parkingHours, err := parseParkingTime(req.ParkingTime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "parkingTime must be HH:MM", err.Error())
		return
	}
	// Parsed for future time-based rules, not applied to results yet.
	_ = parkingHours

	loc := h.Geocoder.Geocode(c.Request.Context(), req.Location, req.City)
	if loc.Fallback {
		h.Logger.Warn().
			Str("location", req.Location).
			Str("city", req.City).
			Msg("geocode degraded to fallback coordinate")
	}

	spots := h.Parking.Search(c.Request.Context(), loc.Coordinate, req.ParkingType)
	c.JSON(http.StatusOK, gin.H{"spots": spots})
}

// @Summary Report a parking spot
// @Description Accept a community report about a spot. Stub: validated and acknowledged only.
// @Tags parking
// @Accept json
// @Produce json
// @Param request body ReportRequest true "report"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /report [post]
func (h *Handler) ReportParking(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err), err.Error())
		return
	}

	h.Logger.Info().
		Str("location", req.Location).
		Bool("free", *req.Free).
		Int("max_minutes", req.MaxMinutes).
		Msg("parking report received")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// validationMessage lists the offending fields by their JSON names.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "Validation failed"
	}
	var fields []string
	for _, fe := range verrs {
		name := fe.Field()
		fields = append(fields, strings.ToLower(name[:1])+name[1:])
	}
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(fields, ", "))
}

// parseParkingTime converts "HH:MM" (default "12:00") to fractional hours.
func parseParkingTime(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "12:00"
	}
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time %q out of range", value)
	}
	return float64(hours) + float64(minutes)/60, nil
}
