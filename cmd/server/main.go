package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/parkfinder/backend/internal/cache"
	"github.com/parkfinder/backend/internal/config"
	"github.com/parkfinder/backend/internal/geo"
	"github.com/parkfinder/backend/internal/geocode"
	httpapi "github.com/parkfinder/backend/internal/http"
	"github.com/parkfinder/backend/internal/overpass"
	"github.com/parkfinder/backend/internal/parking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "parkfinder-backend").Logger()

	forwardCache := cache.New[geo.Coordinate](cfg.GeocodeCachePath, logger)
	reverseCache := cache.New[string](cfg.ReverseCachePath, logger)
	logger.Info().
		Int("forward_entries", forwardCache.Len()).
		Int("reverse_entries", reverseCache.Len()).
		Msg("geocode caches loaded")

	geocoder := &geocode.Forward{
		BaseURL:    cfg.NominatimURL,
		UserAgent:  cfg.UserAgent,
		Client:     &http.Client{Timeout: cfg.GeocodeTimeout},
		Cache:      forwardCache,
		Retries:    cfg.GeocodeRetries,
		RetryDelay: cfg.GeocodeRetryDelay,
		Logger:     logger,
	}
	reverse := &geocode.Reverse{
		BaseURL:     cfg.NominatimURL,
		UserAgent:   cfg.UserAgent,
		Client:      &http.Client{Timeout: cfg.GeocodeTimeout},
		Cache:       reverseCache,
		MinInterval: cfg.ReverseMinInterval,
		Logger:      logger,
	}
	search := &parking.Service{
		Overpass: &overpass.Client{
			Endpoint: cfg.OverpassURL,
			Client:   &http.Client{Timeout: cfg.OverpassTimeout},
			Logger:   logger,
		},
		Reverse:      reverse,
		Retries:      cfg.OverpassRetries,
		RetryDelay:   cfg.OverpassRetryDelay,
		RadiusMeters: cfg.SearchRadiusMeters,
		Logger:       logger,
	}

	router := httpapi.Router(cfg, geocoder, search, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
