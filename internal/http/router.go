package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/parkfinder/backend/internal/config"
	"github.com/parkfinder/backend/internal/geocode"
	"github.com/parkfinder/backend/internal/http/handlers"
	"github.com/parkfinder/backend/internal/http/middleware"
	"github.com/parkfinder/backend/internal/parking"

	_ "github.com/parkfinder/backend/docs"
)

func Router(cfg config.Config, geocoder *geocode.Forward, search *parking.Service, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error().Interface("panic", err).Msg("unhandled failure in request pipeline")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Unhandled failure",
				"details": fmt.Sprint(err),
			},
		})
	}))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Geocoder:  geocoder,
		Parking:   search,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)
	r.POST("/parking", h.FindParking)
	r.POST("/report", h.ReportParking)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.PublicDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.PublicDir))))
	}

	return r
}
