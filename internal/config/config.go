package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                string        `mapstructure:"ENV"`
	Port               string        `mapstructure:"PORT"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	CORSAllowed        string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	PublicDir          string        `mapstructure:"PUBLIC_DIR"`
	NominatimURL       string        `mapstructure:"NOMINATIM_URL"`
	OverpassURL        string        `mapstructure:"OVERPASS_URL"`
	UserAgent          string        `mapstructure:"USER_AGENT"`
	GeocodeCachePath   string        `mapstructure:"GEOCODE_CACHE_PATH"`
	ReverseCachePath   string        `mapstructure:"REVERSE_CACHE_PATH"`
	GeocodeTimeout     time.Duration `mapstructure:"GEOCODE_TIMEOUT"`
	OverpassTimeout    time.Duration `mapstructure:"OVERPASS_TIMEOUT"`
	GeocodeRetries     int           `mapstructure:"GEOCODE_RETRIES"`
	OverpassRetries    int           `mapstructure:"OVERPASS_RETRIES"`
	GeocodeRetryDelay  time.Duration `mapstructure:"GEOCODE_RETRY_DELAY"`
	OverpassRetryDelay time.Duration `mapstructure:"OVERPASS_RETRY_DELAY"`
	ReverseMinInterval time.Duration `mapstructure:"REVERSE_MIN_INTERVAL"`
	SearchRadiusMeters int           `mapstructure:"SEARCH_RADIUS_M"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("PUBLIC_DIR", "./public")
	v.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter")
	v.SetDefault("USER_AGENT", "parkfinder-backend/1.0")
	v.SetDefault("GEOCODE_CACHE_PATH", "geocode_cache.json")
	v.SetDefault("REVERSE_CACHE_PATH", "reverse_geocode_cache.json")
	v.SetDefault("GEOCODE_TIMEOUT", "15s")
	v.SetDefault("OVERPASS_TIMEOUT", "30s")
	v.SetDefault("GEOCODE_RETRIES", 3)
	v.SetDefault("OVERPASS_RETRIES", 5)
	v.SetDefault("GEOCODE_RETRY_DELAY", "2s")
	v.SetDefault("OVERPASS_RETRY_DELAY", "3s")
	v.SetDefault("REVERSE_MIN_INTERVAL", "1s")
	v.SetDefault("SEARCH_RADIUS_M", 2000)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
