package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/ranking"
)

// ServerConfig captures all tunable parameters for the web process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally on the embedded dataset without any setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	EnableDB      bool
	PGDSN         string
	RunMigrations bool
	FixturesPath  string

	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string
	CountsKey     string
	CacheTTL      time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	SiteTimezone    string
	Fallback        models.Coord
	LocationTimeout time.Duration
	GeoIPURL        string

	PicksPager ranking.Pager
	TodayPager ranking.Pager

	WalkingKm  float64
	BadgeOrder []models.Badge
	CuratedMin int

	LogLevel  string
	LogFormat string
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RedisGeoKey:     "venues_geo",
		CountsKey:       "recommendations:received",
		CacheTTL:        30 * time.Second,
		KafkaTopic:      "recommendations",
		SiteTimezone:    "Asia/Tokyo",
		Fallback:        models.Coord{Lat: 35.658034, Lng: 139.701636},
		LocationTimeout: 2500 * time.Millisecond,
		PicksPager:      ranking.Pager{PageSize: 5, Step: 15, Max: 20},
		TodayPager:      ranking.Pager{PageSize: 20, Step: 20},
		WalkingKm:       1.0,
		BadgeOrder:      []models.Badge{models.BadgeWalking, models.BadgeLate},
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.EnableDB = strings.EqualFold(os.Getenv("ENABLE_DB"), "true")
	cfg.PGDSN = os.Getenv("PG_DSN")
	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")
	setStringFromEnv(&cfg.FixturesPath, "FIXTURES_PATH")

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")
	setStringFromEnv(&cfg.CountsKey, "REDIS_COUNTS_KEY")
	setDurationFromEnv(&cfg.CacheTTL, "CACHE_TTL", &errs)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	setStringFromEnv(&cfg.SiteTimezone, "SITE_TZ")
	setFloatFromEnv(&cfg.Fallback.Lat, "FALLBACK_LAT", &errs)
	setFloatFromEnv(&cfg.Fallback.Lng, "FALLBACK_LNG", &errs)
	setDurationFromEnv(&cfg.LocationTimeout, "LOCATION_TIMEOUT", &errs)
	setStringFromEnv(&cfg.GeoIPURL, "GEOIP_URL")

	setIntFromEnv(&cfg.PicksPager.PageSize, "PICKS_PAGE_SIZE", &errs)
	setIntFromEnv(&cfg.PicksPager.Step, "PICKS_PAGE_STEP", &errs)
	setIntFromEnv(&cfg.PicksPager.Max, "PICKS_PAGE_MAX", &errs)
	setIntFromEnv(&cfg.TodayPager.PageSize, "TODAY_PAGE_SIZE", &errs)
	setIntFromEnv(&cfg.TodayPager.Step, "TODAY_PAGE_STEP", &errs)

	setFloatFromEnv(&cfg.WalkingKm, "WALKING_KM", &errs)
	if v := os.Getenv("BADGE_POLICY"); v != "" {
		order, err := ranking.ParseBadgeOrder(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid BADGE_POLICY: %w", err))
		} else {
			cfg.BadgeOrder = order
		}
	}
	setIntFromEnv(&cfg.CuratedMin, "CURATED_BADGE_MIN", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if cfg.EnableDB && cfg.PGDSN == "" {
		errs = append(errs, fmt.Errorf("ENABLE_DB requires PG_DSN"))
	}
	if cfg.PicksPager.PageSize <= 0 || cfg.TodayPager.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page sizes must be > 0"))
	}
	if cfg.PicksPager.Max > 0 && cfg.PicksPager.Max < cfg.PicksPager.PageSize {
		errs = append(errs, fmt.Errorf("PICKS_PAGE_MAX must be >= PICKS_PAGE_SIZE"))
	}
	if cfg.Fallback.Lat < -90 || cfg.Fallback.Lat > 90 || cfg.Fallback.Lng < -180 || cfg.Fallback.Lng > 180 {
		errs = append(errs, fmt.Errorf("fallback coordinate out of range"))
	}
	if _, err := time.LoadLocation(cfg.SiteTimezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid SITE_TZ: %w", err))
	}

	return cfg, errors.Join(errs...)
}

// Location returns the site's time zone, UTC when it cannot be loaded.
func (c ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.SiteTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BadgePolicy assembles the ranking badge policy from the config.
func (c ServerConfig) BadgePolicy() ranking.BadgePolicy {
	return ranking.BadgePolicy{Order: c.BadgeOrder, WalkingKm: c.WalkingKm, CuratedMin: c.CuratedMin}
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ConsumerConfig configures the recommendation event consumer.
type ConsumerConfig struct {
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaGroup    string
	RedisAddr     string
	RedisPassword string
	CountsKey     string
	MetricsAddr   string
	Attempts      int
	RetryDelay    time.Duration
	LogLevel      string
	LogFormat     string
}

func LoadConsumerConfig() (ConsumerConfig, error) {
	cfg := ConsumerConfig{
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "recommendations",
		KafkaGroup:   "shiftboard-counts",
		RedisAddr:    "localhost:6379",
		CountsKey:    "recommendations:received",
		MetricsAddr:  ":2112",
		Attempts:     3,
		RetryDelay:   200 * time.Millisecond,
		LogLevel:     "info",
		LogFormat:    "json",
	}
	var errs []error
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setStringFromEnv(&cfg.KafkaGroup, "KAFKA_GROUP")
	setStringFromEnv(&cfg.RedisAddr, "REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.CountsKey, "REDIS_COUNTS_KEY")
	setStringFromEnv(&cfg.MetricsAddr, "METRICS_ADDR")
	setIntFromEnv(&cfg.Attempts, "CONSUMER_ATTEMPTS", &errs)
	setDurationFromEnv(&cfg.RetryDelay, "CONSUMER_RETRY_DELAY", &errs)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if len(cfg.KafkaBrokers) == 0 {
		errs = append(errs, fmt.Errorf("KAFKA_BROKERS is empty"))
	}
	if cfg.Attempts < 1 {
		errs = append(errs, fmt.Errorf("CONSUMER_ATTEMPTS must be >= 1"))
	}
	return cfg, errors.Join(errs...)
}
