package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/example/shiftboard/internal/cache"
	"github.com/example/shiftboard/internal/config"
	"github.com/example/shiftboard/internal/counts"
	"github.com/example/shiftboard/internal/events"
	"github.com/example/shiftboard/internal/fixtures"
	"github.com/example/shiftboard/internal/geo"
	"github.com/example/shiftboard/internal/listing"
	"github.com/example/shiftboard/internal/live"
	"github.com/example/shiftboard/internal/location"
	"github.com/example/shiftboard/internal/profile"
	"github.com/example/shiftboard/internal/schedule"
	"github.com/example/shiftboard/internal/storage"
)

// App is the wired web process. Close releases every backend it opened.
type App struct {
	Server  *Server
	Hub     *live.Hub
	Listing *listing.Service
	closers []func() error
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// NewAppFromConfig wires the backends named in cfg. Postgres, Redis and
// Kafka are each optional; without them the in-memory dataset, memory cache
// and memory venue index are used and events are not published.
func NewAppFromConfig(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (*App, error) {
	var ds fixtures.Provider = fixtures.Default()
	if cfg.FixturesPath != "" {
		loaded, err := fixtures.Load(cfg.FixturesPath)
		if err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		ds = loaded
	}

	app := &App{}
	clock := schedule.ClockIn(cfg.Location())
	now := clock()
	memory := storage.NewMemoryStore(ds.Snapshot(now), clock)
	checks := map[string]Check{}

	var store storage.Store = memory
	if cfg.EnableDB {
		pg, err := storage.NewPostgresStore(ctx, cfg.PGDSN)
		if err != nil {
			logger.Warn("postgres unavailable, serving default dataset", "error", err)
		} else {
			app.closers = append(app.closers, pg.Close)
			if cfg.RunMigrations {
				if err := storage.Migrate(ctx, pg.DB(), logger); err != nil {
					_ = app.Close()
					return nil, err
				}
			}
			store = storage.NewFallbackStore(pg, memory, logger)
			checks["postgres"] = pg.Ping
		}
	}

	var (
		c       cache.Cache
		venues  geo.VenueIndex
		counter *counts.RedisCounter
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		app.closers = append(app.closers, rdb.Close)
		c = cache.NewRedis(rdb, "shiftboard:", cfg.CacheTTL, logger)
		venues = geo.NewRedisVenueIndex(rdb, cfg.RedisGeoKey)
		counter = counts.NewRedisCounter(rdb, cfg.CountsKey)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		c = cache.NewMemory(cfg.CacheTTL)
		venues = geo.NewIndex()
	}
	if cfg.CacheTTL > 0 {
		store = storage.NewCachedStore(store, c)
	}
	checks["store"] = store.Ping
	if counter != nil {
		syncCounts(ctx, store, counter, logger)
	}

	var pub events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		app.closers = append(app.closers, kp.Close)
		pub = kp
	}

	resolver := location.NewResolver(cfg.Fallback, cfg.LocationTimeout)
	var geoip *location.GeoIPClient
	if cfg.GeoIPURL != "" {
		geoip = location.NewGeoIPClient(cfg.GeoIPURL)
	}

	app.Listing = &listing.Service{
		Store:  store,
		Venues: venues,
		Clock:  clock,
		Badges: cfg.BadgePolicy(),
		Picks:  cfg.PicksPager,
		Today:  cfg.TodayPager,
		Logger: logger,
	}
	if err := app.Listing.SyncVenues(ctx); err != nil {
		logger.Warn("venue sync failed", "error", err)
	}
	prof := &profile.Service{Store: store, Clock: clock, Logger: logger}
	if counter != nil {
		prof.Counts = counter
	}
	app.Hub = live.NewHub(app.Listing, resolver, logger)

	srv, err := NewServer(Deps{
		Listing:  app.Listing,
		Profile:  prof,
		Store:    store,
		Venues:   venues,
		Events:   pub,
		Resolver: resolver,
		GeoIP:    geoip,
		Live:     app.Hub,
		Checks:   checks,
	}, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Server = srv
	return app, nil
}

// syncCounts seeds the received-count sorted set from the store so
// approvals made before the consumer ran are reflected.
func syncCounts(ctx context.Context, store storage.Store, counter *counts.RedisCounter, logger *slog.Logger) {
	totals, err := store.ReceivedCounts(ctx, nil)
	if err != nil {
		logger.Warn("received counts unavailable, counter not seeded", "error", err)
		return
	}
	if err := counter.Sync(ctx, totals); err != nil {
		logger.Warn("seed received counts failed", "error", err)
		return
	}
	logger.Info("received counts seeded", "people", len(totals))
}
