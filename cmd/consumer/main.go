package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/shiftboard/internal/config"
	"github.com/example/shiftboard/internal/counts"
	"github.com/example/shiftboard/internal/events"
	"github.com/example/shiftboard/internal/logging"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total recommendation events consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total invalid messages received",
	})
	countUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_count_updates_total",
		Help: "Total successful received-count updates",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_errors_total",
		Help: "Total redis errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, countUpdates, redisErrors)
}

func main() {
	cfg, err := config.LoadConsumerConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	counter := counts.NewRedisCounter(rc, cfg.CountsKey)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
		})
		logger.Info("metrics/health listening", "addr", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic, GroupID: cfg.KafkaGroup, MinBytes: 1, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	logger.Info("consumer listening", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers, "group", cfg.KafkaGroup)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Warn("kafka read error", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		msgsConsumed.Inc()

		e, err := events.Decode(m.Value)
		if err != nil {
			msgsInvalid.Inc()
			logger.Warn("invalid message", "offset", m.Offset, "error", err)
			continue
		}
		updated, err := apply(ctx, counter, e, cfg.Attempts, cfg.RetryDelay)
		if err != nil {
			redisErrors.Inc()
			logger.Error("count update failed", "recommendation", e.Recommendation.ID, "to", e.Recommendation.ToPerson, "error", err)
			continue
		}
		if updated {
			countUpdates.Inc()
		}
	}
}

// CountUpdater is the subset of counts.RedisCounter the consumer writes through.
type CountUpdater interface {
	Set(ctx context.Context, slug string, n int) error
}

// apply folds one event into the received counts. Only approvals count;
// created events are pending and change nothing. Approvals carry the
// recipient's total, so redelivered events leave the counter unchanged.
func apply(ctx context.Context, cu CountUpdater, e events.Event, attempts int, delay time.Duration) (bool, error) {
	if e.Type != events.RecommendationApproved {
		return false, nil
	}
	if e.Received < 1 {
		return false, fmt.Errorf("approval %s has no received total", e.Recommendation.ID)
	}
	if err := setWithRetry(ctx, cu, e.Recommendation.ToPerson, e.Received, attempts, delay); err != nil {
		return false, err
	}
	return true, nil
}

// setWithRetry retries with doubling delay and gives up early when ctx ends.
func setWithRetry(ctx context.Context, cu CountUpdater, slug string, n, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = cu.Set(ctx, slug, n); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("set %s after %d attempts: %w", slug, attempts, err)
}
