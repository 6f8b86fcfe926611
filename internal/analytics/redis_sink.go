// Package analytics delivers finished location events to the analytics
// pipeline. The service treats submission as fire-and-forget; delivery
// and retry beyond the publish call are the pipeline's responsibility.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/atlas-mobile/location-service/logger"
	"github.com/atlas-mobile/location-service/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the Redis Pub/Sub channel location events are published to.
const Channel = "analytics:location:events"

// Config holds configuration for RedisSink.
type Config struct {
	PublishTimeout time.Duration
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		PublishTimeout: 5 * time.Second,
	}
}

// metrics holds Prometheus metrics for the sink.
type metrics struct {
	publishLatency prometheus.Histogram
	eventCount     *prometheus.CounterVec
	errorCount     *prometheus.CounterVec
}

var (
	metricsInstance *metrics
	metricsOnce     sync.Once
	defaultRegistry = prometheus.DefaultRegisterer
)

// newMetrics initializes and registers Prometheus metrics using a
// singleton so repeated sink construction does not re-register.
func newMetrics() *metrics {
	metricsOnce.Do(func() {
		metricsInstance = &metrics{
			publishLatency: promauto.With(defaultRegistry).NewHistogram(prometheus.HistogramOpts{
				Name:    "location_event_publish_duration_seconds",
				Help:    "Time taken to publish location events",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			}),
			eventCount: promauto.With(defaultRegistry).NewCounterVec(prometheus.CounterOpts{
				Name: "location_events_total",
				Help: "Total number of location events by update type",
			}, []string{"update_type", "provider"}),
			errorCount: promauto.With(defaultRegistry).NewCounterVec(prometheus.CounterOpts{
				Name: "location_event_errors_total",
				Help: "Total number of location event submission errors",
			}, []string{"operation"}),
		}
	})
	return metricsInstance
}

// resetMetricsForTesting swaps in a fresh registry so tests can
// construct sinks without duplicate-registration panics.
func resetMetricsForTesting() {
	defaultRegistry = prometheus.NewRegistry()
	metricsInstance = nil
	metricsOnce = sync.Once{}
}

// RedisSink implements types.AnalyticsSink using Redis Pub/Sub.
type RedisSink struct {
	rdb     *redis.Client
	log     *zap.SugaredLogger
	metrics *metrics
	config  Config
}

// NewRedisSink creates a RedisSink publishing to Channel.
func NewRedisSink(rdb *redis.Client, cfg ...Config) *RedisSink {
	config := DefaultConfig()
	if len(cfg) > 0 {
		config = cfg[0]
	}

	return &RedisSink{
		rdb:     rdb,
		log:     logger.GetLogger().Named("analytics"),
		metrics: newMetrics(),
		config:  config,
	}
}

// Submit wraps the location event in the analytics envelope and publishes
// it. The publish is bounded by the configured timeout.
func (s *RedisSink) Submit(ctx context.Context, event types.LocationEvent) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		s.metrics.errorCount.WithLabelValues("marshal").Inc()
		return fmt.Errorf("failed to marshal location event: %w", err)
	}

	envelope := types.Event{
		BaseEvent: types.BaseEvent{
			ID:        uuid.New().String(),
			Type:      types.EventTypeLocationUpdated,
			Timestamp: time.Now(),
			Version:   1,
		},
		Metadata: types.EventMetadata{
			Source: "location_service",
		},
		Payload: payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		s.metrics.errorCount.WithLabelValues("marshal").Inc()
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.config.PublishTimeout)
	defer cancel()

	if err := s.rdb.Publish(pubCtx, Channel, data).Err(); err != nil {
		s.metrics.errorCount.WithLabelValues("publish").Inc()
		s.log.Errorw("Failed to publish location event",
			"update_type", event.UpdateType,
			"provider", event.Provider,
			"error", err,
		)
		return fmt.Errorf("failed to publish location event: %w", err)
	}

	s.metrics.publishLatency.Observe(time.Since(start).Seconds())
	s.metrics.eventCount.WithLabelValues(string(event.UpdateType), event.Provider).Inc()
	s.log.Debugw("Published location event",
		"update_type", event.UpdateType,
		"provider", event.Provider,
	)
	return nil
}
