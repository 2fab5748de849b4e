package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnections is the gauge of open notification sockets.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "socialhub_websocket_connections",
		Help: "Number of open notification WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client's send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// NotificationsPublished counts realtime events by type and delivery path.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_notifications_published_total",
		Help: "Total realtime notifications published",
	}, []string{"event_type", "transport"})

	// AIRequests counts AI calls by operation and outcome.
	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_ai_requests_total",
		Help: "Total AI requests by operation and outcome",
	}, []string{"operation", "outcome"})

	// AIRequestDuration records model latency.
	AIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialhub_ai_request_duration_seconds",
		Help:    "Latency of AI model calls in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"operation"})

	// MediaStoredBytes counts bytes written to the media store by file type.
	MediaStoredBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_media_stored_bytes_total",
		Help: "Total bytes written to the media store",
	}, []string{"type"})

	// MediaCleanupFailures counts artifacts that could not be removed.
	MediaCleanupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_media_cleanup_failures_total",
		Help: "Stored artifacts that could not be removed",
	}, []string{"reason"})

	// MediaOrphansRemoved counts artifacts deleted by the orphan sweeper.
	MediaOrphansRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialhub_media_orphans_removed_total",
		Help: "Orphaned media artifacts removed by the sweeper",
	})
)

const queryStartKey = "socialhub:query_start"

// RegisterDBMetrics hooks GORM callbacks so every query feeds DatabaseQueryLatency.
func RegisterDBMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.before("metrics:before_"+s.op, before); err != nil {
			return err
		}
		if err := s.after("metrics:after_"+s.op, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
