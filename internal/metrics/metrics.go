package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Like Metrics
	LikeTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_like_toggles_total",
			Help: "Total number of like toggles by resulting state",
		},
		[]string{"actor_kind", "result"},
	)

	LikeRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_like_rate_limited_total",
			Help: "Total number of anonymous like toggles rejected by the rate limiter",
		},
	)

	LikeCountFixesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_like_count_fixes_total",
			Help: "Total number of works whose like count was reconciled",
		},
	)

	// Upload Metrics
	MediaUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_media_uploads_total",
			Help: "Total number of media uploads",
		},
		[]string{"kind"},
	)

	MediaUploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_media_upload_size_bytes",
			Help:    "Size of uploaded media in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 14), // 64KB to 512MB
		},
	)

	// Thumbnail Metrics
	ThumbnailJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_thumbnail_jobs_total",
			Help: "Total number of thumbnail jobs processed",
		},
		[]string{"mode", "status"},
	)

	ThumbnailDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_thumbnail_duration_seconds",
			Help:    "Thumbnail selection duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"mode"},
	)

	ThumbnailScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_thumbnail_score",
			Help:    "Score of the selected thumbnail frame",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_jobs_in_progress",
			Help: "Number of thumbnail jobs currently being processed",
		},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "folio_queue_depth",
			Help: "Messages waiting in each thumbnail queue",
		},
		[]string{"queue"},
	)

	// Commission Metrics
	CommissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_commissions_total",
			Help: "Total number of commission requests by handoff status",
		},
		[]string{"handoff_status"},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"operation"},
	)

	StorageBytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_storage_bytes_transferred_total",
			Help: "Total bytes transferred to/from storage",
		},
		[]string{"operation"},
	)

	// Database Metrics
	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordLikeToggle records the outcome of a like toggle
func RecordLikeToggle(actorKind string, liked bool) {
	result := "unliked"
	if liked {
		result = "liked"
	}
	LikeTogglesTotal.WithLabelValues(actorKind, result).Inc()
}

// RecordLikeRateLimited records a rejected anonymous toggle
func RecordLikeRateLimited() {
	LikeRateLimitedTotal.Inc()
}

// RecordLikeCountFixes records reconciled like counters
func RecordLikeCountFixes(n int64) {
	LikeCountFixesTotal.Add(float64(n))
}

// RecordMediaUpload records a media upload
func RecordMediaUpload(kind string, size int64) {
	MediaUploadsTotal.WithLabelValues(kind).Inc()
	MediaUploadSizeBytes.Observe(float64(size))
}

// RecordThumbnailJob records a processed thumbnail job
func RecordThumbnailJob(mode, status string, duration float64, score float64) {
	ThumbnailJobsTotal.WithLabelValues(mode, status).Inc()
	ThumbnailDuration.WithLabelValues(mode).Observe(duration)
	if status == "completed" {
		ThumbnailScore.Observe(score)
	}
}

// RecordQueueDepth records the number of messages waiting in a queue
func RecordQueueDepth(queue string, depth int) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordCommission records a commission request and its handoff outcome
func RecordCommission(handoffStatus string) {
	CommissionsTotal.WithLabelValues(handoffStatus).Inc()
}

// RecordStorageOperation records a storage operation
func RecordStorageOperation(operation, status string, duration float64, bytesTransferred int64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageOperationDuration.WithLabelValues(operation).Observe(duration)
	StorageBytesTransferred.WithLabelValues(operation).Add(float64(bytesTransferred))
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string, duration float64) {
	DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
	DatabaseOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordCacheAccess records cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
