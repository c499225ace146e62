package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Queue       QueueConfig
	Auth        AuthConfig
	Likes       LikesConfig
	Thumbnail   ThumbnailConfig
	Commissions CommissionsConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	Metrics     MetricsConfig
	Reconcile   ReconcileConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	RequestsPerSec  int
	Burst           int
	MaxUploadBytes  int64
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
	Migrate  bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	WorkTTL  time.Duration
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
	URLExpiry       time.Duration
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Vhost      string
	MaxRetries int
}

// AuthConfig holds identity verification settings. Tokens are issued elsewhere.
type AuthConfig struct {
	JWTSecret   string
	AdminUserID string
}

// LikesConfig holds the anonymous like limiter settings
type LikesConfig struct {
	RateLimit  int64
	RateWindow time.Duration
}

// ThumbnailConfig holds best-frame selection settings
type ThumbnailConfig struct {
	FFmpegPath   string
	FFprobePath  string
	TempDir      string
	SampleCount  int
	TargetWidth  int
	TargetHeight int
	JPEGQuality  int
	WorkerCount  int
}

// CommissionsConfig holds the chat handoff settings
type CommissionsConfig struct {
	WebhookURL    string
	WebhookSecret string
	ChatURL       string
	MaxAttempts   int
	RateLimit     int64
	RateWindow    time.Duration
}

// LoggingConfig mirrors logging.Config
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// TracingConfig holds Jaeger settings
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// MetricsConfig holds the Prometheus server settings
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// ReconcileConfig holds like-count reconciliation settings
type ReconcileConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.requestsPerSec", 20)
	v.SetDefault("server.burst", 40)
	v.SetDefault("server.maxUploadBytes", 512*1024*1024) // 512MB

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "folio")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 5)
	v.SetDefault("database.migrate", true)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.workTTL", "5m")

	// Storage defaults
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.accessKeyID", "minioadmin")
	v.SetDefault("storage.secretAccessKey", "minioadmin")
	v.SetDefault("storage.bucketName", "works")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.useSSL", false)
	v.SetDefault("storage.urlExpiry", "24h")

	// Queue defaults
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")
	v.SetDefault("queue.maxRetries", 3)

	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.adminUserID", "")

	// Anonymous likes: 100 toggles per fingerprint per minute
	v.SetDefault("likes.rateLimit", 100)
	v.SetDefault("likes.rateWindow", "60s")

	// Thumbnail defaults
	v.SetDefault("thumbnail.ffmpegPath", "ffmpeg")
	v.SetDefault("thumbnail.ffprobePath", "ffprobe")
	v.SetDefault("thumbnail.tempDir", "/tmp/folio")
	v.SetDefault("thumbnail.sampleCount", 10)
	v.SetDefault("thumbnail.targetWidth", 1280)
	v.SetDefault("thumbnail.targetHeight", 720)
	v.SetDefault("thumbnail.jpegQuality", 92)
	v.SetDefault("thumbnail.workerCount", 1)

	v.SetDefault("commissions.webhookURL", "")
	v.SetDefault("commissions.webhookSecret", "")
	v.SetDefault("commissions.chatURL", "")
	v.SetDefault("commissions.maxAttempts", 3)
	v.SetDefault("commissions.rateLimit", 5)
	v.SetDefault("commissions.rateWindow", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "folio")
	v.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.interval", "10m")
}
