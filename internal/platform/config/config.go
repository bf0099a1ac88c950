// Package config loads process configuration from the environment. A local
// .env file is applied first when present so development setups need no
// exported variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"coffeereg/pkg/secrets"
)

// Config aggregates every section the server and the CLI read.
type Config struct {
	Environment  string
	Server       Server
	Mongo        MongoConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Gateway      GatewayConfig
	Mail         MailConfig
	Registration RegistrationConfig
	Admin        AdminConfig
	Reconcile    ReconcileConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	MaxUploadBytes  int64
}

// MongoConfig points at the document store. An empty URI selects the
// in-memory stores, which is how tests and local demos run.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// RedisConfig configures the optional webhook dedupe cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DeliveryTTL  time.Duration
}

// KafkaConfig configures the optional audit sink.
type KafkaConfig struct {
	Brokers    string
	AuditTopic string
}

// GatewayConfig holds Razorpay credentials and call limits.
type GatewayConfig struct {
	BaseURL          string
	KeyID            string
	KeySecret        string
	WebhookSecret    string
	Timeout          time.Duration
	FailureThreshold int
	Cooldown         time.Duration
	// AckUnknownWebhooks answers 200 ignored instead of 404 for payments that do not
	// map to a registration, which stops gateway retries.
	AckUnknownWebhooks bool
}

// MailConfig configures the transactional mail API. An empty token logs
// messages instead of sending them.
type MailConfig struct {
	APIURL   string
	Token    string
	From     string
	FromName string
	Timeout  time.Duration
}

// RegistrationConfig holds event specific settings.
type RegistrationConfig struct {
	IDPrefix          string
	EventName         string
	AttachmentBackend string // "fs" or "gridfs"
	UploadDir         string
	CatalogFile       string
}

// AdminConfig holds the bcrypt hash of the operator token.
type AdminConfig struct {
	TokenHash string
}

// ReconcileConfig drives the background worker that settles stale pending
// registrations against the gateway.
type ReconcileConfig struct {
	Enabled   bool
	Interval  time.Duration
	OlderThan time.Duration
	BatchSize int
}

// Load reads configuration from the environment after applying an optional
// .env file. It returns an error only for values that are present but
// malformed, or for combinations that cannot work.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	r := &reader{}
	cfg := &Config{
		Environment: r.str("APP_ENV", "development"),
		Server: Server{
			Addr:            r.str("SERVER_ADDR", ":8080"),
			RequestTimeout:  r.duration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: r.duration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			MaxBodyBytes:    int64(r.integer("SERVER_MAX_BODY_BYTES", 64*1024)),
			MaxUploadBytes:  int64(r.integer("SERVER_MAX_UPLOAD_BYTES", 5*1024*1024)),
		},
		Mongo: MongoConfig{
			URI:            r.str("MONGODB_URI", ""),
			Database:       r.str("MONGODB_DATABASE", "coffee_championship"),
			ConnectTimeout: r.duration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:          r.str("REDIS_URL", ""),
			PoolSize:     r.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			DeliveryTTL:  r.duration("REDIS_WEBHOOK_DELIVERY_TTL", 72*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:    r.str("KAFKA_BROKERS", ""),
			AuditTopic: r.str("KAFKA_AUDIT_TOPIC", "registration.audit"),
		},
		Gateway: GatewayConfig{
			BaseURL:            r.str("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
			KeyID:              r.str("RAZORPAY_KEY_ID", ""),
			KeySecret:          r.str("RAZORPAY_KEY_SECRET", ""),
			WebhookSecret:      r.str("RAZORPAY_WEBHOOK_SECRET", ""),
			Timeout:            r.duration("RAZORPAY_TIMEOUT", 10*time.Second),
			FailureThreshold:   r.integer("RAZORPAY_FAILURE_THRESHOLD", 5),
			Cooldown:           r.duration("RAZORPAY_COOLDOWN", 30*time.Second),
			AckUnknownWebhooks: r.boolean("WEBHOOK_ACK_UNKNOWN", false),
		},
		Mail: MailConfig{
			APIURL:   r.str("ZEPTOMAIL_URL", "https://api.zeptomail.in/v1.1/email"),
			Token:    r.str("ZEPTOMAIL_TOKEN", ""),
			From:     r.str("MAIL_FROM", "noreply@coffeechampionship.in"),
			FromName: r.str("MAIL_FROM_NAME", "National Coffee Championship"),
			Timeout:  r.duration("MAIL_TIMEOUT", 15*time.Second),
		},
		Registration: RegistrationConfig{
			IDPrefix:          r.str("REGISTRATION_ID_PREFIX", "CFC2025"),
			EventName:         r.str("EVENT_NAME", "National Coffee Championship 2025"),
			AttachmentBackend: r.str("ATTACHMENT_BACKEND", "fs"),
			UploadDir:         r.str("UPLOAD_DIR", "uploads/passports"),
			CatalogFile:       r.str("CATALOG_FILE", ""),
		},
		Admin: AdminConfig{
			TokenHash: r.str("ADMIN_TOKEN_HASH", ""),
		},
		Reconcile: ReconcileConfig{
			Enabled:   r.boolean("RECONCILE_ENABLED", true),
			Interval:  r.duration("RECONCILE_INTERVAL", 5*time.Minute),
			OlderThan: r.duration("RECONCILE_OLDER_THAN", 15*time.Minute),
			BatchSize: r.integer("RECONCILE_BATCH_SIZE", 50),
		},
	}

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Registration.AttachmentBackend {
	case "fs":
	case "gridfs":
		if c.Mongo.URI == "" {
			return errors.New("ATTACHMENT_BACKEND=gridfs requires MONGODB_URI")
		}
	default:
		return fmt.Errorf("ATTACHMENT_BACKEND must be fs or gridfs, got %q", c.Registration.AttachmentBackend)
	}
	if c.Admin.TokenHash != "" {
		if err := secrets.ValidateHash(c.Admin.TokenHash); err != nil {
			return fmt.Errorf("ADMIN_TOKEN_HASH: %w", err)
		}
	}
	if c.Environment == "production" && (c.Gateway.KeyID == "" || c.Gateway.KeySecret == "") {
		return errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required in production")
	}
	return nil
}

// reader collects the first parse error so Load can report it once.
type reader struct {
	err error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return b
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}
