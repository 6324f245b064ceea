package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	Checkout      CheckoutConfig
	FeatureFlags  FeatureFlagsConfig
	Tracking      TrackingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Square        SquareConfig
	Email         EmailConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPVITE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPVITE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPVITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPVITE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHOPVITE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPVITE_DB_DSN"`
	Driver string `envconfig:"SHOPVITE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SHOPVITE_DB_HOST"`
	Port     int    `envconfig:"SHOPVITE_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPVITE_DB_USER"`
	Password string `envconfig:"SHOPVITE_DB_PASSWORD"`
	Name     string `envconfig:"SHOPVITE_DB_NAME"`
	SSLMode  string `envconfig:"SHOPVITE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPVITE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPVITE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPVITE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPVITE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPVITE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPVITE_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPVITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPVITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPVITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPVITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPVITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPVITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPVITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SHOPVITE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SHOPVITE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SHOPVITE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SHOPVITE_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPVITE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPVITE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPVITE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPVITE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPVITE_ARGON_KEY_LEN" default:"32"`
}

type PasswordResetConfig struct {
	TokenTTL time.Duration `envconfig:"SHOPVITE_PASSWORD_RESET_TOKEN_TTL" default:"10m"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOPVITE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SHOPVITE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SHOPVITE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SHOPVITE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SHOPVITE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SHOPVITE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SHOPVITE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type CheckoutConfig struct {
	FlatShippingCents    int `envconfig:"SHOPVITE_CHECKOUT_FLAT_SHIPPING_CENTS" default:"500"`
	FreeShippingMinCents int `envconfig:"SHOPVITE_CHECKOUT_FREE_SHIPPING_MIN_CENTS" default:"5000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHOPVITE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHOPVITE_AUTO_MIGRATE" default:"false"`
}

type TrackingConfig struct {
	HandshakeTimeout time.Duration `envconfig:"SHOPVITE_TRACKING_HANDSHAKE_TIMEOUT" default:"10s"`
	WriteTimeout     time.Duration `envconfig:"SHOPVITE_TRACKING_WRITE_TIMEOUT" default:"10s"`
	PongTimeout      time.Duration `envconfig:"SHOPVITE_TRACKING_PONG_TIMEOUT" default:"60s"`
	PingInterval     time.Duration `envconfig:"SHOPVITE_TRACKING_PING_INTERVAL" default:"25s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SHOPVITE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SHOPVITE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SHOPVITE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"SHOPVITE_PUBSUB_ORDERS_TOPIC" default:"sv-order-events"`
	OrdersSubscription       string `envconfig:"SHOPVITE_PUBSUB_ORDERS_SUBSCRIPTION" default:"sv-order-events-worker"`
	NotificationTopic        string `envconfig:"SHOPVITE_PUBSUB_NOTIFICATION_TOPIC" default:"sv-notification-events"`
	NotificationSubscription string `envconfig:"SHOPVITE_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"sv-notification-events-worker"`
	AnalyticsTopic           string `envconfig:"SHOPVITE_PUBSUB_ANALYTICS_TOPIC" default:"sv-analytics-events"`
	AnalyticsSubscription    string `envconfig:"SHOPVITE_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"sv-analytics-events-worker"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"SHOPVITE_BIGQUERY_DATASET" default:"shopvite"`
	OrderEventsTable string `envconfig:"SHOPVITE_BIGQUERY_ORDER_EVENTS_TABLE" default:"order_events"`
}

type SquareConfig struct {
	AccessToken            string `envconfig:"SHOPVITE_SQUARE_ACCESS_TOKEN"`
	LocationID             string `envconfig:"SHOPVITE_SQUARE_LOCATION_ID"`
	Environment            string `envconfig:"SHOPVITE_SQUARE_ENV" default:"sandbox"`
	WebhookSignatureKey    string `envconfig:"SHOPVITE_SQUARE_WEBHOOK_SIGNATURE_KEY"`
	WebhookNotificationURL string `envconfig:"SHOPVITE_SQUARE_WEBHOOK_NOTIFICATION_URL"`
}

type EmailConfig struct {
	DefaultFrom string `envconfig:"SHOPVITE_EMAIL_FROM" default:"no-reply@shopvite.dev"`
	MaxRetries  int    `envconfig:"SHOPVITE_EMAIL_MAX_RETRIES" default:"5"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPVITE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPVITE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPVITE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	discreteValues := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if discreteValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
