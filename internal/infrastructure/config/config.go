package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Mongo        MongoConfig
	JWT          JWTConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Payment      PaymentConfig
	Notification NotificationConfig
	Order        OrderConfig
	Cart         CartConfig
	Swagger      SwaggerConfig
	Telemetry    TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int  // in minutes
	ConnMaxIdleTime int  // in minutes
	AutoMigrate     bool // apply the embedded schema migrations at startup
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// MongoConfig holds MongoDB settings for guest cart storage
type MongoConfig struct {
	URI             string
	Database        string
	GuestCollection string
	ConnectTimeout  time.Duration
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// PaymentConfig selects and configures the payment gateway
type PaymentConfig struct {
	Provider     string // sandbox, paypal
	BaseURL      string // e.g. https://api-m.sandbox.paypal.com
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	ReturnURL    string // default approval return URL
	CancelURL    string // default approval cancel URL
	// Circuit breaker around gateway calls
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// NotificationConfig selects where order notifications are published
type NotificationConfig struct {
	Driver         string // log, kafka, rabbitmq
	KafkaBrokers   []string
	KafkaTopic     string
	RabbitURL      string
	RabbitExchange string
}

// OrderConfig tunes checkout, capture and the pending order reaper
type OrderConfig struct {
	PendingTTL         time.Duration
	ReservationEnabled bool
	Currency           string
	ReaperEnabled      bool
	ReapInterval       time.Duration
	ReapBatchSize      int
	MinLeadDays        int
	TimeSlots          []string
	ClosedWeekdays     []string // e.g. ["sunday"]
	TimeZone           string   // IANA name used to decide "today"
}

// CartConfig tunes the cart merge guard and cart storage
type CartConfig struct {
	MergeBucket time.Duration // width of the merge idempotency time bucket
	MergeKeyTTL time.Duration
	CacheTTL    time.Duration
	GuestTTL    time.Duration
	GuestStore  string // redis, mongo, memory
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SHOP_ prefix (e.g., SHOP_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true cannot be told apart from "unset" later
	v.SetDefault("order.reservation_enabled", true)
	v.SetDefault("order.reaper_enabled", true)
	v.SetDefault("http.rate_limit_enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Mongo: MongoConfig{
			URI:             v.GetString("mongo.uri"),
			Database:        v.GetString("mongo.database"),
			GuestCollection: v.GetString("mongo.guest_collection"),
			ConnectTimeout:  v.GetDuration("mongo.connect_timeout"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Payment: PaymentConfig{
			Provider:           v.GetString("payment.provider"),
			BaseURL:            v.GetString("payment.base_url"),
			ClientID:           v.GetString("payment.client_id"),
			ClientSecret:       v.GetString("payment.client_secret"),
			Timeout:            v.GetDuration("payment.timeout"),
			ReturnURL:          v.GetString("payment.return_url"),
			CancelURL:          v.GetString("payment.cancel_url"),
			BreakerMaxFailures: v.GetUint32("payment.breaker_max_failures"),
			BreakerOpenTimeout: v.GetDuration("payment.breaker_open_timeout"),
		},
		Notification: NotificationConfig{
			Driver:         v.GetString("notification.driver"),
			KafkaBrokers:   v.GetStringSlice("notification.kafka_brokers"),
			KafkaTopic:     v.GetString("notification.kafka_topic"),
			RabbitURL:      v.GetString("notification.rabbit_url"),
			RabbitExchange: v.GetString("notification.rabbit_exchange"),
		},
		Order: OrderConfig{
			PendingTTL:         v.GetDuration("order.pending_ttl"),
			ReservationEnabled: v.GetBool("order.reservation_enabled"),
			Currency:           v.GetString("order.currency"),
			ReaperEnabled:      v.GetBool("order.reaper_enabled"),
			ReapInterval:       v.GetDuration("order.reap_interval"),
			ReapBatchSize:      v.GetInt("order.reap_batch_size"),
			MinLeadDays:        v.GetInt("order.min_lead_days"),
			TimeSlots:          v.GetStringSlice("order.time_slots"),
			ClosedWeekdays:     v.GetStringSlice("order.closed_weekdays"),
			TimeZone:           v.GetString("order.time_zone"),
		},
		Cart: CartConfig{
			MergeBucket: v.GetDuration("cart.merge_bucket"),
			MergeKeyTTL: v.GetDuration("cart.merge_key_ttl"),
			CacheTTL:    v.GetDuration("cart.cache_ttl"),
			GuestTTL:    v.GetDuration("cart.guest_ttl"),
			GuestStore:  v.GetString("cart.guest_store"),
		},
		Swagger: SwaggerConfig{
			Enabled: v.GetBool("swagger.enabled"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shop-api"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "shop"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "shop"
	}
	if cfg.Mongo.GuestCollection == "" {
		cfg.Mongo.GuestCollection = "guest_carts"
	}
	if cfg.Mongo.ConnectTimeout == 0 {
		cfg.Mongo.ConnectTimeout = 10 * time.Second
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "shop-api"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// An empty origin list means no cross-origin requests until configured
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Guest-Token"}
	}
	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "sandbox"
	}
	if cfg.Payment.Timeout == 0 {
		cfg.Payment.Timeout = 10 * time.Second
	}
	if cfg.Payment.BreakerMaxFailures == 0 {
		cfg.Payment.BreakerMaxFailures = 5
	}
	if cfg.Payment.BreakerOpenTimeout == 0 {
		cfg.Payment.BreakerOpenTimeout = 30 * time.Second
	}
	if cfg.Notification.Driver == "" {
		cfg.Notification.Driver = "log"
	}
	if cfg.Notification.KafkaTopic == "" {
		cfg.Notification.KafkaTopic = "order-notifications"
	}
	if cfg.Notification.RabbitExchange == "" {
		cfg.Notification.RabbitExchange = "orders"
	}
	if cfg.Order.PendingTTL == 0 {
		cfg.Order.PendingTTL = 30 * time.Minute
	}
	if cfg.Order.Currency == "" {
		cfg.Order.Currency = "USD"
	}
	if cfg.Order.ReapInterval == 0 {
		cfg.Order.ReapInterval = time.Minute
	}
	if cfg.Order.ReapBatchSize == 0 {
		cfg.Order.ReapBatchSize = 100
	}
	if cfg.Order.MinLeadDays == 0 {
		cfg.Order.MinLeadDays = 2
	}
	if len(cfg.Order.TimeSlots) == 0 {
		cfg.Order.TimeSlots = []string{"09:00-12:00", "12:00-15:00", "15:00-18:00", "18:00-21:00"}
	}
	if len(cfg.Order.ClosedWeekdays) == 0 {
		cfg.Order.ClosedWeekdays = []string{"sunday"}
	}
	if cfg.Order.TimeZone == "" {
		cfg.Order.TimeZone = "UTC"
	}
	if cfg.Cart.MergeBucket == 0 {
		cfg.Cart.MergeBucket = 10 * time.Minute
	}
	if cfg.Cart.MergeKeyTTL == 0 {
		cfg.Cart.MergeKeyTTL = 24 * time.Hour
	}
	if cfg.Cart.CacheTTL == 0 {
		cfg.Cart.CacheTTL = 15 * time.Minute
	}
	if cfg.Cart.GuestTTL == 0 {
		cfg.Cart.GuestTTL = 7 * 24 * time.Hour
	}
	if cfg.Cart.GuestStore == "" {
		cfg.Cart.GuestStore = "redis"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "shop-api"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Payment.Provider {
	case "sandbox":
	case "paypal":
		if c.Payment.BaseURL == "" || c.Payment.ClientID == "" || c.Payment.ClientSecret == "" {
			return fmt.Errorf("payment.base_url, payment.client_id and payment.client_secret are required for the paypal provider")
		}
	default:
		return fmt.Errorf("payment.provider must be sandbox or paypal, got %q", c.Payment.Provider)
	}

	switch c.Notification.Driver {
	case "log":
	case "kafka":
		if len(c.Notification.KafkaBrokers) == 0 {
			return fmt.Errorf("notification.kafka_brokers is required for the kafka driver")
		}
	case "rabbitmq":
		if c.Notification.RabbitURL == "" {
			return fmt.Errorf("notification.rabbit_url is required for the rabbitmq driver")
		}
	default:
		return fmt.Errorf("notification.driver must be log, kafka or rabbitmq, got %q", c.Notification.Driver)
	}

	switch c.Cart.GuestStore {
	case "redis", "memory":
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required when cart.guest_store is mongo")
		}
	default:
		return fmt.Errorf("cart.guest_store must be redis, mongo or memory, got %q", c.Cart.GuestStore)
	}

	if c.Order.MinLeadDays < 0 {
		return fmt.Errorf("order.min_lead_days cannot be negative")
	}
	if _, err := c.Order.Weekdays(); err != nil {
		return err
	}
	if _, err := c.Order.Location(); err != nil {
		return err
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Payment.Provider == "sandbox" {
			return fmt.Errorf("payment.provider cannot be sandbox in production")
		}
		if c.Swagger.Enabled {
			return fmt.Errorf("swagger must be disabled in production")
		}
	} else if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Weekdays parses ClosedWeekdays
func (o OrderConfig) Weekdays() ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(o.ClosedWeekdays))
	for _, name := range o.ClosedWeekdays {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("order.closed_weekdays: unknown weekday %q", name)
		}
		out = append(out, d)
	}
	return out, nil
}

// Location loads TimeZone
func (o OrderConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("order.time_zone: %w", err)
	}
	return loc, nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
