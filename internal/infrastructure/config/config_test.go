package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// managedEnv lists every variable the tests touch; each test starts with all of them empty
var managedEnv = []string{
	"SHOP_APP_NAME", "SHOP_APP_ENV", "SHOP_APP_PORT",
	"SHOP_DATABASE_HOST", "SHOP_DATABASE_PORT", "SHOP_DATABASE_USER", "SHOP_DATABASE_PASSWORD",
	"SHOP_DATABASE_DBNAME", "SHOP_DATABASE_SSLMODE", "SHOP_DATABASE_MAX_OPEN_CONNS", "SHOP_DATABASE_MAX_IDLE_CONNS",
	"SHOP_JWT_SECRET", "SHOP_SWAGGER_ENABLED",
	"SHOP_PAYMENT_PROVIDER", "SHOP_PAYMENT_BASE_URL", "SHOP_PAYMENT_CLIENT_ID", "SHOP_PAYMENT_CLIENT_SECRET",
	"SHOP_NOTIFICATION_DRIVER", "SHOP_NOTIFICATION_KAFKA_BROKERS", "SHOP_NOTIFICATION_RABBIT_URL",
	"SHOP_ORDER_PENDING_TTL", "SHOP_ORDER_RESERVATION_ENABLED", "SHOP_ORDER_REAPER_ENABLED", "SHOP_ORDER_CLOSED_WEEKDAYS", "SHOP_ORDER_TIME_ZONE",
	"SHOP_CART_MERGE_BUCKET", "SHOP_CART_GUEST_STORE", "SHOP_MONGO_URI",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedEnv {
		t.Setenv(k, "")
	}
	t.Setenv("SHOP_JWT_SECRET", "dev-secret")
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shop-api", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "shop", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.Equal(t, 30*time.Minute, cfg.Order.PendingTTL)
		assert.True(t, cfg.Order.ReservationEnabled)
		assert.True(t, cfg.Order.ReaperEnabled)
		assert.Equal(t, 2, cfg.Order.MinLeadDays)
		assert.Equal(t, []string{"sunday"}, cfg.Order.ClosedWeekdays)
		assert.Len(t, cfg.Order.TimeSlots, 4)
		assert.Equal(t, 10*time.Minute, cfg.Cart.MergeBucket)
		assert.Equal(t, "redis", cfg.Cart.GuestStore)
		assert.Equal(t, "sandbox", cfg.Payment.Provider)
		assert.Equal(t, "log", cfg.Notification.Driver)
		assert.Equal(t, "order-notifications", cfg.Notification.KafkaTopic)
		assert.Equal(t, "orders", cfg.Notification.RabbitExchange)
	})

	t.Run("loads values from environment variables with SHOP prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_APP_NAME", "test-app")
		t.Setenv("SHOP_APP_PORT", "9000")
		t.Setenv("SHOP_DATABASE_HOST", "testdb.local")
		t.Setenv("SHOP_DATABASE_PORT", "5433")
		t.Setenv("SHOP_DATABASE_PASSWORD", "testpass")
		t.Setenv("SHOP_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("SHOP_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("SHOP_ORDER_PENDING_TTL", "45m")
		t.Setenv("SHOP_ORDER_RESERVATION_ENABLED", "false")
		t.Setenv("SHOP_ORDER_REAPER_ENABLED", "false")
		t.Setenv("SHOP_CART_MERGE_BUCKET", "5m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 45*time.Minute, cfg.Order.PendingTTL)
		assert.False(t, cfg.Order.ReservationEnabled)
		assert.False(t, cfg.Order.ReaperEnabled)
		assert.Equal(t, 5*time.Minute, cfg.Cart.MergeBucket)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("SHOP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("jwt secret is always required", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required")
	})

	t.Run("paypal provider needs credentials", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_PAYMENT_PROVIDER", "paypal")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payment.client_id")
	})

	t.Run("unknown payment provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_PAYMENT_PROVIDER", "cash")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payment.provider")
	})

	t.Run("kafka driver needs brokers", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_NOTIFICATION_DRIVER", "kafka")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kafka_brokers")

		t.Setenv("SHOP_NOTIFICATION_KAFKA_BROKERS", "kafka-1:9092 kafka-2:9092")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Notification.KafkaBrokers)
	})

	t.Run("rabbitmq driver needs a url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_NOTIFICATION_DRIVER", "rabbitmq")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbit_url")
	})

	t.Run("mongo guest store needs a uri", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_CART_GUEST_STORE", "mongo")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mongo.uri")
	})

	t.Run("rejects unknown closed weekday", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_ORDER_CLOSED_WEEKDAYS", "caturday")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "caturday")
	})

	t.Run("rejects unknown time zone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_ORDER_TIME_ZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "order.time_zone")
	})
}

func TestOrderConfig_Weekdays(t *testing.T) {
	days, err := OrderConfig{ClosedWeekdays: []string{"Sunday", " saturday "}}.Weekdays()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, days)

	days, err = OrderConfig{}.Weekdays()
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_APP_ENV", "production")
		t.Setenv("SHOP_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("SHOP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("SHOP_DATABASE_SSLMODE", "require")
		t.Setenv("SHOP_PAYMENT_PROVIDER", "paypal")
		t.Setenv("SHOP_PAYMENT_BASE_URL", "https://api-m.paypal.com")
		t.Setenv("SHOP_PAYMENT_CLIENT_ID", "client")
		t.Setenv("SHOP_PAYMENT_CLIENT_SECRET", "secret")
		t.Setenv("SHOP_SWAGGER_ENABLED", "false")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("sandbox gateway is refused in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_PAYMENT_PROVIDER", "sandbox")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sandbox")
	})

	t.Run("swagger is refused in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
