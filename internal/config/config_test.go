package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		// t.Setenv restores the previous value once the test finishes.
		t.Setenv("APP_PORT", "8080")
		t.Setenv("APP_ENV", "test")
		t.Setenv("APP_URL", "https://pay.example.com/")
		t.Setenv("PAYSTACK_SECRET_KEY", " sk_test_abc ")
		t.Setenv("DEFAULT_CURRENCY", "ngn")
		t.Setenv("STORE_DRIVER", "Postgres")
		t.Setenv("STORE_PATH", "/var/lib/paygate/invoices.json")
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5433")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "https://pay.example.com", cfg.AppURL)
		assert.Equal(t, "sk_test_abc", cfg.PaystackSecretKey)
		assert.Equal(t, "NGN", cfg.DefaultCurrency)
		assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
		assert.Equal(t, "/var/lib/paygate/invoices.json", cfg.StorePath)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5433", cfg.DBPort)
		assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSAllowedOrigins)
	})

	t.Run("Defaults", func(t *testing.T) {
		for _, key := range []string{
			"APP_PORT", "PORT", "APP_URL", "PAYSTACK_BASE_URL", "DEFAULT_CURRENCY",
			"PHONE_COUNTRY_CODE", "STORE_DRIVER", "STORE_PATH", "VERCEL",
			"AWS_LAMBDA_FUNCTION_NAME", "NOW_REGION",
		} {
			t.Setenv(key, "")
		}

		cfg := LoadConfig()

		assert.Equal(t, "4000", cfg.AppPort)
		assert.Equal(t, "http://localhost:4000", cfg.AppURL)
		assert.Equal(t, "https://api.paystack.co", cfg.PaystackBaseURL)
		assert.Equal(t, "KES", cfg.DefaultCurrency)
		assert.Equal(t, "254", cfg.PhoneCountryCode)
		assert.Equal(t, StoreDriverFile, cfg.StoreDriver)
		assert.Equal(t, "data/invoices.json", cfg.StorePath)
	})

	t.Run("Serverless store path", func(t *testing.T) {
		t.Setenv("STORE_PATH", "")
		t.Setenv("VERCEL", "1")

		cfg := LoadConfig()

		assert.True(t, IsServerless())
		assert.Equal(t, "/tmp/invoices.json", cfg.StorePath)
	})
}
