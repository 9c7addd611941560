package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreDriverFile     = "file"
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	AppPort string
	AppEnv  string
	AppURL  string

	PaystackSecretKey string
	PaystackBaseURL   string

	DefaultCurrency  string
	PhoneCountryCode string

	StoreDriver string
	StorePath   string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	CORSAllowedOrigins []string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	port := getenv("APP_PORT", getenv("PORT", "4000"))

	cfg := &Config{
		AppPort:            port,
		AppEnv:             getenv("APP_ENV", "development"),
		AppURL:             strings.TrimRight(getenv("APP_URL", "http://localhost:"+port), "/"),
		PaystackSecretKey:  strings.TrimSpace(os.Getenv("PAYSTACK_SECRET_KEY")),
		PaystackBaseURL:    strings.TrimRight(getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"), "/"),
		DefaultCurrency:    strings.ToUpper(getenv("DEFAULT_CURRENCY", "KES")),
		PhoneCountryCode:   getenv("PHONE_COUNTRY_CODE", "254"),
		StoreDriver:        strings.ToLower(getenv("STORE_DRIVER", StoreDriverFile)),
		StorePath:          getenv("STORE_PATH", defaultStorePath()),
		DBHost:             os.Getenv("DB_HOST"),
		DBUser:             os.Getenv("DB_USER"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBName:             os.Getenv("DB_NAME"),
		DBPort:             getenv("DB_PORT", "5432"),
		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
	}

	return cfg
}

// IsServerless reports whether the process runs on a platform whose code
// directory is read-only and only /tmp is writable.
func IsServerless() bool {
	return os.Getenv("VERCEL") != "" ||
		os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" ||
		os.Getenv("NOW_REGION") != ""
}

func defaultStorePath() string {
	if IsServerless() {
		return "/tmp/invoices.json"
	}
	return filepath.Join("data", "invoices.json")
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
