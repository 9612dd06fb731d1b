package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	DBDriver    string // postgres (default) or sqlite
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	SQLitePath  string
	// Supabase JWT secret; staff tokens are signed with it too
	JWTSecret             string
	AccessTokenTTLMinutes string
	AdminEmail            string
	AdminPassword         string
	AdminFullName         string
	SiteURL               string
	SiteName              string
	// Repliers MLS
	RepliersAPIURL string
	RepliersAPIKey string
	RepliersCDNURL string
	// Follow Up Boss
	FUBAPIURL                 string
	FUBAPIKey                 string
	FUBSystem                 string
	FUBWebhookSecret          string
	CRMSignatureWindowSeconds string
	ListingWebhookSecret      string
	// Transactional email
	EmailAPIURL string
	EmailAPIKey string
	EmailFrom   string
	AgentEmail  string
	// Generative AI
	GeminiAPIKey string
	GeminiModel  string
	// Public endpoint throttling
	RateLimitRequests      string
	RateLimitWindowSeconds string
	FeedMaxPages           string
	LogLevel               string
	LogFormat              string
}

func Load() *Config {
	return &Config{
		Port:                      getenv("PORT", "8080"),
		DBDriver:                  strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DatabaseURL:               getenv("DATABASE_URL", ""),
		DBHost:                    getenv("DB_HOST", "localhost"),
		DBPort:                    getenv("DB_PORT", "5432"),
		DBUser:                    getenv("DB_USER", "postgres"),
		DBPassword:                getenv("DB_PASSWORD", "postgres"),
		DBName:                    getenv("DB_NAME", "realty_db"),
		DBSSLMode:                 getenv("DB_SSLMODE", "disable"),
		SQLitePath:                getenv("SQLITE_PATH", "realty.db"),
		JWTSecret:                 getenv("JWT_SECRET", "supersecret_change_me"),
		AccessTokenTTLMinutes:     getenv("ACCESS_TOKEN_TTL_MINUTES", "60"),
		AdminEmail:                getenv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:             getenv("ADMIN_PASSWORD", "admin123"),
		AdminFullName:             getenv("ADMIN_FULL_NAME", "Administrator"),
		SiteURL:                   strings.TrimRight(getenv("SITE_URL", "http://localhost:3000"), "/"),
		SiteName:                  getenv("SITE_NAME", "Realty"),
		RepliersAPIURL:            strings.TrimRight(getenv("REPLIERS_API_URL", "https://api.repliers.io"), "/"),
		RepliersAPIKey:            getenv("REPLIERS_API_KEY", ""),
		RepliersCDNURL:            strings.TrimRight(getenv("REPLIERS_CDN_URL", "https://cdn.repliers.io"), "/"),
		FUBAPIURL:                 strings.TrimRight(getenv("FUB_API_URL", "https://api.followupboss.com"), "/"),
		FUBAPIKey:                 getenv("FUB_API_KEY", ""),
		FUBSystem:                 getenv("FUB_SYSTEM", "realty-site"),
		FUBWebhookSecret:          getenv("FUB_WEBHOOK_SECRET", ""),
		CRMSignatureWindowSeconds: getenv("CRM_SIGNATURE_WINDOW_SECONDS", "300"),
		ListingWebhookSecret:      getenv("LISTING_WEBHOOK_SECRET", ""),
		EmailAPIURL:               getenv("EMAIL_API_URL", "https://api.resend.com/emails"),
		EmailAPIKey:               getenv("EMAIL_API_KEY", ""),
		EmailFrom:                 getenv("EMAIL_FROM", "listings@example.com"),
		AgentEmail:                getenv("AGENT_EMAIL", ""),
		GeminiAPIKey:              getenv("GEMINI_API_KEY", ""),
		GeminiModel:               getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		RateLimitRequests:         getenv("RATE_LIMIT_REQUESTS", "10"),
		RateLimitWindowSeconds:    getenv("RATE_LIMIT_WINDOW_SECONDS", "60"),
		FeedMaxPages:              getenv("FEED_MAX_PAGES", "20"),
		LogLevel:                  getenv("LOG_LEVEL", "info"),
		LogFormat:                 getenv("LOG_FORMAT", "json"),
	}
}

// AccessTTL falls back to one hour when the setting is missing or not a positive number.
func (c *Config) AccessTTL() time.Duration {
	return minutes(c.AccessTokenTTLMinutes, 60*time.Minute)
}

func (c *Config) CRMSignatureWindow() time.Duration {
	return seconds(c.CRMSignatureWindowSeconds, 5*time.Minute)
}

func (c *Config) RateLimitWindow() time.Duration {
	return seconds(c.RateLimitWindowSeconds, time.Minute)
}

func (c *Config) RateLimit() int {
	return positiveInt(c.RateLimitRequests, 10)
}

func (c *Config) FeedPages() int {
	return positiveInt(c.FeedMaxPages, 20)
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func minutes(v string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v) + "m")
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func seconds(v string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v) + "s")
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func positiveInt(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
