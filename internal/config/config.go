package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Environment    string
	AppId          string
	MongoURI       string
	DBName         string
	JWTSecret      string
	SkipAuth       bool
	AllowedOrigins string

	Google GoogleCalendarConfig

	// Query cache freshness, mirrors the dashboard refresh interval
	QueryCacheTTL time.Duration

	ReportingDriver   string // "postgres", "mysql" or empty when disabled
	ReportingDSN      string
	ReportingSchedule string

	FunnelBackfillSchedule string
	ChannelRenewalSchedule string
}

type GoogleCalendarConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	WebhookURL   string
	CalendarID   string
	TimeZone     string
	APIURL       string // optional endpoint override, used against stub servers
	TokenURL     string // optional OAuth token endpoint override

	AuthorizationTimeout time.Duration
	RefreshWindow        time.Duration
	InboundWindow        time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AppId:          getEnv("APP_ID", "crm-imobiliario"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:         getEnv("DB_NAME", "crm_imobiliario"),
		JWTSecret:      getEnv("JWT_SECRET", "secret"),
		SkipAuth:       getEnv("SKIP_AUTH", "false") == "true",
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:5173, http://localhost:3000"),
		Google: GoogleCalendarConfig{
			ClientID:             getEnv("GOOGLE_CALENDAR_CLIENT_ID", ""),
			ClientSecret:         getEnv("GOOGLE_CALENDAR_CLIENT_SECRET", ""),
			RedirectURL:          getEnv("GOOGLE_CALENDAR_REDIRECT_URL", "http://localhost:8080/google-calendar-callback"),
			WebhookURL:           getEnv("GOOGLE_CALENDAR_WEBHOOK_URL", ""),
			CalendarID:           getEnv("GOOGLE_CALENDAR_ID", "primary"),
			TimeZone:             getEnv("CALENDAR_TIMEZONE", "America/Sao_Paulo"),
			APIURL:               getEnv("GOOGLE_CALENDAR_API_URL", ""),
			TokenURL:             getEnv("GOOGLE_OAUTH_TOKEN_URL", ""),
			AuthorizationTimeout: getDuration("CALENDAR_AUTH_TIMEOUT", 5*time.Minute),
			RefreshWindow:        getDuration("TOKEN_REFRESH_WINDOW", 5*time.Minute),
			InboundWindow:        getDuration("INBOUND_SYNC_WINDOW", 24*time.Hour),
		},
		QueryCacheTTL:          getDuration("QUERY_CACHE_TTL", time.Minute),
		ReportingDriver:        strings.ToLower(getEnv("REPORTING_DB_DRIVER", "")),
		ReportingDSN:           getEnv("REPORTING_DB_DSN", ""),
		ReportingSchedule:      getEnv("REPORTING_SCHEDULE", "@every 1h"),
		FunnelBackfillSchedule: getEnv("FUNNEL_BACKFILL_SCHEDULE", "0 3 * * *"),
		ChannelRenewalSchedule: getEnv("CHANNEL_RENEWAL_SCHEDULE", "@every 1h"),
	}, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, value, fallback)
		return fallback
	}
	return d
}
