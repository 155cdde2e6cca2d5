package config

import "time"

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	PlatformServingIP  string
	VerificationTTL    time.Duration
	HTMLFetchTimeout   time.Duration
	DNSLookupTimeout   time.Duration
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":4000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://dealersite:dealersite@db:5432/dealersite?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "./db/migrations"),
		JWTSecret:          GetString("JWT_SECRET", "supersecuresecret"),
		AccessTokenTTL:     time.Duration(GetInt("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
		RefreshTokenTTL:    time.Duration(GetInt("REFRESH_TOKEN_TTL_HOURS", 24)) * time.Hour,
		PlatformServingIP:  GetString("PLATFORM_SERVING_IP", "76.76.21.21"),
		VerificationTTL:    time.Duration(GetInt("VERIFICATION_TTL_HOURS", 24)) * time.Hour,
		HTMLFetchTimeout:   time.Duration(GetInt("HTML_FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		DNSLookupTimeout:   time.Duration(GetInt("DNS_LOOKUP_TIMEOUT_SECONDS", 5)) * time.Second,
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
