package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr          string
	RequestTimeout    time.Duration
	LogLevel          string
	LogFormat         string
	UserAgent         string
	ResultLimit       int
	ProviderRPS       float64
	PirateBayEndpoint string
	RarbgEndpoint     string
	RarbgAppID        string
	YTSEndpoint       string
	OMDBAPIKey        string
	OMDBBaseURL       string
	KinopoiskAPIKey   string
	KinopoiskBaseURL  string
	DatabaseURL       string
	RedisURL          string
	TranslationTTL    time.Duration
	RetryAttempts     int
	RetryInitialDelay time.Duration
	HTTPRateLimit     float64
	HTTPRateBurst     int
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8090"),
		RequestTimeout:    time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 15)) * time.Second,
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:         getEnv("SEARCH_USER_AGENT", "moviestream-search/1.0"),
		ResultLimit:       getEnvInt("SEARCH_RESULT_LIMIT", 20),
		ProviderRPS:       getEnvFloat("SEARCH_PROVIDER_RPS", 0),
		PirateBayEndpoint: getEnv("SEARCH_PROVIDER_PIRATEBAY_ENDPOINT", "https://apibay.org/q.php"),
		RarbgEndpoint:     getEnv("SEARCH_PROVIDER_RARBG_ENDPOINT", "https://torrentapi.org/pubapi_v2.php"),
		RarbgAppID:        getEnv("SEARCH_PROVIDER_RARBG_APP_ID", "moviestream"),
		YTSEndpoint:       getEnv("SEARCH_PROVIDER_YTS_ENDPOINT", "https://yts.mx/api/v2/list_movies.json"),
		OMDBAPIKey:        strings.TrimSpace(os.Getenv("OMDB_API_KEY")),
		OMDBBaseURL:       getEnv("OMDB_BASE_URL", "https://www.omdbapi.com/"),
		KinopoiskAPIKey:   strings.TrimSpace(os.Getenv("KINOPOISK_API_KEY")),
		KinopoiskBaseURL:  getEnv("KINOPOISK_BASE_URL", "https://kinopoiskapiunofficial.tech/api/v2.2"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		TranslationTTL:    time.Duration(getEnvInt("TRANSLATION_CACHE_TTL_DAYS", 7)) * 24 * time.Hour,
		RetryAttempts:     getEnvInt("SEARCH_RETRY_ATTEMPTS", 3),
		RetryInitialDelay: time.Duration(getEnvInt("SEARCH_RETRY_INITIAL_MS", 500)) * time.Millisecond,
		HTTPRateLimit:     getEnvFloat("HTTP_RATE_LIMIT", 10),
		HTTPRateBurst:     getEnvInt("HTTP_RATE_BURST", 20),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
