package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: scan history persistence)
	Database DatabaseConfig

	// Redis (optional: cache, token persistence, shared rate limit)
	Redis RedisConfig

	// Data sources
	KIS   KISConfig
	Yahoo YahooConfig
	Naver NaverConfig

	// Scanner
	Scan ScanConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// KISConfig holds KIS (한국투자증권) API configuration
type KISConfig struct {
	AppKey    string
	AppSecret string
	BaseURL   string
}

// HasCredentials reports whether both app key and secret are set
func (k KISConfig) HasCredentials() bool {
	return k.AppKey != "" && k.AppSecret != ""
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL      string
	SymbolSuffix string // KOSPI = .KS, KOSDAQ = .KQ
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL  string // HTML pages (현재가 스크래핑)
	ChartURL string // fchart siseJson (일봉)
}

// ScanConfig holds scanner settings
type ScanConfig struct {
	Source       string        // kis, yahoo, naver
	RequestDelay   time.Duration // 종목 간 대기 (API 호출 제한 방지)
	RequestTimeout time.Duration // 외부 API 요청 1건 제한 시간
	LookbackDays   int
	Schedule       string // cron (with seconds)
	PresetsFile    string
	CacheTTL       time.Duration
}

// Supported scan sources
const (
	SourceKIS   = "kis"
	SourceYahoo = "yahoo"
	SourceNaver = "naver"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		KIS: KISConfig{
			AppKey:    getEnv("KIS_APP_KEY", ""),
			AppSecret: getEnv("KIS_APP_SECRET", ""),
			BaseURL:   getEnv("KIS_BASE_URL", "https://openapi.koreainvestment.com:9443"),
		},

		Yahoo: YahooConfig{
			BaseURL:      getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com/v8/finance"),
			SymbolSuffix: getEnv("YAHOO_SYMBOL_SUFFIX", ".KS"),
		},

		Naver: NaverConfig{
			BaseURL:  getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartURL: getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
		},

		Scan: ScanConfig{
			Source:         getEnv("SCAN_SOURCE", SourceYahoo),
			RequestDelay:   getEnvAsDuration("SCAN_REQUEST_DELAY", "200ms"),
			RequestTimeout: getEnvAsDuration("SCAN_REQUEST_TIMEOUT", "10s"),
			LookbackDays:   getEnvAsInt("SCAN_LOOKBACK_DAYS", 30),
			Schedule:       getEnv("SCAN_SCHEDULE", "0 */10 9-15 * * MON-FRI"),
			PresetsFile:    getEnv("SCAN_PRESETS_FILE", ""),
			CacheTTL:       getEnvAsDuration("SCAN_CACHE_TTL", "10m"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
// KIS 키 누락은 여기서 막지 않음: 스캔 요청 시점의 설정 오류로 보고
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Scan.Source {
	case SourceKIS, SourceYahoo, SourceNaver:
	default:
		return fmt.Errorf("SCAN_SOURCE must be one of: kis, yahoo, naver (got %q)", c.Scan.Source)
	}

	if c.Scan.LookbackDays <= 0 {
		return fmt.Errorf("SCAN_LOOKBACK_DAYS must be positive")
	}

	if c.Scan.RequestDelay < 0 {
		return fmt.Errorf("SCAN_REQUEST_DELAY must not be negative")
	}

	if c.Scan.RequestTimeout <= 0 {
		return fmt.Errorf("SCAN_REQUEST_TIMEOUT must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
