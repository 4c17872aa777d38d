package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrConfiguration marks a missing or invalid required setting.
// 스캔 시작 전에 즉시 실패해야 하는 오류
var ErrConfiguration = errors.New("configuration error")

// Config holds all configuration for the screener
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Data sources
	DART    DARTConfig
	FnGuide FnGuideConfig
	Naver   NaverConfig
	KRX     KRXConfig

	// Optional infrastructure
	Database DatabaseConfig
	Redis    RedisConfig

	// Pipeline
	Scan     ScanConfig
	Telegram TelegramConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DARTConfig holds OpenDART (전자공시) API configuration
type DARTConfig struct {
	APIKey    string
	BaseURL   string
	RateLimit int // requests per second
}

// FnGuideConfig holds the fundamentals page source configuration
type FnGuideConfig struct {
	BaseURL   string
	RateLimit int
}

// NaverConfig holds Naver Finance configuration (listing + daily prices)
type NaverConfig struct {
	BaseURL      string
	StockBaseURL string
}

// KRXConfig holds KRX data portal configuration (sector classification)
type KRXConfig struct {
	BaseURL      string
	LookbackDays int // 휴장일 대비 최근 N일 재시도
}

// DatabaseConfig holds the optional PostgreSQL universe source
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds the optional snapshot cache
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// ScanConfig holds worker pool and pipeline defaults
type ScanConfig struct {
	LiteWorkers        int
	FullWorkers        int
	TimingWorkers      int
	TopN               int
	FinalMinScore      int
	TimingMinFScore    int
	CheckpointInterval int
	TaskTimeout        time.Duration
	OutputDir          string
	UniverseFile       string
}

// TelegramConfig holds notification delivery credentials
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		DART: DARTConfig{
			APIKey:    getEnv("DART_API_KEY", ""),
			BaseURL:   getEnv("DART_BASE_URL", "https://opendart.fss.or.kr/api"),
			RateLimit: getEnvAsInt("DART_RATE_LIMIT", 10),
		},

		FnGuide: FnGuideConfig{
			BaseURL:   getEnv("FNGUIDE_BASE_URL", "https://comp.fnguide.com"),
			RateLimit: getEnvAsInt("FNGUIDE_RATE_LIMIT", 5),
		},

		Naver: NaverConfig{
			BaseURL:      getEnv("NAVER_BASE_URL", "https://fchart.stock.naver.com"),
			StockBaseURL: getEnv("NAVER_STOCK_BASE_URL", "https://m.stock.naver.com"),
		},

		KRX: KRXConfig{
			BaseURL:      getEnv("KRX_BASE_URL", "http://data.krx.co.kr"),
			LookbackDays: getEnvAsInt("KRX_LOOKBACK_DAYS", 5),
		},

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
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "24h"),
		},

		Scan: ScanConfig{
			LiteWorkers:        getEnvAsInt("LITE_WORKERS", 6),
			FullWorkers:        getEnvAsInt("FULL_WORKERS", 10),
			TimingWorkers:      getEnvAsInt("TIMING_WORKERS", 5),
			TopN:               getEnvAsInt("TOP_N", 200),
			FinalMinScore:      getEnvAsInt("FINAL_MIN_SCORE", 7),
			TimingMinFScore:    getEnvAsInt("TIMING_MIN_FSCORE", 5),
			CheckpointInterval: getEnvAsInt("CHECKPOINT_INTERVAL", 20),
			TaskTimeout:        getEnvAsDuration("TASK_TIMEOUT", "30s"),
			OutputDir:          getEnv("OUTPUT_DIR", "results"),
			UniverseFile:       getEnv("UNIVERSE_FILE", "df_sorted.csv"),
		},

		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
			BaseURL:  getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "pretty"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// RequireDART fails fast when the registry credential is absent.
// Full 스캔에 도달하는 모든 커맨드는 스캔 전에 호출
func (c *Config) RequireDART() error {
	if c.DART.APIKey == "" {
		return fmt.Errorf("%w: DART_API_KEY is required", ErrConfiguration)
	}
	return nil
}

// TelegramEnabled reports whether both delivery credentials are present
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("%w: ENV must be one of: development, staging, production", ErrConfiguration)
	}

	positive := map[string]int{
		"LITE_WORKERS":        c.Scan.LiteWorkers,
		"FULL_WORKERS":        c.Scan.FullWorkers,
		"TIMING_WORKERS":      c.Scan.TimingWorkers,
		"TOP_N":               c.Scan.TopN,
		"CHECKPOINT_INTERVAL": c.Scan.CheckpointInterval,
	}
	for key, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrConfiguration, key, v)
		}
	}

	if c.Scan.FinalMinScore < 0 || c.Scan.FinalMinScore > 9 {
		return fmt.Errorf("%w: FINAL_MIN_SCORE must be within 0..9", ErrConfiguration)
	}
	if c.Scan.TaskTimeout <= 0 {
		return fmt.Errorf("%w: TASK_TIMEOUT must be positive", ErrConfiguration)
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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
