package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	API          APIConfig
	Storage      StorageConfig
	Redis        RedisConfig
	Query        QueryConfig
	Connectivity ConnectivityConfig
	CORS         CORSConfig
	Export       ExportConfig
	Log          LogConfig
}

// APIConfig points the client at the remote school API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StorageConfig selects the durable key/value backend for session and cache persistence.
type StorageConfig struct {
	Driver        string
	Dir           string
	DSN           string
	EncryptionKey string
	MaxOpenConns  int
	MaxIdleConns  int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// QueryConfig tunes the query cache.
type QueryConfig struct {
	StaleTime      time.Duration
	CacheMaxAge    time.Duration
	Retry          int
	RetryDelay     time.Duration
	RetryMaxDelay  time.Duration
	MutationRetry  int
	RefetchWorkers int
	Buster         string
	PersistEnabled bool
}

// ConnectivityConfig drives the online/offline probe.
type ConnectivityConfig struct {
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
}

// CORSConfig is the cross-origin policy for the UI shell talking to the console.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// ExportConfig shapes roster files.
type ExportConfig struct {
	CSVDelimiter string
	CSVBOM       bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 15*time.Second),
	}

	cfg.Storage = StorageConfig{
		Driver:        strings.ToLower(v.GetString("STORAGE_DRIVER")),
		Dir:           v.GetString("STORAGE_DIR"),
		DSN:           v.GetString("STORAGE_DSN"),
		EncryptionKey: v.GetString("STORAGE_ENCRYPTION_KEY"),
		MaxOpenConns:  v.GetInt("STORAGE_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("STORAGE_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Query = QueryConfig{
		StaleTime:      parseDuration(v.GetString("QUERY_STALE_TIME"), 5*time.Minute),
		CacheMaxAge:    parseDuration(v.GetString("QUERY_CACHE_MAX_AGE"), time.Hour),
		Retry:          v.GetInt("QUERY_RETRY"),
		RetryDelay:     parseDuration(v.GetString("QUERY_RETRY_DELAY"), time.Second),
		RetryMaxDelay:  parseDuration(v.GetString("QUERY_RETRY_MAX_DELAY"), 30*time.Second),
		MutationRetry:  v.GetInt("MUTATION_RETRY"),
		RefetchWorkers: v.GetInt("QUERY_REFETCH_WORKERS"),
		Buster:         v.GetString("CACHE_BUSTER"),
		PersistEnabled: v.GetBool("QUERY_PERSIST"),
	}

	cfg.Connectivity = ConnectivityConfig{
		ProbeInterval: parseDuration(v.GetString("CONNECTIVITY_PROBE_INTERVAL"), 15*time.Second),
		ProbeTimeout:  parseDuration(v.GetString("CONNECTIVITY_PROBE_TIMEOUT"), 2*time.Second),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins:   splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		AllowedHeaders:   splitAndTrim(v.GetString("CORS_ALLOWED_HEADERS")),
		ExposedHeaders:   splitAndTrim(v.GetString("CORS_EXPOSED_HEADERS")),
		AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
		MaxAge:           parseDuration(v.GetString("CORS_MAX_AGE"), 10*time.Minute),
	}

	cfg.Export = ExportConfig{
		CSVDelimiter: v.GetString("EXPORT_CSV_DELIMITER"),
		CSVBOM:       v.GetBool("EXPORT_CSV_BOM"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8090)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("API_BASE_URL", "http://13.203.135.43")
	v.SetDefault("API_TIMEOUT", "15s")

	v.SetDefault("STORAGE_DRIVER", StorageFile)
	v.SetDefault("STORAGE_DIR", "./.sma-admin")
	v.SetDefault("STORAGE_DSN", "")
	v.SetDefault("STORAGE_ENCRYPTION_KEY", "")
	v.SetDefault("STORAGE_MAX_OPEN_CONNS", 4)
	v.SetDefault("STORAGE_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("QUERY_STALE_TIME", "5m")
	v.SetDefault("QUERY_CACHE_MAX_AGE", "1h")
	v.SetDefault("QUERY_RETRY", 3)
	v.SetDefault("QUERY_RETRY_DELAY", "1s")
	v.SetDefault("QUERY_RETRY_MAX_DELAY", "30s")
	v.SetDefault("MUTATION_RETRY", 2)
	v.SetDefault("QUERY_REFETCH_WORKERS", 2)
	v.SetDefault("CACHE_BUSTER", "v1")
	v.SetDefault("QUERY_PERSIST", true)

	v.SetDefault("CONNECTIVITY_PROBE_INTERVAL", "15s")
	v.SetDefault("CONNECTIVITY_PROBE_TIMEOUT", "2s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-Request-ID")
	v.SetDefault("CORS_EXPOSED_HEADERS", "X-Request-ID,Content-Disposition")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)
	v.SetDefault("CORS_MAX_AGE", "10m")
	v.SetDefault("EXPORT_CSV_DELIMITER", ",")
	v.SetDefault("EXPORT_CSV_BOM", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
