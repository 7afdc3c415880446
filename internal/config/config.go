// backend-go/internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Efficiency EfficiencyConfig
	Storage    StorageConfig
	Metrics    MetricsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	// URL takes precedence over the discrete fields when set.
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled               bool
	RedisURL              string
	RedisHost             string
	RedisPort             string
	RedisPassword         string
	RedisDB               int
	SuggestionsTTLSeconds int
}

// EfficiencyConfig holds the tunables of the fulfilment computation.
type EfficiencyConfig struct {
	DocumentTypes                 []string
	ExcludedCategoryTerms         []string
	DelayedAfterDays              int
	HighFillRate                  float64
	LowFillRate                   float64
	SummaryTopN                   int
	OutlierLimit                  int
	RedundantLinesAdvanceLastDate bool
	RequestTimeoutSeconds         int
}

// StorageConfig points at the S3-compatible bucket that receives report exports.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DATABASE_URL", "")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "fulfillment")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_SUGGESTIONS_TTL_SECONDS", 300)
		viper.SetDefault("EFFICIENCY_DOCUMENT_TYPES", []string{"FACTURA", "COMPROBANTE_VENTA", "NOTA_DEBITO", "FACTURA_FCE_MIPYMES"})
		viper.SetDefault("EFFICIENCY_EXCLUDED_CATEGORY_TERMS", []string{"production", "producción"})
		viper.SetDefault("EFFICIENCY_DELAYED_AFTER_DAYS", 7)
		viper.SetDefault("EFFICIENCY_HIGH_FILL_RATE", 95.0)
		viper.SetDefault("EFFICIENCY_LOW_FILL_RATE", 80.0)
		viper.SetDefault("EFFICIENCY_SUMMARY_TOP_N", 5)
		viper.SetDefault("EFFICIENCY_OUTLIER_LIMIT", 20)
		viper.SetDefault("EFFICIENCY_REDUNDANT_LINES_ADVANCE_LAST_DATE", true)
		viper.SetDefault("EFFICIENCY_REQUEST_TIMEOUT_SECONDS", 30)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "efficiency-reports")
		viper.SetDefault("STORAGE_PREFIX", "exports")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("METRICS_ENABLED", true)
		viper.SetDefault("METRICS_PATH", "/metrics")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				LogLevel:       viper.GetString("LOG_LEVEL"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				URL:      viper.GetString("DATABASE_URL"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:               viper.GetBool("CACHE_ENABLED"),
				RedisURL:              viper.GetString("REDIS_URL"),
				RedisHost:             viper.GetString("REDIS_HOST"),
				RedisPort:             viper.GetString("REDIS_PORT"),
				RedisPassword:         viper.GetString("REDIS_PASSWORD"),
				RedisDB:               viper.GetInt("REDIS_DB"),
				SuggestionsTTLSeconds: viper.GetInt("CACHE_SUGGESTIONS_TTL_SECONDS"),
			},
			Efficiency: EfficiencyConfig{
				DocumentTypes:                 viper.GetStringSlice("EFFICIENCY_DOCUMENT_TYPES"),
				ExcludedCategoryTerms:         viper.GetStringSlice("EFFICIENCY_EXCLUDED_CATEGORY_TERMS"),
				DelayedAfterDays:              viper.GetInt("EFFICIENCY_DELAYED_AFTER_DAYS"),
				HighFillRate:                  viper.GetFloat64("EFFICIENCY_HIGH_FILL_RATE"),
				LowFillRate:                   viper.GetFloat64("EFFICIENCY_LOW_FILL_RATE"),
				SummaryTopN:                   viper.GetInt("EFFICIENCY_SUMMARY_TOP_N"),
				OutlierLimit:                  viper.GetInt("EFFICIENCY_OUTLIER_LIMIT"),
				RedundantLinesAdvanceLastDate: viper.GetBool("EFFICIENCY_REDUNDANT_LINES_ADVANCE_LAST_DATE"),
				RequestTimeoutSeconds:         viper.GetInt("EFFICIENCY_REQUEST_TIMEOUT_SECONDS"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Prefix:    viper.GetString("STORAGE_PREFIX"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Metrics: MetricsConfig{
				Enabled: viper.GetBool("METRICS_ENABLED"),
				Path:    viper.GetString("METRICS_PATH"),
			},
		}
	})

	return instance
}
