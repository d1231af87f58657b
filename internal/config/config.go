package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module wires configuration loading.
var Module = fx.Provide(Load)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	Pipeline PipelineConfig
	Otel     OtelConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
}

// PipelineConfig controls a single feature computation run.
type PipelineConfig struct {
	// Engine selects how the run executes: "local" or "partitioned".
	Engine string
	// Partitions is the number of event shards for the partitioned engine.
	Partitions int

	// InputSource is "file" (line-delimited JSON) or "catalog" (analytics_events table).
	InputSource string
	InputPath   string

	// OutputPath receives the flat CSV. OutputDir receives the
	// dt=YYYY-MM-DD partitioned layout when set.
	OutputPath   string
	OutputDir    string
	StoreEnabled bool

	// AsOf pins the reference date (YYYY-MM-DD). When empty, AsOfMode
	// decides: "run", "yesterday" (both in Timezone) or "data_max".
	AsOf     string
	AsOfMode string
	Timezone string
}

// OtelConfig configures the OTLP metrics exporter.
type OtelConfig struct {
	Enabled  bool
	Endpoint string
	Protocol string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "featuremart"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		Pipeline: PipelineConfig{
			Engine:       strings.ToLower(getenv("PIPELINE_ENGINE", "local")),
			Partitions:   getenvInt("PIPELINE_PARTITIONS", 4),
			InputSource:  strings.ToLower(getenv("INPUT_SOURCE", "file")),
			InputPath:    getenv("INPUT_PATH", "logs/events.log"),
			OutputPath:   getenv("OUTPUT_PATH", "out/features.csv"),
			OutputDir:    getenv("OUTPUT_DIR", ""),
			StoreEnabled: getenvBool("STORE_ENABLED", false),
			AsOf:         strings.TrimSpace(getenv("ASOF", "")),
			AsOfMode:     strings.ToLower(getenv("ASOF_MODE", "")),
			Timezone:     getenv("TIMEZONE", "Asia/Seoul"),
		},
		Otel: OtelConfig{
			Enabled:  getenvBool("OTEL_ENABLED", false),
			Endpoint: getenv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			Protocol: strings.ToLower(getenv("OTEL_EXPORTER_PROTOCOL", "grpc")),
		},
		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "featuremart"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 5),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME_SEC", 3600),
	}

	// The catalog path mirrors the scheduled distributed job, which computes
	// yesterday's table; the ad-hoc file path follows the data.
	if cfg.Pipeline.AsOfMode == "" {
		if cfg.Pipeline.InputSource == "catalog" {
			cfg.Pipeline.AsOfMode = "yesterday"
		} else {
			cfg.Pipeline.AsOfMode = "data_max"
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
