package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	Env              string
	MetricsPort      string
	LogLevel         string
	DBDriver         string
	SQLitePath       string
	PostgresConnStr  string
	ContentStore     string
	MongoURI         string
	MongoDatabase    string
	NATSURL          string
	NATSSubject      string
	WSSendBuffer     int
	ListDefaultLimit int
	ListMaxLimit     int
}

// Load reads configuration from the environment, after loading a .env
// file when one is present
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:             getEnv("PORT", "4000"),
		Env:              getEnv("ENV", "development"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DBDriver:         getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:       getEnv("SQLITE_PATH", "insyd.db"),
		PostgresConnStr:  getEnv("POSTGRES_CONN_STR", ""),
		ContentStore:     getEnv("CONTENT_STORE", "sql"),
		MongoURI:         getEnv("MONGO_URI", ""),
		MongoDatabase:    getEnv("MONGO_DATABASE", "notify"),
		NATSURL:          getEnv("NATS_URL", ""),
		NATSSubject:      getEnv("NATS_EVENTS_SUBJECT", "notify.events"),
		WSSendBuffer:     getEnvInt("WS_SEND_BUFFER", 64),
		ListDefaultLimit: getEnvInt("LIST_DEFAULT_LIMIT", 50),
		ListMaxLimit:     getEnvInt("LIST_MAX_LIMIT", 200),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring non-numeric setting", "key", key, "value", value)
		return defaultValue
	}
	return n
}
