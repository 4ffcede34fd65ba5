package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultJWTSecret = "your-secret-key-change-this"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Account is one row of the static credential table.
type Account struct {
	Username     string
	Password     string
	PasswordHash string
	Email        string
	FullName     string
}

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	Admin      Account
	Operator   Account
	BcryptCost int

	InferenceURL      string
	InferenceTimeout  time.Duration
	CustomModelPath   string
	FallbackModel     string
	DefaultConfidence float64
	InferenceWorkers  int
	InferenceQueue    int
	MaxUploadBytes    int64
	MaxImagePixels    int64

	AuditDBDriver string
	AuditDBDSN    string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	FeedKey       string
	FeedChannel   string
	FeedSize      int

	CORSOrigins []string
}

// Load reads an optional .env file and then the process environment.
// Every value has a default so the server always starts; the defaults for
// secrets and passwords are insecure and only meant for local demos.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort: getEnv("API_PORT", "8000"),
		JWTKey:  []byte(getEnv("JWT_SECRET_KEY", DefaultJWTSecret)),
		JWTExp:  time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,

		Admin: Account{
			Username:     getEnv("ADMIN_USERNAME", "guard_admin"),
			Password:     getEnv("ADMIN_PASSWORD", "Army@Guard2024!"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			Email:        getEnv("ADMIN_EMAIL", "admin@guardx.army.mil"),
			FullName:     getEnv("ADMIN_FULL_NAME", "Guard-X Administrator"),
		},
		Operator: Account{
			Username:     getEnv("OPERATOR_USERNAME", "field_operator"),
			Password:     getEnv("OPERATOR_PASSWORD", "Field@Ops2024!"),
			PasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
			Email:        getEnv("OPERATOR_EMAIL", "operator@guardx.army.mil"),
			FullName:     getEnv("OPERATOR_FULL_NAME", "Field Operator"),
		},
		BcryptCost: getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),

		InferenceURL:      strings.TrimRight(getEnv("INFERENCE_URL", "http://localhost:5000"), "/"),
		InferenceTimeout:  time.Duration(getEnvAsInt("INFERENCE_TIMEOUT_SECONDS", 30)) * time.Second,
		CustomModelPath:   getEnv("CUSTOM_MODEL_PATH", "models/best.pt"),
		FallbackModel:     getEnv("FALLBACK_MODEL", "yolov8n.pt"),
		DefaultConfidence: getEnvAsFloat("DEFAULT_CONFIDENCE", 0.5),
		InferenceWorkers:  getEnvAsInt("INFERENCE_WORKERS", 2),
		InferenceQueue:    getEnvAsInt("INFERENCE_QUEUE_SIZE", 16),
		MaxUploadBytes:    int64(getEnvAsInt("MAX_UPLOAD_MB", 20)) << 20,
		MaxImagePixels:    int64(getEnvAsInt("MAX_IMAGE_PIXELS", 25_000_000)),

		AuditDBDriver: getEnv("AUDIT_DB_DRIVER", DriverSQLite),
		AuditDBDSN:    getEnv("AUDIT_DB_DSN", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "guardx"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "guardx"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		FeedKey:       getEnv("FEED_KEY", "guardx:detections:recent"),
		FeedChannel:   getEnv("FEED_CHANNEL", "guardx:detections"),
		FeedSize:      getEnvAsInt("FEED_SIZE", 100),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
	}

	if cfg.AuditDBDSN == "" {
		cfg.AuditDBDSN = cfg.defaultDSN()
	}
	if string(cfg.JWTKey) == DefaultJWTSecret {
		slog.Warn("JWT_SECRET_KEY is not set, using the insecure default key")
	}
	return cfg
}

func (c *Config) defaultDSN() string {
	if c.AuditDBDriver == DriverPostgres {
		return "host=" + c.DBHost +
			" port=" + c.DBPort +
			" user=" + c.DBUser +
			" password=" + c.DBPassword +
			" dbname=" + c.DBName +
			" sslmode=" + c.DBSslMode
	}
	return "data/guardx.db"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
