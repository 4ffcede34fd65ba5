package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", DefaultJWTSecret)
	t.Setenv("AUDIT_DB_DRIVER", DriverSQLite)
	t.Setenv("AUDIT_DB_DSN", "")
	t.Setenv("ADMIN_USERNAME", "guard_admin")

	cfg := Load()

	assert.Equal(t, []byte(DefaultJWTSecret), cfg.JWTKey)
	assert.Equal(t, "guard_admin", cfg.Admin.Username)
	assert.Equal(t, "data/guardx.db", cfg.AuditDBDSN)
	assert.Equal(t, 0.5, cfg.DefaultConfidence)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("OPERATOR_USERNAME", "scout")
	t.Setenv("OPERATOR_PASSWORD_HASH", "$2a$04$hash")
	t.Setenv("INFERENCE_URL", "http://yolo:9000/")
	t.Setenv("DEFAULT_CONFIDENCE", "0.25")
	t.Setenv("MAX_UPLOAD_MB", "2")
	t.Setenv("MAX_IMAGE_PIXELS", "1000000")
	t.Setenv("AUDIT_DB_DRIVER", DriverPostgres)
	t.Setenv("AUDIT_DB_DSN", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.JWTExp)
	assert.Equal(t, "scout", cfg.Operator.Username)
	assert.Equal(t, "$2a$04$hash", cfg.Operator.PasswordHash)
	assert.Equal(t, "http://yolo:9000", cfg.InferenceURL)
	assert.Equal(t, 0.25, cfg.DefaultConfidence)
	assert.Equal(t, int64(2<<20), cfg.MaxUploadBytes)
	assert.Equal(t, int64(1_000_000), cfg.MaxImagePixels)
	assert.Contains(t, cfg.AuditDBDSN, "host=db")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("INFERENCE_WORKERS", "many")
	assert.Equal(t, 2, getEnvAsInt("INFERENCE_WORKERS", 2))
}
