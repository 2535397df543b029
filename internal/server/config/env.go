package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// EnvConfig lists the environment variables understood by the server.
// PORT, DATABASE_URL, JWT_SECRET and APP_ENV are accepted for compatibility
// with common hosting platforms; the WELLKEEPER_* names take precedence.
type EnvConfig struct {
	Port               string        `env:"PORT"`
	HTTPAddr           string        `env:"WELLKEEPER_HTTP_ADDR"`
	GRPCAddr           string        `env:"WELLKEEPER_GRPC_ADDR"`
	DatabaseURL        string        `env:"DATABASE_URL"`
	DatabaseDSN        string        `env:"WELLKEEPER_DATABASE_DSN"`
	JWTSecret          string        `env:"JWT_SECRET"`
	SecretKey          string        `env:"WELLKEEPER_SECRET_KEY"`
	TokenValidity      time.Duration `env:"WELLKEEPER_ACCESS_TOKEN_VALIDITY"`
	AppEnv             string        `env:"APP_ENV"`
	Environment        string        `env:"WELLKEEPER_ENVIRONMENT"`
	BlobBackend        string        `env:"WELLKEEPER_BLOB_BACKEND"`
	UploadDir          string        `env:"WELLKEEPER_UPLOAD_DIR"`
	MaxUploadSize      int64         `env:"WELLKEEPER_MAX_UPLOAD_SIZE"`
	S3RootUser         string        `env:"WELLKEEPER_S3_ROOT_USER"`
	S3RootPassword     string        `env:"WELLKEEPER_S3_ROOT_PASSWORD"`
	S3Bucket           string        `env:"WELLKEEPER_S3_BUCKET"`
	S3Region           string        `env:"WELLKEEPER_S3_REGION"`
	S3BaseEndpoint     string        `env:"WELLKEEPER_S3_BASE_ENDPOINT"`
	LoginRatePerSecond float64       `env:"WELLKEEPER_LOGIN_RATE_PER_SECOND"`
	LoginBurst         int           `env:"WELLKEEPER_LOGIN_BURST"`
	CORSAllowOrigins   string        `env:"WELLKEEPER_CORS_ALLOW_ORIGINS"`
}

// dotenvFile is loaded before reading the environment when it exists.
// Variables already present in the environment are not overridden.
var dotenvFile = ".env"

// parseEnv overlays values from the process environment. A malformed value
// panics, matching the handling of malformed config files.
func parseEnv(config *Config) {
	if _, err := os.Stat(dotenvFile); err == nil {
		if err := godotenv.Load(dotenvFile); err != nil {
			panic(err)
		}
	}

	e := &EnvConfig{}
	if err := envdecode.StrictDecode(e); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return
		}
		panic(err)
	}

	e.apply(config)
}

func (e *EnvConfig) apply(config *Config) {
	if e.Port != "" {
		config.HTTPAddr = ":" + e.Port
	}
	setString(&config.HTTPAddr, e.HTTPAddr)
	setString(&config.GRPCAddr, e.GRPCAddr)
	setString(&config.DatabaseDSN, e.DatabaseURL)
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.SecretKey, e.JWTSecret)
	setString(&config.SecretKey, e.SecretKey)
	if e.TokenValidity > 0 {
		config.AccessTokenValidityDuration = e.TokenValidity
	}
	setString(&config.Environment, e.AppEnv)
	setString(&config.Environment, e.Environment)
	setString(&config.BlobBackend, e.BlobBackend)
	setString(&config.UploadDir, e.UploadDir)
	if e.MaxUploadSize > 0 {
		config.MaxUploadSize = e.MaxUploadSize
	}
	setString(&config.S3RootUser, e.S3RootUser)
	setString(&config.S3RootPassword, e.S3RootPassword)
	setString(&config.S3Bucket, e.S3Bucket)
	setString(&config.S3Region, e.S3Region)
	setString(&config.S3BaseEndpoint, e.S3BaseEndpoint)
	if e.LoginRatePerSecond > 0 {
		config.LoginRatePerSecond = e.LoginRatePerSecond
	}
	if e.LoginBurst > 0 {
		config.LoginBurst = e.LoginBurst
	}
	if e.CORSAllowOrigins != "" {
		config.CORSAllowOrigins = splitList(e.CORSAllowOrigins)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
