package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"docstore-backend/internal/shared/telemetry"
)

// Forward log targets.
const (
	ForwardToFrontend = "frontend"
	ForwardToServer   = "server"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	StorageRoot     string
	ObjectStoreType string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	MaxUploadBytes  int64

	// S3-compatible endpoints (MinIO, localstack). Empty uses AWS defaults.
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3ForcePathStyle  bool

	LogDir           string
	ServerLogFile    string
	ForwardLogFile   string
	LogForwardTarget string

	DatabaseURL         string
	ActivitySQSQueueURL string

	RateLimitRPS         float64
	RateLimitBurst       int
	UploadRateLimitRPS   float64
	UploadRateLimitBurst int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	return Config{
		Port:            getEnv("PORT", "3000"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		StorageRoot:     getEnv("STORAGE_ROOT", "./upload"),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 32<<20),

		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3ForcePathStyle:  getEnvBool("S3_FORCE_PATH_STYLE", false),

		LogDir:           getEnv("LOG_DIR", "logs"),
		ServerLogFile:    getEnv("SERVER_LOG_FILE", "server.log"),
		ForwardLogFile:   getEnv("FORWARD_LOG_FILE", "frontend.log"),
		LogForwardTarget: normalizeForwardTarget(getEnv("LOG_FORWARD_TARGET", ForwardToFrontend)),

		DatabaseURL:         dbURL,
		ActivitySQSQueueURL: getEnv("ACTIVITY_SQS_QUEUE_URL", ""),

		RateLimitRPS:         getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:       int(getEnvInt64("RATE_LIMIT_BURST", 0)),
		UploadRateLimitRPS:   getEnvFloat("UPLOAD_RATE_LIMIT_RPS", 0),
		UploadRateLimitBurst: int(getEnvInt64("UPLOAD_RATE_LIMIT_BURST", 0)),
	}
}

// ServerLogPath is the file the server sink writes to.
func (c Config) ServerLogPath() string {
	return filepath.Join(c.LogDir, c.ServerLogFile)
}

// ForwardLogPath is the file the forwarded-log sink writes to.
func (c Config) ForwardLogPath() string {
	return filepath.Join(c.LogDir, c.ForwardLogFile)
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "s3") {
		return "s3"
	}
	return "local"
}

func normalizeForwardTarget(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ForwardToServer:
		return ForwardToServer
	case ForwardToFrontend:
		return ForwardToFrontend
	default:
		telemetry.Warn("config.invalid_value", map[string]any{"key": "LOG_FORWARD_TARGET", "value": raw})
		return ForwardToFrontend
	}
}
