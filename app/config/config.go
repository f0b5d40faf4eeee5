package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Log      LogConfig
}

type AppConfig struct {
	Port string
	Env  string
	// BaseDir anchors every relative path below. Defaults to the directory
	// holding the executable.
	BaseDir string
}

type DatabaseConfig struct {
	Driver string // sqlite, postgres
	Path   string // sqlite file
	DSN    string // postgres connection string
}

type SessionConfig struct {
	Store      string // database, redis
	Secret     string // HS256 signing key; random per process when empty
	TTL        time.Duration
	CookieName string
	Secure     bool
}

type RedisConfig struct {
	URL string // redis://localhost:6379/0
}

type StorageConfig struct {
	Type      string // local, s3
	UploadDir string // local: <base>/static/uploads
	S3        S3Config
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	PublicURL string
}

type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	FilePath   string // empty: stdout only
	MaxSize    int    // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	// A missing .env is fine; plain environment variables are used instead.
	_ = godotenv.Load()

	baseDir := getEnv("APP_BASE_DIR", "")
	if baseDir == "" {
		baseDir = executableDir()
	}

	cfg := &Config{
		App: AppConfig{
			Port:    getEnv("PORT", "8080"),
			Env:     getEnv("APP_ENV", "development"),
			BaseDir: baseDir,
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:   resolve(baseDir, getEnv("DB_PATH", filepath.Join("database", "catalog.db"))),
			DSN:    getEnv("DATABASE_URL", ""),
		},
		Session: SessionConfig{
			Store:      strings.ToLower(getEnv("SESSION_STORE", "database")),
			Secret:     getEnv("SESSION_SECRET", ""),
			TTL:        getEnvDuration("SESSION_TTL", 12*time.Hour),
			CookieName: getEnv("SESSION_COOKIE", "catalog_session"),
			Secure:     getEnvBool("SESSION_SECURE", false),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Storage: StorageConfig{
			Type:      strings.ToLower(getEnv("STORAGE_TYPE", "local")),
			UploadDir: resolve(baseDir, getEnv("UPLOAD_DIR", filepath.Join("static", "uploads"))),
			S3: S3Config{
				Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("S3_ACCESS_KEY", ""),
				SecretKey: getEnv("S3_SECRET_KEY", ""),
				Bucket:    getEnv("S3_BUCKET", "catalog"),
				UseSSL:    getEnvBool("S3_USE_SSL", false),
				Region:    getEnv("S3_REGION", ""),
				PublicURL: getEnv("S3_PUBLIC_URL", ""),
			},
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			FilePath:   getEnv("LOG_FILE", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
	}

	if cfg.Log.FilePath != "" {
		cfg.Log.FilePath = resolve(baseDir, cfg.Log.FilePath)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// resolve makes p absolute relative to base; absolute paths pass through.
func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
