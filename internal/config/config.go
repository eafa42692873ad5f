package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPGX  = "pgx"
	DriverGORM = "gorm"
)

// Config загружается один раз при старте и дальше не меняется.
type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppPort string `mapstructure:"APP_PORT"`

	// --- База ---
	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      int    `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBScheme    string `mapstructure:"DB_SCHEME"`
	DatabaseURL string `mapstructure:"DATABASE_URL"` // для DB_DRIVER=gorm: sqlite://... или postgres://...

	// --- S3 ---
	S3Endpoint      string        `mapstructure:"S3_ENDPOINT"`
	S3Region        string        `mapstructure:"S3_REGION"`
	S3Bucket        string        `mapstructure:"S3_BUCKET"`
	S3AccessKey     string        `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey     string        `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL        bool          `mapstructure:"S3_USE_SSL"`
	S3PathStyle     bool          `mapstructure:"S3_PATH_STYLE"`
	S3PublicBaseURL string        `mapstructure:"S3_PUBLIC_BASE_URL"`
	S3DownloadTTL   time.Duration `mapstructure:"S3_DOWNLOAD_TTL"`

	// --- Redis ---
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisDB         int    `mapstructure:"REDIS_DB"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	ProductCacheTTL int    `mapstructure:"PRODUCT_CACHE_TTL"` // секунд

	// --- Auth ---
	AuthJWTSecret string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthIssuer    string        `mapstructure:"AUTH_ISSUER"`
	AuthTokenTTL  time.Duration `mapstructure:"AUTH_TOKEN_TTL"`

	// --- Очистка хранилища ---
	ReclaimWorkers    int           `mapstructure:"RECLAIM_WORKERS"`
	ReclaimMaxElapsed time.Duration `mapstructure:"RECLAIM_MAX_ELAPSED"`

	UploadMaxFileBytes int64 `mapstructure:"UPLOAD_MAX_FILE_BYTES"`
}

// String реализует интерфейс Stringer
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AppEnv: %s\n", c.AppEnv))
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))
	sb.WriteString(fmt.Sprintf("  DBDriver: %s\n", c.DBDriver))
	if c.DBDriver == DriverGORM {
		sb.WriteString(fmt.Sprintf("  DatabaseURL: %s\n", maskURL(c.DatabaseURL)))
	} else {
		sb.WriteString(fmt.Sprintf("  DBHost: %s\n", c.DBHost))
		sb.WriteString(fmt.Sprintf("  DBPort: %d\n", c.DBPort))
		sb.WriteString(fmt.Sprintf("  DBUser: %s\n", c.DBUser))
		sb.WriteString(fmt.Sprintf("  DBName: %s\n", c.DBName))
		sb.WriteString(fmt.Sprintf("  DBScheme: %s\n", c.DBScheme))
		sb.WriteString("  DBPassword: " + masked(c.DBPassword) + "\n")
	}

	// S3
	sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
	sb.WriteString(fmt.Sprintf("  S3Region: %s\n", c.S3Region))
	sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
	sb.WriteString("  S3AccessKey: " + masked(c.S3AccessKey) + "\n")
	sb.WriteString("  S3SecretKey: " + masked(c.S3SecretKey) + "\n")
	sb.WriteString(fmt.Sprintf("  S3UseSSL: %v\n", c.S3UseSSL))
	sb.WriteString(fmt.Sprintf("  S3PathStyle: %v\n", c.S3PathStyle))
	sb.WriteString(fmt.Sprintf("  S3PublicBaseURL: %s\n", c.S3PublicBaseURL))
	sb.WriteString(fmt.Sprintf("  S3DownloadTTL: %s\n", c.S3DownloadTTL))

	// Redis
	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	sb.WriteString("  RedisPassword: " + masked(c.RedisPassword) + "\n")
	sb.WriteString(fmt.Sprintf("  ProductCacheTTL: %ds\n", c.ProductCacheTTL))

	// Auth
	sb.WriteString("  AuthJWTSecret: " + masked(c.AuthJWTSecret) + "\n")
	sb.WriteString(fmt.Sprintf("  AuthIssuer: %s\n", c.AuthIssuer))
	sb.WriteString(fmt.Sprintf("  AuthTokenTTL: %s\n", c.AuthTokenTTL))

	sb.WriteString(fmt.Sprintf("  ReclaimWorkers: %d\n", c.ReclaimWorkers))
	sb.WriteString(fmt.Sprintf("  ReclaimMaxElapsed: %s\n", c.ReclaimMaxElapsed))
	sb.WriteString(fmt.Sprintf("  UploadMaxFileBytes: %d\n", c.UploadMaxFileBytes))

	return sb.String()
}

func masked(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}

// пароль в DATABASE_URL не печатаем
func maskURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	return raw[:scheme+3] + "********" + raw[at:]
}

var keys = []string{
	"APP_ENV", "APP_PORT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SCHEME", "DATABASE_URL",
	"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
	"S3_USE_SSL", "S3_PATH_STYLE", "S3_PUBLIC_BASE_URL", "S3_DOWNLOAD_TTL",
	"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD", "PRODUCT_CACHE_TTL",
	"AUTH_JWT_SECRET", "AUTH_ISSUER", "AUTH_TOKEN_TTL",
	"RECLAIM_WORKERS", "RECLAIM_MAX_ELAPSED",
	"UPLOAD_MAX_FILE_BYTES",
}

// LoadFromEnv загружает конфигурацию из переменных окружения и сразу валидирует её
func LoadFromEnv() (*Config, error) {
	// Загружаем .env только для локальной разработки
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", DriverPGX)
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SCHEME", "catalog")
	v.SetDefault("S3_DOWNLOAD_TTL", "15m")
	v.SetDefault("PRODUCT_CACHE_TTL", 300)
	v.SetDefault("AUTH_ISSUER", "asset-catalog")
	v.SetDefault("AUTH_TOKEN_TTL", "24h")
	v.SetDefault("RECLAIM_WORKERS", 2)
	v.SetDefault("RECLAIM_MAX_ELAPSED", "2m")
	v.SetDefault("UPLOAD_MAX_FILE_BYTES", 100<<20)
}

// Validate проверяет обязательные параметры, чтобы падать при старте, а не на первом запросе
func (c *Config) Validate() error {
	var errs []error
	req := func(val, name string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	switch c.DBDriver {
	case DriverPGX:
		req(c.DBHost, "DB_HOST")
		req(c.DBUser, "DB_USER")
		req(c.DBName, "DB_NAME")
		req(c.DBScheme, "DB_SCHEME")
	case DriverGORM:
		req(c.DatabaseURL, "DATABASE_URL")
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPGX, DriverGORM, c.DBDriver))
	}

	req(c.S3Endpoint, "S3_ENDPOINT")
	req(c.S3Bucket, "S3_BUCKET")
	req(c.S3AccessKey, "S3_ACCESS_KEY")
	req(c.S3SecretKey, "S3_SECRET_KEY")
	req(c.S3PublicBaseURL, "S3_PUBLIC_BASE_URL")
	req(c.RedisAddr, "REDIS_ADDR")
	req(c.AuthJWTSecret, "AUTH_JWT_SECRET")

	if c.AuthTokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be positive"))
	}
	if c.S3DownloadTTL <= 0 {
		errs = append(errs, errors.New("S3_DOWNLOAD_TTL must be positive"))
	}
	if c.ReclaimWorkers < 1 {
		errs = append(errs, errors.New("RECLAIM_WORKERS must be at least 1"))
	}
	if c.UploadMaxFileBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_FILE_BYTES must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
