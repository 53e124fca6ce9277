// Package config は環境変数からサーバーとCLIの設定を読み込む。
//
// .envファイルの読み込みは各mainでgodotenvを使って行い、このパッケージは
// プロセスの環境変数だけを参照する。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// データベースドライバ名。
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// セッションストア名。
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config はカタログAPIサーバーの設定。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string
	// GinMode はGinの動作モード（debug/release/test）。
	GinMode string
	// LogLevel はログレベル。
	LogLevel string
	// BasePath はAPIのベースパス。
	BasePath string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Database DatabaseConfig
	Auth     AuthConfig

	// AllowedOrigins はCORSで許可するオリジンの一覧。
	AllowedOrigins []string
}

// DatabaseConfig はカタログDBの接続設定。
type DatabaseConfig struct {
	// Driver はsqliteまたはpostgres。
	Driver string
	// DSN は接続文字列。postgresで未指定の場合は個別の設定から組み立てる。
	DSN string

	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// AuthConfig は認証の設定。
type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// CookieSecure はリフレッシュトークンCookieにSecure属性を付けるか。
	CookieSecure bool
	// CookiePath はリフレッシュトークンCookieのPath属性。
	CookiePath string

	// AdminUsername と AdminPassword は起動時に存在しなければ作成する管理者ユーザー。
	AdminUsername string
	AdminPassword string
}

// Load は環境変数からサーバーの設定を読み込む。
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		BasePath:        getEnv("API_BASE_PATH", "/api/v1"),
		ReadTimeout:     getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),

		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", DriverSQLite),
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "bookstore"),
			User:     getEnv("DB_USER", "bookstore"),
			Password: getEnv("DB_PASSWORD", ""),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "dev-secret-key"),
			Issuer:        getEnv("JWT_ISSUER", "bookstore-catalog"),
			AccessTTL:     getDurationEnv("JWT_TTL", 24*time.Hour),
			RefreshTTL:    getDurationEnv("REFRESH_TTL", 7*24*time.Hour),
			CookieSecure:  getBoolEnv("COOKIE_SECURE", true),
			CookiePath:    getEnv("COOKIE_PATH", "/"),
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
		},

		AllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = buildDSN(cfg.Database)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVERが不正です: %q", c.Database.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRETが空です"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTLとREFRESH_TTLは正の値である必要があります"))
	}
	return errors.Join(errs...)
}

// Addr はサーバーのリッスンアドレスを返す。
func (c *Config) Addr() string {
	return ":" + c.Port
}

// buildDSN はドライバに応じたデフォルトの接続文字列を組み立てる。
func buildDSN(db DatabaseConfig) string {
	if db.Driver == DriverPostgres {
		return "host=" + db.Host +
			" port=" + db.Port +
			" user=" + db.User +
			" password=" + db.Password +
			" dbname=" + db.Name +
			" sslmode=" + db.SSLMode
	}
	return "catalog.db"
}

// ClientConfig はbookctlの設定。
type ClientConfig struct {
	// APIURL はカタログAPIのベースURL。
	APIURL   string
	LogLevel string
	Timeout  time.Duration

	// RefreshTimeout はトークンリフレッシュの最大待ち時間。
	RefreshTimeout time.Duration
	// ExpiryLeeway は有効期限のこの時間前からトークンを期限切れとみなす。
	ExpiryLeeway time.Duration

	Session SessionConfig
}

// SessionConfig はトークンを保存するストアの設定。
type SessionConfig struct {
	// Store はsqlite・redis・memoryのいずれか。
	Store string
	// Path はSQLiteストアのファイルパス。
	Path string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	// TTL はRedisに保存する値の有効期間。0の場合は無期限。
	TTL time.Duration
}

// LoadClient は環境変数からbookctlの設定を読み込む。
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		APIURL:         strings.TrimRight(getEnv("BOOKSTORE_API_URL", "http://localhost:8080/api/v1"), "/"),
		LogLevel:       getEnv("BOOKSTORE_LOG_LEVEL", "warn"),
		Timeout:        getDurationEnv("BOOKSTORE_TIMEOUT", 30*time.Second),
		RefreshTimeout: getDurationEnv("BOOKSTORE_REFRESH_TIMEOUT", 10*time.Second),
		ExpiryLeeway:   getDurationEnv("BOOKSTORE_EXPIRY_LEEWAY", 0),
		Session: SessionConfig{
			Store:         getEnv("BOOKSTORE_SESSION_STORE", StoreSQLite),
			Path:          getEnv("BOOKSTORE_SESSION_PATH", defaultSessionPath()),
			RedisAddr:     getEnv("BOOKSTORE_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("BOOKSTORE_REDIS_PASSWORD", ""),
			RedisDB:       getIntEnv("BOOKSTORE_REDIS_DB", 0),
			RedisPrefix:   getEnv("BOOKSTORE_REDIS_PREFIX", "bookstore:session:"),
			TTL:           getDurationEnv("BOOKSTORE_SESSION_TTL", 0),
		},
	}

	switch cfg.Session.Store {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("BOOKSTORE_SESSION_STOREが不正です: %q", cfg.Session.Store)
	}
	return cfg, nil
}

// defaultSessionPath はユーザー設定ディレクトリ配下のセッションファイルのパスを返す。
func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bookstore-session.db"
	}
	return filepath.Join(dir, "bookstore", "session.db")
}

// getEnv は環境変数を取得し、未設定の場合はデフォルト値を返す。
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getIntEnv は整数の環境変数を取得する。解釈できない場合はデフォルト値を返す。
func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getDurationEnv は"15s"や"24h"形式の環境変数を取得する。
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getStringSliceEnv はカンマ区切りの環境変数をスライスとして取得する。
func getStringSliceEnv(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
