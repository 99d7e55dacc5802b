// Package config はゲートウェイの設定を環境変数から読み込む。
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrInvalid は設定値が不正であることを示す。
var ErrInvalid = errors.New("config: invalid value")

const (
	// BackendFile はJSONファイルの表を参照する。
	BackendFile = "file"
	// BackendSQLite はSQLiteの表を参照する。
	BackendSQLite = "sqlite"
)

// Config はゲートウェイの設定。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string `env:"PORT" envDefault:"8080"`
	// APIFile はAPIキー表のJSONファイル。
	APIFile string `env:"API_FILE" envDefault:"api.conf"`
	// NodeFile はノード表のJSONファイル。
	NodeFile string `env:"NODE_FILE" envDefault:"nodes.conf"`
	// StoreBackend は表の格納方式（file または sqlite）。
	StoreBackend string `env:"STORE_BACKEND" envDefault:"file"`
	// SQLitePath はStoreBackendがsqliteの場合のデータベースDSN。
	SQLitePath string `env:"SQLITE_PATH" envDefault:"/data/pcapgate.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"`
	// UpstreamTimeout はキャプチャノードへの1回の転送に許す最大時間。
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
	// AllowedOrigins はCORSを許可するオリジン。
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	// LogLevel はログレベル（debug, info, warn, error）。
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat はログ形式（json または console）。
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load は環境変数から設定を読み込む。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	return cfg, nil
}

// LoadFrom は指定した環境変数マップから設定を読み込む。テスト用。
func LoadFrom(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: PORTが空です", ErrInvalid)
	}
	switch c.StoreBackend {
	case BackendFile:
		if c.APIFile == "" || c.NodeFile == "" {
			return fmt.Errorf("%w: API_FILEとNODE_FILEの両方が必要です", ErrInvalid)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATHが空です", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: STORE_BACKENDは file または sqlite: got %q", ErrInvalid, c.StoreBackend)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("%w: UPSTREAM_TIMEOUTは正の値が必要です: got %s", ErrInvalid, c.UpstreamTimeout)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%w: LOG_FORMATは json または console: got %q", ErrInvalid, c.LogFormat)
	}
	return nil
}
