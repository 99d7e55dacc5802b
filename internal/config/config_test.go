package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadFrom は環境変数からの読み込みを検証する。
func TestLoadFrom(t *testing.T) {
	t.Parallel()

	t.Run("未設定の場合はデフォルト値になること", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadFrom(map[string]string{})
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "api.conf", cfg.APIFile)
		assert.Equal(t, "nodes.conf", cfg.NodeFile)
		assert.Equal(t, BackendFile, cfg.StoreBackend)
		assert.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Empty(t, cfg.AllowedOrigins)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("環境変数の値で上書きされること", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadFrom(map[string]string{
			"PORT":             "9090",
			"API_FILE":         "/etc/pcapgate/api.conf",
			"NODE_FILE":        "/etc/pcapgate/nodes.conf",
			"STORE_BACKEND":    "sqlite",
			"SQLITE_PATH":      "/tmp/pcapgate.db",
			"UPSTREAM_TIMEOUT": "5s",
			"ALLOWED_ORIGINS":  "https://a.example,https://b.example",
			"LOG_LEVEL":        "debug",
			"LOG_FORMAT":       "console",
		})
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, "/etc/pcapgate/api.conf", cfg.APIFile)
		assert.Equal(t, "/etc/pcapgate/nodes.conf", cfg.NodeFile)
		assert.Equal(t, BackendSQLite, cfg.StoreBackend)
		assert.Equal(t, "/tmp/pcapgate.db", cfg.SQLitePath)
		assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
		assert.Equal(t, "console", cfg.LogFormat)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("不正な期間はエラーになること", func(t *testing.T) {
		t.Parallel()

		_, err := LoadFrom(map[string]string{"UPSTREAM_TIMEOUT": "soon"})
		assert.Error(t, err)
	})
}

// TestValidate は設定値の検証を検証する。
func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Port:            "8080",
			APIFile:         "api.conf",
			NodeFile:        "nodes.conf",
			StoreBackend:    BackendFile,
			SQLitePath:      "x.db",
			UpstreamTimeout: time.Second,
			LogFormat:       "json",
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "ポートが空", modify: func(c *Config) { c.Port = "" }},
		{name: "APIキー表が空", modify: func(c *Config) { c.APIFile = "" }},
		{name: "ノード表が空", modify: func(c *Config) { c.NodeFile = "" }},
		{name: "不明なバックエンド", modify: func(c *Config) { c.StoreBackend = "redis" }},
		{name: "SQLiteのパスが空", modify: func(c *Config) { c.StoreBackend = BackendSQLite; c.SQLitePath = "" }},
		{name: "タイムアウトが0", modify: func(c *Config) { c.UpstreamTimeout = 0 }},
		{name: "不明なログ形式", modify: func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name+"の場合はErrInvalidを返すこと", func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	t.Run("有効な設定はエラーにならないこと", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, valid().Validate())
	})
}
