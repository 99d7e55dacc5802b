package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nao1215/pcapgate/internal/access"
	"github.com/nao1215/pcapgate/internal/config"
)

// newLogger は設定に従ってzapロガーを生成する。
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: LOG_LEVEL %q", config.ErrInvalid, cfg.LogLevel)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("ロガーの初期化に失敗: %w", err)
	}
	return logger.With(zap.String("service", "gateway")), nil
}

// openStore は設定されたバックエンドのStoreを開く。返す関数で後始末を行う。
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (access.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		store, err := access.OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return access.NewFileStore(cfg.APIFile, cfg.NodeFile), func() {}, nil
	}
}
