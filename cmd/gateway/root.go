package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nao1215/pcapgate/internal/config"
	"github.com/nao1215/pcapgate/internal/gateway"
	"github.com/nao1215/pcapgate/internal/proxy"
)

// newRootCommand はルートコマンドを生成する。サブコマンド無しで起動した場合はserveと同じ。
func newRootCommand() *cobra.Command {
	cfg, loadErr := config.Load()
	if cfg == nil {
		cfg = &config.Config{}
	}

	cmd := &cobra.Command{
		Use:           "gateway",
		Short:         "Authorizing gateway in front of packet-capture nodes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if loadErr != nil {
				return loadErr
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.Port, "port", cfg.Port, "listen port (PORT)")
	flags.StringVar(&cfg.APIFile, "api-file", cfg.APIFile, "api key table (API_FILE)")
	flags.StringVar(&cfg.NodeFile, "node-file", cfg.NodeFile, "node table (NODE_FILE)")
	flags.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "table backend: file or sqlite (STORE_BACKEND)")
	flags.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "sqlite DSN (SQLITE_PATH)")
	flags.DurationVar(&cfg.UpstreamTimeout, "upstream-timeout", cfg.UpstreamTimeout, "timeout for one request to a node (UPSTREAM_TIMEOUT)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (LOG_LEVEL)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: json or console (LOG_FORMAT)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the gateway HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), cfg)
			},
		},
		newCheckCommand(cfg),
		newImportCommand(cfg),
	)
	return cmd
}

// runServe はゲートウェイを起動し、SIGINT/SIGTERMを受けると停止する。
func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := proxy.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("メトリクスの登録に失敗: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	server, err := gateway.NewServer(gateway.Config{
		Port:  cfg.Port,
		Store: store,
		Dispatcher: proxy.New(
			proxy.WithTimeout(cfg.UpstreamTimeout),
			proxy.WithMetrics(metrics),
			proxy.WithLogger(logger),
		),
		Logger:         logger,
		Gatherer:       reg,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("Gatewayサーバーの初期化に失敗: %w", err)
	}

	logger.Info("設定を読み込みました",
		zap.String("store", cfg.StoreBackend),
		zap.Duration("upstream_timeout", cfg.UpstreamTimeout),
	)
	return server.Run(ctx)
}
