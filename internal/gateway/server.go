package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pcapgate/internal/access"
	"github.com/nao1215/pcapgate/internal/proxy"
	"github.com/nao1215/pcapgate/pkg/middleware"
)

// shutdownTimeout はサーバー停止時に処理中のリクエストを待つ最大時間。
const shutdownTimeout = 10 * time.Second

// Server はAPI GatewayサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store はAPIキー表とノード表の参照先。
	store access.Store
	// gate はAPIキーの認可判定を行う。
	gate *access.Gate
	// dispatcher はキャプチャノードへの転送を行う。
	dispatcher *proxy.Dispatcher
	// logger は構造化ロガー。
	logger *zap.Logger
	// gatherer は /metrics で公開するメトリクスの収集元。
	gatherer prometheus.Gatherer
	// uptime はホストの稼働時間を返す。
	uptime func(ctx context.Context) (time.Duration, error)
	// now は現在時刻を返す。
	now func() time.Time
}

// Config はServerの依存関係。
type Config struct {
	// Port はリッスンポート。
	Port string
	// Store はAPIキー表とノード表の参照先。必須。
	Store access.Store
	// Dispatcher はノードへの転送を行う。nilの場合はデフォルト設定で生成する。
	Dispatcher *proxy.Dispatcher
	// Logger は構造化ロガー。nilの場合はログを出力しない。
	Logger *zap.Logger
	// Gatherer は /metrics で公開する収集元。nilの場合はデフォルトレジストリ。
	Gatherer prometheus.Gatherer
	// AllowedOrigins はCORSを許可するオリジン。
	AllowedOrigins []string
}

// NewServer は新しいGatewayサーバーを生成する。
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("Storeが指定されていません")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = proxy.New(proxy.WithLogger(logger))
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:     router,
		port:       cfg.Port,
		store:      cfg.Store,
		gate:       access.NewGate(cfg.Store),
		dispatcher: dispatcher,
		logger:     logger,
		gatherer:   gatherer,
		uptime:     hostUptime,
		now:        time.Now,
	}
	s.setupRoutes()

	return s, nil
}

// Handler はサーバーのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされると処理中のリクエストを待って停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Gatewayサービスを起動します", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Gatewayサービスを停止します")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// キャプチャデータ（ノードへ転送）
	s.router.GET("/data.pcap", s.handleData())

	// APIキー表（ワイルドカードのキーのみ）
	s.router.GET("/keys", s.handleKeys())

	// ノード
	nodes := s.router.Group("/nodes")
	{
		nodes.GET("/list", s.handleNodeList())
		nodes.GET("/:node_id/ping", s.handleNodePing())
	}

	// ゲートウェイ自身の稼働時間
	s.router.GET("/ping", s.handlePing())

	// ヘルスチェック（認証不要）
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})

	// メトリクス（認証不要）
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	s.router.NoRoute(func(c *gin.Context) {
		abortWithError(c, kindNotFound, msgNoRoute, nil)
	})
}

// hostUptime はホストの稼働時間を返す。
func hostUptime(ctx context.Context) (time.Duration, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("稼働時間の取得に失敗: %w", err)
	}
	return time.Duration(secs) * time.Second, nil
}
