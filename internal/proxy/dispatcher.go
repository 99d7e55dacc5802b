package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	// ContentTypePcap はキャプチャデータのContent-Type。
	ContentTypePcap = "application/pcap"
	// ContentTypeJSON は構造化データ（エラーやping応答）のContent-Type。
	ContentTypeJSON = "application/json"

	// DefaultTimeout はノードへのリクエストのデフォルトタイムアウト。
	DefaultTimeout = 30 * time.Second
)

// ContentTypePolicy はノードのステータスコードから応答のContent-Typeを決める。
type ContentTypePolicy func(status int) string

// PcapContentType は200の場合のみpcap、それ以外はJSONとする。
// ノードのエラー応答はJSONで返るため。
func PcapContentType(status int) string {
	if status == http.StatusOK {
		return ContentTypePcap
	}
	return ContentTypeJSON
}

// JSONContentType は常にJSONとする。
func JSONContentType(int) string {
	return ContentTypeJSON
}

// Request はノードへの転送内容。
type Request struct {
	// Route はメトリクスに記録するルート名。
	Route string
	// Address はノードのアドレス（host:port）。
	Address string
	// Path はノード側のパス（例: /data.pcap）。
	Path string
	// Params はクエリ文字列として転送するパラメータ。
	Params url.Values
	// ContentType は応答のContent-Typeを決める。nilの場合はJSONContentType。
	ContentType ContentTypePolicy
}

// Result はノードの応答。ゲートウェイが合成した場合はErrに原因が入る。
type Result struct {
	// StatusCode はノードが返したステータスコード。
	StatusCode int
	// Body はノードが返したボディ。
	Body []byte
	// ContentType は呼び出し元に返すContent-Type。
	ContentType string
	// Err は転送に失敗した場合の原因。成功時はnil。
	Err error
}

// Dispatcher はキャプチャノードへリクエストを転送する。
// 並行に使用してよい。
type Dispatcher struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// timeout は1回の転送に許す最大時間。
	timeout time.Duration
	metrics *Metrics
	logger  *zap.Logger
}

// Option はDispatcherの設定を変更する。
type Option func(*Dispatcher)

// WithTimeout は転送のタイムアウトを設定する。0以下の場合は変更しない。
func WithTimeout(d time.Duration) Option {
	return func(p *Dispatcher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithHTTPClient は使用するHTTPクライアントを差し替える。
func WithHTTPClient(c *http.Client) Option {
	return func(p *Dispatcher) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithMetrics は転送結果を記録するメトリクスを設定する。
func WithMetrics(m *Metrics) Option {
	return func(p *Dispatcher) {
		p.metrics = m
	}
}

// WithLogger はロガーを設定する。
func WithLogger(l *zap.Logger) Option {
	return func(p *Dispatcher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New は新しいDispatcherを生成する。
func New(opts ...Option) *Dispatcher {
	p := &Dispatcher{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Forward はノードへGETリクエストを1回発行し、その応答を返す。
// リトライは行わない。通信に失敗した場合は500の結果を合成して返す。
func (p *Dispatcher) Forward(ctx context.Context, req Request) Result {
	start := time.Now()
	res := p.forward(ctx, req)
	p.metrics.observe(req.Route, res, time.Since(start))
	if res.Err != nil {
		p.logger.Warn("ノードへの転送に失敗",
			zap.String("route", req.Route),
			zap.String("address", req.Address),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(res.Err),
		)
	}
	return res
}

func (p *Dispatcher) forward(ctx context.Context, req Request) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	target := url.URL{
		Scheme:   "http",
		Host:     req.Address,
		Path:     req.Path,
		RawQuery: req.Params.Encode(),
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return internalError(fmt.Errorf("リクエストの作成に失敗: %w", err))
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return internalError(fmt.Errorf("ノードとの通信に失敗: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return internalError(fmt.Errorf("レスポンスの読み取りに失敗: %w", err))
	}

	policy := req.ContentType
	if policy == nil {
		policy = JSONContentType
	}
	return Result{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: policy(resp.StatusCode),
	}
}

// errorMessage はノードへの転送失敗時にクライアントへ返すメッセージ。
const errorMessage = "there was a problem requesting from the node"

// internalError は転送失敗を表す500の結果を合成する。
func internalError(err error) Result {
	body, _ := json.Marshal(map[string]string{"type": "error", "message": errorMessage})
	return Result{
		StatusCode:  http.StatusInternalServerError,
		Body:        body,
		ContentType: ContentTypeJSON,
		Err:         err,
	}
}

// statusClass はステータスコードを "2xx" のような区分に変換する。
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
