package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/pcapgate/internal/access"
	"github.com/nao1215/pcapgate/internal/proxy"
)

// authenticate はすべてのルートの先頭で呼び出す事前チェック。
// api_keyが既知であれば許可されたノード集合とtrueを返す。
// 不明なキーの場合は401、表の参照に失敗した場合は500で応答し、falseを返す。
func (s *Server) authenticate(c *gin.Context) (access.NodeSet, bool) {
	decision, nodes, err := s.gate.Authorize(c.Request.Context(), c.Query(paramAPIKey), "")
	if err != nil {
		s.logger.Error("APIキーの確認に失敗", zap.Error(err))
		abortWithError(c, kindInternal, msgCheckAPIKey, err)
		return nil, false
	}
	if decision != access.Allowed {
		abortWithError(c, kindUnauthenticated, msgUnknownAPIKey, nil)
		return nil, false
	}
	return nodes, true
}

// resolveTarget は対象ノードへのアクセス可否を判定し、アドレスを解決する。
// 判定結果に応じたエラー応答を書き込んだ場合はfalseを返す。
// 許可されていないノードは、存在するかどうかに関わらず403とする。
func (s *Server) resolveTarget(c *gin.Context, nodes access.NodeSet, nodeID string) (string, bool) {
	switch access.Decide(nodes, nodeID) {
	case access.DeniedUnauthorized:
		abortWithError(c, kindForbidden, msgNotAllowed, nil)
		return "", false
	case access.DeniedUnknownNode:
		abortWithError(c, kindBadRequest, msgUnknownNode, nil)
		return "", false
	}

	addr, decision, err := s.gate.Resolve(c.Request.Context(), nodeID)
	if err != nil {
		s.logger.Error("ノードアドレスの解決に失敗", zap.String("node_id", nodeID), zap.Error(err))
		abortWithError(c, kindInternal, msgLookupNode, err)
		return "", false
	}
	if decision != access.Allowed {
		abortWithError(c, kindBadRequest, msgUnknownNode, nil)
		return "", false
	}
	return addr, true
}

// relay はノードの応答をステータスコード、ボディ、Content-Typeを変えずに返す。
func relay(c *gin.Context, res proxy.Result) {
	if res.Err != nil {
		_ = c.Error(res.Err)
	}
	c.Data(res.StatusCode, res.ContentType, res.Body)
}

// handleData はキャプチャデータの取得をノードへ転送するハンドラを返す。
func (s *Server) handleData() gin.HandlerFunc {
	return func(c *gin.Context) {
		nodes, ok := s.authenticate(c)
		if !ok {
			return
		}

		req, missing := bindPcapRequest(c.Request.URL.Query())
		if len(missing) > 0 {
			abortWithError(c, kindBadRequest, missingParamsMessage(missing), nil)
			return
		}

		addr, ok := s.resolveTarget(c, nodes, req.NodeID)
		if !ok {
			return
		}

		relay(c, s.dispatcher.Forward(c.Request.Context(), proxy.Request{
			Route:       "data",
			Address:     addr,
			Path:        "/data.pcap",
			Params:      req.upstreamParams(),
			ContentType: proxy.PcapContentType,
		}))
	}
}

// handleNodePing はノードのpingをそのまま転送するハンドラを返す。
func (s *Server) handleNodePing() gin.HandlerFunc {
	return func(c *gin.Context) {
		nodes, ok := s.authenticate(c)
		if !ok {
			return
		}

		req := pingRequest{NodeID: c.Param(paramNodeID)}
		addr, ok := s.resolveTarget(c, nodes, req.NodeID)
		if !ok {
			return
		}

		relay(c, s.dispatcher.Forward(c.Request.Context(), proxy.Request{
			Route:       "ping",
			Address:     addr,
			Path:        "/ping",
			ContentType: proxy.JSONContentType,
		}))
	}
}

// handleKeys はAPIキー表全体を返すハンドラを返す。
// ワイルドカードのキーのみが参照でき、それ以外は行単位の絞り込みを行わず403とする。
func (s *Server) handleKeys() gin.HandlerFunc {
	return func(c *gin.Context) {
		nodes, ok := s.authenticate(c)
		if !ok {
			return
		}
		if !nodes.Wildcard() {
			abortWithError(c, kindForbidden, msgNotAllowed, nil)
			return
		}

		keys, err := s.store.AllKeys(c.Request.Context())
		if err != nil {
			s.logger.Error("APIキー表の取得に失敗", zap.Error(err))
			abortWithError(c, kindInternal, msgLookupNodes, err)
			return
		}
		c.JSON(http.StatusOK, keys)
	}
}

// handleNodeList はノード表を返すハンドラを返す。
// ワイルドカードのキーには表全体を、それ以外には許可されたノードのみを返す。
func (s *Server) handleNodeList() gin.HandlerFunc {
	return func(c *gin.Context) {
		nodes, ok := s.authenticate(c)
		if !ok {
			return
		}

		all, err := s.store.AllNodeAddresses(c.Request.Context())
		if err != nil {
			s.logger.Error("ノード表の取得に失敗", zap.Error(err))
			abortWithError(c, kindInternal, msgNodeList, err)
			return
		}
		c.JSON(http.StatusOK, nodes.Filter(all))
	}
}

// handlePing はゲートウェイが稼働しているホストの稼働時間と現在時刻を返すハンドラを返す。
func (s *Server) handlePing() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := s.authenticate(c); !ok {
			return
		}

		uptime, err := s.uptime(c.Request.Context())
		if err != nil {
			s.logger.Error("稼働時間の取得に失敗", zap.Error(err))
			abortWithError(c, kindInternal, msgUptime, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"uptime": int64(uptime / time.Second),
			"date":   s.now().UTC().Format(time.RFC3339),
		})
	}
}
