package gateway

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/pcapgate/pkg/middleware"
)

// errorKind はゲートウェイが返すエラーの種別。
type errorKind int

const (
	// kindUnauthenticated はAPIキーが不明または未指定。
	kindUnauthenticated errorKind = iota
	// kindBadRequest はパラメータ不足または不明なノード。
	kindBadRequest
	// kindForbidden は認証済みだが対象へのアクセスが許可されていない。
	kindForbidden
	// kindInternal は表の読み込み失敗、ノードとの通信失敗など。
	kindInternal
	// kindNotFound は存在しないルート。
	kindNotFound
)

// status は種別に対応するHTTPステータスコードを返す。
func (k errorKind) status() int {
	switch k {
	case kindUnauthenticated:
		return http.StatusUnauthorized
	case kindBadRequest:
		return http.StatusBadRequest
	case kindForbidden:
		return http.StatusForbidden
	case kindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// クライアントに返すエラーメッセージ。
const (
	msgUnknownAPIKey    = "unknown api_key"
	msgCheckAPIKey      = "there was a problem checking api_key"
	msgNotAllowed       = "api_key not allowed to request this resource"
	msgUnknownNode      = "unknown node"
	msgLookupNode       = "there was a problem looking up the node"
	msgLookupNodes      = "there was a problem looking up nodes"
	msgNodeList         = "there was a problem getting node list"
	msgUptime           = "there was a problem getting uptime"
	msgNoRoute          = "not found"
	msgMissingParamsFmt = "must provide missing parameters: %s"
)

// abortWithError はエラー種別に応じたステータスとJSONエンベロープで応答を終える。
// errが渡された場合はアクセスログに記録されるようにGinコンテキストへ追加する。
func abortWithError(c *gin.Context, kind errorKind, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(kind.status(), middleware.ErrorEnvelope(message))
}

// missingParamsMessage は不足しているパラメータ名を列挙したメッセージを返す。
func missingParamsMessage(missing []string) string {
	return fmt.Sprintf(msgMissingParamsFmt, strings.Join(missing, ", "))
}
