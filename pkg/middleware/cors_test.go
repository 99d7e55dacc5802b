package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// newCORSRouter はCORSミドルウェアを適用したテスト用ルーターを返す。
func newCORSRouter(origins []string) *gin.Engine {
	router := gin.New()
	router.Use(CORS(origins))
	router.GET("/nodes/list", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	return router
}

// TestCORS はCORSミドルウェアを検証する。
func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("許可されたオリジンからのリクエストにCORSヘッダーが設定されること", func(t *testing.T) {
		t.Parallel()

		router := newCORSRouter([]string{"http://localhost:3000", "https://example.com"})
		req := httptest.NewRequest(http.MethodGet, "/nodes/list", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, X-Request-ID", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("許可されていないオリジンにはCORSヘッダーが設定されないこと", func(t *testing.T) {
		t.Parallel()

		router := newCORSRouter([]string{"http://localhost:3000"})
		req := httptest.NewRequest(http.MethodGet, "/nodes/list", nil)
		req.Header.Set("Origin", "https://evil.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("許可リストが空の場合はCORSヘッダーが設定されないこと", func(t *testing.T) {
		t.Parallel()

		router := newCORSRouter(nil)
		req := httptest.NewRequest(http.MethodGet, "/nodes/list", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("OPTIONSリクエストで204が返りリクエストが中断されること", func(t *testing.T) {
		t.Parallel()

		handlerCalled := false
		router := gin.New()
		router.Use(CORS([]string{"http://localhost:3000"}))
		router.OPTIONS("/nodes/list", func(c *gin.Context) {
			handlerCalled = true
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodOptions, "/nodes/list", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, handlerCalled, "OPTIONSリクエストでハンドラが呼ばれた")
	})
}
