package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// newRecoveryRouter はRecoveryのログをbufに書き込むルーターを生成する。
func newRecoveryRouter(buf *bytes.Buffer) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Recovery(zerolog.New(buf)))
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/books/:id", func(_ *gin.Context) {
		panic("書籍の保存中にパニック")
	})
	router.GET("/err", func(_ *gin.Context) {
		panic(errors.New("接続が切断されました"))
	})
	return router
}

// TestRecovery はRecoveryミドルウェアを検証する。
func TestRecovery(t *testing.T) {
	t.Parallel()

	t.Run("パニック時に500を返しリクエスト情報をエラーログに出力すること", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		router := newRecoveryRouter(&buf)
		req := httptest.NewRequest(http.MethodPost, "/books/42", nil)
		req.Header.Set(HeaderRequestID, "req-panic-1")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["error"] != "内部サーバーエラーが発生しました" {
			t.Errorf("error = %q", body["error"])
		}

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("ログのパースに失敗: %v, log=%s", err, buf.String())
		}
		want := map[string]string{
			"level":      "error",
			"method":     http.MethodPost,
			"path":       "/books/42",
			"request_id": "req-panic-1",
			"panic":      "書籍の保存中にパニック",
			"message":    "パニックが発生しました",
		}
		for k, v := range want {
			if entry[k] != v {
				t.Errorf("ログの%s = %v, want %q", k, entry[k], v)
			}
		}
	})

	t.Run("error型のパニック値はエラーメッセージとして記録されること", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		router := newRecoveryRouter(&buf)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/err", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("ログのパースに失敗: %v, log=%s", err, buf.String())
		}
		if entry["panic"] != "接続が切断されました" {
			t.Errorf("ログのpanic = %v", entry["panic"])
		}
		// リクエストIDはRequestIDミドルウェアが生成した値になる
		if id, _ := entry["request_id"].(string); id == "" || id != w.Header().Get(HeaderRequestID) {
			t.Errorf("ログのrequest_id = %v, レスポンスヘッダー = %q", entry["request_id"], w.Header().Get(HeaderRequestID))
		}
	})

	t.Run("パニックがなければログを出力せず次のリクエストも処理できること", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		router := newRecoveryRouter(&buf)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if buf.Len() != 0 {
			t.Errorf("パニックなしでログが出力された: %s", buf.String())
		}

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/books/1", nil))
		buf.Reset()

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
		if w.Code != http.StatusOK {
			t.Errorf("パニック後のステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})
}
