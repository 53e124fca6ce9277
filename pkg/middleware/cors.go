package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS は指定されたオリジンからのクロスオリジンリクエストを許可するGinミドルウェアを返す。
// リフレッシュトークンをCookieで受け渡すため、資格情報付きのリクエストを許可する。
// 許可されていないオリジンからのリクエストは403で拒否される。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		// 空のリストはcors.Newでエラーになるため、すべてのオリジンを拒否する関数を設定する
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}
