package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/bookstore/pkg/catalogapi"
	"github.com/nao1215/bookstore/pkg/password"
	"github.com/nao1215/bookstore/pkg/token"
)

// refreshCookieName はリフレッシュトークンを運ぶCookieの名前。
const refreshCookieName = "refreshToken"

const errInvalidCredentials = "認証情報が正しくありません"

// setRefreshCookie はリフレッシュトークンCookieを設定する。maxAgeが負の場合はCookieを削除する。
func (s *Server) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.Auth.CookieSecure {
		// 別オリジンのフロントエンドからcredentials付きで送れるようにする
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     s.cfg.Auth.CookiePath,
		MaxAge:   maxAge,
		Secure:   s.cfg.Auth.CookieSecure,
		HttpOnly: true,
		SameSite: sameSite,
	})
}

// handleLogin はログインを処理するハンドラを返す。
// 成功するとアクセストークンを返し、リフレッシュトークンをCookieに設定する。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalogapi.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ユーザー名とパスワードは必須です"})
			return
		}

		ctx := c.Request.Context()
		user, err := s.store.UserByUsername(ctx, req.Username)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
				return
			}
			s.respondStoreError(c, err, "")
			return
		}
		ok, err := password.Verify(user.Password, req.Password)
		if err != nil || !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
			return
		}

		authToken, err := s.issuer.Issue(user.ID, user.Username)
		if err != nil {
			s.logger.Error().Err(err).Msg("アクセストークンの生成に失敗しました")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの生成に失敗しました"})
			return
		}
		refresh, err := token.NewRefreshToken()
		if err != nil {
			s.logger.Error().Err(err).Msg("リフレッシュトークンの生成に失敗しました")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの生成に失敗しました"})
			return
		}
		if err := s.store.SetRefreshToken(ctx, user.ID, refresh, s.now().Add(s.cfg.Auth.RefreshTTL)); err != nil {
			s.respondStoreError(c, err, "")
			return
		}

		s.setRefreshCookie(c, refresh, int(s.cfg.Auth.RefreshTTL.Seconds()))
		s.logger.Info().Str("username", user.Username).Msg("ログインしました")
		c.JSON(http.StatusOK, catalogapi.TokenResponse{AuthToken: authToken})
	}
}

// handleRefresh はCookieのリフレッシュトークンで新しいアクセストークンを発行するハンドラを返す。
func (s *Server) handleRefresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		refresh, err := c.Cookie(refreshCookieName)
		if err != nil || refresh == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
			return
		}

		user, err := s.store.UserByRefreshToken(c.Request.Context(), refresh, s.now())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
				return
			}
			s.respondStoreError(c, err, "")
			return
		}

		authToken, err := s.issuer.Issue(user.ID, user.Username)
		if err != nil {
			s.logger.Error().Err(err).Msg("アクセストークンの生成に失敗しました")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの生成に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, catalogapi.TokenResponse{AuthToken: authToken})
	}
}

// handleLogout はログアウトを処理するハンドラを返す。
// Cookieを削除し、DB上のリフレッシュトークンを無効化する。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		refresh, err := c.Cookie(refreshCookieName)
		if err != nil || refresh == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
			return
		}

		s.setRefreshCookie(c, "", -1)
		if err := s.store.ClearRefreshToken(c.Request.Context(), refresh); err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ログアウトしました"})
	}
}
