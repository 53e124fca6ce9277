package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/bookstore/internal/config"
	"github.com/nao1215/bookstore/pkg/middleware"
	"github.com/nao1215/bookstore/pkg/token"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Server はカタログAPIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	cfg    *config.Config
	store  *Store
	// issuer はアクセストークンの発行と検証を行う。
	issuer *token.Issuer
	logger zerolog.Logger
	// now は現在時刻の取得関数。リフレッシュトークンの有効期限判定に使う。
	now func() time.Time
}

// ServerOption はServerの設定を変更するオプション。
type ServerOption func(*Server)

// WithServerClock は現在時刻の取得関数を差し替える。
// トークンの発行・検証とリフレッシュトークンの有効期限判定に使われる。
func WithServerClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// NewServer は設定に従ってDBに接続し、新しいカタログサーバーを生成する。
// 管理者ユーザーが存在しなければ作成する。
func NewServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...ServerOption) (*Server, error) {
	db, err := OpenDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	s, err := NewServerWithDB(ctx, cfg, db, logger, opts...)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return s, nil
}

// NewServerWithDB は接続済みのdbを使うカタログサーバーを生成する。
// dbのマイグレーションは呼び出し側で済ませておく必要がある。
func NewServerWithDB(ctx context.Context, cfg *config.Config, db *gorm.DB, logger zerolog.Logger, opts ...ServerOption) (*Server, error) {
	if cfg.GinMode != "" && gin.Mode() != cfg.GinMode {
		gin.SetMode(cfg.GinMode)
	}

	s := &Server{
		router: gin.New(),
		cfg:    cfg,
		store:  NewStore(db),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.issuer = token.NewIssuer(cfg.Auth.JWTSecret,
		token.WithIssuerName(cfg.Auth.Issuer),
		token.WithTTL(cfg.Auth.AccessTTL),
		token.WithClock(s.now),
	)

	created, err := s.store.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("管理者ユーザーの初期化に失敗: %w", err)
	}
	if created {
		logger.Info().Str("username", cfg.Auth.AdminUsername).Msg("管理者ユーザーを作成しました")
	}

	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Recovery(logger))
	s.router.Use(middleware.Logger(logger))
	s.router.Use(middleware.CORS(cfg.AllowedOrigins))
	s.setupRoutes()
	return s, nil
}

// Handler はサーバーのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Issuer はトークンの発行者を返す。
func (s *Server) Issuer() *token.Issuer {
	return s.issuer
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("カタログサーバーを起動します")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("カタログサーバーを停止します")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("シャットダウンに失敗: %w", err)
	}
	return nil
}

// Close はDB接続を閉じる。
func (s *Server) Close() error {
	return s.store.Close()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group(s.cfg.BasePath)

	// ヘルスチェック
	api.GET("/health", s.handleHealth())

	// 公開API
	api.GET("/books", s.handleListBooks())
	api.GET("/books/:id", s.handleGetBook())
	api.GET("/authors", s.handleListAuthors())
	api.GET("/authors/:id", s.handleGetAuthor())
	api.GET("/artists", s.handleListArtists())
	api.GET("/artists/:id", s.handleGetArtist())
	api.GET("/covers", s.handleListCovers())

	auth := api.Group("/auth")
	{
		auth.POST("/login", s.handleLogin())
		auth.POST("/refresh", s.handleRefresh())
		auth.POST("/logout", s.handleLogout())
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuth(s.issuer))
	{
		books := admin.Group("/books")
		books.GET("", s.handleListBooks())
		books.POST("", s.handleCreateBook())
		books.PATCH("/:id", s.handleUpdateBook())
		books.DELETE("/:id", s.handleDeleteBook())

		authors := admin.Group("/authors")
		authors.GET("", s.handleListAuthors())
		authors.POST("", s.handleCreateAuthor())
		authors.PATCH("/:id", s.handleUpdateAuthor())
		authors.DELETE("/:id", s.handleDeleteAuthor())

		artists := admin.Group("/artists")
		artists.GET("", s.handleListArtists())
		artists.POST("", s.handleCreateArtist())
		artists.PATCH("/:id", s.handleUpdateArtist())
		artists.DELETE("/:id", s.handleDeleteArtist())

		covers := admin.Group("/covers")
		covers.GET("", s.handleListCovers())
		covers.POST("", s.handleCreateCover())
		covers.PATCH("/:id", s.handleUpdateCover())
		covers.DELETE("/:id", s.handleDeleteCover())

		admin.GET("/events", s.handleListEvents())
	}
}

// handleHealth はDBの疎通を含むヘルスチェックを処理するハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Error().Err(err).Msg("DBのヘルスチェックに失敗しました")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "service": "catalog"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "catalog"})
	}
}
