package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/nao1215/bookstore/internal/config"
	"github.com/nao1215/bookstore/pkg/catalogapi"
	"github.com/nao1215/bookstore/pkg/httpclient"
	"github.com/nao1215/bookstore/pkg/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App はbookctlの各コマンドが共有する依存関係。
type App struct {
	cfg      *config.ClientConfig
	logger   zerolog.Logger
	store    session.Store
	sessions *session.Manager
	auth     *httpclient.AuthClient
	gateway  *httpclient.Gateway
	api      *catalogapi.Client
	closeFn  func() error
}

// Option はAppの設定を変更するオプション。
type Option func(*App)

// WithStore は設定に関係なくstoreをセッションの保存先に使う。
func WithStore(store session.Store) Option {
	return func(a *App) { a.store = store }
}

// NewApp は設定からセッションストア・Gateway・APIクライアントを組み立てる。
// 保存済みのトークンがあれば読み込む。
func NewApp(ctx context.Context, cfg *config.ClientConfig, logger zerolog.Logger, opts ...Option) (*App, error) {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		closeFn: func() error { return nil },
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		store, closeFn, err := openStore(logger.WithContext(ctx), cfg.Session)
		if err != nil {
			return nil, err
		}
		a.store = store
		a.closeFn = closeFn
	}

	basePath, err := apiBasePath(cfg.APIURL)
	if err != nil {
		_ = a.closeFn()
		return nil, err
	}

	a.sessions = session.NewManager(a.store, session.WithLogger(logger))
	if err := a.sessions.Restore(ctx); err != nil {
		_ = a.closeFn()
		return nil, err
	}
	a.auth = httpclient.NewAuthClient(cfg.APIURL, a.sessions,
		httpclient.WithAuthLogger(logger),
		httpclient.WithAuthHTTPOptions(httpclient.WithTimeout(cfg.Timeout)),
	)
	a.gateway = httpclient.NewGateway(a.sessions, a.auth,
		httpclient.WithBasePath(basePath),
		httpclient.WithExpiryLeeway(cfg.ExpiryLeeway),
		httpclient.WithRefreshTimeout(cfg.RefreshTimeout),
		httpclient.WithGatewayLogger(logger),
	)
	a.api = catalogapi.New(cfg.APIURL,
		httpclient.WithTransport(a.gateway),
		httpclient.WithTimeout(cfg.Timeout),
	)
	return a, nil
}

// Close はセッションストアの接続を閉じる。
func (a *App) Close() error {
	return a.closeFn()
}

// openStore は設定に応じたセッションストアを開く。
func openStore(ctx context.Context, cfg config.SessionConfig) (session.Store, func() error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return session.NewMemoryStore(), func() error { return nil }, nil

	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("セッションディレクトリの作成に失敗: %w", err)
		}
		store, err := session.OpenSQLiteStore(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("Redisへの接続に失敗: %w", err)
		}
		store := session.NewRedisStore(client,
			session.WithRedisPrefix(cfg.RedisPrefix),
			session.WithRedisTTL(cfg.TTL),
		)
		return store, client.Close, nil
	}
	return nil, nil, fmt.Errorf("未対応のセッションストアです: %q", cfg.Store)
}

// apiBasePath はAPIのベースURLからパス部分を取り出す。
func apiBasePath(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("APIのURLが不正です: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("APIのURLにはスキームとホストが必要です: " + apiURL)
	}
	return u.Path, nil
}
