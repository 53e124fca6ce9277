package httpclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nao1215/bookstore/pkg/session"
	"github.com/nao1215/bookstore/pkg/token"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBasePath はAPIのベースパスのデフォルト値。
	DefaultBasePath = "/api/v1"
	// DefaultProtectedPrefix は認証が必要なパスのプレフィックスのデフォルト値。
	DefaultProtectedPrefix = "/admin"
	// DefaultRefreshTimeout はリフレッシュAPI呼び出しのタイムアウトのデフォルト値。
	DefaultRefreshTimeout = 10 * time.Second
)

// ErrNoToken はリフレッシュAPIがトークンを返さなかった場合のエラー。
var ErrNoToken = errors.New("リフレッシュAPIがトークンを返しませんでした")

// Refresher は期限切れのトークンを新しいトークンに交換する。
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// RefresherFunc は関数をRefresherとして扱うためのアダプタ。
type RefresherFunc func(ctx context.Context) (string, error)

// Refresh はf(ctx)を呼び出す。
func (f RefresherFunc) Refresh(ctx context.Context) (string, error) {
	return f(ctx)
}

// Gateway は認証が必要なリクエストにBearerトークンを付与するRoundTripper。
//
// トークンが期限切れの場合はRefresherで新しいトークンを取得する。リフレッシュは
// 期限切れになったトークンごとに1回だけ実行され、その間に期限切れを検出した
// 他のリクエストはリフレッシュの完了を待ってから新しいトークンを付与する。
// リフレッシュに失敗した場合、待機していたリクエストはトークンなしで送信され、
// 認証エラーの扱いは呼び出し元に委ねる。
type Gateway struct {
	next      http.RoundTripper
	sessions  *session.Manager
	refresher Refresher
	logger    zerolog.Logger

	basePath       string
	prefix         string
	now            func() time.Time
	leeway         time.Duration
	refreshTimeout time.Duration

	// group は期限切れトークンをキーにリフレッシュを1回にまとめる。
	// group.Doで待機している呼び出しが保留中のリクエストの列にあたる。
	group singleflight.Group
	// refreshing は実行中のリフレッシュの数。
	refreshing atomic.Int32
}

// GatewayOption はGatewayの設定を変更するオプション。
type GatewayOption func(*Gateway)

// WithNext はトークン付与後のリクエストを送信するRoundTripperを設定する。
func WithNext(rt http.RoundTripper) GatewayOption {
	return func(g *Gateway) { g.next = rt }
}

// WithBasePath はAPIのベースパスを設定する。保護対象の判定はこのパスからの相対パスで行う。
func WithBasePath(p string) GatewayOption {
	return func(g *Gateway) { g.basePath = strings.TrimRight(p, "/") }
}

// WithProtectedPrefix は認証が必要なパスのプレフィックスを設定する。
func WithProtectedPrefix(prefix string) GatewayOption {
	return func(g *Gateway) { g.prefix = "/" + strings.Trim(prefix, "/") }
}

// WithGatewayClock は現在時刻の取得関数を差し替える。
func WithGatewayClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

// WithExpiryLeeway は有効期限のこの時間前からトークンを期限切れとみなす。
func WithExpiryLeeway(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.leeway = d }
}

// WithRefreshTimeout はリフレッシュAPI呼び出しのタイムアウトを設定する。
func WithRefreshTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.refreshTimeout = d }
}

// WithGatewayLogger はログ出力先のロガーを設定する。
func WithGatewayLogger(logger zerolog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logger }
}

// NewGateway は新しいGatewayを生成する。
func NewGateway(sessions *session.Manager, refresher Refresher, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		next:           http.DefaultTransport,
		sessions:       sessions,
		refresher:      refresher,
		logger:         zerolog.Nop(),
		basePath:       DefaultBasePath,
		prefix:         DefaultProtectedPrefix,
		now:            time.Now,
		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RoundTrip はDispatchで認証ヘッダーを付与したリクエストを送信する。
func (g *Gateway) RoundTrip(req *http.Request) (*http.Response, error) {
	return g.next.RoundTrip(g.Dispatch(req))
}

// Refreshing はリフレッシュAPIの呼び出し中かを返す。
func (g *Gateway) Refreshing() bool {
	return g.refreshing.Load() > 0
}

// Dispatch は送信すべきリクエストを返す。
// 保護対象外のパスやトークンがない場合は引数のリクエストをそのまま返す。
// 有効なトークンがある場合はAuthorizationヘッダーを付与した複製を返す。
// 認証状態を理由にエラーを返すことはない。
func (g *Gateway) Dispatch(req *http.Request) *http.Request {
	if !g.isProtected(req.URL.Path) {
		return req
	}

	tok, ok := g.sessions.Token()
	if !ok {
		return req
	}
	if !g.expired(tok) {
		return withBearer(req, tok)
	}

	g.refresh(req.Context(), tok)

	// 待機中にトークンが差し替わっている可能性があるため読み直す
	tok, ok = g.sessions.Token()
	if !ok || g.expired(tok) {
		return req
	}
	return withBearer(req, tok)
}

// refresh は期限切れのトークンstaleに対するリフレッシュを1回だけ実行する。
// 同じstaleで呼び出された他の呼び出しは実行中のリフレッシュの完了を待つ。
func (g *Gateway) refresh(ctx context.Context, stale string) {
	_, _, shared := g.group.Do(stale, func() (any, error) {
		// 直前に完了したリフレッシュで新しいトークンが保存済みならAPIを呼ばない
		if cur, ok := g.sessions.Token(); ok && cur != stale && !g.expired(cur) {
			return cur, nil
		}

		g.refreshing.Add(1)
		defer g.refreshing.Add(-1)

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.refreshTimeout)
		defer cancel()

		fresh, err := g.refresher.Refresh(rctx)
		if err == nil && fresh == "" {
			err = ErrNoToken
		}
		if err != nil {
			g.logger.Warn().Err(err).Msg("トークンのリフレッシュに失敗しました")
			return nil, err
		}

		if err := g.sessions.SetToken(rctx, fresh); err != nil {
			// メモリ上のトークンは更新済みのため処理は継続する
			g.logger.Warn().Err(err).Msg("リフレッシュしたトークンの保存に失敗しました")
		}
		g.logger.Debug().Msg("トークンをリフレッシュしました")
		return fresh, nil
	})
	if shared {
		g.logger.Debug().Msg("実行中のリフレッシュの完了を待ちました")
	}
}

// isProtected はpathが認証の必要なパスかを返す。
func (g *Gateway) isProtected(path string) bool {
	rel := path
	if g.basePath != "" {
		trimmed, found := strings.CutPrefix(path, g.basePath)
		if !found || (trimmed != "" && !strings.HasPrefix(trimmed, "/")) {
			return false
		}
		rel = trimmed
	}
	return rel == g.prefix || strings.HasPrefix(rel, g.prefix+"/")
}

// expired はトークンが期限切れかを返す。
// 有効期限を読み取れないトークンは期限切れとして扱う。
func (g *Gateway) expired(tok string) bool {
	exp, err := token.ExpiresAt(tok)
	if err != nil {
		return true
	}
	return !exp.After(g.now().Add(g.leeway))
}

// withBearer はAuthorizationヘッダーを付与したリクエストの複製を返す。
func withBearer(req *http.Request, tok string) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+tok)
	return out
}
