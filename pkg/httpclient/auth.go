package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nao1215/bookstore/pkg/session"
	"github.com/rs/zerolog"
)

// RefreshCookieName はリフレッシュトークンを運ぶCookieの名前。
const RefreshCookieName = "refreshToken"

// ErrInvalidCredentials はユーザー名またはパスワードが誤っている場合に返される。
var ErrInvalidCredentials = errors.New("ユーザー名またはパスワードが正しくありません")

// loginRequest はログインAPIのリクエストボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse はログイン・リフレッシュAPIのレスポンスボディ。
type tokenResponse struct {
	AuthToken string `json:"authToken"`
}

// AuthClient はログイン・リフレッシュ・ログアウトAPIを呼び出すクライアント。
//
// これらのAPIは認証ヘッダーを付けずに送信する。リフレッシュトークンはCookieとして
// 受け取り、Managerのストアに保存してリフレッシュ・ログアウト時に送り返す。
type AuthClient struct {
	client   *Client
	sessions *session.Manager
	logger   zerolog.Logger
}

// AuthOption はAuthClientの設定を変更するオプション。
type AuthOption func(*AuthClient)

// WithAuthLogger はログ出力先のロガーを設定する。
func WithAuthLogger(logger zerolog.Logger) AuthOption {
	return func(a *AuthClient) { a.logger = logger }
}

// WithAuthHTTPOptions は内部のHTTPクライアントにOptionを適用する。
func WithAuthHTTPOptions(opts ...Option) AuthOption {
	return func(a *AuthClient) {
		for _, opt := range opts {
			opt(a.client)
		}
	}
}

// NewAuthClient は新しいAuthClientを生成する。
// baseURLにはAPIのベースURL（例: "http://localhost:8080/api/v1"）を指定する。
func NewAuthClient(baseURL string, sessions *session.Manager, opts ...AuthOption) *AuthClient {
	a := &AuthClient{
		client:   New(baseURL),
		sessions: sessions,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login はユーザー名とパスワードでログインし、取得したトークンをManagerに保存する。
func (a *AuthClient) Login(ctx context.Context, username, password string) error {
	var out tokenResponse
	resp, err := a.client.doJSON(ctx, http.MethodPost, "/auth/login", loginRequest{
		Username: username,
		Password: password,
	}, &out)
	if err != nil {
		if HasStatus(err, http.StatusUnauthorized) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("ログインに失敗: %w", err)
	}
	if out.AuthToken == "" {
		return ErrNoToken
	}

	a.saveRefreshCookie(ctx, resp)
	if err := a.sessions.SetToken(ctx, out.AuthToken); err != nil {
		return fmt.Errorf("トークンの保存に失敗: %w", err)
	}
	a.logger.Info().Str("username", username).Msg("ログインしました")
	return nil
}

// Refresh は保存済みのリフレッシュトークンで新しいアクセストークンを取得する。
// 取得したトークンの保存は呼び出し元（Gateway）が行う。
func (a *AuthClient) Refresh(ctx context.Context) (string, error) {
	var out tokenResponse
	resp, err := a.client.doJSON(ctx, http.MethodPost, "/auth/refresh", nil, &out, a.attachRefreshCookie(ctx))
	if err != nil {
		return "", fmt.Errorf("トークンのリフレッシュに失敗: %w", err)
	}
	if out.AuthToken == "" {
		return "", ErrNoToken
	}
	a.saveRefreshCookie(ctx, resp)
	return out.AuthToken, nil
}

// Logout はログアウトAPIを呼び出し、ローカルのトークンを破棄する。
// API呼び出しの失敗はログに記録するだけで、ローカルの破棄は必ず行う。
func (a *AuthClient) Logout(ctx context.Context) error {
	if _, err := a.client.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil, a.attachRefreshCookie(ctx)); err != nil {
		a.logger.Warn().Err(err).Msg("ログアウトAPIの呼び出しに失敗しました")
	}

	var errs []error
	if err := a.sessions.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.sessions.Store().Delete(ctx, session.KeyRefreshToken); err != nil {
		errs = append(errs, fmt.Errorf("リフレッシュトークンの削除に失敗: %w", err))
	}
	return errors.Join(errs...)
}

// attachRefreshCookie は保存済みのリフレッシュトークンをCookieとして付与する。
func (a *AuthClient) attachRefreshCookie(ctx context.Context) requestEditor {
	return func(req *http.Request) {
		v, err := a.sessions.Store().Get(ctx, session.KeyRefreshToken)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				a.logger.Warn().Err(err).Msg("リフレッシュトークンの読み込みに失敗しました")
			}
			return
		}
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: v})
	}
}

// saveRefreshCookie はレスポンスのリフレッシュトークンCookieをストアに保存する。
// 有効期限切れ（削除指示）のCookieを受け取った場合はストアから削除する。
func (a *AuthClient) saveRefreshCookie(ctx context.Context, resp *http.Response) {
	if resp == nil {
		return
	}
	for _, c := range resp.Cookies() {
		if c.Name != RefreshCookieName {
			continue
		}
		var err error
		if c.Value == "" || c.MaxAge < 0 {
			err = a.sessions.Store().Delete(ctx, session.KeyRefreshToken)
		} else {
			err = a.sessions.Store().Set(ctx, session.KeyRefreshToken, c.Value)
		}
		if err != nil {
			a.logger.Warn().Err(err).Msg("リフレッシュトークンの保存に失敗しました")
		}
	}
}
