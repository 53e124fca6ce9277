package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// KeyAuthToken はアクセストークンを保存するストアのキー。
const KeyAuthToken = "authToken"

// KeyRefreshToken はリフレッシュ用Cookieの値を保存するストアのキー。
const KeyRefreshToken = "refreshToken"

// Manager はセッショントークンを保持する。
// トークンはメモリ上に保持し、変更のたびにStoreへ書き込む。
type Manager struct {
	mu     sync.RWMutex
	token  string
	store  Store
	logger zerolog.Logger
}

// ManagerOption はManagerの設定を変更するオプション。
type ManagerOption func(*Manager)

// WithLogger はログ出力先のロガーを設定する。
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager はstoreを永続化先とするManagerを生成する。
// storeがnilの場合はMemoryStoreを使用する。
func NewManager(store Store, opts ...ManagerOption) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	m := &Manager{
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store は永続化先のストアを返す。
func (m *Manager) Store() Store {
	return m.store
}

// Restore はストアに保存されたトークンを読み込む。
// トークンが保存されていない場合はエラーにせず未認証状態のままにする。
func (m *Manager) Restore(ctx context.Context) error {
	tok, err := m.store.Get(ctx, KeyAuthToken)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("トークンの復元に失敗: %w", err)
	}

	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()

	m.logger.Debug().Msg("保存済みトークンを復元しました")
	return nil
}

// Token は現在のトークンを返す。トークンがない場合はfalseを返す。
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

// IsAuthenticated はトークンを保持しているかを返す。
// トークンの有効期限は確認しない。
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Token()
	return ok
}

// SetToken はトークンを更新し、ストアに書き込む。
// 空文字列を渡した場合はClearと同じ動作になる。
// ストアへの書き込みに失敗した場合もメモリ上のトークンは更新済みとなる。
func (m *Manager) SetToken(ctx context.Context, tok string) error {
	if tok == "" {
		return m.Clear(ctx)
	}

	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()

	if err := m.store.Set(ctx, KeyAuthToken, tok); err != nil {
		return fmt.Errorf("トークンの保存に失敗: %w", err)
	}
	return nil
}

// Clear はトークンを破棄し、ストアからも削除する。
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()

	if err := m.store.Delete(ctx, KeyAuthToken); err != nil {
		return fmt.Errorf("トークンの削除に失敗: %w", err)
	}
	return nil
}
