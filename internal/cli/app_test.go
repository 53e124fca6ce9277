package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nao1215/bookstore/internal/config"
	"github.com/nao1215/bookstore/pkg/session"
	"github.com/rs/zerolog"
)

func TestOpenStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.SessionConfig
		wantErr bool
	}{
		{name: "memoryストアを開ける", cfg: config.SessionConfig{Store: config.StoreMemory}},
		{
			name: "sqliteストアは親ディレクトリを作成して開ける",
			cfg: config.SessionConfig{
				Store: config.StoreSQLite,
				Path:  filepath.Join(t.TempDir(), "nested", "session.db"),
			},
		},
		{
			name: "redisストアを開ける",
			cfg: config.SessionConfig{
				Store:       config.StoreRedis,
				RedisAddr:   mr.Addr(),
				RedisPrefix: "test:",
				TTL:         time.Hour,
			},
		},
		{
			name:    "接続できないredisはエラー",
			cfg:     config.SessionConfig{Store: config.StoreRedis, RedisAddr: "127.0.0.1:1"},
			wantErr: true,
		},
		{
			name:    "未対応のストアはエラー",
			cfg:     config.SessionConfig{Store: "etcd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, closeFn, err := openStore(t.Context(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("エラーが返されませんでした")
				}
				return
			}
			if err != nil {
				t.Fatalf("openStore()でエラーが発生: %v", err)
			}
			defer closeFn()

			if err := store.Set(t.Context(), session.KeyAuthToken, "tok"); err != nil {
				t.Fatalf("Set()でエラーが発生: %v", err)
			}
			got, err := store.Get(t.Context(), session.KeyAuthToken)
			if err != nil || got != "tok" {
				t.Errorf("Get() = %q, %v, want tok", got, err)
			}

			if tt.cfg.Store == config.StoreRedis {
				key := tt.cfg.RedisPrefix + session.KeyAuthToken
				if !mr.Exists(key) {
					t.Fatalf("キー %q がありません: keys=%v", key, mr.Keys())
				}
				if ttl := mr.TTL(key); ttl != tt.cfg.TTL {
					t.Errorf("TTL = %v, want %v", ttl, tt.cfg.TTL)
				}
			}
		})
	}
}

// TestNewApp_RestoresSession はSQLiteストアに保存したログイン状態が次回の起動で復元されることを検証する。
func TestNewApp_RestoresSession(t *testing.T) {
	t.Parallel()

	apiURL := startCatalogServer(t)
	sess := config.SessionConfig{
		Store: config.StoreSQLite,
		Path:  filepath.Join(t.TempDir(), "session.db"),
	}

	first, err := NewApp(t.Context(), newClientConfig(apiURL, sess), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewApp()でエラーが発生: %v", err)
	}
	mustExecute(t, first, testAdminPassword+"\n", "login", "-u", testAdminUser)
	if err := first.Close(); err != nil {
		t.Fatalf("Close()でエラーが発生: %v", err)
	}

	second, err := NewApp(t.Context(), newClientConfig(apiURL, sess), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewApp()でエラーが発生: %v", err)
	}
	t.Cleanup(func() { second.Close() })

	if !second.sessions.IsAuthenticated() {
		t.Fatal("保存したトークンが復元されていません")
	}
	if _, err := second.store.Get(t.Context(), session.KeyRefreshToken); err != nil {
		t.Errorf("リフレッシュトークンが保存されていません: %v", err)
	}
	if out := mustExecute(t, second, "", "admin", "authors", "list"); !strings.Contains(out, "該当するデータがありません") {
		t.Errorf("admin authors list = %q", out)
	}
}

func TestNewApp_InvalidURL(t *testing.T) {
	t.Parallel()

	for _, u := range []string{"localhost:8080", "://bad", "/api/v1"} {
		_, err := NewApp(t.Context(), newClientConfig(u, config.SessionConfig{Store: config.StoreMemory}), zerolog.Nop(),
			WithStore(session.NewMemoryStore()))
		if err == nil {
			t.Errorf("NewApp(%q) でエラーが返されませんでした", u)
		}
	}
}

func TestApiBasePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "http://localhost:8080/api/v1", want: "/api/v1"},
		{in: "https://catalog.example.com", want: ""},
		{in: "https://example.com/bookstore/api/v1", want: "/bookstore/api/v1"},
	}
	for _, tt := range tests {
		got, err := apiBasePath(tt.in)
		if err != nil {
			t.Errorf("apiBasePath(%q)でエラーが発生: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("apiBasePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDescribeError(t *testing.T) {
	t.Parallel()

	plain := errors.New("接続できません")
	if got := describeError(plain); got != plain {
		t.Errorf("StatusError以外はそのまま返すこと: got %v", got)
	}
}
