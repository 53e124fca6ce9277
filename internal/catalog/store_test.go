package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/bookstore/internal/config"
	"github.com/nao1215/bookstore/pkg/event"
	"github.com/nao1215/bookstore/pkg/password"
	"github.com/rs/zerolog"
)

// setupTestStore はテスト用のStoreを一時ディレクトリのSQLiteで構築する。
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenDB(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "store.db"),
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenDB()でエラーが発生: %v", err)
	}
	s := NewStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenDB(config.DatabaseConfig{Driver: "mysql"}, zerolog.Nop())
	if err == nil {
		t.Fatal("未対応のドライバでエラーが返されませんでした")
	}
}

func TestSqliteDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "catalog.db", want: "catalog.db?_journal_mode=WAL&_busy_timeout=5000"},
		{in: "file::memory:?cache=shared", want: "file::memory:?cache=shared"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestStore_RefreshToken はリフレッシュトークンの保存・検索・無効化を検証する。
func TestStore_RefreshToken(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := t.Context()
	if _, err := s.EnsureAdmin(ctx, "admin", "secret"); err != nil {
		t.Fatalf("EnsureAdmin()でエラーが発生: %v", err)
	}
	u, err := s.UserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("UserByUsername()でエラーが発生: %v", err)
	}
	if ok, err := password.Verify(u.Password, "secret"); err != nil || !ok {
		t.Errorf("保存されたパスワードハッシュが一致しません: ok=%v, err=%v", ok, err)
	}

	now := time.Now()
	if err := s.SetRefreshToken(ctx, u.ID, "refresh-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("SetRefreshToken()でエラーが発生: %v", err)
	}

	t.Run("有効期限内なら取得できる", func(t *testing.T) {
		got, err := s.UserByRefreshToken(ctx, "refresh-1", now)
		if err != nil {
			t.Fatalf("UserByRefreshToken()でエラーが発生: %v", err)
		}
		if got.ID != u.ID {
			t.Errorf("ID = %d, want %d", got.ID, u.ID)
		}
	})

	t.Run("有効期限切れはErrNotFound", func(t *testing.T) {
		_, err := s.UserByRefreshToken(ctx, "refresh-1", now.Add(2*time.Hour))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("無効化後はErrNotFound", func(t *testing.T) {
		if err := s.ClearRefreshToken(ctx, "refresh-1"); err != nil {
			t.Fatalf("ClearRefreshToken()でエラーが発生: %v", err)
		}
		_, err := s.UserByRefreshToken(ctx, "refresh-1", now)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		if err := s.ClearRefreshToken(ctx, "refresh-1"); err != nil {
			t.Errorf("2回目のClearRefreshToken()でエラーが発生: %v", err)
		}
	})
}

// TestStore_Genres はジャンル名の重複排除と再利用を検証する。
func TestStore_Genres(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := t.Context()
	author := &Author{FirstName: "Osamu", LastName: "Dazai"}
	if err := s.SaveAuthor(ctx, author); err != nil {
		t.Fatalf("SaveAuthor()でエラーが発生: %v", err)
	}

	for _, title := range []string{"No Longer Human", "The Setting Sun"} {
		b := &Book{Title: title, AuthorID: author.ID}
		if err := s.SaveBook(ctx, b, []string{"Novel", " Novel ", "", "Tragedy"}); err != nil {
			t.Fatalf("SaveBook()でエラーが発生: %v", err)
		}
		if len(b.Genres) != 2 {
			t.Errorf("%s: len(Genres) = %d, want 2", title, len(b.Genres))
		}
	}

	var count int64
	if err := s.db.Model(&Genre{}).Count(&count).Error; err != nil {
		t.Fatalf("ジャンル数の取得に失敗: %v", err)
	}
	if count != 2 {
		t.Errorf("ジャンル数 = %d, want 2", count)
	}

	t.Run("genresがnilなら既存のジャンルを維持する", func(t *testing.T) {
		books, err := s.ListBooks(ctx, 10, 0)
		if err != nil {
			t.Fatalf("ListBooks()でエラーが発生: %v", err)
		}
		b := &books[0]
		b.Title = "人間失格"
		if err := s.SaveBook(ctx, b, nil); err != nil {
			t.Fatalf("SaveBook()でエラーが発生: %v", err)
		}
		got, err := s.GetBook(ctx, b.ID)
		if err != nil {
			t.Fatalf("GetBook()でエラーが発生: %v", err)
		}
		if got.Title != "人間失格" || len(got.Genres) != 2 {
			t.Errorf("Title = %q, len(Genres) = %d", got.Title, len(got.Genres))
		}
	})
}

// TestStore_AppendEvent はAggregateごとにバージョンが採番されることを検証する。
func TestStore_AppendEvent(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := t.Context()

	appendEvent := func(aggregateType event.AggregateType, id string, eventType event.Type) *event.Event {
		t.Helper()
		ev, err := event.New(id, aggregateType, eventType, event.ChangeData{Username: "admin"})
		if err != nil {
			t.Fatalf("event.New()でエラーが発生: %v", err)
		}
		if err := s.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent()でエラーが発生: %v", err)
		}
		return ev
	}

	if v := appendEvent(event.AggregateTypeBook, "1", event.TypeBookCreated).Version; v != 1 {
		t.Errorf("書籍1の1件目のVersion = %d, want 1", v)
	}
	if v := appendEvent(event.AggregateTypeBook, "1", event.TypeBookUpdated).Version; v != 2 {
		t.Errorf("書籍1の2件目のVersion = %d, want 2", v)
	}
	if v := appendEvent(event.AggregateTypeBook, "2", event.TypeBookCreated).Version; v != 1 {
		t.Errorf("書籍2の1件目のVersion = %d, want 1", v)
	}
	if v := appendEvent(event.AggregateTypeAuthor, "1", event.TypeAuthorCreated).Version; v != 1 {
		t.Errorf("著者1の1件目のVersion = %d, want 1", v)
	}

	all, err := s.ListEvents(ctx, EventFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("ListEvents()でエラーが発生: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("全件数 = %d, want 4", len(all))
	}

	book1, err := s.ListEvents(ctx, EventFilter{AggregateType: event.AggregateTypeBook, AggregateID: "1"}, 10, 0)
	if err != nil {
		t.Fatalf("ListEvents()でエラーが発生: %v", err)
	}
	if len(book1) != 2 || book1[0].EventType != string(event.TypeBookCreated) || book1[1].Version != 2 {
		t.Errorf("書籍1のイベント = %+v", book1)
	}

	dup := appendEvent(event.AggregateTypeCover, "1", event.TypeCoverCreated)
	if err := s.AppendEvent(ctx, dup); err == nil {
		t.Error("同じIDのイベントを保存してもエラーが返されませんでした")
	}
}
