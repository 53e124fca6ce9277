package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/bookstore/internal/config"
	"github.com/nao1215/bookstore/pkg/event"
	"github.com/nao1215/bookstore/pkg/password"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound は指定したレコードが存在しない場合に返される。
var ErrNotFound = errors.New("レコードが存在しません")

// ErrInvalidReference は存在しない関連レコードを参照した場合に返される。
var ErrInvalidReference = errors.New("参照先のレコードが存在しません")

// OpenDB は設定に従ってカタログDBに接続し、マイグレーションを実行する。
func OpenDB(cfg config.DatabaseConfig, logger zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("未対応のデータベースドライバです: %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		// SQLiteは同時書き込みができないため接続を1本に絞る
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("データベース接続の取得に失敗: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(allModels...); err != nil {
		return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	return db, nil
}

// sqliteDSN はWALモードとビジータイムアウトを付与したDSNを返す。
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_journal_mode=WAL&_busy_timeout=5000"
}

// newGormLogger はgormのログをzerologに出力するロガーを生成する。
func newGormLogger(logger zerolog.Logger) gormlogger.Interface {
	return gormlogger.New(gormWriter{logger: logger}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// gormWriter はgormlogger.Writerをzerologに接続するアダプタ。
type gormWriter struct {
	logger zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.logger.Warn().Str("component", "gorm").Msgf(format, args...)
}

// Store はカタログDBへのアクセスを提供する。
type Store struct {
	db *gorm.DB
}

// NewStore はdbを使うStoreを生成する。
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping はDBへの疎通を確認する。
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close はDB接続を閉じる。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// list はモデルTの一覧をIDの昇順で取得する。
func list[T any](ctx context.Context, db *gorm.DB, limit, offset int, preloads ...string) ([]T, error) {
	q := db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var out []T
	if err := q.Order("id").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("一覧の取得に失敗: %w", err)
	}
	return out, nil
}

// find はIDでモデルTを1件取得する。
func find[T any](ctx context.Context, db *gorm.DB, id uint, preloads ...string) (*T, error) {
	q := db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var out T
	if err := q.First(&out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("レコードの取得に失敗: %w", err)
	}
	return &out, nil
}

// remove はIDでモデルTを論理削除する。
func remove[T any](ctx context.Context, db *gorm.DB, id uint) error {
	var zero T
	res := db.WithContext(ctx).Delete(&zero, id)
	if res.Error != nil {
		return fmt.Errorf("レコードの削除に失敗: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// exists はIDのモデルTが存在するかを返す。
func exists[T any](ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("レコードの確認に失敗: %w", err)
	}
	return count > 0, nil
}

// ListBooks は著者・表紙・ジャンル付きで書籍の一覧を取得する。
func (s *Store) ListBooks(ctx context.Context, limit, offset int) ([]Book, error) {
	return list[Book](ctx, s.db, limit, offset, "Author", "Cover", "Genres")
}

// GetBook は書籍を表紙の担当アーティスト付きで取得する。
func (s *Store) GetBook(ctx context.Context, id uint) (*Book, error) {
	return find[Book](ctx, s.db, id, "Author", "Cover", "Cover.Artists", "Genres")
}

// SaveBook は書籍を保存し、genresがnilでなければジャンルを置き換える。
// 存在しないジャンル名は新しく作成する。
func (s *Store) SaveBook(ctx context.Context, b *Book, genres []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists[Author](ctx, tx, b.AuthorID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("著者ID %d: %w", b.AuthorID, ErrInvalidReference)
		}

		if err := tx.Omit(clause.Associations).Save(b).Error; err != nil {
			return fmt.Errorf("書籍の保存に失敗: %w", err)
		}
		if genres == nil {
			return nil
		}

		gs, err := findOrCreateGenres(tx, genres)
		if err != nil {
			return err
		}
		if err := tx.Model(b).Association("Genres").Replace(gs); err != nil {
			return fmt.Errorf("ジャンルの更新に失敗: %w", err)
		}
		b.Genres = gs
		return nil
	})
}

// findOrCreateGenres は名前の一覧に対応するジャンルを取得し、存在しないものは作成する。
func findOrCreateGenres(tx *gorm.DB, names []string) ([]*Genre, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]*Genre, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}

		g := &Genre{}
		if err := tx.Where(Genre{Name: n}).FirstOrCreate(g).Error; err != nil {
			return nil, fmt.Errorf("ジャンル %q の作成に失敗: %w", n, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// DeleteBook は書籍を削除する。
func (s *Store) DeleteBook(ctx context.Context, id uint) error {
	return remove[Book](ctx, s.db, id)
}

// ListAuthors は著者の一覧を取得する。
func (s *Store) ListAuthors(ctx context.Context, limit, offset int) ([]Author, error) {
	return list[Author](ctx, s.db, limit, offset)
}

// GetAuthor は著者を著作一覧付きで取得する。
func (s *Store) GetAuthor(ctx context.Context, id uint) (*Author, error) {
	return find[Author](ctx, s.db, id, "Books")
}

// SaveAuthor は著者を作成または更新する。
func (s *Store) SaveAuthor(ctx context.Context, a *Author) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error; err != nil {
		return fmt.Errorf("著者の保存に失敗: %w", err)
	}
	return nil
}

// DeleteAuthor は著者を削除する。
func (s *Store) DeleteAuthor(ctx context.Context, id uint) error {
	return remove[Author](ctx, s.db, id)
}

// ListArtists はアーティストの一覧を取得する。
func (s *Store) ListArtists(ctx context.Context, limit, offset int) ([]Artist, error) {
	return list[Artist](ctx, s.db, limit, offset)
}

// GetArtist はアーティストを担当表紙付きで取得する。
func (s *Store) GetArtist(ctx context.Context, id uint) (*Artist, error) {
	return find[Artist](ctx, s.db, id, "Covers")
}

// SaveArtist はアーティストを作成または更新する。
func (s *Store) SaveArtist(ctx context.Context, a *Artist) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error; err != nil {
		return fmt.Errorf("アーティストの保存に失敗: %w", err)
	}
	return nil
}

// DeleteArtist はアーティストを削除する。
func (s *Store) DeleteArtist(ctx context.Context, id uint) error {
	return remove[Artist](ctx, s.db, id)
}

// ListCovers は担当アーティスト付きで表紙の一覧を取得する。
func (s *Store) ListCovers(ctx context.Context, limit, offset int) ([]Cover, error) {
	return list[Cover](ctx, s.db, limit, offset, "Artists")
}

// GetCover は表紙を担当アーティスト付きで取得する。
func (s *Store) GetCover(ctx context.Context, id uint) (*Cover, error) {
	return find[Cover](ctx, s.db, id, "Artists")
}

// SaveCover は表紙を保存し、artistIDsがnilでなければ担当アーティストを置き換える。
func (s *Store) SaveCover(ctx context.Context, c *Cover, artistIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists[Book](ctx, tx, c.BookID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("書籍ID %d: %w", c.BookID, ErrInvalidReference)
		}

		var artists []*Artist
		if artistIDs != nil {
			if len(artistIDs) > 0 {
				if err := tx.Where("id IN ?", artistIDs).Find(&artists).Error; err != nil {
					return fmt.Errorf("アーティストの取得に失敗: %w", err)
				}
			}
			if len(artists) != len(uniqueIDs(artistIDs)) {
				return fmt.Errorf("アーティストID %v: %w", artistIDs, ErrInvalidReference)
			}
		}

		if err := tx.Omit(clause.Associations).Save(c).Error; err != nil {
			return fmt.Errorf("表紙の保存に失敗: %w", err)
		}
		if artistIDs == nil {
			return nil
		}
		if err := tx.Model(c).Association("Artists").Replace(artists); err != nil {
			return fmt.Errorf("担当アーティストの更新に失敗: %w", err)
		}
		c.Artists = artists
		return nil
	})
}

// DeleteCover は表紙を削除する。
func (s *Store) DeleteCover(ctx context.Context, id uint) error {
	return remove[Cover](ctx, s.db, id)
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	m := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// UserByUsername はユーザー名でユーザーを取得する。
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return &u, nil
}

// UserByRefreshToken は有効期限内のリフレッシュトークンを持つユーザーを取得する。
func (s *Store) UserByRefreshToken(ctx context.Context, refreshToken string, now time.Time) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	if !u.RefreshExpiresAt.After(now) {
		return nil, ErrNotFound
	}
	return &u, nil
}

// SetRefreshToken はユーザーのリフレッシュトークンと有効期限を更新する。
func (s *Store) SetRefreshToken(ctx context.Context, userID uint, refreshToken string, expiresAt time.Time) error {
	err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(map[string]any{
		"refresh_token":      refreshToken,
		"refresh_expires_at": expiresAt,
	}).Error
	if err != nil {
		return fmt.Errorf("リフレッシュトークンの保存に失敗: %w", err)
	}
	return nil
}

// ClearRefreshToken はリフレッシュトークンを無効化する。該当がなくてもエラーにしない。
func (s *Store) ClearRefreshToken(ctx context.Context, refreshToken string) error {
	err := s.db.WithContext(ctx).Model(&User{}).Where("refresh_token = ?", refreshToken).Updates(map[string]any{
		"refresh_token":      nil,
		"refresh_expires_at": time.Time{},
	}).Error
	if err != nil {
		return fmt.Errorf("リフレッシュトークンの削除に失敗: %w", err)
	}
	return nil
}

// EnsureAdmin は管理者ユーザーが存在しなければ作成する。作成した場合はtrueを返す。
func (s *Store) EnsureAdmin(ctx context.Context, username, plain string) (bool, error) {
	if _, err := s.UserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	hashed, err := password.Hash(plain)
	if err != nil {
		return false, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&User{Username: username, Password: hashed}).Error; err != nil {
		return false, fmt.Errorf("管理者ユーザーの作成に失敗: %w", err)
	}
	return true, nil
}

// EventFilter はイベント履歴の絞り込み条件。ゼロ値のフィールドは条件に含めない。
type EventFilter struct {
	AggregateType event.AggregateType
	AggregateID   string
}

// AppendEvent はイベントを履歴に追加する。
// ev.VersionにはAggregateごとの次の連番を設定する。
func (s *Store) AppendEvent(ctx context.Context, ev *event.Event) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current int64
		err := tx.Model(&EventRecord{}).
			Where("aggregate_type = ? AND aggregate_id = ?", string(ev.AggregateType), ev.AggregateID).
			Select("COALESCE(MAX(version), 0)").
			Row().Scan(&current)
		if err != nil {
			return fmt.Errorf("イベントのバージョン取得に失敗: %w", err)
		}

		rec := EventRecord{
			ID:            ev.ID,
			AggregateType: string(ev.AggregateType),
			AggregateID:   ev.AggregateID,
			EventType:     string(ev.EventType),
			Data:          string(ev.Data),
			Version:       current + 1,
			CreatedAt:     ev.CreatedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("イベントの保存に失敗: %w", err)
		}
		ev.Version = rec.Version
		return nil
	})
}

// ListEvents は条件に一致するイベントを記録順に取得する。
func (s *Store) ListEvents(ctx context.Context, f EventFilter, limit, offset int) ([]EventRecord, error) {
	q := s.db.WithContext(ctx)
	if f.AggregateType != "" {
		q = q.Where("aggregate_type = ?", string(f.AggregateType))
	}
	if f.AggregateID != "" {
		q = q.Where("aggregate_id = ?", f.AggregateID)
	}
	var out []EventRecord
	if err := q.Order("seq").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("イベント履歴の取得に失敗: %w", err)
	}
	return out, nil
}
