package catalogapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nao1215/bookstore/pkg/event"
	"github.com/nao1215/bookstore/pkg/httpclient"
)

// Client はカタログAPIの型付きクライアント。
// 管理者用APIを呼び出す場合はhttpclient.WithTransportでGatewayを設定する。
type Client struct {
	api *httpclient.Client
}

// New は新しいClientを生成する。
// baseURLにはAPIのベースURL（例: "http://localhost:8080/api/v1"）を指定する。
func New(baseURL string, opts ...httpclient.Option) *Client {
	return &Client{api: httpclient.New(baseURL, opts...)}
}

// Health はサーバーのヘルスチェックを行う。
func (c *Client) Health(ctx context.Context) error {
	return c.api.GetJSON(ctx, "/health", nil)
}

// ListBooks は書籍の一覧を取得する。
func (c *Client) ListBooks(ctx context.Context, p Page) ([]Book, error) {
	return list[Book](ctx, c, "/books", p)
}

// GetBook は書籍の詳細を取得する。
func (c *Client) GetBook(ctx context.Context, id uint) (*Book, error) {
	return get[Book](ctx, c, "/books", id)
}

// ListAuthors は著者の一覧を取得する。
func (c *Client) ListAuthors(ctx context.Context, p Page) ([]Author, error) {
	return list[Author](ctx, c, "/authors", p)
}

// GetAuthor は著者の詳細を著作一覧付きで取得する。
func (c *Client) GetAuthor(ctx context.Context, id uint) (*Author, error) {
	return get[Author](ctx, c, "/authors", id)
}

// ListArtists はアーティストの一覧を取得する。
func (c *Client) ListArtists(ctx context.Context, p Page) ([]Artist, error) {
	return list[Artist](ctx, c, "/artists", p)
}

// GetArtist はアーティストの詳細を担当表紙付きで取得する。
func (c *Client) GetArtist(ctx context.Context, id uint) (*Artist, error) {
	return get[Artist](ctx, c, "/artists", id)
}

// ListCovers は表紙の一覧を取得する。
func (c *Client) ListCovers(ctx context.Context, p Page) ([]Cover, error) {
	return list[Cover](ctx, c, "/covers", p)
}

// AdminListBooks は管理者用APIで書籍の一覧を取得する。
func (c *Client) AdminListBooks(ctx context.Context, p Page) ([]Book, error) {
	return list[Book](ctx, c, "/admin/books", p)
}

// CreateBook は書籍を作成する。
func (c *Client) CreateBook(ctx context.Context, in BookInput) (*Book, error) {
	return create[Book](ctx, c, "/admin/books", in)
}

// UpdateBook は書籍のうちinで指定したフィールドを更新する。
func (c *Client) UpdateBook(ctx context.Context, id uint, in BookInput) (*Book, error) {
	return update[Book](ctx, c, "/admin/books", id, in)
}

// DeleteBook は書籍を削除する。
func (c *Client) DeleteBook(ctx context.Context, id uint) error {
	return c.remove(ctx, "/admin/books", id)
}

// AdminListAuthors は管理者用APIで著者の一覧を取得する。
func (c *Client) AdminListAuthors(ctx context.Context, p Page) ([]Author, error) {
	return list[Author](ctx, c, "/admin/authors", p)
}

// CreateAuthor は著者を作成する。
func (c *Client) CreateAuthor(ctx context.Context, in AuthorInput) (*Author, error) {
	return create[Author](ctx, c, "/admin/authors", in)
}

// UpdateAuthor は著者を更新する。
func (c *Client) UpdateAuthor(ctx context.Context, id uint, in AuthorInput) (*Author, error) {
	return update[Author](ctx, c, "/admin/authors", id, in)
}

// DeleteAuthor は著者を削除する。
func (c *Client) DeleteAuthor(ctx context.Context, id uint) error {
	return c.remove(ctx, "/admin/authors", id)
}

// AdminListArtists は管理者用APIでアーティストの一覧を取得する。
func (c *Client) AdminListArtists(ctx context.Context, p Page) ([]Artist, error) {
	return list[Artist](ctx, c, "/admin/artists", p)
}

// CreateArtist はアーティストを作成する。
func (c *Client) CreateArtist(ctx context.Context, in ArtistInput) (*Artist, error) {
	return create[Artist](ctx, c, "/admin/artists", in)
}

// UpdateArtist はアーティストを更新する。
func (c *Client) UpdateArtist(ctx context.Context, id uint, in ArtistInput) (*Artist, error) {
	return update[Artist](ctx, c, "/admin/artists", id, in)
}

// DeleteArtist はアーティストを削除する。
func (c *Client) DeleteArtist(ctx context.Context, id uint) error {
	return c.remove(ctx, "/admin/artists", id)
}

// AdminListCovers は管理者用APIで表紙の一覧を取得する。
func (c *Client) AdminListCovers(ctx context.Context, p Page) ([]Cover, error) {
	return list[Cover](ctx, c, "/admin/covers", p)
}

// CreateCover は表紙を作成する。
func (c *Client) CreateCover(ctx context.Context, in CoverInput) (*Cover, error) {
	return create[Cover](ctx, c, "/admin/covers", in)
}

// UpdateCover は表紙を更新する。
func (c *Client) UpdateCover(ctx context.Context, id uint, in CoverInput) (*Cover, error) {
	return update[Cover](ctx, c, "/admin/covers", id, in)
}

// DeleteCover は表紙を削除する。
func (c *Client) DeleteCover(ctx context.Context, id uint) error {
	return c.remove(ctx, "/admin/covers", id)
}

// AdminListEvents は管理操作の履歴を記録順に取得する。
func (c *Client) AdminListEvents(ctx context.Context, f EventFilter, p Page) ([]event.Event, error) {
	v := p.values()
	if f.AggregateType != "" {
		v.Set("aggregate_type", string(f.AggregateType))
	}
	if f.AggregateID > 0 {
		v.Set("aggregate_id", strconv.FormatUint(uint64(f.AggregateID), 10))
	}
	var out []event.Event
	if err := c.api.GetJSON(ctx, "/admin/events"+encode(v), &out); err != nil {
		return nil, fmt.Errorf("/admin/eventsの取得に失敗: %w", err)
	}
	return out, nil
}

func list[T any](ctx context.Context, c *Client, path string, p Page) ([]T, error) {
	var out []T
	if err := c.api.GetJSON(ctx, path+p.query(), &out); err != nil {
		return nil, fmt.Errorf("%sの取得に失敗: %w", path, err)
	}
	return out, nil
}

func get[T any](ctx context.Context, c *Client, path string, id uint) (*T, error) {
	var out T
	if err := c.api.GetJSON(ctx, itemPath(path, id), &out); err != nil {
		return nil, fmt.Errorf("%sの取得に失敗: %w", itemPath(path, id), err)
	}
	return &out, nil
}

func create[T any](ctx context.Context, c *Client, path string, in any) (*T, error) {
	var out T
	if err := c.api.PostJSON(ctx, path, in, &out); err != nil {
		return nil, fmt.Errorf("%sの作成に失敗: %w", path, err)
	}
	return &out, nil
}

func update[T any](ctx context.Context, c *Client, path string, id uint, in any) (*T, error) {
	var out T
	if err := c.api.PatchJSON(ctx, itemPath(path, id), in, &out); err != nil {
		return nil, fmt.Errorf("%sの更新に失敗: %w", itemPath(path, id), err)
	}
	return &out, nil
}

func (c *Client) remove(ctx context.Context, path string, id uint) error {
	if err := c.api.Delete(ctx, itemPath(path, id)); err != nil {
		return fmt.Errorf("%sの削除に失敗: %w", itemPath(path, id), err)
	}
	return nil
}

func itemPath(path string, id uint) string {
	return path + "/" + strconv.FormatUint(uint64(id), 10)
}

// query はページング指定をクエリ文字列に変換する。
func (p Page) query() string {
	return encode(p.values())
}

func (p Page) values() url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v
}

func encode(v url.Values) string {
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
