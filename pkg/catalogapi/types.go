// Package catalogapi はカタログAPIのリクエスト/レスポンス型と、それを扱うクライアントを提供する。
package catalogapi

import (
	"strings"
	"time"

	"github.com/nao1215/bookstore/pkg/event"
)

// Author は著者。
type Author struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Books     []Book    `json:"books,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName は「名 姓」の形式で氏名を返す。
func (a Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Artist は表紙を手がけるアーティスト。
type Artist struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Covers    []Cover   `json:"covers,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName は「名 姓」の形式で氏名を返す。
func (a Artist) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Book は書籍。
type Book struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	PublishedDate time.Time `json:"published_date"`
	DigitalOnly   bool      `json:"digital_only"`
	Pages         uint      `json:"pages"`
	Description   string    `json:"description"`
	ISBN          string    `json:"isbn"`
	Price         float64   `json:"price"`
	AuthorID      uint      `json:"author_id"`
	Author        *Author   `json:"author,omitempty"`
	Cover         *Cover    `json:"cover,omitempty"`
	Genres        []string  `json:"genres"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Cover は書籍の表紙。
type Cover struct {
	ID          uint      `json:"id"`
	DesignIdeas string    `json:"design_ideas"`
	ImageURL    string    `json:"image_url"`
	BookID      uint      `json:"book_id"`
	ArtistIDs   []uint    `json:"artist_ids"`
	Artists     []Artist  `json:"artists,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuthorInput は著者の作成・更新リクエスト。
// nilのフィールドは更新しない。
type AuthorInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// MissingFields は作成時に必須で未指定のフィールド名を返す。
func (in AuthorInput) MissingFields() []string {
	return missing(field{"first_name", present(in.FirstName)}, field{"last_name", present(in.LastName)})
}

// SetFields は指定されたフィールド名を返す。
func (in AuthorInput) SetFields() []string {
	return specified(field{"first_name", in.FirstName != nil}, field{"last_name", in.LastName != nil})
}

// ArtistInput はアーティストの作成・更新リクエスト。
type ArtistInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// MissingFields は作成時に必須で未指定のフィールド名を返す。
func (in ArtistInput) MissingFields() []string {
	return missing(field{"first_name", present(in.FirstName)}, field{"last_name", present(in.LastName)})
}

// SetFields は指定されたフィールド名を返す。
func (in ArtistInput) SetFields() []string {
	return specified(field{"first_name", in.FirstName != nil}, field{"last_name", in.LastName != nil})
}

// BookInput は書籍の作成・更新リクエスト。
// Genresはジャンル名の一覧で、存在しないジャンルはサーバー側で作成される。
type BookInput struct {
	Title         *string    `json:"title,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	DigitalOnly   *bool      `json:"digital_only,omitempty"`
	Pages         *uint      `json:"pages,omitempty"`
	Description   *string    `json:"description,omitempty"`
	ISBN          *string    `json:"isbn,omitempty"`
	Price         *float64   `json:"price,omitempty"`
	AuthorID      *uint      `json:"author_id,omitempty"`
	Genres        []string   `json:"genres,omitempty"`
}

// MissingFields は作成時に必須で未指定のフィールド名を返す。
func (in BookInput) MissingFields() []string {
	return missing(
		field{"title", present(in.Title)},
		field{"published_date", in.PublishedDate != nil},
		field{"author_id", in.AuthorID != nil},
	)
}

// SetFields は指定されたフィールド名を返す。
func (in BookInput) SetFields() []string {
	return specified(
		field{"title", in.Title != nil},
		field{"published_date", in.PublishedDate != nil},
		field{"digital_only", in.DigitalOnly != nil},
		field{"pages", in.Pages != nil},
		field{"description", in.Description != nil},
		field{"isbn", in.ISBN != nil},
		field{"price", in.Price != nil},
		field{"author_id", in.AuthorID != nil},
		field{"genres", in.Genres != nil},
	)
}

// CoverInput は表紙の作成・更新リクエスト。
// ArtistIDsを指定した場合は担当アーティストを置き換える。
type CoverInput struct {
	DesignIdeas *string `json:"design_ideas,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	BookID      *uint   `json:"book_id,omitempty"`
	ArtistIDs   []uint  `json:"artist_ids,omitempty"`
}

// MissingFields は作成時に必須で未指定のフィールド名を返す。
func (in CoverInput) MissingFields() []string {
	return missing(field{"design_ideas", present(in.DesignIdeas)}, field{"book_id", in.BookID != nil})
}

// SetFields は指定されたフィールド名を返す。
func (in CoverInput) SetFields() []string {
	return specified(
		field{"design_ideas", in.DesignIdeas != nil},
		field{"image_url", in.ImageURL != nil},
		field{"book_id", in.BookID != nil},
		field{"artist_ids", in.ArtistIDs != nil},
	)
}

// LoginRequest はログインAPIのリクエストボディ。
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse はログイン・リフレッシュAPIのレスポンスボディ。
type TokenResponse struct {
	AuthToken string `json:"authToken"`
}

// ErrorResponse はエラー時のレスポンスボディ。
type ErrorResponse struct {
	Error string `json:"error"`
}

// EventFilter は管理操作の履歴の絞り込み条件。ゼロ値のフィールドは条件に含めない。
type EventFilter struct {
	AggregateType event.AggregateType
	AggregateID   uint
}

// Page は一覧取得のページング指定。
// ゼロ値の場合はサーバーのデフォルト（limit=10, offset=0）が使われる。
type Page struct {
	Limit  int
	Offset int
}

type field struct {
	name string
	set  bool
}

// present は文字列が指定され、空白以外の文字を含むかを返す。
func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func missing(fields ...field) []string {
	var out []string
	for _, f := range fields {
		if !f.set {
			out = append(out, f.name)
		}
	}
	return out
}

func specified(fields ...field) []string {
	var out []string
	for _, f := range fields {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}
