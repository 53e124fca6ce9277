package catalog

import (
	"encoding/json"
	"time"

	"github.com/nao1215/bookstore/pkg/catalogapi"
	"github.com/nao1215/bookstore/pkg/event"
	"gorm.io/gorm"
)

// Author は著者テーブルのモデル。
type Author struct {
	gorm.Model
	FirstName string `gorm:"size:255;not null"`
	LastName  string `gorm:"size:255;not null"`
	Books     []Book
}

// Artist はアーティストテーブルのモデル。
type Artist struct {
	gorm.Model
	FirstName string   `gorm:"size:255;not null"`
	LastName  string   `gorm:"size:255;not null"`
	Covers    []*Cover `gorm:"many2many:artist_covers;"`
}

// Book は書籍テーブルのモデル。
type Book struct {
	gorm.Model
	Title         string `gorm:"size:255;not null"`
	PublishedDate time.Time
	DigitalOnly   bool
	Pages         uint
	Description   string
	ISBN          string `gorm:"size:32"`
	Price         float64
	AuthorID      uint `gorm:"index;not null"`
	Author        *Author
	Cover         *Cover
	Genres        []*Genre `gorm:"many2many:book_genres;"`
}

// Cover は表紙テーブルのモデル。
type Cover struct {
	gorm.Model
	DesignIdeas string
	ImageURL    string
	BookID      uint      `gorm:"index;not null"`
	Artists     []*Artist `gorm:"many2many:artist_covers;"`
}

// Genre はジャンルテーブルのモデル。
type Genre struct {
	gorm.Model
	Name  string  `gorm:"size:100;uniqueIndex;not null"`
	Books []*Book `gorm:"many2many:book_genres;"`
}

// User は管理者ユーザーテーブルのモデル。
// Passwordにはargon2idのハッシュを保存する。
type User struct {
	gorm.Model
	Username         string  `gorm:"size:255;uniqueIndex;not null"`
	Password         string  `gorm:"not null"`
	RefreshToken     *string `gorm:"size:64;uniqueIndex"`
	RefreshExpiresAt time.Time
}

// EventRecord は管理操作の履歴テーブルのモデル。
// Seqは全体の記録順、VersionはAggregateごとの連番。
type EventRecord struct {
	Seq           uint   `gorm:"primaryKey;autoIncrement"`
	ID            string `gorm:"size:36;uniqueIndex;not null"`
	AggregateType string `gorm:"size:32;not null;uniqueIndex:idx_events_aggregate_version"`
	AggregateID   string `gorm:"size:64;not null;uniqueIndex:idx_events_aggregate_version"`
	EventType     string `gorm:"size:64;not null"`
	Data          string `gorm:"type:text;not null"`
	Version       int64  `gorm:"not null;uniqueIndex:idx_events_aggregate_version"`
	CreatedAt     time.Time
}

// TableName はテーブル名を返す。
func (EventRecord) TableName() string { return "events" }

// allModels はAutoMigrateの対象となるモデルの一覧。
var allModels = []any{&Author{}, &Artist{}, &Book{}, &Cover{}, &Genre{}, &User{}, &EventRecord{}}

func toAPIAuthor(a *Author) catalogapi.Author {
	out := catalogapi.Author{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	for i := range a.Books {
		out.Books = append(out.Books, toAPIBook(&a.Books[i]))
	}
	return out
}

func toAPIArtist(a *Artist) catalogapi.Artist {
	out := catalogapi.Artist{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	for _, c := range a.Covers {
		out.Covers = append(out.Covers, toAPICover(c))
	}
	return out
}

func toAPIBook(b *Book) catalogapi.Book {
	out := catalogapi.Book{
		ID:            b.ID,
		Title:         b.Title,
		PublishedDate: b.PublishedDate,
		DigitalOnly:   b.DigitalOnly,
		Pages:         b.Pages,
		Description:   b.Description,
		ISBN:          b.ISBN,
		Price:         b.Price,
		AuthorID:      b.AuthorID,
		Genres:        []string{},
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.Author != nil {
		a := toAPIAuthor(b.Author)
		out.Author = &a
	}
	if b.Cover != nil {
		c := toAPICover(b.Cover)
		out.Cover = &c
	}
	for _, g := range b.Genres {
		out.Genres = append(out.Genres, g.Name)
	}
	return out
}

func toAPICover(c *Cover) catalogapi.Cover {
	out := catalogapi.Cover{
		ID:          c.ID,
		DesignIdeas: c.DesignIdeas,
		ImageURL:    c.ImageURL,
		BookID:      c.BookID,
		ArtistIDs:   []uint{},
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for _, a := range c.Artists {
		out.ArtistIDs = append(out.ArtistIDs, a.ID)
		out.Artists = append(out.Artists, catalogapi.Artist{
			ID:        a.ID,
			FirstName: a.FirstName,
			LastName:  a.LastName,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		})
	}
	return out
}

func toEvent(r *EventRecord) event.Event {
	return event.Event{
		ID:            r.ID,
		AggregateID:   r.AggregateID,
		AggregateType: event.AggregateType(r.AggregateType),
		EventType:     event.Type(r.EventType),
		Data:          json.RawMessage(r.Data),
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
	}
}

func mapSlice[M any, A any](in []M, f func(*M) A) []A {
	out := make([]A, 0, len(in))
	for i := range in {
		out = append(out, f(&in[i]))
	}
	return out
}
