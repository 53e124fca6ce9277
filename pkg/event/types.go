package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeBook は書籍エンティティを表す。
	AggregateTypeBook AggregateType = "Book"
	// AggregateTypeAuthor は著者エンティティを表す。
	AggregateTypeAuthor AggregateType = "Author"
	// AggregateTypeArtist はアーティストエンティティを表す。
	AggregateTypeArtist AggregateType = "Artist"
	// AggregateTypeCover は表紙エンティティを表す。
	AggregateTypeCover AggregateType = "Cover"
)

// AggregateTypes は定義済みのAggregateTypeの一覧。
var AggregateTypes = []AggregateType{AggregateTypeBook, AggregateTypeAuthor, AggregateTypeArtist, AggregateTypeCover}

// Type はイベントの種類を表す。
type Type string

const (
	// TypeBookCreated は書籍が作成されたことを表す。
	TypeBookCreated Type = "BookCreated"
	// TypeBookUpdated は書籍が更新されたことを表す。
	TypeBookUpdated Type = "BookUpdated"
	// TypeBookDeleted は書籍が削除されたことを表す。
	TypeBookDeleted Type = "BookDeleted"

	TypeAuthorCreated Type = "AuthorCreated"
	TypeAuthorUpdated Type = "AuthorUpdated"
	TypeAuthorDeleted Type = "AuthorDeleted"

	TypeArtistCreated Type = "ArtistCreated"
	TypeArtistUpdated Type = "ArtistUpdated"
	TypeArtistDeleted Type = "ArtistDeleted"

	TypeCoverCreated Type = "CoverCreated"
	TypeCoverUpdated Type = "CoverUpdated"
	TypeCoverDeleted Type = "CoverDeleted"
)

// Event はカタログに対する管理操作を記録する不変のイベントレコードを表す。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティのID。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// Version はAggregate内でのイベントの順序番号。1から始まり、保存時に採番される。
	Version int64 `json:"version"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// ChangeData は作成・更新・削除イベントに共通のデータ。
type ChangeData struct {
	// Username は操作した管理者のユーザー名。
	Username string `json:"username"`
	// RequestID は操作したリクエストのID。
	RequestID string `json:"request_id,omitempty"`
	// Fields はリクエストで指定されたフィールド名。削除の場合は空。
	Fields []string `json:"fields,omitempty"`
	// Summary は対象を識別しやすくするための表示名（書籍のタイトルなど）。
	Summary string `json:"summary,omitempty"`
}
