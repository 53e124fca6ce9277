package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/bookstore/pkg/catalogapi"
	"github.com/nao1215/bookstore/pkg/event"
	"github.com/nao1215/bookstore/pkg/middleware"
)

// applyBook はinの指定されたフィールドをbに反映する。
func applyBook(b *Book, in catalogapi.BookInput) {
	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.PublishedDate != nil {
		b.PublishedDate = *in.PublishedDate
	}
	if in.DigitalOnly != nil {
		b.DigitalOnly = *in.DigitalOnly
	}
	if in.Pages != nil {
		b.Pages = *in.Pages
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.ISBN != nil {
		b.ISBN = strings.TrimSpace(*in.ISBN)
	}
	if in.Price != nil {
		b.Price = *in.Price
	}
	if in.AuthorID != nil {
		b.AuthorID = *in.AuthorID
	}
}

func applyAuthor(a *Author, in catalogapi.AuthorInput) {
	if in.FirstName != nil {
		a.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		a.LastName = strings.TrimSpace(*in.LastName)
	}
}

func applyArtist(a *Artist, in catalogapi.ArtistInput) {
	if in.FirstName != nil {
		a.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		a.LastName = strings.TrimSpace(*in.LastName)
	}
}

func applyCover(cv *Cover, in catalogapi.CoverInput) {
	if in.DesignIdeas != nil {
		cv.DesignIdeas = *in.DesignIdeas
	}
	if in.ImageURL != nil {
		cv.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.BookID != nil {
		cv.BookID = *in.BookID
	}
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// recordChange は管理操作をログに出力し、イベント履歴に追加する。
// 履歴の保存に失敗しても操作自体は成功として扱う。
func (s *Server) recordChange(c *gin.Context, aggregateType event.AggregateType, eventType event.Type, id uint, fields []string, summary string) {
	username := middleware.GetUsername(c)
	requestID := middleware.GetRequestID(c)
	aggregateID := strconv.FormatUint(uint64(id), 10)
	s.logger.Info().
		Str("event_type", string(eventType)).
		Str("aggregate_id", aggregateID).
		Str("username", username).
		Str("request_id", requestID).
		Msg("管理操作を実行しました")

	ev, err := event.New(aggregateID, aggregateType, eventType, event.ChangeData{
		Username:  username,
		RequestID: requestID,
		Fields:    fields,
		Summary:   summary,
	})
	if err == nil {
		ev.CreatedAt = s.now().UTC()
		err = s.store.AppendEvent(c.Request.Context(), ev)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(eventType)).Str("aggregate_id", aggregateID).Msg("イベント履歴の保存に失敗しました")
	}
}

// handleCreateBook は書籍の作成を処理するハンドラを返す。
func (s *Server) handleCreateBook() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalogapi.BookInput
		if !bindInput(c, &in) || !requireFields(c, in.MissingFields()) {
			return
		}
		genres := in.Genres
		if genres == nil {
			genres = []string{}
		}

		var b Book
		applyBook(&b, in)
		ctx := c.Request.Context()
		if err := s.store.SaveBook(ctx, &b, genres); err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		created, err := s.store.GetBook(ctx, b.ID)
		if err != nil {
			s.respondStoreError(c, err, "書籍が見つかりません")
			return
		}
		s.recordChange(c, event.AggregateTypeBook, event.TypeBookCreated, b.ID, in.SetFields(), created.Title)
		c.JSON(http.StatusCreated, toAPIBook(created))
	}
}

// handleUpdateBook は書籍の部分更新を処理するハンドラを返す。
func (s *Server) handleUpdateBook() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var in catalogapi.BookInput
		if !bindInput(c, &in) {
			return
		}

		ctx := c.Request.Context()
		b, err := find[Book](ctx, s.store.db, id)
		if err != nil {
			s.respondStoreError(c, err, "書籍が見つかりません")
			return
		}
		applyBook(b, in)
		if err := s.store.SaveBook(ctx, b, in.Genres); err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		updated, err := s.store.GetBook(ctx, id)
		if err != nil {
			s.respondStoreError(c, err, "書籍が見つかりません")
			return
		}
		s.recordChange(c, event.AggregateTypeBook, event.TypeBookUpdated, id, in.SetFields(), updated.Title)
		c.JSON(http.StatusOK, toAPIBook(updated))
	}
}

// handleDeleteBook は書籍の削除を処理するハンドラを返す。
func (s *Server) handleDeleteBook() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.store.DeleteBook(c.Request.Context(), id); err != nil {
			s.respondStoreError(c, err, "書籍が見つかりません")
			return
		}
		s.recordChange(c, event.AggregateTypeBook, event.TypeBookDeleted, id, nil, "")
		c.Status(http.StatusNoContent)
	}
}

// handleCreateAuthor は著者の作成を処理するハンドラを返す。
func (s *Server) handleCreateAuthor() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalogapi.AuthorInput
		if !bindInput(c, &in) || !requireFields(c, in.MissingFields()) {
			return
		}
		var a Author
		applyAuthor(&a, in)
		if err := s.store.SaveAuthor(c.Request.Context(), &a); err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		s.recordChange(c, event.AggregateTypeAuthor, event.TypeAuthorCreated, a.ID, in.SetFields(), fullName(a.FirstName, a.LastName))
		c.JSON(http.StatusCreated, toAPIAuthor(&a))
	}
}

// handleUpdateAuthor は著者の部分更新を処理するハンドラを返す。
func (s *Server) handleUpdateAuthor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var in catalogapi.AuthorInput
		if !bindInput(c, &in) {
			return
		}

		ctx := c.Request.Context()
		a, err := find[Author](ctx, s.store.db, id)
		if err != nil {
			s.respondStoreError(c, err, "著者が見つかりません")
			return
		}
		applyAuthor(a, in)
		if err := s.store.SaveAuthor(ctx, a); err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		s.recordChange(c, event.AggregateTypeAuthor, event.TypeAuthorUpdated, id, in.SetFields(), fullName(a.FirstName, a.LastName))
		c.JSON(http.StatusOK, toAPIAuthor(a))
	}
}

// handleDeleteAuthor は著者の削除を処理するハンドラを返す。
func (s *Server) handleDeleteAuthor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.store.DeleteAuthor(c.Request.Context(), id); err != nil {
			s.respondStoreError(c, err, "著者が見つかりません")
			return
		}
		s.recordChange(c, event.AggregateTypeAuthor, event.TypeAuthorDeleted, id, nil, "")
		c.Status(http.StatusNoContent)
	}
}

// handleCreateArtist はアーティストの作成を処理するハンドラを返す。
func (s *Server) handleCreateArtist() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalogapi.ArtistInput
		if !bindInput(c, &in) || !requireFields(c, in.MissingFields()) {
			return
		}
		var a Artist
		applyArtist(&a, in)
		if err := s.store.SaveArtist(c.Request.Context(), &a); err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		s.recordChange(c, event.AggregateTypeArtist, event.TypeArtistCreated, a.ID, in.SetFields(), fullName(a.FirstName, a.LastName))
		c.JSON(http.StatusCreated, toAPIArtist(&a))
	}
}

// handleUpdateArtist はアーティストの部分更新を処理するハンドラを返す。
func (s *Server) handleUpdateArtist() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var in catalogapi.ArtistInput
		if !bindInput(c, &in) {
			return
		}

		ctx := c.Request.Context()
		a, err := find[Artist](ctx, s.store.db, id)
		if err != nil {
			s.respondStoreError(c, err, "アーティストが見つかりません")
			return
		}
		applyArtist(a, in)
		if err := s.store.SaveArtist(ctx, a); err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		s.recordChange(c, event.AggregateTypeArtist, event.TypeArtistUpdated, id, in.SetFields(), fullName(a.FirstName, a.LastName))
		c.JSON(http.StatusOK, toAPIArtist(a))
	}
}

// handleDeleteArtist はアーティストの削除を処理するハンドラを返す。
func (s *Server) handleDeleteArtist() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.store.DeleteArtist(c.Request.Context(), id); err != nil {
			s.respondStoreError(c, err, "アーティストが見つかりません")
			return
		}
		s.recordChange(c, event.AggregateTypeArtist, event.TypeArtistDeleted, id, nil, "")
		c.Status(http.StatusNoContent)
	}
}

// handleCreateCover は表紙の作成を処理するハンドラを返す。
func (s *Server) handleCreateCover() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalogapi.CoverInput
		if !bindInput(c, &in) || !requireFields(c, in.MissingFields()) {
			return
		}
		artistIDs := in.ArtistIDs
		if artistIDs == nil {
			artistIDs = []uint{}
		}

		var cv Cover
		applyCover(&cv, in)
		ctx := c.Request.Context()
		if err := s.store.SaveCover(ctx, &cv, artistIDs); err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		s.recordChange(c, event.AggregateTypeCover, event.TypeCoverCreated, cv.ID, in.SetFields(), cv.DesignIdeas)
		c.JSON(http.StatusCreated, toAPICover(&cv))
	}
}

// handleUpdateCover は表紙の部分更新を処理するハンドラを返す。
func (s *Server) handleUpdateCover() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var in catalogapi.CoverInput
		if !bindInput(c, &in) {
			return
		}

		ctx := c.Request.Context()
		cv, err := s.store.GetCover(ctx, id)
		if err != nil {
			s.respondStoreError(c, err, "表紙が見つかりません")
			return
		}
		applyCover(cv, in)
		if err := s.store.SaveCover(ctx, cv, in.ArtistIDs); err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		s.recordChange(c, event.AggregateTypeCover, event.TypeCoverUpdated, id, in.SetFields(), cv.DesignIdeas)
		c.JSON(http.StatusOK, toAPICover(cv))
	}
}

// handleDeleteCover は表紙の削除を処理するハンドラを返す。
func (s *Server) handleDeleteCover() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.store.DeleteCover(c.Request.Context(), id); err != nil {
			s.respondStoreError(c, err, "表紙が見つかりません")
			return
		}
		s.recordChange(c, event.AggregateTypeCover, event.TypeCoverDeleted, id, nil, "")
		c.Status(http.StatusNoContent)
	}
}

// handleListEvents は管理操作の履歴の取得を処理するハンドラを返す。
// aggregate_typeとaggregate_idで対象を絞り込める。
func (s *Server) handleListEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, err := pageParams(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var f EventFilter
		if v := c.Query("aggregate_type"); v != "" {
			if f.AggregateType, err = event.ParseAggregateType(v); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		if v := c.Query("aggregate_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 32)
			if err != nil || id == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "aggregate_idは正の整数で指定してください"})
				return
			}
			f.AggregateID = strconv.FormatUint(id, 10)
		}

		records, err := s.store.ListEvents(c.Request.Context(), f, limit, offset)
		if err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, mapSlice(records, toEvent))
	}
}
