package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListBooks は書籍一覧の取得を処理するハンドラを返す。
func (s *Server) handleListBooks() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, err := pageParams(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		books, err := s.store.ListBooks(c.Request.Context(), limit, offset)
		if err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, mapSlice(books, toAPIBook))
	}
}

// handleGetBook は書籍詳細の取得を処理するハンドラを返す。
func (s *Server) handleGetBook() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		b, err := s.store.GetBook(c.Request.Context(), id)
		if err != nil {
			s.respondStoreError(c, err, "書籍が見つかりません")
			return
		}
		c.JSON(http.StatusOK, toAPIBook(b))
	}
}

// handleListAuthors は著者一覧の取得を処理するハンドラを返す。
func (s *Server) handleListAuthors() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, err := pageParams(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		authors, err := s.store.ListAuthors(c.Request.Context(), limit, offset)
		if err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, mapSlice(authors, toAPIAuthor))
	}
}

// handleGetAuthor は著者詳細の取得を処理するハンドラを返す。
func (s *Server) handleGetAuthor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a, err := s.store.GetAuthor(c.Request.Context(), id)
		if err != nil {
			s.respondStoreError(c, err, "著者が見つかりません")
			return
		}
		c.JSON(http.StatusOK, toAPIAuthor(a))
	}
}

// handleListArtists はアーティスト一覧の取得を処理するハンドラを返す。
func (s *Server) handleListArtists() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, err := pageParams(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		artists, err := s.store.ListArtists(c.Request.Context(), limit, offset)
		if err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, mapSlice(artists, toAPIArtist))
	}
}

// handleGetArtist はアーティスト詳細の取得を処理するハンドラを返す。
func (s *Server) handleGetArtist() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a, err := s.store.GetArtist(c.Request.Context(), id)
		if err != nil {
			s.respondStoreError(c, err, "アーティストが見つかりません")
			return
		}
		c.JSON(http.StatusOK, toAPIArtist(a))
	}
}

// handleListCovers は表紙一覧の取得を処理するハンドラを返す。
func (s *Server) handleListCovers() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, err := pageParams(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		covers, err := s.store.ListCovers(c.Request.Context(), limit, offset)
		if err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, mapSlice(covers, toAPICover))
	}
}
