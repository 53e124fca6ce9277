package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/bookstore/pkg/middleware"
)

// ページングのデフォルト値と上限。
const (
	defaultLimit = 10
	maxLimit     = 100
)

// pageParams はlimitとoffsetのクエリパラメータを解釈する。
func pageParams(c *gin.Context) (limit, offset int, err error) {
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, 0, fmt.Errorf("limitは1から%dの整数で指定してください", maxLimit)
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, errors.New("offsetは0以上の整数で指定してください")
	}
	return limit, offset, nil
}

// idParam はパスパラメータidを正の整数として解釈する。
func idParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("IDは正の整数で指定してください")
	}
	return uint(id), nil
}

// bindInput はリクエストボディをinにデシリアライズする。失敗した場合は400を返してfalseを返す。
func bindInput(c *gin.Context, in any) bool {
	if err := c.ShouldBindJSON(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
		return false
	}
	return true
}

// requireFields は作成時の必須フィールドが揃っているかを確認する。不足している場合は400を返す。
func requireFields(c *gin.Context, missing []string) bool {
	if len(missing) == 0 {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "必須フィールドが指定されていません: " + strings.Join(missing, ", ")})
	return false
}

// respondStoreError はStoreのエラーを対応するHTTPステータスに変換して返す。
func (s *Server) respondStoreError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, ErrInvalidReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", middleware.GetRequestID(c)).
			Msg("DB操作に失敗しました")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "内部サーバーエラーが発生しました"})
	}
}
