// ABOUTME: HTTP handlers for analysis, project listings and analysis log management
// ABOUTME: Validates input, calls the service and renders JSON or the error envelope
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harper/budget-simulator/internal/service"
	"github.com/harper/budget-simulator/internal/storage"
	"github.com/harper/budget-simulator/internal/storage/sqlite"
)

// defaultCleanupDays applies when /logs/cleanup has no days parameter
const defaultCleanupDays = 90

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type analyzeRequest struct {
	IssueText      string `json:"issue_text"`
	SummaryText    string `json:"summary_text"`
	ProposedBudget *int64 `json:"proposed_budget"`
}

func abort(c *gin.Context, status int, errText, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: errText, Message: message})
}

func (s *Server) unavailable(c *gin.Context) bool {
	if s.svc != nil {
		return false
	}
	abort(c, http.StatusServiceUnavailable, "サービスが初期化されていません", "しばらく待ってから再試行してください")
	return true
}

func (s *Server) internalError(c *gin.Context, what string, err error) {
	s.logger.Error(what+" failed", "err", err, "request_id", c.GetString("request_id"))
	abort(c, http.StatusInternalServerError, "内部サーバーエラー", fmt.Sprintf("%s中にエラーが発生しました: %v", what, err))
}

func (s *Server) health(c *gin.Context) {
	resp := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   ServiceName,
	}
	if s.svc != nil {
		info := s.svc.Info()
		resp["index"] = gin.H{
			"loaded":               info.Loaded,
			"projects":             info.Projects,
			"dimension":            info.Dimension,
			"top_k":                info.TopK,
			"similarity_threshold": info.Threshold,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "リクエストデータが不正です", "JSONデータが必要です")
		return
	}

	issue := strings.TrimSpace(req.IssueText)
	summary := strings.TrimSpace(req.SummaryText)
	if issue == "" || summary == "" {
		abort(c, http.StatusBadRequest, "必須フィールドが不足しています", "issue_text と summary_text は必須です")
		return
	}
	if s.unavailable(c) {
		return
	}

	pred := s.svc.Analyze(c.Request.Context(), service.Request{
		IssueText:      issue,
		SummaryText:    summary,
		ProposedBudget: req.ProposedBudget,
		UserIP:         c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
	})

	s.logger.Info("analysis complete",
		"predicted", pred.PredictedBudget,
		"cases", pred.CaseCount,
		"error", pred.Error,
		"request_id", c.GetString("request_id"))
	c.JSON(http.StatusOK, pred)
}

func (s *Server) listProjects(c *gin.Context) {
	if s.unavailable(c) {
		return
	}
	projects, total, err := s.svc.Projects(c.Request.Context(), 0)
	if err != nil {
		s.internalError(c, "プロジェクト一覧取得", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "total_count": total})
}

func (s *Server) getProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, http.StatusNotFound, "プロジェクトが見つかりません", fmt.Sprintf("ID %s のプロジェクトは存在しません", c.Param("id")))
		return
	}
	if s.unavailable(c) {
		return
	}

	project, err := s.svc.Project(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		abort(c, http.StatusNotFound, "プロジェクトが見つかりません", fmt.Sprintf("ID %d のプロジェクトは存在しません", id))
		return
	}
	if err != nil {
		s.internalError(c, "プロジェクト詳細取得", err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) stats(c *gin.Context) {
	if s.unavailable(c) {
		return
	}
	stats, err := s.svc.Stats(c.Request.Context())
	if err != nil {
		s.internalError(c, "統計情報取得", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) listLogs(c *gin.Context) {
	if s.unavailable(c) {
		return
	}

	limit := queryInt(c, "limit", sqlite.DefaultLogLimit)
	if limit < 1 || limit > sqlite.MaxLogLimit {
		limit = sqlite.DefaultLogLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	logs, err := s.svc.Logs().List(sqlite.LogFilter{
		Limit:    limit,
		Offset:   offset,
		Status:   c.Query("status"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	})
	if err != nil {
		s.internalError(c, "ログ一覧取得", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":        logs,
		"total_count": len(logs),
		"limit":       limit,
		"offset":      offset,
	})
}

func (s *Server) logStats(c *gin.Context) {
	if s.unavailable(c) {
		return
	}
	stats, err := s.svc.Logs().Stats()
	if err != nil {
		s.internalError(c, "ログ統計情報取得", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getLog(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, http.StatusNotFound, "ログが見つかりません", fmt.Sprintf("ID %s のログは存在しません", c.Param("id")))
		return
	}
	if s.unavailable(c) {
		return
	}

	entry, err := s.svc.Logs().Get(id)
	if errors.Is(err, sqlite.ErrNotFound) {
		abort(c, http.StatusNotFound, "ログが見つかりません", fmt.Sprintf("ID %d のログは存在しません", id))
		return
	}
	if err != nil {
		s.internalError(c, "ログ詳細取得", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) cleanupLogs(c *gin.Context) {
	if s.unavailable(c) {
		return
	}

	days := queryInt(c, "days", defaultCleanupDays)
	if days < 1 {
		abort(c, http.StatusBadRequest, "無効なパラメータ", "daysは1以上の値を指定してください")
		return
	}

	deleted, err := s.svc.Logs().DeleteOlderThan(days)
	if err != nil {
		s.internalError(c, "ログクリーンアップ", err)
		return
	}
	if err := s.svc.Logs().Vacuum(); err != nil {
		s.internalError(c, "ログクリーンアップ", err)
		return
	}

	s.logger.Info("old analysis logs removed", "days", days, "deleted", deleted)
	c.JSON(http.StatusOK, gin.H{
		"deleted_count": deleted,
		"message":       fmt.Sprintf("%d日前のログを%d件削除しました", days, deleted),
	})
}

// queryInt reads an integer query parameter, falling back on absence or junk
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
