package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-comicflow/pkg/domain"
)

const (
	storyIDParam = "story_id"
	storyIDKey   = "storyID"

	detailInvalidBody     = "Request body must be JSON with a non-empty 'user_story_input'."
	detailPanelFailed     = "Could not generate the comic panel. Please try again."
	detailStoryFailed     = "Could not load the story."
	detailListFailed      = "Could not retrieve story list."
	detailSuggestFailed   = "Could not generate an AI suggestion at this time."
	detailExportFailed    = "Could not export the story."
	detailFeedUnavailable = "Live feed is not available."
)

// Handler はストーリー関連のエンドポイントを提供します。
type Handler struct {
	svc  Service
	feed *Feed
}

// NewHandler は Handler を生成します。
func NewHandler(svc Service, feed *Feed) *Handler {
	return &Handler{svc: svc, feed: feed}
}

// RegisterRoutes は /stories 配下のルートを登録します。
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.listStories) // GET /stories

	story := rg.Group("/:"+storyIDParam, validateStoryID())
	story.GET("", h.getStory)                 // GET /stories/:story_id
	story.POST("/panels", h.addPanel)         // POST /stories/:story_id/panels
	story.GET("/suggestion", h.getSuggestion) // GET /stories/:story_id/suggestion
	story.GET("/markdown", h.getMarkdown)     // GET /stories/:story_id/markdown
	story.GET("/feed", h.feedSocket)          // GET /stories/:story_id/feed (websocket)
}

// validateStoryID はパスのストーリー ID を検証し、不正なら 422 で打ち切ります。
func validateStoryID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param(storyIDParam)
		if err := domain.ValidateStoryID(id); err != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"detail": fmt.Sprintf("Invalid story_id: must be 1-%d characters of letters, digits, '_' or '-'.", domain.MaxStoryIDLength),
			})
			return
		}
		c.Set(storyIDKey, id)
		c.Next()
	}
}

func (h *Handler) addPanel(c *gin.Context) {
	storyID := c.GetString(storyIDKey)

	var in PanelInput
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.UserStoryInput) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": detailInvalidBody})
		return
	}

	panel, err := h.svc.AddPanel(c.Request.Context(), storyID, in.UserStoryInput)
	if err != nil {
		h.fail(c, err, storyID, detailPanelFailed)
		return
	}
	c.JSON(http.StatusCreated, toPanelResponse(*panel))
}

func (h *Handler) getStory(c *gin.Context) {
	storyID := c.GetString(storyIDKey)

	story, err := h.svc.Story(c.Request.Context(), storyID)
	if err != nil {
		h.fail(c, err, storyID, detailStoryFailed)
		return
	}
	if !story.Exists() {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("Story with ID '%s' not found.", storyID)})
		return
	}
	c.JSON(http.StatusOK, toStoryResponse(story))
}

func (h *Handler) listStories(c *gin.Context) {
	ids, err := h.svc.ListStories(c.Request.Context())
	if err != nil {
		h.fail(c, err, "", detailListFailed)
		return
	}

	items := make([]StoryListItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, StoryListItem{StoryID: id})
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getSuggestion(c *gin.Context) {
	storyID := c.GetString(storyIDKey)

	suggestion, err := h.svc.Suggest(c.Request.Context(), storyID)
	if err != nil {
		h.fail(c, err, storyID, detailSuggestFailed)
		return
	}
	c.JSON(http.StatusOK, SuggestionResponse{StoryID: storyID, Suggestion: suggestion})
}

func (h *Handler) getMarkdown(c *gin.Context) {
	storyID := c.GetString(storyIDKey)

	md, err := h.svc.ExportMarkdown(c.Request.Context(), storyID)
	if errors.Is(err, domain.ErrStoryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("Story with ID '%s' not found.", storyID)})
		return
	}
	if err != nil {
		h.fail(c, err, storyID, detailExportFailed)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

func (h *Handler) feedSocket(c *gin.Context) {
	storyID := c.GetString(storyIDKey)
	if h.feed == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": detailFeedUnavailable})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Debug("websocket へのアップグレードに失敗しました", "story_id", storyID, "error", err)
		return
	}

	h.feed.Join(storyID, ws)
	// 受信は使わない。切断検知のためだけに読み続ける
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.feed.Leave(storyID, ws)
}

// fail は詳細をログに残し、呼び出し元には固定のメッセージだけを返します。
func (h *Handler) fail(c *gin.Context, err error, storyID, detail string) {
	kind := domain.KindOf(err)
	slog.ErrorContext(c.Request.Context(), "リクエストの処理に失敗しました",
		"path", c.FullPath(),
		"story_id", storyID,
		"kind", kind.String(),
		"error", err,
	)
	status := http.StatusInternalServerError
	if kind == domain.KindValidation {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"detail": detail})
}
