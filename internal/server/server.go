// Package server は HTTP 境界です。入力の検証、DTO への変換、エラーの HTTP ステータスへの対応付けを担います。
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-comicflow/pkg/domain"
)

// Service はサーバーが呼び出すコア操作です。workflow.Manager が実装します。
type Service interface {
	AddPanel(ctx context.Context, storyID, userInput string) (*domain.Panel, error)
	Story(ctx context.Context, storyID string) (domain.Story, error)
	ListStories(ctx context.Context) ([]string, error)
	Suggest(ctx context.Context, storyID string) (string, error)
	ExportMarkdown(ctx context.Context, storyID string) (string, error)
}

// Options はルーティングの設定です。
type Options struct {
	// ImageDir が空でなければ StaticPrefix 配下で静的配信します。
	ImageDir     string
	StaticPrefix string
}

// Server は gin のルーターとハンドラー群を保持します。
type Server struct {
	handler *Handler
	opts    Options
}

// New は Server を生成します。feed が nil なら websocket フィードは無効です。
func New(svc Service, feed *Feed, opts Options) *Server {
	return &Server{
		handler: NewHandler(svc, feed),
		opts:    opts,
	}
}

// Router は全ルートを登録した gin.Engine を返します。
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the collaborative comic strip API!"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.opts.ImageDir != "" && s.opts.StaticPrefix != "" {
		router.Static(s.opts.StaticPrefix, s.opts.ImageDir)
	}

	s.handler.RegisterRoutes(router.Group("/stories"))
	return router
}

// requestLogger は 1 リクエストごとに slog で 1 行残します。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	}
}
