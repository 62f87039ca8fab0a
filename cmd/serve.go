package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-comicflow/internal/builder"
	"github.com/shouni/go-comicflow/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP API とパネル画像の静的配信を起動するのだ",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Addr = serveAddr
		}
		if err := cfg.Validate(true); err != nil {
			return err
		}
		if !opts.Verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		feed := server.NewFeed()
		app, err := builder.BuildAppContext(ctx, cfg, feed)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				slog.Warn("リソースの解放に失敗しました", "error", err)
			}
		}()

		srv := server.New(app.Manager, feed, server.Options{
			ImageDir:     app.Images.Dir(),
			StaticPrefix: cfg.StaticPrefix,
		})
		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		eg, egCtx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			slog.Info("サーバーを起動するのだ", "addr", cfg.Addr, "store", cfg.StoreBackend)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-egCtx.Done()
			slog.Info("サーバーを停止するのだ")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
		return eg.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "待ち受けアドレスなのだ (既定 :8000)。")
}
