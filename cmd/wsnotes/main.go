package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/reolin/wsnotes/internal/ai"
	"github.com/reolin/wsnotes/internal/config"
	"github.com/reolin/wsnotes/internal/db"
	"github.com/reolin/wsnotes/internal/embedcache"
	"github.com/reolin/wsnotes/internal/handler"
	"github.com/reolin/wsnotes/internal/job"
	"github.com/reolin/wsnotes/internal/middleware"
	"github.com/reolin/wsnotes/internal/notify"
	"github.com/reolin/wsnotes/internal/repo"
	"github.com/reolin/wsnotes/internal/schedule"
	"github.com/reolin/wsnotes/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "wsnotes",
		Short: "workspace notes backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run wsnotes server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	noteRepo := repo.NewNoteRepo(conn)
	workspaceRepo := repo.NewWorkspaceRepo(conn)
	userRepo := repo.NewUserRepo(conn)

	// One embedding adapter per process, shared by all in-flight requests.
	provider, err := ai.NewEmbedProvider(cfg.Embedding.Provider, cfg.Embedding.Data)
	if err != nil {
		return fmt.Errorf("init embedding provider: %w", err)
	}
	embedder := embedcache.WrapLruCacheToEmbedder(
		ai.NewEmbedder(provider, cfg.Embedding.Model),
		cfg.Embedding.CacheSize,
		time.Duration(cfg.Embedding.CacheTTLMinutes)*time.Minute,
	)

	var gateway *notify.FCMGateway
	opts := service.NoteServiceOptions{
		CopyRespectsBan: cfg.Properties.CopyRespectsBan,
		ChatPushEnabled: cfg.Properties.ChatPushEnabled,
	}
	if cfg.Notification.Enable {
		gateway = notify.NewFCMGateway(cfg.Notification.ServerKey, cfg.Notification.Endpoint)
		opts.Notifier = gateway
	}
	noteService := service.NewNoteService(noteRepo, workspaceRepo, userRepo, embedder, opts)

	deps := handler.RouterDeps{
		Notes:         handler.NewNoteHandler(noteService),
		Notifications: handler.NewNotificationHandler(gateway),
		JWTSecret:     []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllow),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingBackfillJob(noteService), cfg.Schedule.EmbeddingBackfillSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
