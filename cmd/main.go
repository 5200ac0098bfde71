package main

import (
	"context"
	"errors"
	"jobmarket"
	"jobmarket/internal/api/handler/endpoints"
	"jobmarket/internal/api/models"
	"jobmarket/internal/api/service"
	"jobmarket/pkg"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	jobmarket.InitConfig(".env")
	cfg := jobmarket.GetConfig()
	gin.SetMode(gin.ReleaseMode)

	if err := jobmarket.DB.AutoMigrate(
		&models.User{},
		&models.CompletedJob{},
		&models.Job{},
		&models.JobApplication{},
	); err != nil {
		jobmarket.Logger.Fatal().Err(err).Msg("Failed to migrate database")
	}
	jobmarket.Logger.Info().Msg("Database migrated successfully")
	if cfg.Mode == "dev" {
		gin.SetMode(gin.DebugMode)
	}

	notifier, err := pkg.NewNatsNotifier(jobmarket.Nats, cfg.NatsConfig.TenantID, cfg.NatsConfig.Stream)
	if err != nil {
		jobmarket.Logger.Fatal().Err(err).Msg("Failed to set up notification stream")
	}
	media := pkg.NewMinioMediaStore(jobmarket.Media, cfg.MediaConfig.Bucket, cfg.MediaConfig.PublicURL)
	mailer := service.NewMailService()
	if !mailer.IsConfigured() {
		jobmarket.Logger.Warn().Msg("SMTP not configured, email reset codes will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(cfg.ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()
	defer jobmarket.Nats.Drain()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	endpoints.AuthHandler(router)
	endpoints.JobHandler(router, service.NewJobService(media, notifier))
	endpoints.NotificationHandler(router, notifier)
	endpoints.PasswordHandler(router, mailer, notifier)

	jobmarket.Logger.Debug().Msgf("Starting job marketplace API on port %s", cfg.ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		jobmarket.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}
