package main

import (
	"errors"
	"log"
	"runtime"
	"time"

	"github.com/fadilmartias/comment-assistant/internal/config"
	"github.com/fadilmartias/comment-assistant/internal/domain/fiber/handler"
	"github.com/fadilmartias/comment-assistant/internal/logger"
	"github.com/fadilmartias/comment-assistant/internal/middleware"
	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/fadilmartias/comment-assistant/internal/repository"
	"github.com/fadilmartias/comment-assistant/internal/service"
	"github.com/fadilmartias/comment-assistant/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	genConfig := config.LoadGenerationConfig()
	geminiConfig := config.LoadGeminiConfig()
	openRouterConfig := config.LoadOpenRouterConfig()

	zlog, err := logger.New(appConfig.Env, false)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	catalog, err := model.LoadCatalog(appConfig.CatalogFile)
	if err != nil {
		zlog.Fatal("could not load subject catalog", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		// Leave room for the multipart envelope around the largest accepted upload.
		BodyLimit: int(appConfig.UploadMaxFileSize) + 1024*1024,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}
			return ctx.Status(code).JSON(fiber.Map{"success": false, "message": message})
		},
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		ExposeHeaders: fiber.HeaderContentDisposition,
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(100, 1*time.Minute))

	db, err := repository.OpenDatabase(config.LoadDBConfig(), appConfig)
	if err != nil {
		zlog.Fatal("could not open settings database", zap.Error(err))
	}

	settingRepo := repository.NewSettingRepository(db)
	sessionRepo := repository.NewSessionRepository()

	newGenerator, err := service.NewGeneratorFactory(genConfig, geminiConfig, openRouterConfig, zlog)
	if err != nil {
		zlog.Fatal("invalid generation config", zap.Error(err))
	}

	credentialUC := usecase.NewCredentialUsecase(settingRepo, service.FallbackAPIKey(genConfig, geminiConfig, openRouterConfig))
	generationUC := usecase.NewGenerationUsecase(credentialUC, newGenerator, genConfig.BatchSize, zlog)
	sessionUC := usecase.NewSessionUsecase(sessionRepo, catalog, zlog)

	handler.NewSessionHandler(sessionUC, generationUC, appConfig.UploadMaxFileSize, genConfig.BatchSize, zlog).RegisterRoutes(app)
	handler.NewCredentialHandler(credentialUC, generationUC, genConfig.Provider).RegisterRoutes(app)

	// Monitor goroutines and drop idle sessions.
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			purged := sessionRepo.PurgeIdle(appConfig.SessionTTL)
			zlog.Debug("housekeeping",
				zap.Int("goroutines", runtime.NumGoroutine()),
				zap.Int("sessions", sessionRepo.Count()),
				zap.Int("purged", purged),
			)
		}
	}()

	zlog.Info("server running",
		zap.String("port", appConfig.Port),
		zap.String("provider", genConfig.Provider),
		zap.Int("batch_size", genConfig.BatchSize),
	)
	if err := app.Listen(appConfig.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
