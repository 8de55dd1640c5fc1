package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/renovation-appeals/internal/config"
	"github.com/iliyamo/renovation-appeals/internal/database"
	"github.com/iliyamo/renovation-appeals/internal/handler"
	"github.com/iliyamo/renovation-appeals/internal/notify"
	"github.com/iliyamo/renovation-appeals/internal/queue"
	"github.com/iliyamo/renovation-appeals/internal/repository"
	"github.com/iliyamo/renovation-appeals/internal/router"
	"github.com/iliyamo/renovation-appeals/internal/storage"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the environment and the file simply is not there.
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}
	if err := database.Seed(ctx, db); err != nil {
		log.Fatalf("seed failed: %v", err)
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	users := repository.NewUserRepo(db)
	appeals := repository.NewAppealRepo(db)
	messages := repository.NewMessageRepo(db)
	statuses := repository.NewStatusRepo(db)
	categories := repository.NewCategoryRepo(db)
	devices := repository.NewDeviceTokenRepo(db)

	notifier := notify.New(ctx, cfg.FirebaseCredentialsPath, devices)

	// The audit consumer drains appeal.events into logs/; it reconnects on
	// its own, so a failure here only logs.
	go func() {
		if err := queue.StartAppealConsumer(); err != nil {
			log.Printf("appeal event consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()

	e := echo.New()
	router.Register(e, cfg, router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users),
		Users:      handler.NewUserHandler(cfg, users),
		Appeals:    handler.NewAppealHandler(cfg, appeals, messages, users, statuses, categories, store, notifier),
		Statuses:   handler.NewStatusHandler(statuses),
		Categories: handler.NewCategoryHandler(categories),
		Devices:    handler.NewDeviceHandler(devices),
		Knowledge:  handler.NewKnowledgeHandler(store),
	}, users, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
