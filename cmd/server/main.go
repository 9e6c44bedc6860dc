package main

import (
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/parlorgames/parlor/internal/cache"
	"github.com/parlorgames/parlor/internal/config"
	"github.com/parlorgames/parlor/internal/database"
	"github.com/parlorgames/parlor/internal/game"
	"github.com/parlorgames/parlor/internal/handlers"
	"github.com/parlorgames/parlor/internal/middleware"
	"github.com/parlorgames/parlor/internal/notifier"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	if cfg.RedisAddr != "" {
		if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			logger.WithError(err).Warn("redis unavailable, action log disabled")
		}
	}
	if cfg.PostgresDSN != "" {
		if err := database.ConnectDB(cfg.PostgresDSN); err != nil {
			logger.WithError(err).Warn("postgres unavailable, match archive disabled")
		}
	}

	bots := map[game.Variant]*notifier.Client{}
	if cfg.DeductionBotToken != "" {
		bots[game.VariantDeduction] = notifier.New(cfg.DeductionBotToken)
	}
	if cfg.CouncilBotToken != "" {
		bots[game.VariantCouncil] = notifier.New(cfg.CouncilBotToken)
	}

	srv := handlers.NewServer(logger, bots)
	srv.Store = game.NewStore(cfg.SessionLimit, game.WithSink(srv.Dispatch))

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	for variant := range bots {
		path := "/webhook/" + cfg.WebhookSecret + "/" + string(variant)
		mux.Handle(path, logged(handlers.WebhookHandler(srv, variant)))
	}

	mux.Handle("/session/ws/", logged(handlers.SessionFeedHandler(srv)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger.Infof("listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
