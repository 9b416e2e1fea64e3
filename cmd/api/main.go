package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/split-ledger/internal/achievement"
	"github.com/nimasrn/split-ledger/internal/bootstrap"
	"github.com/nimasrn/split-ledger/internal/config"
	"github.com/nimasrn/split-ledger/internal/events"
	"github.com/nimasrn/split-ledger/internal/handlers"
	"github.com/nimasrn/split-ledger/internal/queue"
	"github.com/nimasrn/split-ledger/internal/services"
	xhttp "github.com/nimasrn/split-ledger/pkg/http"
	"github.com/nimasrn/split-ledger/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := config.Load(bootstrap.EnvPath(os.Args)); err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	s := xhttp.NewServer(xhttp.DefaultServerOption())
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(s.RequestTimeout()))
	s.Use(xhttp.IdentityMiddleware(xhttp.IdentityConfig{
		Secret:    cfg.JWTSecret,
		SkipPaths: []string{"/api/v1/health", handlers.SweepPath},
	}))
	s.Router = xhttp.CreateDefaultRouter()

	db, err := bootstrap.Database(cfg)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}
	redisAdap, err := bootstrap.Redis(cfg, "api")
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}
	if err := bootstrap.Metrics(cfg); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	stores := bootstrap.NewStores(db)
	notifier, closeNotifier, err := bootstrap.Notifier(cfg, redisAdap)
	if err != nil {
		logger.Error("failed creating notifier", "error", err)
		return
	}
	defer closeNotifier() //nolint
	engine := bootstrap.Engine(cfg, stores, redisAdap, notifier)

	var publisher events.Publisher
	switch cfg.EventsMode {
	case "inline":
		publisher = events.NewInlinePublisher(engine, 0)
	default:
		q, err := queue.NewQueue(redisAdap, bootstrap.TriggerQueue(cfg))
		if err != nil {
			logger.Error("failed creating trigger queue", "error", err)
			return
		}
		publisher = events.NewStreamPublisher(q)
	}

	// services
	profileService := services.NewProfileService(stores.Profiles)
	transactionService := services.NewTransactionService(stores.Transactions, stores.Groups, publisher)
	groupService := services.NewGroupService(stores.Groups, stores.Transactions, db, publisher)
	budgetService := services.NewBudgetService(stores.Budgets)
	invitationService := services.NewInvitationService(stores.Invitations, stores.Groups, db, publisher, cfg.InvitationTTL)
	dashboardService := services.NewDashboardService(stores.Groups, stores.Transactions, stores.Budgets, stores.Achievements)
	sweeper := achievement.NewSweeper(stores.Profiles, engine, cfg.SweepWorkers)
	achievementService := services.NewAchievementService(stores.Achievements, sweeper)
	healthService := services.NewHealthService(db, redisAdap)

	// v1 handlers
	g := s.Router.Group("/api/v1")
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(healthService))
	handlers.RegisterGroupRoutes(g, handlers.NewGroupHandler(groupService, dashboardService, profileService))
	handlers.RegisterTransactionRoutes(g, handlers.NewTransactionHandler(transactionService, profileService))
	handlers.RegisterBudgetRoutes(g, handlers.NewBudgetHandler(budgetService, profileService))
	handlers.RegisterInvitationRoutes(g, handlers.NewInvitationHandler(invitationService, profileService))
	handlers.RegisterAchievementRoutes(g, handlers.NewAchievementHandler(achievementService, profileService, cfg.SweepToken))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(cfg.HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
}
