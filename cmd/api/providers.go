package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/samber/do"

	"github.com/mindbridge/counsel/backend/internal/config"
	"github.com/mindbridge/counsel/backend/internal/handler"
	"github.com/mindbridge/counsel/backend/internal/metrics"
	"github.com/mindbridge/counsel/backend/internal/repository"
	"github.com/mindbridge/counsel/backend/internal/service/ai"
	"github.com/mindbridge/counsel/backend/internal/service/chat"
	"github.com/mindbridge/counsel/backend/internal/service/counsel"
	"github.com/mindbridge/counsel/backend/internal/service/counseling"
	"github.com/mindbridge/counsel/backend/internal/service/meeting"
)

func register(di *do.Injector) {
	do.Provide(di, provideRepository)
	do.Provide(di, provideStore)
	do.Provide(di, provideMetrics)
	do.Provide(di, provideOracle)
	do.Provide(di, provideMeetings)
	do.Provide(di, provideManager)
	do.Provide(di, provideCounseling)
	do.Provide(di, provideRouter)
}

func provideRepository(di *do.Injector) (repository.Repository, error) {
	cfg := do.MustInvoke[*config.Config](di)
	ctx := do.MustInvoke[context.Context](di)

	if cfg.Database.URL == "" {
		slog.Info("DATABASE_URL not set, keeping records in memory")
		return repository.NewMemory(), nil
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Info("connected to postgres")
	return repository.NewPostgres(db), nil
}

func provideStore(_ *do.Injector) (*chat.Service, error) {
	return chat.NewService(), nil
}

func provideMetrics(di *do.Injector) (*metrics.Metrics, error) {
	store := do.MustInvoke[*chat.Service](di)
	return metrics.New(store.Len), nil
}

func provideOracle(di *do.Injector) (ai.Oracle, error) {
	cfg := do.MustInvoke[*config.Config](di)
	ctx := do.MustInvoke[context.Context](di)

	oracle, err := ai.New(ctx, cfg.AI, cfg.Counsel.CrisisMarker)
	if err != nil {
		return nil, err
	}
	if _, ok := oracle.(ai.Unavailable); ok {
		slog.Warn("AI credentials not configured, replies fall back to the apology text")
	} else {
		slog.Info("AI oracle initialized", "provider", cfg.AI.Provider, "model", cfg.AI.Model)
	}
	return oracle, nil
}

func provideMeetings(di *do.Injector) (meeting.Provider, error) {
	cfg := do.MustInvoke[*config.Config](di)
	if !cfg.Webex.Enabled() {
		slog.Warn("WEBEX_ACCESS_TOKEN not set, meetings cannot be scheduled")
		return nil, nil
	}
	return meeting.NewWebexClient(cfg.Webex), nil
}

func provideManager(di *do.Injector) (*counsel.Manager, error) {
	cfg := do.MustInvoke[*config.Config](di)
	oracle, err := do.Invoke[ai.Oracle](di)
	if err != nil {
		return nil, err
	}
	repo, err := do.Invoke[repository.Repository](di)
	if err != nil {
		return nil, err
	}

	deps := counsel.Deps{
		Store:    do.MustInvoke[*chat.Service](di),
		Chat:     oracle,
		Summary:  oracle,
		Recorder: repo,
		Metrics:  do.MustInvoke[*metrics.Metrics](di),
		Config:   cfg.Counsel,
	}
	if meetings := do.MustInvoke[meeting.Provider](di); meetings != nil {
		deps.Meetings = meetings
	}
	return counsel.NewManager(deps), nil
}

func provideCounseling(di *do.Injector) (*counseling.Service, error) {
	repo, err := do.Invoke[repository.Repository](di)
	if err != nil {
		return nil, err
	}
	return counseling.NewService(repo, do.MustInvoke[meeting.Provider](di)), nil
}

func provideRouter(di *do.Injector) (http.Handler, error) {
	cfg := do.MustInvoke[*config.Config](di)
	manager, err := do.Invoke[*counsel.Manager](di)
	if err != nil {
		return nil, err
	}
	counselingSvc, err := do.Invoke[*counseling.Service](di)
	if err != nil {
		return nil, err
	}
	return handler.NewRouter(handler.Deps{
		Manager:       manager,
		Counseling:    counselingSvc,
		Metrics:       do.MustInvoke[*metrics.Metrics](di),
		WebhookSecret: cfg.Webex.WebhookSecret,
	}), nil
}
