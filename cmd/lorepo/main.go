package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/amberflux/lorepo/internal/config"
	"github.com/amberflux/lorepo/internal/infra/database"
	"github.com/amberflux/lorepo/internal/infra/gateway"
	"github.com/amberflux/lorepo/internal/infra/repository"
	"github.com/amberflux/lorepo/internal/present/rest"
	"github.com/amberflux/lorepo/internal/present/rest/middleware"
	"github.com/amberflux/lorepo/internal/service"
	"github.com/amberflux/lorepo/internal/usecase"
)

func main() {
	ctx := context.Background()

	configPath := os.Getenv("LOREPO_CONFIG")
	if configPath == "" {
		configPath = "/etc/lorepo/config.yaml"
	}

	conf, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config",
			slog.String("error", err.Error()),
			slog.String("path", configPath),
		)
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		shutdown, err := setupTrace(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to setup tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer shutdown(ctx)
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = database.MigratePostgres(db)
	if err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	objectRepo := repository.NewLearningObjectRepository(db)
	releasedRepo := repository.NewReleasedRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db, mc)
	changelogRepo := repository.NewChangelogRepository(db)

	searchGateway := gateway.NewSearchGateway(conf.Server.SearchIndexAddr)
	outbox := service.NewOutboxService(rdb, searchGateway)
	go outbox.Run(ctx)

	signal := service.NewSignalService(rdb)
	auth := service.NewAuthService(conf.NodeInfo)

	hierarchyUC := usecase.NewHierarchyUsecase(objectRepo, releasedRepo)
	submissionUC := usecase.NewSubmissionUsecase(objectRepo, releasedRepo, submissionRepo, userRepo, outbox, signal, hierarchyUC)
	revisionUC := usecase.NewRevisionUsecase(objectRepo, releasedRepo)
	changelogUC := usecase.NewChangelogUsecase(objectRepo, releasedRepo, changelogRepo)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("lorepo"))
	}

	authMiddleware := middleware.NewAuthMiddleware(auth)
	e.Use(authMiddleware.IdentifyRequester)

	handler := rest.NewHandler(submissionUC, revisionUC, hierarchyUC, changelogUC, signal)
	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(":8000"))
}

func setupTrace(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
