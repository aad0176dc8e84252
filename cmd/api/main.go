package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	appprod "github.com/jhoicas/produccion-flow/internal/application/production"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
	"github.com/jhoicas/produccion-flow/internal/domain/repository"
	"github.com/jhoicas/produccion-flow/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/produccion-flow/internal/infrastructure/pdf"
	"github.com/jhoicas/produccion-flow/internal/infrastructure/postgres"
	"github.com/jhoicas/produccion-flow/internal/infrastructure/spreadsheet"
	httpRouter "github.com/jhoicas/produccion-flow/internal/interfaces/http"
	"github.com/jhoicas/produccion-flow/pkg/config"
	"github.com/jhoicas/produccion-flow/pkg/logger"
)

// @title                       Produccion Flow API
// @version                     1.0
// @description                 Seguimiento de lotes por las etapas de producción.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	loc, err := cfg.App.Location()
	if err != nil {
		log.Warn().Err(err).Msg("zona horaria inválida, se usa la local")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	batchRepo, planRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	flowMetrics := metrics.NewFlowMetrics(registry)

	codec := production.NewCodec(production.WithLocation(loc))
	orch := production.NewFlowOrchestrator(codec, production.NewPlanReconciler(log.Component("reconciler")))
	poller := appprod.NewPlanPoller(planRepo, cfg.Plan.PollInterval, flowMetrics, log.Component("poller"))
	flowUC := appprod.NewFlowUseCase(
		batchRepo, poller, orch,
		infrapdf.NewMarotoReportGenerator(),
		flowMetrics,
		log.Component("flow"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (solo si el archivo generado existe)
	if !httpRouter.MountDocs(app, cfg.HTTP.DocsFile, cfg.App.Name) {
		log.Info().Str("file", cfg.HTTP.DocsFile).Msg("swagger.json no encontrado, /docs deshabilitado")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		FlowUC:         flowUC,
		JWTSecret:      cfg.JWT.Secret,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("aplicación finalizada con error")
		closeStore()
		os.Exit(1)
	}
	log.Info().Msg("aplicación detenida")
}

// openStore abre el almacén configurado (libro xlsx o PostgreSQL).
func openStore(ctx context.Context, cfg *config.Config) (repository.BatchRepository, repository.ProductionPlanRepository, func(), error) {
	if cfg.Store.Driver == config.StorePostgres {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return postgres.NewBatchRepository(pool), postgres.NewPlanRepository(pool), pool.Close, nil
	}

	wb, err := spreadsheet.Open(cfg.Store.WorkbookPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return spreadsheet.NewBatchRepository(wb), spreadsheet.NewPlanRepository(wb), func() {}, nil
}
