package app

import (
	"context"
	"fmt"
	"net"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/modelhub-backend/internal/data/aggregates"
	"github.com/yungbote/modelhub-backend/internal/data/db"
	"github.com/yungbote/modelhub-backend/internal/data/repos"
	apphttp "github.com/yungbote/modelhub-backend/internal/http"
	"github.com/yungbote/modelhub-backend/internal/observability"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    repos.Set
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	dbService    db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New loads configuration, opens the database and wires every layer.
func New(ctx context.Context, log *logger.Logger) (*App, error) {
	log.Info("Loading configuration...")
	dbService, cfg, err := OpenDatabase(log)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := MigrateAndSeed(ctx, log, dbService); err != nil {
			_ = dbService.Close()
			return nil, err
		}
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}

	a := Assemble(log, cfg, dbService.DB(), clients, metrics)
	a.dbService = dbService
	a.otelShutdown = otelShutdown
	return a, nil
}

// Assemble wires repos, aggregates, services and the router over an already
// opened database and client set.
func Assemble(log *logger.Logger, cfg Config, theDB *gorm.DB, clients Clients, metrics *observability.Metrics) *App {
	clients.Blobs = instrumentBlobStore(cfg.ObjectStorageMode, clients.Blobs, metrics)
	clients.Bus = instrumentBus(clients.Bus, metrics)

	hooks := aggregates.NewLogHooks(log)
	if metrics != nil {
		hooks = aggregates.CombineHooks(hooks, metrics)
	}

	reposet := wireRepos(theDB, log)
	aggs := wireAggregates(theDB, log, hooks, reposet)
	serviceset := wireServices(log, cfg, reposet, aggs, clients)

	handlerset := wireHandlers(log, serviceset, theDB)
	middleware := wireMiddleware(log, cfg, serviceset)
	router := wireRouter(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Clients:  clients,
		Metrics:  metrics,
	}
}

// Start launches background collectors.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Metrics != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 0)
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.Redis.Addr, 0)
	}
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := net.JoinHostPort("", a.Cfg.Port)
	a.Log.Info("Serving HTTP", "addr", addr)
	server := &apphttp.Server{Engine: a.Router}
	return server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
