package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pckassistant/graph-engine/internal/data/db"
	"github.com/pckassistant/graph-engine/internal/data/repos"
	"github.com/pckassistant/graph-engine/internal/graphquery"
	"github.com/pckassistant/graph-engine/internal/graphreason"
	"github.com/pckassistant/graph-engine/internal/http/router"
	"github.com/pckassistant/graph-engine/internal/observability"
	"github.com/pckassistant/graph-engine/internal/orchestrator"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/platform/llm"
	"github.com/pckassistant/graph-engine/internal/platform/neo4jdb"
	"github.com/pckassistant/graph-engine/internal/platform/redisbus"
	"github.com/pckassistant/graph-engine/internal/sse"
	"github.com/pckassistant/graph-engine/internal/trajectory"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Router *gin.Engine
	Cfg    Config
	Store  *repos.Store
	SSEHub *sse.Hub

	bus            redisbus.Bus
	lock           *redisbus.NameLock
	graph          *neo4jdb.Client
	cancel         context.CancelFunc
	shutdownTracer func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("loading environment variables")
	cfg := LoadConfig(log)

	shutdownTracer := observability.InitTracing(context.Background(), log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	store := repos.NewStore(theDB, log)
	hub := sse.NewHub(log)

	// Redis is a cross-process convenience, not a hard dependency: a
	// single-instance deployment runs fine with a nil lock (the store's
	// unique index on normalized_name is still the correctness backstop)
	// and no SSE forwarding.
	var lock *redisbus.NameLock
	if l, err := redisbus.NewNameLock(log); err != nil {
		log.Warn("redis name lock unavailable, running without it", "error", err)
	} else {
		lock = l
	}
	var bus redisbus.Bus
	if b, err := redisbus.NewBus(log); err != nil {
		log.Warn("redis SSE bus unavailable, running single-instance", "error", err)
	} else {
		bus = b
	}

	// Neo4j is likewise optional: Postgres is authoritative for entity/edge
	// structure and the sole correctness backstop, but a configured Neo4j
	// instance turns GetGraph's multi-hop traversal into one Cypher query
	// instead of a per-hop repository round trip.
	var graphClient *neo4jdb.Client
	if g, err := neo4jdb.NewFromEnv(log); err != nil {
		log.Warn("neo4j unavailable, graph traversal falls back to postgres", "error", err)
	} else {
		graphClient = g
	}

	llmClient, err := llm.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	engine := trajectory.NewEngine(store, log, lock, graphClient)
	reasoner := graphreason.NewReasoner(store, log)
	query := graphquery.NewQuery(store, log, graphClient)
	orch := orchestrator.New(store, log, engine, reasoner, llmClient)

	metrics := observability.Init()

	handlerset := wireHandlers(log, store, orch, reasoner, query, hub, bus)
	middlewareset := wireMiddleware(log)
	r := router.New(log, handlerset, middlewareset, metrics)

	return &App{
		Log:            log,
		DB:             theDB,
		Router:         r,
		Cfg:            cfg,
		Store:          store,
		SSEHub:         hub,
		bus:            bus,
		lock:           lock,
		graph:          graphClient,
		shutdownTracer: shutdownTracer,
	}, nil
}

// Start begins background work: forwarding SSE messages published by other
// instances into this instance's Hub, when a Redis bus is configured.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.bus == nil {
		return
	}
	if err := a.bus.StartForwarder(ctx, func(trajectoryID string, msg sse.Message) {
		id, err := uuid.Parse(trajectoryID)
		if err != nil {
			return
		}
		if stream, ok := a.SSEHub.Get(id); ok {
			stream.Emit(msg.Type, msg.Data)
		}
	}); err != nil {
		a.Log.Warn("failed to start redis SSE forwarder", "error", err)
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.bus != nil {
		_ = a.bus.Close()
	}
	if a.lock != nil {
		_ = a.lock.Close()
	}
	if a.graph != nil {
		_ = a.graph.Close(context.Background())
	}
	if a.shutdownTracer != nil {
		_ = a.shutdownTracer(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
