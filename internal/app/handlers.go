package app

import (
	"github.com/pckassistant/graph-engine/internal/data/repos"
	"github.com/pckassistant/graph-engine/internal/graphquery"
	"github.com/pckassistant/graph-engine/internal/graphreason"
	"github.com/pckassistant/graph-engine/internal/http/handlers"
	"github.com/pckassistant/graph-engine/internal/http/router"
	"github.com/pckassistant/graph-engine/internal/orchestrator"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/platform/redisbus"
	"github.com/pckassistant/graph-engine/internal/sse"
)

func wireHandlers(log *logger.Logger, store *repos.Store, orch *orchestrator.Orchestrator, reasoner *graphreason.Reasoner, query *graphquery.Query, hub *sse.Hub, bus redisbus.Bus) router.Handlers {
	log.Info("wiring handlers")
	return router.Handlers{
		Health:         handlers.NewHealthHandler(),
		Chat:           handlers.NewChatHandler(log, orch, hub, bus),
		Conversation:   handlers.NewConversationHandler(store),
		Trajectory:     handlers.NewTrajectoryHandler(store),
		Graph:          handlers.NewGraphHandler(query),
		Entity:         handlers.NewEntityHandler(query),
		Simulate:       handlers.NewSimulateHandler(reasoner),
		Counterfactual: handlers.NewCounterfactualHandler(reasoner),
	}
}
