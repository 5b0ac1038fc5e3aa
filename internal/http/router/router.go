// Package router assembles the gin engine: middleware chain, route table,
// and which handlers each route delegates to.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pckassistant/graph-engine/internal/http/handlers"
	"github.com/pckassistant/graph-engine/internal/http/middleware"
	"github.com/pckassistant/graph-engine/internal/observability"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
)

// Handlers is the full set of route handlers the router wires up. It has
// no behavior of its own; app.wireHandlers builds one of these from the
// component graph.
type Handlers struct {
	Health         *handlers.HealthHandler
	Chat           *handlers.ChatHandler
	Conversation   *handlers.ConversationHandler
	Trajectory     *handlers.TrajectoryHandler
	Graph          *handlers.GraphHandler
	Entity         *handlers.EntityHandler
	Simulate       *handlers.SimulateHandler
	Counterfactual *handlers.CounterfactualHandler
}

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func New(log *logger.Logger, h Handlers, mw Middleware, metrics *observability.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics(metrics))

	r.GET("/healthz", h.Health.HealthCheck)
	if metrics != nil {
		r.GET("/metrics", gin.WrapF(metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		write := api.Group("")
		write.Use(mw.Auth.RequireAccount())
		write.POST("/chat", h.Chat.Chat)
		write.POST("/chat/stream", h.Chat.ChatStream)

		// simulate/counterfactual are POSTs (their input doesn't fit in a
		// query string) but never append to the graph, so they don't need
		// an authenticated account the way /chat does.
		read := api.Group("")
		read.Use(mw.Auth.AttachAccount())
		read.GET("/conversations", h.Conversation.List)
		read.GET("/conversations/:id", h.Conversation.Get)
		read.GET("/trajectories", h.Trajectory.List)
		read.GET("/trajectories/:id", h.Trajectory.Get)
		read.GET("/graph", h.Graph.GetGraph)
		read.GET("/entities/:id", h.Entity.Get)
		read.POST("/simulate", h.Simulate.Simulate)
		read.POST("/counterfactual", h.Counterfactual.Counterfactual)
	}

	return r
}
