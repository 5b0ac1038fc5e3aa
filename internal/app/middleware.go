package app

import (
	"github.com/pckassistant/graph-engine/internal/http/middleware"
	"github.com/pckassistant/graph-engine/internal/http/router"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
)

func wireMiddleware(log *logger.Logger) router.Middleware {
	log.Info("wiring middleware")
	return router.Middleware{
		Auth: middleware.NewAuthMiddleware(log),
	}
}
