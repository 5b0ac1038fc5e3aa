package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/data/repos"
	"github.com/pckassistant/graph-engine/internal/http/response"
	engerrors "github.com/pckassistant/graph-engine/internal/pkg/errors"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
	"github.com/pckassistant/graph-engine/internal/pkg/reqctx"
)

type TrajectoryHandler struct {
	store *repos.Store
}

func NewTrajectoryHandler(store *repos.Store) *TrajectoryHandler {
	return &TrajectoryHandler{store: store}
}

// GET /api/trajectories?limit=50
func (h *TrajectoryHandler) List(c *gin.Context) {
	accountID := reqctx.AccountID(c.Request.Context())
	limit := defaultListLimit
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	trajectories, err := h.store.Trajectories.ListByAccount(dbc, accountID, limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"trajectories": trajectories})
}

// GET /api/trajectories/:id
//
// TrajectoryRepo.GetByID has no notion of account ownership, since a
// trajectory row doesn't carry any per-account visibility rule of its own
// the way an entity does; the account check here is what actually enforces
// that a caller can only read trajectories they started.
func (h *TrajectoryHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	accountID := reqctx.AccountID(c.Request.Context())
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	traj, err := h.store.Trajectories.GetByID(dbc, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if traj == nil || traj.AccountID != accountID {
		response.RespondDomainError(c, engerrors.ErrNotFound)
		return
	}

	events, err := h.store.Events.ListByTrajectory(dbc, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"trajectory": traj, "events": events})
}
