package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/graphquery"
	"github.com/pckassistant/graph-engine/internal/http/response"
	"github.com/pckassistant/graph-engine/internal/pkg/reqctx"
)

type EntityHandler struct {
	query *graphquery.Query
}

func NewEntityHandler(query *graphquery.Query) *EntityHandler {
	return &EntityHandler{query: query}
}

// GET /api/entities/:id
func (h *EntityHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	accountID := reqctx.AccountID(c.Request.Context())

	detail, err := h.query.GetEntity(c.Request.Context(), accountID, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, detail)
}
