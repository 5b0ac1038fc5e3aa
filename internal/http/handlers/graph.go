package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/graphquery"
	"github.com/pckassistant/graph-engine/internal/http/response"
	"github.com/pckassistant/graph-engine/internal/pkg/reqctx"
)

type GraphHandler struct {
	query *graphquery.Query
}

func NewGraphHandler(query *graphquery.Query) *GraphHandler {
	return &GraphHandler{query: query}
}

// GET /api/graph?centerEntityId&depth&minWeight
func (h *GraphHandler) GetGraph(c *gin.Context) {
	accountID := reqctx.AccountID(c.Request.Context())

	opts := graphquery.GraphOptions{
		Depth:     graphquery.DefaultDepth,
		MinWeight: graphquery.DefaultMinWeight,
	}
	if v := strings.TrimSpace(c.Query("centerEntityId")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_center_entity_id", err)
			return
		}
		opts.CenterID = &id
	}
	if v := strings.TrimSpace(c.Query("depth")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Depth = n
		}
	}
	if v := strings.TrimSpace(c.Query("minWeight")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			opts.MinWeight = n
		}
	}

	result, err := h.query.GetGraph(c.Request.Context(), accountID, opts)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, result)
}
