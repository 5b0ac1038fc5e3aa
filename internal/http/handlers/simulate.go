package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pckassistant/graph-engine/internal/graphreason"
	"github.com/pckassistant/graph-engine/internal/http/response"
)

type SimulateHandler struct {
	reasoner *graphreason.Reasoner
}

func NewSimulateHandler(reasoner *graphreason.Reasoner) *SimulateHandler {
	return &SimulateHandler{reasoner: reasoner}
}

type entityRefReq struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (r entityRefReq) toRef() graphreason.EntityRef {
	return graphreason.EntityRef{Name: r.Name, Type: r.Type}
}

type simulateRequest struct {
	Entities []entityRefReq `json:"entities"`
}

// POST /api/simulate
func (h *SimulateHandler) Simulate(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Entities) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	refs := make([]graphreason.EntityRef, len(req.Entities))
	for i, e := range req.Entities {
		refs[i] = e.toRef()
	}

	result := h.reasoner.Simulate(c.Request.Context(), refs)
	response.RespondOK(c, result)
}
