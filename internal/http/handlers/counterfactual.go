package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pckassistant/graph-engine/internal/graphreason"
	"github.com/pckassistant/graph-engine/internal/http/response"
)

type CounterfactualHandler struct {
	reasoner *graphreason.Reasoner
}

func NewCounterfactualHandler(reasoner *graphreason.Reasoner) *CounterfactualHandler {
	return &CounterfactualHandler{reasoner: reasoner}
}

type counterfactualChangeReq struct {
	From entityRefReq `json:"from"`
	To   entityRefReq `json:"to"`
}

type counterfactualRequest struct {
	BaseEntities []entityRefReq          `json:"baseEntities"`
	Change       counterfactualChangeReq `json:"change"`
}

// POST /api/counterfactual
func (h *CounterfactualHandler) Counterfactual(c *gin.Context) {
	var req counterfactualRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.BaseEntities) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	refs := make([]graphreason.EntityRef, len(req.BaseEntities))
	for i, e := range req.BaseEntities {
		refs[i] = e.toRef()
	}
	change := graphreason.Change{From: req.Change.From.toRef(), To: req.Change.To.toRef()}

	result := h.reasoner.Counterfactual(c.Request.Context(), refs, change)
	response.RespondOK(c, gin.H{
		"original":    result.Base,
		"alternative": result.Alternative,
		"change":      req.Change,
		"comparison":  result.Comparison,
	})
}
