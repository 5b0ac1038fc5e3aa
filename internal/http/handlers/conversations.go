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

const defaultListLimit = 50

type ConversationHandler struct {
	store *repos.Store
}

func NewConversationHandler(store *repos.Store) *ConversationHandler {
	return &ConversationHandler{store: store}
}

// GET /api/conversations?limit=50
func (h *ConversationHandler) List(c *gin.Context) {
	accountID := reqctx.AccountID(c.Request.Context())
	limit := defaultListLimit
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conversations, err := h.store.Conversations.ListByAccount(dbc, accountID, limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversations": conversations})
}

// GET /api/conversations/:id?limit=50
func (h *ConversationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	accountID := reqctx.AccountID(c.Request.Context())
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	conv, err := h.store.Conversations.GetByID(dbc, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if conv == nil || conv.AccountID != accountID {
		response.RespondDomainError(c, engerrors.ErrNotFound)
		return
	}

	limit := defaultListLimit
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	messages, err := h.store.Messages.ListByConversation(dbc, id, limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": conv, "messages": messages})
}
