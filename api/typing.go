package api

import (
	"net/http"
	"time"

	"github.com/danglnh07/concord/service/presence"
	"github.com/danglnh07/concord/service/pubsub"
	"github.com/gin-gonic/gin"
)

type SetTypingRequest struct {
	Typing *bool `json:"typing" binding:"required"`
}

// HandleSetTyping records or clears the caller's typing indicator. The
// row is upserted with a fresh timestamp on every keystroke batch; the
// periodic sweep garbage-collects rows the client never cleared.
func (server *Server) HandleSetTyping(ctx *gin.Context) {
	claims := server.identity(ctx)

	conversationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid conversation ID"})
		return
	}

	var req SetTypingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	conversation, err := server.store.GetConversation(conversationID)
	if err != nil || !isParticipant(conversation, claims.ID) {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Access denied"})
		return
	}

	if *req.Typing {
		err = server.store.UpsertTyping(conversationID, claims.ID, time.Now())
	} else {
		err = server.store.DeleteTyping(conversationID, claims.ID)
	}
	if err != nil {
		server.logger.Error("POST /api/conversations/:id/typing: failed to update typing status", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	recipients := make([]uint, 0, len(conversation.Members))
	for _, member := range conversation.Members {
		if member.AccountID == claims.ID {
			continue
		}
		recipients = append(recipients, member.AccountID)
	}
	server.deliverEvent(ctx, pubsub.EventTyping, conversationID, gin.H{
		"account_id": claims.ID,
		"typing":     *req.Typing,
	}, recipients)

	ctx.Status(http.StatusNoContent)
}

// HandleListTyping returns the accounts currently typing in the
// conversation, excluding the caller. Only rows updated within the display
// window count; retention of stale rows is the sweep's problem, not the
// reader's.
func (server *Server) HandleListTyping(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, []uint{})
		return
	}

	conversationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusOK, []uint{})
		return
	}

	member, err := server.store.IsMember(conversationID, claims.ID)
	if err != nil || !member {
		ctx.JSON(http.StatusOK, []uint{})
		return
	}

	since := time.Now().Add(-presence.TypingDisplayWindow)
	rows, err := server.store.ListTypingSince(conversationID, since)
	if err != nil {
		server.logger.Error("GET /api/conversations/:id/typing: failed to list typing statuses", "error", err)
		ctx.JSON(http.StatusOK, []uint{})
		return
	}

	typing := make([]uint, 0, len(rows))
	for _, row := range rows {
		if row.AccountID == claims.ID {
			continue
		}
		typing = append(typing, row.AccountID)
	}
	ctx.JSON(http.StatusOK, typing)
}
