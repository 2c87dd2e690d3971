package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UnreadView struct {
	ConversationID    uint  `json:"conversation_id"`
	Count             int   `json:"count"`
	LastReadMessageID *uint `json:"last_read_message_id,omitempty"`
}

// HandleListUnread returns the caller's unread counter for every
// conversation that has one. Conversations with no counter row are read.
func (server *Server) HandleListUnread(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, []UnreadView{})
		return
	}

	counters, err := server.store.ListUnread(claims.ID)
	if err != nil {
		server.logger.Error("GET /api/unread: failed to list unread counters", "error", err)
		ctx.JSON(http.StatusOK, []UnreadView{})
		return
	}

	views := make([]UnreadView, 0, len(counters))
	for _, counter := range counters {
		views = append(views, UnreadView{
			ConversationID:    counter.ConversationID,
			Count:             counter.Count,
			LastReadMessageID: counter.LastReadMessageID,
		})
	}
	ctx.JSON(http.StatusOK, views)
}

type MarkReadRequest struct {
	LastMessageID *uint `json:"last_message_id"`
}

// HandleMarkConversationRead zeroes the caller's counter for the
// conversation. The reset is unconditional: it trusts the client to call
// it only when the conversation is actually on screen, so a message
// arriving between the fetch and the reset is absorbed silently.
func (server *Server) HandleMarkConversationRead(ctx *gin.Context) {
	claims := server.identity(ctx)

	conversationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid conversation ID"})
		return
	}

	member, err := server.store.IsMember(conversationID, claims.ID)
	if err != nil || !member {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Access denied"})
		return
	}

	var req MarkReadRequest
	// Body is optional; an empty body resets without moving the read marker
	_ = ctx.ShouldBindJSON(&req)

	if err := server.store.ResetUnread(claims.ID, conversationID, req.LastMessageID); err != nil {
		server.logger.Error("POST /api/conversations/:id/read: failed to reset unread counter", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
