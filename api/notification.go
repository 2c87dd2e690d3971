package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/danglnh07/concord/db"
	"github.com/gin-gonic/gin"
)

// SSEHandler streams the caller's notifications as server-sent events.
// The hub keys subscriptions by account, so every event on the channel
// already belongs to the caller.
func (server *Server) SSEHandler(ctx *gin.Context) {
	// Set header to allow SSE streaming
	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	// Change writer to flusher for streaming
	flusher, ok := ctx.Writer.(http.Flusher)
	if !ok {
		server.logger.Error("SSE handler: failed to type assertion from writer to flusher")
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	claims := server.identity(ctx)
	subscriber := server.notifyHub.Subscribe(claims.ID)
	defer server.notifyHub.Unsubscribe(claims.ID, subscriber)

	done := ctx.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case noti, open := <-subscriber:
			if !open {
				return
			}
			data, err := json.Marshal(noti)
			if err != nil {
				server.logger.Error("SSE handler: failed to marshal notification", "error", err)
				continue
			}
			fmt.Fprintf(ctx.Writer, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (server *Server) HandleListNotifications(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, []db.Notification{})
		return
	}

	notifications, err := server.store.ListNotifications(claims.ID, 50)
	if err != nil {
		server.logger.Error("GET /api/notifications: failed to list notifications", "error", err)
		ctx.JSON(http.StatusOK, []db.Notification{})
		return
	}
	ctx.JSON(http.StatusOK, notifications)
}

func (server *Server) HandleCountUnreadNotifications(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, gin.H{"count": 0})
		return
	}

	count, err := server.store.CountUnreadNotifications(claims.ID)
	if err != nil {
		server.logger.Error("GET /api/notifications/unread-count: failed to count notifications", "error", err)
		count = 0
	}
	ctx.JSON(http.StatusOK, gin.H{"count": count})
}

// HandleMarkNotificationRead marks one notification read. Only the
// recipient may mark it.
func (server *Server) HandleMarkNotificationRead(ctx *gin.Context) {
	claims := server.identity(ctx)

	notificationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid notification ID"})
		return
	}

	notification, err := server.store.GetNotification(notificationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Notification not found"})
			return
		}
		server.logger.Error("PATCH /api/notifications/:id: failed to fetch notification", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}
	if notification.AccountID != claims.ID {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Access denied"})
		return
	}

	if err := server.store.MarkNotificationRead(notificationID); err != nil {
		server.logger.Error("PATCH /api/notifications/:id: failed to mark notification read", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (server *Server) HandleMarkAllNotificationsRead(ctx *gin.Context) {
	claims := server.identity(ctx)

	updated, err := server.store.MarkAllNotificationsRead(claims.ID)
	if err != nil {
		server.logger.Error("POST /api/notifications/read-all: failed to mark notifications read", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"updated": updated})
}
