package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/danglnh07/concord/db"
	"github.com/gin-gonic/gin"
)

type CallParticipantView struct {
	AccountID uint         `json:"account_id"`
	JoinedAt  time.Time    `json:"joined_at"`
	Muted     bool         `json:"muted"`
	Deafened  bool         `json:"deafened"`
	Profile   *ProfileView `json:"profile,omitempty"`
}

type CallView struct {
	ID             uint                  `json:"id"`
	ConversationID uint                  `json:"conversation_id"`
	StartedAt      time.Time             `json:"started_at"`
	Participants   []CallParticipantView `json:"participants"`
}

func (server *Server) callView(call *db.VoiceCall) CallView {
	participants := make([]CallParticipantView, 0, len(call.Participants))
	for _, participant := range call.Participants {
		view := CallParticipantView{
			AccountID: participant.AccountID,
			JoinedAt:  participant.JoinedAt,
			Muted:     participant.Muted,
			Deafened:  participant.Deafened,
		}
		if profile, err := server.store.GetProfile(participant.AccountID); err == nil {
			resolved := server.profileView(profile)
			view.Profile = &resolved
		}
		participants = append(participants, view)
	}
	return CallView{
		ID:             call.ID,
		ConversationID: call.ConversationID,
		StartedAt:      call.StartedAt,
		Participants:   participants,
	}
}

// HandleGetActiveCall returns the active call roster for the
// conversation, or null when there is none or the caller is not a
// participant of the conversation.
func (server *Server) HandleGetActiveCall(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, nil)
		return
	}

	conversationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusOK, nil)
		return
	}

	member, err := server.store.IsMember(conversationID, claims.ID)
	if err != nil || !member {
		ctx.JSON(http.StatusOK, nil)
		return
	}

	call, err := server.store.GetActiveCall(conversationID)
	if err != nil {
		ctx.JSON(http.StatusOK, nil)
		return
	}
	ctx.JSON(http.StatusOK, server.callView(call))
}

// HandleJoinCall adds the caller to the conversation's active call,
// creating the call when none is running. Joining twice is a no-op.
func (server *Server) HandleJoinCall(ctx *gin.Context) {
	claims := server.identity(ctx)

	conversationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid conversation ID"})
		return
	}

	member, err := server.store.IsMember(conversationID, claims.ID)
	if err != nil {
		server.logger.Error("POST /api/conversations/:id/call/join: failed to check membership", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}
	if !member {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Access denied"})
		return
	}

	now := time.Now()
	call, err := server.store.GetActiveCall(conversationID)
	if errors.Is(err, db.ErrNotFound) {
		call = &db.VoiceCall{
			ConversationID: conversationID,
			Active:         true,
			StartedAt:      now,
			Participants: []db.VoiceParticipant{
				{AccountID: claims.ID, JoinedAt: now},
			},
		}
		if err := server.store.CreateCall(call); err != nil {
			server.logger.Error("POST /api/conversations/:id/call/join: failed to create call", "error", err)
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
			return
		}
		ctx.JSON(http.StatusCreated, server.callView(call))
		return
	}
	if err != nil {
		server.logger.Error("POST /api/conversations/:id/call/join: failed to fetch call", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	participant := db.VoiceParticipant{AccountID: claims.ID, JoinedAt: now}
	err = server.store.AddCallParticipant(call.ID, &participant)
	if err != nil && !errors.Is(err, db.ErrDuplicate) {
		server.logger.Error("POST /api/conversations/:id/call/join: failed to add participant", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	call, err = server.store.GetActiveCall(conversationID)
	if err != nil {
		ctx.JSON(http.StatusOK, nil)
		return
	}
	ctx.JSON(http.StatusOK, server.callView(call))
}

// HandleLeaveCall removes the caller from the active call and ends the
// call when the roster drains to empty. Leaving a call the caller never
// joined is a no-op.
func (server *Server) HandleLeaveCall(ctx *gin.Context) {
	claims := server.identity(ctx)

	conversationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid conversation ID"})
		return
	}

	call, err := server.store.GetActiveCall(conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.Status(http.StatusNoContent)
			return
		}
		server.logger.Error("POST /api/conversations/:id/call/leave: failed to fetch call", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	remaining, err := server.store.RemoveCallParticipant(call.ID, claims.ID)
	if err != nil {
		server.logger.Error("POST /api/conversations/:id/call/leave: failed to remove participant", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if remaining == 0 {
		if err := server.store.EndCall(call.ID, time.Now()); err != nil {
			server.logger.Error("POST /api/conversations/:id/call/leave: failed to end empty call", "error", err)
		}
	}

	ctx.Status(http.StatusNoContent)
}

type CallSettingsRequest struct {
	Muted    *bool `json:"muted" binding:"required"`
	Deafened *bool `json:"deafened" binding:"required"`
}

// HandleUpdateCallSettings updates the caller's muted/deafened flags on
// the active call.
func (server *Server) HandleUpdateCallSettings(ctx *gin.Context) {
	claims := server.identity(ctx)

	conversationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid conversation ID"})
		return
	}

	var req CallSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	call, err := server.store.GetActiveCall(conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No active call"})
			return
		}
		server.logger.Error("PATCH /api/conversations/:id/call: failed to fetch call", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	inCall := false
	for _, participant := range call.Participants {
		if participant.AccountID == claims.ID {
			inCall = true
			break
		}
	}
	if !inCall {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Not in the call"})
		return
	}

	if err := server.store.UpdateCallParticipant(call.ID, claims.ID, *req.Muted, *req.Deafened); err != nil {
		server.logger.Error("PATCH /api/conversations/:id/call: failed to update settings", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
