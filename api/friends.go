package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danglnh07/concord/db"
	"github.com/danglnh07/concord/service/worker"
	"github.com/gin-gonic/gin"
)

type FriendRequestView struct {
	ID     uint                   `json:"id"`
	FromID uint                   `json:"from_id"`
	ToID   uint                   `json:"to_id"`
	Status db.FriendRequestStatus `json:"status"`
	From   *ProfileView           `json:"from,omitempty"`
}

func (server *Server) friendRequestView(request *db.FriendRequest) FriendRequestView {
	view := FriendRequestView{
		ID:     request.ID,
		FromID: request.FromID,
		ToID:   request.ToID,
		Status: request.Status,
	}
	if profile, err := server.store.GetProfile(request.FromID); err == nil {
		from := server.profileView(profile)
		view.From = &from
	}
	return view
}

type SendFriendRequestRequest struct {
	ToID uint `json:"to_id" binding:"required"`
}

// HandleSendFriendRequest creates a pending request. Self-requests,
// existing friendships and a pending request in the same direction are
// rejected. A pending request in the opposite direction does not block:
// each side may have its own outstanding request.
func (server *Server) HandleSendFriendRequest(ctx *gin.Context) {
	claims := server.identity(ctx)

	var req SendFriendRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if req.ToID == claims.ID {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Cannot send a friend request to yourself"})
		return
	}

	if _, err := server.store.GetProfile(req.ToID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"User not found"})
			return
		}
		server.logger.Error("POST /api/friends/requests: failed to fetch recipient", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if _, err := server.store.GetFriendship(claims.ID, req.ToID); err == nil {
		ctx.JSON(http.StatusConflict, ErrorResponse{"Already friends"})
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		server.logger.Error("POST /api/friends/requests: failed to check friendship", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if _, err := server.store.GetPendingRequest(claims.ID, req.ToID); err == nil {
		ctx.JSON(http.StatusConflict, ErrorResponse{"Friend request already pending"})
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		server.logger.Error("POST /api/friends/requests: failed to check pending request", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	request := db.FriendRequest{
		FromID: claims.ID,
		ToID:   req.ToID,
		Status: db.RequestPending,
	}
	if err := server.store.CreateFriendRequest(&request); err != nil {
		server.logger.Error("POST /api/friends/requests: failed to create friend request", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if sender, err := server.store.GetProfile(claims.ID); err == nil {
		server.sendNotification(ctx, worker.NotificationPayload{
			AccountID: req.ToID,
			Type:      db.NotifyFriendRequest,
			Title:     "New friend request",
			Content:   fmt.Sprintf("%s sent you a friend request", sender.Username),
			FromID:    &claims.ID,
		})
	}

	ctx.JSON(http.StatusCreated, server.friendRequestView(&request))
}

type RespondFriendRequestRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// HandleRespondFriendRequest accepts or declines a pending request. Only
// the addressee may respond. Accepting inserts the friendship and marks the
// request accepted; both rows persist as history.
func (server *Server) HandleRespondFriendRequest(ctx *gin.Context) {
	claims := server.identity(ctx)

	requestID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request ID"})
		return
	}

	var req RespondFriendRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	request, err := server.store.GetFriendRequest(requestID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Friend request not found"})
			return
		}
		server.logger.Error("POST /api/friends/requests/:id/respond: failed to fetch request", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if request.ToID != claims.ID {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Access denied"})
		return
	}
	if request.Status != db.RequestPending {
		ctx.JSON(http.StatusConflict, ErrorResponse{"Friend request already resolved"})
		return
	}

	if *req.Accept {
		friendship := db.Friendship{User1ID: request.FromID, User2ID: request.ToID}
		err = server.store.CreateFriendship(&friendship)
		if err != nil && !errors.Is(err, db.ErrDuplicate) {
			server.logger.Error("POST /api/friends/requests/:id/respond: failed to create friendship", "error", err)
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
			return
		}
		request.Status = db.RequestAccepted
	} else {
		request.Status = db.RequestDeclined
	}

	if err := server.store.UpdateFriendRequest(request); err != nil {
		server.logger.Error("POST /api/friends/requests/:id/respond: failed to update request", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if request.Status == db.RequestAccepted {
		if accepter, err := server.store.GetProfile(claims.ID); err == nil {
			server.sendNotification(ctx, worker.NotificationPayload{
				AccountID: request.FromID,
				Type:      db.NotifyFriendRequest,
				Title:     "Friend request accepted",
				Content:   fmt.Sprintf("%s accepted your friend request", accepter.Username),
				FromID:    &claims.ID,
			})
		}
	}

	ctx.JSON(http.StatusOK, server.friendRequestView(request))
}

// HandleListFriends resolves the caller's friendships to profile views.
func (server *Server) HandleListFriends(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, []ProfileView{})
		return
	}

	friendships, err := server.store.ListFriendships(claims.ID)
	if err != nil {
		server.logger.Error("GET /api/friends: failed to list friendships", "error", err)
		ctx.JSON(http.StatusOK, []ProfileView{})
		return
	}

	friends := make([]ProfileView, 0, len(friendships))
	for _, friendship := range friendships {
		otherID := friendship.User1ID
		if otherID == claims.ID {
			otherID = friendship.User2ID
		}
		profile, err := server.store.GetProfile(otherID)
		if err != nil {
			continue
		}
		friends = append(friends, server.profileView(profile))
	}
	ctx.JSON(http.StatusOK, friends)
}

// HandleListFriendRequests lists the pending requests addressed to the
// caller.
func (server *Server) HandleListFriendRequests(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, []FriendRequestView{})
		return
	}

	requests, err := server.store.ListPendingRequests(claims.ID)
	if err != nil {
		server.logger.Error("GET /api/friends/requests: failed to list friend requests", "error", err)
		ctx.JSON(http.StatusOK, []FriendRequestView{})
		return
	}

	views := make([]FriendRequestView, 0, len(requests))
	for i := range requests {
		views = append(views, server.friendRequestView(&requests[i]))
	}
	ctx.JSON(http.StatusOK, views)
}
