package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/danglnh07/concord/db"
	"github.com/gin-gonic/gin"
)

// ConversationView resolves participant ids to live profile views at read
// time. Denormalized snapshots are never trusted for anything the client
// renders about a user.
type ConversationView struct {
	ID            uint                `json:"id"`
	Type          db.ConversationType `json:"type"`
	Name          string              `json:"name,omitempty"`
	LastMessage   string              `json:"last_message,omitempty"`
	LastMessageAt *time.Time          `json:"last_message_at,omitempty"`
	Participants  []ProfileView       `json:"participants"`
}

func (server *Server) conversationView(conversation *db.Conversation) ConversationView {
	participants := make([]ProfileView, 0, len(conversation.Members))
	for _, member := range conversation.Members {
		profile, err := server.store.GetProfile(member.AccountID)
		if err != nil {
			// Members without a profile are simply not rendered
			continue
		}
		participants = append(participants, server.profileView(profile))
	}

	return ConversationView{
		ID:            conversation.ID,
		Type:          conversation.Type,
		Name:          conversation.Name,
		LastMessage:   conversation.LastMessage,
		LastMessageAt: conversation.LastMessageAt,
		Participants:  participants,
	}
}

func isParticipant(conversation *db.Conversation, accountID uint) bool {
	for _, member := range conversation.Members {
		if member.AccountID == accountID {
			return true
		}
	}
	return false
}

// directKey builds the unique key for a direct conversation from the
// unordered account pair. The unique index on this key is what closes the
// duplicate-creation race between concurrent get-or-create calls.
func directKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// sortConversations orders the list for display: the general conversation
// first, the rest by last activity descending, never-used ones last.
func sortConversations(conversations []db.Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		a, b := conversations[i], conversations[j]
		if (a.Type == db.GeneralConversation) != (b.Type == db.GeneralConversation) {
			return a.Type == db.GeneralConversation
		}
		switch {
		case a.LastMessageAt == nil:
			return false
		case b.LastMessageAt == nil:
			return true
		default:
			return a.LastMessageAt.After(*b.LastMessageAt)
		}
	})
}

// generalKey is the sentinel direct_key of the singleton general
// conversation. Direct keys are always "minID:maxID", so it can never
// collide, and the unique index makes a second general insert fail with
// ErrDuplicate the same way a duplicate direct conversation does.
const generalKey = "general"

// ensureGeneralMembership finds the singleton general conversation,
// creating it on first use, and adds the account if it is not yet a member.
// Idempotent.
func (server *Server) ensureGeneralMembership(accountID uint) error {
	general, err := server.store.GetGeneralConversation()
	if errors.Is(err, db.ErrNotFound) {
		key := generalKey
		conversation := db.Conversation{
			Type:      db.GeneralConversation,
			Name:      "general",
			DirectKey: &key,
			Members: []db.ConversationMember{
				{AccountID: accountID, JoinedAt: time.Now()},
			},
		}
		err = server.store.CreateConversation(&conversation)
		if err == nil {
			return nil
		}
		if !errors.Is(err, db.ErrDuplicate) {
			return err
		}
		// Lost the creation race: join the winner
		general, err = server.store.GetGeneralConversation()
	}
	if err != nil {
		return err
	}

	if isParticipant(general, accountID) {
		return nil
	}
	err = server.store.AddMember(general.ID, accountID, time.Now())
	if errors.Is(err, db.ErrDuplicate) {
		return nil
	}
	return err
}

type CreateConversationRequest struct {
	Type           string `json:"type" binding:"required"`
	OtherAccountID uint   `json:"other_account_id"`
	Name           string `json:"name"`
	MemberIDs      []uint `json:"member_ids"`
}

func (server *Server) HandleCreateConversation(ctx *gin.Context) {
	claims := server.identity(ctx)

	var req CreateConversationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	switch db.ConversationType(req.Type) {
	case db.DirectConversation:
		server.getOrCreateDirect(ctx, claims.ID, req.OtherAccountID)
	case db.GroupConversation:
		server.createGroup(ctx, claims.ID, req.Name, req.MemberIDs)
	default:
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid conversation type"})
	}
}

// getOrCreateDirect returns the existing direct conversation for the pair
// or creates it. Concurrent calls for the same pair are resolved by the
// direct_key unique constraint: the loser re-reads and returns the winner.
func (server *Server) getOrCreateDirect(ctx *gin.Context, requesterID, otherID uint) {
	if otherID == 0 {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Missing other_account_id"})
		return
	}
	if otherID == requesterID {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Cannot create a conversation with yourself"})
		return
	}

	key := directKey(requesterID, otherID)
	existing, err := server.store.GetDirectConversation(key)
	if err == nil {
		ctx.JSON(http.StatusOK, server.conversationView(existing))
		return
	}
	if !errors.Is(err, db.ErrNotFound) {
		server.logger.Error("POST /api/conversations: failed to look up direct conversation", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	now := time.Now()
	conversation := db.Conversation{
		Type:          db.DirectConversation,
		DirectKey:     &key,
		LastMessageAt: &now,
		Members: []db.ConversationMember{
			{AccountID: requesterID, JoinedAt: now},
			{AccountID: otherID, JoinedAt: now},
		},
	}
	err = server.store.CreateConversation(&conversation)
	if errors.Is(err, db.ErrDuplicate) {
		// Lost the race: return the winner
		existing, err = server.store.GetDirectConversation(key)
		if err == nil {
			ctx.JSON(http.StatusOK, server.conversationView(existing))
			return
		}
	}
	if err != nil {
		server.logger.Error("POST /api/conversations: failed to create direct conversation", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, server.conversationView(&conversation))
}

// createGroup resolves every requested member to a profile; ids without a
// profile are silently skipped. The requester is always included.
func (server *Server) createGroup(ctx *gin.Context, requesterID uint, name string, memberIDs []uint) {
	now := time.Now()
	members := []db.ConversationMember{
		{AccountID: requesterID, JoinedAt: now},
	}
	seen := map[uint]bool{requesterID: true}
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		if _, err := server.store.GetProfile(id); err != nil {
			continue
		}
		seen[id] = true
		members = append(members, db.ConversationMember{AccountID: id, JoinedAt: now})
	}

	conversation := db.Conversation{
		Type:          db.GroupConversation,
		Name:          name,
		LastMessageAt: &now,
		Members:       members,
	}
	if err := server.store.CreateConversation(&conversation); err != nil {
		server.logger.Error("POST /api/conversations: failed to create group conversation", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, server.conversationView(&conversation))
}

type AddMembersRequest struct {
	MemberIDs []uint `json:"member_ids" binding:"required"`
}

// HandleAddMembers adds new members to a group conversation. Already
// present ids and ids without a profile are skipped; the response reports
// how many were actually added.
func (server *Server) HandleAddMembers(ctx *gin.Context) {
	claims := server.identity(ctx)

	conversationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid conversation ID"})
		return
	}

	var req AddMembersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	conversation, err := server.store.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Conversation not found"})
			return
		}
		server.logger.Error("POST /api/conversations/:id/members: failed to fetch conversation", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if !isParticipant(conversation, claims.ID) {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Access denied"})
		return
	}

	added := 0
	for _, id := range req.MemberIDs {
		if isParticipant(conversation, id) {
			continue
		}
		if _, err := server.store.GetProfile(id); err != nil {
			continue
		}
		if err := server.store.AddMember(conversationID, id, time.Now()); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				continue
			}
			server.logger.Error("POST /api/conversations/:id/members: failed to add member", "account_id", id, "error", err)
			continue
		}
		// Keep the in-memory membership in sync so duplicate ids in the
		// request are skipped too
		conversation.Members = append(conversation.Members, db.ConversationMember{AccountID: id})
		added++
	}

	ctx.JSON(http.StatusOK, gin.H{"added": added})
}

func (server *Server) HandleListConversations(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, []ConversationView{})
		return
	}

	conversations, err := server.store.ListConversationsFor(claims.ID)
	if err != nil {
		server.logger.Error("GET /api/conversations: failed to list conversations", "error", err)
		ctx.JSON(http.StatusOK, []ConversationView{})
		return
	}

	sortConversations(conversations)

	views := make([]ConversationView, 0, len(conversations))
	for i := range conversations {
		views = append(views, server.conversationView(&conversations[i]))
	}
	ctx.JSON(http.StatusOK, views)
}

// HandleGetConversation answers null rather than an error when the
// conversation is missing or the requester is not a participant:
// authorization by omission.
func (server *Server) HandleGetConversation(ctx *gin.Context) {
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

	conversation, err := server.store.GetConversation(conversationID)
	if err != nil || !isParticipant(conversation, claims.ID) {
		ctx.JSON(http.StatusOK, nil)
		return
	}

	ctx.JSON(http.StatusOK, server.conversationView(conversation))
}
