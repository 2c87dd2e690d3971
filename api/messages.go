package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/danglnh07/concord/db"
	"github.com/danglnh07/concord/service/pubsub"
	"github.com/danglnh07/concord/service/worker"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	previewLength   = 80
)

var (
	mentionRegex = regexp.MustCompile(`@([a-zA-Z0-9_]{3,20})`)
	urlRegex     = regexp.MustCompile(`https?://[^\s<>"]+`)
)

// Embed is derived from the message content at read time and never stored.
type Embed struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type ReactionView struct {
	Emoji      string `json:"emoji"`
	Count      int    `json:"count"`
	AccountIDs []uint `json:"account_ids"`
}

type AttachmentView struct {
	URL string `json:"url"`
}

type MessageView struct {
	ID             uint             `json:"id"`
	ConversationID uint             `json:"conversation_id"`
	SenderID       uint             `json:"sender_id"`
	Content        string           `json:"content"`
	CreatedAt      time.Time        `json:"created_at"`
	Edited         bool             `json:"edited"`
	EditedAt       *time.Time       `json:"edited_at,omitempty"`
	ReplyToID      *uint            `json:"reply_to_id,omitempty"`
	Mentions       []uint           `json:"mentions"`
	Attachments    []AttachmentView `json:"attachments"`
	Embeds         []Embed          `json:"embeds"`
	Reactions      []ReactionView   `json:"reactions"`
}

// extractEmbeds scans the content for bare URLs. Image URLs become image
// embeds, everything else a link embed.
func extractEmbeds(content string) []Embed {
	embeds := []Embed{}
	for _, match := range urlRegex.FindAllString(content, -1) {
		url := strings.TrimRight(match, ".,;:!?)")
		embedType := "link"
		lower := strings.ToLower(url)
		for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp"} {
			if strings.HasSuffix(lower, ext) {
				embedType = "image"
				break
			}
		}
		embeds = append(embeds, Embed{Type: embedType, URL: url})
	}
	return embeds
}

// extractMentionUsernames lists the distinct @usernames referenced in the
// content, in order of first appearance.
func extractMentionUsernames(content string) []string {
	var usernames []string
	seen := map[string]bool{}
	for _, match := range mentionRegex.FindAllStringSubmatch(content, -1) {
		username := strings.ToLower(match[1])
		if seen[username] {
			continue
		}
		seen[username] = true
		usernames = append(usernames, username)
	}
	return usernames
}

// groupReactions folds reaction rows into per-emoji groups keyed by message.
func groupReactions(reactions []db.Reaction) map[uint][]ReactionView {
	grouped := map[uint][]ReactionView{}
	for _, reaction := range reactions {
		views := grouped[reaction.MessageID]
		found := false
		for i := range views {
			if views[i].Emoji == reaction.Emoji {
				views[i].Count++
				views[i].AccountIDs = append(views[i].AccountIDs, reaction.AccountID)
				found = true
				break
			}
		}
		if !found {
			views = append(views, ReactionView{
				Emoji:      reaction.Emoji,
				Count:      1,
				AccountIDs: []uint{reaction.AccountID},
			})
		}
		grouped[reaction.MessageID] = views
	}
	return grouped
}

func (server *Server) messageView(message *db.Message, reactions []ReactionView) MessageView {
	mentions := make([]uint, 0, len(message.Mentions))
	for _, mention := range message.Mentions {
		mentions = append(mentions, mention.AccountID)
	}

	attachments := make([]AttachmentView, 0, len(message.Attachments))
	for _, attachment := range message.Attachments {
		url, err := server.blobs.GetURL(attachment.StorageKey)
		if err != nil {
			server.logger.Error("Failed to resolve attachment URL", "storage_key", attachment.StorageKey, "error", err)
			continue
		}
		attachments = append(attachments, AttachmentView{URL: url})
	}

	if reactions == nil {
		reactions = []ReactionView{}
	}

	return MessageView{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
		Edited:         message.Edited,
		EditedAt:       message.EditedAt,
		ReplyToID:      message.ReplyToID,
		Mentions:       mentions,
		Attachments:    attachments,
		Embeds:         extractEmbeds(message.Content),
		Reactions:      reactions,
	}
}

// HandleListMessages returns a page of messages in ascending order. The
// store hands back the newest page first; the handler reverses it. A
// `before` query parameter pages further into history.
func (server *Server) HandleListMessages(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, []MessageView{})
		return
	}

	conversationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusOK, []MessageView{})
		return
	}

	member, err := server.store.IsMember(conversationID, claims.ID)
	if err != nil || !member {
		ctx.JSON(http.StatusOK, []MessageView{})
		return
	}

	var before uint
	if raw := ctx.Query("before"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusOK, []MessageView{})
			return
		}
		before = uint(parsed)
	}

	limit := defaultPageSize
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 {
			limit = min(parsed, maxPageSize)
		}
	}

	messages, err := server.store.ListMessages(conversationID, before, limit)
	if err != nil {
		server.logger.Error("GET /api/conversations/:id/messages: failed to list messages", "error", err)
		ctx.JSON(http.StatusOK, []MessageView{})
		return
	}

	messageIDs := make([]uint, 0, len(messages))
	for i := range messages {
		messageIDs = append(messageIDs, messages[i].ID)
	}
	reactions, err := server.store.ListReactions(messageIDs)
	if err != nil {
		server.logger.Error("GET /api/conversations/:id/messages: failed to list reactions", "error", err)
		reactions = nil
	}
	grouped := groupReactions(reactions)

	// Reverse to ascending order for display
	views := make([]MessageView, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		views = append(views, server.messageView(&messages[i], grouped[messages[i].ID]))
	}
	ctx.JSON(http.StatusOK, views)
}

type SendMessageRequest struct {
	Content     string   `json:"content"`
	ReplyToID   *uint    `json:"reply_to_id"`
	Attachments []string `json:"attachments"`
}

func (server *Server) HandleSendMessage(ctx *gin.Context) {
	claims := server.identity(ctx)

	conversationID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid conversation ID"})
		return
	}

	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" && len(req.Attachments) == 0 {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Message cannot be empty"})
		return
	}

	profile, err := server.store.GetProfile(claims.ID)
	if err != nil {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Profile required"})
		return
	}
	if profile.Banned {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Account is banned"})
		return
	}

	conversation, err := server.store.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Conversation not found"})
			return
		}
		server.logger.Error("POST /api/conversations/:id/messages: failed to fetch conversation", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}
	if !isParticipant(conversation, claims.ID) {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Access denied"})
		return
	}

	if req.ReplyToID != nil {
		parent, err := server.store.GetMessage(*req.ReplyToID)
		if err != nil || parent.ConversationID != conversationID {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid reply target"})
			return
		}
	}

	// Usernames that do not resolve to a participant are dropped
	var mentions []db.MessageMention
	for _, username := range extractMentionUsernames(req.Content) {
		mentioned, err := server.store.GetProfileByUsername(username)
		if err != nil {
			continue
		}
		if !isParticipant(conversation, mentioned.AccountID) {
			continue
		}
		mentions = append(mentions, db.MessageMention{AccountID: mentioned.AccountID})
	}

	attachments := make([]db.MessageAttachment, 0, len(req.Attachments))
	for _, key := range req.Attachments {
		if key == "" {
			continue
		}
		attachments = append(attachments, db.MessageAttachment{StorageKey: key})
	}

	message := db.Message{
		ConversationID: conversationID,
		SenderID:       claims.ID,
		Content:        req.Content,
		ReplyToID:      req.ReplyToID,
		Mentions:       mentions,
		Attachments:    attachments,
	}
	if err := server.store.CreateMessage(&message); err != nil {
		server.logger.Error("POST /api/conversations/:id/messages: failed to create message", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	server.afterSend(ctx, profile, conversation, &message)

	ctx.JSON(http.StatusCreated, server.messageView(&message, nil))
}

// afterSend handles the fanout after a message is persisted: conversation
// preview, unread counters, realtime delivery, notifications. Failures are
// logged and never surfaced; the message itself is already committed.
func (server *Server) afterSend(ctx *gin.Context, sender *db.Profile, conversation *db.Conversation, message *db.Message) {
	preview := messagePreview(sender.Username, message.Content, len(message.Attachments) > 0)
	if err := server.store.UpdateConversationPreview(conversation.ID, preview, message.CreatedAt); err != nil {
		server.logger.Error("Failed to update conversation preview", "conversation_id", conversation.ID, "error", err)
	}

	recipients := make([]uint, 0, len(conversation.Members))
	for _, member := range conversation.Members {
		recipients = append(recipients, member.AccountID)
		if member.AccountID == message.SenderID {
			continue
		}
		if err := server.store.IncrementUnread(member.AccountID, conversation.ID); err != nil {
			server.logger.Error("Failed to increment unread counter",
				"account_id", member.AccountID, "conversation_id", conversation.ID, "error", err)
		}
	}

	server.deliverEvent(ctx, pubsub.EventMessageNew, conversation.ID, server.messageView(message, nil), recipients)

	mentioned := map[uint]bool{}
	for _, mention := range message.Mentions {
		if mention.AccountID == message.SenderID {
			continue
		}
		mentioned[mention.AccountID] = true
		server.sendNotification(ctx, worker.NotificationPayload{
			AccountID:      mention.AccountID,
			Type:           db.NotifyMention,
			Title:          fmt.Sprintf("%s mentioned you", sender.Username),
			Content:        preview,
			FromID:         &message.SenderID,
			ConversationID: &conversation.ID,
			MessageID:      &message.ID,
		})
	}

	// Direct messages notify the other party unless a mention already did
	if conversation.Type == db.DirectConversation {
		for _, member := range conversation.Members {
			if member.AccountID == message.SenderID || mentioned[member.AccountID] {
				continue
			}
			server.sendNotification(ctx, worker.NotificationPayload{
				AccountID:      member.AccountID,
				Type:           db.NotifyMessage,
				Title:          fmt.Sprintf("New message from %s", sender.Username),
				Content:        preview,
				FromID:         &message.SenderID,
				ConversationID: &conversation.ID,
				MessageID:      &message.ID,
			})
		}
	}
}

func messagePreview(username, content string, hasAttachment bool) string {
	if content == "" && hasAttachment {
		content = "sent an attachment"
	}
	runes := []rune(content)
	if len(runes) > previewLength {
		content = string(runes[:previewLength]) + "..."
	}
	return fmt.Sprintf("%s: %s", username, content)
}

func (server *Server) deliverEvent(ctx *gin.Context, eventType string, conversationID uint, payload any, recipients []uint) {
	event, err := pubsub.NewEvent(eventType, conversationID, payload)
	if err != nil {
		server.logger.Error("Failed to build event", "event_type", eventType, "error", err)
		return
	}
	err = server.distributor.DistributeTaskDeliverEvent(ctx, worker.EventPayload{
		Event:      event,
		Recipients: recipients,
	})
	if err != nil {
		server.logger.Error("Failed to enqueue event delivery", "event_type", eventType, "error", err)
	}
}

func (server *Server) sendNotification(ctx *gin.Context, payload worker.NotificationPayload) {
	if err := server.distributor.DistributeTaskSendNotification(ctx, payload); err != nil {
		server.logger.Error("Failed to enqueue notification", "type", payload.Type, "error", err)
	}
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (server *Server) HandleEditMessage(ctx *gin.Context) {
	claims := server.identity(ctx)

	messageID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid message ID"})
		return
	}

	var req EditMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Message cannot be empty"})
		return
	}

	message, err := server.store.GetMessage(messageID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Message not found"})
			return
		}
		server.logger.Error("PATCH /api/messages/:id: failed to fetch message", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}
	if message.SenderID != claims.ID {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Access denied"})
		return
	}

	now := time.Now()
	message.Content = req.Content
	message.Edited = true
	message.EditedAt = &now
	if err := server.store.UpdateMessage(message); err != nil {
		server.logger.Error("PATCH /api/messages/:id: failed to update message", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if conversation, err := server.store.GetConversation(message.ConversationID); err == nil {
		recipients := make([]uint, 0, len(conversation.Members))
		for _, member := range conversation.Members {
			recipients = append(recipients, member.AccountID)
		}
		server.deliverEvent(ctx, pubsub.EventMessageEdited, conversation.ID, server.messageView(message, nil), recipients)
	}

	ctx.JSON(http.StatusOK, server.messageView(message, nil))
}

func (server *Server) HandleDeleteMessage(ctx *gin.Context) {
	claims := server.identity(ctx)

	messageID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid message ID"})
		return
	}

	message, err := server.store.GetMessage(messageID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Message not found"})
			return
		}
		server.logger.Error("DELETE /api/messages/:id: failed to fetch message", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}
	if message.SenderID != claims.ID {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Access denied"})
		return
	}

	if err := server.store.DeleteMessage(messageID); err != nil {
		server.logger.Error("DELETE /api/messages/:id: failed to delete message", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if conversation, err := server.store.GetConversation(message.ConversationID); err == nil {
		recipients := make([]uint, 0, len(conversation.Members))
		for _, member := range conversation.Members {
			recipients = append(recipients, member.AccountID)
		}
		server.deliverEvent(ctx, pubsub.EventMessageDeleted, conversation.ID,
			gin.H{"id": messageID}, recipients)
	}

	ctx.Status(http.StatusNoContent)
}

type ToggleReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// HandleToggleReaction adds the reaction when absent and removes it when
// present. Reactions never produce notifications.
func (server *Server) HandleToggleReaction(ctx *gin.Context) {
	claims := server.identity(ctx)

	messageID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid message ID"})
		return
	}

	var req ToggleReactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	message, err := server.store.GetMessage(messageID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Message not found"})
			return
		}
		server.logger.Error("POST /api/messages/:id/reactions: failed to fetch message", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	member, err := server.store.IsMember(message.ConversationID, claims.ID)
	if err != nil || !member {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Access denied"})
		return
	}

	added, err := server.store.ToggleReaction(messageID, claims.ID, req.Emoji)
	if err != nil {
		server.logger.Error("POST /api/messages/:id/reactions: failed to toggle reaction", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if conversation, err := server.store.GetConversation(message.ConversationID); err == nil {
		recipients := make([]uint, 0, len(conversation.Members))
		for _, member := range conversation.Members {
			recipients = append(recipients, member.AccountID)
		}
		server.deliverEvent(ctx, pubsub.EventReaction, conversation.ID, gin.H{
			"message_id": messageID,
			"account_id": claims.ID,
			"emoji":      req.Emoji,
			"added":      added,
		}, recipients)
	}

	ctx.JSON(http.StatusOK, gin.H{"added": added})
}
