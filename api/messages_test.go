package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/danglnh07/concord/db"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// seedGroup creates a group conversation with the given members, owned by
// the first.
func seedGroup(t *testing.T, env *testEnv, owner uint, others ...uint) uint {
	t.Helper()

	members := []db.ConversationMember{{AccountID: owner}}
	for _, id := range others {
		members = append(members, db.ConversationMember{AccountID: id})
	}
	conversation := db.Conversation{
		Type:    db.GroupConversation,
		Name:    "room",
		Members: members,
	}
	require.NoError(t, env.store.CreateConversation(&conversation))
	return conversation.ID
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	bobID, _ := env.newUser(t, "bob")
	conversationID := seedGroup(t, env, aliceID, bobID)

	recorder := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
			"content": "hello there",
		})
	require.Equal(t, http.StatusCreated, recorder.Code)

	view := decode[MessageView](t, recorder)
	require.Equal(t, aliceID, view.SenderID)
	require.Equal(t, "hello there", view.Content)

	// Preview and activity stamp move on the conversation
	conversation, err := env.store.GetConversation(conversationID)
	require.NoError(t, err)
	require.Equal(t, "alice: hello there", conversation.LastMessage)
	require.NotNil(t, conversation.LastMessageAt)

	// Unread increments for bob, not for the sender
	counters, err := env.store.ListUnread(bobID)
	require.NoError(t, err)
	require.Len(t, counters, 1)
	require.Equal(t, 1, counters[0].Count)

	counters, err = env.store.ListUnread(aliceID)
	require.NoError(t, err)
	require.Empty(t, counters)

	// A realtime event is enqueued for every participant
	require.Len(t, env.distributor.events, 1)
	require.ElementsMatch(t, []uint{aliceID, bobID}, env.distributor.events[0].Recipients)
}

func TestSendMessageAuthorization(t *testing.T) {
	env := newTestEnv(t)
	aliceID, _ := env.newUser(t, "alice")
	_, outsiderToken := env.newUser(t, "mallory")
	bannedID, bannedToken := env.newUser(t, "spammer")
	conversationID := seedGroup(t, env, aliceID, bannedID)

	// Non-participant
	recorder := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), outsiderToken, gin.H{
			"content": "let me in",
		})
	require.Equal(t, http.StatusForbidden, recorder.Code)

	// Banned participant
	profile, err := env.store.GetProfile(bannedID)
	require.NoError(t, err)
	profile.Banned = true
	require.NoError(t, env.store.UpdateProfile(profile))

	recorder = env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), bannedToken, gin.H{
			"content": "buy now",
		})
	require.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestSendMessageEmptyRejected(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	conversationID := seedGroup(t, env, aliceID)

	recorder := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
			"content": "   ",
		})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestMentionsResolveToParticipantsOnly(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	bobID, _ := env.newUser(t, "bob")
	env.newUser(t, "carol") // not in the conversation
	conversationID := seedGroup(t, env, aliceID, bobID)

	recorder := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
			"content": "hey @bob and @carol and @nobody",
		})
	require.Equal(t, http.StatusCreated, recorder.Code)

	view := decode[MessageView](t, recorder)
	require.Equal(t, []uint{bobID}, view.Mentions)

	// Only the resolved mention produces a notification
	payloads := env.distributor.notificationsFor(bobID)
	require.Len(t, payloads, 1)
	require.Equal(t, db.NotifyMention, payloads[0].Type)
}

func TestDirectMessageNotifiesRecipient(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	bobID, _ := env.newUser(t, "bob")

	recorder := env.request(t, http.MethodPost, "/api/conversations", aliceToken, gin.H{
		"type":             "direct",
		"other_account_id": bobID,
	})
	conversation := decode[ConversationView](t, recorder)

	recorder = env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversation.ID), aliceToken, gin.H{
			"content": "ping",
		})
	require.Equal(t, http.StatusCreated, recorder.Code)

	payloads := env.distributor.notificationsFor(bobID)
	require.Len(t, payloads, 1)
	require.Equal(t, db.NotifyMessage, payloads[0].Type)
	require.Empty(t, env.distributor.notificationsFor(aliceID), "senders do not notify themselves")
}

func TestReplyTargetValidation(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	conversationID := seedGroup(t, env, aliceID)
	otherID := seedGroup(t, env, aliceID)

	recorder := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
			"content": "parent",
		})
	parent := decode[MessageView](t, recorder)

	// Replying across conversations is rejected
	recorder = env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", otherID), aliceToken, gin.H{
			"content":     "cross reply",
			"reply_to_id": parent.ID,
		})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
			"content":     "proper reply",
			"reply_to_id": parent.ID,
		})
	require.Equal(t, http.StatusCreated, recorder.Code)
	reply := decode[MessageView](t, recorder)
	require.NotNil(t, reply.ReplyToID)
	require.Equal(t, parent.ID, *reply.ReplyToID)
}

func TestEditMessageOwnership(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	bobID, bobToken := env.newUser(t, "bob")
	conversationID := seedGroup(t, env, aliceID, bobID)

	recorder := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
			"content": "original",
		})
	message := decode[MessageView](t, recorder)

	// Someone else cannot edit
	recorder = env.request(t, http.MethodPatch,
		fmt.Sprintf("/api/messages/%d", message.ID), bobToken, gin.H{
			"content": "hijacked",
		})
	require.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = env.request(t, http.MethodPatch,
		fmt.Sprintf("/api/messages/%d", message.ID), aliceToken, gin.H{
			"content": "corrected",
		})
	require.Equal(t, http.StatusOK, recorder.Code)
	edited := decode[MessageView](t, recorder)
	require.Equal(t, "corrected", edited.Content)
	require.True(t, edited.Edited)
	require.NotNil(t, edited.EditedAt)
}

func TestDeleteMessageCascadesReactions(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	bobID, bobToken := env.newUser(t, "bob")
	conversationID := seedGroup(t, env, aliceID, bobID)

	recorder := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
			"content": "short lived",
		})
	message := decode[MessageView](t, recorder)

	recorder = env.request(t, http.MethodPost,
		fmt.Sprintf("/api/messages/%d/reactions", message.ID), bobToken, gin.H{"emoji": "👍"})
	require.Equal(t, http.StatusOK, recorder.Code)

	// Non-owner cannot delete
	recorder = env.request(t, http.MethodDelete,
		fmt.Sprintf("/api/messages/%d", message.ID), bobToken, nil)
	require.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = env.request(t, http.MethodDelete,
		fmt.Sprintf("/api/messages/%d", message.ID), aliceToken, nil)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	reactions, err := env.store.ListReactions([]uint{message.ID})
	require.NoError(t, err)
	require.Empty(t, reactions)
}

func TestToggleReaction(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	bobID, bobToken := env.newUser(t, "bob")
	conversationID := seedGroup(t, env, aliceID, bobID)

	recorder := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
			"content": "react to me",
		})
	message := decode[MessageView](t, recorder)
	path := fmt.Sprintf("/api/messages/%d/reactions", message.ID)

	recorder = env.request(t, http.MethodPost, path, bobToken, gin.H{"emoji": "🎉"})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, decode[map[string]bool](t, recorder)["added"])

	// Same emoji again removes it
	recorder = env.request(t, http.MethodPost, path, bobToken, gin.H{"emoji": "🎉"})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.False(t, decode[map[string]bool](t, recorder)["added"])

	// No notifications for reactions
	require.Empty(t, env.distributor.notificationsFor(aliceID))
}

func TestListMessagesPagination(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	conversationID := seedGroup(t, env, aliceID)

	for i := 1; i <= 5; i++ {
		recorder := env.request(t, http.MethodPost,
			fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
				"content": fmt.Sprintf("message %d", i),
			})
		require.Equal(t, http.StatusCreated, recorder.Code)
	}

	recorder := env.request(t, http.MethodGet,
		fmt.Sprintf("/api/conversations/%d/messages?limit=3", conversationID), aliceToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	page := decode[[]MessageView](t, recorder)
	require.Len(t, page, 3)
	// Ascending within the page, newest page first
	require.Equal(t, "message 3", page[0].Content)
	require.Equal(t, "message 5", page[2].Content)

	// Page further back with the cursor
	recorder = env.request(t, http.MethodGet,
		fmt.Sprintf("/api/conversations/%d/messages?limit=3&before=%d", conversationID, page[0].ID),
		aliceToken, nil)
	older := decode[[]MessageView](t, recorder)
	require.Len(t, older, 2)
	require.Equal(t, "message 1", older[0].Content)
	require.Equal(t, "message 2", older[1].Content)
}

func TestListMessagesHiddenFromOutsiders(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	_, outsiderToken := env.newUser(t, "mallory")
	conversationID := seedGroup(t, env, aliceID)

	recorder := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
			"content": "secret",
		})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = env.request(t, http.MethodGet,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), outsiderToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, "[]", recorder.Body.String())
}

func TestMessageEmbedsDerived(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice")
	conversationID := seedGroup(t, env, aliceID)

	recorder := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/conversations/%d/messages", conversationID), aliceToken, gin.H{
			"content": "look https://cdn.example.com/pic.png",
		})
	require.Equal(t, http.StatusCreated, recorder.Code)
	message := decode[MessageView](t, recorder)
	require.Len(t, message.Embeds, 1)
	require.Equal(t, "image", message.Embeds[0].Type)
}
