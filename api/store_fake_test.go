package api

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/danglnh07/concord/db"
)

// fakeStore is an in-memory db.Store used by the handler tests. It mirrors
// the sentinel-error contract of the real Queries.
type fakeStore struct {
	mu sync.Mutex

	nextID uint

	accounts      map[uint]*db.Account
	profiles      map[uint]*db.Profile // keyed by account id
	friendships   []*db.Friendship
	requests      map[uint]*db.FriendRequest
	conversations map[uint]*db.Conversation
	messages      map[uint]*db.Message
	reactions     []*db.Reaction
	typing        map[[2]uint]*db.TypingStatus // conversation id, account id
	unread        map[[2]uint]*db.UnreadCounter
	calls         map[uint]*db.VoiceCall
	notifications map[uint]*db.Notification
	emojis        map[string]*db.CustomEmoji
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:      make(map[uint]*db.Account),
		profiles:      make(map[uint]*db.Profile),
		requests:      make(map[uint]*db.FriendRequest),
		conversations: make(map[uint]*db.Conversation),
		messages:      make(map[uint]*db.Message),
		typing:        make(map[[2]uint]*db.TypingStatus),
		unread:        make(map[[2]uint]*db.UnreadCounter),
		calls:         make(map[uint]*db.VoiceCall),
		notifications: make(map[uint]*db.Notification),
		emojis:        make(map[string]*db.CustomEmoji),
	}
}

func (store *fakeStore) id() uint {
	store.nextID++
	return store.nextID
}

// Accounts

func (store *fakeStore) GetAccount(id uint) (*db.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	account, ok := store.accounts[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (store *fakeStore) GetAccountByOauth(provider, providerID string) (*db.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, account := range store.accounts {
		if account.OauthProvider == provider && account.OauthProviderID == providerID {
			copied := *account
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (store *fakeStore) CreateAccount(account *db.Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	account.ID = store.id()
	copied := *account
	store.accounts[account.ID] = &copied
	return nil
}

// Profiles

func (store *fakeStore) GetProfile(accountID uint) (*db.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	profile, ok := store.profiles[accountID]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

func (store *fakeStore) GetProfileByUsername(username string) (*db.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, profile := range store.profiles {
		if profile.Username == username {
			copied := *profile
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (store *fakeStore) CreateProfile(profile *db.Profile) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.profiles[profile.AccountID]; ok {
		return db.ErrDuplicate
	}
	for _, existing := range store.profiles {
		if existing.Username == profile.Username {
			return db.ErrDuplicate
		}
	}
	profile.ID = store.id()
	copied := *profile
	store.profiles[profile.AccountID] = &copied
	return nil
}

func (store *fakeStore) UpdateProfile(profile *db.Profile) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.profiles[profile.AccountID]; !ok {
		return db.ErrNotFound
	}
	copied := *profile
	store.profiles[profile.AccountID] = &copied
	return nil
}

func (store *fakeStore) UpdateProfileStatus(profileID uint, status db.Status) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, profile := range store.profiles {
		if profile.ID == profileID {
			profile.Status = status
			return nil
		}
	}
	return db.ErrNotFound
}

func (store *fakeStore) ListProfiles() ([]db.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	profiles := make([]db.Profile, 0, len(store.profiles))
	for _, profile := range store.profiles {
		profiles = append(profiles, *profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

func (store *fakeStore) SearchProfiles(query string, limit int) ([]db.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	query = strings.ToLower(query)
	var profiles []db.Profile
	for _, profile := range store.profiles {
		if len(profiles) >= limit {
			break
		}
		if strings.Contains(profile.Username, query) ||
			strings.Contains(strings.ToLower(profile.DisplayName), query) {
			profiles = append(profiles, *profile)
		}
	}
	return profiles, nil
}

func (store *fakeStore) AddBadge(profileID uint, badge *db.Badge) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, profile := range store.profiles {
		if profile.ID != profileID {
			continue
		}
		for _, existing := range profile.Badges {
			if existing.Name == badge.Name {
				return db.ErrDuplicate
			}
		}
		badge.ID = store.id()
		badge.ProfileID = profileID
		profile.Badges = append(profile.Badges, *badge)
		return nil
	}
	return db.ErrNotFound
}

func (store *fakeStore) RemoveBadge(profileID uint, name string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, profile := range store.profiles {
		if profile.ID != profileID {
			continue
		}
		for i, badge := range profile.Badges {
			if badge.Name == name {
				profile.Badges = append(profile.Badges[:i], profile.Badges[i+1:]...)
				return nil
			}
		}
		return db.ErrNotFound
	}
	return db.ErrNotFound
}

// Friends

func sortedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

func (store *fakeStore) GetFriendship(user1ID, user2ID uint) (*db.Friendship, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	first, second := sortedPair(user1ID, user2ID)
	for _, friendship := range store.friendships {
		if friendship.User1ID == first && friendship.User2ID == second {
			copied := *friendship
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (store *fakeStore) CreateFriendship(friendship *db.Friendship) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	first, second := sortedPair(friendship.User1ID, friendship.User2ID)
	for _, existing := range store.friendships {
		if existing.User1ID == first && existing.User2ID == second {
			return db.ErrDuplicate
		}
	}
	friendship.ID = store.id()
	friendship.User1ID, friendship.User2ID = first, second
	copied := *friendship
	store.friendships = append(store.friendships, &copied)
	return nil
}

func (store *fakeStore) ListFriendships(accountID uint) ([]db.Friendship, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var friendships []db.Friendship
	for _, friendship := range store.friendships {
		if friendship.User1ID == accountID || friendship.User2ID == accountID {
			friendships = append(friendships, *friendship)
		}
	}
	return friendships, nil
}

func (store *fakeStore) GetFriendRequest(id uint) (*db.FriendRequest, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	request, ok := store.requests[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *request
	return &copied, nil
}

func (store *fakeStore) GetPendingRequest(fromID, toID uint) (*db.FriendRequest, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, request := range store.requests {
		if request.FromID == fromID && request.ToID == toID && request.Status == db.RequestPending {
			copied := *request
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (store *fakeStore) CreateFriendRequest(request *db.FriendRequest) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	request.ID = store.id()
	copied := *request
	store.requests[request.ID] = &copied
	return nil
}

func (store *fakeStore) UpdateFriendRequest(request *db.FriendRequest) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.requests[request.ID]; !ok {
		return db.ErrNotFound
	}
	copied := *request
	store.requests[request.ID] = &copied
	return nil
}

func (store *fakeStore) ListPendingRequests(toID uint) ([]db.FriendRequest, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var requests []db.FriendRequest
	for _, request := range store.requests {
		if request.ToID == toID && request.Status == db.RequestPending {
			requests = append(requests, *request)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

// Conversations

func (store *fakeStore) GetConversation(id uint) (*db.Conversation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	conversation, ok := store.conversations[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *conversation
	copied.Members = append([]db.ConversationMember(nil), conversation.Members...)
	return &copied, nil
}

func (store *fakeStore) GetDirectConversation(key string) (*db.Conversation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, conversation := range store.conversations {
		if conversation.DirectKey != nil && *conversation.DirectKey == key {
			copied := *conversation
			copied.Members = append([]db.ConversationMember(nil), conversation.Members...)
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (store *fakeStore) GetGeneralConversation() (*db.Conversation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, conversation := range store.conversations {
		if conversation.Type == db.GeneralConversation {
			copied := *conversation
			copied.Members = append([]db.ConversationMember(nil), conversation.Members...)
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (store *fakeStore) CreateConversation(conversation *db.Conversation) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if conversation.DirectKey != nil {
		for _, existing := range store.conversations {
			if existing.DirectKey != nil && *existing.DirectKey == *conversation.DirectKey {
				return db.ErrDuplicate
			}
		}
	}
	conversation.ID = store.id()
	copied := *conversation
	copied.Members = append([]db.ConversationMember(nil), conversation.Members...)
	store.conversations[conversation.ID] = &copied
	return nil
}

func (store *fakeStore) ListConversationsFor(accountID uint) ([]db.Conversation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var conversations []db.Conversation
	for _, conversation := range store.conversations {
		for _, member := range conversation.Members {
			if member.AccountID == accountID {
				copied := *conversation
				copied.Members = append([]db.ConversationMember(nil), conversation.Members...)
				conversations = append(conversations, copied)
				break
			}
		}
	}
	sort.Slice(conversations, func(i, j int) bool { return conversations[i].ID < conversations[j].ID })
	return conversations, nil
}

func (store *fakeStore) AddMember(conversationID, accountID uint, joinedAt time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	conversation, ok := store.conversations[conversationID]
	if !ok {
		return db.ErrNotFound
	}
	for _, member := range conversation.Members {
		if member.AccountID == accountID {
			return db.ErrDuplicate
		}
	}
	conversation.Members = append(conversation.Members, db.ConversationMember{
		ConversationID: conversationID,
		AccountID:      accountID,
		JoinedAt:       joinedAt,
	})
	return nil
}

func (store *fakeStore) IsMember(conversationID, accountID uint) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	conversation, ok := store.conversations[conversationID]
	if !ok {
		return false, nil
	}
	for _, member := range conversation.Members {
		if member.AccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

func (store *fakeStore) UpdateConversationPreview(conversationID uint, preview string, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	conversation, ok := store.conversations[conversationID]
	if !ok {
		return db.ErrNotFound
	}
	conversation.LastMessage = preview
	stamp := at
	conversation.LastMessageAt = &stamp
	return nil
}

// Messages

func (store *fakeStore) CreateMessage(message *db.Message) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	message.ID = store.id()
	message.CreatedAt = time.Now()
	copied := *message
	copied.Mentions = append([]db.MessageMention(nil), message.Mentions...)
	copied.Attachments = append([]db.MessageAttachment(nil), message.Attachments...)
	store.messages[message.ID] = &copied
	return nil
}

func (store *fakeStore) GetMessage(id uint) (*db.Message, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	message, ok := store.messages[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *message
	return &copied, nil
}

func (store *fakeStore) UpdateMessage(message *db.Message) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.messages[message.ID]; !ok {
		return db.ErrNotFound
	}
	copied := *message
	store.messages[message.ID] = &copied
	return nil
}

func (store *fakeStore) DeleteMessage(id uint) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.messages[id]; !ok {
		return db.ErrNotFound
	}
	delete(store.messages, id)
	kept := store.reactions[:0]
	for _, reaction := range store.reactions {
		if reaction.MessageID != id {
			kept = append(kept, reaction)
		}
	}
	store.reactions = kept
	return nil
}

func (store *fakeStore) ListMessages(conversationID uint, before uint, limit int) ([]db.Message, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var messages []db.Message
	for _, message := range store.messages {
		if message.ConversationID != conversationID {
			continue
		}
		if before != 0 && message.ID >= before {
			continue
		}
		messages = append(messages, *message)
	}
	// Newest first, like the real query
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID > messages[j].ID })
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (store *fakeStore) ListReactions(messageIDs []uint) ([]db.Reaction, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	wanted := make(map[uint]bool, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = true
	}
	var reactions []db.Reaction
	for _, reaction := range store.reactions {
		if wanted[reaction.MessageID] {
			reactions = append(reactions, *reaction)
		}
	}
	return reactions, nil
}

func (store *fakeStore) ToggleReaction(messageID, accountID uint, emoji string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for i, reaction := range store.reactions {
		if reaction.MessageID == messageID && reaction.AccountID == accountID && reaction.Emoji == emoji {
			store.reactions = append(store.reactions[:i], store.reactions[i+1:]...)
			return false, nil
		}
	}
	store.reactions = append(store.reactions, &db.Reaction{
		MessageID: messageID,
		AccountID: accountID,
		Emoji:     emoji,
	})
	return true, nil
}

// Typing

func (store *fakeStore) UpsertTyping(conversationID, accountID uint, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	key := [2]uint{conversationID, accountID}
	store.typing[key] = &db.TypingStatus{
		ConversationID: conversationID,
		AccountID:      accountID,
		LastTyping:     at,
	}
	return nil
}

func (store *fakeStore) DeleteTyping(conversationID, accountID uint) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.typing, [2]uint{conversationID, accountID})
	return nil
}

func (store *fakeStore) ListTypingSince(conversationID uint, since time.Time) ([]db.TypingStatus, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var rows []db.TypingStatus
	for _, row := range store.typing {
		if row.ConversationID == conversationID && !row.LastTyping.Before(since) {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

func (store *fakeStore) DeleteTypingBefore(cutoff time.Time) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var deleted int64
	for key, row := range store.typing {
		if row.LastTyping.Before(cutoff) {
			delete(store.typing, key)
			deleted++
		}
	}
	return deleted, nil
}

// Unread counters

func (store *fakeStore) IncrementUnread(accountID, conversationID uint) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	key := [2]uint{accountID, conversationID}
	counter, ok := store.unread[key]
	if !ok {
		counter = &db.UnreadCounter{AccountID: accountID, ConversationID: conversationID}
		store.unread[key] = counter
	}
	counter.Count++
	return nil
}

func (store *fakeStore) ResetUnread(accountID, conversationID uint, lastMessageID *uint) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	key := [2]uint{accountID, conversationID}
	counter, ok := store.unread[key]
	if !ok {
		counter = &db.UnreadCounter{AccountID: accountID, ConversationID: conversationID}
		store.unread[key] = counter
	}
	counter.Count = 0
	if lastMessageID != nil {
		counter.LastReadMessageID = lastMessageID
	}
	return nil
}

func (store *fakeStore) ListUnread(accountID uint) ([]db.UnreadCounter, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var counters []db.UnreadCounter
	for _, counter := range store.unread {
		if counter.AccountID == accountID {
			counters = append(counters, *counter)
		}
	}
	return counters, nil
}

// Voice calls

func (store *fakeStore) GetActiveCall(conversationID uint) (*db.VoiceCall, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, call := range store.calls {
		if call.ConversationID == conversationID && call.Active {
			copied := *call
			copied.Participants = append([]db.VoiceParticipant(nil), call.Participants...)
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (store *fakeStore) CreateCall(call *db.VoiceCall) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	call.ID = store.id()
	copied := *call
	copied.Participants = append([]db.VoiceParticipant(nil), call.Participants...)
	store.calls[call.ID] = &copied
	return nil
}

func (store *fakeStore) AddCallParticipant(callID uint, participant *db.VoiceParticipant) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	call, ok := store.calls[callID]
	if !ok {
		return db.ErrNotFound
	}
	for _, existing := range call.Participants {
		if existing.AccountID == participant.AccountID {
			return db.ErrDuplicate
		}
	}
	participant.CallID = callID
	call.Participants = append(call.Participants, *participant)
	return nil
}

func (store *fakeStore) RemoveCallParticipant(callID, accountID uint) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	call, ok := store.calls[callID]
	if !ok {
		return 0, db.ErrNotFound
	}
	for i, participant := range call.Participants {
		if participant.AccountID == accountID {
			call.Participants = append(call.Participants[:i], call.Participants[i+1:]...)
			break
		}
	}
	return int64(len(call.Participants)), nil
}

func (store *fakeStore) UpdateCallParticipant(callID, accountID uint, muted, deafened bool) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	call, ok := store.calls[callID]
	if !ok {
		return db.ErrNotFound
	}
	for i := range call.Participants {
		if call.Participants[i].AccountID == accountID {
			call.Participants[i].Muted = muted
			call.Participants[i].Deafened = deafened
			return nil
		}
	}
	return db.ErrNotFound
}

func (store *fakeStore) EndCall(callID uint, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	call, ok := store.calls[callID]
	if !ok {
		return db.ErrNotFound
	}
	call.Active = false
	stamp := at
	call.EndedAt = &stamp
	return nil
}

func (store *fakeStore) DeleteInactiveCallsBefore(cutoff time.Time) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var deleted int64
	for id, call := range store.calls {
		if !call.Active && call.EndedAt != nil && call.EndedAt.Before(cutoff) {
			delete(store.calls, id)
			deleted++
		}
	}
	return deleted, nil
}

// Notifications

func (store *fakeStore) CreateNotification(notification *db.Notification) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	notification.ID = store.id()
	copied := *notification
	store.notifications[notification.ID] = &copied
	return nil
}

func (store *fakeStore) GetNotification(id uint) (*db.Notification, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	notification, ok := store.notifications[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *notification
	return &copied, nil
}

func (store *fakeStore) ListNotifications(accountID uint, limit int) ([]db.Notification, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var notifications []db.Notification
	for _, notification := range store.notifications {
		if notification.AccountID == accountID {
			notifications = append(notifications, *notification)
		}
	}
	sort.Slice(notifications, func(i, j int) bool { return notifications[i].ID > notifications[j].ID })
	if len(notifications) > limit {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

func (store *fakeStore) MarkNotificationRead(id uint) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	notification, ok := store.notifications[id]
	if !ok {
		return db.ErrNotFound
	}
	notification.Read = true
	return nil
}

func (store *fakeStore) MarkAllNotificationsRead(accountID uint) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var updated int64
	for _, notification := range store.notifications {
		if notification.AccountID == accountID && !notification.Read {
			notification.Read = true
			updated++
		}
	}
	return updated, nil
}

func (store *fakeStore) CountUnreadNotifications(accountID uint) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var count int64
	for _, notification := range store.notifications {
		if notification.AccountID == accountID && !notification.Read {
			count++
		}
	}
	return count, nil
}

// Custom emojis

func (store *fakeStore) CreateEmoji(emoji *db.CustomEmoji) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.emojis[emoji.Name]; ok {
		return db.ErrDuplicate
	}
	emoji.ID = store.id()
	copied := *emoji
	store.emojis[emoji.Name] = &copied
	return nil
}

func (store *fakeStore) DeleteEmojiByName(name string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.emojis[name]; !ok {
		return db.ErrNotFound
	}
	delete(store.emojis, name)
	return nil
}

func (store *fakeStore) ListEmojis() ([]db.CustomEmoji, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	emojis := make([]db.CustomEmoji, 0, len(store.emojis))
	for _, emoji := range store.emojis {
		emojis = append(emojis, *emoji)
	}
	sort.Slice(emojis, func(i, j int) bool { return emojis[i].Name < emojis[j].Name })
	return emojis, nil
}

var _ db.Store = (*fakeStore)(nil)
