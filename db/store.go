package db

import "time"

// Store is the data access surface the handlers and the background worker
// depend on. *Queries implements it over Postgres; tests substitute an
// in-memory fake. Methods return ErrNotFound / ErrDuplicate instead of
// driver errors.
type Store interface {
	// Accounts
	GetAccount(id uint) (*Account, error)
	GetAccountByOauth(provider, providerID string) (*Account, error)
	CreateAccount(account *Account) error

	// Profiles
	GetProfile(accountID uint) (*Profile, error)
	GetProfileByUsername(username string) (*Profile, error)
	CreateProfile(profile *Profile) error
	UpdateProfile(profile *Profile) error
	UpdateProfileStatus(profileID uint, status Status) error
	ListProfiles() ([]Profile, error)
	SearchProfiles(query string, limit int) ([]Profile, error)
	AddBadge(profileID uint, badge *Badge) error
	RemoveBadge(profileID uint, name string) error

	// Friends
	GetFriendship(user1ID, user2ID uint) (*Friendship, error)
	CreateFriendship(friendship *Friendship) error
	ListFriendships(accountID uint) ([]Friendship, error)
	GetFriendRequest(id uint) (*FriendRequest, error)
	GetPendingRequest(fromID, toID uint) (*FriendRequest, error)
	CreateFriendRequest(request *FriendRequest) error
	UpdateFriendRequest(request *FriendRequest) error
	ListPendingRequests(toID uint) ([]FriendRequest, error)

	// Conversations
	GetConversation(id uint) (*Conversation, error)
	GetDirectConversation(key string) (*Conversation, error)
	GetGeneralConversation() (*Conversation, error)
	CreateConversation(conversation *Conversation) error
	ListConversationsFor(accountID uint) ([]Conversation, error)
	AddMember(conversationID, accountID uint, joinedAt time.Time) error
	IsMember(conversationID, accountID uint) (bool, error)
	UpdateConversationPreview(conversationID uint, preview string, at time.Time) error

	// Messages
	CreateMessage(message *Message) error
	GetMessage(id uint) (*Message, error)
	UpdateMessage(message *Message) error
	DeleteMessage(id uint) error
	ListMessages(conversationID uint, before uint, limit int) ([]Message, error)
	ListReactions(messageIDs []uint) ([]Reaction, error)
	ToggleReaction(messageID, accountID uint, emoji string) (added bool, err error)

	// Typing
	UpsertTyping(conversationID, accountID uint, at time.Time) error
	DeleteTyping(conversationID, accountID uint) error
	ListTypingSince(conversationID uint, since time.Time) ([]TypingStatus, error)
	DeleteTypingBefore(cutoff time.Time) (int64, error)

	// Unread counters
	IncrementUnread(accountID, conversationID uint) error
	ResetUnread(accountID, conversationID uint, lastMessageID *uint) error
	ListUnread(accountID uint) ([]UnreadCounter, error)

	// Voice calls
	GetActiveCall(conversationID uint) (*VoiceCall, error)
	CreateCall(call *VoiceCall) error
	AddCallParticipant(callID uint, participant *VoiceParticipant) error
	RemoveCallParticipant(callID, accountID uint) (remaining int64, err error)
	UpdateCallParticipant(callID, accountID uint, muted, deafened bool) error
	EndCall(callID uint, at time.Time) error
	DeleteInactiveCallsBefore(cutoff time.Time) (int64, error)

	// Notifications
	CreateNotification(notification *Notification) error
	GetNotification(id uint) (*Notification, error)
	ListNotifications(accountID uint, limit int) ([]Notification, error)
	MarkNotificationRead(id uint) error
	MarkAllNotificationsRead(accountID uint) (int64, error)
	CountUnreadNotifications(accountID uint) (int64, error)

	// Custom emojis
	CreateEmoji(emoji *CustomEmoji) error
	DeleteEmojiByName(name string) error
	ListEmojis() ([]CustomEmoji, error)
}
