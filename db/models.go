package db

import (
	"time"

	"gorm.io/gorm"
)

type OauthProvider string

type Role string

type Status string

type ConversationType string

type FriendRequestStatus string

type NotificationType string

const (
	Google OauthProvider = "google"

	User  Role = "user"
	Admin Role = "admin"

	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusDnd     Status = "dnd"
	StatusOffline Status = "offline"

	DirectConversation  ConversationType = "direct"
	GroupConversation   ConversationType = "group"
	GeneralConversation ConversationType = "general"

	RequestPending  FriendRequestStatus = "pending"
	RequestAccepted FriendRequestStatus = "accepted"
	RequestDeclined FriendRequestStatus = "declined"

	NotifyMessage       NotificationType = "message"
	NotifyFriendRequest NotificationType = "friend_request"
	NotifyMention       NotificationType = "mention"
)

// Account holds the identity supplied by the OAuth provider. Everything
// user-facing lives on Profile; the account itself is immutable except
// through the provider.
type Account struct {
	gorm.Model
	Username        string `json:"username" gorm:"not null"`
	Email           string `json:"email" gorm:"not null"`
	OauthProvider   string `json:"oauth_provider" gorm:"not null"`
	OauthProviderID string `json:"oauth_provider_id" gorm:"unique;not null"`
	TokenVersion    uint   `json:"token_version"`
	Role            Role   `json:"role" gorm:"default:user"`
}

// Profile is the 1:1 chat profile of an account. Username is immutable once
// set. Status and LastSeen are written by the heartbeat and by the periodic
// status sweep; Banned/Verified/Badges only by admins.
type Profile struct {
	gorm.Model
	AccountID    uint      `json:"account_id" gorm:"uniqueIndex;not null"`
	Account      Account   `json:"-" gorm:"foreignKey:AccountID"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	DisplayName  string    `json:"display_name"`
	AvatarKey    string    `json:"avatar_key"`
	BannerKey    string    `json:"banner_key"`
	AboutMe      string    `json:"about_me"`
	Status       Status    `json:"status" gorm:"default:offline"`
	LastSeen     time.Time `json:"last_seen"`
	Verified     bool      `json:"verified"`
	Banned       bool      `json:"banned"`
	DoNotDisturb bool      `json:"do_not_disturb"`
	Badges       []Badge   `json:"badges" gorm:"foreignKey:ProfileID"`
}

// Badge name is unique per profile.
type Badge struct {
	gorm.Model
	ProfileID   uint   `json:"-" gorm:"uniqueIndex:idx_profile_badge"`
	Name        string `json:"name" gorm:"uniqueIndex:idx_profile_badge"`
	ImageKey    string `json:"image_key"`
	Description string `json:"description"`
}

// FriendRequest is the directed, historical record. A terminal response
// (accept/decline) never leaves it pending.
type FriendRequest struct {
	gorm.Model
	FromID uint                `json:"from_id" gorm:"index"`
	From   Account             `json:"-" gorm:"foreignKey:FromID"`
	ToID   uint                `json:"to_id" gorm:"index"`
	To     Account             `json:"-" gorm:"foreignKey:ToID"`
	Status FriendRequestStatus `json:"status" gorm:"default:pending"`
}

// Friendship is the undirected result of an accepted request. The pair is
// stored sorted (User1ID < User2ID) so the unique index covers both orders.
type Friendship struct {
	gorm.Model
	User1ID uint `json:"user1_id" gorm:"uniqueIndex:idx_friend_pair"`
	User2ID uint `json:"user2_id" gorm:"uniqueIndex:idx_friend_pair"`
}

// Conversation stores participant ids only (via ConversationMember);
// profiles are resolved at read time. DirectKey is "minID:maxID" for direct
// conversations, a sentinel for the general singleton and null for groups;
// its unique index closes both the duplicate direct get-or-create race and
// the double-creation of the general conversation.
type Conversation struct {
	gorm.Model
	Type          ConversationType     `json:"type" gorm:"not null;index"`
	Name          string               `json:"name"`
	DirectKey     *string              `json:"-" gorm:"uniqueIndex"`
	LastMessage   string               `json:"last_message"`
	LastMessageAt *time.Time           `json:"last_message_at"`
	Members       []ConversationMember `json:"-" gorm:"foreignKey:ConversationID"`
}

type ConversationMember struct {
	gorm.Model
	ConversationID uint      `json:"conversation_id" gorm:"uniqueIndex:idx_conv_member"`
	AccountID      uint      `json:"account_id" gorm:"uniqueIndex:idx_conv_member;index"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Message embeds are not stored: they are recomputed from content at read
// time, so an edit can never leave a stale embed behind.
type Message struct {
	gorm.Model
	ConversationID uint                `json:"conversation_id" gorm:"index;not null"`
	SenderID       uint                `json:"sender_id" gorm:"not null"`
	Sender         Account             `json:"-" gorm:"foreignKey:SenderID"`
	Content        string              `json:"content"`
	ReplyToID      *uint               `json:"reply_to_id"`
	Edited         bool                `json:"edited"`
	EditedAt       *time.Time          `json:"edited_at"`
	Mentions       []MessageMention    `json:"mentions" gorm:"foreignKey:MessageID"`
	Attachments    []MessageAttachment `json:"attachments" gorm:"foreignKey:MessageID"`
}

type MessageMention struct {
	gorm.Model
	MessageID uint `json:"-" gorm:"uniqueIndex:idx_message_mention"`
	AccountID uint `json:"account_id" gorm:"uniqueIndex:idx_message_mention"`
}

type MessageAttachment struct {
	gorm.Model
	MessageID  uint   `json:"-" gorm:"index"`
	StorageKey string `json:"storage_key"`
}

// At most one row per (account, message, emoji); a repeated toggle removes it.
type Reaction struct {
	gorm.Model
	MessageID uint   `json:"message_id" gorm:"uniqueIndex:idx_reaction"`
	AccountID uint   `json:"account_id" gorm:"uniqueIndex:idx_reaction"`
	Emoji     string `json:"emoji" gorm:"uniqueIndex:idx_reaction"`
}

// TypingStatus rows are ephemeral: readers only honor them inside the
// display window, and the typing sweep garbage-collects older rows.
type TypingStatus struct {
	gorm.Model
	ConversationID uint      `json:"conversation_id" gorm:"uniqueIndex:idx_typing"`
	AccountID      uint      `json:"account_id" gorm:"uniqueIndex:idx_typing"`
	LastTyping     time.Time `json:"last_typing"`
}

// UnreadCounter is created lazily on first increment or first mark-as-read.
type UnreadCounter struct {
	gorm.Model
	AccountID         uint  `json:"account_id" gorm:"uniqueIndex:idx_unread"`
	ConversationID    uint  `json:"conversation_id" gorm:"uniqueIndex:idx_unread"`
	Count             int   `json:"count"`
	LastReadMessageID *uint `json:"last_read_message_id"`
}

// VoiceCall is deactivated, never deleted, when its roster empties; the
// stale-call sweep purges inactive calls after a day.
type VoiceCall struct {
	gorm.Model
	ConversationID uint               `json:"conversation_id" gorm:"index"`
	Active         bool               `json:"active"`
	StartedAt      time.Time          `json:"started_at"`
	EndedAt        *time.Time         `json:"ended_at"`
	Participants   []VoiceParticipant `json:"participants" gorm:"foreignKey:CallID"`
}

type VoiceParticipant struct {
	gorm.Model
	CallID    uint      `json:"-" gorm:"uniqueIndex:idx_call_participant"`
	AccountID uint      `json:"account_id" gorm:"uniqueIndex:idx_call_participant"`
	JoinedAt  time.Time `json:"joined_at"`
	Muted     bool      `json:"muted"`
	Deafened  bool      `json:"deafened"`
}

type Notification struct {
	gorm.Model
	AccountID      uint             `json:"account_id" gorm:"index"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Content        string           `json:"content"`
	Read           bool             `json:"read" gorm:"index"`
	FromID         *uint            `json:"from_id"`
	ConversationID *uint            `json:"conversation_id"`
	MessageID      *uint            `json:"message_id"`
}

// CustomEmoji is managed by admins only.
type CustomEmoji struct {
	gorm.Model
	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	ImageKey    string `json:"image_key"`
	CreatedByID uint   `json:"created_by_id"`
}
