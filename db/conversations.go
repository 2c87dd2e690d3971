package db

import "time"

func (queries *Queries) GetConversation(id uint) (*Conversation, error) {
	var conversation Conversation
	result := queries.DB.Preload("Members").First(&conversation, id)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &conversation, nil
}

func (queries *Queries) GetDirectConversation(key string) (*Conversation, error) {
	var conversation Conversation
	result := queries.DB.
		Preload("Members").
		Where("type = ? AND direct_key = ?", DirectConversation, key).
		First(&conversation)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &conversation, nil
}

func (queries *Queries) GetGeneralConversation() (*Conversation, error) {
	var conversation Conversation
	result := queries.DB.
		Preload("Members").
		Where("type = ?", GeneralConversation).
		First(&conversation)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &conversation, nil
}

// CreateConversation inserts the conversation together with its member rows.
// The unique index on direct_key surfaces as ErrDuplicate when two callers
// race to create the same direct conversation.
func (queries *Queries) CreateConversation(conversation *Conversation) error {
	return translate(queries.DB.Create(conversation).Error)
}

func (queries *Queries) ListConversationsFor(accountID uint) ([]Conversation, error) {
	var conversations []Conversation
	result := queries.DB.
		Preload("Members").
		Joins("JOIN conversation_members ON conversation_members.conversation_id = conversations.id").
		Where("conversation_members.account_id = ? AND conversation_members.deleted_at IS NULL", accountID).
		Find(&conversations)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return conversations, nil
}

func (queries *Queries) AddMember(conversationID, accountID uint, joinedAt time.Time) error {
	member := ConversationMember{
		ConversationID: conversationID,
		AccountID:      accountID,
		JoinedAt:       joinedAt,
	}
	return translate(queries.DB.Create(&member).Error)
}

func (queries *Queries) IsMember(conversationID, accountID uint) (bool, error) {
	var count int64
	result := queries.DB.
		Model(&ConversationMember{}).
		Where("conversation_id = ? AND account_id = ?", conversationID, accountID).
		Count(&count)
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return count > 0, nil
}

func (queries *Queries) UpdateConversationPreview(conversationID uint, preview string, at time.Time) error {
	return translate(queries.DB.
		Model(&Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]any{
			"last_message":    preview,
			"last_message_at": at,
		}).Error)
}
