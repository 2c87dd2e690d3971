package db

import (
	"errors"

	"gorm.io/gorm"
)

func (queries *Queries) CreateMessage(message *Message) error {
	return translate(queries.DB.Create(message).Error)
}

func (queries *Queries) GetMessage(id uint) (*Message, error) {
	var message Message
	result := queries.DB.
		Preload("Mentions").
		Preload("Attachments").
		First(&message, id)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &message, nil
}

func (queries *Queries) UpdateMessage(message *Message) error {
	return translate(queries.DB.Save(message).Error)
}

// DeleteMessage removes the message and cascades its reactions in one
// transaction.
func (queries *Queries) DeleteMessage(id uint) error {
	return translate(queries.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", id).Delete(&MessageMention{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", id).Delete(&MessageAttachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Message{}, id).Error
	}))
}

// ListMessages returns the newest page first; callers reverse it before
// responding so clients always receive oldest-first pages. A non-zero
// `before` acts as an exclusive message-id cursor.
func (queries *Queries) ListMessages(conversationID uint, before uint, limit int) ([]Message, error) {
	tx := queries.DB.
		Preload("Mentions").
		Preload("Attachments").
		Where("conversation_id = ?", conversationID)
	if before != 0 {
		tx = tx.Where("id < ?", before)
	}

	var messages []Message
	result := tx.Order("id DESC").Limit(limit).Find(&messages)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return messages, nil
}

func (queries *Queries) ListReactions(messageIDs []uint) ([]Reaction, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	var reactions []Reaction
	result := queries.DB.Where("message_id IN ?", messageIDs).Find(&reactions)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return reactions, nil
}

// ToggleReaction deletes the row if it exists and inserts it otherwise,
// inside a transaction so two quick toggles cannot double-insert.
func (queries *Queries) ToggleReaction(messageID, accountID uint, emoji string) (bool, error) {
	var added bool
	err := queries.DB.Transaction(func(tx *gorm.DB) error {
		var existing Reaction
		result := tx.
			Where("message_id = ? AND account_id = ? AND emoji = ?", messageID, accountID, emoji).
			First(&existing)
		if result.Error == nil {
			return tx.Unscoped().Delete(&existing).Error
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		added = true
		return tx.Create(&Reaction{
			MessageID: messageID,
			AccountID: accountID,
			Emoji:     emoji,
		}).Error
	})
	if err != nil {
		return false, translate(err)
	}
	return added, nil
}
