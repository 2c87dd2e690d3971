package db

import (
	"time"

	"gorm.io/gorm/clause"
)

// UpsertTyping keeps at most one typing row per (account, conversation).
func (queries *Queries) UpsertTyping(conversationID, accountID uint, at time.Time) error {
	row := TypingStatus{
		ConversationID: conversationID,
		AccountID:      accountID,
		LastTyping:     at,
	}
	return translate(queries.DB.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_typing"}),
		}).
		Create(&row).Error)
}

func (queries *Queries) DeleteTyping(conversationID, accountID uint) error {
	return translate(queries.DB.
		Unscoped().
		Where("conversation_id = ? AND account_id = ?", conversationID, accountID).
		Delete(&TypingStatus{}).Error)
}

func (queries *Queries) ListTypingSince(conversationID uint, since time.Time) ([]TypingStatus, error) {
	var rows []TypingStatus
	result := queries.DB.
		Where("conversation_id = ? AND last_typing >= ?", conversationID, since).
		Find(&rows)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return rows, nil
}

// DeleteTypingBefore is the typing sweep: it garbage-collects rows past the
// retention window regardless of conversation.
func (queries *Queries) DeleteTypingBefore(cutoff time.Time) (int64, error) {
	result := queries.DB.
		Unscoped().
		Where("last_typing < ?", cutoff).
		Delete(&TypingStatus{})
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}
