package db

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IncrementUnread creates the counter at 1 on first use, otherwise bumps it.
// A single upsert on the (account, conversation) index, so concurrent sends
// for the same reader cannot lose an increment.
func (queries *Queries) IncrementUnread(accountID, conversationID uint) error {
	counter := UnreadCounter{
		AccountID:      accountID,
		ConversationID: conversationID,
		Count:          1,
	}
	return translate(queries.DB.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}, {Name: "conversation_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count": gorm.Expr("unread_counters.count + 1"),
			}),
		}).
		Create(&counter).Error)
}

// ResetUnread unconditionally zeroes the counter and records the cursor,
// creating the row if the user has never received a message here.
func (queries *Queries) ResetUnread(accountID, conversationID uint, lastMessageID *uint) error {
	return translate(queries.DB.Transaction(func(tx *gorm.DB) error {
		var counter UnreadCounter
		result := tx.
			Where("account_id = ? AND conversation_id = ?", accountID, conversationID).
			First(&counter)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tx.Create(&UnreadCounter{
				AccountID:         accountID,
				ConversationID:    conversationID,
				Count:             0,
				LastReadMessageID: lastMessageID,
			}).Error
		}
		if result.Error != nil {
			return result.Error
		}

		return tx.Model(&counter).Updates(map[string]any{
			"count":                0,
			"last_read_message_id": lastMessageID,
		}).Error
	}))
}

func (queries *Queries) ListUnread(accountID uint) ([]UnreadCounter, error) {
	var counters []UnreadCounter
	result := queries.DB.Where("account_id = ?", accountID).Find(&counters)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return counters, nil
}
