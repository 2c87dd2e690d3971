package db

import "time"

func (queries *Queries) GetActiveCall(conversationID uint) (*VoiceCall, error) {
	var call VoiceCall
	result := queries.DB.
		Preload("Participants").
		Where("conversation_id = ? AND active = ?", conversationID, true).
		First(&call)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &call, nil
}

func (queries *Queries) CreateCall(call *VoiceCall) error {
	return translate(queries.DB.Create(call).Error)
}

func (queries *Queries) AddCallParticipant(callID uint, participant *VoiceParticipant) error {
	participant.CallID = callID
	return translate(queries.DB.Create(participant).Error)
}

// RemoveCallParticipant drops the roster row and reports how many
// participants remain, so the caller can decide whether to end the call.
func (queries *Queries) RemoveCallParticipant(callID, accountID uint) (int64, error) {
	result := queries.DB.
		Unscoped().
		Where("call_id = ? AND account_id = ?", callID, accountID).
		Delete(&VoiceParticipant{})
	if result.Error != nil {
		return 0, translate(result.Error)
	}

	var remaining int64
	result = queries.DB.
		Model(&VoiceParticipant{}).
		Where("call_id = ?", callID).
		Count(&remaining)
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return remaining, nil
}

func (queries *Queries) UpdateCallParticipant(callID, accountID uint, muted, deafened bool) error {
	result := queries.DB.
		Model(&VoiceParticipant{}).
		Where("call_id = ? AND account_id = ?", callID, accountID).
		Updates(map[string]any{"muted": muted, "deafened": deafened})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EndCall deactivates the call. The row is kept for history and purged later
// by the stale-call sweep.
func (queries *Queries) EndCall(callID uint, at time.Time) error {
	return translate(queries.DB.
		Model(&VoiceCall{}).
		Where("id = ?", callID).
		Updates(map[string]any{"active": false, "ended_at": at}).Error)
}

func (queries *Queries) DeleteInactiveCallsBefore(cutoff time.Time) (int64, error) {
	var stale []VoiceCall
	result := queries.DB.
		Where("active = ? AND ended_at < ?", false, cutoff).
		Find(&stale)
	if result.Error != nil {
		return 0, translate(result.Error)
	}

	var purged int64
	for _, call := range stale {
		if err := queries.DB.Unscoped().Where("call_id = ?", call.ID).Delete(&VoiceParticipant{}).Error; err != nil {
			// One bad row must not abort the whole sweep
			continue
		}
		if err := queries.DB.Unscoped().Delete(&VoiceCall{}, call.ID).Error; err != nil {
			continue
		}
		purged++
	}
	return purged, nil
}
