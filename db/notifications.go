package db

func (queries *Queries) CreateNotification(notification *Notification) error {
	return translate(queries.DB.Create(notification).Error)
}

func (queries *Queries) GetNotification(id uint) (*Notification, error) {
	var notification Notification
	result := queries.DB.First(&notification, id)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &notification, nil
}

func (queries *Queries) ListNotifications(accountID uint, limit int) ([]Notification, error) {
	var notifications []Notification
	result := queries.DB.
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return notifications, nil
}

func (queries *Queries) MarkNotificationRead(id uint) error {
	return translate(queries.DB.
		Model(&Notification{}).
		Where("id = ?", id).
		Update("read", true).Error)
}

func (queries *Queries) MarkAllNotificationsRead(accountID uint) (int64, error) {
	result := queries.DB.
		Model(&Notification{}).
		Where("account_id = ? AND read = ?", accountID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}

func (queries *Queries) CountUnreadNotifications(accountID uint) (int64, error) {
	var count int64
	result := queries.DB.
		Model(&Notification{}).
		Where("account_id = ? AND read = ?", accountID, false).
		Count(&count)
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return count, nil
}

func (queries *Queries) CreateEmoji(emoji *CustomEmoji) error {
	return translate(queries.DB.Create(emoji).Error)
}

func (queries *Queries) DeleteEmojiByName(name string) error {
	result := queries.DB.Where("name = ?", name).Delete(&CustomEmoji{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (queries *Queries) ListEmojis() ([]CustomEmoji, error) {
	var emojis []CustomEmoji
	result := queries.DB.Order("name").Find(&emojis)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return emojis, nil
}
