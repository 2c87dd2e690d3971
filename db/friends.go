package db

// GetFriendship looks the pair up in sorted order, matching how
// CreateFriendship stores it.
func (queries *Queries) GetFriendship(user1ID, user2ID uint) (*Friendship, error) {
	if user1ID > user2ID {
		user1ID, user2ID = user2ID, user1ID
	}

	var friendship Friendship
	result := queries.DB.
		Where("user1_id = ? AND user2_id = ?", user1ID, user2ID).
		First(&friendship)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &friendship, nil
}

func (queries *Queries) CreateFriendship(friendship *Friendship) error {
	if friendship.User1ID > friendship.User2ID {
		friendship.User1ID, friendship.User2ID = friendship.User2ID, friendship.User1ID
	}
	return translate(queries.DB.Create(friendship).Error)
}

func (queries *Queries) ListFriendships(accountID uint) ([]Friendship, error) {
	var friendships []Friendship
	result := queries.DB.
		Where("user1_id = ? OR user2_id = ?", accountID, accountID).
		Find(&friendships)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return friendships, nil
}

func (queries *Queries) GetFriendRequest(id uint) (*FriendRequest, error) {
	var request FriendRequest
	result := queries.DB.First(&request, id)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &request, nil
}

func (queries *Queries) GetPendingRequest(fromID, toID uint) (*FriendRequest, error) {
	var request FriendRequest
	result := queries.DB.
		Where("from_id = ? AND to_id = ? AND status = ?", fromID, toID, RequestPending).
		First(&request)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &request, nil
}

func (queries *Queries) CreateFriendRequest(request *FriendRequest) error {
	return translate(queries.DB.Create(request).Error)
}

func (queries *Queries) UpdateFriendRequest(request *FriendRequest) error {
	return translate(queries.DB.Save(request).Error)
}

func (queries *Queries) ListPendingRequests(toID uint) ([]FriendRequest, error) {
	var requests []FriendRequest
	result := queries.DB.
		Where("to_id = ? AND status = ?", toID, RequestPending).
		Order("created_at DESC").
		Find(&requests)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return requests, nil
}
