package db

func (queries *Queries) GetAccount(id uint) (*Account, error) {
	var account Account
	result := queries.DB.First(&account, id)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &account, nil
}

func (queries *Queries) GetAccountByOauth(provider, providerID string) (*Account, error) {
	var account Account
	result := queries.DB.
		Where("oauth_provider = ? AND oauth_provider_id = ?", provider, providerID).
		First(&account)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &account, nil
}

func (queries *Queries) CreateAccount(account *Account) error {
	return translate(queries.DB.Create(account).Error)
}

func (queries *Queries) GetProfile(accountID uint) (*Profile, error) {
	var profile Profile
	result := queries.DB.
		Preload("Badges").
		Where("account_id = ?", accountID).
		First(&profile)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &profile, nil
}

func (queries *Queries) GetProfileByUsername(username string) (*Profile, error) {
	var profile Profile
	result := queries.DB.
		Preload("Badges").
		Where("username = ?", username).
		First(&profile)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &profile, nil
}

func (queries *Queries) CreateProfile(profile *Profile) error {
	return translate(queries.DB.Create(profile).Error)
}

func (queries *Queries) UpdateProfile(profile *Profile) error {
	return translate(queries.DB.Save(profile).Error)
}

func (queries *Queries) UpdateProfileStatus(profileID uint, status Status) error {
	return translate(queries.DB.
		Model(&Profile{}).
		Where("id = ?", profileID).
		Update("status", status).Error)
}

func (queries *Queries) ListProfiles() ([]Profile, error) {
	var profiles []Profile
	result := queries.DB.Preload("Badges").Find(&profiles)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return profiles, nil
}

func (queries *Queries) SearchProfiles(query string, limit int) ([]Profile, error) {
	var profiles []Profile
	pattern := "%" + query + "%"
	result := queries.DB.
		Where("username LIKE ? OR display_name LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&profiles)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return profiles, nil
}

func (queries *Queries) AddBadge(profileID uint, badge *Badge) error {
	badge.ProfileID = profileID
	return translate(queries.DB.Create(badge).Error)
}

func (queries *Queries) RemoveBadge(profileID uint, name string) error {
	result := queries.DB.
		Where("profile_id = ? AND name = ?", profileID, name).
		Delete(&Badge{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*Queries)(nil)
