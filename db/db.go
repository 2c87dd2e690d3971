package db

import (
	"errors"

	"github.com/danglnh07/concord/util"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Sentinel errors returned by the store so callers never depend on gorm.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Queries struct {
	DB *gorm.DB
}

func NewQueries(config *util.Config) (*Queries, error) {
	// Connect to database. TranslateError maps driver unique-violation
	// errors to gorm.ErrDuplicatedKey, which the direct-conversation
	// get-or-create path relies on.
	DB, err := gorm.Open(postgres.Open(config.DBConn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	//Return the queries struct
	return &Queries{
		DB: DB,
	}, nil
}

func (queries *Queries) AutoMigration() error {
	return queries.DB.AutoMigrate(
		&Account{},
		&Profile{},
		&Badge{},
		&FriendRequest{},
		&Friendship{},
		&Conversation{},
		&ConversationMember{},
		&Message{},
		&MessageMention{},
		&MessageAttachment{},
		&Reaction{},
		&TypingStatus{},
		&UnreadCounter{},
		&VoiceCall{},
		&VoiceParticipant{},
		&Notification{},
		&CustomEmoji{},
	)
}

// translate converts gorm errors to the store's sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
