package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserStateKey int

const (
	UserStateNone UserStateKey = iota
	UserStateEnterTarget
	UserStateEnterAmount
	UserStateEnterComment
	UserStateEnterMnemonic
	UserStateEnterUsername
	UserStateReceiveMemo
	UserStateReceiveAmount
	UserStateDonateAmount
)

// User is a telegram user known to the bot.
type User struct {
	ID           int64        `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Username     string       `json:"username" gorm:"index"`
	FirstName    string       `json:"first_name"`
	LanguageCode string       `json:"language_code"`
	StateKey     UserStateKey `json:"stateKey"`
	StateData    string       `json:"stateData"`
	CreatedAt    time.Time    `json:"created"`
	UpdatedAt    time.Time    `json:"updated"`
}

// DisplayName returns @username or the first name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprint(u.ID)
}

// SaveUser inserts user or updates its profile columns. The prompt state is left alone.
func SaveUser(db *gorm.DB, user *User) error {
	user.Username = strings.ToLower(user.Username)
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "language_code", "updated_at"}),
	}).Create(user).Error
}

func GetUser(db *gorm.DB, id int64) (*User, error) {
	user := &User{}
	tx := db.First(user, id)
	return user, tx.Error
}

// SetUserState stores the prompt the user is answering next.
func SetUserState(db *gorm.DB, user *User, key UserStateKey, data string) error {
	user.StateKey = key
	user.StateData = data
	return db.Model(user).Updates(map[string]interface{}{"state_key": key, "state_data": data}).Error
}

func ResetUserState(db *gorm.DB, user *User) error {
	return SetUserState(db, user, UserStateNone, "")
}

// FindUser looks up a user by username, with or without the leading @.
func FindUser(db *gorm.DB, username string) (*User, error) {
	username = strings.ToLower(strings.TrimPrefix(username, "@"))
	if len(username) > 100 {
		return nil, fmt.Errorf("username is too long: %s..", username[:100])
	}
	user := &User{}
	tx := db.Where("username = ?", username).First(user)
	return user, tx.Error
}

// Aliases resolves usernames through the user table.
type Aliases struct {
	DB *gorm.DB
}

func (a Aliases) LookupAlias(ctx context.Context, username string) (int64, error) {
	user, err := FindUser(a.DB.WithContext(ctx), username)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
