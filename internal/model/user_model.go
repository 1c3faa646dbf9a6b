package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(128);not null"`
	PasswordSalt string    `gorm:"type:varchar(64);not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	Conversations []Conversation `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	Sessions      []SessionToken `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

type SessionToken struct {
	TokenHash string    `gorm:"type:varchar(64);primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (SessionToken) TableName() string {
	return "sessions"
}
