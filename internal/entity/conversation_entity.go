package entity

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	Messages  []*Message
}

type Message struct {
	Id             uint
	ConversationId uuid.UUID
	Role           string
	Content        string
	CreatedAt      time.Time
}
