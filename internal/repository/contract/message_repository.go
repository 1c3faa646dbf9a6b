package contract

import (
	"context"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
