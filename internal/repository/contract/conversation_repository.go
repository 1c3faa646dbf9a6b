package contract

import (
	"context"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	// UpdateTitle is scoped by owner; it reports how many rows changed so
	// callers can treat a cross-tenant update as a silent no-op.
	UpdateTitle(ctx context.Context, userId, conversationId uuid.UUID, title string) (int64, error)
	Delete(ctx context.Context, userId, conversationId uuid.UUID) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
