package contract

import (
	"context"

	"chat-relay-be/internal/entity"
)

type SessionRepository interface {
	// Upsert stores the session keyed by its token hash, replacing any
	// existing row with the same hash.
	Upsert(ctx context.Context, session *entity.SessionToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*entity.SessionToken, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
}
