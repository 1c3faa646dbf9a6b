package implementation

import (
	"context"
	"errors"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/mapper"
	"chat-relay-be/internal/model"
	"chat-relay-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *SessionRepositoryImpl) Upsert(ctx context.Context, session *entity.SessionToken) error {
	m := r.mapper.SessionToModel(session)
	// At most one row per token hash.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_hash"}},
			UpdateAll: true,
		}).
		Create(m).Error
}

func (r *SessionRepositoryImpl) FindByTokenHash(ctx context.Context, tokenHash string) (*entity.SessionToken, error) {
	var m model.SessionToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *SessionRepositoryImpl) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&model.SessionToken{}).Error
}
