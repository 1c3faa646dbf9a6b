package mapper

import (
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:           u.Id,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		PasswordSalt: u.PasswordSalt,
		CreatedAt:    u.CreatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:           u.Id,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		PasswordSalt: u.PasswordSalt,
		CreatedAt:    u.CreatedAt,
	}
}

func (m *UserMapper) SessionToEntity(s *model.SessionToken) *entity.SessionToken {
	if s == nil {
		return nil
	}
	return &entity.SessionToken{
		TokenHash: s.TokenHash,
		UserId:    s.UserId,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func (m *UserMapper) SessionToModel(s *entity.SessionToken) *model.SessionToken {
	if s == nil {
		return nil
	}
	return &model.SessionToken{
		TokenHash: s.TokenHash,
		UserId:    s.UserId,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
