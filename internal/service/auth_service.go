package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/repository/specification"
	"chat-relay-be/internal/repository/unitofwork"
	"chat-relay-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
	"gorm.io/gorm"
)

const (
	// Key-stretching cost for stored password hashes.
	passwordIterations = 100_000
	passwordSaltBytes  = 16
	tokenBytes         = 32
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.AuthRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.AuthRequest) (*dto.AuthResponse, error)
	ResolveToken(ctx context.Context, token string) (*entity.User, error)
	RevokeToken(ctx context.Context, token string) error
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	tokenTTL       time.Duration
	eventPublisher IPublisherService
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, tokenTTL time.Duration, eventPublisher IPublisherService) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		tokenTTL:       tokenTTL,
		eventPublisher: eventPublisher,
	}
}

func hashPassword(password string, salt []byte) string {
	key := pbkdf2.Key([]byte(password), salt, passwordIterations, sha256.Size, sha256.New)
	return hex.EncodeToString(key)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *authService) Register(ctx context.Context, req *dto.AuthRequest) (*dto.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, ErrInvalidInput
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 1. Check for existing user
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateUsername
	}

	// 2. Hash password with a per-user random salt
	salt := make([]byte, passwordSaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Username:     username,
		PasswordHash: hashPassword(req.Password, salt),
		PasswordSalt: hex.EncodeToString(salt),
		CreatedAt:    time.Now().UTC(),
	}

	// 3. Save to DB; a signup race on the unique index is still a duplicate
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	token, err := s.issueToken(ctx, uow, user.Id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeUserSignup, user)

	return &dto.AuthResponse{
		UserId:   user.Id.String(),
		Username: user.Username,
		Token:    token,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.AuthRequest) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: strings.TrimSpace(req.Username)})
	if err != nil {
		return nil, err
	}
	// Unknown user and wrong password are indistinguishable to the caller.
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	salt, err := hex.DecodeString(user.PasswordSalt)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	computed := hashPassword(req.Password, salt)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(user.PasswordHash)) != 1 {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, uow, user.Id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeUserLogin, user)

	return &dto.AuthResponse{
		UserId:   user.Id.String(),
		Username: user.Username,
		Token:    token,
	}, nil
}

// issueToken mints a fresh opaque token and stores only its hash. The raw
// token leaves this method exactly once.
func (s *authService) issueToken(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := time.Now().UTC()
	session := &entity.SessionToken{
		TokenHash: hashToken(token),
		UserId:    userId,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := uow.SessionRepository().Upsert(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return token, nil
}

// ResolveToken returns the owning user of a live token, or nil. Expiry is
// enforced here, on read: an expired row is deleted opportunistically rather
// than by a background sweep.
func (s *authService) ResolveToken(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	tokenHash := hashToken(token)

	session, err := uow.SessionRepository().FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	if session.Expired(time.Now().UTC()) {
		_ = uow.SessionRepository().DeleteByTokenHash(ctx, tokenHash)
		return nil, nil
	}

	return uow.UserRepository().FindOne(ctx, specification.ByID{ID: session.UserId})
}

// RevokeToken is idempotent; revoking an unknown token is not an error.
func (s *authService) RevokeToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SessionRepository().DeleteByTokenHash(ctx, hashToken(token))
}

func (s *authService) publish(ctx context.Context, eventType string, user *entity.User) {
	if s.eventPublisher == nil {
		return
	}
	event := events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"user_id":  user.Id.String(),
			"username": user.Username,
		},
		OccurredAt: time.Now().UTC(),
	}
	// Best effort; auth must not fail because the bus is down.
	_ = s.eventPublisher.Publish(ctx, event)
}
