package service

import (
	"context"
	"strings"
	"time"

	"chat-relay-be/internal/constant"
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/repository/specification"
	"chat-relay-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IConversationService interface {
	Create(ctx context.Context, userId uuid.UUID, title string) (*entity.Conversation, error)
	UpdateTitle(ctx context.Context, userId, conversationId uuid.UUID, title string) error
	AppendMessage(ctx context.Context, userId, conversationId uuid.UUID, role, content string) (*entity.Message, error)
	List(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.Conversation, error)
	Get(ctx context.Context, userId, conversationId uuid.UUID) (*entity.Conversation, error)
	Delete(ctx context.Context, userId, conversationId uuid.UUID) error
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewConversationService(uowFactory unitofwork.RepositoryFactory) IConversationService {
	return &conversationService{
		uowFactory: uowFactory,
	}
}

func (c *conversationService) Create(ctx context.Context, userId uuid.UUID, title string) (*entity.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = constant.DefaultConversationTitle
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	conversation := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// UpdateTitle is scoped by owner. A conversation that does not exist or
// belongs to another user updates zero rows, which is a silent no-op.
func (c *conversationService) UpdateTitle(ctx context.Context, userId, conversationId uuid.UUID, title string) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	_, err := uow.ConversationRepository().UpdateTitle(ctx, userId, conversationId, title)
	return err
}

func (c *conversationService) AppendMessage(ctx context.Context, userId, conversationId uuid.UUID, role, content string) (*entity.Message, error) {
	if !constant.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	// Ownership check first; absence and cross-tenant access look the same.
	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	message := &entity.Message{
		ConversationId: conversationId,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

func (c *conversationService) List(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.Conversation, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.NewestFirst{},
		specification.Limit{N: limit},
	)
}

func (c *conversationService) Get(ctx context.Context, userId, conversationId uuid.UUID) (*entity.Conversation, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, nil
	}

	// Message order is append order; the monotonic id carries it.
	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "id"},
	)
	if err != nil {
		return nil, err
	}
	conversation.Messages = messages
	return conversation, nil
}

// Delete cascades to messages inside one transaction. Not owned or absent is
// a silent no-op rather than an error.
func (c *conversationService) Delete(ctx context.Context, userId, conversationId uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if conversation == nil {
		return nil
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByConversationId(ctx, conversationId); err != nil {
		return err
	}
	if _, err := uow.ConversationRepository().Delete(ctx, userId, conversationId); err != nil {
		return err
	}

	return uow.Commit()
}
