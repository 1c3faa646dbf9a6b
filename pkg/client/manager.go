package client

import (
	"context"
	"errors"
	"strings"

	"chat-relay-be/internal/constant"
	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/repository/memory"
	"chat-relay-be/internal/service"
	"chat-relay-be/pkg/store"

	"github.com/google/uuid"
)

var ErrNoActiveSession = errors.New("no active session for token")

// SessionManager keeps a per-login write-through mirror of the conversation
// store. Every mutating action hits the store first and the mirror second,
// so the mirror can never diverge from storage for longer than one action.
type SessionManager struct {
	auth          service.IAuthService
	conversations service.IConversationService
	sessions      *memory.SessionRepository
	defaultModel  string
}

func NewSessionManager(
	auth service.IAuthService,
	conversations service.IConversationService,
	sessions *memory.SessionRepository,
	defaultModel string,
) *SessionManager {
	return &SessionManager{
		auth:          auth,
		conversations: conversations,
		sessions:      sessions,
		defaultModel:  defaultModel,
	}
}

func (m *SessionManager) Signup(ctx context.Context, username, password string) (*store.Session, error) {
	res, err := m.auth.Register(ctx, &dto.AuthRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	return m.open(ctx, res)
}

func (m *SessionManager) Login(ctx context.Context, username, password string) (*store.Session, error) {
	res, err := m.auth.Login(ctx, &dto.AuthRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	return m.open(ctx, res)
}

// open hydrates the mirror from the conversation store for a fresh token.
func (m *SessionManager) open(ctx context.Context, res *dto.AuthResponse) (*store.Session, error) {
	userId, err := uuid.Parse(res.UserId)
	if err != nil {
		return nil, err
	}

	session := &store.Session{
		Token:         res.Token,
		UserId:        res.UserId,
		Username:      res.Username,
		SelectedModel: m.defaultModel,
	}

	listed, err := m.conversations.List(ctx, userId, 0)
	if err != nil {
		return nil, err
	}
	for _, c := range listed {
		full, err := m.conversations.Get(ctx, userId, c.Id)
		if err != nil {
			return nil, err
		}
		if full == nil {
			continue
		}
		session.Conversations = append(session.Conversations, mirrorConversation(full))
	}
	if len(session.Conversations) > 0 {
		session.CurrentChatId = session.Conversations[0].Id
	}

	m.sessions.Save(session)
	return session, nil
}

// Logout revokes the token and drops the mirror and current-chat pointer.
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	err := m.auth.RevokeToken(ctx, token)
	m.sessions.Delete(token)
	return err
}

func (m *SessionManager) Get(token string) (*store.Session, bool) {
	return m.sessions.Get(token)
}

func (m *SessionManager) SelectedModel(token string) string {
	if session, ok := m.sessions.Get(token); ok && session.SelectedModel != "" {
		return session.SelectedModel
	}
	return m.defaultModel
}

func (m *SessionManager) SetSelectedModel(token, model string) {
	if session, ok := m.sessions.Get(token); ok {
		session.SelectedModel = model
		m.sessions.Save(session)
	}
}

func (m *SessionManager) NewChat(ctx context.Context, token string) (*store.Conversation, error) {
	session, userId, err := m.active(token)
	if err != nil {
		return nil, err
	}

	created, err := m.conversations.Create(ctx, userId, "")
	if err != nil {
		return nil, err
	}

	mirrored := &store.Conversation{Id: created.Id.String(), Title: created.Title}
	session.Conversations = append([]*store.Conversation{mirrored}, session.Conversations...)
	session.CurrentChatId = mirrored.Id
	m.sessions.Save(session)
	return mirrored, nil
}

// SelectChat repoints the session at chatId, reloading it from storage.
func (m *SessionManager) SelectChat(ctx context.Context, token, chatId string) error {
	session, userId, err := m.active(token)
	if err != nil {
		return err
	}
	conversationId, err := uuid.Parse(chatId)
	if err != nil {
		return service.ErrConversationNotFound
	}

	full, err := m.conversations.Get(ctx, userId, conversationId)
	if err != nil {
		return err
	}
	if full == nil {
		return service.ErrConversationNotFound
	}

	refreshed := mirrorConversation(full)
	replaced := false
	for i, c := range session.Conversations {
		if c.Id == chatId {
			session.Conversations[i] = refreshed
			replaced = true
			break
		}
	}
	if !replaced {
		session.Conversations = append(session.Conversations, refreshed)
	}
	session.CurrentChatId = chatId
	m.sessions.Save(session)
	return nil
}

// AppendMessage writes through to the store, then updates the mirror.
func (m *SessionManager) AppendMessage(ctx context.Context, token, role, content string) error {
	session, userId, err := m.active(token)
	if err != nil {
		return err
	}
	current := session.CurrentConversation()
	if current == nil {
		return service.ErrConversationNotFound
	}
	conversationId, err := uuid.Parse(current.Id)
	if err != nil {
		return service.ErrConversationNotFound
	}

	if _, err := m.conversations.AppendMessage(ctx, userId, conversationId, role, content); err != nil {
		return err
	}

	current.Messages = append(current.Messages, &store.Message{Role: role, Content: content})
	m.sessions.Save(session)
	return nil
}

// UpdateTitleIfNeeded derives a title from the first user prompt while the
// conversation still carries the placeholder title.
func (m *SessionManager) UpdateTitleIfNeeded(ctx context.Context, token, prompt string) error {
	session, userId, err := m.active(token)
	if err != nil {
		return err
	}
	current := session.CurrentConversation()
	if current == nil || current.Title != constant.DefaultConversationTitle {
		return nil
	}
	conversationId, err := uuid.Parse(current.Id)
	if err != nil {
		return service.ErrConversationNotFound
	}

	title := deriveTitle(prompt)
	if err := m.conversations.UpdateTitle(ctx, userId, conversationId, title); err != nil {
		return err
	}

	current.Title = title
	m.sessions.Save(session)
	return nil
}

func (m *SessionManager) DeleteChat(ctx context.Context, token, chatId string) error {
	session, userId, err := m.active(token)
	if err != nil {
		return err
	}
	conversationId, err := uuid.Parse(chatId)
	if err != nil {
		return service.ErrConversationNotFound
	}

	if err := m.conversations.Delete(ctx, userId, conversationId); err != nil {
		return err
	}

	session.Remove(chatId)
	m.sessions.Save(session)
	return nil
}

func (m *SessionManager) active(token string) (*store.Session, uuid.UUID, error) {
	session, ok := m.sessions.Get(token)
	if !ok {
		return nil, uuid.Nil, ErrNoActiveSession
	}
	userId, err := uuid.Parse(session.UserId)
	if err != nil {
		return nil, uuid.Nil, ErrNoActiveSession
	}
	return session, userId, nil
}

func mirrorConversation(c *entity.Conversation) *store.Conversation {
	mirrored := &store.Conversation{
		Id:    c.Id.String(),
		Title: c.Title,
	}
	for _, msg := range c.Messages {
		mirrored.Messages = append(mirrored.Messages, &store.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return mirrored
}

func deriveTitle(prompt string) string {
	trimmed := strings.TrimSpace(prompt)
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	trimmed = strings.TrimSpace(trimmed)
	runes := []rune(trimmed)
	if len(runes) > constant.MaxDerivedTitleLength {
		trimmed = string(runes[:constant.MaxDerivedTitleLength])
	}
	if trimmed == "" {
		return constant.FallbackConversationTitle
	}
	return trimmed
}
