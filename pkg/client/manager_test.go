package client_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chat-relay-be/internal/constant"
	"chat-relay-be/internal/repository/memory"
	"chat-relay-be/internal/repository/unitofwork"
	"chat-relay-be/internal/service"
	"chat-relay-be/pkg/client"
	"chat-relay-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerFixture struct {
	manager       *client.SessionManager
	auth          service.IAuthService
	conversations service.IConversationService
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	db, err := database.NewSqliteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	uowFactory := unitofwork.NewRepositoryFactory(db)
	auth := service.NewAuthService(uowFactory, time.Hour, nil)
	conversations := service.NewConversationService(uowFactory)
	sessions := memory.NewSessionRepository(time.Hour)

	return &managerFixture{
		manager:       client.NewSessionManager(auth, conversations, sessions, "gpt-3.5-turbo"),
		auth:          auth,
		conversations: conversations,
	}
}

func TestSessionManager_SignupOpensEmptySession(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	session, err := f.manager.Signup(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, "gpt-3.5-turbo", session.SelectedModel)
	assert.Empty(t, session.Conversations)
	assert.Empty(t, session.CurrentChatId)

	cached, ok := f.manager.Get(session.Token)
	require.True(t, ok)
	assert.Equal(t, session.UserId, cached.UserId)
}

func TestSessionManager_NewChatAndAppend(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	session, err := f.manager.Signup(ctx, "alice", "pw")
	require.NoError(t, err)

	chat, err := f.manager.NewChat(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, constant.DefaultConversationTitle, chat.Title)
	assert.Equal(t, chat.Id, session.CurrentChatId)

	require.NoError(t, f.manager.AppendMessage(ctx, session.Token, constant.ChatMessageRoleUser, "hello there"))
	require.NoError(t, f.manager.AppendMessage(ctx, session.Token, constant.ChatMessageRoleAssistant, "hi!"))

	// Mirror side.
	current := session.CurrentConversation()
	require.NotNil(t, current)
	require.Len(t, current.Messages, 2)
	assert.Equal(t, "hello there", current.Messages[0].Content)

	// Storage side; the mirror wrote through.
	userId, err := uuid.Parse(session.UserId)
	require.NoError(t, err)
	stored, err := f.conversations.Get(ctx, userId, uuid.MustParse(chat.Id))
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "hi!", stored.Messages[1].Content)
}

func TestSessionManager_AppendWithoutChat(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	session, err := f.manager.Signup(ctx, "alice", "pw")
	require.NoError(t, err)

	err = f.manager.AppendMessage(ctx, session.Token, constant.ChatMessageRoleUser, "orphan")
	assert.ErrorIs(t, err, service.ErrConversationNotFound)
}

func TestSessionManager_UpdateTitleIfNeeded(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	session, err := f.manager.Signup(ctx, "alice", "pw")
	require.NoError(t, err)
	chat, err := f.manager.NewChat(ctx, session.Token)
	require.NoError(t, err)

	require.NoError(t, f.manager.UpdateTitleIfNeeded(ctx, session.Token, "Plan a trip to Jeju\nwith two kids"))
	assert.Equal(t, "Plan a trip to Jeju", chat.Title)

	t.Run("already titled is a no-op", func(t *testing.T) {
		require.NoError(t, f.manager.UpdateTitleIfNeeded(ctx, session.Token, "something else entirely"))
		assert.Equal(t, "Plan a trip to Jeju", chat.Title)
	})

	t.Run("long prompt is truncated", func(t *testing.T) {
		long, err := f.manager.NewChat(ctx, session.Token)
		require.NoError(t, err)
		require.NoError(t, f.manager.UpdateTitleIfNeeded(ctx, session.Token, strings.Repeat("a", 100)))
		assert.Equal(t, strings.Repeat("a", constant.MaxDerivedTitleLength), long.Title)
	})

	t.Run("blank prompt falls back", func(t *testing.T) {
		blank, err := f.manager.NewChat(ctx, session.Token)
		require.NoError(t, err)
		require.NoError(t, f.manager.UpdateTitleIfNeeded(ctx, session.Token, "   \n  "))
		assert.Equal(t, constant.FallbackConversationTitle, blank.Title)
	})
}

func TestSessionManager_LoginHydratesMirror(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	session, err := f.manager.Signup(ctx, "alice", "pw")
	require.NoError(t, err)
	chat, err := f.manager.NewChat(ctx, session.Token)
	require.NoError(t, err)
	require.NoError(t, f.manager.AppendMessage(ctx, session.Token, constant.ChatMessageRoleUser, "persisted"))

	relogged, err := f.manager.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	require.Len(t, relogged.Conversations, 1)
	assert.Equal(t, chat.Id, relogged.CurrentChatId)
	require.Len(t, relogged.Conversations[0].Messages, 1)
	assert.Equal(t, "persisted", relogged.Conversations[0].Messages[0].Content)
}

func TestSessionManager_SelectChat(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	session, err := f.manager.Signup(ctx, "alice", "pw")
	require.NoError(t, err)
	first, err := f.manager.NewChat(ctx, session.Token)
	require.NoError(t, err)
	_, err = f.manager.NewChat(ctx, session.Token)
	require.NoError(t, err)

	require.NoError(t, f.manager.SelectChat(ctx, session.Token, first.Id))
	assert.Equal(t, first.Id, session.CurrentChatId)

	err = f.manager.SelectChat(ctx, session.Token, uuid.NewString())
	assert.ErrorIs(t, err, service.ErrConversationNotFound)
}

func TestSessionManager_DeleteChat(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	session, err := f.manager.Signup(ctx, "alice", "pw")
	require.NoError(t, err)
	first, err := f.manager.NewChat(ctx, session.Token)
	require.NoError(t, err)
	second, err := f.manager.NewChat(ctx, session.Token)
	require.NoError(t, err)

	require.NoError(t, f.manager.DeleteChat(ctx, session.Token, second.Id))
	require.Len(t, session.Conversations, 1)
	assert.Equal(t, first.Id, session.CurrentChatId)

	userId, err := uuid.Parse(session.UserId)
	require.NoError(t, err)
	gone, err := f.conversations.Get(ctx, userId, uuid.MustParse(second.Id))
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSessionManager_Logout(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	session, err := f.manager.Signup(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(ctx, session.Token))

	_, ok := f.manager.Get(session.Token)
	assert.False(t, ok)

	user, err := f.auth.ResolveToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSessionManager_SelectedModel(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	session, err := f.manager.Signup(ctx, "alice", "pw")
	require.NoError(t, err)

	assert.Equal(t, "gpt-3.5-turbo", f.manager.SelectedModel(session.Token))
	f.manager.SetSelectedModel(session.Token, "gpt-4o")
	assert.Equal(t, "gpt-4o", f.manager.SelectedModel(session.Token))

	// An unknown token falls back to the default.
	assert.Equal(t, "gpt-3.5-turbo", f.manager.SelectedModel("missing"))
}
