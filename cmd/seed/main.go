// Seeds a demo account with one conversation so a fresh install has
// something to show. Safe to re-run; an existing demo user is left alone.
package main

import (
	"context"
	"errors"
	"log"

	"chat-relay-be/internal/bootstrap"
	"chat-relay-be/internal/config"
	"chat-relay-be/internal/constant"
	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/service"
	"chat-relay-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

const (
	demoUsername = "demo"
	demoPassword = "demo1234"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dbPath, err := cfg.Database.Path()
	if err != nil {
		log.Fatalf("Invalid DATABASE_URL: %v", err)
	}
	gormDB, err := database.NewSqliteDB(dbPath)
	if err != nil {
		log.Fatalf("Unable to open SQLite DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	ctx := context.Background()

	res, err := container.AuthService.Register(ctx, &dto.AuthRequest{
		Username: demoUsername,
		Password: demoPassword,
	})
	if errors.Is(err, service.ErrDuplicateUsername) {
		color.Yellow("Demo user %q already exists, nothing to do", demoUsername)
		return
	}
	if err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}

	userId, err := uuid.Parse(res.UserId)
	if err != nil {
		log.Fatalf("Unexpected user id %q: %v", res.UserId, err)
	}

	conversation, err := container.ConversationService.Create(ctx, userId, "")
	if err != nil {
		log.Fatalf("Failed to create demo conversation: %v", err)
	}
	_, err = container.ConversationService.AppendMessage(ctx, userId, conversation.Id,
		constant.ChatMessageRoleSystem, "You are a helpful assistant.")
	if err != nil {
		log.Fatalf("Failed to seed system message: %v", err)
	}

	color.Green("Seeded demo user %q (password %q)", demoUsername, demoPassword)
	color.Green("Conversation %s ready", conversation.Id)
}
