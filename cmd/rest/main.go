package main

import (
	"context"
	"log"

	"chat-relay-be/internal/bootstrap"
	"chat-relay-be/internal/config"
	"chat-relay-be/internal/server"
	"chat-relay-be/internal/tracer"
	"chat-relay-be/pkg/database"
)

func main() {
	// 1. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 3. Initialize Database
	dbPath, err := cfg.Database.Path()
	if err != nil {
		log.Fatalf("Invalid DATABASE_URL: %v", err)
	}
	gormDB, err := database.NewSqliteDB(dbPath)
	if err != nil {
		log.Panicf("Unable to open SQLite DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	// 5. Start the audit-event consumer
	if err := container.ConsumerService.Consume(context.Background()); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	// 6. Run Server
	srv := server.New(cfg, container)
	log.Printf("Server is running on http://%s:%s", cfg.App.Host, cfg.App.Port)
	log.Fatal(srv.Run())
}
