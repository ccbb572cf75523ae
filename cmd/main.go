package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/ravikumargowda24/tapmindchat2/internal/auth"
	"github.com/ravikumargowda24/tapmindchat2/internal/chat"
	"github.com/ravikumargowda24/tapmindchat2/internal/config"
	"github.com/ravikumargowda24/tapmindchat2/internal/handlers"
	"github.com/ravikumargowda24/tapmindchat2/internal/observability"
	"github.com/ravikumargowda24/tapmindchat2/internal/store"
	fsstore "github.com/ravikumargowda24/tapmindchat2/internal/store/firestore"
	"github.com/ravikumargowda24/tapmindchat2/internal/store/memory"
	"github.com/ravikumargowda24/tapmindchat2/internal/telemetry"
)

func main() {
	ctx := context.Background()
	log := observability.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.Init(ctx, "tapmindchat2")
		if err != nil {
			log.Error("failed to initialize telemetry", "error", err)
			os.Exit(1)
		}
		defer shutdown(ctx)
	}

	var st store.Store
	switch cfg.StorageBackend {
	case "firestore":
		fs, err := fsstore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Error("failed to open firestore", "error", err)
			os.Exit(1)
		}
		defer fs.Close()
		st = fs
	default:
		st = memory.New()
	}
	log.Info("store ready", "backend", cfg.StorageBackend)

	hub := chat.NewHub(st, log, chat.Options{
		TypingTTL: cfg.TypingTTL,
		DedupTTL:  cfg.DedupTTL,
	})
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go hub.Run(runCtx)

	verifier := auth.NewVerifier(cfg.JWTKey)
	h := handlers.New(st, hub, cfg.UploadDir, log)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Static("/uploads", "./uploads")

	api := app.Group("/api", verifier.Middleware())

	messages := api.Group("/messages")
	messages.Post("/get-messages", h.GetMessages)
	messages.Post("/upload-file", h.UploadFile)
	messages.Post("/forward-message", h.ForwardMessage)
	messages.Put("/edit-message", h.EditMessage)
	messages.Delete("/delete-message", h.DeleteMessage)
	messages.Post("/mark-as-read", h.MarkAsRead)

	channels := api.Group("/channels")
	channels.Post("/create-channel", h.CreateChannel)
	channels.Get("/get-user-channels", h.GetUserChannels)
	channels.Get("/get-channel-messages/:channelId", h.GetChannelMessages)
	channels.Post("/:channelId/add-members", h.AddMembers)
	channels.Post("/:channelId/remove-member", h.RemoveMember)
	channels.Delete("/:channelId", h.DeleteChannel)

	contacts := api.Group("/contacts")
	contacts.Get("/all", h.GetAllContacts)
	contacts.Post("/search", h.SearchContacts)
	contacts.Get("/for-list", h.ContactsForList)

	app.Use("/ws", verifier.Middleware(), handlers.RequireUpgrade)
	app.Get("/ws", h.WS())

	go func() {
		log.Info("listening", "addr", cfg.ListenAddr)
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log.Info("shutting down")
	cancel()
	_ = app.Shutdown()
}
