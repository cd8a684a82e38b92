package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/api"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/calculate"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/chat"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/config"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/directory"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/discord"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/settlement"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/pkg/logging"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/pkg/qrcode"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	logging.Setup()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dir, err := directory.New(ctx, directory.Config{
		Host:         cfg.PostgreSQL.Host,
		Port:         cfg.PostgreSQL.Port,
		User:         cfg.PostgreSQL.User,
		Password:     cfg.PostgreSQL.Password,
		DBName:       cfg.PostgreSQL.DBName,
		Schema:       cfg.PostgreSQL.Schema,
		PoolMaxConns: cfg.PostgreSQL.PoolMaxConns,
	})
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dir.Close()

	if err := dir.Migrate(ctx); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL successfully")

	store, err := settlement.NewFileStore(cfg.Store.DataDir)
	if err != nil {
		slog.Error("Failed to initialize settlement store", "error", err)
		os.Exit(1)
	}
	slog.Info("Settlement store initialized", "dataDir", cfg.Store.DataDir)

	client := calculate.NewClient(cfg.Calculate.BaseURL, cfg.Calculate.RequestTimeout)
	orchestrator := calculate.NewOrchestrator(client, calculate.PollConfig{
		PollInterval:      cfg.Calculate.PollInterval,
		HeartbeatInterval: cfg.Calculate.HeartbeatInterval,
		MaxWait:           cfg.Calculate.MaxWait,
	})
	orchestrator.SetQRGenerator(qrcode.Generate)

	apiServer := api.NewServer(store)
	go func() {
		addr := ":" + cfg.API.Port
		slog.Info("Settlements API listening", "addr", addr)
		if err := http.ListenAndServe(addr, apiServer.Router()); err != nil {
			slog.Error("Settlements API server stopped", "error", err)
		}
	}()

	var uploader discord.ChatUploader
	if cfg.Chat.BaseURL != "" {
		uploader = chat.NewClient(cfg.Chat.BaseURL, cfg.Chat.RequestTimeout)
	} else {
		slog.Warn("Chat.BaseURL not set, chat recording disabled")
	}

	bot, err := discord.New(cfg.DiscordBot.Token, dir, orchestrator, uploader)
	if err != nil {
		slog.Error("Failed to create Discord bot", "error", err)
		os.Exit(1)
	}
	if err := bot.Open(); err != nil {
		slog.Error("Failed to connect to Discord", "error", err)
		os.Exit(1)
	}
	defer bot.Close()

	slog.Info("Tally Bot is now running. Press CTRL+C to exit.")
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	slog.Info("Tally Bot shutting down")
}
