package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"positronic/internal/analytics"
	"positronic/internal/config"
	"positronic/internal/conversation"
	"positronic/internal/llm"
	"positronic/internal/prompt"
	"positronic/internal/scheduler"
	"positronic/internal/storage"
	"positronic/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	systemPrompt := prompt.Load(cfg.SystemPromptPath)
	store := conversation.NewStore(cfg.HistoryLimit)

	var rec storage.Recorder
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Printf("failed to init file recorder: %v", err)
		} else {
			rec = fr
		}
	}

	bot, err := telegram.New(
		cfg.TelegramBotToken,
		llmClient,
		store,
		rec,
		systemPrompt,
		cfg.RequestTimeout,
	)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	if cfg.AdminUserID != 0 && rec != nil {
		sched := scheduler.New(cfg.ReportSpec)
		sched.SetReportFunc(func(ctx context.Context) error {
			events, err := rec.LoadInteractions()
			if err != nil {
				return err
			}
			stats := analytics.Summarize(events, time.Now().UTC())
			return bot.SendTo(cfg.AdminUserID, stats.Render())
		})
		if err := sched.Start(); err != nil {
			log.Printf("failed to start scheduler: %v", err)
		} else {
			defer sched.Stop()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Println("Bot starting...")
	bot.Start(ctx)
}
