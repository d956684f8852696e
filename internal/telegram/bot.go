package telegram

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"positronic/internal/conversation"
	"positronic/internal/llm"
	"positronic/internal/storage"
)

// queueDepth bounds each user's inbox; the update loop blocks on a full
// queue rather than reordering or dropping messages.
const queueDepth = 32

type Bot struct {
	api          *tgbotapi.BotAPI
	s            sender
	llmClient    llm.Client
	store        *conversation.Store
	recorder     storage.Recorder
	systemPrompt string
	timeout      time.Duration

	// per-user FIFO queues, each drained by a single worker: queue
	// position is assigned in arrival order by the update loop, so one
	// user's turns land in issue order while unrelated users proceed
	// concurrently
	mu     sync.Mutex
	queues map[int64]chan *tgbotapi.Message
}

func New(botToken string, llmClient llm.Client, store *conversation.Store, recorder storage.Recorder, systemPrompt string, timeout time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:          api,
		s:            botAPISender{api: api},
		llmClient:    llmClient,
		store:        store,
		recorder:     recorder,
		systemPrompt: systemPrompt,
		timeout:      timeout,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	b.registerCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.enqueue(ctx, update.Message)
		}
	}
}

// registerCommands publishes the command menu to Telegram clients.
func (b *Bot) registerCommands() {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Initialize conversation"},
		tgbotapi.BotCommand{Command: "help", Description: "Display help message"},
		tgbotapi.BotCommand{Command: "about", Description: "Learn about robopsychological principles"},
		tgbotapi.BotCommand{Command: "clear", Description: "Reset conversation history"},
	)
	if err := b.s.Request(cfg); err != nil {
		log.Printf("failed to register bot commands: %v", err)
	}
}

// enqueue validates the event and places it on the user's queue. It is
// called from the single update loop, so queue position equals arrival
// order.
func (b *Bot) enqueue(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		log.Printf("dropping malformed update: from=%v text=%q", msg.From, msg.Text)
		return
	}

	b.mu.Lock()
	if b.queues == nil {
		b.queues = make(map[int64]chan *tgbotapi.Message)
	}
	q, ok := b.queues[msg.From.ID]
	if !ok {
		q = make(chan *tgbotapi.Message, queueDepth)
		b.queues[msg.From.ID] = q
		go b.worker(ctx, q)
	}
	b.mu.Unlock()

	select {
	case q <- msg:
	case <-ctx.Done():
	}
}

func (b *Bot) worker(ctx context.Context, q chan *tgbotapi.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-q:
			b.handleIncomingMessage(ctx, msg)
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	log.Printf("Incoming message from %d (@%s): %q", msg.From.ID, msg.From.UserName, msg.Text)

	b.store.AppendUser(msg.From.ID, msg.Text)
	b.sendTyping(msg.Chat.ID)

	// History already contains the just-appended user turn.
	contextMsgs := b.buildContext(msg.From.ID)

	callCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	resp, err := b.llmClient.Generate(callCtx, contextMsgs)
	if err != nil {
		// The failed turn keeps only the user's side of the exchange.
		log.Printf("completion failed for user %d: %v", msg.From.ID, err)
		b.sendMessage(msg.Chat.ID, failureNotice(err))
		return
	}

	b.store.AppendAssistant(msg.From.ID, resp.Content)

	if b.recorder != nil {
		ev := storage.Event{
			Timestamp:         time.Now().UTC(),
			UserID:            msg.From.ID,
			UserMessage:       msg.Text,
			AssistantResponse: resp.Content,
			Model:             resp.Model,
			TotalTokens:       resp.TotalTokens,
		}
		if err := b.recorder.AppendInteraction(ev); err != nil {
			log.Printf("failed to record interaction: %v", err)
		}
	}

	log.Printf("LLM response [model=%s, tokens: prompt=%d, completion=%d, total=%d]",
		resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)

	b.sendMessage(msg.Chat.ID, resp.Content)
}

func (b *Bot) buildContext(userID int64) []llm.Message {
	var msgs []llm.Message
	if b.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: b.systemPrompt})
	}
	for _, turn := range b.store.History(userID) {
		msgs = append(msgs, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return msgs
}

// failureNotice maps a gateway failure to the user-visible error text.
func failureNotice(err error) string {
	var le *llm.Error
	if errors.As(err, &le) {
		switch le.Kind {
		case llm.KindTransport:
			return "Network error: unable to reach the analysis engine. Please try again."
		case llm.KindTimeout, llm.KindUpstream:
			return "Error: Unable to process request. Insufficient data or API error."
		}
	}
	return "System error: Unable to process your request. Please try again or contact administrator."
}

// SendTo delivers a plain text message to a user, used by the daily
// usage report.
func (b *Bot) SendTo(userID int64, text string) error {
	_, err := b.s.Send(tgbotapi.NewMessage(userID, text))
	return err
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.s.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) sendTyping(chatID int64) {
	// sendChatAction answers with a bare bool, so it goes through
	// Request instead of Send.
	if err := b.s.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("failed to send chat action: %v", err)
	}
}
