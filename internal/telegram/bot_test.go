package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"positronic/internal/conversation"
	"positronic/internal/llm"
	"positronic/internal/storage"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []string
	actions int
	reqErr  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mc, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, mc.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := c.(tgbotapi.ChatActionConfig); ok {
		f.actions++
	}
	return f.reqErr
}

type fakeLLM struct {
	mu    sync.Mutex
	resp  llm.Response
	err   error
	calls int
	last  []llm.Message
}

func (f *fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = msgs
	return f.resp, f.err
}

type memRecorder struct{ events []storage.Event }

func (m *memRecorder) AppendInteraction(ev storage.Event) error {
	m.events = append(m.events, ev)
	return nil
}
func (m *memRecorder) LoadInteractions() ([]storage.Event, error) { return m.events, nil }

func newTestBot(client llm.Client) (*Bot, *fakeSender) {
	fs := &fakeSender{}
	b := &Bot{
		s:            fs,
		llmClient:    client,
		store:        conversation.NewStore(40),
		systemPrompt: "system prompt",
		timeout:      time.Second,
	}
	return b, fs
}

func textMsg(userID, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, FirstName: "Unit"},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
}

func commandMsg(userID, chatID int64, text string) *tgbotapi.Message {
	msg := textMsg(userID, chatID, text)
	cmd := text
	if i := strings.IndexByte(cmd, ' '); i != -1 {
		cmd = cmd[:i]
	}
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	return msg
}

func waitForTurns(t *testing.T, b *Bot, userID int64, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.store.Len(userID) < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d turns, have %d", want, b.store.Len(userID))
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestFreeTextSuccessAppendsBothTurns(t *testing.T) {
	gw := &fakeLLM{resp: llm.Response{Content: "Hi there", Model: "test-model"}}
	b, fs := newTestBot(gw)

	b.handleIncomingMessage(context.Background(), textMsg(42, 100, "Hello"))

	h := b.store.History(42)
	if len(h) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(h))
	}
	if h[0].Role != conversation.RoleUser || h[0].Content != "Hello" {
		t.Fatalf("unexpected first turn: %+v", h[0])
	}
	if h[1].Role != conversation.RoleAssistant || h[1].Content != "Hi there" {
		t.Fatalf("unexpected second turn: %+v", h[1])
	}
	if len(fs.sent) != 1 || fs.sent[0] != "Hi there" {
		t.Fatalf("reply not sent: %+v", fs.sent)
	}
	if fs.actions != 1 {
		t.Fatalf("typing action not sent")
	}
	// Gateway saw the system prompt plus the new user turn.
	if len(gw.last) != 2 || gw.last[0].Role != "system" || gw.last[1].Content != "Hello" {
		t.Fatalf("unexpected gateway request: %+v", gw.last)
	}
}

func TestFreeTextFailureAppendsOnlyUserTurn(t *testing.T) {
	gw := &fakeLLM{err: &llm.Error{Kind: llm.KindUpstream, Err: errors.New("rate limited")}}
	b, fs := newTestBot(gw)

	b.handleIncomingMessage(context.Background(), textMsg(42, 100, "Hello"))

	h := b.store.History(42)
	if len(h) != 1 {
		t.Fatalf("expected exactly the user turn after failure, got %d turns", len(h))
	}
	if h[0].Role != conversation.RoleUser {
		t.Fatalf("unexpected surviving turn: %+v", h[0])
	}
	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0], "Unable to process request") {
		t.Fatalf("error notice not sent: %+v", fs.sent)
	}
}

func TestFreeTextTransportFailureNotice(t *testing.T) {
	gw := &fakeLLM{err: &llm.Error{Kind: llm.KindTransport, Err: errors.New("connection refused")}}
	b, fs := newTestBot(gw)

	b.handleIncomingMessage(context.Background(), textMsg(7, 70, "ping"))

	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0], "Network error") {
		t.Fatalf("transport notice not sent: %+v", fs.sent)
	}
}

func TestFreeTextSucceedsWhenTypingActionFails(t *testing.T) {
	gw := &fakeLLM{resp: llm.Response{Content: "ok"}}
	b, fs := newTestBot(gw)
	fs.reqErr = errors.New("chat action rejected")

	b.handleIncomingMessage(context.Background(), textMsg(8, 80, "Hello"))

	if b.store.Len(8) != 2 {
		t.Fatalf("typing failure must not abort the exchange, got %d turns", b.store.Len(8))
	}
	if len(fs.sent) != 1 || fs.sent[0] != "ok" {
		t.Fatalf("reply not sent despite typing failure: %+v", fs.sent)
	}
}

func TestFreeTextSuccessRecordsInteraction(t *testing.T) {
	gw := &fakeLLM{resp: llm.Response{Content: "ok", Model: "m", TotalTokens: 5}}
	b, _ := newTestBot(gw)
	rec := &memRecorder{}
	b.recorder = rec

	b.handleIncomingMessage(context.Background(), textMsg(9, 90, "record me"))

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 recorded event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	if ev.UserID != 9 || ev.UserMessage != "record me" || ev.AssistantResponse != "ok" || ev.TotalTokens != 5 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestMalformedUpdatesDropped(t *testing.T) {
	gw := &fakeLLM{}
	b, fs := newTestBot(gw)
	ctx := context.Background()

	b.enqueue(ctx, &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "no sender"})
	b.enqueue(ctx, textMsg(1, 1, "   "))

	// Malformed events are rejected before a queue is even created.
	if len(b.queues) != 0 {
		t.Fatalf("malformed update created a queue")
	}
	if gw.calls != 0 {
		t.Fatalf("gateway called for malformed update")
	}
	if len(fs.sent) != 0 {
		t.Fatalf("reply sent for malformed update: %+v", fs.sent)
	}
}

func TestPerUserTurnsLandInArrivalOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw := &fakeLLM{resp: llm.Response{Content: "ack"}}
	b, _ := newTestBot(gw)
	uid := int64(42)

	// Enqueue back to back, as the update loop does; the per-user
	// worker must process them strictly in this order.
	const n = 10
	for i := 0; i < n; i++ {
		b.enqueue(ctx, textMsg(uid, 100, fmt.Sprintf("m%d", i)))
	}

	waitForTurns(t, b, uid, 2*n)
	h := b.store.History(uid)
	for i := 0; i < n; i++ {
		if want := fmt.Sprintf("m%d", i); h[2*i].Content != want {
			t.Fatalf("turn %d out of order: got %q want %q", 2*i, h[2*i].Content, want)
		}
		if h[2*i+1].Role != conversation.RoleAssistant {
			t.Fatalf("turn %d should be the assistant reply: %+v", 2*i+1, h[2*i+1])
		}
	}
}

func TestEnqueueReusesQueuePerUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, _ := newTestBot(&fakeLLM{resp: llm.Response{Content: "ok"}})
	b.enqueue(ctx, textMsg(1, 10, "a"))
	b.enqueue(ctx, textMsg(1, 10, "b"))
	b.enqueue(ctx, textMsg(2, 20, "c"))

	b.mu.Lock()
	queues := len(b.queues)
	b.mu.Unlock()
	if queues != 2 {
		t.Fatalf("expected one queue per user, got %d", queues)
	}
	waitForTurns(t, b, 1, 4)
	waitForTurns(t, b, 2, 2)
}

func TestScenarioStartHelloClear(t *testing.T) {
	gw := &fakeLLM{resp: llm.Response{Content: "Hi there", Model: "test-model"}}
	b, fs := newTestBot(gw)
	ctx := context.Background()
	uid := int64(42)

	b.handleIncomingMessage(ctx, commandMsg(uid, 100, "/start"))
	if gw.calls != 0 {
		t.Fatalf("/start reached the gateway")
	}
	if b.store.Len(uid) != 0 {
		t.Fatalf("/start touched history")
	}
	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0], "robopsychological analyst") {
		t.Fatalf("welcome not sent: %+v", fs.sent)
	}

	b.handleIncomingMessage(ctx, textMsg(uid, 100, "Hello"))
	if gw.calls != 1 {
		t.Fatalf("expected 1 gateway call, got %d", gw.calls)
	}
	// Gateway request: system prompt plus the single new user turn,
	// since history was empty before this message.
	if len(gw.last) != 2 || gw.last[1].Role != "user" || gw.last[1].Content != "Hello" {
		t.Fatalf("unexpected gateway request: %+v", gw.last)
	}
	h := b.store.History(uid)
	if len(h) != 2 || h[0].Content != "Hello" || h[1].Content != "Hi there" {
		t.Fatalf("unexpected history: %+v", h)
	}

	b.handleIncomingMessage(ctx, commandMsg(uid, 100, "/clear"))
	if b.store.Len(uid) != 0 {
		t.Fatalf("/clear did not empty history")
	}
	if gw.calls != 1 {
		t.Fatalf("/clear reached the gateway")
	}
}
