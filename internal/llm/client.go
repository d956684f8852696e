package llm

import "context"

// Message is one element of a completion request: the system prompt, a
// prior conversation turn, or the newest user text. Role follows the
// chat-completion convention ("system", "user", "assistant").
type Message struct {
	Role    string
	Content string
}

// Response is a normalized completion result with token accounting, the
// same shape regardless of provider.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is the completion gateway. Implementations return failures as
// *Error values classified by Kind; they never panic and never mutate
// the caller's messages.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
