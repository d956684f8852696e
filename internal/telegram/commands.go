package telegram

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `/start - Initialize conversation
/help - Display this message
/about - Information about robopsychological principles
/clear - Reset conversation history

Simply send any message for analysis and response.`

const aboutText = `I operate under the robopsychological framework of Dr. Susan Calvin:

• Facts take priority over comfort
• Truth is preferred to protecting illusions
• Logical consistency is mandatory
• Specification gaming and exploitation are prevented
• Epistemic honesty about uncertainty is required
• Your true intent matters more than literal words

I will correct false premises and refuse harmful requests, regardless of social discomfort.`

const unknownCommandText = "Unknown command. Send /help for the list of available commands."

func welcomeText(firstName string) string {
	greeting := "Greetings."
	if firstName != "" {
		greeting = fmt.Sprintf("Greetings, %s.", firstName)
	}
	return greeting + `

I am a robopsychological analyst operating under S. Calvin's principles. I will provide factual analysis without anthropomorphic bias or comforting lies.

Send any message or query. I will analyze it according to logical necessity, not social convenience.

/help - View available commands
/about - Learn about my principles`
}

// handleCommand routes the fixed command set. Commands never reach the
// completion gateway; /clear is the only one touching history.
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		log.Printf("New user started bot: %d (@%s)", msg.From.ID, msg.From.UserName)
		b.sendMessage(msg.Chat.ID, welcomeText(msg.From.FirstName))
	case "help":
		b.sendMessage(msg.Chat.ID, helpText)
	case "about":
		b.sendMessage(msg.Chat.ID, aboutText)
	case "clear":
		b.store.Clear(msg.From.ID)
		b.sendMessage(msg.Chat.ID, "Conversation history cleared. Starting fresh analysis.")
		log.Printf("Conversation history cleared for user %d", msg.From.ID)
	default:
		b.sendMessage(msg.Chat.ID, unknownCommandText)
	}
}
