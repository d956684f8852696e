package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// sender is the outbound seam to the Telegram API. Send is for calls
// answering with a Message; Request is for calls answering with a bare
// status (chat actions, command registration). Tests substitute a fake
// to capture replies without the network.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) error
}

type botAPISender struct{ api *tgbotapi.BotAPI }

func (s botAPISender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return s.api.Send(c)
}

func (s botAPISender) Request(c tgbotapi.Chattable) error {
	_, err := s.api.Request(c)
	return err
}
