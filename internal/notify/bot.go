package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Mariamochka1994/bday-bot/internal/config"
	"github.com/Mariamochka1994/bday-bot/internal/engine"
	"github.com/Mariamochka1994/bday-bot/internal/metrics"
)

// BotAPI is the subset of *tgbotapi.BotAPI the command loop needs.
type BotAPI interface {
	Sender
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UpcomingFunc returns the next birthdays, soonest first, and the number of
// records skipped because their date could not be used.
type UpcomingFunc func(ctx context.Context) (events []engine.ReminderEvent, skipped int, err error)

// Bot answers chat commands. It never initiates conversations.
type Bot struct {
	API         BotAPI
	Messages    *Messages
	IsRecipient func(chatID int64) bool
	Upcoming    UpcomingFunc
	Limit       int
	Metrics     metrics.Recorder
}

// NewTelegramAPI authorizes token against the Telegram Bot API.
func NewTelegramAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrBotInit, err)
	}
	slog.Info(config.MsgBotAuthorized,
		config.LogKeyComponent, config.CompBot,
		config.LogKeyUser, api.Self.UserName,
	)
	return api, nil
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = config.PollTimeoutSeconds
	updates := b.API.GetUpdatesChan(u)

	slog.Info(config.MsgBotPolling, config.LogKeyComponent, config.CompBot)

	for {
		select {
		case <-ctx.Done():
			slog.Info(config.MsgBotStop, config.LogKeyComponent, config.CompBot)
			b.API.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate replies to a single command message. Non-command updates are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	chatID := msg.Chat.ID
	command := msg.Command()
	if b.Metrics != nil {
		b.Metrics.RecordCommand(commandLabel(command))
	}

	slog.Debug(config.MsgCommand,
		config.LogKeyComponent, config.CompBot,
		config.LogKeyCommand, command,
		config.LogKeyChatID, chatID,
	)

	b.reply(chatID, b.answer(ctx, chatID, command))
}

func (b *Bot) answer(ctx context.Context, chatID int64, command string) string {
	switch command {
	case config.CmdStart, config.CmdWhoAmI:
		return b.Messages.WhoAmI(chatID)
	case config.CmdHelp:
		return b.Messages.Help()
	case config.CmdUpcoming:
		if b.IsRecipient == nil || !b.IsRecipient(chatID) || b.Upcoming == nil {
			return b.Messages.Forbidden()
		}
		events, skipped, err := b.Upcoming(ctx)
		if err != nil {
			slog.Error(config.ErrCheckFailed,
				config.LogKeyComponent, config.CompBot,
				config.LogKeyCommand, command,
				config.LogKeyError, err,
			)
			return b.Messages.UpcomingFailed()
		}
		return b.Messages.Upcoming(events, skipped, b.Limit)
	default:
		return b.Messages.UnknownCommand()
	}
}

// commandLabel folds anything the bot does not implement into one label,
// since strangers choose the command text.
func commandLabel(command string) string {
	switch command {
	case config.CmdStart, config.CmdWhoAmI, config.CmdUpcoming, config.CmdHelp:
		return command
	default:
		return config.CmdUnknown
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.API.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error(config.ErrReply,
			config.LogKeyComponent, config.CompBot,
			config.LogKeyChatID, chatID,
			config.LogKeyError, err,
		)
	}
}
