package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Mariamochka1994/bday-bot/internal/config"
	"github.com/Mariamochka1994/bday-bot/internal/engine"
	"github.com/Mariamochka1994/bday-bot/internal/metrics"
)

// Sender is the part of *tgbotapi.BotAPI used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers one message per (event, recipient) pair.
type Notifier struct {
	Sender     Sender
	Recipients []int64
	Messages   *Messages
	Metrics    metrics.Recorder
}

// NewNotifier wires a Notifier. A nil recorder disables metrics.
func NewNotifier(sender Sender, recipients []int64, msgs *Messages, rec metrics.Recorder) *Notifier {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Notifier{
		Sender:     sender,
		Recipients: recipients,
		Messages:   msgs,
		Metrics:    rec,
	}
}

// Notify sends every event to every recipient and returns how many messages
// went out. A failed send does not stop the others; all failures are joined.
func (n *Notifier) Notify(ctx context.Context, events []engine.ReminderEvent) (int, error) {
	sent := 0
	var errs []error

	for _, ev := range events {
		text := n.Messages.Reminder(ev)

		for _, chatID := range n.Recipients {
			if err := ctx.Err(); err != nil {
				return sent, errors.Join(append(errs, err)...)
			}

			_, err := n.Sender.Send(tgbotapi.NewMessage(chatID, text))
			n.Metrics.RecordDelivery(err)
			if err != nil {
				slog.Error(config.ErrSend,
					config.LogKeyComponent, config.CompNotify,
					config.LogKeyChatID, chatID,
					config.LogKeyName, ev.Name,
					config.LogKeyError, err,
				)
				errs = append(errs, fmt.Errorf("%s to %d: %w", config.ErrSend, chatID, err))
				continue
			}

			sent++
			slog.Info(config.MsgMessageSent,
				config.LogKeyComponent, config.CompNotify,
				config.LogKeyChatID, chatID,
				config.LogKeyName, ev.Name,
				config.LogKeyOccursOn, ev.OccursOn.Format(config.DateFormatFullDash),
			)
		}
	}

	return sent, errors.Join(errs...)
}
