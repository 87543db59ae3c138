package notify

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/Mariamochka1994/bday-bot/internal/config"
	"github.com/Mariamochka1994/bday-bot/internal/engine"
)

//go:embed locales/*.json
var localeFS embed.FS

// Messages renders every user-facing text of the bot in one language.
type Messages struct {
	Bundle    *i18n.Bundle
	Localizer *i18n.Localizer
	Languages []string
}

// NewMessages loads the embedded locale files and selects lang.
func NewMessages(lang string) (*Messages, error) {
	bundle := i18n.NewBundle(language.Russian)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrLocalesAccess, err)
	}

	var detectedLangs []string

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", config.ErrLocaleLoad, name, err)
		}
		detectedLangs = append(detectedLangs, langCode)

		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
	}

	if lang == "" {
		lang = config.DefaultLanguage
	}

	return &Messages{
		Bundle:    bundle,
		Localizer: i18n.NewLocalizer(bundle, lang),
		Languages: detectedLangs,
	}, nil
}

// localize translates key with data, returning "" when the key is missing.
func (m *Messages) localize(key string, data map[string]any) string {
	if m == nil || m.Localizer == nil {
		return ""
	}
	msg, err := m.Localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return ""
	}
	return msg
}

// FormatDate renders a day and month using the locale's short layout.
func (m *Messages) FormatDate(t time.Time) string {
	layout := m.localize(config.TKeyFormatDate, nil)
	if layout == "" {
		layout = config.DateFormatDayMonth
	}
	return t.Format(layout)
}

// Reminder is the text sent to every recipient for a due birthday.
func (m *Messages) Reminder(ev engine.ReminderEvent) string {
	date := m.FormatDate(ev.OccursOn)
	if msg := m.localize(config.TKeyReminder, map[string]any{"Name": ev.Name, "Date": date}); msg != "" {
		return msg
	}
	return fmt.Sprintf(config.FallbackReminder, date, ev.Name)
}

// WhoAmI reports a chat ID back to its owner.
func (m *Messages) WhoAmI(chatID int64) string {
	if msg := m.localize(config.TKeyWhoAmI, map[string]any{"ChatID": chatID}); msg != "" {
		return msg
	}
	return fmt.Sprintf(config.FallbackWhoAmI, chatID)
}

// Summary is the title of a calendar feed event.
func (m *Messages) Summary(ev engine.ReminderEvent) string {
	date := m.FormatDate(ev.OccursOn)
	if msg := m.localize(config.TKeyEvtSummary, map[string]any{"Name": ev.Name, "Date": date}); msg != "" {
		return msg
	}
	return fmt.Sprintf(config.FallbackSummary, ev.Name, date)
}

// Upcoming lists at most limit events, one per line. A non-zero skipped count
// adds a closing line, so a sheet of only malformed rows is not shown as empty.
func (m *Messages) Upcoming(events []engine.ReminderEvent, skipped, limit int) string {
	if len(events) == 0 && skipped == 0 {
		return m.text(config.TKeyUpcomingEmpty)
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	var lines []string
	if len(events) > 0 {
		lines = append(lines, m.text(config.TKeyUpcomingTitle))
	}
	for _, ev := range events {
		lines = append(lines, m.localize(config.TKeyUpcomingItem, map[string]any{
			"Name":     ev.Name,
			"Date":     m.FormatDate(ev.OccursOn),
			"RemindOn": m.FormatDate(ev.RemindOn),
		}))
	}
	if skipped > 0 {
		lines = append(lines, m.Skipped(skipped))
	}
	return strings.Join(lines, "\n")
}

// Skipped reports how many rows were left out because of their date.
func (m *Messages) Skipped(count int) string {
	if msg := m.localize(config.TKeyUpcomingSkip, map[string]any{"Count": count}); msg != "" {
		return msg
	}
	return fmt.Sprintf(config.FallbackSkipped, count)
}

// UpcomingFailed is sent when the record source could not be read.
func (m *Messages) UpcomingFailed() string { return m.text(config.TKeyUpcomingError) }

// Help lists the bot commands.
func (m *Messages) Help() string { return m.text(config.TKeyHelp) }

// Forbidden is sent to non-recipients asking for restricted data.
func (m *Messages) Forbidden() string { return m.text(config.TKeyForbidden) }

// UnknownCommand answers commands the bot does not implement.
func (m *Messages) UnknownCommand() string { return m.text(config.TKeyUnknownCmd) }

// text returns the translation of key, or key itself when missing.
func (m *Messages) text(key string) string {
	if msg := m.localize(key, nil); msg != "" {
		return msg
	}
	return key
}
