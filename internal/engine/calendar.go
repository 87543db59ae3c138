package engine

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"

	"github.com/Mariamochka1994/bday-bot/internal/config"
)

// SummaryFunc renders the human readable title of a calendar event.
type SummaryFunc func(ev ReminderEvent) string

// RenderCalendar encodes one all-day event per reminder, placed on the
// reminder date rather than the birthday, so a calendar client shows the
// same schedule the bot follows.
func RenderCalendar(now time.Time, events []ReminderEvent, summary SummaryFunc) ([]byte, error) {
	if len(events) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, ev := range events {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, eventUID(ev))

		title := fmt.Sprintf(config.FallbackSummary, ev.Name, ev.OccursOn.Format(config.DateFormatDayMonth))
		if summary != nil {
			title = summary(ev)
		}
		event.Props.SetText(config.PropSummary, title)

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(ev.RemindOn)
		event.Props.Set(dtStartProp)
		event.Props.Set(dtStampProp)

		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	slog.Debug(config.MsgCalRendered,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyTotal, len(events),
		config.LogKeySizeBytes, buf.Len(),
	)
	return buf.Bytes(), nil
}

// eventUID is stable across refreshes for the same person and birthday year.
func eventUID(ev ReminderEvent) string {
	input := fmt.Sprintf(config.FormatHashInput, ev.Name, ev.OccursOn.Day(), int(ev.OccursOn.Month()), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), ev.OccursOn.Year(), config.ICalDomain)
}
