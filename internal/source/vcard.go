package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/emersion/go-vcard"

	"github.com/Mariamochka1994/bday-bot/internal/config"
	"github.com/Mariamochka1994/bday-bot/internal/engine"
)

// VCardSource reads BDAY fields from a .vcf file or a CardDAV/HTTP export.
type VCardSource struct {
	Path    string
	URL     string
	User    string
	Pass    string
	Fetcher Fetcher
}

// NewVCardSource validates that s names a file or a URL.
func NewVCardSource(s config.SourceSettings, fetcher Fetcher) (*VCardSource, error) {
	if s.VCardPath == "" && s.VCardURL == "" {
		return nil, errors.New(config.ErrVCardSource)
	}
	return &VCardSource{
		Path:    s.VCardPath,
		URL:     s.VCardURL,
		User:    s.VCardUser,
		Pass:    s.VCardPass,
		Fetcher: fetcher,
	}, nil
}

// Records decodes every card. Cards without BDAY are not birthdays and are
// ignored; a BDAY in an unknown layout is passed through unchanged so the
// engine reports it as malformed.
func (v *VCardSource) Records(ctx context.Context) ([]engine.RawRecord, error) {
	rc, err := v.open(ctx)
	if err != nil {
		return nil, unavailable(config.SourceModeVCard, err)
	}
	defer func() { _ = rc.Close() }()

	decoder := vcard.NewDecoder(rc)
	var records []engine.RawRecord
	index := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, unavailable(config.SourceModeVCard, err)
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompSource,
				config.LogKeyError, err,
			)
			if errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			continue
		}
		index++

		bday := card.Get(config.VCardBDAY)
		if bday == nil || bday.Value == "" {
			continue
		}

		records = append(records, engine.RawRecord{
			Row:  index,
			Name: cardName(card),
			Date: dayMonth(bday.Value),
		})
	}

	slog.Debug(config.MsgVCardFetched,
		config.LogKeyComponent, config.CompSource,
		config.LogKeyTotal, len(records),
	)
	return records, nil
}

func (v *VCardSource) open(ctx context.Context) (io.ReadCloser, error) {
	if v.Path != "" {
		return os.Open(v.Path)
	}
	if v.Fetcher == nil {
		return nil, errors.New(config.ErrFetcherMissing)
	}
	return v.Fetcher.Fetch(ctx, v.URL, v.User, v.Pass)
}

// cardName prefers FN over the structured N field.
func cardName(card vcard.Card) string {
	if fn := card.Get(config.VCardFN); fn != nil && fn.Value != "" {
		return fn.Value
	}
	if n := card.Get(config.VCardN); n != nil && n.Value != "" {
		return n.Value
	}
	return config.FallbackName
}

// dayMonth converts a vCard date to DD.MM, or returns value unchanged.
func dayMonth(value string) string {
	t, err := parseDate(value)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%02d%s%02d", t.Day(), config.DayMonthSeparator, int(t.Month()))
}

// parseDate accepts full dates and the year-less --MM-DD forms of vCard 4.
func parseDate(value string) (time.Time, error) {
	layouts := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
		config.DateFormatNoYearD,
		config.DateFormatNoYearB,
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: %q", config.ErrDateParse, value)
}
