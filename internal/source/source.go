// Package source supplies raw birthday records from a spreadsheet or a vCard feed.
package source

import (
	"context"
	"fmt"

	"github.com/Mariamochka1994/bday-bot/internal/config"
	"github.com/Mariamochka1994/bday-bot/internal/engine"
)

// Source yields the current set of birthday rows. Order carries no meaning.
type Source interface {
	Records(ctx context.Context) ([]engine.RawRecord, error)
}

// UnavailableError means the whole source could not be read. A run that
// hits it must not send anything.
type UnavailableError struct {
	Mode string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s (%s): %v", config.ErrSourceFetch, e.Mode, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func unavailable(mode string, err error) error {
	return &UnavailableError{Mode: mode, Err: err}
}

// New builds the source selected by s.Mode.
func New(ctx context.Context, s config.SourceSettings, fetcher Fetcher) (Source, error) {
	switch s.Mode {
	case config.SourceModeSheets:
		return NewSheetsSource(ctx, s)
	case config.SourceModeVCard:
		return NewVCardSource(s, fetcher)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, s.Mode)
	}
}
