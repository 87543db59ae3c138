package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Mariamochka1994/bday-bot/internal/config"
	"github.com/Mariamochka1994/bday-bot/internal/engine"
)

// SheetsSource reads a Google spreadsheet whose first row names the columns.
type SheetsSource struct {
	Service    *sheets.Service
	SheetID    string
	Range      string
	NameColumn string
	DateColumn string
}

// NewSheetsSource authenticates with the service account key from s.
// Extra options are appended after the defaults.
func NewSheetsSource(ctx context.Context, s config.SourceSettings, opts ...option.ClientOption) (*SheetsSource, error) {
	base := []option.ClientOption{
		option.WithScopes(config.SheetsScopeReadOnly),
		option.WithUserAgent(config.UserAgent),
	}
	if s.CredentialsJSON != "" {
		base = append(base, option.WithCredentialsJSON([]byte(s.CredentialsJSON)))
	}

	svc, err := sheets.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSheetsClient, err)
	}

	return &SheetsSource{
		Service:    svc,
		SheetID:    s.SheetID,
		Range:      s.Range,
		NameColumn: s.NameColumn,
		DateColumn: s.DateColumn,
	}, nil
}

// Records reads the configured range, or the whole first worksheet.
func (s *SheetsSource) Records(ctx context.Context) ([]engine.RawRecord, error) {
	rng := s.Range
	if rng == "" {
		title, err := s.firstSheet(ctx)
		if err != nil {
			return nil, unavailable(config.SourceModeSheets, err)
		}
		rng = quoteSheet(title)
	}

	resp, err := s.Service.Spreadsheets.Values.Get(s.SheetID, rng).
		ValueRenderOption(config.SheetsValueRender).
		Context(ctx).
		Do()
	if err != nil {
		return nil, unavailable(config.SourceModeSheets, err)
	}

	slog.Debug(config.MsgSheetsFetched,
		config.LogKeyComponent, config.CompSource,
		config.LogKeyRange, rng,
		config.LogKeyTotal, len(resp.Values),
	)

	records, err := s.rows(resp.Values)
	if err != nil {
		return nil, unavailable(config.SourceModeSheets, err)
	}
	return records, nil
}

func (s *SheetsSource) firstSheet(ctx context.Context) (string, error) {
	doc, err := s.Service.Spreadsheets.Get(s.SheetID).
		Fields(config.SheetsTitleFields).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if len(doc.Sheets) == 0 || doc.Sheets[0].Properties == nil {
		return "", errors.New(config.ErrSheetsNoSheets)
	}
	return doc.Sheets[0].Properties.Title, nil
}

// rows maps the header row to column indexes and converts the rest.
func (s *SheetsSource) rows(values [][]interface{}) ([]engine.RawRecord, error) {
	if len(values) == 0 {
		return nil, nil
	}

	nameIdx, dateIdx := -1, -1
	for i, h := range values[0] {
		switch strings.TrimSpace(fmt.Sprint(h)) {
		case s.NameColumn:
			nameIdx = i
		case s.DateColumn:
			dateIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("%s: %q", config.ErrSheetsHeader, s.NameColumn)
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("%s: %q", config.ErrSheetsHeader, s.DateColumn)
	}

	var records []engine.RawRecord
	for i, row := range values[1:] {
		// The header is row 1.
		rowNum := i + 2
		name := cell(row, nameIdx)
		if name == "" {
			slog.Debug(config.MsgSkippedRow,
				config.LogKeyComponent, config.CompSource,
				config.LogKeyRow, rowNum,
			)
			continue
		}
		records = append(records, engine.RawRecord{
			Row:  rowNum,
			Name: name,
			Date: cell(row, dateIdx),
		})
	}
	return records, nil
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) || row[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}

// quoteSheet turns a worksheet title into an A1 range covering the whole sheet.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
