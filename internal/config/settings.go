package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Containers often ship without zoneinfo.

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// SourceSettings selects and configures the birthday record source.
type SourceSettings struct {
	// Mode is SourceModeSheets or SourceModeVCard.
	Mode string `yaml:"mode"`

	// SheetID is the spreadsheet key. Range is optional; the first worksheet is used when empty.
	SheetID    string `yaml:"sheet_id"`
	Range      string `yaml:"range"`
	NameColumn string `yaml:"name_column"`
	DateColumn string `yaml:"date_column"`

	// CredentialsJSON is a service account key. CredentialsFile is read into it when set.
	CredentialsJSON string `yaml:"credentials_json"`
	CredentialsFile string `yaml:"credentials_file"`

	VCardPath string `yaml:"vcard_path"`
	VCardURL  string `yaml:"vcard_url"`
	VCardUser string `yaml:"vcard_user"`
	VCardPass string `yaml:"vcard_pass"`
}

// HTTPSettings configures the optional calendar/metrics server.
type HTTPSettings struct {
	// Listen is a host:port address. The server is disabled when empty.
	Listen string `yaml:"listen"`
}

// Settings is the complete runtime configuration, built once at startup
// and passed explicitly to every component.
type Settings struct {
	BotToken   string         `yaml:"bot_token"`
	Recipients []int64        `yaml:"recipients"`
	Timezone   string         `yaml:"timezone"`
	Schedule   string         `yaml:"schedule"`
	Language   string         `yaml:"language"`
	Source     SourceSettings `yaml:"source"`
	HTTP       HTTPSettings   `yaml:"http"`

	// Location is resolved from Timezone by Validate.
	Location *time.Location `yaml:"-"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug(MsgEnvMissing, LogKeyComponent, CompConfig, LogKeyFile, path)
			return nil
		}
		return fmt.Errorf("%s: %w", ErrEnvFile, err)
	}
	return nil
}

// Load builds Settings from the YAML file at path (optional), the process
// environment and, for the bot token only, the secret store.
// The returned Settings are normalized and validated.
func Load(path string, store SecretStore) (*Settings, error) {
	s := &Settings{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Info(MsgConfigMissing, LogKeyComponent, CompConfig, LogKeyFile, path)
		case err != nil:
			return nil, fmt.Errorf("%s: %w", ErrConfigRead, err)
		default:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("%s: %w", ErrConfigParse, err)
			}
		}
	}

	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	s.Normalize()

	if err := s.resolveCredentialsFile(); err != nil {
		return nil, err
	}
	if store != nil {
		if err := s.ResolveToken(store); err != nil {
			return nil, err
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyEnv overrides fields with the environment variables the bot has always used.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(EnvBotToken, &s.BotToken)
	str(EnvTimezone, &s.Timezone)
	str(EnvSchedule, &s.Schedule)
	str(EnvLanguage, &s.Language)
	str(EnvHTTPListen, &s.HTTP.Listen)
	str(EnvSourceMode, &s.Source.Mode)
	str(EnvSheetID, &s.Source.SheetID)
	str(EnvCredentialsFile, &s.Source.CredentialsFile)
	str(EnvVCardPath, &s.Source.VCardPath)
	str(EnvVCardURL, &s.Source.VCardURL)
	str(EnvVCardUser, &s.Source.VCardUser)
	str(EnvVCardPass, &s.Source.VCardPass)

	// Credentials JSON is kept verbatim.
	if v, ok := lookup(EnvCredentialsJSON); ok && v != "" {
		s.Source.CredentialsJSON = v
	}

	if v, ok := lookup(EnvUserIDs); ok && strings.TrimSpace(v) != "" {
		ids, err := ParseRecipients(v)
		if err != nil {
			return err
		}
		s.Recipients = ids
	}
	return nil
}

// ParseRecipients parses a comma separated list of chat IDs.
func ParseRecipients(v string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(v, IDSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q: %w", ErrRecipientID, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Normalize fills in missing values with defaults.
func (s *Settings) Normalize() {
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	if s.Schedule == "" {
		s.Schedule = DefaultSchedule
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.Source.Mode == "" {
		s.Source.Mode = SourceModeSheets
	}
	if s.Source.NameColumn == "" {
		s.Source.NameColumn = DefaultNameColumn
	}
	if s.Source.DateColumn == "" {
		s.Source.DateColumn = DefaultDateColumn
	}
}

func (s *Settings) resolveCredentialsFile() error {
	if s.Source.CredentialsJSON != "" || s.Source.CredentialsFile == "" {
		return nil
	}
	data, err := os.ReadFile(s.Source.CredentialsFile)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrCredsFile, err)
	}
	s.Source.CredentialsJSON = string(data)
	return nil
}

// Validate checks required fields and resolves Location.
func (s *Settings) Validate() error {
	if s.BotToken == "" {
		return errors.New(ErrTokenMissing)
	}
	if len(s.Recipients) == 0 {
		return errors.New(ErrRecipients)
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fmt.Errorf("%s: %q: %w", ErrTimezone, s.Timezone, err)
	}
	s.Location = loc

	if _, err := cron.ParseStandard(s.Schedule); err != nil {
		return fmt.Errorf("%s: %q: %w", ErrSchedule, s.Schedule, err)
	}

	if !slices.Contains(SupportedLanguages, s.Language) {
		return fmt.Errorf("%s: %q", ErrLanguage, s.Language)
	}

	switch s.Source.Mode {
	case SourceModeSheets:
		if s.Source.SheetID == "" {
			return errors.New(ErrSheetIDMissing)
		}
		if s.Source.CredentialsJSON == "" {
			return errors.New(ErrCredsMissing)
		}
	case SourceModeVCard:
		if s.Source.VCardPath == "" && s.Source.VCardURL == "" {
			return errors.New(ErrVCardSource)
		}
	default:
		return fmt.Errorf("%s: %q", ErrModeUnsupport, s.Source.Mode)
	}
	return nil
}

// IsRecipient reports whether chatID is one of the configured recipients.
func (s *Settings) IsRecipient(chatID int64) bool {
	return slices.Contains(s.Recipients, chatID)
}
