package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Bday-Bot/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName          = "Bday Bot"
	AppID            = "com.github.mariamochka1994.bday-bot"
	KeyringService   = "com.github.mariamochka1994.bday-bot"
	KeyringUserToken = "bot_token"
	DefaultConfig    = "bday-bot.yaml"
	DefaultEnvFile   = ".env"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagConfig       = "config"
	FlagOnce         = "once"
	FlagStoreToken   = "store-token"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescConfig   = "Path to the YAML configuration file"
	FlagDescOnce     = "Run a single reminder check and exit"
	FlagDescStore    = "Read a bot token from stdin, store it in the OS keyring and exit"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Environment Variables
// -----------------------------------------------------------------------------

const (
	EnvBotToken        = "BOT_TOKEN"
	EnvSheetID         = "SHEET_ID"
	EnvUserIDs         = "USER_IDS"
	EnvCredentialsJSON = "GOOGLE_CREDENTIALS_JSON"
	EnvCredentialsFile = "GOOGLE_CREDENTIALS_FILE"
	EnvTimezone        = "TIMEZONE"
	EnvSchedule        = "SCHEDULE"
	EnvLanguage        = "BOT_LANGUAGE"
	EnvHTTPListen      = "HTTP_LISTEN"
	EnvSourceMode      = "SOURCE_MODE"
	EnvVCardPath       = "VCARD_PATH"
	EnvVCardURL        = "VCARD_URL"
	EnvVCardUser       = "VCARD_USER"
	EnvVCardPass       = "VCARD_PASS"

	// IDSeparator splits USER_IDS.
	IDSeparator = ","
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeSheets = "sheets"
	SourceModeVCard  = "vcard"

	DefaultTimezone   = "Europe/Moscow"
	DefaultSchedule   = "0 12 * * *"
	DefaultLanguage   = "ru"
	DefaultNameColumn = "ФИО"
	DefaultDateColumn = "Дата рождения"
	DefaultLeapYear   = 2000 // Leap year used to validate DD.MM pairs without a year

	// ReminderLeadDays is how many days before the birthday the reminder targets.
	ReminderLeadDays = 7

	// DefaultUpcomingLimit caps the /upcoming listing.
	DefaultUpcomingLimit = 10
)

// SupportedLanguages defines the list of available message languages (ISO 639-1).
var SupportedLanguages = []string{"ru", "en"}

// -----------------------------------------------------------------------------
// Google Sheets
// -----------------------------------------------------------------------------

const (
	SheetsScopeReadOnly = "https://www.googleapis.com/auth/spreadsheets.readonly"
	SheetsValueRender   = "FORMATTED_VALUE"
	SheetsTitleFields   = "sheets.properties.title"
)

// -----------------------------------------------------------------------------
// Telegram
// -----------------------------------------------------------------------------

const (
	CmdStart    = "start"
	CmdWhoAmI   = "whoami"
	CmdUpcoming = "upcoming"
	CmdHelp     = "help"
	CmdUnknown  = "unknown"

	PollTimeoutSeconds = 60
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyReminder      = "reminder" // Requires Name, Date
	TKeyWhoAmI        = "whoami"   // Requires ChatID
	TKeyUpcomingTitle = "upcoming_title"
	TKeyUpcomingItem  = "upcoming_item" // Requires Name, Date, RemindOn
	TKeyUpcomingEmpty = "upcoming_empty"
	TKeyUpcomingError = "upcoming_failed"
	TKeyUpcomingSkip  = "upcoming_skipped" // Requires Count
	TKeyHelp          = "help"
	TKeyForbidden     = "forbidden"
	TKeyUnknownCmd    = "unknown_command"
	TKeyEvtSummary    = "event_summary" // Requires Name, Date
	TKeyFormatDate    = "format_date_short"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion = "2.0"
	ICalProdid  = "-//Bday Bot//Reminders//EN"
	ICalCalName = "Birthday reminders"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "bday-bot"

	// iCal/vCard Fields
	PropUID        = "UID"
	PropSummary    = "SUMMARY"
	PropDTStart    = "DTSTART"
	PropDTStamp    = "DTSTAMP"
	PropRefresh    = "REFRESH-INTERVAL"
	PropVersion    = "VERSION"
	PropProdid     = "PRODID"
	PropXWRCalName = "X-WR-CALNAME"
	PropCalScale   = "CALSCALE"
	PropMethod     = "METHOD"

	VCardBDAY = "BDAY"
	VCardFN   = "FN"
	VCardN    = "N"

	DefaultICalRefresh = 24 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	// DayMonthSeparator splits the DD.MM spreadsheet value.
	DayMonthSeparator  = "."
	DateFormatDayMonth = "02.01"
	DateFormatFullDash = "2006-01-02"

	// Date layouts used for parsing vCard BDAY fields
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%02d.%02d|%s"
	FormatUID       = "%s-%d@%s"
	UIDSalt         = "bday-bot-v1-"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	CheckTimeout        = 2 * time.Minute
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 32 * 1024 * 1024 // 32MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteCalendar       = "/calendar.ics"
	RouteMetrics        = "/metrics"
	RouteHealth         = "/healthz"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeVCardAccept     = "text/vcard, text/directory;q=0.9, */*;q=0.1"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrConfigRead      = "failed to read configuration file"
	ErrConfigParse     = "failed to parse configuration file"
	ErrEnvFile         = "failed to load env file"
	ErrTokenMissing    = "configuration error: bot token is empty (set BOT_TOKEN or store it in the keyring)"
	ErrSheetIDMissing  = "configuration error: sheet ID is empty"
	ErrCredsMissing    = "configuration error: Google credentials are empty"
	ErrCredsFile       = "failed to read Google credentials file"
	ErrRecipients      = "configuration error: no recipients configured"
	ErrRecipientID     = "configuration error: invalid recipient ID"
	ErrTimezone        = "configuration error: unknown timezone"
	ErrSchedule        = "configuration error: invalid cron schedule"
	ErrLanguage        = "configuration error: unsupported language"
	ErrModeUnsupport   = "configuration error: unsupported source mode"
	ErrVCardSource     = "configuration error: vCard source needs a path or a URL"
	ErrKeyringSet      = "failed to store token in keyring"
	ErrTokenEmptyInput = "no token read from stdin"
	ErrSourceFetch     = "record source unavailable"
	ErrSheetsClient    = "failed to create Sheets client"
	ErrSheetsNoSheets  = "spreadsheet has no worksheets"
	ErrSheetsHeader    = "header row is missing a required column"
	ErrFetcherMissing  = "internal error: network fetcher is not initialized"
	ErrICalEncode      = "failed to encode iCalendar data"
	ErrDateParse       = "unable to parse date"
	ErrDateFormat      = "date is not in DD.MM form"
	ErrDateInvalid     = "day and month do not form a calendar date"
	ErrInvalidURL      = "invalid URL structure"
	ErrProtocol        = "unsupported protocol scheme (http/https only)"
	ErrRequestBuild    = "failed to create request"
	ErrNetwork         = "network error during fetch"
	ErrHTTPStatus      = "server returned unexpected status"
	ErrSourceTooLarge  = "record source exceeds the download size limit"
	ErrSourceRead      = "failed to read record source body"
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrListenRequired  = "server listen address is required"
	ErrWriteResp       = "failed to write response body"
	ErrBotInit         = "failed to initialize Telegram bot"
	ErrSend            = "failed to send message"
	ErrReply           = "failed to reply to command"
	ErrCheckFailed     = "reminder check failed"
	ErrDelivery        = "some reminders were not delivered"
	ErrAppFailed       = "application failed unexpectedly"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrSchedulerAddJob = "failed to register daily job"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgOK           = "ok"
)

// -----------------------------------------------------------------------------
// Fallbacks & Log Messages
// -----------------------------------------------------------------------------

const (
	FallbackReminder = "📅 In one week, %s, it's %s's birthday! 🎂"
	FallbackWhoAmI   = "Your Telegram ID: %d"
	FallbackSummary  = "Birthday reminder: %s (%s)"
	FallbackSkipped  = "Skipped rows with an unusable date: %d"
	FallbackName     = "Unknown"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgAppStarting    = "Starting application"
	MsgAppStop        = "Application stopped gracefully"
	MsgEnvMissing     = "No env file found, using process environment"
	MsgConfigMissing  = "No configuration file found, using environment only"
	MsgTokenKeyring   = "Bot token loaded from keyring"
	MsgTokenStored    = "Bot token stored in keyring"
	MsgKeyringDown    = "Keyring unavailable, no stored token"
	MsgBotAuthorized  = "Authorized on Telegram"
	MsgBotPolling     = "Listening for bot commands"
	MsgBotStop        = "Stopping bot polling"
	MsgCommand        = "Command received"
	MsgCheckStarted   = "Reminder check started"
	MsgCheckFinished  = "Reminder check finished"
	MsgSkippedRecord  = "Skipping malformed birthday record"
	MsgSkippedRow     = "Skipping row without name"
	MsgSkippedCard    = "Skipping malformed vCard"
	MsgReminderDue    = "Reminder due today"
	MsgMessageSent    = "Reminder sent"
	MsgSchedulerStart = "Daily scheduler started"
	MsgSchedulerStop  = "Daily scheduler stopped"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Calendar cache updated"
	MsgCalRendered    = "Calendar rendered"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgSheetsFetched  = "Spreadsheet rows fetched"
	MsgVCardFetched   = "vCard records loaded"
	MsgFetchStart     = "Downloading record source"
	MsgFetchStatus    = "Record source returned error status"
	MsgFetchOK        = "Record source downloaded"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyListen    = "listen"
	LogKeySchedule  = "schedule"
	LogKeyTimezone  = "timezone"
	LogKeyRunID     = "run_id"
	LogKeyToday     = "today"
	LogKeyRow       = "row"
	LogKeyName      = "name"
	LogKeyValue     = "value"
	LogKeyOccursOn  = "occurs_on"
	LogKeyChatID    = "chat_id"
	LogKeyCommand   = "command"
	LogKeyUser      = "user"
	LogKeyTotal     = "records"
	LogKeyMalformed = "malformed"
	LogKeyDue       = "due"
	LogKeySent      = "sent"
	LogKeyFailed    = "failed"
	LogKeyRange     = "range"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyDuration  = "duration_ms"
	LogKeyNext      = "next_run"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyDate    = "date"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain      = "main"
	CompConfig    = "config"
	CompEngine    = "engine"
	CompSource    = "source"
	CompFetcher   = "fetcher"
	CompNotify    = "notify"
	CompBot       = "bot"
	CompWorker    = "worker"
	CompScheduler = "scheduler"
	CompServer    = "server"
	CompI18n      = "i18n"
)
