package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/Mariamochka1994/bday-bot/internal/config"
	"github.com/Mariamochka1994/bday-bot/internal/engine"
	"github.com/Mariamochka1994/bday-bot/internal/metrics"
	"github.com/Mariamochka1994/bday-bot/internal/notify"
	"github.com/Mariamochka1994/bday-bot/internal/server"
	"github.com/Mariamochka1994/bday-bot/internal/source"
	"github.com/Mariamochka1994/bday-bot/internal/worker"
)

// main only converts runMain's result into an exit code, so that deferred
// calls inside runMain still run.
func main() {
	os.Exit(runMain())
}

// runMain parses flags, configures logging and runs the bot until a signal arrives.
func runMain() int {
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	configPath := flag.String(config.FlagConfig, config.DefaultConfig, config.FlagDescConfig)
	once := flag.Bool(config.FlagOnce, false, config.FlagDescOnce)
	storeToken := flag.Bool(config.FlagStoreToken, false, config.FlagDescStore)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	setupLogging(*debugMode)

	if *storeToken {
		if err := config.StoreToken(config.KeyringStore{}, os.Stdin); err != nil {
			slog.Error(config.ErrAppFailed,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
			return config.ExitCodeError
		}
		return config.ExitCodeSuccess
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	if err := run(ctx, *configPath, *once); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run wires every component from the loaded settings. With once set it
// performs a single check; otherwise it serves until ctx is cancelled.
func run(ctx context.Context, configPath string, once bool) error {
	if err := config.LoadEnvFile(config.DefaultEnvFile); err != nil {
		return err
	}

	settings, err := config.Load(configPath, config.KeyringStore{})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewCollector(reg)

	msgs, err := notify.NewMessages(settings.Language)
	if err != nil {
		return err
	}

	src, err := source.New(ctx, settings.Source, source.NewHTTPFetcher())
	if err != nil {
		return err
	}

	api, err := notify.NewTelegramAPI(settings.BotToken)
	if err != nil {
		return err
	}

	checker := &worker.Checker{
		Source:   src,
		Notifier: notify.NewNotifier(api, settings.Recipients, msgs, rec),
		Clock:    engine.RealClock{},
		Location: settings.Location,
		Metrics:  rec,
		Summary:  msgs.Summary,
	}

	if once {
		return checker.Run(ctx)
	}

	g, ctx := errgroup.WithContext(ctx)

	if settings.HTTP.Listen != "" {
		srv := server.New(settings.HTTP.Listen, metrics.Handler(reg))
		checker.Publisher = srv
		g.Go(func() error { return srv.Start(ctx) })

		// The feed is otherwise empty until the first scheduled check.
		g.Go(initialRefresh(ctx, checker))
	}

	bot := &notify.Bot{
		API:         api,
		Messages:    msgs,
		IsRecipient: settings.IsRecipient,
		Upcoming:    checker.Upcoming,
		Limit:       config.DefaultUpcomingLimit,
		Metrics:     rec,
	}
	g.Go(func() error { return bot.Run(ctx) })

	scheduler := &worker.Scheduler{
		Schedule: settings.Schedule,
		Location: settings.Location,
		Job:      checker.Run,
	}
	g.Go(func() error { return scheduler.Run(ctx) })

	return g.Wait()
}

type refresher interface {
	Refresh(ctx context.Context) error
}

// initialRefresh returns an errgroup job that fills the feed once. A failure
// is only logged so the bot keeps running.
func initialRefresh(ctx context.Context, r refresher) func() error {
	return func() error {
		if err := r.Refresh(ctx); err != nil {
			slog.Warn(config.ErrCheckFailed,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
		}
		return nil
	}
}

func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyDate, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging installs a JSON handler on stdout as the default logger.
// The bot runs headless under a supervisor that collects stdout.
func setupLogging(debugMode bool) {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
}
