package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/synecord/internal/config"
	"github.com/genricoloni/synecord/internal/discord"
	"github.com/genricoloni/synecord/internal/domain"
	"github.com/genricoloni/synecord/internal/engine"
	"github.com/genricoloni/synecord/internal/fetcher"
	"github.com/genricoloni/synecord/internal/monitor"
	"github.com/genricoloni/synecord/internal/presence"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cliOptions is what the command line contributes to the graph
type cliOptions struct {
	overrides   config.Overrides
	logLevel    string
	writeConfig bool
}

func main() {
	cli, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cli.writeConfig {
		path := cli.overrides.ConfigPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.WriteDefaultFile(path); err != nil {
			fmt.Fprintln(os.Stderr, "failed to write config:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", path)
		return
	}

	app := fx.New(AppOptions(cli))

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		panic(err)
	}

	<-ctx.Done()

	if err := app.Stop(context.Background()); err != nil {
		panic(err)
	}
}

// parseFlags fills Overrides only for flags that were actually given, so
// the config file and environment keep precedence over flag defaults.
func parseFlags(args []string) (cliOptions, error) {
	var cli cliOptions
	fs := flag.NewFlagSet("synecord", flag.ContinueOnError)

	fs.StringVarP(&cli.overrides.ConfigPath, "config", "c", "", "path to config.toml")
	fs.StringVar(&cli.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&cli.writeConfig, "write-config", false, "write a default config file and exit")
	appID := fs.String("app-id", "", "Discord application id")
	mode := fs.StringP("display-mode", "m", "", "what Discord shows in the member list: name, state or details")
	source := fs.StringP("source", "s", "", "player source: mpris or mpd")
	mpdAddr := fs.String("mpd-address", "", "MPD address: host:port, password@host:port or unix:/path")
	enabled := fs.Bool("enabled", true, "show presence on startup")
	showPaused := fs.Bool("show-when-paused", false, "keep the activity visible while paused")
	verify := fs.Bool("verify-covers", false, "check cover URLs before sending them to Discord")

	if err := fs.Parse(args); err != nil {
		return cli, err
	}

	strs := map[string]struct {
		val *string
		dst **string
	}{
		"app-id":       {appID, &cli.overrides.AppID},
		"display-mode": {mode, &cli.overrides.DisplayMode},
		"source":       {source, &cli.overrides.Source},
		"mpd-address":  {mpdAddr, &cli.overrides.MPDAddress},
	}
	for name, f := range strs {
		if fs.Changed(name) {
			*f.dst = f.val
		}
	}

	bools := map[string]struct {
		val *bool
		dst **bool
	}{
		"enabled":          {enabled, &cli.overrides.Enabled},
		"show-when-paused": {showPaused, &cli.overrides.ShowWhenPaused},
		"verify-covers":    {verify, &cli.overrides.VerifyCovers},
	}
	for name, f := range bools {
		if fs.Changed(name) {
			*f.dst = f.val
		}
	}

	return cli, nil
}

// AppOptions is the full dependency graph
func AppOptions(cli cliOptions) fx.Option {
	return fx.Options(
		fx.Supply(cli),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Provide(
			newLogger,
			newConfig,
			newMonitor,
			newConnector,
			newPresence,
			newCoverVerifier,
			engine.NewEngine,
		),
		fx.Invoke(registerHooks),
	)
}

// newLogger builds a production logger at the level from --log-level or
// SYNECORD_LOG_LEVEL, info by default.
func newLogger(cli cliOptions) (*zap.Logger, error) {
	level := cli.logLevel
	if level == "" {
		level = os.Getenv("SYNECORD_LOG_LEVEL")
	}

	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

func newConfig(logger *zap.Logger, cli cliOptions) (domain.Config, error) {
	return config.NewAppConfig(logger, cli.overrides)
}

func newMonitor(logger *zap.Logger, cfg domain.Config) domain.Monitor {
	if cfg.GetSource() == "mpd" {
		return monitor.NewMPDMonitor(logger, cfg.GetMPDAddress())
	}
	return monitor.NewMprisMonitor(logger)
}

func newConnector(logger *zap.Logger, cfg domain.Config) domain.Connector {
	if cfg.GetDiscordAppID() == "" {
		logger.Warn("No Discord application id configured, presence will stay offline")
		return presence.NopConnector{}
	}
	return discord.NewConnector(logger, cfg)
}

func newPresence(logger *zap.Logger, cfg domain.Config, connector domain.Connector) (domain.Presence, error) {
	return presence.Init(logger, connector,
		presence.WithAppName(cfg.GetAppName()),
		presence.WithListenBaseURL(cfg.GetListenBaseURL()))
}

func newCoverVerifier(logger *zap.Logger) domain.CoverVerifier {
	return fetcher.NewHTTPFetcher(logger)
}

// registerHooks ties the engine to the application lifecycle
func registerHooks(lc fx.Lifecycle, logger *zap.Logger, eng *engine.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Synecord daemon started")
			return eng.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			return eng.Stop(ctx)
		},
	})
}
