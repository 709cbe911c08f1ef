package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/five82/logdeck/internal/config"
	"github.com/five82/logdeck/internal/prefs"
	"github.com/five82/logdeck/internal/reportapi"
	"github.com/five82/logdeck/internal/state"
	"github.com/five82/logdeck/internal/ui"
)

// Options configure logdeck. Zero values defer to the config file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/logdeck/prefs.toml
	PollEvery  int    // seconds; zero uses config
	APIURL     string // overrides api_url
	Debug      bool
}

// Env is the resolved runtime shared by the TUI and the headless commands.
type Env struct {
	Config config.Config
	Client *reportapi.Client
	Logger *slog.Logger
	closer io.Closer
}

// Close releases the log file.
func (e *Env) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// Setup loads configuration, applies flag overrides, starts logging and
// builds the API client.
func Setup(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if u := strings.TrimSpace(opts.APIURL); u != "" {
		cfg.APIURL = u
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	logger, closer, err := SetupLogging(cfg.LogFile, opts.Debug)
	if err != nil {
		// Logging is best effort; the discard logger is already installed.
		logger.Debug("log file unavailable", "err", err)
	}

	client, err := reportapi.NewClient(cfg.APIURL, reportapi.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init report client: %w", err)
	}
	logger.Info("logdeck starting", "api", client.BaseURL(), "poll", cfg.PollInterval)

	return &Env{Config: cfg, Client: client, Logger: logger, closer: closer}, nil
}

// Run boots the logdeck TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	store := &state.Store{}
	store.Seed(env.Config.Servers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	pollerDone := StartPoller(ctx, store, env.Client, env.Config.CatalogInterval)

	err = ui.Run(ui.Options{
		Context:      ctx,
		Client:       env.Client,
		Store:        store,
		PollInterval: env.Config.PollInterval,
		ThemeName:    userPrefs.Theme,
		LastServer:   userPrefs.LastServer,
		PrefsPath:    opts.PrefsPath,
		APIURL:       env.Client.BaseURL(),
	})
	cancel()
	<-pollerDone
	return err
}
