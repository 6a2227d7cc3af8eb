package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/five82/dials/internal/config"
	"github.com/five82/dials/internal/fakeapi"
	"github.com/five82/dials/internal/logging"
	"github.com/five82/dials/internal/notify"
	"github.com/five82/dials/internal/panel"
	"github.com/five82/dials/internal/prefs"
	"github.com/five82/dials/internal/sections"
	"github.com/five82/dials/internal/service"
	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
	"github.com/five82/dials/internal/state"
	"github.com/five82/dials/internal/ui"
)

const (
	demoAddr     = "127.0.0.1:0"
	demoLatency  = 250 * time.Millisecond
	probeTimeout = 3 * time.Second
	appName      = "dials"
)

// Options configure a dials run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/dials/prefs.toml
	Section    string // initial section; empty resumes the last one
	Demo       bool   // talk to an in-process backend instead of api_base
	Serve      string // listen address; run only the in-memory backend
	Stderr     io.Writer
}

// Run boots dials until the UI exits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var mirror io.Writer
	if opts.Serve != "" {
		// Headless: nothing else owns the terminal.
		mirror = opts.Stderr
		if mirror == nil {
			mirror = os.Stderr
		}
	}
	logs := logging.NewManager()
	if err := logs.Configure(cfg.LogLevel, cfg.LogFile, mirror); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() { _ = logs.Close() }()
	logger := logs.Logger("app")

	registry := sections.NewRegistry(nil)

	if opts.Serve != "" {
		return serve(ctx, registry, opts.Serve, logs.Logger("fakeapi"))
	}

	apiBase := cfg.APIBase
	if opts.Demo {
		backend := newBackend(registry, logs.Logger("fakeapi"), fakeapi.WithLatency(demoLatency))
		addr, err := backend.Start(ctx, demoAddr)
		if err != nil {
			return fmt.Errorf("start demo backend: %w", err)
		}
		defer backend.Close()
		apiBase = addr
	}

	client, err := settingsapi.NewClient(apiBase,
		settingsapi.WithToken(cfg.APIToken),
		settingsapi.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return fmt.Errorf("init settings client: %w", err)
	}

	var centerOpts []notify.CenterOption
	if cfg.DesktopNotifications {
		centerOpts = append(centerOpts, notify.WithDesktop(notify.BeeepSender{AppName: appName}, false))
	}
	center := notify.NewCenter(logs.Logger("notify"), centerOpts...)
	defer center.Close()

	cache := &state.Store{}
	fetcher := service.NewFetchService(client, cache, logs.Logger("fetch"))
	// Writes queued before exit still drain on Close.
	updater := service.NewUpdateService(context.WithoutCancel(ctx), client, cache, center, logs.Logger("update"))
	defer updater.Close()
	regions := service.NewRegionService(client, logs.Logger("regions"))

	listener := NewListener(client, fetcher, logs.Logger("events"))
	go listener.Run(ctx)

	probeSections(ctx, fetcher, registry, logger)

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	section := setting.SectionPath(opts.Section)
	if section == "" {
		section = setting.SectionPath(userPrefs.LastSection)
	}
	if section != "" && registry.Index(section) < 0 {
		logger.Warn("unknown section requested", "section", section)
		section = ""
	}

	logger.Info("starting ui", "api_base", client.BaseURL(), "demo", opts.Demo, "section", section)
	return ui.Run(ui.Options{
		Context:  ctx,
		Registry: registry,
		Deps: panel.Deps{
			Fetcher:  fetcher,
			Updater:  updater,
			Notifier: center,
			Logger:   logs.Logger("panel"),
		},
		PanelOptions: []panel.Option{
			panel.WithRetryPolicy(panel.RetryPolicy{MaxRetries: cfg.MaxRetries, Delay: cfg.RetryDelay}),
			panel.WithMaxParallel(cfg.MaxParallel),
		},
		Regions:    regions,
		Toasts:     center,
		Live:       listener.Connected,
		CacheStats: cache.Snapshot,
		APIBase:    client.BaseURL(),
		ThemeName:  userPrefs.Theme,
		PrefsPath:  opts.PrefsPath,
		LogFile:    cfg.LogFile,
		Section:    section,
		Logger:     logs.Logger("ui"),
	})
}

// serve runs the in-memory backend alone until ctx is cancelled.
func serve(ctx context.Context, registry *sections.Registry, addr string, logger *slog.Logger) error {
	backend := newBackend(registry, logger)
	bound, err := backend.Start(ctx, addr)
	if err != nil {
		return fmt.Errorf("start backend: %w", err)
	}
	logger.Info("serving settings backend", "address", bound, "sections", len(registry.Sections()))
	<-ctx.Done()
	return nil
}

// newBackend seeds an in-memory backend with the factory values of every
// registered section.
func newBackend(registry *sections.Registry, logger *slog.Logger, opts ...fakeapi.Option) *fakeapi.Server {
	seed := make([]fakeapi.Section, 0, len(registry.Sections()))
	for _, path := range registry.Sections() {
		seed = append(seed, fakeapi.Section{Path: path, Settings: sections.Defaults(path)})
	}
	opts = append(opts, fakeapi.WithRegions("North", "South"), fakeapi.WithLogger(logger))
	return fakeapi.New(seed, opts...)
}

// probeSections compares the backend's sections with the registry. A
// failure is logged only; the panels report their own load errors.
func probeSections(ctx context.Context, fetcher *service.FetchService, registry *sections.Registry, logger *slog.Logger) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	remote, err := fetcher.ListSections(probeCtx)
	if err != nil {
		logger.Warn("settings api unreachable", "error", err)
		return
	}
	for _, path := range registry.Sections() {
		if !slices.Contains(remote, path) {
			logger.Warn("section missing on backend", "section", path)
		}
	}
}
