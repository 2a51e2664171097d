// Package internal wires configuration, storage and the entry service
// into a runnable application.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/entryservice"
	"github.com/starford/ansuz/internal/gitsync"
	"github.com/starford/ansuz/internal/idgen"
	"github.com/starford/ansuz/internal/layout"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/scaffold"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/watch"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

// App bundles the collaborators every command works through.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Store   storage.Provider
	Layout  *layout.Layout
	Service *entryservice.Service

	root       string
	configPath string          // discovered config file, empty when none
	sync       *gitsync.Syncer // nil when git is disabled
}

// NewApp discovers and loads the configuration, then wires storage,
// layout and the entry service on top of it.
func NewApp(opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dir := o.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		dir = wd
	}

	cfg := o.config
	configPath := ""
	if cfg == nil {
		var err error
		configPath, err = DiscoverConfig(o.configPath, dir)
		if err != nil {
			return nil, err
		}
		cfg = NewDefaultConfig()
		if configPath != "" {
			if err := pkgconfig.Load(configPath, cfg); err != nil {
				return nil, err
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	root, err := ResolveRoot(cfg, configPath, dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create repository root: %w", err)
	}

	store, err := storage.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	lay := layout.New(cfg.Repository.ActiveDir, cfg.Repository.KnowledgeBaseDir, cfg.Repository.ArchiveDir)

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Layout:     lay,
		root:       store.Root(),
		configPath: configPath,
	}

	svcOpts := []entryservice.Option{
		entryservice.WithLogger(logger),
		entryservice.WithTemplates(templateMap(cfg)),
		entryservice.WithStaleDays(cfg.Repository.StaleDays),
	}
	if cfg.Git.Enabled {
		app.sync = gitsync.New(app.root, models.Author{
			Name:  cfg.Git.AuthorName,
			Email: cfg.Git.AuthorEmail,
		})
		svcOpts = append(svcOpts, entryservice.WithAuthor(app.sync.Author()))
		if cfg.Git.CommitsOnMutation() {
			svcOpts = append(svcOpts, entryservice.WithGitSync(app.sync))
		}
	}
	app.Service = entryservice.NewService(store, lay,
		idgen.New(cfg.Repository.DateFormat), render.New(store), svcOpts...)

	logger.Debug("application wired",
		slog.String("root", app.root),
		slog.String("config", configPath),
		slog.Bool("git", cfg.Git.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return app, nil
}

// Root returns the absolute repository root.
func (a *App) Root() string { return a.root }

// InitRepository scaffolds the class directories, the default templates
// and, when no configuration file was discovered, a seed ansuz.yaml at
// the root. With git enabled it also initializes the repository.
func (a *App) InitRepository() error {
	configFile := ""
	if a.configPath == "" {
		configFile = ConfigFileName
	}
	written, err := scaffold.Run(scaffold.Options{
		Root:       a.root,
		Layout:     a.Layout,
		ConfigFile: configFile,
		InitGit:    a.Config.Git.Enabled,
	})
	if err != nil {
		return err
	}
	for _, p := range written {
		a.Logger.Info("init: created", slog.String("path", p))
	}
	a.Logger.Info("repository initialized", slog.String("root", a.root))
	return nil
}

// Watch observes the repository for out-of-band edits until the context
// is cancelled or a shutdown signal arrives. Findings go to the log.
func (a *App) Watch(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := watch.New(a.Store, a.Layout, a.Logger)

	g, gCtx := errgroup.WithContext(watchCtx)
	g.Go(func() error {
		return w.Run(gCtx, nil)
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.Logger.Info("received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})
	return g.Wait()
}

// ServeMCP serves the read-only MCP tools on stdin/stdout until the
// client disconnects.
func (a *App) ServeMCP() error {
	a.Logger.Info("mcp: serving on stdio", slog.String("root", a.root))
	return mcpserver.New(a.Service).ServeStdio()
}

func templateMap(cfg *Config) map[models.Kind]string {
	tpls := make(map[models.Kind]string, len(models.Kinds))
	for _, k := range models.Kinds {
		tpls[k] = cfg.Templates.ForKind(k)
	}
	return tpls
}
