package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/postbot/core/bootstrap"
	"github.com/m3rciful/postbot/core/buildinfo"
	corecmd "github.com/m3rciful/postbot/core/cmd"
	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/state"
	coretelegram "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/commands"
	"github.com/m3rciful/postbot/core/telegram/router"
	tgsender "github.com/m3rciful/postbot/core/telegram/sender"
	"github.com/m3rciful/postbot/internal/conversation"
	"github.com/m3rciful/postbot/internal/fanout"
	"github.com/m3rciful/postbot/internal/journal"
	"github.com/m3rciful/postbot/internal/post"
)

// App holds the wired bot between bootstrap and shutdown.
type App struct {
	cfg        *Config
	configPath string
	infra      *bootstrap.Result

	routing *fanout.LiveRouting
	photos  *TelegramSender
	pool    *tgsender.Dispatcher
	machine *conversation.Machine

	stopWatch context.CancelFunc
}

// Run is the process entry point: it loads the config named by CONFIG_PATH
// (default path when unset) and runs the bot until interrupted.
func Run(defaultConfigPath string) error {
	return corecmd.Run(corecmd.Options{
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return LoadConfig(path)
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier, path string) (corecmd.TelegramApp, error) {
			c, ok := cfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("app: unexpected config type %T", cfg)
			}
			return Bootstrap(ctx, c, path)
		},
	})
}

// Bootstrap initialises logging and the optional journal database, then wires
// the conversation machine to the fan-out dispatcher.
func Bootstrap(ctx context.Context, cfg *Config, configPath string) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	routing, err := cfg.Routing.Build()
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		configPath: configPath,
		infra:      infra,
		routing:    fanout.NewLiveRouting(routing),
		photos:     &TelegramSender{},
		pool: tgsender.NewDispatcher(tgsender.Options{
			Workers:   cfg.Sender.Workers,
			QueueSize: cfg.Sender.QueueSize,
		}),
	}

	opts := []fanout.Option{fanout.WithRunner(a.pool)}
	if infra.DB != nil {
		opts = append(opts, fanout.WithRecorder(journal.NewPostgres(infra.DB)))
	}
	dispatcher := fanout.New(a.photos, a.routing, opts...)
	a.machine = conversation.NewMachine(state.NewMemory[post.Submission](), dispatcher)

	logger.Info(ctx, "app", "bootstrap",
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
		slog.Int("routes", len(routing.Routes)),
		slog.Int("fixed", len(routing.Fixed)),
		slog.Bool("journal", infra.DB != nil),
		slog.Bool("watch", cfg.Routing.Watch),
	)
	return a, nil
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	h := &handlers{machine: a.machine}

	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: h.start, Description: "Start the bot"})
	if err := reg.RegisterCallback(cbGetStarted, h.getStarted); err != nil {
		return coretelegram.RunOptions{}, err
	}
	if err := reg.RegisterCallback(cbCategory, guard(h.category)); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.MessageRoutes(reg, router.MessageOptions{
		Text:      guard(h.text),
		Captioned: guard(h.caption),
		Photo:     guard(h.photo),
	})...)

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Dispatcher:  a.pool,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.photos.Bind(rt.Bot)
	if a.cfg.Routing.Watch && a.configPath != "" {
		wctx, cancel := context.WithCancel(ctx)
		a.stopWatch = cancel
		w := newRoutingWatcher(a.configPath, a.routing)
		go func() {
			if err := w.Run(wctx); err != nil {
				logger.Warn(wctx, "app", "routing.watch", slog.String("err", err.Error()))
			}
		}()
	}
	return nil
}

func (a *App) onStop(context.Context, coretelegram.Runtime) error {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	return nil
}

// Close releases the journal database.
func (a *App) Close() error {
	return a.infra.Close()
}
