// Package app provides the paperqa API server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"
	"github.com/spf13/viper"

	"github.com/kart-io/paperqa/cmd/paperqa-apiserver/app/options"
	"github.com/kart-io/paperqa/internal/paperqa"
	"github.com/kart-io/paperqa/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `paperqa API server

Answers questions about research articles with an agentic retrieval workflow:
the article's own chunks are searched first, then arXiv, then the web, and
every retrieved passage is graded before it is used as evidence.

Answers are stored as research notes that reviewers can accept; accepted
notes are indexed for later retrieval and can be exported as markdown.`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		app.WithName(paperqa.Name),
		app.WithShortDescription("Research paper question answering API"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
		app.WithConfigChange(reloadLogLevel(opts)),
	)
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		return server.Run(ctx)
	}
}

// reloadLogLevel rebuilds the global logger when log.level changes in the
// config file. Other settings need a restart.
func reloadLogLevel(opts *options.ServerOptions) func(v *viper.Viper) {
	return func(v *viper.Viper) {
		level := v.GetString("log.level")
		if level == "" || level == opts.LogOptions.Level {
			return
		}
		old := opts.LogOptions.Level
		opts.LogOptions.Level = level
		if err := opts.LogOptions.Init(); err != nil {
			opts.LogOptions.Level = old
			logger.Warnw("failed to apply new log level", "level", level, "error", err.Error())
			return
		}
		logger.Infow("log level changed", "from", old, "to", level)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
