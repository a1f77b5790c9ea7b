package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/lepinkainen/coce/internal/config"
	"github.com/lepinkainen/coce/internal/server"
)

// ServeCmd represents the serve command
type ServeCmd struct {
	Port int `short:"p" help:"Port to listen on (overrides config)"`
}

func (s *ServeCmd) Run(cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(a.fetcher, s.options(cfg, a)).Start(ctx)
}

func (s *ServeCmd) options(cfg *config.Config, a *app) server.Options {
	opts := server.Options{
		Port:      cfg.Port,
		Providers: cfg.Providers,
		Timeout:   cfg.Timeout,
	}
	if s.Port != 0 {
		opts.Port = s.Port
	}
	if a.mirrors {
		opts.MirrorDir = cfg.Cache.Path
	}
	return opts
}
