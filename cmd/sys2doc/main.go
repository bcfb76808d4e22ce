package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/menta2k/sys2doc"
	"github.com/menta2k/sys2doc/internal/config"
	"github.com/menta2k/sys2doc/internal/logging"
	"github.com/menta2k/sys2doc/internal/sl"
	"github.com/menta2k/sys2doc/pkg/describe"
	"github.com/menta2k/sys2doc/pkg/intake"
	"github.com/menta2k/sys2doc/pkg/web"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logging.New(conf.Env)
	log.With(
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("backend", conf.Backend),
		slog.String("version", sys2doc.Version),
	).Info("starting sys2doc")
	if conf.Backend == config.BackendGemini {
		log.Debug("gemini credentials", sl.Secret(conf.Gemini.APIKey))
	}

	factory, err := sys2doc.NewFactory(conf, http.DefaultClient)
	if err != nil {
		log.Error("creating model factory", sl.Err(err))
		os.Exit(1)
	}

	svc := describe.NewService(factory, sys2doc.ServiceOptions(conf), log)
	gen := sys2doc.New(intake.NewWithConfig(sys2doc.IntakeConfig(conf), log), svc, sys2doc.PageOptions(conf), log)

	srv := web.NewServer(gen, conf.Listen, web.Options{
		MaxUploadBytes: conf.Intake.MaxBytes,
		ThumbnailWidth: conf.Page.ThumbnailWidth,
		Accept:         conf.Intake.SupportedFormats,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", sl.Err(err))
	}

	if err := svc.Close(); err != nil {
		log.Error("closing model handle", sl.Err(err))
	}

	log.Info("shutdown complete")
}
