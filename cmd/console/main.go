package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-admin-console/auth"
	"github.com/jrsteele09/go-admin-console/guard"
	"github.com/jrsteele09/go-admin-console/internal/config"
	"github.com/jrsteele09/go-admin-console/server"
	"github.com/jrsteele09/go-admin-console/sessions"
	"github.com/jrsteele09/go-admin-console/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running console")
	}
	log.Info().Msg("Console stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	handler, g, err := wire(c)
	if err != nil {
		return err
	}
	defer g.Close()

	srv := &http.Server{Addr: c.GetPort(), Handler: handler}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(srv) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

// wire builds the console: one session store, the auth client as the guard's
// refresher, and a user directory whose HTTP client goes through the guard.
func wire(c config.Config) (http.Handler, *guard.Guard, error) {
	apiHTTP := &http.Client{Timeout: c.GetAPITimeout()}

	client, err := auth.NewClient(c.GetAPIBaseURL(), auth.WithHTTPClient(apiHTTP))
	if err != nil {
		return nil, nil, fmt.Errorf("auth.NewClient: %w", err)
	}

	store := sessions.NewStore()
	g := guard.New(store, client,
		guard.WithRefreshTimeout(c.GetRefreshTimeout()),
		guard.WithExpiryCheck(time.Now, c.GetTokenExpiryLeeway()),
	)

	directory := users.NewDirectory(c.GetAPIBaseURL(), &http.Client{
		Timeout:   c.GetAPITimeout(),
		Transport: g.Transport(http.DefaultTransport),
	})

	s, err := server.New(c, client, store, g, directory)
	if err != nil {
		g.Close()
		return nil, nil, fmt.Errorf("server.New: %w", err)
	}
	return s, g, nil
}

func setupLogging(env string) {
	if env == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Console listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
