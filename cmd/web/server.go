package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wordrelay/internal/game"
	"wordrelay/internal/grammar"
	"wordrelay/internal/handlers"
)

//go:embed static/*
var embeddedStatic embed.FS

func setupLogging(cfg *Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if cfg.verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.logPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// settings turns the flags into the template every new game starts from.
func settings(cfg *Config) (game.Settings, error) {
	pool, err := game.LoadWords(cfg.wordsFile)
	if err != nil {
		return game.Settings{}, err
	}
	return game.Settings{
		Duration:     cfg.duration,
		Pool:         pool,
		Repeat:       cfg.wordRepeat,
		CheatPenalty: cfg.cheatPenalty,
		DiceMin:      cfg.diceMin,
		DiceMax:      cfg.diceMax,
		Checker:      grammar.NewFallback(cfg.grammarURL, cfg.grammarLanguage, cfg.grammarTimeout),
	}, nil
}

func newRouter(store handlers.GameStore, opts handlers.Options) (http.Handler, error) {
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handlers.RequestLogger)
	r.Use(middleware.Recoverer)

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return nil, err
	}
	r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))

	// The event stream outlives the request timeout.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		handlers.NewHomeHandler(store, opts).RegisterRoutes(r)
	})
	handlers.NewGameHandler(store, opts).RegisterRoutes(r)

	return r, nil
}

// sweep removes idle games until ctx is done.
func sweep(ctx context.Context, store *game.Store, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Sweep(maxAge, now.UTC()); n > 0 {
				log.Info().Int("removed", n).Int("live", store.Len()).Msg("swept idle games")
			}
		}
	}
}

func serve(ctx context.Context, cfg *Config) error {
	setupLogging(cfg)

	defaults, err := settings(cfg)
	if err != nil {
		return err
	}

	store := game.NewStore()
	router, err := newRouter(store, handlers.Options{Defaults: defaults, BaseURL: cfg.baseURL})
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweep(ctx, store, cfg.sweepInterval, cfg.sessionTimeout)

	server := &http.Server{
		Addr:              cfg.addr(),
		Handler:           router,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("version", releaseVersion).
			Str("grammar", cfg.grammarURL).
			Int("words", len(defaults.Pool)).
			Msg("listening")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
