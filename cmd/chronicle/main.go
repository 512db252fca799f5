package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tatianab/chronicle/internal/config"
	"github.com/tatianab/chronicle/internal/engine"
	"github.com/tatianab/chronicle/internal/epoch"
	"github.com/tatianab/chronicle/internal/game"
	"github.com/tatianab/chronicle/internal/mockdata"
	"github.com/tatianab/chronicle/internal/tui"
)

type app struct {
	v   *viper.Viper
	cfg *config.Config
}

func main() {
	a := &app{v: config.New()}
	if err := a.rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chronicle",
		Short:         "Rewrite ten thousand years of history, one change at a time",
		Long:          `Chronicle is an alternate-history game. Pick a settlement in 10,000 BC, change one thing per epoch, and see whether your civilization reaches the stars by 4000 AD.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		RunE: a.play,
	}

	flags := root.PersistentFlags()
	flags.Bool("mock", false, "play with offline data instead of Gemini")
	flags.String("model", engine.DefaultModel, "Gemini model used for simulation")
	flags.Duration("request-timeout", 0, "bound on each generator call (0 keeps the configured value)")
	flags.String("transcript-dir", "", "where finished games are saved")
	flags.String("log-level", "", "debug, info, warn or error")
	for key, name := range map[string]string{
		"mock":            "mock",
		"model":           "model",
		"request_timeout": "request-timeout",
		"transcript_dir":  "transcript-dir",
		"log_level":       "log-level",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}
	root.Flags().Bool("generate-world", false, "ask the generator for the opening world")
	_ = a.v.BindPFlag("generate_world", root.Flags().Lookup("generate-world"))

	root.AddCommand(a.simulateCmd(), versionCmd(), schemaCmd())
	return root
}

// setupLogging routes slog to w at the configured level.
func (a *app) setupLogging(w io.Writer) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: a.cfg.LogLevel})))
}

// gateway returns the generator to play against and, when it is live, the
// engine behind it.
func (a *app) gateway(ctx context.Context) (game.Gateway, *engine.Engine, error) {
	if a.cfg.Mock {
		return mockdata.Gateway{}, nil, nil
	}
	eng, err := engine.NewEngine(ctx, engine.Options{
		APIKey:            a.cfg.GeminiAPIKey,
		Model:             a.cfg.Model,
		ImageModel:        a.cfg.ImageModel,
		RequestsPerMinute: a.cfg.RequestsPerMinute,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create engine: %w", err)
	}
	return eng, eng, nil
}

func (a *app) newStore(gw game.Gateway) *game.Store {
	return game.New(gw,
		game.WithAdvanceDelay(a.cfg.AdvanceDelay),
		game.WithFallbackDelay(a.cfg.FallbackDelay),
		game.WithRequestTimeout(a.cfg.RequestTimeout),
		game.WithLogger(slog.Default()),
	)
}

func (a *app) play(cmd *cobra.Command, args []string) error {
	logFile, err := os.OpenFile("chronicle.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	a.setupLogging(logFile)

	ctx := cmd.Context()
	gw, eng, err := a.gateway(ctx)
	if err != nil {
		return err
	}
	opts := tui.Options{TranscriptDir: a.cfg.TranscriptDir}
	if eng != nil {
		defer eng.Close()
		opts.Regions = eng
	}

	store := a.newStore(gw)
	if err := store.InitWorld(epoch.First); err != nil {
		return err
	}
	if eng != nil && a.cfg.GenerateWorld {
		go func() {
			start := epoch.MustLookup(epoch.First)
			w, err := eng.GenerateWorld(ctx, start.Number, start.StartYear)
			if err != nil {
				slog.Warn("world generation failed, keeping the canned world", "err", err)
				return
			}
			if err := store.AdoptWorld(*w); err != nil {
				slog.Info("generated world arrived too late", "err", err)
			}
		}()
	}

	slog.Info("starting game", "mock", a.cfg.Mock, "model", a.cfg.Model)
	return tui.Run(store, opts)
}
