package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/tatianab/chronicle/internal/engine"
	"github.com/tatianab/chronicle/internal/sim"
)

var (
	// Version is injected via ldflags at build time
	Version = "dev"
	// Commit is injected via ldflags at build time
	Commit = "none"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chronicle version %s\n", Version)
			fmt.Printf("Commit: %s\n", Commit)
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [operation]",
		Short: "Print the JSON schema the generator must answer with",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contracts := engine.Contracts()
			var out any = contracts
			if len(args) == 1 {
				s, ok := contracts[args[0]]
				if !ok {
					names := make([]string, 0, len(contracts))
					for name := range contracts {
						names = append(names, name)
					}
					sort.Strings(names)
					return fmt.Errorf("unknown operation %q (have %v)", args[0], names)
				}
				out = s
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func (a *app) simulateCmd() *cobra.Command {
	var (
		city   string
		ideas  []string
		player string
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a whole game without the terminal UI",
		Long:  `Plays every epoch with a scripted or Gemini-driven player and prints the outcome. Useful for checking a model or prompt change end to end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.setupLogging(os.Stderr)
			ctx := cmd.Context()

			gw, eng, err := a.gateway(ctx)
			if err != nil {
				return err
			}
			if eng != nil {
				defer eng.Close()
			}

			var p sim.Player = sim.ScriptedPlayer{CityID: city, Ideas: ideas}
			if player == "gemini" {
				if a.cfg.Mock {
					return fmt.Errorf("the gemini player needs GEMINI_API_KEY")
				}
				client, err := genai.NewClient(ctx, option.WithAPIKey(a.cfg.GeminiAPIKey))
				if err != nil {
					return err
				}
				defer client.Close()
				p = sim.NewLLMPlayer(client, "gemini-2.5-flash")
			}

			out := cmd.OutOrStdout()
			t, err := sim.Play(ctx, a.newStore(gw), p, out)
			if err != nil {
				return err
			}
			sim.Report(out, t)

			if save {
				path, err := t.Save(a.cfg.TranscriptDir, "simulate-"+time.Now().Format("20060102-150405"))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Transcript: %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city id to play from (default: the brightest)")
	cmd.Flags().StringSliceVar(&ideas, "idea", []string{
		"Found an early trading post",
		"Invent an alphabet and teach it to merchants",
		"Establish a great library that shares knowledge freely",
		"Fund a space agency with the wealth of global trade",
	}, "intervention for the scripted player; repeat for each epoch")
	cmd.Flags().StringVar(&player, "player", "scripted", "scripted or gemini")
	cmd.Flags().BoolVar(&save, "save", true, "save a transcript when the game ends")
	return cmd
}
