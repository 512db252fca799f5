package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tatianab/chronicle/internal/config"
	"github.com/tatianab/chronicle/internal/engine"
	"github.com/tatianab/chronicle/internal/game"
	"github.com/tatianab/chronicle/internal/sim"
)

// Plays a full game with Gemini on both sides: one model simulates history,
// another chooses the interventions.
func main() {
	ctx := context.Background()
	cfg, err := config.Load(config.New())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Mock {
		log.Fatalf("GEMINI_API_KEY must be set to simulate against Gemini")
	}

	// Initialize the Game Engine (the historian)
	eng, err := engine.NewEngine(ctx, engine.Options{
		APIKey:            cfg.GeminiAPIKey,
		Model:             cfg.Model,
		ImageModel:        cfg.ImageModel,
		RequestTimeout:    cfg.RequestTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer eng.Close()

	// Initialize the Player LLM
	playerClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create player client: %v", err)
	}
	defer playerClient.Close()
	player := sim.NewLLMPlayer(playerClient, "gemini-2.5-flash")

	store := game.New(eng, game.WithAdvanceDelay(0), game.WithFallbackDelay(0))

	fmt.Println("--- Playing Chronicle ---")
	transcript, err := sim.Play(ctx, store, player, os.Stdout)
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	fmt.Println("--- Result ---")
	sim.Report(os.Stdout, transcript)

	path, err := transcript.Save(cfg.TranscriptDir, "llm-vs-llm-"+time.Now().Format("20060102-150405"))
	if err != nil {
		log.Fatalf("Failed to save transcript: %v", err)
	}
	fmt.Printf("Transcript saved to %s\n", path)
}
