package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/llm"
	"docchat/internal/loader"
	"docchat/internal/logger"
	"docchat/internal/service"
	"docchat/internal/tui"
)

const appName = "Local Assistant"

func main() {
	_ = godotenv.Load()

	var (
		cfgPath = flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/docchat/config.yaml if not provided)")
		rebuild = flag.Bool("rebuild", false, "Force a full index rebuild before serving")
		oneShot = flag.String("query", "", "Answer a single question and exit instead of starting the chat")
		verbose = flag.Bool("verbose", false, "Enable verbose pipeline logging")
	)
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger.SetVerbose(cfg.Verbose || *verbose)

	// Assemble components
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "ollama":
		emb = embedding.NewOllamaClient(embedding.OllamaConfig{
			BaseURL: cfg.Embedder.BaseURL,
			Model:   cfg.Embedder.Model,
			Timeout: time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
		})
	case "openai":
		emb, err = embedding.NewOpenAIClient(embedding.OpenAIConfig{
			BaseURL:   cfg.Embedder.BaseURL,
			APIKeyEnv: cfg.Embedder.APIKeyEnv,
			Model:     cfg.Embedder.Model,
			Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
	}

	var gen llm.Generator
	switch cfg.LLM.Type {
	case "ollama":
		client := llm.NewOllamaClient(llm.OllamaConfig{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		})
		if err := client.Ping(context.Background()); err != nil {
			log.Fatalf("ollama server not reachable at %s: %v", cfg.LLM.BaseURL, err)
		}
		gen = client
	case "openai":
		gen, err = llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:   cfg.LLM.BaseURL,
			APIKeyEnv: cfg.LLM.APIKeyEnv,
			Model:     cfg.LLM.Model,
			Timeout:   time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai llm init failed: %v", err)
		}
	}

	ch, err := chunker.New(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		log.Fatalf("invalid chunker config: %v", err)
	}

	pipeline := service.New(service.Config{
		DocsDir:          cfg.DocsDir,
		IndexPath:        cfg.IndexPath,
		SystemPromptPath: cfg.SystemPromptPath,
		TopK:             cfg.Query.TopK,
		Batch: embedding.BatchOptions{
			BatchSize:  cfg.Embedder.BatchSize,
			MaxRetries: cfg.Embedder.MaxRetries,
		},
		Generation: llm.Options{
			MaxTokens:     cfg.LLM.NumPredict,
			Temperature:   cfg.LLM.Temperature,
			ContextWindow: cfg.LLM.NumCtx,
			RepeatPenalty: cfg.LLM.RepeatPenalty,
		},
	}, loader.Default(), ch, emb, gen)

	ctx := context.Background()
	if *rebuild {
		err = pipeline.Rebuild(ctx)
	} else {
		err = pipeline.BuildOrLoadIndex(ctx)
	}
	if err != nil {
		log.Fatalf("index build failed: %v", err)
	}

	if *oneShot != "" {
		answer, results, err := pipeline.Answer(ctx, *oneShot)
		if err != nil {
			if errors.Is(err, domain.ErrGenerationUnavailable) {
				fmt.Println("Could not generate a response.")
				for _, r := range results {
					fmt.Printf("  %s (score %.3f)\n", r.Chunk.DocumentPath, r.Score)
				}
				os.Exit(1)
			}
			log.Fatalf("query failed: %v", err)
		}
		fmt.Println(answer)
		return
	}

	if _, err := tea.NewProgram(tui.New(pipeline, appName), tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("chat interface failed: %v", err)
	}
}
