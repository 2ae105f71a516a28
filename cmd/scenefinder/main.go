package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	cli "github.com/urfave/cli/v3"

	"scenefinder/internal/config"
	"scenefinder/internal/extractor"
	"scenefinder/internal/output"
	"scenefinder/internal/pipeline"
	"scenefinder/internal/selector"
)

func main() {
	app := &cli.Command{
		Name:  "scenefinder",
		Usage: "Find still frames in a video that match a natural-language scene description",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "video",
				Aliases:  []string{"i"},
				Usage:    "Path to the source video file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "prompt",
				Aliases:  []string{"p"},
				Usage:    "Scene description to search for",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory where frames and results will be written",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Selector backend (gemini or ollama)",
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if backend := cmd.String("backend"); backend != "" {
		cfg.SelectorBackend = backend
	}
	if out := cmd.String("output"); out != "" {
		cfg.OutputDir = out
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Configure logger
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel(cfg.LogLevel),
			TimeFormat: "15:04:05",
		}),
	)

	videoPath := cmd.String("video")
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file does not exist at path: '%s'", videoPath)
	}

	prompt := strings.TrimSpace(cmd.String("prompt"))
	if prompt == "" {
		return fmt.Errorf("prompt must not be empty")
	}

	runDir := filepath.Join(cfg.OutputDir, uuid.NewString())
	framesDir := filepath.Join(runDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return fmt.Errorf("failed to create frames directory '%s': %v", framesDir, err)
	}

	sel, err := newSelector(ctx, cfg, logger)
	if err != nil {
		return err
	}

	sampler := extractor.NewSampler(cfg.JPEGQuality, logger, func(captured, total int) {
		logger.Info("captured frame", "done", captured, "total", total)
	})

	logger.Info("starting scene search",
		"video", videoPath,
		"prompt", prompt,
		"backend", cfg.SelectorBackend,
	)

	records, err := pipeline.New(sampler, sel, logger).Run(ctx, videoPath, framesDir, prompt)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		logger.Info("no matching scenes", "prompt", prompt)
		fmt.Println("No matching scenes found.")
		return nil
	}

	writer := output.NewWriter(runDir)
	if err := writer.WriteResults(records); err != nil {
		return err
	}

	for _, rec := range records {
		fmt.Printf("scene_%d.jpg (frame %d, t=%.0fs): %s\n", rec.Scene, rec.Frame.Index, rec.Frame.TimestampSec, rec.Reason)
	}
	fmt.Printf("Saved %d scene(s) to %s\n", len(records), runDir)
	return nil
}

func newSelector(ctx context.Context, cfg *config.Config, logger *slog.Logger) (selector.Selector, error) {
	switch cfg.SelectorBackend {
	case config.BackendOllama:
		return selector.NewOllamaSelector(ctx, cfg.OllamaBaseURL, cfg.OllamaPort, cfg.OllamaModel, logger)
	default:
		return selector.NewGeminiSelector(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	}
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
