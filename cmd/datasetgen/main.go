// Datasetgen generates the labeled synthetic audio corpus used to evaluate
// the careline pipeline: one audio file per (scenario, language, sample)
// combination plus a JSON manifest with the ground-truth labels.
//
// Usage:
//
//	datasetgen [flags]
//	datasetgen --out test_data --samples 5 --langs en,es
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/carelinehq/careline/internal/config"
	"github.com/carelinehq/careline/internal/dataset"
	"github.com/carelinehq/careline/internal/observability/metrics"
	"github.com/carelinehq/careline/internal/tts/piper"
)

func main() {
	configFile := flag.String("config", "", "path to config file (e.g. configs/careline.yaml)")
	outDir := flag.String("out", "", "output directory (default from config)")
	samples := flag.Int("samples", 0, "samples per (scenario, language) pair (default from config)")
	langs := flag.String("langs", "", "comma-separated ISO-639-1 codes (default from config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	config.SetupLogging(cfg.Logging)

	if *outDir == "" {
		*outDir = cfg.Dataset.OutputDir
	}
	if *samples == 0 {
		*samples = cfg.Dataset.SamplesPerCombo
	}
	languages := cfg.Dataset.Languages
	if *langs != "" {
		languages = strings.Split(*langs, ",")
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	synth := piper.New(cfg.TTS.Piper)
	defer synth.Close()

	plan := dataset.Schedule(dataset.Scenarios, languages, *samples)
	slog.Info("corpus scheduled", "samples", len(plan), "languages", languages)

	gen := dataset.NewGenerator(synth, *outDir, metrics.Default)
	manifest, err := gen.Generate(ctx, plan)
	if err != nil {
		slog.Error("dataset generation failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Dataset generated: %d samples (%d failed) in %s\n",
		manifest.Metadata.TotalSamples, manifest.Metadata.Failed, *outDir)
}
