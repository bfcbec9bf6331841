// Careline is a healthcare voice-agent daemon. It accepts audio recordings
// of spoken healthcare requests, transcribes them, detects the caller's
// language, classifies the request intent and generates a reply in the
// caller's language.
//
// Usage:
//
//	careline [flags]
//	careline --config /path/to/careline.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/carelinehq/careline/internal/config"
	"github.com/carelinehq/careline/internal/events"
	"github.com/carelinehq/careline/internal/health"
	"github.com/carelinehq/careline/internal/intent"
	"github.com/carelinehq/careline/internal/langdetect"
	"github.com/carelinehq/careline/internal/llm"
	locallm "github.com/carelinehq/careline/internal/llm/local"
	openaillm "github.com/carelinehq/careline/internal/llm/openai"
	"github.com/carelinehq/careline/internal/observability/metrics"
	"github.com/carelinehq/careline/internal/pipeline"
	"github.com/carelinehq/careline/internal/responder"
	"github.com/carelinehq/careline/internal/transcriber"
	googlestt "github.com/carelinehq/careline/internal/transcriber/google"
	localstt "github.com/carelinehq/careline/internal/transcriber/local"
	openaistt "github.com/carelinehq/careline/internal/transcriber/openai"
	"github.com/carelinehq/careline/internal/transport"
	grpctransport "github.com/carelinehq/careline/internal/transport/grpc"
	httptransport "github.com/carelinehq/careline/internal/transport/http"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/careline.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("careline %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("careline starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the speech-to-text backend.
	var stt transcriber.Transcriber
	switch cfg.STT.Backend {
	case "openai":
		stt = openaistt.New(cfg.STT.OpenAI, cfg.STT.Timeout)
		slog.Info("using OpenAI transcriber", "model", cfg.STT.OpenAI.Model)
	case "local":
		stt = localstt.New(cfg.STT.Local, cfg.STT.Timeout)
		slog.Info("using local transcriber", "endpoint", cfg.STT.Local.Endpoint)
	case "google":
		stt, err = googlestt.New(ctx, cfg.STT.Google)
		if err != nil {
			slog.Error("failed to create google transcriber", "error", err)
			os.Exit(1)
		}
		slog.Info("using Google transcriber", "language_code", cfg.STT.Google.LanguageCode)
	default:
		slog.Error("unknown STT backend", "backend", cfg.STT.Backend)
		os.Exit(1)
	}
	defer stt.Close()

	// Initialize the completion backend shared by classifier and responder.
	var completions llm.Client
	switch cfg.LLM.Backend {
	case "openai":
		completions = openaillm.New(cfg.LLM.OpenAI, cfg.LLM.Timeout)
		slog.Info("using OpenAI completions", "model", cfg.LLM.OpenAI.Model)
	case "local":
		completions = locallm.New(cfg.LLM.Local, cfg.LLM.Timeout)
		slog.Info("using local completions", "endpoint", cfg.LLM.Local.Endpoint)
	default:
		slog.Error("unknown LLM backend", "backend", cfg.LLM.Backend)
		os.Exit(1)
	}
	defer completions.Close()

	// Intent classifier: LLM-backed by default, offline rules on request.
	var classifier intent.Classifier
	switch cfg.LLM.Classifier {
	case "rules":
		classifier = intent.NewRules()
		slog.Info("using rules classifier")
	default:
		classifier = intent.NewLLM(completions, cfg.LLM.ClassifyTemperature, cfg.LLM.MaxTokens)
	}

	detector := langdetect.New(cfg.Language)
	respond := responder.New(completions, cfg.LLM.RespondTemperature, cfg.LLM.MaxTokens)

	publisher := events.New(cfg.Events, metrics.Default)
	defer publisher.Close()

	pipe := pipeline.New(stt, detector, classifier, respond, publisher, metrics.Default)

	// Initialize enabled transports.
	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if len(transports) == 0 {
		slog.Error("no transports enabled — enable at least one in config")
		os.Exit(1)
	}

	// Start health/metrics server.
	healthServer := health.New(cfg.Server.HealthPort)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, pipe.Process); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("careline ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("careline stopped")
}
