package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/carelinehq/careline/internal/observability/metrics"
	"github.com/carelinehq/careline/internal/tts"
)

// ManifestName is the manifest filename written alongside the audio files.
const ManifestName = "dataset_metadata.json"

// Sample is one manifest entry. Error is set when synthesis failed for this
// sample; the rest of the corpus is unaffected.
type Sample struct {
	Filename    string `json:"filename"`
	Text        string `json:"text"`
	Language    string `json:"language"`
	Intent      string `json:"intent"`
	SampleIndex int    `json:"sample_index"`
	Path        string `json:"path,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Metadata summarizes the corpus.
type Metadata struct {
	TotalSamples int      `json:"total_samples"`
	Failed       int      `json:"failed"`
	Languages    []string `json:"languages"`
	Intents      []string `json:"intents"`
}

// Manifest describes every sample in the generated corpus.
type Manifest struct {
	Metadata Metadata `json:"metadata"`
	Samples  []Sample `json:"samples"`
}

// Generator renders scheduled samples to audio files and writes the manifest.
type Generator struct {
	synth   tts.Synthesizer
	outDir  string
	metrics *metrics.Metrics // nil disables instrumentation
}

// NewGenerator creates a Generator writing into outDir.
func NewGenerator(synth tts.Synthesizer, outDir string, m *metrics.Metrics) *Generator {
	return &Generator{synth: synth, outDir: outDir, metrics: m}
}

// Generate synthesizes every planned sample and writes the audio files plus
// the manifest. A failed synthesis is recorded on its sample and generation
// continues: partial corpora are valid outputs. Only filesystem and manifest
// errors abort the run.
func (g *Generator) Generate(ctx context.Context, plan []PlannedSample) (*Manifest, error) {
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	manifest := &Manifest{
		Samples: make([]Sample, 0, len(plan)),
	}
	langSeen := map[string]bool{}
	intentSeen := map[string]bool{}

	for _, p := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sample := Sample{
			Filename:    p.Filename,
			Text:        p.Text,
			Language:    p.Language,
			Intent:      p.Intent,
			SampleIndex: p.SampleIndex,
		}

		res, err := g.synth.Synthesize(ctx, p.Text, tts.SynthesizeOpts{Language: p.Language})
		if err != nil {
			sample.Error = err.Error()
			manifest.Metadata.Failed++
			g.record("failed")
			slog.Error("synthesis failed, skipping sample", "filename", p.Filename, "error", err)
		} else {
			path := filepath.Join(g.outDir, p.Filename)
			if err := os.WriteFile(path, res.Audio, 0o644); err != nil {
				return nil, fmt.Errorf("writing %s: %w", path, err)
			}
			sample.Path = path
			g.record("ok")
			slog.Info("generated sample", "filename", p.Filename, "language", p.Language, "intent", p.Intent)
		}

		manifest.Samples = append(manifest.Samples, sample)
		manifest.Metadata.TotalSamples++
		if !langSeen[p.Language] {
			langSeen[p.Language] = true
			manifest.Metadata.Languages = append(manifest.Metadata.Languages, p.Language)
		}
		if !intentSeen[p.Intent] {
			intentSeen[p.Intent] = true
			manifest.Metadata.Intents = append(manifest.Metadata.Intents, p.Intent)
		}
	}

	if err := g.writeManifest(manifest); err != nil {
		return nil, err
	}

	slog.Info("dataset generation complete",
		"total", manifest.Metadata.TotalSamples,
		"failed", manifest.Metadata.Failed,
		"output_dir", g.outDir)
	return manifest, nil
}

func (g *Generator) writeManifest(m *Manifest) error {
	path := filepath.Join(g.outDir, ManifestName)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func (g *Generator) record(status string) {
	if g.metrics != nil {
		g.metrics.DatasetSamples.WithLabelValues(status).Inc()
	}
}
