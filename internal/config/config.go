// Package config handles loading and validating the careline configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the careline daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	STT        STTConfig        `mapstructure:"stt"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Language   LanguageConfig   `mapstructure:"language"`
	TTS        TTSConfig        `mapstructure:"tts"`
	Events     EventsConfig     `mapstructure:"events"`
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health/metrics server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// STTConfig selects and configures the speech-to-text backend.
type STTConfig struct {
	Backend string        `mapstructure:"backend"` // "openai", "local" or "google"
	Timeout time.Duration `mapstructure:"timeout"`
	OpenAI  OpenAISTT     `mapstructure:"openai"`
	Local   LocalSTT      `mapstructure:"local"`
	Google  GoogleSTT     `mapstructure:"google"`
}

// OpenAISTT holds OpenAI transcription API settings.
type OpenAISTT struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// LocalSTT holds settings for a self-hosted Whisper-compatible endpoint
// (whisper.cpp server, faster-whisper).
type LocalSTT struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// GoogleSTT holds Google Cloud Speech-to-Text settings. Credentials come
// from GOOGLE_APPLICATION_CREDENTIALS as usual.
type GoogleSTT struct {
	LanguageCode string `mapstructure:"language_code"` // recognition hint, e.g. "en-US"
	SampleRateHz int    `mapstructure:"sample_rate_hz"`
}

// LLMConfig selects and configures the text-completion backend shared by the
// intent classifier and the responder.
type LLMConfig struct {
	Backend string        `mapstructure:"backend"` // "openai" or "local"
	Timeout time.Duration `mapstructure:"timeout"`
	OpenAI  OpenAILLM     `mapstructure:"openai"`
	Local   LocalLLM      `mapstructure:"local"`

	// Classifier selects the intent classifier: "llm" (default) or "rules"
	// (offline keyword matching, no external calls).
	Classifier string `mapstructure:"classifier"`

	// ClassifyTemperature and RespondTemperature tune determinism per use.
	ClassifyTemperature float64 `mapstructure:"classify_temperature"`
	RespondTemperature  float64 `mapstructure:"respond_temperature"`

	// MaxTokens bounds completion length (0 = provider default).
	MaxTokens int `mapstructure:"max_tokens"`
}

// OpenAILLM holds OpenAI Chat Completions settings.
type OpenAILLM struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// LocalLLM holds self-hosted completion settings (Ollama-compatible).
type LocalLLM struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// LanguageConfig tunes transcript language detection.
type LanguageConfig struct {
	// Fallback is the ISO-639-1 code returned when detection is
	// inconclusive (default "en").
	Fallback string `mapstructure:"fallback"`

	// Supported lists the ISO-639-1 codes the detector chooses between.
	Supported []string `mapstructure:"supported"`

	// MinChars is the minimum transcript length before detection is
	// trusted; shorter texts get the fallback code.
	MinChars int `mapstructure:"min_chars"`

	// MinConfidence is the minimum detection confidence (0-1) before the
	// detected code is trusted over the fallback.
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// TTSConfig selects and configures the text-to-speech backend used by the
// dataset generator.
type TTSConfig struct {
	Backend string      `mapstructure:"backend"` // "piper"
	Piper   PiperConfig `mapstructure:"piper"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// For per-language instances, set Endpoints which maps ISO-639-1 codes to
// individual Wyoming TCP endpoints. Endpoints takes precedence and Endpoint
// is the fallback.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`
	Endpoints map[string]string `mapstructure:"endpoints"`
	Voices    map[string]string `mapstructure:"voices"`
}

// EventsConfig configures the optional Kafka result publisher.
type EventsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// DatasetConfig holds dataset generator defaults.
type DatasetConfig struct {
	OutputDir       string   `mapstructure:"output_dir"`
	SamplesPerCombo int      `mapstructure:"samples_per_combo"`
	Languages       []string `mapstructure:"languages"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./careline.yaml, ./configs/careline.yaml,
// /etc/careline/careline.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("stt.backend", "openai")
	v.SetDefault("stt.timeout", 60*time.Second)
	v.SetDefault("stt.openai.model", "whisper-1")
	v.SetDefault("stt.local.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("stt.local.model", "base")
	v.SetDefault("stt.google.language_code", "en-US")
	v.SetDefault("stt.google.sample_rate_hz", 16000)
	v.SetDefault("llm.backend", "openai")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.local.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("llm.local.model", "llama3")
	v.SetDefault("llm.classifier", "llm")
	v.SetDefault("llm.classify_temperature", 0.3)
	v.SetDefault("llm.respond_temperature", 0.7)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("language.fallback", "en")
	v.SetDefault("language.supported", []string{"en", "es", "fr", "de", "it", "pt"})
	v.SetDefault("language.min_chars", 12)
	v.SetDefault("language.min_confidence", 0.60)
	v.SetDefault("tts.backend", "piper")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.topic", "careline.results")
	v.SetDefault("dataset.output_dir", "test_data")
	v.SetDefault("dataset.samples_per_combo", 5)
	v.SetDefault("dataset.languages", []string{"en", "es"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("careline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/careline")
	}

	// Environment variables: CARELINE_STT_BACKEND, CARELINE_LLM_OPENAI_MODEL, etc.
	v.SetEnvPrefix("CARELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional — env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}").
	// The provider API key is the single required secret; both key fields fall
	// back to OPENAI_API_KEY when unset.
	cfg.STT.OpenAI.APIKey = resolveEnvRef(cfg.STT.OpenAI.APIKey)
	cfg.LLM.OpenAI.APIKey = resolveEnvRef(cfg.LLM.OpenAI.APIKey)
	if cfg.STT.OpenAI.APIKey == "" {
		cfg.STT.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.OpenAI.APIKey == "" {
		cfg.LLM.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return &cfg, nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
