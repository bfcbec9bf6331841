// Package langdetect detects the language of a transcript.
//
// Detection is a pure function over the transcript text — it never looks at
// audio metadata or the STT provider's own language guess. Inconclusive
// input (empty, too short, low statistical confidence) yields the configured
// fallback code by design, never an error.
package langdetect

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"

	"github.com/carelinehq/careline/internal/config"
)

// byCode maps ISO-639-1 codes to lingua languages for the codes careline
// supports. Codes outside this table are ignored at construction time.
var byCode = map[string]lingua.Language{
	"en": lingua.English,
	"es": lingua.Spanish,
	"ca": lingua.Catalan,
	"fr": lingua.French,
	"de": lingua.German,
	"it": lingua.Italian,
	"pt": lingua.Portuguese,
}

// names maps ISO-639-1 codes to English language names for prompt building.
var names = map[string]string{
	"en": "English",
	"es": "Spanish",
	"ca": "Catalan",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
}

// Name returns the English name for an ISO-639-1 code, or the code itself
// when unknown.
func Name(code string) string {
	if n, ok := names[code]; ok {
		return n
	}
	return code
}

// Detector detects transcript languages within a fixed supported set.
type Detector struct {
	detector      lingua.LanguageDetector
	fallback      string
	minChars      int
	minConfidence float64
}

// New builds a Detector from config. Unsupported codes in cfg.Supported are
// skipped with a warning; if none remain, the detector always returns the
// fallback code.
func New(cfg config.LanguageConfig) *Detector {
	var langs []lingua.Language
	for _, code := range cfg.Supported {
		l, ok := byCode[strings.ToLower(code)]
		if !ok {
			slog.Warn("unsupported language code in config, skipping", "code", code)
			continue
		}
		langs = append(langs, l)
	}

	d := &Detector{
		fallback:      strings.ToLower(cfg.Fallback),
		minChars:      cfg.MinChars,
		minConfidence: cfg.MinConfidence,
	}
	if d.fallback == "" {
		d.fallback = "en"
	}
	if len(langs) >= 2 {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(langs...).
			Build()
	}
	return d
}

// Detect returns the ISO-639-1 code for the transcript text, or the fallback
// code when detection is inconclusive. It never fails: empty input is a
// designed degenerate case, not an error.
func (d *Detector) Detect(text string) string {
	trimmed := strings.TrimSpace(text)
	if d.detector == nil || utf8.RuneCountInString(trimmed) < d.minChars {
		return d.fallback
	}

	lang, ok := d.detector.DetectLanguageOf(trimmed)
	if !ok {
		return d.fallback
	}

	if conf := d.detector.ComputeLanguageConfidence(trimmed, lang); conf < d.minConfidence {
		slog.Debug("language confidence below threshold, using fallback",
			"detected", lang.String(), "confidence", conf, "fallback", d.fallback)
		return d.fallback
	}

	return strings.ToLower(lang.IsoCode639_1().String())
}

// Fallback returns the configured fallback code.
func (d *Detector) Fallback() string { return d.fallback }
