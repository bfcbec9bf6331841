// Package dataset generates the labeled synthetic audio corpus used to
// evaluate the pipeline.
//
// Corpus generation is split in two: a pure scheduler that enumerates which
// (scenario, language, sample) combinations to produce and in what order,
// and an effectful generator that renders each scheduled sample through a
// TTS backend and writes the manifest. The schedule is fully deterministic,
// so regenerating a corpus with the same inputs yields the same manifest
// ordering even when synthesis output differs.
package dataset

import "fmt"

// PlannedSample is one scheduled corpus entry, before synthesis.
type PlannedSample struct {
	Intent      string `json:"intent"`
	Language    string `json:"language"`
	SampleIndex int    `json:"sample_index"` // 1-based
	Text        string `json:"text"`
	Filename    string `json:"filename"`
}

// Schedule enumerates the cross-product of scenarios × languages × sample
// index in declared order. Phrase variants are picked cyclically by sample
// index, so the mapping from index to text is reproducible. Languages a
// scenario has no phrases for are skipped.
func Schedule(scenarios []Scenario, languages []string, samplesPerCombo int) []PlannedSample {
	var plan []PlannedSample
	for _, sc := range scenarios {
		for _, lang := range languages {
			phrases := sc.Phrases[lang]
			if len(phrases) == 0 {
				continue
			}
			n := samplesPerCombo
			if n > len(phrases) {
				n = len(phrases)
			}
			for i := 0; i < n; i++ {
				plan = append(plan, PlannedSample{
					Intent:      string(sc.Intent),
					Language:    lang,
					SampleIndex: i + 1,
					Text:        phrases[i%len(phrases)],
					Filename:    fmt.Sprintf("%s_%s_%d.wav", sc.Intent, lang, i+1),
				})
			}
		}
	}
	return plan
}
