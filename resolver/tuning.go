package resolver

import (
	"errors"
	"fmt"
)

// Tuning holds the thresholds of the strategy chain. The keyword-scan ratios
// were tuned empirically against production traffic and are kept adjustable
// through the configuration file.
type Tuning struct {
	// FragmentMinLength is the shortest hex suffix treated as an id fragment.
	FragmentMinLength int `toml:"fragment_min_length"`
	// FragmentMinWordMatches is the word evidence needed to pick one of
	// several questions sharing an id fragment.
	FragmentMinWordMatches int `toml:"fragment_min_word_matches"`

	// FuzzyScanLimit caps how many questions the fuzzy strategy scores. Zero
	// scores the whole category; a cap skips the newest questions.
	FuzzyScanLimit       int     `toml:"fuzzy_scan_limit"`
	FuzzyAcceptScore     float64 `toml:"fuzzy_accept_score"`
	FuzzyKeywordCoverage float64 `toml:"fuzzy_keyword_coverage"`
	FuzzyLongPhraseChars int     `toml:"fuzzy_long_phrase_chars"`

	KeywordScanWords    int     `toml:"keyword_scan_words"`
	KeywordScanLimit    int     `toml:"keyword_scan_limit"`
	ShortPhraseWords    int     `toml:"short_phrase_words"`
	ShortPhraseCoverage float64 `toml:"short_phrase_coverage"`
	LongPhraseCoverage  float64 `toml:"long_phrase_coverage"`
	MinorityCoverage    float64 `toml:"minority_coverage"`

	// MaxSlugAttempts bounds the collision counter of the slug guard.
	MaxSlugAttempts int `toml:"max_slug_attempts"`
}

func DefaultTuning() Tuning {
	return Tuning{
		FragmentMinLength:      8,
		FragmentMinWordMatches: 3,
		FuzzyScanLimit:         0,
		FuzzyAcceptScore:       70,
		FuzzyKeywordCoverage:   0.7,
		FuzzyLongPhraseChars:   50,
		KeywordScanWords:       6,
		KeywordScanLimit:       100,
		ShortPhraseWords:       6,
		ShortPhraseCoverage:    0.5,
		LongPhraseCoverage:     0.4,
		MinorityCoverage:       0.3,
		MaxSlugAttempts:        1000,
	}
}

func (t Tuning) Validate() error {
	var errs []error
	if t.FragmentMinLength < 1 || t.FragmentMinLength >= idLength {
		errs = append(errs, fmt.Errorf("fragment_min_length must be between 1 and %d", idLength-1))
	}
	if t.FragmentMinWordMatches < 1 {
		errs = append(errs, errors.New("fragment_min_word_matches must be positive"))
	}
	if t.FuzzyScanLimit < 0 || t.KeywordScanLimit < 0 {
		errs = append(errs, errors.New("scan limits must not be negative"))
	}
	if t.KeywordScanWords < 1 {
		errs = append(errs, errors.New("keyword_scan_words must be positive"))
	}
	ratios := []struct {
		name  string
		value float64
	}{
		{"fuzzy_keyword_coverage", t.FuzzyKeywordCoverage},
		{"short_phrase_coverage", t.ShortPhraseCoverage},
		{"long_phrase_coverage", t.LongPhraseCoverage},
		{"minority_coverage", t.MinorityCoverage},
	}
	for _, r := range ratios {
		if r.value <= 0 || r.value > 1 {
			errs = append(errs, fmt.Errorf("%s must be in (0, 1]", r.name))
		}
	}
	if t.MaxSlugAttempts < 1 {
		errs = append(errs, errors.New("max_slug_attempts must be positive"))
	}
	return errors.Join(errs...)
}
