package resolver

import (
	"context"
	"errors"
	"strings"

	"qbank/models"
	"qbank/store"
)

// single maps a one-record lookup onto an outcome. A missing record passes
// the request on.
func single(q *models.Question, err error, heal bool) (Outcome, error) {
	if errors.Is(err, store.ErrNotFound) {
		return pass(), nil
	}
	if err != nil {
		return pass(), err
	}
	return found(q, heal, 1), nil
}

// exactSlug matches the stored slug verbatim.
type exactSlug struct {
	store store.QuestionStore
}

func (s *exactSlug) Name() string { return "exact_slug" }

func (s *exactSlug) Attempt(ctx context.Context, req *Request) (Outcome, error) {
	q, err := s.store.FindBySlug(ctx, req.CategoryID, req.Identifier)
	return single(q, err, false)
}

// exactID matches identifiers that are a bare full-length question id.
type exactID struct {
	store store.QuestionStore
}

func (s *exactID) Name() string { return "exact_id" }

func (s *exactID) Attempt(ctx context.Context, req *Request) (Outcome, error) {
	if len(req.Identifier) != idLength || !isLowerHex(req.Identifier) {
		return pass(), nil
	}
	q, err := s.store.FindByID(ctx, req.CategoryID, req.Identifier)
	return single(q, err, false)
}

// suffixID matches "<slug>-<full id>" identifiers.
type suffixID struct {
	store store.QuestionStore
}

func (s *suffixID) Name() string { return "suffix_id" }

func (s *suffixID) Attempt(ctx context.Context, req *Request) (Outcome, error) {
	last := req.LastSegment()
	if req.Segments() < 2 || len(last) != idLength || !isLowerHex(last) {
		return pass(), nil
	}
	q, err := s.store.FindByID(ctx, req.CategoryID, last)
	return single(q, err, true)
}

// idFragment matches "<slug>-<id prefix>" identifiers. A fragment is a
// strong signal, so a miss ends the chain.
type idFragment struct {
	store  store.QuestionStore
	tuning Tuning
}

func (s *idFragment) Name() string { return "id_fragment" }

func (s *idFragment) Attempt(ctx context.Context, req *Request) (Outcome, error) {
	fragment := req.LastSegment()
	if len(fragment) < s.tuning.FragmentMinLength || len(fragment) >= idLength || !isLowerHex(fragment) {
		return pass(), nil
	}

	candidates, err := s.store.FindByIDPrefix(ctx, req.CategoryID, fragment)
	if err != nil {
		return pass(), err
	}
	switch len(candidates) {
	case 0:
		return Outcome{Verdict: VerdictNotFound}, nil
	case 1:
		return found(&candidates[0], true, 1), nil
	}

	var words []string
	for _, w := range strings.Fields(humanize(req.Leading())) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	words = uniqueWords(words)

	best, bestCount, tied := -1, 0, false
	for i := range candidates {
		n := newWordSet(normalizeText(candidates[i].Text)).count(words)
		switch {
		case n > bestCount:
			best, bestCount, tied = i, n, false
		case n == bestCount:
			tied = true
		}
	}
	if best < 0 || tied || bestCount < s.tuning.FragmentMinWordMatches {
		return Outcome{Verdict: VerdictAmbiguous, Candidates: len(candidates)}, nil
	}
	return found(&candidates[best], true, len(candidates)), nil
}

// fuzzyText scores every question in the category against the humanized
// identifier.
type fuzzyText struct {
	store  store.QuestionStore
	tuning Tuning
}

func (s *fuzzyText) Name() string { return "fuzzy_text" }

type fuzzyScore struct {
	score   float64
	matched int
}

func (s *fuzzyText) Attempt(ctx context.Context, req *Request) (Outcome, error) {
	phrase := humanize(req.Identifier)
	if phrase == "" {
		return pass(), nil
	}
	var keywords []string
	for _, w := range strings.Fields(phrase) {
		if isNumeric(w) || len(w) >= 4 {
			keywords = append(keywords, w)
		}
	}
	keywords = uniqueWords(keywords)

	candidates, err := s.store.ListByCategory(ctx, req.CategoryID, s.tuning.FuzzyScanLimit)
	if err != nil {
		return pass(), err
	}

	best := -1
	var bestScore fuzzyScore
	for i := range candidates {
		text := normalizeText(candidates[i].Text)
		if text == phrase {
			return found(&candidates[i], candidates[i].Slug != req.Identifier, i+1), nil
		}
		sc := s.score(phrase, text, keywords)
		if best < 0 || sc.score > bestScore.score {
			best, bestScore = i, sc
		}
	}
	if best < 0 || bestScore.score < s.tuning.FuzzyAcceptScore {
		return Outcome{Verdict: VerdictPass, Candidates: len(candidates)}, nil
	}
	if len(keywords) > 0 && bestScore.matched < ceilRatio(len(keywords), s.tuning.FuzzyKeywordCoverage) {
		return Outcome{Verdict: VerdictPass, Candidates: len(candidates)}, nil
	}
	q := &candidates[best]
	return found(q, q.Slug != req.Identifier, len(candidates)), nil
}

func (s *fuzzyText) score(phrase, text string, keywords []string) fuzzyScore {
	var sc fuzzyScore
	ratio := 0.0
	if len(keywords) > 0 {
		sc.matched = newWordSet(text).count(keywords)
		ratio = float64(sc.matched) / float64(len(keywords))
		sc.score += 40 * ratio
	}

	if len(phrase) > s.tuning.FuzzyLongPhraseChars && strings.Contains(text, phrase) {
		sc.score += 50 * float64(len(phrase)) / float64(len(text))
	}

	prefix := text[:min(len(phrase), len(text))]
	matched := 0
	if prefix != "" && strings.Contains(phrase, prefix) {
		matched = len(prefix)
	} else {
		matched = commonPrefixLen(text, phrase)
	}
	sc.score += 40 * float64(matched) / float64(len(phrase))

	if ratio >= s.tuning.FuzzyKeywordCoverage {
		sc.score += 10
	}
	return sc
}

// keywordScan is the last resort: a storage-side word filter followed by
// whole-word coverage checks.
type keywordScan struct {
	store  store.QuestionStore
	tuning Tuning
}

func (s *keywordScan) Name() string { return "keyword_scan" }

func (s *keywordScan) Attempt(ctx context.Context, req *Request) (Outcome, error) {
	var significant []string
	for _, w := range strings.Fields(humanize(req.Identifier)) {
		if isStopWord(w) {
			continue
		}
		if isNumeric(w) || len(w) >= 3 {
			significant = append(significant, w)
		}
	}
	significant = uniqueWords(significant)
	if len(significant) == 0 {
		return Outcome{Verdict: VerdictNotFound}, nil
	}

	search := longestWords(significant, s.tuning.KeywordScanWords)
	candidates, err := s.store.FindByAnyWord(ctx, req.CategoryID, search, s.tuning.KeywordScanLimit)
	if err != nil {
		return pass(), err
	}
	if len(candidates) == 0 {
		return Outcome{Verdict: VerdictNotFound}, nil
	}

	coverage := s.tuning.LongPhraseCoverage
	if len(significant) <= s.tuning.ShortPhraseWords {
		coverage = s.tuning.ShortPhraseCoverage
	}
	required := max(1, ceilRatio(len(significant), coverage))

	counts := make([]int, len(candidates))
	sets := make([]wordSet, len(candidates))
	for i := range candidates {
		sets[i] = newWordSet(normalizeText(candidates[i].Text))
		counts[i] = sets[i].count(significant)
	}

	qualified := func(i int) bool { return counts[i] >= required }
	if pick := bestBy(counts, qualified); pick >= 0 {
		return found(&candidates[pick], true, len(candidates)), nil
	}

	// Widen using critical words: numbers and short words tend to carry
	// the distinguishing detail of a question.
	var critical, distinct []string
	for _, w := range significant {
		if isNumeric(w) || (len(w) >= 3 && len(w) <= 5) {
			critical = append(critical, w)
		} else {
			distinct = append(distinct, w)
		}
	}
	widened := func(i int) bool {
		if counts[i] == 0 {
			return false
		}
		if len(distinct) > 0 && sets[i].count(distinct) < ceilRatio(len(distinct), s.tuning.MinorityCoverage) {
			return false
		}
		if len(critical) > 0 && sets[i].count(critical) < ceilRatio(len(critical), s.tuning.MinorityCoverage) {
			return false
		}
		return true
	}
	if pick := bestBy(counts, widened); pick >= 0 {
		return found(&candidates[pick], true, len(candidates)), nil
	}
	return Outcome{Verdict: VerdictNotFound, Candidates: len(candidates)}, nil
}

// bestBy returns the index with the highest count among those accepted by
// keep, preferring the earliest on ties, or -1.
func bestBy(counts []int, keep func(int) bool) int {
	best := -1
	for i := range counts {
		if !keep(i) {
			continue
		}
		if best < 0 || counts[i] > counts[best] {
			best = i
		}
	}
	return best
}
