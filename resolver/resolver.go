// Package resolver locates question records from user-supplied identifiers.
//
// Identifiers have changed shape over the life of the platform: embedded
// database ids, truncated id fragments and plain text slugs all still appear
// in inbound links. A Resolver runs an ordered chain of strategies, cheapest
// first, and stops at the first one that reaches a verdict. When a fallback
// strategy finds the record, the resolver asks a Healer to store the
// identifier as the record's slug so the next lookup hits the first
// strategy.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"qbank/logging"
	"qbank/models"
	"qbank/slug"
	"qbank/store"
)

const idLength = models.IDLength

var (
	// ErrNotFound means no strategy produced an acceptable candidate.
	ErrNotFound = errors.New("no question matches identifier")
	// ErrAmbiguous means several questions are plausible and the identifier
	// carries too little text to choose between them.
	ErrAmbiguous = errors.New("identifier matches several questions")
	// ErrInvalidInput is returned for an empty identifier or category.
	ErrInvalidInput = errors.New("invalid resolve input")
)

// Verdict is the result class of a single strategy attempt.
type Verdict int

const (
	// VerdictPass hands the request to the next strategy.
	VerdictPass Verdict = iota
	VerdictFound
	// VerdictNotFound ends the chain without a match.
	VerdictNotFound
	// VerdictAmbiguous ends the chain with several plausible matches.
	VerdictAmbiguous
)

func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "pass"
	case VerdictFound:
		return "found"
	case VerdictNotFound:
		return "not_found"
	case VerdictAmbiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Outcome is what a strategy reports back to the chain.
type Outcome struct {
	Verdict  Verdict
	Question *models.Question
	// Heal requests a slug write for Question after a fallback match.
	Heal bool
	// Candidates is the number of records the strategy weighed.
	Candidates int
}

func pass() Outcome { return Outcome{Verdict: VerdictPass} }

func found(q *models.Question, heal bool, candidates int) Outcome {
	return Outcome{Verdict: VerdictFound, Question: q, Heal: heal, Candidates: candidates}
}

// Request is a normalized resolution input shared by all strategies.
type Request struct {
	CategoryID string
	Identifier string
	segments   []string
}

func newRequest(categoryID, identifier string) *Request {
	return &Request{
		CategoryID: categoryID,
		Identifier: identifier,
		segments:   strings.Split(identifier, "-"),
	}
}

// LastSegment returns the part of the identifier after its final hyphen.
func (r *Request) LastSegment() string {
	return r.segments[len(r.segments)-1]
}

// Segments reports how many hyphen-separated parts the identifier has.
func (r *Request) Segments() int {
	return len(r.segments)
}

// Leading returns the identifier without its last segment.
func (r *Request) Leading() string {
	return strings.Join(r.segments[:len(r.segments)-1], "-")
}

// Strategy is one link of the resolution chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, req *Request) (Outcome, error)
}

// Attempt records one strategy run for diagnostics.
type Attempt struct {
	Strategy   string
	Verdict    Verdict
	Candidates int
	Duration   time.Duration
}

// Resolution is the result of a successful lookup. On failure the trace is
// still returned alongside the error.
type Resolution struct {
	Question *models.Question
	Strategy string
	Trace    []Attempt
}

type Resolver struct {
	store      store.QuestionStore
	healer     Healer
	strategies []Strategy
	tuning     Tuning
	logger     *slog.Logger
}

type Option func(*Resolver)

func WithHealer(h Healer) Option {
	return func(r *Resolver) { r.healer = h }
}

func WithTuning(t Tuning) Option {
	return func(r *Resolver) { r.tuning = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithStrategies replaces the default chain.
func WithStrategies(s ...Strategy) Option {
	return func(r *Resolver) { r.strategies = s }
}

func New(st store.QuestionStore, opts ...Option) *Resolver {
	r := &Resolver{
		store:  st,
		healer: nopHealer{},
		tuning: DefaultTuning(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger).With("component", "resolver")
	if r.strategies == nil {
		r.strategies = DefaultStrategies(st, r.tuning)
	}
	return r
}

// DefaultStrategies returns the standard chain in priority order.
func DefaultStrategies(st store.QuestionStore, t Tuning) []Strategy {
	return []Strategy{
		&exactSlug{store: st},
		&exactID{store: st},
		&suffixID{store: st},
		&idFragment{store: st, tuning: t},
		&fuzzyText{store: st, tuning: t},
		&keywordScan{store: st, tuning: t},
	}
}

// Resolve finds the question in categoryID identified by identifier.
// Identifiers are compared in lower case. Storage failures are returned
// wrapped; heal failures never are.
func (r *Resolver) Resolve(ctx context.Context, categoryID, identifier string) (*Resolution, error) {
	categoryID = strings.TrimSpace(categoryID)
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if categoryID == "" {
		return nil, fmt.Errorf("%w: category is empty", ErrInvalidInput)
	}
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is empty", ErrInvalidInput)
	}

	req := newRequest(categoryID, identifier)
	res := &Resolution{Trace: make([]Attempt, 0, len(r.strategies))}

	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		start := time.Now()
		out, err := s.Attempt(ctx, req)
		res.Trace = append(res.Trace, Attempt{
			Strategy:   s.Name(),
			Verdict:    out.Verdict,
			Candidates: out.Candidates,
			Duration:   time.Since(start),
		})
		if err != nil {
			return res, fmt.Errorf("strategy %s: %w", s.Name(), err)
		}

		switch out.Verdict {
		case VerdictPass:
			continue
		case VerdictFound:
			res.Question = out.Question
			res.Strategy = s.Name()
			if out.Heal {
				r.heal(req, s.Name(), out.Question)
			}
			r.logger.Debug("identifier resolved",
				"event_type", "resolve_found",
				"category_id", categoryID,
				"identifier", identifier,
				"strategy", s.Name(),
				"question_id", out.Question.ID)
			return res, nil
		case VerdictAmbiguous:
			r.logger.Info("identifier is ambiguous",
				"event_type", "resolve_ambiguous",
				"category_id", categoryID,
				"identifier", identifier,
				"strategy", s.Name(),
				"candidates", out.Candidates)
			return res, ErrAmbiguous
		case VerdictNotFound:
			return res, ErrNotFound
		}
	}
	return res, ErrNotFound
}

func (r *Resolver) heal(req *Request, strategy string, q *models.Question) {
	preferred := ""
	if slug.Valid(req.Identifier) {
		preferred = req.Identifier
	}
	if preferred != "" && q.Slug == preferred {
		return
	}
	if preferred == "" && q.HasSlug() {
		return
	}
	r.healer.Heal(HealRequest{
		CategoryID: q.CategoryID,
		QuestionID: q.ID,
		Text:       q.Text,
		Slug:       q.Slug,
		Preferred:  preferred,
		Strategy:   strategy,
	})
}
