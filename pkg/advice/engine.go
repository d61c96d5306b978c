package advice

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
	"github.com/RyanBlaney/speech-trainer/pkg/logging"
)

// Kind distinguishes corrective advice from a compliment
type Kind string

const (
	KindAdvice     Kind = "advice"
	KindCompliment Kind = "compliment"
)

// Outcome is the result of evaluating the rules against one attempt
type Outcome struct {
	Kind        Kind     `json:"kind" yaml:"kind"`
	Text        string   `json:"text" yaml:"text"`
	Clauses     []string `json:"clauses,omitempty" yaml:"clauses,omitempty"`
	Rules       []string `json:"rules,omitempty" yaml:"rules,omitempty"`
	EarlyReturn bool     `json:"early_return" yaml:"early_return"`
}

// IsCompliment reports whether no rule fired
func (o Outcome) IsCompliment() bool {
	return o.Kind == KindCompliment
}

// Numbered renders advice clauses as a numbered list, one per line
func (o Outcome) Numbered() string {
	if o.Kind != KindAdvice || len(o.Clauses) == 0 {
		return o.Text
	}
	lines := make([]string, len(o.Clauses))
	for i, c := range o.Clauses {
		lines[i] = fmt.Sprintf("%d) %s", i+1, c)
	}
	return strings.Join(lines, "\n")
}

// Source picks compliment indices; *rand.Rand satisfies it
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Option configures an Engine
type Option func(*Engine)

// WithSource injects the random source used to pick compliments
func WithSource(src Source) Option {
	return func(e *Engine) { e.source = src }
}

// WithSeed uses a deterministic PCG source
func WithSeed(seed uint64) Option {
	return WithSource(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithCompliments replaces the compliment list; an empty list is ignored
func WithCompliments(compliments []string) Option {
	return func(e *Engine) {
		if len(compliments) > 0 {
			e.compliments = append([]string(nil), compliments...)
		}
	}
}

// WithRules replaces the rule table
func WithRules(rules []Rule) Option {
	return func(e *Engine) { e.rules = append([]Rule(nil), rules...) }
}

// Engine evaluates coaching rules in order
type Engine struct {
	rules       []Rule
	compliments []string

	mu     sync.Mutex
	source Source

	logger logging.Logger
}

// NewEngine creates an advice engine with the default rules
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:       DefaultRules(),
		compliments: append([]string(nil), DefaultCompliments...),
		source:      globalSource{},
		logger: logging.WithFields(logging.Fields{
			"component": "advice_engine",
		}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Advise evaluates the rules against a feature vector. Missing or NaN
// features read as zero.
func (e *Engine) Advise(fv extractors.FeatureVector) Outcome {
	var clauses, fired []string

	for _, rule := range e.rules {
		if !rule.Applies(fv) {
			continue
		}

		if rule.Action == Terminate {
			e.logger.Debug("Advice rule terminated evaluation", logging.Fields{
				"rule":      rule.Name,
				"discarded": len(clauses),
			})
			return Outcome{
				Kind:        KindAdvice,
				Text:        rule.Clause,
				Clauses:     []string{rule.Clause},
				Rules:       []string{rule.Name},
				EarlyReturn: true,
			}
		}
		clauses = append(clauses, rule.Clause)
		fired = append(fired, rule.Name)
	}

	if len(clauses) > 0 {
		e.logger.Debug("Advice rules fired", logging.Fields{"rules": fired})
		return Outcome{
			Kind:    KindAdvice,
			Text:    strings.Join(clauses, "\n"),
			Clauses: clauses,
			Rules:   fired,
		}
	}

	return Outcome{Kind: KindCompliment, Text: e.compliment()}
}

func (e *Engine) compliment() string {
	e.mu.Lock()
	idx := e.source.IntN(len(e.compliments))
	e.mu.Unlock()
	return e.compliments[idx]
}
