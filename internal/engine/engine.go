package engine

import (
	"fmt"
	"time"

	"github.com/intentlens/intentlens/internal/config"
	"github.com/intentlens/intentlens/internal/explain"
	"github.com/intentlens/intentlens/internal/intent"
	"github.com/intentlens/intentlens/internal/logger"
	"github.com/intentlens/intentlens/internal/signals"
)

// Engine runs inference ticks over sessions. Extractors and rules are fixed
// at construction; built-in and externally registered ones are treated
// identically, and there is no process-wide registry.
type Engine struct {
	extractors []signals.Extractor
	rules      []Rule
	calc       *Calculator
	machine    *Machine
}

// Option customizes engine construction.
type Option func(*options)

type options struct {
	extraExtractors []signals.Extractor
	extraRules      []Rule
	noBuiltins      bool
}

// WithExtractors registers additional signal extractors.
func WithExtractors(xs ...signals.Extractor) Option {
	return func(o *options) { o.extraExtractors = append(o.extraExtractors, xs...) }
}

// WithRules registers additional rules.
func WithRules(rs ...Rule) Option {
	return func(o *options) { o.extraRules = append(o.extraRules, rs...) }
}

// WithoutBuiltins drops the built-in extractor and rule sets, leaving only
// what the options register.
func WithoutBuiltins() Option {
	return func(o *options) { o.noBuiltins = true }
}

// New validates the configuration and assembles an engine. Configuration
// errors are fatal here, never deferred to inference time.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine construction: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		calc:    NewCalculator(cfg),
		machine: NewMachine(cfg),
	}
	if !o.noBuiltins {
		for _, x := range signals.Defaults() {
			if cfg.ExtractorEnabled(x.Name()) {
				e.extractors = append(e.extractors, x)
			}
		}
		for _, r := range BuiltinRules() {
			if cfg.RuleEnabled(r.ID()) {
				e.rules = append(e.rules, r)
			}
		}
	}
	e.extractors = append(e.extractors, o.extraExtractors...)
	e.rules = append(e.rules, o.extraRules...)
	return e, nil
}

// Tick runs one inference pass over the session's current event snapshot,
// appends the chosen state to the session's trajectory and returns it.
// Inference is a pure, synchronous computation; repeated ticks over an
// identical event list yield identical states.
func (e *Engine) Tick(s *intent.Session) intent.IntentState {
	sigs := e.extract(s)
	set := NewSignalSet(sigs)

	var hyps []intent.Hypothesis
	for _, r := range e.rules {
		hyps = append(hyps, r.Evaluate(s, set)...)
	}
	sortHypotheses(hyps)

	scored := e.calc.Combine(hyps)
	current, hasCurrent := s.Current()
	chosen := e.machine.Next(current, hasCurrent, scored)

	// A carried-over incumbent with no supporting hypothesis is attributed
	// to the hold, not to the fallback: the fallback narrative would claim
	// no rule fired even when rules fired for other states.
	var att []intent.Attribution
	if hasCurrent && chosen.State == current.State && len(chosen.Hypotheses) == 0 &&
		!(chosen.State == e.calc.Fallback().State && len(hyps) == 0) {
		att = []intent.Attribution{{RuleID: intent.HeldRuleID, Weight: 1}}
	} else {
		att = explain.BuildAttribution(chosen.Hypotheses, e.calc.Weight)
	}
	state := intent.IntentState{
		State:       chosen.State,
		Confidence:  chosen.Confidence,
		Timestamp:   tickTime(s),
		Attribution: att,
	}
	state.Narrative = explain.Narrative(state.State, state.Confidence, att)

	s.Record(state)
	logger.Debug().
		Str("session", s.ID).
		Str("state", string(state.State)).
		Float64("confidence", state.Confidence).
		Int("hypotheses", len(hyps)).
		Msg("Inference tick")
	return state
}

// Merge recombines scored hypothesis sets produced under different rule
// configurations, using this engine's aggregation and tie-break.
func (e *Engine) Merge(sets ...[]ScoredState) []ScoredState {
	return e.calc.Merge(sets...)
}

// Score exposes one tick's scored candidates without advancing the
// trajectory. Used for cross-configuration merging and inspection.
func (e *Engine) Score(s *intent.Session) []ScoredState {
	set := NewSignalSet(e.extract(s))
	var hyps []intent.Hypothesis
	for _, r := range e.rules {
		hyps = append(hyps, r.Evaluate(s, set)...)
	}
	sortHypotheses(hyps)
	return e.calc.Combine(hyps)
}

// extract runs every extractor, isolating failures: a panicking extractor
// loses its signals for this tick but cannot block inference.
func (e *Engine) extract(s *intent.Session) []intent.Signal {
	var all []intent.Signal
	for _, x := range e.extractors {
		sigs, err := safeExtract(x, s)
		if err != nil {
			logger.Warn().
				Str("extractor", x.Name()).
				Err(err).
				Msg("Extractor failed, skipping its signals for this tick")
			continue
		}
		all = append(all, sigs...)
	}
	signals.Sort(all)
	return all
}

func safeExtract(x signals.Extractor, s *intent.Session) (sigs []intent.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			sigs = nil
			err = fmt.Errorf("extractor %s panicked: %v", x.Name(), r)
		}
	}()
	return x.Extract(s), nil
}

// tickTime is the emitted state's timestamp: the last event's timestamp, or
// the session start for an empty session.
func tickTime(s *intent.Session) time.Time {
	if n := s.Len(); n > 0 {
		return s.Event(n - 1).Timestamp
	}
	return s.StartedAt
}
