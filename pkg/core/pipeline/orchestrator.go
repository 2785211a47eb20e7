// Package pipeline sequences the calculators under a fixed dependency order
// and owns the only mutable state of an assessment session: the dirty/clean
// state machine, the last result and the bounded history.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"credit_analysis/pkg/core/analysis"
	"credit_analysis/pkg/core/calc"
	"credit_analysis/pkg/core/classify"
	"credit_analysis/pkg/core/reshape"
	"credit_analysis/pkg/core/rules"
	"credit_analysis/pkg/core/scoring"
	"credit_analysis/pkg/core/validate"
)

// Stage names, in run order.
const (
	StageIndicators     = "indicators"
	StageTrend          = "trend"
	StageWorkingCapital = "workingCapital"
	StageScoring        = "scoring"
	StageCompliance     = "compliance"
)

// Stages lists the fixed run order.
var Stages = []string{StageIndicators, StageTrend, StageWorkingCapital, StageScoring, StageCompliance}

// ErrSuperseded is returned to a run whose result was discarded because a
// newer request or an input mutation arrived while it was in flight.
var ErrSuperseded = errors.New("calculation superseded by a newer request")

// Recorder persists successful runs (e.g. store.AssessmentRepo).
type Recorder interface {
	Record(ctx context.Context, entry HistoryEntry, res *Result) error
}

// ValidationConfig defines thresholds and behavior of the validation gate.
type ValidationConfig struct {
	EnableStrictValidation bool    // If true, an unbalanced balance sheet fails the gate
	BalanceSheetTolerance  float64 // Allowed gap for A = L + E
	EquityTolerancePct     float64 // Allowed gap between ΔEquity and net profit, in percent
}

// DefaultValidationConfig logs accounting mismatches as warnings.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		EnableStrictValidation: false,
		BalanceSheetTolerance:  validate.DefaultTolerance,
		EquityTolerancePct:     5,
	}
}

// ComplianceReport is the cadastral section passed through to the result.
type ComplianceReport struct {
	Company      reshape.Company      `json:"company"`
	Compliance   reshape.Compliance   `json:"compliance"`
	Restrictions int                  `json:"restrictions"`
	Debts        []reshape.DebtRecord `json:"debts,omitempty"`
	TotalDebt    float64              `json:"total_debt"`
}

// Result is the output of one successful run. Sections whose prerequisite
// data was absent are nil.
type Result struct {
	ID             uuid.UUID                `json:"id"`
	CalculatedAt   time.Time                `json:"calculated_at"`
	Balance        *classify.KindResult     `json:"balance,omitempty"`
	Income         *classify.KindResult     `json:"income,omitempty"`
	Trend          *analysis.Trend          `json:"trend,omitempty"`
	WorkingCapital *analysis.WorkingCapital `json:"working_capital,omitempty"`
	Score          *scoring.Result          `json:"score"`
	Compliance     *ComplianceReport        `json:"compliance"`
	Warnings       []string                 `json:"warnings,omitempty"`
}

// Outcome is delivered by Start.
type Outcome struct {
	Result *Result
	Err    error
}

// Orchestrator manages the end-to-end flow:
// raw input -> reshape -> gate -> indicators -> trend -> working capital -> scoring -> compliance.
type Orchestrator struct {
	mu           sync.Mutex
	state        State
	dirty        bool
	generation   uint64
	input        map[string]any
	last         *Result
	lastSuccess  time.Time
	history      *History
	listeners    map[int]Listener
	nextListener int

	classifier       *classify.Classifier
	analyzer         *analysis.Engine
	scorer           *scoring.Engine
	recorder         Recorder
	validationConfig ValidationConfig
	now              func() time.Time
	log              zerolog.Logger

	// stageHook runs before each stage; tests use it to hold a run in flight.
	stageHook func(ctx context.Context, stage string)
}

// NewOrchestrator creates an orchestrator bound to one rule set. The session
// starts Dirty with empty input.
func NewOrchestrator(set *rules.Set, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		state:            StateDirty,
		dirty:            true,
		input:            map[string]any{},
		history:          NewHistory(HistoryCapacity),
		listeners:        map[int]Listener{},
		classifier:       classify.New(set),
		analyzer:         analysis.NewEngine(log),
		validationConfig: DefaultValidationConfig(),
		now:              time.Now,
		log:              log.With().Str("component", "pipeline").Logger(),
	}
	o.scorer = scoring.NewEngine(set, scoring.WithLogger(log), scoring.WithClock(func() time.Time { return o.clock()() }))
	return o
}

// SetRecorder injects the persistence collaborator.
func (o *Orchestrator) SetRecorder(r Recorder) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recorder = r
}

// SetValidationConfig updates the validation configuration.
func (o *Orchestrator) SetValidationConfig(config ValidationConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.validationConfig = config
}

// SetClock replaces the clock used for timestamps and age-based signals.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.now = now
}

func (o *Orchestrator) clock() func() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now
}

// =============================================================================
// INPUT MUTATION
// =============================================================================

// SetInput replaces the whole flat input.
func (o *Orchestrator) SetInput(raw map[string]any) {
	o.mu.Lock()
	o.input = maps.Clone(raw)
	if o.input == nil {
		o.input = map[string]any{}
	}
	changes := o.markDirty()
	o.mu.Unlock()
	o.publish(changes)
}

// SetField sets one flat input key.
func (o *Orchestrator) SetField(key string, value any) {
	o.mu.Lock()
	o.input[key] = value
	changes := o.markDirty()
	o.mu.Unlock()
	o.publish(changes)
}

// Reset clears history, last result and input. The session returns to Dirty.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.history.Clear()
	o.last = nil
	o.lastSuccess = time.Time{}
	o.input = map[string]any{}
	changes := o.markDirty()
	o.mu.Unlock()
	o.publish(changes)
}

// markDirty must be called with mu held. Bumping the generation makes any
// in-flight run stale.
func (o *Orchestrator) markDirty() []StateChange {
	o.dirty = true
	o.generation++
	return o.moveTo(StateDirty)
}

// moveTo must be called with mu held.
func (o *Orchestrator) moveTo(next State) []StateChange {
	if o.state == next {
		return nil
	}
	if !o.state.CanTransitionTo(next) {
		o.log.Error().Stringer("from", o.state).Stringer("to", next).Msg("illegal state transition")
		return nil
	}
	change := StateChange{From: o.state, To: next, At: o.now()}
	o.state = next
	return []StateChange{change}
}

// =============================================================================
// LISTENERS
// =============================================================================

// Subscribe registers l for state changes and returns its unsubscribe func.
func (o *Orchestrator) Subscribe(l Listener) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextListener
	o.nextListener++
	o.listeners[id] = l
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) publish(changes []StateChange) {
	if len(changes) == 0 {
		return
	}

	o.mu.Lock()
	ids := make([]int, 0, len(o.listeners))
	for id := range o.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ls := make([]Listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, o.listeners[id])
	}
	o.mu.Unlock()

	for _, c := range changes {
		for _, l := range ls {
			l(c)
		}
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Dirty reports whether the input changed since the last successful run.
func (o *Orchestrator) Dirty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dirty
}

// LastSuccess returns the time of the last successful run, zero if none.
func (o *Orchestrator) LastSuccess() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastSuccess
}

// Last returns the last successful result, nil if none.
func (o *Orchestrator) Last() *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// History returns the retained results, oldest first.
func (o *Orchestrator) History() []HistoryEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history.Entries()
}

// =============================================================================
// RUN
// =============================================================================

type ticket struct {
	generation uint64
	input      map[string]any
	config     ValidationConfig
	cached     *Result
}

// Run calculates synchronously. From Clean it returns the last result
// without recomputation.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	t := o.begin()
	if t.cached != nil {
		return t.cached, nil
	}
	res, err := o.calculate(ctx, t)
	return o.finish(ctx, t, res, err)
}

// Start calculates asynchronously. The request is registered before Start
// returns, so of two calls the later one always wins: the earlier one
// receives ErrSuperseded.
func (o *Orchestrator) Start(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)
	t := o.begin()
	if t.cached != nil {
		out <- Outcome{Result: t.cached}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		res, err := o.calculate(ctx, t)
		res, err = o.finish(ctx, t, res, err)
		out <- Outcome{Result: res, Err: err}
	}()
	return out
}

func (o *Orchestrator) begin() ticket {
	o.mu.Lock()
	if o.state == StateClean && o.last != nil {
		t := ticket{cached: o.last}
		o.mu.Unlock()
		return t
	}
	o.generation++
	t := ticket{
		generation: o.generation,
		input:      maps.Clone(o.input),
		config:     o.validationConfig,
	}
	changes := o.moveTo(StateCalculating)
	o.mu.Unlock()

	o.publish(changes)
	return t
}

func (o *Orchestrator) finish(ctx context.Context, t ticket, res *Result, err error) (*Result, error) {
	o.mu.Lock()
	if t.generation != o.generation {
		o.mu.Unlock()
		o.log.Debug().Uint64("generation", t.generation).Msg("discarding superseded result")
		return nil, ErrSuperseded
	}

	if err != nil {
		changes := o.moveTo(StateFailed)
		o.mu.Unlock()
		o.publish(changes)
		return nil, err
	}

	o.last = res
	o.dirty = false
	o.lastSuccess = res.CalculatedAt
	entry := HistoryEntry{ID: res.ID, Timestamp: res.CalculatedAt, Score: *res.Score}
	o.history.Push(entry)
	changes := o.moveTo(StateClean)
	recorder := o.recorder
	o.mu.Unlock()
	o.publish(changes)

	if recorder != nil {
		if rerr := recorder.Record(ctx, entry, res); rerr != nil {
			o.log.Warn().Err(rerr).Str("id", res.ID.String()).Msg("failed to record calculation")
		}
	}
	return res, nil
}

// calculate runs the gate and the stages over one input snapshot. It touches
// no orchestrator state.
func (o *Orchestrator) calculate(ctx context.Context, t ticket) (*Result, error) {
	start := time.Now()
	statements := reshape.Reshape(t.input)
	profile := reshape.ParseProfile(t.input)

	debts, warnings, err := o.gate(t.input, statements, profile, t.config)
	if err != nil {
		o.log.Warn().Err(err).Msg("validation gate rejected input")
		return nil, err
	}
	for _, w := range warnings {
		o.log.Warn().Str("check", "accounting").Msg(w)
	}

	res := &Result{ID: uuid.New(), Warnings: warnings}
	var indicators map[string]classify.IndicatorResult

	steps := []struct {
		name string
		run  func() error
	}{
		{StageIndicators, func() error {
			latest := statements.Latest()
			in := calc.InputsFrom(latest, profile.Concentration)
			if latest.Balance.Provided {
				kr := o.classifier.ClassifyAll(calc.KindBalance, calc.Compute(calc.KindBalance, in))
				res.Balance = &kr
			}
			if latest.Income.Provided {
				kr := o.classifier.ClassifyAll(calc.KindIncome, calc.Compute(calc.KindIncome, in))
				res.Income = &kr
			}
			indicators = classify.Index(res.Balance, res.Income)
			return nil
		}},
		{StageTrend, func() error {
			res.Trend = o.analyzer.Trend(statements)
			return nil
		}},
		{StageWorkingCapital, func() error {
			res.WorkingCapital = o.analyzer.WorkingCapital(statements)
			return nil
		}},
		{StageScoring, func() error {
			score, err := o.scorer.Score(scoring.Input{
				Cadastral:      profile,
				Statements:     statements,
				Indicators:     indicators,
				WorkingCapital: res.WorkingCapital,
				Trend:          res.Trend,
			})
			if err != nil {
				return err
			}
			res.Score = &score
			return nil
		}},
		{StageCompliance, func() error {
			profile.Debts = debts
			res.Compliance = &ComplianceReport{
				Company:      profile.Company,
				Compliance:   profile.Compliance,
				Restrictions: profile.Compliance.Restrictions(),
				Debts:        debts,
				TotalDebt:    profile.TotalDebt(),
			}
			return nil
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("calculation interrupted before %s: %w", s.name, err)
		}
		if o.stageHook != nil {
			o.stageHook(ctx, s.name)
		}
		if err := runStage(s.name, s.run); err != nil {
			o.log.Error().Err(err).Str("stage", s.name).Msg("stage failed")
			return nil, err
		}
	}

	res.CalculatedAt = o.clock()()
	o.log.Info().
		Str("id", res.ID.String()).
		Float64("total", res.Score.Total).
		Str("rating", res.Score.Rating).
		Dur("elapsed", time.Since(start)).
		Msg("calculation complete")
	return res, nil
}

// runStage converts a stage failure or panic into a ComputationError.
func runStage(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &validate.ComputationError{Stage: name, Reason: fmt.Sprint(r)}
		}
	}()
	if err := fn(); err != nil {
		var ce *validate.ComputationError
		if errors.As(err, &ce) {
			return err
		}
		return &validate.ComputationError{Stage: name, Reason: "stage failed", Err: err}
	}
	return nil
}

// gate collects every strict failure before any stage runs: missing company
// identity, no statement data, malformed debt records and, in strict mode,
// unbalanced balance sheets. Non-strict accounting mismatches are returned
// as warnings.
func (o *Orchestrator) gate(raw map[string]any, s *reshape.Statements, p *reshape.Profile, cfg ValidationConfig) ([]reshape.DebtRecord, []string, error) {
	verr := &validate.ValidationError{}

	verr.Merge(validate.Struct("cadastral", p.Company))
	if !s.HasData() {
		verr.Add("statements", "", "no period carries data")
	}

	debts, err := reshape.ParseDebtRecords(raw)
	if err != nil {
		var dv *validate.ValidationError
		if !errors.As(err, &dv) {
			return nil, nil, err
		}
		verr.Merge(dv)
	}

	var warnings []string
	for _, c := range s.CheckBalances(cfg.BalanceSheetTolerance) {
		if c.IsBalanced {
			continue
		}
		if cfg.EnableStrictValidation {
			verr.Add("balance["+c.Period+"]", "totalAssets", c.Warning())
		} else {
			warnings = append(warnings, c.Warning())
		}
	}
	for _, l := range s.CheckEquityLinks(cfg.EquityTolerancePct) {
		if !l.IsLinked {
			warnings = append(warnings, fmt.Sprintf("equity %s moved %.2f against net profit %.2f", l.Period, l.ActualChange, l.NetProfit))
		}
	}

	return debts, warnings, verr.OrNil()
}
