package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/radar/shared"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
)

// EngineConfig represents the pattern engine configuration.
type EngineConfig struct {
	// Markets represents the collection of tracked markets.
	Markets []string
	// SendAlert relays the provided alert event for delivery.
	SendAlert func(event shared.AlertEvent)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *EngineConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for pattern engine"))
	}
	if cfg.SendAlert == nil {
		errs = errors.Join(errs, fmt.Errorf("send alert function cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// marketState holds the per-market pattern machines. Each market's state is
// only ever advanced by its dedicated worker, strictly ordered by bar date.
type marketState struct {
	breakout      *StageState
	reversal      *TrackState
	lastProcessed map[shared.Timeframe]time.Time
	caughtUp      atomic.Bool
}

// engineSignal carries either an indicator snapshot or an end of history
// marker for a market. Both travel the same channel so a caught up marker is
// always processed after every snapshot queued before it.
type engineSignal struct {
	snapshot       *shared.IndicatorSnapshot
	caughtUpMarket string
}

// market returns the market the signal belongs to.
func (s *engineSignal) market() string {
	if s.snapshot != nil {
		return s.snapshot.Market
	}

	return s.caughtUpMarket
}

// Engine advances the pattern state machines of all tracked markets and
// emits gated alert events.
type Engine struct {
	cfg             *EngineConfig
	states          map[string]*marketState
	gate            *DailyAlertGate
	snapshotSignals chan engineSignal
	workers         map[string]chan struct{}
	processed       atomic.Uint64
	skipped         atomic.Uint64
}

// NewEngine initializes a new pattern engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	states := make(map[string]*marketState, len(cfg.Markets))
	workers := make(map[string]chan struct{}, len(cfg.Markets))
	for idx := range cfg.Markets {
		market := cfg.Markets[idx]
		states[market] = &marketState{
			breakout:      NewStageState(market),
			reversal:      NewTrackState(market),
			lastProcessed: make(map[shared.Timeframe]time.Time),
		}
		workers[market] = make(chan struct{}, 1)
	}

	return &Engine{
		cfg:             cfg,
		states:          states,
		gate:            NewDailyAlertGate(),
		snapshotSignals: make(chan engineSignal, bufferSize),
		workers:         workers,
	}, nil
}

// SendSnapshot relays the provided indicator snapshot for processing and
// reports whether it was accepted. A rejected snapshot is the caller's to
// re-dispatch.
func (e *Engine) SendSnapshot(snapshot shared.IndicatorSnapshot) bool {
	select {
	case e.snapshotSignals <- engineSignal{snapshot: &snapshot}:
		return true
	default:
		e.cfg.Logger.Error().Msgf("snapshot channel at capacity: %d/%d",
			len(e.snapshotSignals), bufferSize)
		return false
	}
}

// SendCaughtUpSignal queues an end of history marker for the provided market.
// The marker travels the snapshot channel, so alert dispatch only unlocks
// once every replayed bar queued before it has been processed. The send
// blocks rather than drop, a lost marker would suppress the market's alerts
// indefinitely.
func (e *Engine) SendCaughtUpSignal(market string) {
	e.snapshotSignals <- engineSignal{caughtUpMarket: market}
}

// setCaughtUp flags the provided market as caught up on historical data,
// enabling alert dispatch for it.
func (e *Engine) setCaughtUp(market string) {
	state, ok := e.states[market]
	if !ok {
		e.cfg.Logger.Error().Msgf("no market found with name %s for caught up signal", market)
		return
	}

	state.caughtUp.Store(true)
	e.cfg.Logger.Info().Msgf("%s caught up on historical data, live alerts enabled", market)
}

// WarmGate seeds the daily alert gate with markets already alerted on the
// provided trading date.
func (e *Engine) WarmGate(day string, markets map[string]struct{}) {
	e.gate.Warm(day, markets)
}

// ProcessedCount returns the number of snapshots advanced by the engine.
func (e *Engine) ProcessedCount() uint64 {
	return e.processed.Load()
}

// handleSnapshot advances the owning market's pattern machines with the
// provided snapshot and dispatches a gated alert when a pattern completes.
func (e *Engine) handleSnapshot(snapshot *shared.IndicatorSnapshot) {
	state, ok := e.states[snapshot.Market]
	if !ok {
		e.cfg.Logger.Error().Msgf("no market found with name %s for snapshot", snapshot.Market)
		return
	}

	err := snapshot.Validate()
	if err != nil {
		// Skip malformed snapshots without advancing state.
		e.skipped.Add(1)
		e.cfg.Logger.Warn().Msgf("skipping malformed %s snapshot for %s: %v",
			snapshot.Timeframe.String(), snapshot.Market, err)
		return
	}

	last, seen := state.lastProcessed[snapshot.Timeframe]
	if seen && !snapshot.Date.After(last) {
		// Never reprocess stale or duplicate bars.
		e.skipped.Add(1)
		e.cfg.Logger.Warn().Msgf("skipping out of order %s bar for %s: %s is not after %s",
			snapshot.Timeframe.String(), snapshot.Market,
			snapshot.Date.Format(shared.DateLayout), last.Format(shared.DateLayout))
		return
	}
	state.lastProcessed[snapshot.Timeframe] = snapshot.Date

	var event *shared.AlertEvent
	switch snapshot.Timeframe {
	case shared.FifteenMinute:
		event = state.breakout.Advance(snapshot)
	case shared.OneDay:
		event = state.reversal.Advance(snapshot)
	default:
		e.cfg.Logger.Error().Msgf("unexpected snapshot timeframe: %s", spew.Sdump(snapshot))
		return
	}

	// Counted at exit so an observed count covers the dispatch decision too.
	defer e.processed.Add(1)

	if event == nil {
		return
	}

	day := shared.TradingDate(event.CreatedOn)
	if !e.gate.ShouldAlert(event.Market, day) {
		e.cfg.Logger.Info().Msgf("%s already alerted on %s, suppressing %s alert",
			event.Market, day, event.Kind.String())
		return
	}

	// The gate is marked at decision time, before delivery, so a delivery
	// failure cannot produce a duplicate send.
	e.gate.MarkAlerted(event.Market, day)

	if !state.caughtUp.Load() {
		e.cfg.Logger.Info().Msgf("%s %s alert during catch up on %s, gated without dispatch",
			event.Market, event.Kind.String(), day)
		return
	}

	e.cfg.SendAlert(*event)
}

// Run manages the lifecycle processes of the pattern engine.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case signal := <-e.snapshotSignals:
			// use the dedicated market worker to keep per-market updates
			// strictly ordered.
			market := signal.market()
			worker, ok := e.workers[market]
			if !ok {
				e.cfg.Logger.Error().Msgf("no market found with name %s for snapshot", market)
				continue
			}

			worker <- struct{}{}
			go func(signal *engineSignal) {
				switch {
				case signal.snapshot != nil:
					e.handleSnapshot(signal.snapshot)
				default:
					e.setCaughtUp(signal.caughtUpMarket)
				}
				<-worker
			}(&signal)
		}
	}
}
