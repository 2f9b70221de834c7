package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dnldd/radar/indicator"
	"github.com/dnldd/radar/shared"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxWorkers is the maximum number of concurrent workers.
	maxWorkers = 8
	// intradayLookbackDays is the intraday history window fetched per poll.
	// Yahoo caps fifteen minute bars at sixty days.
	intradayLookbackDays = 30
	// dailyLookbackDays is the daily history window fetched per poll, sized
	// to cover indicator warmup comfortably.
	dailyLookbackDays = 180
	// pollInterval is the intraday polling interval.
	pollInterval = time.Minute * 15
	// dailyPollHour and dailyPollMinute schedule the daily bar poll shortly
	// after the afternoon session closes.
	dailyPollHour   = 15
	dailyPollMinute = 45
)

// ExchangeClient defines the requirements for fetching and decoding market
// bar data from an exchange data provider.
type ExchangeClient interface {
	// FetchHistorical fetches historical market data for the provided timeframe.
	FetchHistorical(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]gjson.Result, error)
	// ParseCandlesticks parses candlesticks from the provided market data.
	ParseCandlesticks(data []gjson.Result, market string, timeframe shared.Timeframe) ([]shared.Candlestick, error)
}

// Ensure the YahooClient implements the ExchangeClient interface.
var _ ExchangeClient = (*YahooClient)(nil)

// ManagerConfig represents the configuration for the market data manager.
type ManagerConfig struct {
	// Markets represents the collection of tracked markets.
	Markets []string
	// ExchangeClient represents the market exchange client.
	ExchangeClient ExchangeClient
	// SendSnapshot relays the provided indicator snapshot for processing and
	// reports whether it was accepted.
	SendSnapshot func(snapshot shared.IndicatorSnapshot) bool
	// SignalCaughtUp signals the provided market as caught up on historical data.
	SignalCaughtUp func(market string)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for market data manager"))
	}
	if cfg.ExchangeClient == nil {
		errs = errors.Join(errs, fmt.Errorf("exchange client cannot be nil"))
	}
	if cfg.SendSnapshot == nil {
		errs = errors.Join(errs, fmt.Errorf("send snapshot function cannot be nil"))
	}
	if cfg.SignalCaughtUp == nil {
		errs = errors.Join(errs, fmt.Errorf("signal caught up function cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// pollSignal describes a market data poll request.
type pollSignal struct {
	Market    string
	Timeframe shared.Timeframe
}

// Manager represents the market data manager. It fetches bar history for the
// tracked markets, computes indicator snapshots and relays the ones not yet
// seen downstream.
type Manager struct {
	cfg              *ManagerConfig
	sources          map[string]*indicator.Source
	lastUpdatedTimes map[string]time.Time
	caughtUp         map[string]map[shared.Timeframe]bool
	mtx              sync.Mutex
	jobScheduler     gocron.Scheduler
	pollSignals      chan pollSignal
	workers          chan struct{}
}

// sourceKey forms the tracking key for the provided market and timeframe.
func sourceKey(market string, timeframe shared.Timeframe) string {
	return market + ":" + timeframe.String()
}

// NewManager initializes the market data manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(shared.TokyoLocation)
	if err != nil {
		return nil, fmt.Errorf("loading tokyo timezone: %w", err)
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("creating job scheduler: %w", err)
	}

	sources := make(map[string]*indicator.Source)
	caughtUp := make(map[string]map[shared.Timeframe]bool, len(cfg.Markets))
	for idx := range cfg.Markets {
		market := cfg.Markets[idx]
		sources[sourceKey(market, shared.FifteenMinute)] = indicator.NewSource(market, shared.FifteenMinute)
		sources[sourceKey(market, shared.OneDay)] = indicator.NewSource(market, shared.OneDay)
		caughtUp[market] = make(map[shared.Timeframe]bool)
	}

	mgr := &Manager{
		cfg:              cfg,
		sources:          sources,
		lastUpdatedTimes: make(map[string]time.Time),
		caughtUp:         caughtUp,
		jobScheduler:     scheduler,
		pollSignals:      make(chan pollSignal, bufferSize),
		workers:          make(chan struct{}, maxWorkers),
	}

	return mgr, nil
}

// SendPollSignal relays the provided poll signal for processing.
func (m *Manager) SendPollSignal(signal pollSignal) {
	select {
	case m.pollSignals <- signal:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("poll signal channel at capacity: %d/%d",
			len(m.pollSignals), bufferSize)
	}
}

// lookbackStart returns the history window start for the provided timeframe.
func lookbackStart(timeframe shared.Timeframe, now time.Time) time.Time {
	switch timeframe {
	case shared.OneDay:
		return now.AddDate(0, 0, -dailyLookbackDays)
	default:
		return now.AddDate(0, 0, -intradayLookbackDays)
	}
}

// handlePollSignal fetches the bar history of the signalled market, computes
// indicator snapshots and dispatches the ones not yet seen. The first
// completed poll per market and timeframe replays the full history so pattern
// state can catch up before live alerts are enabled.
func (m *Manager) handlePollSignal(signal pollSignal) {
	key := sourceKey(signal.Market, signal.Timeframe)
	source, ok := m.sources[key]
	if !ok {
		m.cfg.Logger.Error().Msgf("no market found with name %s for poll signal", signal.Market)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	now := time.Now()
	data, err := m.cfg.ExchangeClient.FetchHistorical(ctx, signal.Market, signal.Timeframe,
		lookbackStart(signal.Timeframe, now), now)
	if err != nil {
		m.cfg.Logger.Error().Msgf("fetching %s history for %s: %v",
			signal.Timeframe.String(), signal.Market, err)
		return
	}

	candles, err := m.cfg.ExchangeClient.ParseCandlesticks(data, signal.Market, signal.Timeframe)
	if err != nil {
		m.cfg.Logger.Error().Msgf("parsing candlesticks for %s: %v", signal.Market, err)
		return
	}

	snapshots, err := source.Snapshots(candles)
	if err != nil {
		m.cfg.Logger.Error().Msgf("computing %s snapshots for %s: %v",
			signal.Timeframe.String(), signal.Market, err)
		return
	}

	m.mtx.Lock()
	lastUpdated := m.lastUpdatedTimes[key]
	m.mtx.Unlock()

	var dispatched int
	var latest time.Time
	complete := true
	for idx := range snapshots {
		snapshot := snapshots[idx]
		if !snapshot.Date.After(lastUpdated) {
			continue
		}
		if snapshot.Validate() != nil {
			// Warmup bars have incomplete indicator values, drop them.
			continue
		}

		if !m.cfg.SendSnapshot(snapshot) {
			// The rejected bar and everything after it are re-dispatched
			// on the next poll, lastUpdatedTimes only tracks accepted bars.
			complete = false
			break
		}
		dispatched++
		latest = snapshot.Date
	}

	m.mtx.Lock()
	if latest.After(m.lastUpdatedTimes[key]) {
		m.lastUpdatedTimes[key] = latest
	}

	var nowCaughtUp bool
	if complete && !m.caughtUp[signal.Market][signal.Timeframe] {
		m.caughtUp[signal.Market][signal.Timeframe] = true
		nowCaughtUp = m.caughtUp[signal.Market][shared.FifteenMinute] &&
			m.caughtUp[signal.Market][shared.OneDay]
	}
	m.mtx.Unlock()

	if dispatched > 0 {
		m.cfg.Logger.Info().Msgf("dispatched %d new %s snapshots for %s",
			dispatched, signal.Timeframe.String(), signal.Market)
	}

	if nowCaughtUp {
		m.cfg.SignalCaughtUp(signal.Market)
	}

	if !complete {
		// Retry the remainder without waiting for the next scheduled poll.
		m.SendPollSignal(signal)
	}
}

// pollIntradayMarkets queues intraday polls for all tracked markets while the
// exchange is open.
func (m *Manager) pollIntradayMarkets() {
	now, _, err := shared.TokyoTime()
	if err != nil {
		m.cfg.Logger.Error().Msgf("fetching tokyo time: %v", err)
		return
	}

	open, _, err := shared.IsMarketOpen(now)
	if err != nil {
		m.cfg.Logger.Error().Msgf("checking market hours: %v", err)
		return
	}
	if !open {
		return
	}

	for idx := range m.cfg.Markets {
		m.SendPollSignal(pollSignal{Market: m.cfg.Markets[idx], Timeframe: shared.FifteenMinute})
	}
}

// pollDailyMarkets queues daily polls for all tracked markets.
func (m *Manager) pollDailyMarkets() {
	for idx := range m.cfg.Markets {
		m.SendPollSignal(pollSignal{Market: m.cfg.Markets[idx], Timeframe: shared.OneDay})
	}
}

// catchUp queues the initial history polls for all tracked markets.
func (m *Manager) catchUp() {
	for idx := range m.cfg.Markets {
		m.SendPollSignal(pollSignal{Market: m.cfg.Markets[idx], Timeframe: shared.FifteenMinute})
		m.SendPollSignal(pollSignal{Market: m.cfg.Markets[idx], Timeframe: shared.OneDay})
	}
}

// Run manages the lifecycle processes of the market data manager.
func (m *Manager) Run(ctx context.Context) {
	_, err := m.jobScheduler.NewJob(gocron.DurationJob(pollInterval),
		gocron.NewTask(m.pollIntradayMarkets))
	if err != nil {
		m.cfg.Logger.Error().Msgf("creating intraday poll job: %v", err)
		return
	}

	_, err = m.jobScheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(dailyPollHour, dailyPollMinute, 0))),
		gocron.NewTask(m.pollDailyMarkets))
	if err != nil {
		m.cfg.Logger.Error().Msgf("creating daily poll job: %v", err)
		return
	}

	m.jobScheduler.Start()
	m.catchUp()

	for {
		select {
		case <-ctx.Done():
			err := m.jobScheduler.Shutdown()
			if err != nil {
				m.cfg.Logger.Error().Msgf("shutting down job scheduler: %v", err)
			}
			return
		case signal := <-m.pollSignals:
			m.workers <- struct{}{}
			go func(signal *pollSignal) {
				m.handlePollSignal(*signal)
				<-m.workers
			}(&signal)
		}
	}
}
