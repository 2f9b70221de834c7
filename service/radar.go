package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dnldd/radar/database"
	"github.com/dnldd/radar/engine"
	"github.com/dnldd/radar/fetch"
	"github.com/dnldd/radar/indicator"
	"github.com/dnldd/radar/notify"
	"github.com/dnldd/radar/shared"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// RadarConfig represents the configuration struct for the radar service.
type RadarConfig struct {
	// Markets represents the tracked markets.
	Markets []string
	// BarkKey is the bark push notification device key.
	BarkKey string
	// DBEndpoint represents the database connection endpoint.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string
	// Scan is the one-shot oversold crossover scan flag.
	Scan bool
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config has sane inputs.
func (cfg *RadarConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for radar service"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}
	if !cfg.Scan && cfg.BarkKey == "" {
		errs = errors.Join(errs, fmt.Errorf("bark key cannot be an empty string"))
	}

	return errs
}

// Radar represents a market pattern alerting service.
type Radar struct {
	cfg           *RadarConfig
	exchange      *fetch.YahooClient
	fetchManager  *fetch.Manager
	alertManager  *notify.Manager
	patternEngine *engine.Engine
	db            *database.Database
	logger        *zerolog.Logger
	wg            sync.WaitGroup
}

// NewRadar initializes a new radar service.
func NewRadar(ctx context.Context, cfg *RadarConfig) (*Radar, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "radar").Logger()
	exchange := fetch.NewYahooClient(&fetch.YahooConfig{})

	service := &Radar{
		cfg:      cfg,
		exchange: exchange,
		logger:   &logger,
	}

	if cfg.Scan {
		// The one-shot scan only needs the exchange client.
		return service, nil
	}

	// Persistence is optional, without a database the daily dedup lives
	// only in the in-memory gate.
	var db *database.Database
	var store shared.AlertStore
	if cfg.DBEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err = database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating database: %v", err)
		}
		store = db
	}

	bark := notify.NewBarkClient(&notify.BarkConfig{Key: cfg.BarkKey})

	alertMgrLogger := logger.With().Str("component", "alertmanager").Logger()
	alertMgr, err := notify.NewManager(&notify.ManagerConfig{
		Sink:   bark,
		Store:  store,
		Logger: &alertMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating alert manager: %v", err)
	}

	engineLogger := logger.With().Str("component", "engine").Logger()
	patternEngine, err := engine.NewEngine(&engine.EngineConfig{
		Markets:   cfg.Markets,
		SendAlert: alertMgr.SendAlert,
		Logger:    &engineLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating pattern engine: %v", err)
	}

	if db != nil {
		// Warm the daily alert gate with alerts already recorded for the
		// current trading date so a restart cannot duplicate notifications.
		now, _, err := shared.TokyoTime()
		if err != nil {
			return nil, fmt.Errorf("fetching tokyo time: %v", err)
		}

		day := shared.TradingDate(now)
		alerted, err := db.FetchAlertedMarkets(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("fetching alerted markets for %s: %v", day, err)
		}
		patternEngine.WarmGate(day, alerted)
	}

	fetchMgrLogger := logger.With().Str("component", "fetchmanager").Logger()
	fetchMgr, err := fetch.NewManager(&fetch.ManagerConfig{
		Markets:        cfg.Markets,
		ExchangeClient: exchange,
		SendSnapshot:   patternEngine.SendSnapshot,
		SignalCaughtUp: patternEngine.SendCaughtUpSignal,
		Logger:         &fetchMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fetch manager: %v", err)
	}

	service.db = db
	service.alertManager = alertMgr
	service.patternEngine = patternEngine
	service.fetchManager = fetchMgr

	return service, nil
}

// RunScan fetches daily history for the tracked markets, screens them for
// oversold markets with a bullish macd posture and logs the ranked matches.
func (r *Radar) RunScan(ctx context.Context) error {
	now := time.Now()
	matches := make([]engine.ScreenMatch, 0, len(r.cfg.Markets))

	for idx := range r.cfg.Markets {
		market := r.cfg.Markets[idx]

		data, err := r.exchange.FetchHistorical(ctx, market, shared.OneDay,
			now.AddDate(0, 0, -180), now)
		if err != nil {
			r.logger.Error().Msgf("fetching daily history for %s: %v", market, err)
			continue
		}

		candles, err := r.exchange.ParseCandlesticks(data, market, shared.OneDay)
		if err != nil {
			r.logger.Error().Msgf("parsing candlesticks for %s: %v", market, err)
			continue
		}

		source := indicator.NewSource(market, shared.OneDay)
		snapshots, err := source.Snapshots(candles)
		if err != nil {
			r.logger.Error().Msgf("computing snapshots for %s: %v", market, err)
			continue
		}

		latest := snapshots[len(snapshots)-1]
		if engine.OversoldCrossover(&latest) {
			matches = append(matches, engine.NewScreenMatch(&latest))
		}
	}

	engine.RankScreenMatches(matches)

	if len(matches) == 0 {
		r.logger.Info().Msg("no markets matched the oversold crossover screen")
		return nil
	}

	for idx := range matches {
		match := matches[idx]
		r.logger.Info().Msgf("%d. %s: price %.2f, rsi %.1f, dif %.4f, dea %.4f, strength %.4f",
			idx+1, match.Market, match.Price, match.RSI, match.DIF, match.DEA, match.Strength)
	}

	return nil
}

// Run handles the lifecycle processes of the radar service.
func (r *Radar) Run(ctx context.Context) {
	if r.cfg.Scan {
		err := r.RunScan(ctx)
		if err != nil {
			r.logger.Error().Msgf("running scan: %v", err)
		}

		r.cfg.Cancel()
		return
	}

	r.wg.Add(3)

	go func() {
		r.patternEngine.Run(ctx)
		r.wg.Done()
	}()

	go func() {
		r.alertManager.Run(ctx)
		r.wg.Done()
	}()

	go func() {
		r.fetchManager.Run(ctx)
		r.wg.Done()
	}()

	r.wg.Wait()
}
