package database

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dnldd/radar/shared"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createAlertTableSQL    = "CREATE TABLE IF NOT EXISTS alert (id TEXT PRIMARY KEY, market TEXT, timeframe TEXT, kind INTEGER, reasons TEXT, day TEXT, peakdif REAL, dea REAL, rsi REAL, close REAL, createdon INTEGER)"
	createAlertDayIndexSQL = "CREATE INDEX IF NOT EXISTS alert_day_idx ON alert (day)"
	persistAlertSQL        = "INSERT INTO alert(id, market, timeframe, kind, reasons, day, peakdif, dea, rsi, close, createdon) VALUES(?,?,?,?,?,?,?,?,?,?,?)"
	alertedMarketsSQL      = "SELECT DISTINCT market FROM alert WHERE day = ?"
)

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the AlertStore interface.
var _ shared.AlertStore = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createAlertTableSQL},
		{SQL: createAlertDayIndexSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// joinReasons flattens the provided alert reasons for storage.
func joinReasons(reasons []shared.Reason) string {
	parts := make([]string, len(reasons))
	for idx := range reasons {
		parts[idx] = reasons[idx].String()
	}

	return strings.Join(parts, ", ")
}

// PersistAlert stores the provided alert event.
func (db *Database) PersistAlert(ctx context.Context, event *shared.AlertEvent) error {
	day := shared.TradingDate(event.CreatedOn)

	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistAlertSQL,
			PositionalParams: []any{event.ID, event.Market, event.Timeframe.String(), int(event.Kind),
				joinReasons(event.Reasons), day, event.PeakDIF, event.DEA, event.RSI, event.Close,
				event.CreatedOn.Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting alert %s: %d -> %s", event.ID, idx, errStr)
	}

	return nil
}

// FetchAlertedMarkets fetches the set of markets already alerted on the
// provided trading date, used to warm the daily alert gate on restart.
func (db *Database) FetchAlertedMarkets(ctx context.Context, day string) (map[string]struct{}, error) {
	resp, err := db.client.QuerySingle(ctx, alertedMarketsSQL, day)
	if err != nil {
		return nil, err
	}

	markets := make(map[string]struct{})
	for _, result := range resp.GetQueryResultsAssoc() {
		for _, row := range result.Rows {
			market, ok := row["market"].(string)
			if !ok {
				db.cfg.Logger.Error().Msgf("unexpected market column type for alerted markets on %s", day)
				continue
			}

			markets[market] = struct{}{}
		}
	}

	return markets, nil
}
