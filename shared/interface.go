package shared

import (
	"context"
	"time"

	"github.com/tidwall/gjson"
)

// MarketFetcher defines the requirements for fetching market bar data.
type MarketFetcher interface {
	// FetchHistorical fetches historical market data for the provided timeframe.
	FetchHistorical(ctx context.Context, market string, timeframe Timeframe, start time.Time, end time.Time) ([]gjson.Result, error)
}

// AlertSink defines the requirements for delivering alert notifications.
type AlertSink interface {
	// Send delivers the provided notification message.
	Send(ctx context.Context, title string, message string) error
}

// AlertStore defines the requirements for persisting emitted alerts.
type AlertStore interface {
	// PersistAlert stores the provided alert event.
	PersistAlert(ctx context.Context, event *AlertEvent) error
	// FetchAlertedMarkets fetches the set of markets already alerted on the
	// provided trading date.
	FetchAlertedMarkets(ctx context.Context, day string) (map[string]struct{}, error)
}
