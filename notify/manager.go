package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dnldd/radar/shared"
	"github.com/rs/zerolog"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// alertTitle is the push notification title for pattern alerts.
	alertTitle = "Radar Alert"
)

// ManagerConfig represents the configuration for the alert manager.
type ManagerConfig struct {
	// Sink represents the notification delivery sink.
	Sink shared.AlertSink
	// Store represents the alert persistence store. A nil store skips
	// persistence, dedup then only lives in the in-memory gate.
	Store shared.AlertStore
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if cfg.Sink == nil {
		errs = errors.Join(errs, fmt.Errorf("alert sink cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Manager represents the alert manager. It formats completed pattern alerts,
// persists them and delivers them through the configured sink.
type Manager struct {
	cfg          *ManagerConfig
	alertSignals chan shared.AlertEvent
}

// NewManager initializes the alert manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:          cfg,
		alertSignals: make(chan shared.AlertEvent, bufferSize),
	}, nil
}

// SendAlert relays the provided alert event for delivery.
func (m *Manager) SendAlert(event shared.AlertEvent) {
	select {
	case m.alertSignals <- event:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("alert channel at capacity: %d/%d",
			len(m.alertSignals), bufferSize)
	}
}

// formatAlertMessage builds the notification body for the provided alert event.
func formatAlertMessage(event *shared.AlertEvent) string {
	reasons := make([]string, len(event.Reasons))
	for idx := range event.Reasons {
		reasons[idx] = event.Reasons[idx].String()
	}

	switch event.Kind {
	case shared.FullBreakoutRetrace:
		return fmt.Sprintf("%s (%s): %s, dea %.4f vs peak dif %.4f",
			event.Market, event.Timeframe.String(), strings.Join(reasons, ", "),
			event.DEA, event.PeakDIF)
	case shared.ThreeTrackConfirm:
		return fmt.Sprintf("%s (%s): %s, close %.2f, rsi %.1f",
			event.Market, event.Timeframe.String(), strings.Join(reasons, ", "),
			event.Close, event.RSI)
	default:
		return fmt.Sprintf("%s (%s): %s", event.Market, event.Timeframe.String(),
			strings.Join(reasons, ", "))
	}
}

// handleAlertSignal persists and delivers the provided alert event. Delivery
// failures are logged without retrying the event, the daily gate upstream has
// already recorded the alert.
func (m *Manager) handleAlertSignal(ctx context.Context, event *shared.AlertEvent) {
	if m.cfg.Store != nil {
		err := m.cfg.Store.PersistAlert(ctx, event)
		if err != nil {
			m.cfg.Logger.Error().Msgf("persisting %s alert for %s: %v",
				event.Kind.String(), event.Market, err)
		}
	}

	message := formatAlertMessage(event)
	err := m.cfg.Sink.Send(ctx, alertTitle, message)
	if err != nil {
		m.cfg.Logger.Error().Msgf("delivering %s alert for %s: %v",
			event.Kind.String(), event.Market, err)
	} else {
		m.cfg.Logger.Info().Msgf("delivered alert: %s", message)
	}
}

// Run manages the lifecycle processes of the alert manager.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-m.alertSignals:
			m.handleAlertSignal(ctx, &event)
		}
	}
}
