package notify

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dnldd/radar/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
)

// mockSink relays delivered notifications on a channel.
type mockSink struct {
	messages chan string
	sendErr  error
}

func newMockSink() *mockSink {
	return &mockSink{messages: make(chan string, bufferSize)}
}

func (m *mockSink) Send(ctx context.Context, title string, message string) error {
	if m.sendErr != nil {
		return m.sendErr
	}

	m.messages <- message
	return nil
}

// mockStore records persisted alert events.
type mockStore struct {
	persisted []shared.AlertEvent
}

func (m *mockStore) PersistAlert(ctx context.Context, event *shared.AlertEvent) error {
	m.persisted = append(m.persisted, *event)
	return nil
}

func (m *mockStore) FetchAlertedMarkets(ctx context.Context, day string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func setupAlertManager(t *testing.T, sink *mockSink, store *mockStore) *Manager {
	logger := zerolog.Nop()
	mgr, err := NewManager(&ManagerConfig{
		Sink:   sink,
		Store:  store,
		Logger: &logger,
	})
	assert.NoError(t, err)

	return mgr
}

func TestAlertManagerConfigValidate(t *testing.T) {
	logger := zerolog.Nop()

	// Ensure an empty config is invalid.
	cfg := &ManagerConfig{}
	assert.Error(t, cfg.Validate())

	// Ensure a complete config is valid.
	cfg = &ManagerConfig{
		Sink:   newMockSink(),
		Store:  &mockStore{},
		Logger: &logger,
	}
	assert.NoError(t, cfg.Validate())

	// Ensure the store is optional.
	cfg = &ManagerConfig{
		Sink:   newMockSink(),
		Logger: &logger,
	}
	assert.NoError(t, cfg.Validate())
}

func TestFormatAlertMessage(t *testing.T) {
	created := time.Date(2025, time.June, 2, 10, 15, 0, 0, time.UTC)

	// Ensure the breakout retrace message carries the dea and peak dif.
	event := shared.NewAlertEvent("7203.T", shared.FifteenMinute, shared.FullBreakoutRetrace,
		[]shared.Reason{shared.DEARetracedHalfPeak}, created)
	event.PeakDIF = 6
	event.DEA = 2.4

	message := formatAlertMessage(&event)
	assert.True(t, strings.Contains(message, "7203.T"))
	assert.True(t, strings.Contains(message, "15m"))
	assert.True(t, strings.Contains(message, "2.4000"))
	assert.True(t, strings.Contains(message, "6.0000"))

	// Ensure the three track message carries the close, rsi and all reasons.
	event = shared.NewAlertEvent("9984.T", shared.OneDay, shared.ThreeTrackConfirm,
		[]shared.Reason{shared.LowerBandTouch, shared.RSIReversal, shared.MACDGoldenCross}, created)
	event.Close = 98.5
	event.RSI = 45.2

	message = formatAlertMessage(&event)
	assert.True(t, strings.Contains(message, "9984.T"))
	assert.True(t, strings.Contains(message, "98.50"))
	assert.True(t, strings.Contains(message, "45.2"))
	assert.True(t, strings.Contains(message, shared.MACDGoldenCross.String()))
}

func TestAlertManagerDelivery(t *testing.T) {
	sink := newMockSink()
	store := &mockStore{}
	mgr := setupAlertManager(t, sink, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		mgr.Run(ctx)
		close(done)
	}()

	// Ensure a relayed alert is persisted and delivered.
	event := shared.NewAlertEvent("7203.T", shared.FifteenMinute, shared.FullBreakoutRetrace,
		[]shared.Reason{shared.DEARetracedHalfPeak}, time.Now())
	mgr.SendAlert(event)

	select {
	case message := <-sink.messages:
		assert.True(t, strings.Contains(message, "7203.T"))
	case <-time.After(time.Second * 5):
		t.Fatal("timed out waiting for alert delivery")
	}

	// Persistence precedes delivery in the handler, so the store is settled
	// once the message arrives.
	assert.Equal(t, len(store.persisted), 1)
	assert.Equal(t, store.persisted[0].ID, event.ID)

	cancel()
	select {
	case <-done:
		// do nothing.
	case <-time.After(time.Second * 5):
		t.Fatal("timed out waiting for alert manager shutdown")
	}
}

func TestAlertManagerDeliveryFailure(t *testing.T) {
	sink := newMockSink()
	sink.sendErr = fmt.Errorf("push service unavailable")
	store := &mockStore{}
	mgr := setupAlertManager(t, sink, store)

	// Ensure a delivery failure still persists the alert.
	event := shared.NewAlertEvent("7203.T", shared.FifteenMinute, shared.FullBreakoutRetrace,
		[]shared.Reason{shared.DEARetracedHalfPeak}, time.Now())
	mgr.handleAlertSignal(context.Background(), &event)

	assert.Equal(t, len(sink.messages), 0)
	assert.Equal(t, len(store.persisted), 1)
}
