package handlers

import (
	"bytes"
	"log/slog"
	"self-checkout/internal/alert"
	"self-checkout/internal/event"
	"self-checkout/internal/metrics"
	"self-checkout/internal/money"
	"self-checkout/internal/types"
	"self-checkout/internal/web"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers_MetricsAndTracker(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	bus := event.NewBus()
	st := web.NewStateTracker(nil)
	RegisterEventHandlers(bus, st, nil, logger)

	const station = "handlers-test-1"
	bus.Publish(event.Event{
		Type: event.StateChanged, StationID: station,
		From: types.StateReady, To: types.StateScanning,
		Snapshot: types.Snapshot{Version: 3, State: types.StateScanning},
	})
	bus.Publish(event.Event{Type: event.ItemAdded, StationID: station, Snapshot: types.Snapshot{Version: 4, State: types.StateScanning}})
	bus.Publish(event.Event{Type: event.PaymentAccepted, StationID: station, Amount: 500, Snapshot: types.Snapshot{Version: 5, State: types.StateCheckout}})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StationState.WithLabelValues(station, string(types.StateScanning))))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.StationState.WithLabelValues(station, string(types.StateReady))))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ItemsScannedTotal.WithLabelValues(station)))
	assert.Equal(t, 500.0, testutil.ToFloat64(metrics.TenderedCentsTotal.WithLabelValues(station)))
	assert.Equal(t, uint64(5), st.GetStateSnapshot().Version)
	assert.Equal(t, types.StateCheckout, st.GetStateSnapshot().State)
}

func TestHandlers_AlertRules(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	engine, err := alert.NewEngine([]alert.Rule{
		{Name: "large_discrepancy", When: `Cause == "weight_discrepancy" && Deviation > 500`},
	})
	require.NoError(t, err)

	bus := event.NewBus()
	RegisterEventHandlers(bus, nil, engine, logger)

	const station = "handlers-test-2"
	bus.Publish(event.Event{Type: event.StationBlocked, StationID: station, Cause: types.CauseWeightDiscrepancy, Deviation: 800})
	bus.Publish(event.Event{Type: event.StationBlocked, StationID: station, Cause: types.CauseWeightDiscrepancy, Deviation: 20})
	bus.Publish(event.Event{
		Type: event.TransactionCompleted, StationID: station,
		Receipt: &types.Receipt{Total: money.Cents(200), Tendered: 500, Change: 300},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AlertsTotal.WithLabelValues(station, "large_discrepancy")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.BlocksTotal.WithLabelValues(station, string(types.CauseWeightDiscrepancy))))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransactionsTotal.WithLabelValues(station, "completed")))
	assert.Contains(t, buf.String(), "large_discrepancy")
	assert.Contains(t, buf.String(), `"change":"3.00"`)
}
