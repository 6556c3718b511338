package handlers

import (
	"log/slog"
	"self-checkout/internal/alert"
	"self-checkout/internal/event"
	"self-checkout/internal/metrics"
	"self-checkout/internal/types"
	"self-checkout/internal/web"
)

// allStates 用于在状态切换时把其它状态的仪表盘清零
var allStates = []types.State{
	types.StateUnavailable,
	types.StateReady,
	types.StateScanning,
	types.StateCheckout,
	types.StateBlocked,
}

// RegisterEventHandlers 将所有事件处理器注册到事件总线
// 将不同的关注点（监控、UI、日志、告警）与收银台控制器解耦
// st 和 alerts 可以为 nil
func RegisterEventHandlers(bus *event.Bus, st *web.StateTracker, alerts *alert.Engine, logger *slog.Logger) {
	// --- 指标处理器 (Metrics Handler) ---
	bus.Subscribe(event.StateChanged, func(e event.Event) {
		for _, s := range allStates {
			v := 0.0
			if s == e.To {
				v = 1
			}
			metrics.StationState.WithLabelValues(e.StationID, string(s)).Set(v)
		}
	})
	bus.Subscribe(event.ItemAdded, func(e event.Event) {
		metrics.ItemsScannedTotal.WithLabelValues(e.StationID).Inc()
	})
	bus.Subscribe(event.ItemRemoved, func(e event.Event) {
		metrics.ItemsRemovedTotal.WithLabelValues(e.StationID).Inc()
	})
	bus.Subscribe(event.PaymentAccepted, func(e event.Event) {
		metrics.TenderedCentsTotal.WithLabelValues(e.StationID).Add(float64(e.Amount))
	})
	bus.Subscribe(event.TransactionCompleted, func(e event.Event) {
		metrics.TransactionsTotal.WithLabelValues(e.StationID, "completed").Inc()
		if e.Receipt != nil {
			metrics.TransactionValue.Observe(float64(e.Receipt.Total))
		}
	})
	bus.Subscribe(event.TransactionAbandoned, func(e event.Event) {
		metrics.TransactionsTotal.WithLabelValues(e.StationID, "abandoned").Inc()
	})
	bus.Subscribe(event.StationBlocked, func(e event.Event) {
		metrics.BlocksTotal.WithLabelValues(e.StationID, string(e.Cause)).Inc()
	})

	// --- Web UI 处理器 (Web UI Handler) ---
	// 每个事件都携带最新快照，直接交给 StateTracker
	if st != nil {
		bus.SubscribeAll(func(e event.Event) {
			st.Update(e.Snapshot)
		})
	}

	// --- 告警处理器 (Alert Handler) ---
	if alerts != nil && alerts.Len() > 0 {
		bus.Subscribe(event.StationBlocked, func(e event.Event) {
			matched, err := alerts.Evaluate(alert.EnvFromEvent(e))
			if err != nil {
				logger.Error("告警规则执行失败", "station_id", e.StationID, "error", err)
			}
			for _, name := range matched {
				metrics.AlertsTotal.WithLabelValues(e.StationID, name).Inc()
				logger.Warn("需要店员处理", "station_id", e.StationID, "rule", name,
					"cause", e.Cause, "deviation_g", e.Deviation)
			}
		})
	}

	// --- 日志处理器 (Logging Handler) ---
	// 订阅关键业务事件，记录审计日志
	bus.Subscribe(event.StationBlocked, func(e event.Event) {
		logger.Warn("收银台已锁定", "station_id", e.StationID, "transaction_id", e.TransactionID,
			"cause", e.Cause, "deviation_g", e.Deviation)
	})
	bus.Subscribe(event.StationUnblocked, func(e event.Event) {
		logger.Info("收银台已解锁", "station_id", e.StationID, "transaction_id", e.TransactionID)
	})
	bus.Subscribe(event.TransactionCompleted, func(e event.Event) {
		if e.Receipt == nil {
			return
		}
		logger.Info("交易完成", "station_id", e.StationID, "transaction_id", e.TransactionID,
			"total", e.Receipt.Total.String(), "tendered", e.Receipt.Tendered.String(),
			"change", e.Receipt.Change.String())
	})
	bus.Subscribe(event.TransactionAbandoned, func(e event.Event) {
		logger.Warn("交易已放弃", "station_id", e.StationID, "transaction_id", e.TransactionID)
	})
}
