package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 定义 Prometheus 监控指标
var (
	// EventQueueDepth 仪表盘：控制器事件队列中等待处理的请求数
	// 用于监控设备事件积压情况
	EventQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "checkout_event_queue_depth",
		Help: "The number of requests waiting in the station controller queue",
	})

	// StationState 仪表盘：每个状态一个序列，当前状态为 1
	StationState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "checkout_station_state",
		Help: "Current station state (1 for the active state)",
	}, []string{"station_id", "state"})

	// ItemsScannedTotal 计数器：加入购物车的商品数
	ItemsScannedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_items_added_total",
		Help: "The total number of cart entries added",
	}, []string{"station_id"})

	// ItemsRemovedTotal 计数器：从购物车删除的商品数
	ItemsRemovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_items_removed_total",
		Help: "The total number of cart entries removed",
	}, []string{"station_id"})

	// TransactionsTotal 计数器：按结果 (completed/abandoned) 分类的交易数
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_transactions_total",
		Help: "The total number of finished transactions",
	}, []string{"station_id", "outcome"})

	// TenderedCentsTotal 计数器：收到的现金（分）
	TenderedCentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_tendered_cents_total",
		Help: "The total amount of cash accepted, in cents",
	}, []string{"station_id"})

	// BlocksTotal 计数器：按原因分类的锁定次数
	BlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_station_blocks_total",
		Help: "The total number of times the station was blocked",
	}, []string{"station_id", "cause"})

	// AlertsTotal 计数器：命中的店员告警规则
	AlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attendant_alerts_total",
		Help: "The total number of attendant alert rules that matched",
	}, []string{"station_id", "rule"})

	// WeightDeviation 直方图：秤读数与预期重量的偏差分布（克）
	WeightDeviation = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_weight_deviation_grams",
		Help:    "Absolute deviation between scale reading and expected weight",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})

	// TransactionValue 直方图：完成交易的金额分布（分）
	TransactionValue = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_transaction_value_cents",
		Help:    "Total value of completed transactions, in cents",
		Buckets: prometheus.ExponentialBuckets(100, 2, 12),
	})
)
