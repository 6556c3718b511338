package types

import (
	"self-checkout/internal/money"
	"time"
)

// DeviceID 定义硬件设备 ID
// 使用字符串类型，方便在日志和配置中直接使用
type DeviceID string

const (
	// 自助收银台硬件常量定义
	DeviceMainScanner     DeviceID = "MAIN_SCANNER"     // 台面扫描枪
	DeviceHandheldScanner DeviceID = "HANDHELD_SCANNER" // 手持扫描枪
	DeviceBaggingScale    DeviceID = "BAGGING_SCALE"    // 装袋区电子秤
	DeviceCoinSlot        DeviceID = "COIN_SLOT"        // 硬币投币口
	DeviceBanknoteSlot    DeviceID = "BANKNOTE_SLOT"    // 纸币入钞口
	DeviceReceiptPrinter  DeviceID = "RECEIPT_PRINTER"  // 小票打印机
)

// State 定义收银台状态，由 FSM 管理
type State string

const (
	StateUnavailable State = "UNAVAILABLE"
	StateReady       State = "READY"
	StateScanning    State = "SCANNING"
	StateCheckout    State = "CHECKOUT"
	StateBlocked     State = "BLOCKED"
)

// BlockCause 标记进入 Blocked 的原因，只是标签，不同原因都需要店员解锁
type BlockCause string

const (
	CauseNone              BlockCause = ""
	CauseWeightDiscrepancy BlockCause = "weight_discrepancy" // 装袋区重量与购物车不一致
	CauseOwnBags           BlockCause = "own_bags"           // 顾客选择自带购物袋，不参与称重
	CauseAttendant         BlockCause = "attendant"          // 手动锁定
	CauseScaleOverload     BlockCause = "scale_overload"     // 装袋区超出秤的量程
)

// EntryView 是购物车条目在展示层的只读视图
type EntryView struct {
	ID     int         `json:"id"`
	Code   string      `json:"code"`
	Name   string      `json:"name"`
	Weight float64     `json:"weight_g"`
	Price  money.Cents `json:"price_cents"`
}

// Snapshot 是某一时刻收银台的完整只读快照
// Version 单调递增，用于展示层丢弃过期快照
type Snapshot struct {
	Version        uint64      `json:"version"`
	StationID      string      `json:"station_id"`
	State          State       `json:"state"`
	PreviousState  State       `json:"previous_state,omitempty"`
	BlockCause     BlockCause  `json:"block_cause,omitempty"`
	TransactionID  string      `json:"transaction_id,omitempty"`
	Entries        []EntryView `json:"entries"`
	Total          money.Cents `json:"total_cents"`
	Due            money.Cents `json:"due_cents"`
	Tendered       money.Cents `json:"tendered_cents"`
	RemainingDue   money.Cents `json:"remaining_due_cents"`
	ExpectedWeight float64     `json:"expected_weight_g"`
	ScaleWeight    float64     `json:"scale_weight_g"`
	RemovalOpen    bool        `json:"removal_open"`
}

// Receipt 表示一笔已完成交易的小票
type Receipt struct {
	TransactionID string      `json:"transaction_id"`
	StationID     string      `json:"station_id"`
	Entries       []EntryView `json:"entries"`
	Total         money.Cents `json:"total_cents"`
	Tendered      money.Cents `json:"tendered_cents"`
	Change        money.Cents `json:"change_cents"`
	CompletedAt   time.Time   `json:"completed_at"`
}
