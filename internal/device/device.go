package device

import (
	"errors"
	"fmt"
	"log/slog"
	"self-checkout/internal/money"
	"self-checkout/internal/types"
	"sync"
)

var (
	ErrDisabled        = errors.New("device is disabled")
	ErrOverload        = errors.New("device overloaded")
	ErrInvalidArgument = errors.New("device: invalid argument")
)

// Kind 设备事件类型
type Kind string

const (
	KindScan     Kind = "SCAN"     // 扫描到条码
	KindWeight   Kind = "WEIGHT"   // 秤的读数变化
	KindOverload Kind = "OVERLOAD" // 秤超出量程
	KindCoin     Kind = "COIN"     // 收到硬币
	KindBanknote Kind = "BANKNOTE" // 收到纸币
	KindPrinted  Kind = "PRINTED"  // 小票已打印
)

// Event 是设备发出的类型化事件
type Event struct {
	Device types.DeviceID
	Kind   Kind
	Code   string      // KindScan
	Weight float64     // KindWeight / KindOverload，秤上的总重量（克）
	Value  money.Cents // KindCoin / KindBanknote
}

// Handler 是设备观察者
type Handler func(e Event)

// Device 定义所有硬件的通用接口
type Device interface {
	ID() types.DeviceID
	AttachObserver(h Handler) error
	Enable()
	Disable()
	Enabled() bool
}

// base 实现了 Device 的公共部分：启用状态和观察者列表
type base struct {
	id        types.DeviceID
	mu        sync.Mutex
	enabled   bool
	observers []Handler
	enables   int
	disables  int
	logger    *slog.Logger
}

func newBase(id types.DeviceID, logger *slog.Logger) base {
	return base{id: id, logger: logger.With("device_id", id)}
}

func (b *base) ID() types.DeviceID {
	return b.id
}

func (b *base) AttachObserver(h Handler) error {
	if h == nil {
		return fmt.Errorf("%w: observer is nil", ErrInvalidArgument)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, h)
	return nil
}

func (b *base) Enable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = true
	b.enables++
	b.logger.Debug("设备启用")
}

func (b *base) Disable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = false
	b.disables++
	b.logger.Debug("设备禁用")
}

func (b *base) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// EnableCount 返回 Enable 被调用的次数
func (b *base) EnableCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enables
}

// DisableCount 返回 Disable 被调用的次数
func (b *base) DisableCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disables
}

// emit 通知所有观察者
// 观察者在锁外调用，观察者内部阻塞不会卡住 Enable/Disable
func (b *base) emit(e Event) error {
	b.mu.Lock()
	if !b.enabled {
		b.mu.Unlock()
		return ErrDisabled
	}
	e.Device = b.id
	observers := make([]Handler, len(b.observers))
	copy(observers, b.observers)
	b.mu.Unlock()

	for _, h := range observers {
		h(e)
	}
	return nil
}
