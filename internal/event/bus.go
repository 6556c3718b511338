package event

import (
	"self-checkout/internal/money"
	"self-checkout/internal/types"
	"sync"
)

// EventType 定义事件的类型
type EventType string

// 定义所有业务事件类型
const (
	StateChanged         EventType = "StateChanged"         // 收银台状态变化
	ItemAdded            EventType = "ItemAdded"            // 商品加入购物车
	ItemRemoved          EventType = "ItemRemoved"          // 商品移出购物车
	StationBlocked       EventType = "StationBlocked"       // 收银台被锁定，需要店员处理
	StationUnblocked     EventType = "StationUnblocked"     // 店员解锁
	PaymentAccepted      EventType = "PaymentAccepted"      // 收到一笔投币/纸币
	TransactionCompleted EventType = "TransactionCompleted" // 交易完成
	TransactionAbandoned EventType = "TransactionAbandoned" // 交易被放弃（关机）
)

// Event 结构体定义了事件的数据负载
type Event struct {
	Type          EventType
	StationID     string
	TransactionID string
	From          types.State      // 仅 StateChanged
	To            types.State      // 仅 StateChanged
	Cause         types.BlockCause // 仅 StationBlocked
	Deviation     float64          // 仅重量异常导致的 StationBlocked
	Entry         *types.EntryView // 仅 ItemAdded / ItemRemoved
	Amount        money.Cents      // PaymentAccepted 的面额
	Device        types.DeviceID   // 事件来源设备（如有）
	Receipt       *types.Receipt   // 仅 TransactionCompleted
	Snapshot      types.Snapshot   // 事件发生后的收银台快照
}

// Handler 是事件处理函数的签名
type Handler func(e Event)

// Bus 是一个简单的内存事件总线
// 处理器按注册顺序同步调用，处理器内部不能阻塞
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler // 存储事件类型到多个处理函数的映射
	all      []Handler               // 订阅全部事件的处理函数
}

// NewBus 创建一个新的事件总线实例
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe 订阅一个特定类型的事件
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll 订阅所有类型的事件
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish 发布一个事件，先调用特定类型的处理器，再调用订阅全部事件的处理器
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := append(append([]Handler(nil), b.handlers[e.Type]...), b.all...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(e)
	}
}
