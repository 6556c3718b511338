package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"self-checkout/internal/bagging"
	"self-checkout/internal/cart"
	"self-checkout/internal/catalog"
	"self-checkout/internal/device"
	"self-checkout/internal/event"
	"self-checkout/internal/fsm"
	"self-checkout/internal/metrics"
	"self-checkout/internal/money"
	"self-checkout/internal/payment"
	"self-checkout/internal/types"
	"sync"
)

var (
	ErrInvalidTransition = errors.New("station: command not allowed in current state")
	ErrBlocked           = errors.New("station: blocked, attendant required")
	ErrStopped           = errors.New("station: controller stopped")
	ErrInvalidArgument   = errors.New("station: invalid argument")
	ErrRemovalInProgress = errors.New("station: another removal is in progress")
)

// Scale 是控制器需要的电子秤能力
type Scale interface {
	device.Device
	Sensitivity() float64
}

// Printer 是控制器需要的小票打印机能力
type Printer interface {
	device.Device
	Print(r types.Receipt) error
}

// Hardware 是控制器挂接的全部输入输出设备
type Hardware struct {
	Scanners []device.Device
	Scale    Scale
	Slots    []device.Device
	Printer  Printer
}

// HardwareFrom 从模拟硬件构建 Hardware
func HardwareFrom(s *device.Station) Hardware {
	return Hardware{
		Scanners: []device.Device{s.MainScanner, s.HandheldScanner},
		Scale:    s.Scale,
		Slots:    []device.Device{s.CoinSlot, s.BanknoteSlot},
		Printer:  s.Printer,
	}
}

// Journal 记录交易生命周期，可以为 nil
type Journal interface {
	Begin(txnID, stationID string) error
	Complete(r types.Receipt) error
	Abandon(txnID, reason string) error
}

// Options 是控制器的可选配置
type Options struct {
	StationID     string
	BagCode       string
	Denominations []money.Cents
	QueueSize     int
	Journal       Journal
	Bus           *event.Bus
	Logger        *slog.Logger
}

// request 是进入事件循环的一条请求
// reply 为 nil 表示设备事件（无需回复，错误只记录日志）
type request struct {
	name  string
	fn    func() error
	reply chan error
}

// Controller 是收银台的顶层状态机
//
// 所有修改购物车、装袋区、支付账本和状态的操作都在 Run 的单个 goroutine 中执行；
// 设备观察者和展示层命令只负责入队。处理一个请求期间持有写锁，
// 展示层通过读锁获取快照，无需进入事件循环。
type Controller struct {
	id      string
	bagCode string
	catalog catalog.Catalog
	hw      Hardware
	journal Journal
	bus     *event.Bus
	logger  *slog.Logger

	requests chan request
	done     chan struct{}
	runOnce  sync.Once

	mu         sync.RWMutex
	machine    *fsm.FSM
	cause      types.BlockCause
	txnID      string
	cart       *cart.Cart
	reconciler *bagging.Reconciler
	ledger     *payment.Ledger
	enabled    map[types.DeviceID]bool
	version    uint64
	outbox     []event.Event
}

// New 创建控制器并挂接到硬件
// 灵敏度在构造时从电子秤读取一次
func New(c catalog.Catalog, hw Hardware, opts Options) (*Controller, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: catalog is nil", ErrInvalidArgument)
	}
	if hw.Scale == nil || hw.Printer == nil {
		return nil, fmt.Errorf("%w: scale and printer are required", ErrInvalidArgument)
	}
	if opts.StationID == "" {
		opts.StationID = "lane-1"
	}
	if opts.BagCode == "" {
		opts.BagCode = "BAG"
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctrl := &Controller{
		id:         opts.StationID,
		bagCode:    opts.BagCode,
		catalog:    c,
		hw:         hw,
		journal:    opts.Journal,
		bus:        opts.Bus,
		logger:     opts.Logger.With("component", "station", "station_id", opts.StationID),
		requests:   make(chan request, opts.QueueSize),
		done:       make(chan struct{}),
		machine:    fsm.New(opts.StationID),
		reconciler: bagging.New(hw.Scale.Sensitivity()),
		ledger:     payment.NewLedger(opts.Denominations),
		enabled:    make(map[types.DeviceID]bool),
	}

	if err := ctrl.attach(); err != nil {
		return nil, err
	}
	// 进入任一状态时同步设备启用策略
	for _, st := range []types.State{types.StateUnavailable, types.StateReady, types.StateScanning, types.StateCheckout, types.StateBlocked} {
		st := st
		ctrl.machine.RegisterCallback(st, func(types.State) { ctrl.applyPolicy(st) })
	}
	// 设备初始状态与 Unavailable 一致
	for _, d := range ctrl.devices() {
		d.Disable()
		ctrl.enabled[d.ID()] = false
	}
	return ctrl, nil
}

// attach 为每个输入设备挂接观察者，观察者只负责入队
func (c *Controller) attach() error {
	for _, s := range c.hw.Scanners {
		if err := s.AttachObserver(c.onDeviceEvent); err != nil {
			return err
		}
	}
	if err := c.hw.Scale.AttachObserver(c.onDeviceEvent); err != nil {
		return err
	}
	for _, s := range c.hw.Slots {
		if err := s.AttachObserver(c.onDeviceEvent); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) devices() []device.Device {
	out := append([]device.Device{}, c.hw.Scanners...)
	out = append(out, c.hw.Scale)
	out = append(out, c.hw.Slots...)
	return append(out, c.hw.Printer)
}

// Run 启动事件循环，直到 ctx 被取消
func (c *Controller) Run(ctx context.Context) {
	c.logger.Info("收银台事件循环启动")
	defer c.runOnce.Do(func() { close(c.done) })
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("收银台事件循环退出")
			return
		case req := <-c.requests:
			c.handle(req)
		}
	}
}

// handle 串行处理一条请求：持有写锁完成全部状态修改，释放锁后再发布事件
func (c *Controller) handle(req request) {
	metrics.EventQueueDepth.Set(float64(len(c.requests)))

	c.mu.Lock()
	err := req.fn()
	c.version++
	snap := c.snapshotLocked()
	pending := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	for _, e := range pending {
		e.StationID = c.id
		e.Snapshot = snap
		c.bus.Publish(e)
	}

	if req.reply != nil {
		req.reply <- err
		return
	}
	if err != nil {
		c.logger.Warn("设备事件被拒绝", "request", req.name, "error", err)
	}
}

// do 提交一条命令并等待结果
func (c *Controller) do(name string, fn func() error) error {
	req := request{name: name, fn: fn, reply: make(chan error, 1)}
	select {
	case c.requests <- req:
	case <-c.done:
		return ErrStopped
	}
	select {
	case err := <-req.reply:
		return err
	case <-c.done:
		return ErrStopped
	}
}

// post 提交一条设备事件，不等待结果
func (c *Controller) post(name string, fn func() error) {
	select {
	case c.requests <- request{name: name, fn: fn}:
	case <-c.done:
	}
}

func (c *Controller) onDeviceEvent(e device.Event) {
	switch e.Kind {
	case device.KindScan:
		c.post("scan", func() error { return c.scan(e.Code, 0, false) })
	case device.KindWeight:
		c.post("scale", func() error { return c.observeScale(e.Weight, false) })
	case device.KindOverload:
		c.post("scale_overload", func() error { return c.observeScale(e.Weight, true) })
	case device.KindCoin, device.KindBanknote:
		c.post("tender", func() error { return c.tender(e.Value, e.Device) })
	}
}

// emit 在持有写锁时把事件放入发件箱
func (c *Controller) emit(e event.Event) {
	if e.TransactionID == "" {
		e.TransactionID = c.txnID
	}
	c.outbox = append(c.outbox, e)
}

func (c *Controller) txnLogger() *slog.Logger {
	if c.txnID == "" {
		return c.logger
	}
	return c.logger.With("txn_id", c.txnID)
}

// fire 执行状态转移，设备启用状态由进入状态的回调同步
func (c *Controller) fire(ev fsm.Event) error {
	from, to, err := c.machine.Fire(ev)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	c.emit(event.Event{Type: event.StateChanged, From: from, To: to})
	c.txnLogger().Info("状态转移", "from", from, "to", to, "event", ev)
	return nil
}

// applyPolicy 根据状态决定每个设备是否启用，只在需要改变时调用 Enable/Disable
func (c *Controller) applyPolicy(s types.State) {
	scanners := s == types.StateReady || s == types.StateScanning
	slots := s == types.StateCheckout
	powered := s != types.StateUnavailable

	for _, d := range c.hw.Scanners {
		c.setEnabled(d, scanners)
	}
	for _, d := range c.hw.Slots {
		c.setEnabled(d, slots)
	}
	c.setEnabled(c.hw.Scale, powered)
	c.setEnabled(c.hw.Printer, powered)
}

func (c *Controller) setEnabled(d device.Device, on bool) {
	if c.enabled[d.ID()] == on {
		return
	}
	if on {
		d.Enable()
	} else {
		d.Disable()
	}
	c.enabled[d.ID()] = on
}

// guard 检查当前状态是否允许命令，Blocked 时返回 ErrBlocked
func (c *Controller) guard(allowed ...types.State) error {
	cur := c.machine.Current()
	for _, s := range allowed {
		if cur == s {
			return nil
		}
	}
	if cur == types.StateBlocked {
		return ErrBlocked
	}
	return fmt.Errorf("%w: %s", ErrInvalidTransition, cur)
}
