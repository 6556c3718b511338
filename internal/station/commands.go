package station

import (
	"errors"
	"fmt"
	"self-checkout/internal/cart"
	"self-checkout/internal/event"
	"self-checkout/internal/fsm"
	"self-checkout/internal/metrics"
	"self-checkout/internal/money"
	"self-checkout/internal/payment"
	"self-checkout/internal/types"
	"self-checkout/internal/util"
	"time"
)

// TurnOn 开机：Unavailable -> Ready
func (c *Controller) TurnOn() error {
	return c.do("turn_on", func() error {
		return c.fire(fsm.EventTurnOn)
	})
}

// TurnOff 关机：任何状态 -> Unavailable，未完成的交易被放弃
func (c *Controller) TurnOff() error {
	return c.do("turn_off", func() error {
		if c.machine.Current() == types.StateUnavailable {
			return nil
		}
		c.abandon("station turned off")
		c.cause = types.CauseNone
		return c.fire(fsm.EventTurnOff)
	})
}

// Scan 展示层发起的条码录入
func (c *Controller) Scan(code string) error {
	return c.do("scan", func() error { return c.scan(code, 0, false) })
}

// ScanByWeight 录入称重（PLU）商品
func (c *Controller) ScanByWeight(code string, grams float64) error {
	return c.do("scan_by_weight", func() error { return c.scan(code, grams, true) })
}

// AddPlasticBags 加入 n 个店内购物袋
func (c *Controller) AddPlasticBags(n int) error {
	return c.do("add_bags", func() error {
		if n < 0 {
			return fmt.Errorf("%w: bag count %d", ErrInvalidArgument, n)
		}
		if n == 0 {
			return nil
		}
		if err := c.guard(types.StateReady, types.StateScanning); err != nil {
			return err
		}
		if _, err := c.catalog.Lookup(c.bagCode); err != nil {
			return fmt.Errorf("%w: %w", cart.ErrNotFound, err)
		}
		for i := 0; i < n; i++ {
			if err := c.scan(c.bagCode, 0, false); err != nil {
				return err
			}
		}
		return nil
	})
}

// scan 在事件循环内执行；Ready 状态下第一次成功录入开启新交易
func (c *Controller) scan(code string, grams float64, weighed bool) error {
	if err := c.guard(types.StateReady, types.StateScanning); err != nil {
		return err
	}
	first := c.machine.Current() == types.StateReady
	if first {
		c.newCart()
		c.txnID = util.NewTransactionID()
	}

	var (
		entry cart.Entry
		err   error
	)
	if weighed {
		entry, err = c.cart.AddByWeight(code, grams)
	} else {
		entry, err = c.cart.AddByCode(code)
	}
	if err != nil {
		if first {
			// 录入失败不开启交易
			c.cart = nil
			c.txnID = ""
		}
		c.txnLogger().Warn("商品录入失败", "code", code, "error", err)
		return err
	}

	if first {
		if err := c.fire(fsm.EventFirstScan); err != nil {
			return err
		}
		if c.journal != nil {
			if jerr := c.journal.Begin(c.txnID, c.id); jerr != nil {
				c.txnLogger().Error("写入交易日志失败", "error", jerr)
			}
		}
		c.txnLogger().Info("新交易开始")
	}
	c.txnLogger().Info("商品已加入购物车", "entry_id", entry.ID, "code", code, "price", entry.Price.String(), "weight_g", entry.Weight)
	return nil
}

// newCart 为新顾客创建购物车并挂接装袋区观察者
func (c *Controller) newCart() {
	c.cart = cart.New(c.catalog)
	_ = c.cart.Attach(c.reconciler.Observer())
	_ = c.cart.Attach(c.onCartEvent)
}

// onCartEvent 把购物车通知转发到事件总线（在事件循环内同步调用）
func (c *Controller) onCartEvent(e cart.Event) {
	view := e.Entry.View()
	t := event.ItemAdded
	if e.Type == cart.ItemRemoved {
		t = event.ItemRemoved
	}
	c.emit(event.Event{Type: t, Entry: &view})
}

// WantsToCheckout 开始结账：禁用扫描枪，记录应付金额
func (c *Controller) WantsToCheckout() error {
	return c.do("checkout", func() error {
		if err := c.guard(types.StateScanning); err != nil {
			return err
		}
		total := c.cart.Total()
		if c.ledger.Active() {
			// 顾客返回扫码后再次结账，保留已投入的钱
			c.ledger.Update(total)
		} else {
			c.ledger.Start(total)
		}
		return c.fire(fsm.EventCheckout)
	})
}

// AddItemAfterCheckoutStart 部分付款后返回继续扫码
func (c *Controller) AddItemAfterCheckoutStart() error {
	return c.do("add_item_after_checkout", func() error {
		if err := c.guard(types.StateCheckout); err != nil {
			return err
		}
		return c.fire(fsm.EventAddMoreItems)
	})
}

// Tender 展示层发起的投币（通常由投币口设备事件触发）
func (c *Controller) Tender(value money.Cents) error {
	return c.do("tender", func() error { return c.tender(value, "") })
}

// tender 记入一笔投币。展示层命令只在 Checkout 接受；
// 投币口事件代表设备已经收下的钱，只要账本仍在进行就记入，即使此前排队的事件已让收银台锁定或返回扫码
func (c *Controller) tender(value money.Cents, source types.DeviceID) error {
	if source == "" {
		if err := c.guard(types.StateCheckout); err != nil {
			return err
		}
	} else if !c.ledger.Active() {
		return fmt.Errorf("%w: %s rejected in %s", payment.ErrNotStarted, value, c.machine.Current())
	}
	if err := c.ledger.Accept(value); err != nil {
		return err
	}
	c.emit(event.Event{Type: event.PaymentAccepted, Amount: value, Device: source})
	c.txnLogger().Info("收到付款", "value", value.String(), "device", source, "remaining", c.ledger.RemainingDue().String())
	return nil
}

// FinishCheckout 完成结账：打印小票、写入日志、重置为下一位顾客
// 未付清时返回 payment.ErrNotSatisfied，状态、购物车和账本都不变
func (c *Controller) FinishCheckout() (types.Receipt, error) {
	var receipt types.Receipt
	err := c.do("finish_checkout", func() error {
		if err := c.guard(types.StateCheckout); err != nil {
			return err
		}
		if !c.ledger.IsSatisfied() {
			return fmt.Errorf("%w: remaining %s", payment.ErrNotSatisfied, c.ledger.RemainingDue())
		}
		tendered := c.ledger.Tendered()
		change, err := c.ledger.Finish()
		if err != nil {
			return err
		}
		receipt = c.buildReceipt(tendered, change)

		if perr := c.hw.Printer.Print(receipt); perr != nil {
			c.txnLogger().Error("小票打印失败", "error", perr)
		}
		if c.journal != nil {
			if jerr := c.journal.Complete(receipt); jerr != nil {
				c.txnLogger().Error("写入交易日志失败", "error", jerr)
			}
		}
		c.emit(event.Event{Type: event.TransactionCompleted, Receipt: &receipt})
		c.txnLogger().Info("交易完成", "total", receipt.Total.String(), "tendered", tendered.String(), "change", change.String())

		if err := c.fire(fsm.EventPaymentDone); err != nil {
			return err
		}
		c.resetTransaction()
		return nil
	})
	return receipt, err
}

func (c *Controller) buildReceipt(tendered, change money.Cents) types.Receipt {
	entries := c.cart.Entries()
	views := make([]types.EntryView, len(entries))
	for i, e := range entries {
		views[i] = e.View()
	}
	return types.Receipt{
		TransactionID: c.txnID,
		StationID:     c.id,
		Entries:       views,
		Total:         c.cart.Total(),
		Tendered:      tendered,
		Change:        change,
		CompletedAt:   time.Now().UTC(),
	}
}

// resetTransaction 清空购物车、装袋区和账本
func (c *Controller) resetTransaction() {
	c.cart = nil
	c.txnID = ""
	c.reconciler.Reset()
	c.ledger.Reset()
}

// abandon 放弃进行中的交易（如有）
func (c *Controller) abandon(reason string) {
	if c.txnID == "" {
		c.resetTransaction()
		return
	}
	if c.journal != nil {
		if err := c.journal.Abandon(c.txnID, reason); err != nil {
			c.txnLogger().Error("写入交易日志失败", "error", err)
		}
	}
	c.emit(event.Event{Type: event.TransactionAbandoned})
	c.txnLogger().Warn("交易被放弃", "reason", reason)
	c.resetTransaction()
}

// CancelTransaction 店员作废扫码中的交易，回到 Ready 等待下一位顾客
// 已经开始结账（可能已投入现金）时不允许作废，需要先返回扫码
func (c *Controller) CancelTransaction() error {
	return c.do("cancel_transaction", func() error {
		if err := c.guard(types.StateScanning); err != nil {
			return err
		}
		if c.ledger.Tendered() > 0 {
			return fmt.Errorf("%w: %s already tendered", ErrInvalidTransition, c.ledger.Tendered())
		}
		c.abandon("cancelled by attendant")
		return c.fire(fsm.EventTransactionEnd)
	})
}

// RemoveEntry 顾客从装袋区取出商品并从购物车删除
// 开启主动取出窗口，直到 EndRemoval 前秤的过渡读数不会触发锁定
func (c *Controller) RemoveEntry(id int) error {
	return c.do("remove_entry", func() error {
		if err := c.guard(types.StateScanning, types.StateCheckout); err != nil {
			return err
		}
		if c.reconciler.RemovalOpen() {
			return ErrRemovalInProgress
		}
		entry, ok := c.cart.Get(id)
		if !ok {
			return fmt.Errorf("%w: entry %d", cart.ErrNotFound, id)
		}
		c.reconciler.BeginIntentionalRemoval(entry)
		if _, err := c.cart.Remove(id); err != nil {
			c.reconciler.EndIntentionalRemoval()
			return err
		}
		if c.machine.Current() == types.StateCheckout {
			c.ledger.Update(c.cart.Total())
		}
		c.txnLogger().Info("商品已移除", "entry_id", id, "price", entry.Price.String())
		return nil
	})
}

// EndRemoval 回到正常装袋流程，重新校验最后一次秤读数
func (c *Controller) EndRemoval() error {
	return c.do("end_removal", func() error {
		if !c.reconciler.RemovalOpen() {
			return nil
		}
		reading := c.reconciler.EndIntentionalRemoval()
		if reading.Discrepancy {
			c.block(types.CauseWeightDiscrepancy, reading.Deviation)
		}
		return nil
	})
}

// observeScale 处理秤读数，越过容差时锁定收银台
func (c *Controller) observeScale(grams float64, overload bool) error {
	if c.machine.Current() == types.StateUnavailable {
		return nil
	}
	reading := c.reconciler.ObserveScale(grams)
	metrics.WeightDeviation.Observe(reading.Deviation)
	if overload {
		c.block(types.CauseScaleOverload, reading.Deviation)
		return nil
	}
	if reading.Discrepancy {
		c.txnLogger().Warn("装袋区重量异常", "scale_g", grams, "expected_g", reading.Expected, "deviation_g", reading.Deviation)
		c.block(types.CauseWeightDiscrepancy, reading.Deviation)
	}
	return nil
}

// Block 店员手动锁定
func (c *Controller) Block() error {
	return c.do("block", func() error { return c.blockCommand(types.CauseAttendant) })
}

// UseOwnBags 顾客选择自带购物袋，锁定等待店员确认
func (c *Controller) UseOwnBags() error {
	return c.do("own_bags", func() error { return c.blockCommand(types.CauseOwnBags) })
}

func (c *Controller) blockCommand(cause types.BlockCause) error {
	if c.machine.Current() == types.StateUnavailable {
		return fmt.Errorf("%w: station is off", ErrInvalidTransition)
	}
	c.block(cause, 0)
	return nil
}

// block 进入 Blocked；已经锁定时保持第一次的原因（幂等）
func (c *Controller) block(cause types.BlockCause, deviation float64) {
	if c.machine.Current() == types.StateBlocked {
		c.txnLogger().Debug("已处于锁定状态", "cause", c.cause, "ignored_cause", cause)
		return
	}
	if !c.machine.Can(fsm.EventBlock) {
		return
	}
	if err := c.fire(fsm.EventBlock); err != nil {
		c.txnLogger().Error("锁定失败", "error", err)
		return
	}
	c.cause = cause
	c.emit(event.Event{Type: event.StationBlocked, Cause: cause, Deviation: deviation})
	c.txnLogger().Warn("收银台已锁定，通知店员", "cause", cause, "deviation_g", deviation)
}

// Unblock 店员解锁，回到锁定前的状态；未锁定时调用无效果
// 解锁只是人工放行，不会清除重量偏差的原因
func (c *Controller) Unblock() error {
	return c.do("unblock", func() error {
		if !c.machine.Can(fsm.EventUnblock) {
			return nil
		}
		cause := c.cause
		if err := c.fire(fsm.EventUnblock); err != nil {
			return err
		}
		c.cause = types.CauseNone
		c.emit(event.Event{Type: event.StationUnblocked, Cause: cause})
		return nil
	})
}

// Sync 等待此前入队的所有请求（包括设备事件）处理完毕
func (c *Controller) Sync() error {
	return c.do("sync", func() error { return nil })
}

// IsStopped 判断错误是否因事件循环已退出
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped)
}
