package station

import (
	"self-checkout/internal/cart"
	"self-checkout/internal/money"
	"self-checkout/internal/types"
)

// Snapshot 返回当前收银台的只读快照，不进入事件循环
func (c *Controller) Snapshot() types.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() types.Snapshot {
	snap := types.Snapshot{
		Version:        c.version,
		StationID:      c.id,
		State:          c.machine.Current(),
		BlockCause:     c.cause,
		TransactionID:  c.txnID,
		Entries:        []types.EntryView{},
		ExpectedWeight: c.reconciler.ExpectedWeight(),
		RemovalOpen:    c.reconciler.RemovalOpen(),
	}
	if snap.State == types.StateBlocked {
		snap.PreviousState = c.machine.Previous()
	}
	if w, ok := c.reconciler.LastReading(); ok {
		snap.ScaleWeight = w
	}
	if c.cart != nil {
		for _, e := range c.cart.Entries() {
			snap.Entries = append(snap.Entries, e.View())
		}
		snap.Total = c.cart.Total()
	}
	if c.ledger.Active() {
		snap.Due = c.ledger.Due()
		snap.Tendered = c.ledger.Tendered()
		snap.RemainingDue = c.ledger.RemainingDue()
	}
	return snap
}

// State 返回当前状态
func (c *Controller) State() types.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.machine.Current()
}

// BlockCause 返回锁定原因，未锁定时为空
func (c *Controller) BlockCause() types.BlockCause {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cause
}

// CartTotal 返回购物车总额
func (c *Controller) CartTotal() money.Cents {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cart == nil {
		return 0
	}
	return c.cart.Total()
}

// CartEntries 按插入顺序返回购物车条目
func (c *Controller) CartEntries() []cart.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cart == nil {
		return nil
	}
	return c.cart.Entries()
}

// RemainingDue 返回剩余应付金额
func (c *Controller) RemainingDue() money.Cents {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ledger.Active() {
		return 0
	}
	return c.ledger.RemainingDue()
}

// Tendered 返回已投入金额
func (c *Controller) Tendered() money.Cents {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.Tendered()
}

// ExpectedWeight 返回装袋区预期重量
func (c *Controller) ExpectedWeight() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconciler.ExpectedWeight()
}

// BaggedEntries 返回预期在装袋区的条目，用于 "从装袋区取出" 界面
func (c *Controller) BaggedEntries() []cart.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconciler.Bagged()
}

// Denominations 返回投币口可识别的面额，升序
func (c *Controller) Denominations() []money.Cents {
	return c.ledger.Denominations()
}

// ID 返回收银台 ID
func (c *Controller) ID() string {
	return c.id
}
