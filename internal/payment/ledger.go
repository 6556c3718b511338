package payment

import (
	"errors"
	"fmt"
	"self-checkout/internal/money"
	"sort"
	"sync"
)

var (
	ErrInvalidDenomination = errors.New("payment: invalid denomination")
	ErrNotSatisfied        = errors.New("payment: amount due not satisfied")
	ErrNotStarted          = errors.New("payment: checkout not started")
)

// DefaultDenominations 是可识别的硬币和纸币面额
var DefaultDenominations = []money.Cents{5, 10, 25, 100, 200, 500, 1000, 2000, 5000, 10000}

// Ledger 记录应付金额和已投入金额
type Ledger struct {
	mu            sync.RWMutex
	denominations map[money.Cents]bool
	active        bool
	due           money.Cents
	tendered      money.Cents
}

// NewLedger 创建账本，denominations 为空时使用默认面额
func NewLedger(denominations []money.Cents) *Ledger {
	if len(denominations) == 0 {
		denominations = DefaultDenominations
	}
	set := make(map[money.Cents]bool, len(denominations))
	for _, d := range denominations {
		set[d] = true
	}
	return &Ledger{denominations: set}
}

// Start 记录应付金额快照，已投入金额清零
func (l *Ledger) Start(due money.Cents) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = true
	l.due = due
	l.tendered = 0
}

// Update 顾客返回扫码后再次结账时更新应付金额，保留已投入的钱
func (l *Ledger) Update(due money.Cents) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = true
	l.due = due
}

// Accept 累加一枚硬币或一张纸币，非法面额被拒绝且不改变状态
func (l *Ledger) Accept(value money.Cents) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return ErrNotStarted
	}
	if !l.denominations[value] {
		return fmt.Errorf("%w: %s", ErrInvalidDenomination, value)
	}
	l.tendered += value
	return nil
}

// RemainingDue 返回 max(0, due - tendered)
func (l *Ledger) RemainingDue() money.Cents {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.tendered >= l.due {
		return 0
	}
	return l.due - l.tendered
}

func (l *Ledger) IsSatisfied() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active && l.tendered >= l.due
}

// Finish 完成支付并返回找零（只报告，不负责出币）
// 未付清时返回 ErrNotSatisfied，账本保持不变
func (l *Ledger) Finish() (money.Cents, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return 0, ErrNotStarted
	}
	if l.tendered < l.due {
		return 0, fmt.Errorf("%w: due %s, tendered %s", ErrNotSatisfied, l.due, l.tendered)
	}
	change := l.tendered - l.due
	l.active = false
	return change, nil
}

// Reset 丢弃当前账本（交易完成或放弃时）
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = false
	l.due = 0
	l.tendered = 0
}

func (l *Ledger) Active() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

func (l *Ledger) Due() money.Cents {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.due
}

func (l *Ledger) Tendered() money.Cents {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tendered
}

// Denominations 返回按面额升序排列的可识别面额
func (l *Ledger) Denominations() []money.Cents {
	out := make([]money.Cents, 0, len(l.denominations))
	for d := range l.denominations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
