package bagging

import (
	"math"
	"self-checkout/internal/cart"
	"sync"
)

// Reading 是一次秤读数的校验结果
type Reading struct {
	Weight      float64 // 秤的读数
	Expected    float64 // 当时的预期重量
	Deviation   float64 // |Weight - Expected|
	Discrepancy bool    // 仅在刚刚越过容差的那一次读数为 true（边沿触发）
}

// Reconciler 是装袋区观察者，对比预期累计重量和秤的实际读数
//
// 预期重量始终等于已装袋条目重量按插入顺序的累加和，
// 因此添加后再删除同一条目会精确恢复到添加前的值。
// 偏差通知是边沿触发的：重量持续异常时只通知一次，
// 回到容差范围内后再次越界才会再次通知。
type Reconciler struct {
	mu          sync.RWMutex
	sensitivity float64
	bagged      []cart.Entry
	expected    float64
	last        float64
	hasReading  bool
	deviating   bool
	removal     *cart.Entry // 非 nil 表示处于主动取出窗口
}

// New 创建观察者，sensitivity 在构造时从电子秤读取一次
func New(sensitivity float64) *Reconciler {
	return &Reconciler{sensitivity: math.Abs(sensitivity)}
}

// Observer 返回可注册到购物车的回调
func (r *Reconciler) Observer() cart.Observer {
	return r.OnCartEvent
}

// OnCartEvent 根据购物车增删调整预期重量
func (r *Reconciler) OnCartEvent(e cart.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch e.Type {
	case cart.ItemAdded:
		r.bagged = append(r.bagged, e.Entry)
	case cart.ItemRemoved:
		for i, b := range r.bagged {
			if b.ID == e.Entry.ID {
				r.bagged = append(r.bagged[:i:i], r.bagged[i+1:]...)
				break
			}
		}
	}
	r.recompute()
}

func (r *Reconciler) recompute() {
	var sum float64
	for _, b := range r.bagged {
		sum += b.Weight
	}
	r.expected = sum
}

// ObserveScale 处理一次秤读数
// 偏差超过容差且不在主动取出窗口内时，返回 Discrepancy（仅在越界的那一次）
func (r *Reconciler) ObserveScale(grams float64) Reading {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = grams
	r.hasReading = true
	return r.evaluate()
}

// BeginIntentionalRemoval 开始主动取出窗口
// 窗口期间，秤读数在 "条目在秤上" 与 "条目已取走" 两种预期之间都视为正常
func (r *Reconciler) BeginIntentionalRemoval(e cart.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removal = &e
}

// EndIntentionalRemoval 结束窗口，并用最后一次读数重新校验，保证偏差不会被悄悄吞掉
func (r *Reconciler) EndIntentionalRemoval() Reading {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removal = nil
	if !r.hasReading {
		return Reading{Expected: r.expected}
	}
	return r.evaluate()
}

// evaluate 在持有写锁时调用
func (r *Reconciler) evaluate() Reading {
	res := Reading{Weight: r.last, Expected: r.expected, Deviation: math.Abs(r.last - r.expected)}
	low, high := r.expected-r.sensitivity, r.expected+r.sensitivity
	if r.removal != nil {
		if r.isBagged(r.removal.ID) {
			low -= r.removal.Weight
		} else {
			high += r.removal.Weight
		}
	}
	outside := r.last < low || r.last > high
	if outside && !r.deviating {
		res.Discrepancy = true
	}
	r.deviating = outside
	return res
}

func (r *Reconciler) isBagged(id int) bool {
	for _, b := range r.bagged {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Reset 为下一位顾客清空状态
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bagged = nil
	r.expected = 0
	r.last = 0
	r.hasReading = false
	r.deviating = false
	r.removal = nil
}

// ExpectedWeight 返回装袋区应有的总重量（克）
func (r *Reconciler) ExpectedWeight() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.expected
}

// LastReading 返回最近一次秤读数，尚无读数时第二个返回值为 false
func (r *Reconciler) LastReading() (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.hasReading
}

// Deviating 最近一次判定是否处于重量偏差中
func (r *Reconciler) Deviating() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deviating
}

// Sensitivity 返回允许的重量误差（克）
func (r *Reconciler) Sensitivity() float64 {
	return r.sensitivity
}

// RemovalOpen 是否处于主动取出窗口
func (r *Reconciler) RemovalOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.removal != nil
}

// Bagged 返回当前预期在装袋区的条目
func (r *Reconciler) Bagged() []cart.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]cart.Entry, len(r.bagged))
	copy(out, r.bagged)
	return out
}
