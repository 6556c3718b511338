package cart

import (
	"errors"
	"fmt"
	"math"
	"self-checkout/internal/catalog"
	"self-checkout/internal/money"
	"self-checkout/internal/types"
	"sync"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrInvalidArgument = errors.New("cart: invalid argument")
	ErrInvalidWeight   = errors.New("cart: invalid weight")
)

// Entry 是购物车中的一条记录，创建后不可变
// 更正通过删除后重新添加实现
type Entry struct {
	ID      int
	Product catalog.Product
	Weight  float64     // 预期放入装袋区的重量，称重商品为实测重量
	Price   money.Cents // 该条目的价格
}

// View 返回展示层使用的只读视图
func (e Entry) View() types.EntryView {
	return types.EntryView{ID: e.ID, Code: e.Product.Code, Name: e.Product.Name, Weight: e.Weight, Price: e.Price}
}

// EventType 购物车事件类型
type EventType string

const (
	ItemAdded   EventType = "ItemAdded"
	ItemRemoved EventType = "ItemRemoved"
)

// Event 是购物车发给观察者的通知
type Event struct {
	Type  EventType
	Entry Entry
}

// Observer 接收购物车通知，按注册顺序同步调用
type Observer func(e Event)

// Cart 是一笔交易的商品账本
// 只有控制器事件循环会写入；读操作可以在读锁下并发进行
type Cart struct {
	mu        sync.RWMutex
	catalog   catalog.Catalog
	entries   []Entry
	total     money.Cents
	nextID    int
	observers []Observer
}

// New 创建一个空购物车
func New(c catalog.Catalog) *Cart {
	return &Cart{catalog: c, nextID: 1}
}

// Attach 注册观察者，nil 观察者在注册时立即失败
func (c *Cart) Attach(o Observer) error {
	if o == nil {
		return fmt.Errorf("%w: observer is nil", ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
	return nil
}

// AddByCode 按条码添加商品，查询失败时购物车保持不变且不发出通知
func (c *Cart) AddByCode(code string) (Entry, error) {
	p, err := c.lookup(code)
	if err != nil {
		return Entry{}, err
	}
	return c.append(p, p.Weight, p.Price), nil
}

// AddByWeight 添加称重商品
// 按重量计价的商品价格为 measured × 每公斤单价，否则使用目录中的固定价格
func (c *Cart) AddByWeight(code string, grams float64) (Entry, error) {
	if grams < 0 || math.IsNaN(grams) || math.IsInf(grams, 0) {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidWeight, grams)
	}
	p, err := c.lookup(code)
	if err != nil {
		return Entry{}, err
	}
	price := p.Price
	if p.SoldByWeight {
		price = money.ForWeight(p.PricePerKg, grams)
	}
	return c.append(p, grams, price), nil
}

// Remove 删除指定条目并从总额中扣除
func (c *Cart) Remove(id int) (Entry, error) {
	c.mu.Lock()
	idx := -1
	for i, e := range c.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return Entry{}, fmt.Errorf("%w: entry %d", ErrNotFound, id)
	}
	e := c.entries[idx]
	c.entries = append(c.entries[:idx:idx], c.entries[idx+1:]...)
	c.total -= e.Price
	observers := c.observers
	c.mu.Unlock()

	notify(observers, Event{Type: ItemRemoved, Entry: e})
	return e, nil
}

// Get 按 ID 返回条目
func (c *Cart) Get(id int) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Total 返回当前总额，O(1)
func (c *Cart) Total() money.Cents {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// RecomputeTotal 重新累加所有条目价格，用于校验 Total
func (c *Cart) RecomputeTotal() money.Cents {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sum money.Cents
	for _, e := range c.entries {
		sum += e.Price
	}
	return sum
}

// Entries 按插入顺序返回条目的副本
func (c *Cart) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len 返回条目数量
func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cart) lookup(code string) (catalog.Product, error) {
	if code == "" {
		return catalog.Product{}, fmt.Errorf("%w: empty code", ErrInvalidArgument)
	}
	p, err := c.catalog.Lookup(code)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return p, nil
}

func (c *Cart) append(p catalog.Product, weight float64, price money.Cents) Entry {
	c.mu.Lock()
	e := Entry{ID: c.nextID, Product: p, Weight: weight, Price: price}
	c.nextID++
	c.entries = append(c.entries, e)
	c.total += price
	observers := c.observers
	c.mu.Unlock()

	notify(observers, Event{Type: ItemAdded, Entry: e})
	return e
}

// notify 在锁外调用观察者，观察者可以安全地读取购物车
func notify(observers []Observer, e Event) {
	for _, o := range observers {
		o(e)
	}
}
