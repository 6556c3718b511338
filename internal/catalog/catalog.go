package catalog

import (
	"context"
	"errors"
	"fmt"
	"self-checkout/internal/money"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound 商品编码不存在
var ErrNotFound = errors.New("product not found")

// Product 表示商品目录中的一条记录，查询后不可变
// 条码商品带有固定的预期重量；PLU 商品可以按重量计价 (SoldByWeight)
type Product struct {
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	Price        money.Cents `json:"price_cents"`
	Weight       float64     `json:"weight_g"`
	PricePerKg   money.Cents `json:"price_per_kg_cents,omitempty"`
	SoldByWeight bool        `json:"sold_by_weight,omitempty"`
	PLU          bool        `json:"plu,omitempty"`
}

// Catalog 是核心逻辑依赖的查询接口
// Lookup 必须是确定性的、无副作用的
type Catalog interface {
	Lookup(code string) (Product, error)
}

// Source 是商品数据来源，只在启动时读取一次
type Source interface {
	Products(ctx context.Context) ([]Product, error)
}

// Memory 是内存中的商品目录，构建完成后只读
type Memory struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewMemory 从商品列表创建内存目录，编码重复时返回错误
func NewMemory(products []Product) (*Memory, error) {
	m := &Memory{products: make(map[string]Product, len(products))}
	for _, p := range products {
		if p.Code == "" {
			return nil, fmt.Errorf("product %q has empty code", p.Name)
		}
		if _, dup := m.products[p.Code]; dup {
			return nil, fmt.Errorf("duplicate product code %q", p.Code)
		}
		m.products[p.Code] = p
	}
	return m, nil
}

// Load 从数据源读取全部商品并构建内存目录
// 控制器事件循环中的查询因此不会发生任何 I/O
func Load(ctx context.Context, src Source) (*Memory, error) {
	products, err := src.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取商品目录失败: %w", err)
	}
	return NewMemory(products)
}

func (m *Memory) Lookup(code string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[code]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return p, nil
}

// Products 返回按编码排序的全部商品
func (m *Memory) Products(ctx context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Search 按名称（不区分大小写）搜索 PLU 商品，用于无条码商品的查找界面
func (m *Memory) Search(text string) []Product {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Product
	for _, p := range m.products {
		if p.PLU && strings.Contains(strings.ToLower(p.Name), text) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len 返回商品数量
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products)
}
