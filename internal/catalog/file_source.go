package catalog

import (
	"context"
	"fmt"
	"self-checkout/internal/money"
)

// Entry 是配置文件中的商品定义，价格以字符串书写以保证精确
type Entry struct {
	Code         string  `mapstructure:"code"`
	Name         string  `mapstructure:"name"`
	Price        string  `mapstructure:"price"`
	PricePerKg   string  `mapstructure:"price_per_kg"`
	Weight       float64 `mapstructure:"weight_g"`
	SoldByWeight bool    `mapstructure:"sold_by_weight"`
	PLU          bool    `mapstructure:"plu"`
}

// FileSource 从配置文件中的 catalog.products 读取商品
type FileSource struct {
	Entries []Entry
}

func (s FileSource) Products(ctx context.Context) ([]Product, error) {
	out := make([]Product, 0, len(s.Entries))
	for _, e := range s.Entries {
		p, err := e.Product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Product 将配置条目转换为 Product
func (e Entry) Product() (Product, error) {
	p := Product{
		Code:         e.Code,
		Name:         e.Name,
		Weight:       e.Weight,
		SoldByWeight: e.SoldByWeight,
		PLU:          e.PLU || e.SoldByWeight,
	}
	if e.Price != "" {
		price, err := money.Parse(e.Price)
		if err != nil {
			return Product{}, fmt.Errorf("商品 %s 价格非法: %w", e.Code, err)
		}
		p.Price = price
	}
	if e.PricePerKg != "" {
		perKg, err := money.Parse(e.PricePerKg)
		if err != nil {
			return Product{}, fmt.Errorf("商品 %s 每公斤价格非法: %w", e.Code, err)
		}
		p.PricePerKg = perKg
	}
	if p.SoldByWeight && e.PricePerKg == "" {
		return Product{}, fmt.Errorf("商品 %s 按重量计价但缺少 price_per_kg", e.Code)
	}
	if p.Weight < 0 {
		return Product{}, fmt.Errorf("商品 %s 重量为负数", e.Code)
	}
	return p, nil
}
