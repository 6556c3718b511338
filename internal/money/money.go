package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents 以整数分表示金额，所有价格、总额、找零都使用它
// 绝不使用浮点数参与货币运算
type Cents int64

// ErrInvalidAmount 金额格式非法（负数、超过两位小数或无法解析）
var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// Parse 将 "2.00" 这样的十进制字符串精确解析为分
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse 用于常量表和测试
func MustParse(s string) Cents {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FromDecimal 将十进制金额转换为分，拒绝负数和超过两位的小数
func FromDecimal(d decimal.Decimal) (Cents, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, d)
	}
	scaled := d.Mul(hundred)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than 2 fractional digits", ErrInvalidAmount, d)
	}
	return Cents(scaled.IntPart()), nil
}

// Decimal 返回对应的十进制值
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String 固定输出两位小数，例如 "10.00"
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// ForWeight 计算称重商品的价格：grams / 1000 × perKg，四舍五入到分
func ForWeight(perKg Cents, grams float64) Cents {
	kg := decimal.NewFromFloat(grams).Div(decimal.NewFromInt(1000))
	return Cents(kg.Mul(decimal.NewFromInt(int64(perKg))).Round(0).IntPart())
}
