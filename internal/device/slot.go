package device

import (
	"fmt"
	"log/slog"
	"self-checkout/internal/money"
	"self-checkout/internal/types"
)

// Slot 模拟硬币投币口或纸币入钞口
// 设备本身决定物理上收或退，收下的钱以事件形式发给观察者
type Slot struct {
	base
	kind     Kind
	accepted map[money.Cents]bool
}

// NewCoinSlot 创建投币口，accepted 为空时接受任意面额（交给上层校验）
func NewCoinSlot(id types.DeviceID, accepted []money.Cents, logger *slog.Logger) *Slot {
	return newSlot(id, KindCoin, accepted, logger)
}

// NewBanknoteSlot 创建入钞口
func NewBanknoteSlot(id types.DeviceID, accepted []money.Cents, logger *slog.Logger) *Slot {
	return newSlot(id, KindBanknote, accepted, logger)
}

func newSlot(id types.DeviceID, kind Kind, accepted []money.Cents, logger *slog.Logger) *Slot {
	s := &Slot{base: newBase(id, logger), kind: kind}
	if len(accepted) > 0 {
		s.accepted = make(map[money.Cents]bool, len(accepted))
		for _, v := range accepted {
			s.accepted[v] = true
		}
	}
	return s
}

// Accept 投入一枚硬币或一张纸币
func (s *Slot) Accept(value money.Cents) error {
	if value <= 0 {
		return fmt.Errorf("%w: value %s", ErrInvalidArgument, value)
	}
	if s.accepted != nil && !s.accepted[value] {
		s.logger.Warn("退回无法识别的面额", "value", value.String())
		return fmt.Errorf("%w: rejected %s", ErrInvalidArgument, value)
	}
	return s.emit(Event{Kind: s.kind, Value: value})
}
