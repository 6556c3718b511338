package device

import (
	"fmt"
	"log/slog"
	"math"
	"self-checkout/internal/types"
)

// Scale 模拟装袋区电子秤
// 禁用时仍然记录物理重量，只是不发出读数
type Scale struct {
	base
	sensitivity float64
	weightLimit float64
	weight      float64
}

// NewScale 创建电子秤，weightLimit <= 0 表示不限量程
func NewScale(id types.DeviceID, sensitivity, weightLimit float64, logger *slog.Logger) *Scale {
	return &Scale{base: newBase(id, logger), sensitivity: sensitivity, weightLimit: weightLimit}
}

// Sensitivity 返回秤的灵敏度（克），小于该值的变化视为噪声
func (s *Scale) Sensitivity() float64 {
	return s.sensitivity
}

func (s *Scale) WeightLimit() float64 {
	return s.weightLimit
}

// Weight 返回秤上的当前总重量
func (s *Scale) Weight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weight
}

// Place 在秤上放置物品
func (s *Scale) Place(grams float64) error {
	if grams <= 0 || math.IsNaN(grams) || math.IsInf(grams, 0) {
		return fmt.Errorf("%w: weight %v", ErrInvalidArgument, grams)
	}
	return s.change(grams)
}

// Remove 从秤上取走物品
func (s *Scale) Remove(grams float64) error {
	if grams <= 0 || math.IsNaN(grams) || math.IsInf(grams, 0) {
		return fmt.Errorf("%w: weight %v", ErrInvalidArgument, grams)
	}
	s.mu.Lock()
	if grams > s.weight+s.sensitivity {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot remove %vg from %vg", ErrInvalidArgument, grams, s.weight)
	}
	s.mu.Unlock()
	return s.change(-grams)
}

func (s *Scale) change(delta float64) error {
	s.mu.Lock()
	s.weight = math.Max(0, s.weight+delta)
	current := s.weight
	s.mu.Unlock()

	kind := KindWeight
	if s.weightLimit > 0 && current > s.weightLimit {
		kind = KindOverload
	}
	err := s.emit(Event{Kind: kind, Weight: current})
	if err == ErrDisabled {
		// 物理重量已经变化，只是没有读数发出
		return nil
	}
	if err == nil && kind == KindOverload {
		return ErrOverload
	}
	return err
}
