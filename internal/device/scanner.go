package device

import (
	"fmt"
	"log/slog"
	"self-checkout/internal/types"
)

// Scanner 模拟条码扫描枪
type Scanner struct {
	base
}

func NewScanner(id types.DeviceID, logger *slog.Logger) *Scanner {
	return &Scanner{base: newBase(id, logger)}
}

// Scan 模拟扫描一个条码，设备禁用时返回 ErrDisabled
func (s *Scanner) Scan(code string) error {
	if code == "" {
		return fmt.Errorf("%w: empty barcode", ErrInvalidArgument)
	}
	return s.emit(Event{Kind: KindScan, Code: code})
}
