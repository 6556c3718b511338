package device

import (
	"log/slog"
	"self-checkout/internal/money"
	"self-checkout/internal/types"
)

// Station 是一台自助收银台的全部模拟硬件
type Station struct {
	MainScanner     *Scanner
	HandheldScanner *Scanner
	Scale           *Scale
	CoinSlot        *Slot
	BanknoteSlot    *Slot
	Printer         *Printer
}

// NewStation 按配置创建模拟硬件，coins/banknotes 为投币口和入钞口物理可接受的面额
func NewStation(sensitivity, weightLimit float64, coins, banknotes []money.Cents, logger *slog.Logger) *Station {
	return &Station{
		MainScanner:     NewScanner(types.DeviceMainScanner, logger),
		HandheldScanner: NewScanner(types.DeviceHandheldScanner, logger),
		Scale:           NewScale(types.DeviceBaggingScale, sensitivity, weightLimit, logger),
		CoinSlot:        NewCoinSlot(types.DeviceCoinSlot, coins, logger),
		BanknoteSlot:    NewBanknoteSlot(types.DeviceBanknoteSlot, banknotes, logger),
		Printer:         NewPrinter(types.DeviceReceiptPrinter, logger),
	}
}
