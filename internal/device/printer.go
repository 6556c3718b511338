package device

import (
	"fmt"
	"log/slog"
	"self-checkout/internal/types"
	"strings"
)

// Printer 模拟小票打印机
type Printer struct {
	base
	printed []string
}

func NewPrinter(id types.DeviceID, logger *slog.Logger) *Printer {
	return &Printer{base: newBase(id, logger)}
}

// Print 打印一张小票，打印机禁用时返回 ErrDisabled
func (p *Printer) Print(r types.Receipt) error {
	if !p.Enabled() {
		return ErrDisabled
	}
	text := FormatReceipt(r)
	p.mu.Lock()
	p.printed = append(p.printed, text)
	p.mu.Unlock()
	p.logger.Info("小票已打印", "transaction_id", r.TransactionID, "lines", strings.Count(text, "\n"))
	return p.emit(Event{Kind: KindPrinted, Code: r.TransactionID})
}

// Printed 返回已打印的小票文本
func (p *Printer) Printed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.printed))
	copy(out, p.printed)
	return out
}

// FormatReceipt 将小票格式化为打印文本
func FormatReceipt(r types.Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", r.StationID, r.CompletedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "%s\n", r.TransactionID)
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "%-24s %10s\n", e.Name, e.Price)
	}
	fmt.Fprintf(&b, "%-24s %10s\n", "TOTAL", r.Total)
	fmt.Fprintf(&b, "%-24s %10s\n", "TENDERED", r.Tendered)
	fmt.Fprintf(&b, "%-24s %10s\n", "CHANGE", r.Change)
	return b.String()
}
