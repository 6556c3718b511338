package station

import (
	"context"
	"io"
	"log/slog"
	"self-checkout/internal/cart"
	"self-checkout/internal/catalog"
	"self-checkout/internal/device"
	"self-checkout/internal/event"
	"self-checkout/internal/money"
	"self-checkout/internal/payment"
	"self-checkout/internal/types"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeJournal struct {
	mu        sync.Mutex
	begins    []string
	completes []types.Receipt
	abandons  []string
}

func (j *fakeJournal) Begin(txnID, stationID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.begins = append(j.begins, txnID)
	return nil
}

func (j *fakeJournal) Complete(r types.Receipt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.completes = append(j.completes, r)
	return nil
}

func (j *fakeJournal) Abandon(txnID, reason string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.abandons = append(j.abandons, txnID)
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) record(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(t event.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (r *recorder) last() event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type fixture struct {
	ctrl    *Controller
	hw      *device.Station
	journal *fakeJournal
	events  *recorder
	cancel  context.CancelFunc
}

func newFixture(t *testing.T, weightLimit float64) *fixture {
	t.Helper()
	products, err := catalog.NewMemory([]catalog.Product{
		{Code: "11111", Name: "Milk", Price: money.MustParse("2.00"), Weight: 500},
		{Code: "22222", Name: "Bread", Price: money.MustParse("3.00"), Weight: 300},
		{Code: "55555", Name: "Olive Oil", Price: money.MustParse("10.00"), Weight: 200},
		{Code: "4011", Name: "Bananas", PricePerKg: money.MustParse("1.99"), SoldByWeight: true, PLU: true},
		{Code: "BAG", Name: "Plastic Bag", Price: money.MustParse("0.10"), Weight: 8},
	})
	require.NoError(t, err)

	hw := device.NewStation(10, weightLimit, nil, nil, testLogger)
	bus := event.NewBus()
	rec := &recorder{}
	bus.SubscribeAll(rec.record)
	journal := &fakeJournal{}

	ctrl, err := New(products, HardwareFrom(hw), Options{
		StationID: "lane-test",
		Journal:   journal,
		Bus:       bus,
		Logger:    testLogger,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Run(ctx)
	t.Cleanup(cancel)
	return &fixture{ctrl: ctrl, hw: hw, journal: journal, events: rec, cancel: cancel}
}

func (f *fixture) scanning(t *testing.T, codes ...string) {
	t.Helper()
	require.NoError(t, f.ctrl.TurnOn())
	for _, c := range codes {
		require.NoError(t, f.ctrl.Scan(c))
	}
}

func TestNew_RejectsMissingHardware(t *testing.T) {
	products, _ := catalog.NewMemory(nil)
	_, err := New(products, Hardware{}, Options{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = New(nil, Hardware{}, Options{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestScenarioA_ScanKnownProduct(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "11111")

	assert.Equal(t, types.StateScanning, f.ctrl.State())
	assert.Equal(t, money.MustParse("2.00"), f.ctrl.CartTotal())
	assert.Equal(t, 500.0, f.ctrl.ExpectedWeight())
	assert.Equal(t, 1, f.events.count(event.ItemAdded))
	require.Len(t, f.journal.begins, 1)

	snap := f.ctrl.Snapshot()
	assert.Equal(t, f.journal.begins[0], snap.TransactionID)
	assert.Equal(t, snap.TransactionID, f.events.last().TransactionID)
}

func TestScenarioB_UnknownProduct(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.ctrl.TurnOn())

	// 第一次录入失败不开启交易
	err := f.ctrl.Scan("99999")
	assert.ErrorIs(t, err, cart.ErrNotFound)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, types.StateReady, f.ctrl.State())
	assert.Empty(t, f.ctrl.Snapshot().TransactionID)
	assert.Empty(t, f.journal.begins)

	require.NoError(t, f.ctrl.Scan("11111"))
	err = f.ctrl.Scan("99999")
	assert.ErrorIs(t, err, cart.ErrNotFound)
	assert.Equal(t, money.MustParse("2.00"), f.ctrl.CartTotal())
	assert.Equal(t, 1, f.events.count(event.ItemAdded))
}

func TestScenarioC_PaymentFlow(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "55555")
	require.NoError(t, f.ctrl.WantsToCheckout())
	assert.Equal(t, money.MustParse("10.00"), f.ctrl.Snapshot().Due)

	for _, v := range []string{"5.00", "2.00", "2.00"} {
		require.NoError(t, f.ctrl.Tender(money.MustParse(v)))
	}
	assert.Equal(t, money.MustParse("9.00"), f.ctrl.Tendered())

	before := f.ctrl.Snapshot()
	_, err := f.ctrl.FinishCheckout()
	assert.ErrorIs(t, err, payment.ErrNotSatisfied)
	after := f.ctrl.Snapshot()
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Entries, after.Entries)
	assert.Equal(t, before.Tendered, after.Tendered)
	assert.Equal(t, before.Due, after.Due)

	require.NoError(t, f.ctrl.Tender(money.MustParse("1.00")))
	receipt, err := f.ctrl.FinishCheckout()
	require.NoError(t, err)
	assert.Equal(t, money.Cents(0), receipt.Change)
	assert.Equal(t, money.MustParse("10.00"), receipt.Total)
	assert.Equal(t, types.StateReady, f.ctrl.State())
	assert.Equal(t, money.Cents(0), f.ctrl.CartTotal())
	assert.Len(t, f.hw.Printer.Printed(), 1)
	require.Len(t, f.journal.completes, 1)
	assert.Equal(t, receipt.TransactionID, f.journal.completes[0].TransactionID)
	assert.Equal(t, 1, f.events.count(event.TransactionCompleted))
}

func TestTender_InvalidDenomination(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "55555")
	require.NoError(t, f.ctrl.WantsToCheckout())
	assert.ErrorIs(t, f.ctrl.Tender(money.MustParse("3.00")), payment.ErrInvalidDenomination)
	assert.Equal(t, money.Cents(0), f.ctrl.Tendered())
}

func TestScenarioD_DiscrepancyBlocksAndKeepsScannersOff(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "11111")
	enables := f.hw.MainScanner.EnableCount()

	require.NoError(t, f.hw.Scale.Place(1000))
	require.NoError(t, f.ctrl.Sync())
	assert.Equal(t, types.StateBlocked, f.ctrl.State())
	assert.Equal(t, types.CauseWeightDiscrepancy, f.ctrl.BlockCause())
	assert.False(t, f.hw.MainScanner.Enabled())

	// 锁定期间的更多读数和命令都不会重新启用扫描枪
	require.NoError(t, f.hw.Scale.Place(50))
	require.NoError(t, f.ctrl.Sync())
	assert.ErrorIs(t, f.ctrl.Scan("22222"), ErrBlocked)
	assert.ErrorIs(t, f.ctrl.WantsToCheckout(), ErrBlocked)
	assert.Equal(t, enables, f.hw.MainScanner.EnableCount())

	require.NoError(t, f.ctrl.Unblock())
	assert.Equal(t, types.StateScanning, f.ctrl.State())
	assert.Equal(t, enables+1, f.hw.MainScanner.EnableCount())
	assert.Equal(t, types.CauseNone, f.ctrl.BlockCause())
}

func TestWeightDiscrepancy_EdgeTriggered(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "11111")

	require.NoError(t, f.hw.Scale.Place(1000))
	require.NoError(t, f.ctrl.Unblock())
	assert.Equal(t, 1, f.events.count(event.StationBlocked))

	// 仍然超出容差：不再锁定
	require.NoError(t, f.hw.Scale.Place(10))
	require.NoError(t, f.ctrl.Sync())
	assert.Equal(t, types.StateScanning, f.ctrl.State())
	assert.Equal(t, 1, f.events.count(event.StationBlocked))

	// 回到容差内，再次越界才会锁定
	require.NoError(t, f.hw.Scale.Remove(510))
	require.NoError(t, f.hw.Scale.Place(600))
	require.NoError(t, f.ctrl.Sync())
	assert.Equal(t, types.StateBlocked, f.ctrl.State())
	assert.Equal(t, 2, f.events.count(event.StationBlocked))
}

func TestBlock_KeepsFirstCause(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "11111")
	require.NoError(t, f.ctrl.UseOwnBags())
	require.NoError(t, f.hw.Scale.Place(2000))
	require.NoError(t, f.ctrl.Block())
	require.NoError(t, f.ctrl.Sync())

	assert.Equal(t, types.CauseOwnBags, f.ctrl.BlockCause())
	assert.Equal(t, 1, f.events.count(event.StationBlocked))
}

func TestBlock_WhileUnavailable(t *testing.T) {
	f := newFixture(t, 0)
	assert.ErrorIs(t, f.ctrl.Block(), ErrInvalidTransition)
	require.NoError(t, f.ctrl.do("reading", func() error { return f.ctrl.observeScale(999, false) }))
	assert.Equal(t, types.StateUnavailable, f.ctrl.State())
}

func TestUnblock_Idempotent(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "11111")
	require.NoError(t, f.ctrl.Block())

	require.NoError(t, f.ctrl.Unblock())
	first := f.ctrl.Snapshot()
	require.NoError(t, f.ctrl.Unblock())
	second := f.ctrl.Snapshot()

	assert.Equal(t, first.State, second.State)
	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, 1, f.events.count(event.StationUnblocked))
}

func TestUnblock_ReturnsToCheckoutPolicy(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "55555")
	require.NoError(t, f.ctrl.WantsToCheckout())
	require.NoError(t, f.ctrl.Block())
	assert.False(t, f.hw.CoinSlot.Enabled())

	require.NoError(t, f.ctrl.Unblock())
	assert.Equal(t, types.StateCheckout, f.ctrl.State())
	assert.False(t, f.hw.MainScanner.Enabled())
	assert.False(t, f.hw.HandheldScanner.Enabled())
	assert.True(t, f.hw.CoinSlot.Enabled())
	assert.True(t, f.hw.BanknoteSlot.Enabled())
}

func TestDevicePolicy_EnableOnlyOnChange(t *testing.T) {
	f := newFixture(t, 0)
	assert.False(t, f.hw.Scale.Enabled())
	require.NoError(t, f.ctrl.TurnOn())
	assert.Equal(t, 1, f.hw.MainScanner.EnableCount())
	assert.Equal(t, 1, f.hw.Scale.EnableCount())
	assert.False(t, f.hw.CoinSlot.Enabled())

	require.NoError(t, f.ctrl.Scan("11111"))
	assert.Equal(t, 1, f.hw.MainScanner.EnableCount())

	require.NoError(t, f.ctrl.WantsToCheckout())
	assert.False(t, f.hw.MainScanner.Enabled())
	assert.True(t, f.hw.CoinSlot.Enabled())
	assert.Equal(t, 1, f.hw.Scale.EnableCount())
}

func TestAddRemove_RoundTrip(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "22222")
	total, expected := f.ctrl.CartTotal(), f.ctrl.ExpectedWeight()

	require.NoError(t, f.ctrl.Scan("11111"))
	entries := f.ctrl.CartEntries()
	require.Len(t, entries, 2)
	require.NoError(t, f.ctrl.RemoveEntry(entries[1].ID))
	require.NoError(t, f.ctrl.EndRemoval())

	assert.Equal(t, total, f.ctrl.CartTotal())
	assert.Equal(t, expected, f.ctrl.ExpectedWeight())
	assert.Equal(t, 1, f.events.count(event.ItemRemoved))
	assert.ErrorIs(t, f.ctrl.RemoveEntry(42), cart.ErrNotFound)
}

func TestRemovalWindow(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "11111", "22222")
	require.NoError(t, f.hw.Scale.Place(800))
	require.NoError(t, f.ctrl.Sync())
	require.Len(t, f.ctrl.BaggedEntries(), 2)

	require.NoError(t, f.ctrl.RemoveEntry(1))
	assert.ErrorIs(t, f.ctrl.RemoveEntry(2), ErrRemovalInProgress)
	assert.True(t, f.ctrl.Snapshot().RemovalOpen)
	require.Len(t, f.ctrl.BaggedEntries(), 1)

	// 商品还在秤上，窗口内不锁定
	require.NoError(t, f.hw.Scale.Place(5))
	require.NoError(t, f.ctrl.Sync())
	assert.Equal(t, types.StateScanning, f.ctrl.State())

	require.NoError(t, f.hw.Scale.Remove(505))
	require.NoError(t, f.ctrl.EndRemoval())
	assert.Equal(t, types.StateScanning, f.ctrl.State())
	assert.False(t, f.ctrl.Snapshot().RemovalOpen)
}

func TestRemovalWindow_EndReevaluates(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "11111", "22222")
	require.NoError(t, f.hw.Scale.Place(800))
	require.NoError(t, f.ctrl.RemoveEntry(1))
	require.NoError(t, f.ctrl.Sync())

	// 顾客没有取出商品就结束了取出流程
	require.NoError(t, f.ctrl.EndRemoval())
	assert.Equal(t, types.StateBlocked, f.ctrl.State())
	assert.Equal(t, types.CauseWeightDiscrepancy, f.ctrl.BlockCause())
}

func TestRemoveEntry_InCheckoutUpdatesDue(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "55555", "11111")
	require.NoError(t, f.ctrl.WantsToCheckout())
	require.NoError(t, f.ctrl.RemoveEntry(2))
	require.NoError(t, f.ctrl.EndRemoval())
	assert.Equal(t, money.MustParse("10.00"), f.ctrl.RemainingDue())
}

func TestAddPlasticBags(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.ctrl.TurnOn())
	assert.ErrorIs(t, f.ctrl.AddPlasticBags(-1), ErrInvalidArgument)
	require.NoError(t, f.ctrl.AddPlasticBags(0))
	assert.Equal(t, types.StateReady, f.ctrl.State())

	require.NoError(t, f.ctrl.AddPlasticBags(2))
	assert.Equal(t, types.StateScanning, f.ctrl.State())
	assert.Len(t, f.ctrl.CartEntries(), 2)
	assert.Equal(t, money.MustParse("0.20"), f.ctrl.CartTotal())
	assert.Equal(t, 16.0, f.ctrl.ExpectedWeight())
}

func TestScanByWeight(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.ctrl.TurnOn())
	require.NoError(t, f.ctrl.ScanByWeight("4011", 1500))
	assert.Equal(t, money.MustParse("2.99"), f.ctrl.CartTotal())
	assert.Equal(t, 1500.0, f.ctrl.ExpectedWeight())
	assert.ErrorIs(t, f.ctrl.ScanByWeight("4011", -3), cart.ErrInvalidWeight)
}

func TestReturnToScanning_KeepsTendered(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "55555")
	require.NoError(t, f.ctrl.WantsToCheckout())
	require.NoError(t, f.ctrl.Tender(money.MustParse("5.00")))

	require.NoError(t, f.ctrl.AddItemAfterCheckoutStart())
	assert.Equal(t, types.StateScanning, f.ctrl.State())
	assert.True(t, f.hw.MainScanner.Enabled())
	assert.False(t, f.hw.CoinSlot.Enabled())
	assert.ErrorIs(t, f.ctrl.Tender(money.MustParse("1.00")), ErrInvalidTransition)

	require.NoError(t, f.ctrl.Scan("11111"))
	require.NoError(t, f.ctrl.WantsToCheckout())
	snap := f.ctrl.Snapshot()
	assert.Equal(t, money.MustParse("12.00"), snap.Due)
	assert.Equal(t, money.MustParse("5.00"), snap.Tendered)
	assert.Equal(t, money.MustParse("7.00"), snap.RemainingDue)

	// 已经投入现金的交易不能作废
	require.NoError(t, f.ctrl.AddItemAfterCheckoutStart())
	assert.ErrorIs(t, f.ctrl.CancelTransaction(), ErrInvalidTransition)
}

// hold 让控制循环停在一条请求上，直到返回的函数被调用
func (f *fixture) hold(t *testing.T) func() {
	t.Helper()
	entered := make(chan struct{})
	release := make(chan struct{})
	f.ctrl.post("hold", func() error {
		close(entered)
		<-release
		return nil
	})
	<-entered
	return func() { close(release) }
}

func TestTender_DeviceCashQueuedBehindBlock(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "55555")
	require.NoError(t, f.hw.Scale.Place(200))
	require.NoError(t, f.ctrl.WantsToCheckout())

	release := f.hold(t)
	// 投币口在 Checkout 中收下硬币，但排在它前面的重量读数会先让收银台锁定
	require.NoError(t, f.hw.Scale.Place(900))
	require.NoError(t, f.hw.CoinSlot.Accept(money.MustParse("2.00")))
	release()

	require.NoError(t, f.ctrl.Sync())
	assert.Equal(t, types.StateBlocked, f.ctrl.State())
	assert.Equal(t, money.MustParse("2.00"), f.ctrl.Tendered())

	require.NoError(t, f.ctrl.Unblock())
	snap := f.ctrl.Snapshot()
	assert.Equal(t, types.StateCheckout, snap.State)
	assert.Equal(t, money.MustParse("2.00"), snap.Tendered)
	assert.Equal(t, money.MustParse("8.00"), snap.RemainingDue)
}

func TestTender_DeviceCashAfterReturnToScanning(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "55555")
	require.NoError(t, f.ctrl.WantsToCheckout())

	release := f.hold(t)
	require.NoError(t, f.hw.BanknoteSlot.Accept(money.MustParse("5.00")))
	returned := make(chan error, 1)
	go func() { returned <- f.ctrl.AddItemAfterCheckoutStart() }()
	require.Eventually(t, func() bool { return len(f.ctrl.requests) == 2 }, time.Second, time.Millisecond)
	// 这枚硬币排在返回扫码命令之后
	f.ctrl.onDeviceEvent(device.Event{Kind: device.KindCoin, Device: types.DeviceCoinSlot, Value: money.MustParse("1.00")})
	release()

	require.NoError(t, <-returned)
	require.NoError(t, f.ctrl.Sync())
	assert.Equal(t, types.StateScanning, f.ctrl.State())
	assert.Equal(t, money.MustParse("6.00"), f.ctrl.Tendered())

	require.NoError(t, f.ctrl.WantsToCheckout())
	assert.Equal(t, money.MustParse("4.00"), f.ctrl.Snapshot().RemainingDue)
}

func TestTender_DeviceCashWithoutTransactionRejected(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "11111")

	f.ctrl.onDeviceEvent(device.Event{Kind: device.KindCoin, Device: types.DeviceCoinSlot, Value: money.MustParse("1.00")})
	require.NoError(t, f.ctrl.Sync())
	assert.Equal(t, money.Cents(0), f.ctrl.Tendered())
	assert.Equal(t, 0, f.events.count(event.PaymentAccepted))

	f.ctrl.mu.Lock()
	err := f.ctrl.tender(money.MustParse("1.00"), types.DeviceCoinSlot)
	f.ctrl.mu.Unlock()
	assert.ErrorIs(t, err, payment.ErrNotStarted)
}

func TestDenominations(t *testing.T) {
	f := newFixture(t, 0)
	assert.Equal(t, payment.DefaultDenominations, f.ctrl.Denominations())
}

func TestCancelTransaction(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "11111")
	txn := f.ctrl.Snapshot().TransactionID

	require.NoError(t, f.ctrl.CancelTransaction())
	assert.Equal(t, types.StateReady, f.ctrl.State())
	assert.Equal(t, money.Cents(0), f.ctrl.CartTotal())
	assert.Equal(t, []string{txn}, f.journal.abandons)
	assert.True(t, f.hw.MainScanner.Enabled())
	assert.ErrorIs(t, f.ctrl.CancelTransaction(), ErrInvalidTransition)
}

func TestScaleOverload(t *testing.T) {
	f := newFixture(t, 1000)
	f.scanning(t, "11111")
	assert.ErrorIs(t, f.hw.Scale.Place(1500), device.ErrOverload)
	require.NoError(t, f.ctrl.Sync())
	assert.Equal(t, types.StateBlocked, f.ctrl.State())
	assert.Equal(t, types.CauseScaleOverload, f.ctrl.BlockCause())
}

func TestTurnOff_AbandonsTransaction(t *testing.T) {
	f := newFixture(t, 0)
	f.scanning(t, "11111")
	require.NoError(t, f.ctrl.TurnOff())

	assert.Equal(t, types.StateUnavailable, f.ctrl.State())
	assert.Len(t, f.journal.abandons, 1)
	assert.Equal(t, 1, f.events.count(event.TransactionAbandoned))
	for _, d := range f.ctrl.devices() {
		assert.False(t, d.Enabled(), d.ID())
	}
	assert.Empty(t, f.ctrl.Snapshot().Entries)

	require.NoError(t, f.ctrl.TurnOff())
	require.NoError(t, f.ctrl.TurnOn())
	assert.Equal(t, types.StateReady, f.ctrl.State())
}

func TestDeviceEvents(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.ctrl.TurnOn())

	require.NoError(t, f.hw.HandheldScanner.Scan("11111"))
	require.NoError(t, f.hw.MainScanner.Scan("99999")) // 被控制器拒绝，只记录日志
	require.NoError(t, f.ctrl.Sync())
	assert.Equal(t, money.MustParse("2.00"), f.ctrl.CartTotal())

	require.NoError(t, f.ctrl.WantsToCheckout())
	assert.ErrorIs(t, f.hw.MainScanner.Scan("11111"), device.ErrDisabled)
	require.NoError(t, f.hw.CoinSlot.Accept(money.MustParse("2.00")))
	require.NoError(t, f.ctrl.Sync())
	assert.Equal(t, money.MustParse("2.00"), f.ctrl.Tendered())

	e := f.events.last()
	assert.Equal(t, event.PaymentAccepted, e.Type)
	assert.Equal(t, types.DeviceCoinSlot, e.Device)
	assert.Equal(t, "lane-test", e.StationID)
	assert.Equal(t, types.StateCheckout, e.Snapshot.State)
}

func TestSnapshotVersionIncreases(t *testing.T) {
	f := newFixture(t, 0)
	v0 := f.ctrl.Snapshot().Version
	require.NoError(t, f.ctrl.TurnOn())
	v1 := f.ctrl.Snapshot().Version
	require.NoError(t, f.ctrl.Scan("11111"))
	v2 := f.ctrl.Snapshot().Version
	assert.Less(t, v0, v1)
	assert.Less(t, v1, v2)
}

func TestStopped(t *testing.T) {
	f := newFixture(t, 0)
	f.cancel()
	require.Eventually(t, func() bool {
		return IsStopped(f.ctrl.Sync())
	}, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, f.ctrl.Scan("11111"), ErrStopped)
}
