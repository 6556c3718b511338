package main

import (
	"context"
	"fmt"
	"log/slog"
	"self-checkout/internal/app"
	"self-checkout/internal/catalog"
	"self-checkout/internal/device"
	"self-checkout/internal/money"
	"self-checkout/internal/types"
	"sort"

	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "模拟一位顾客完成一次自助结账",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		items, _ := cmd.Flags().GetInt("items")
		bags, _ := cmd.Flags().GetInt("bags")
		misplace, _ := cmd.Flags().GetFloat64("misplace-g")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		a.Start(ctx)

		s := &simulation{app: a, logger: logger.With("component", "simulator")}
		receipt, err := s.run(ctx, items, bags, misplace)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), device.FormatReceipt(receipt))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Int("items", 3, "扫描的条码商品数量")
	simulateCmd.Flags().Int("bags", 1, "购买的塑料袋数量")
	simulateCmd.Flags().Float64("misplace-g", 0, "顾客在装袋区多放的重量（克），大于 0 时触发店员干预")
}

// simulation 通过模拟硬件驱动收银台，和真实顾客的操作顺序一致
type simulation struct {
	app    *app.App
	logger *slog.Logger
}

func (s *simulation) run(ctx context.Context, items, bags int, misplace float64) (r types.Receipt, err error) {
	ctrl, hw := s.app.Controller, s.app.Hardware
	if err := ctrl.TurnOn(); err != nil {
		return r, err
	}

	products, err := s.barcoded(ctx, items)
	if err != nil {
		return r, err
	}
	for _, p := range products {
		if err := hw.MainScanner.Scan(p.Code); err != nil {
			return r, err
		}
		if err := s.bag(p.Weight); err != nil {
			return r, err
		}
		s.logger.Info("已扫描并装袋", "code", p.Code, "weight_g", p.Weight)
	}

	if bags > 0 {
		if err := ctrl.AddPlasticBags(bags); err != nil {
			return r, err
		}
		bag, err := s.app.Catalog.Lookup(s.app.Config.Station.BagCode)
		if err != nil {
			return r, err
		}
		if err := s.bag(bag.Weight * float64(bags)); err != nil {
			return r, err
		}
	}

	if misplace > 0 {
		if err := s.bag(misplace); err != nil {
			return r, err
		}
		snap := ctrl.Snapshot()
		s.logger.Warn("装袋区出现未扫描的物品", "state", snap.State, "cause", snap.BlockCause)
		// 店员让顾客拿走多余物品后解锁
		if err := hw.Scale.Remove(misplace); err != nil {
			return r, err
		}
		if err := ctrl.Unblock(); err != nil {
			return r, err
		}
	}

	if err := ctrl.WantsToCheckout(); err != nil {
		return r, err
	}
	if err := s.pay(); err != nil {
		return r, err
	}
	return ctrl.FinishCheckout()
}

// barcoded 选出前 n 个带固定重量的条码商品
func (s *simulation) barcoded(ctx context.Context, n int) ([]catalog.Product, error) {
	all, err := s.app.Catalog.Products(ctx)
	if err != nil {
		return nil, err
	}
	var out []catalog.Product
	for _, p := range all {
		if len(out) == n {
			break
		}
		if p.PLU || p.SoldByWeight || p.Weight <= 0 || p.Code == s.app.Config.Station.BagCode {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("商品目录中没有可模拟的条码商品")
	}
	return out, nil
}

// bag 把物品放到装袋区并等待控制器处理读数
func (s *simulation) bag(grams float64) error {
	if grams <= 0 {
		return nil
	}
	if err := s.app.Hardware.Scale.Place(grams); err != nil {
		return err
	}
	return s.app.Controller.Sync()
}

// pay 每次投入不小于剩余金额的最小面额，没有时投入最大面额
func (s *simulation) pay() error {
	coins, banknotes, err := s.app.Config.Station.Denominations()
	if err != nil {
		return err
	}
	type cash struct {
		value money.Cents
		slot  *device.Slot
	}
	var all []cash
	for _, c := range coins {
		all = append(all, cash{c, s.app.Hardware.CoinSlot})
	}
	for _, b := range banknotes {
		all = append(all, cash{b, s.app.Hardware.BanknoteSlot})
	}
	if len(all) == 0 {
		return fmt.Errorf("没有配置可用面额")
	}
	sort.Slice(all, func(i, j int) bool { return all[i].value < all[j].value })

	for {
		remaining := s.app.Controller.RemainingDue()
		if remaining == 0 {
			return nil
		}
		pick := all[len(all)-1]
		for _, c := range all {
			if c.value >= remaining {
				pick = c
				break
			}
		}
		if err := pick.slot.Accept(pick.value); err != nil {
			return err
		}
		if err := s.app.Controller.Sync(); err != nil {
			return err
		}
		if s.app.Controller.RemainingDue() == remaining {
			return fmt.Errorf("面额 %s 未被收银台接受", pick.value)
		}
		s.logger.Info("投入现金", "value", pick.value.String(), "remaining", s.app.Controller.RemainingDue().String())
	}
}
