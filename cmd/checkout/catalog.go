package main

import (
	"fmt"
	"self-checkout/internal/app"
	"self-checkout/internal/catalog"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "商品目录工具",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出配置来源中的全部商品",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		products, err := app.LoadCatalog(cmd.Context(), cfg.Catalog, logger)
		if err != nil {
			return err
		}
		all, err := products.Products(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range all {
			price := p.Price.String()
			if p.SoldByWeight {
				price = p.PricePerKg.String() + "/kg"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-24s %10s %8.0fg\n", p.Code, p.Name, price, p.Weight)
		}
		return nil
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "把配置文件中的商品写入 Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		products, err := catalog.FileSource{Entries: cfg.Catalog.Products}.Products(cmd.Context())
		if err != nil {
			return err
		}

		store := catalog.NewRedisStore(cfg.Catalog.RedisAddr, "", 0, catalog.WithRedisPrefix(cfg.Catalog.RedisPrefix))
		defer store.Close()
		for _, p := range products {
			if err := store.Put(cmd.Context(), p); err != nil {
				return fmt.Errorf("写入商品 %s 失败: %w", p.Code, err)
			}
		}
		logger.Info("商品已写入 Redis", "addr", cfg.Catalog.RedisAddr, "count", len(products))
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd, catalogSeedCmd)
	rootCmd.AddCommand(catalogCmd)
}
