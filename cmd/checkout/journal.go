package main

import (
	"fmt"
	"self-checkout/internal/device"
	"self-checkout/internal/persistence"

	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "打印交易日志中的小票",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("path"); path != "" {
			cfg.JournalPath = path
		}
		if cfg.JournalPath == "" {
			return fmt.Errorf("未配置 journal_path")
		}

		j, err := persistence.OpenJournal(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()

		out := cmd.OutOrStdout()
		if pending, _ := cmd.Flags().GetBool("pending"); pending {
			ids, err := j.Recover()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		}

		receipts, err := j.Receipts()
		if err != nil {
			return err
		}
		for _, r := range receipts {
			fmt.Fprintln(out, device.FormatReceipt(r))
		}
		fmt.Fprintf(out, "%d 笔已完成交易\n", len(receipts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().String("path", "", "覆盖 journal_path")
	journalCmd.Flags().Bool("pending", false, "只列出未完成的交易")
}
