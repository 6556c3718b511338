package main

import (
	"fmt"
	"log/slog"
	"os"
	"self-checkout/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "checkout",
	Short: "自助收银台控制程序",
	Long:  `checkout 运行一台自助收银台：扫码、装袋区称重校验、现金支付和店员干预。`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config-dir", ".", "config.yaml 所在目录")
	rootCmd.PersistentFlags().String("log-level", "info", "日志级别 (debug, info, warn, error)")
}

// loadConfig 读取 --config-dir 指定目录下的配置
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("config-dir")
	return config.LoadConfig(dir)
}

// newLogger 创建 JSON 日志并设置为默认 logger
func newLogger(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
