package main

import (
	"context"
	"os/signal"
	"self-checkout/internal/app"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动收银台和 HTTP 接口",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Server.Listen = listen
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		// 控制器的生命周期比 HTTP 服务长，停机时还要处理关机命令
		runCtx, cancelRun := context.WithCancel(context.Background())
		defer cancelRun()

		logger.Info("=== 自助收银台启动 ===", "station_id", cfg.Station.ID)
		a.Start(runCtx)
		if on, _ := cmd.Flags().GetBool("power-on"); on {
			if err := a.Controller.TurnOn(); err != nil {
				return err
			}
		}

		err = a.Serve(ctx)
		// 关机时放弃进行中的交易，写入日志
		if offErr := a.Controller.TurnOff(); offErr != nil {
			logger.Warn("关机失败", "error", offErr)
		}
		logger.Info("收银台已安全退出")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "覆盖 server.listen")
	serveCmd.Flags().Bool("power-on", true, "启动后立即开机")
}
