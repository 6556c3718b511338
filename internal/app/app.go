package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"self-checkout/internal/alert"
	"self-checkout/internal/api"
	"self-checkout/internal/catalog"
	"self-checkout/internal/config"
	"self-checkout/internal/device"
	"self-checkout/internal/event"
	"self-checkout/internal/handlers"
	"self-checkout/internal/persistence"
	"self-checkout/internal/station"
	"self-checkout/internal/web"
	"time"
)

// App 持有一台收银台运行所需的全部组件
type App struct {
	Config     *config.Config
	Catalog    *catalog.Memory
	Hardware   *device.Station
	Controller *station.Controller
	Bus        *event.Bus
	Hub        *web.Hub
	Tracker    *web.StateTracker
	Journal    *persistence.Journal

	logger *slog.Logger
}

// New 按配置组装收银台：加载商品目录、恢复交易日志、创建硬件和控制器并注册事件处理器
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	products, err := LoadCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("商品目录已加载", "source", cfg.Catalog.Source, "count", products.Len())

	coins, banknotes, err := cfg.Station.Denominations()
	if err != nil {
		return nil, err
	}
	denominations, err := cfg.Station.AllDenominations()
	if err != nil {
		return nil, err
	}
	alerts, err := alert.NewEngine(cfg.Alerts)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Catalog: products, logger: logger}

	var journal station.Journal
	if cfg.JournalPath != "" {
		a.Journal, err = persistence.OpenJournal(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("无法打开交易日志: %w", err)
		}
		if err := a.recoverJournal(); err != nil {
			a.Journal.Close()
			return nil, err
		}
		journal = a.Journal
	}

	a.Hub = web.NewHub(logger)
	a.Tracker = web.NewStateTracker(a.Hub)
	a.Bus = event.NewBus()
	handlers.RegisterEventHandlers(a.Bus, a.Tracker, alerts, logger)

	a.Hardware = device.NewStation(cfg.Station.Sensitivity, cfg.Station.WeightLimit, coins, banknotes, logger)
	a.Controller, err = station.New(products, station.HardwareFrom(a.Hardware), station.Options{
		StationID:     cfg.Station.ID,
		BagCode:       cfg.Station.BagCode,
		Denominations: denominations,
		QueueSize:     cfg.Station.QueueSize,
		Journal:       journal,
		Bus:           a.Bus,
		Logger:        logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Tracker.Update(a.Controller.Snapshot())
	return a, nil
}

// recoverJournal 把上次运行中断的交易标记为放弃
func (a *App) recoverJournal() error {
	pending, err := a.Journal.Recover()
	if err != nil {
		return fmt.Errorf("从交易日志恢复失败: %w", err)
	}
	for _, id := range pending {
		a.logger.Warn("发现未完成的交易，标记为放弃", "txn_id", id)
		if err := a.Journal.Abandon(id, "station restarted"); err != nil {
			return err
		}
	}
	return nil
}

// Start 启动控制器事件循环和 WebSocket Hub，直到 ctx 被取消
func (a *App) Start(ctx context.Context) {
	go a.Hub.Run(ctx)
	go a.Controller.Run(ctx)
}

// Handler 返回 HTTP 接口
func (a *App) Handler() http.Handler {
	return api.NewServer(a.Controller, a.Catalog, a.Hardware, a.Hub, a.logger).Routes()
}

// Serve 在配置的地址上提供 HTTP 服务，ctx 取消后优雅关闭
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: a.Config.Server.Listen, Handler: a.Handler()}
	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("API 和前端服务器启动", "listen", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close 关闭交易日志
func (a *App) Close() error {
	if a.Journal != nil {
		return a.Journal.Close()
	}
	return nil
}

// LoadCatalog 根据配置选择商品目录来源并加载到内存
func LoadCatalog(ctx context.Context, cfg config.CatalogConfig, logger *slog.Logger) (*catalog.Memory, error) {
	switch cfg.Source {
	case config.SourceFile, "":
		return catalog.Load(ctx, catalog.FileSource{Entries: cfg.Products})
	case config.SourceRedis:
		store := catalog.NewRedisStore(cfg.RedisAddr, "", 0, catalog.WithRedisPrefix(cfg.RedisPrefix))
		defer store.Close()
		return catalog.Load(ctx, store)
	case config.SourceRemote:
		return catalog.Load(ctx, catalog.NewRemoteSource(cfg.RemoteURL, logger))
	}
	return nil, fmt.Errorf("未知的商品目录来源: %q", cfg.Source)
}
