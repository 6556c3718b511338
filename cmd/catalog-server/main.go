package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"self-checkout/internal/app"
	"self-checkout/internal/catalog"
	"self-checkout/internal/config"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
)

// main 是商品目录服务的入口
// 从配置文件或 Redis 加载商品，通过 GET /products 提供给收银台
func main() {
	addr := os.Getenv("CATALOG_SERVER_ADDR")
	if addr == "" {
		addr = ":9090"
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "catalog-server")
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("加载配置失败", "error", err)
		os.Exit(1)
	}
	// 目录服务自身不能再从远程读取
	if cfg.Catalog.Source == config.SourceRemote {
		cfg.Catalog.Source = config.SourceFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	products, err := app.LoadCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		logger.Error("加载商品目录失败", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{Addr: addr, Handler: newRouter(products, logger)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("=== 商品目录服务启动 ===", "addr", addr, "source", cfg.Catalog.Source, "count", products.Len())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("服务启动失败", "error", err)
		os.Exit(1)
	}
}

func newRouter(products *catalog.Memory, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		// 从 HTTP Header 中提取 Trace ID，用于链路追踪
		reqLogger := logger
		if traceID := r.Header.Get("X-Trace-ID"); traceID != "" {
			reqLogger = reqLogger.With("trace_id", traceID)
		}
		all, err := products.Products(r.Context())
		if err != nil {
			reqLogger.Error("读取商品失败", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		reqLogger.Info("返回商品目录", "count", len(all))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(all)
	})
	r.Get("/products/{code}", func(w http.ResponseWriter, r *http.Request) {
		p, err := products.Lookup(chi.URLParam(r, "code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	})
	return r
}
