package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"self-checkout/internal/util"
	"time"
)

// RemoteSource 代表一个通过 HTTP 调用的远程商品目录服务客户端
// 它实现了 Source 接口，使启动流程可以像读取本地配置一样读取远程目录
type RemoteSource struct {
	Endpoint string       // 远程服务的地址 (e.g., http://localhost:9090)
	Client   *http.Client // HTTP 客户端
	logger   *slog.Logger
}

// NewRemoteSource 创建一个新的远程目录客户端
func NewRemoteSource(endpoint string, logger *slog.Logger) *RemoteSource {
	return &RemoteSource{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger.With("component", "remote_catalog", "endpoint", endpoint),
	}
}

// Products 通过 GET /products 拉取完整商品目录
func (s *RemoteSource) Products(ctx context.Context) ([]Product, error) {
	logger := s.logger
	traceID, ok := util.TraceIDFromContext(ctx)
	if !ok {
		traceID = util.NewTraceID()
	}
	logger = logger.With("trace_id", traceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint+"/products", nil)
	if err != nil {
		return nil, err
	}
	// 将 Trace ID 放入 HTTP Header 中，实现跨服务追踪
	req.Header.Set("X-Trace-ID", traceID)

	resp, err := s.Client.Do(req)
	if err != nil {
		logger.Error("远程目录调用失败", "error", err)
		return nil, fmt.Errorf("远程调用失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("远程目录返回错误状态", "status", resp.Status)
		return nil, fmt.Errorf("远程服务错误: %s", resp.Status)
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	logger.Info("已拉取远程商品目录", "count", len(products))
	return products, nil
}
