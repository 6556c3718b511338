package api

import (
	"log/slog"
	"net/http"
	"self-checkout/internal/catalog"
	"self-checkout/internal/device"
	"self-checkout/internal/station"
	"self-checkout/internal/util"
	"self-checkout/internal/web"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server 是收银台展示层的 HTTP 接口
// 所有写操作都转发给控制器，由控制器的事件循环串行执行
type Server struct {
	ctrl     *station.Controller
	products *catalog.Memory
	hw       *device.Station
	hub      *web.Hub
	logger   *slog.Logger
}

// NewServer 创建 HTTP 接口；hw 为 nil 时不提供模拟设备接口，hub 为 nil 时不提供 /ws
func NewServer(ctrl *station.Controller, products *catalog.Memory, hw *device.Station, hub *web.Hub, logger *slog.Logger) *Server {
	return &Server{
		ctrl:     ctrl,
		products: products,
		hw:       hw,
		hub:      hub,
		logger:   logger.With("component", "api"),
	}
}

// Routes 返回注册好全部路由的 chi 路由器
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.traceRequests)

	r.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		r.Get("/ws", s.hub.ServeWs(func() interface{} { return s.ctrl.Snapshot() }))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.getState)
		r.Get("/products", s.searchProducts)

		r.Post("/power/on", s.command(s.ctrl.TurnOn))
		r.Post("/power/off", s.command(s.ctrl.TurnOff))

		r.Post("/scan", s.scan)
		r.Post("/scan-weight", s.scanWeight)
		r.Post("/bags", s.addBags)
		r.Post("/cancel", s.command(s.ctrl.CancelTransaction))

		r.Post("/checkout", s.command(s.ctrl.WantsToCheckout))
		r.Post("/checkout/return", s.command(s.ctrl.AddItemAfterCheckoutStart))
		r.Post("/checkout/finish", s.finishCheckout)
		r.Post("/tender", s.tender)
		r.Get("/denominations", s.denominations)

		r.Get("/entries/bagged", s.baggedEntries)
		r.Post("/entries/{id}/remove", s.removeEntry)
		r.Post("/bagging/done", s.command(s.ctrl.EndRemoval))

		r.Post("/block", s.command(s.ctrl.Block))
		r.Post("/unblock", s.command(s.ctrl.Unblock))
		r.Post("/own-bags", s.command(s.ctrl.UseOwnBags))

		r.Post("/scale/place", s.scalePlace)
		r.Post("/scale/remove", s.scaleRemove)
	})

	return r
}

// traceRequests 为每个请求分配 Trace ID 并记录访问日志
func (s *Server) traceRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = util.NewTraceID()
		}
		w.Header().Set("X-Trace-ID", traceID)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(util.ContextWithTraceID(r.Context(), traceID)))
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration_ms", time.Since(start).Milliseconds(), "trace_id", traceID)
	})
}
