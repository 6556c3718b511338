package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"self-checkout/internal/cart"
	"self-checkout/internal/catalog"
	"self-checkout/internal/device"
	"self-checkout/internal/money"
	"self-checkout/internal/payment"
	"self-checkout/internal/station"
	"self-checkout/internal/util"
)

// errorResponse 是所有错误响应的 JSON 格式
type errorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// statusFor 将领域错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, cart.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidArgument),
		errors.Is(err, cart.ErrInvalidWeight),
		errors.Is(err, payment.ErrInvalidDenomination),
		errors.Is(err, station.ErrInvalidArgument),
		errors.Is(err, device.ErrInvalidArgument),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrNotSatisfied),
		errors.Is(err, payment.ErrNotStarted),
		errors.Is(err, station.ErrInvalidTransition),
		errors.Is(err, station.ErrRemovalInProgress),
		errors.Is(err, device.ErrDisabled):
		return http.StatusConflict
	case errors.Is(err, station.ErrBlocked):
		return http.StatusLocked
	case errors.Is(err, station.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	traceID, _ := util.TraceIDFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("请求处理失败", "path", r.URL.Path, "error", err, "trace_id", traceID)
	} else {
		s.logger.Info("请求被拒绝", "path", r.URL.Path, "status", status, "error", err, "trace_id", traceID)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), TraceID: traceID})
}
