package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"self-checkout/internal/device"
	"self-checkout/internal/money"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type scanRequest struct {
	Code    string `json:"code"`
	Scanner string `json:"scanner,omitempty"` // main | handheld，为空时直接录入
}

type scanWeightRequest struct {
	Code   string  `json:"code"`
	Weight float64 `json:"weight_g"`
}

type bagsRequest struct {
	Count int `json:"count"`
}

type tenderRequest struct {
	Amount string `json:"amount"`         // 例如 "5.00"
	Slot   string `json:"slot,omitempty"` // coin | banknote，为空时直接记账
}

type weightRequest struct {
	Weight float64 `json:"weight_g"`
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// command 包装没有参数的控制器命令，成功后返回最新快照
func (s *Server) command(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
	}
}

// afterDevice 等待设备事件被控制器处理完，再返回快照
func (s *Server) afterDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Sync(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		products, err := s.products.Products(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
		return
	}
	writeJSON(w, http.StatusOK, s.products.Search(q))
}

func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Scanner == "" {
		s.command(func() error { return s.ctrl.Scan(req.Code) })(w, r)
		return
	}

	scanner, err := s.scanner(req.Scanner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := scanner.Scan(req.Code); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.afterDevice(w, r)
}

func (s *Server) scanner(name string) (*device.Scanner, error) {
	if s.hw == nil {
		return nil, fmt.Errorf("%w: no simulated hardware", errBadRequest)
	}
	switch name {
	case "main":
		return s.hw.MainScanner, nil
	case "handheld":
		return s.hw.HandheldScanner, nil
	}
	return nil, fmt.Errorf("%w: unknown scanner %q", errBadRequest, name)
}

func (s *Server) scanWeight(w http.ResponseWriter, r *http.Request) {
	var req scanWeightRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.command(func() error { return s.ctrl.ScanByWeight(req.Code, req.Weight) })(w, r)
}

func (s *Server) addBags(w http.ResponseWriter, r *http.Request) {
	var req bagsRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.command(func() error { return s.ctrl.AddPlasticBags(req.Count) })(w, r)
}

func (s *Server) tender(w http.ResponseWriter, r *http.Request) {
	var req tenderRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	value, err := money.Parse(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Slot == "" {
		s.command(func() error { return s.ctrl.Tender(value) })(w, r)
		return
	}

	if s.hw == nil {
		s.writeError(w, r, fmt.Errorf("%w: no simulated hardware", errBadRequest))
		return
	}
	slot := s.hw.CoinSlot
	switch req.Slot {
	case "coin":
	case "banknote":
		slot = s.hw.BanknoteSlot
	default:
		s.writeError(w, r, fmt.Errorf("%w: unknown slot %q", errBadRequest, req.Slot))
		return
	}
	if err := slot.Accept(value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.afterDevice(w, r)
}

func (s *Server) finishCheckout(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.ctrl.FinishCheckout()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) denominations(w http.ResponseWriter, r *http.Request) {
	values := s.ctrl.Denominations()
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.String())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) baggedEntries(w http.ResponseWriter, r *http.Request) {
	entries := s.ctrl.BaggedEntries()
	out := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.View())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) removeEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: entry id %q", errBadRequest, chi.URLParam(r, "id")))
		return
	}
	s.command(func() error { return s.ctrl.RemoveEntry(id) })(w, r)
}

func (s *Server) scalePlace(w http.ResponseWriter, r *http.Request) {
	s.scaleChange(w, r, func(g float64) error { return s.hw.Scale.Place(g) })
}

func (s *Server) scaleRemove(w http.ResponseWriter, r *http.Request) {
	s.scaleChange(w, r, func(g float64) error { return s.hw.Scale.Remove(g) })
}

// scaleChange 模拟顾客在装袋区放入或取出物品
// 超出量程仍然返回快照，收银台此时已被锁定
func (s *Server) scaleChange(w http.ResponseWriter, r *http.Request, change func(float64) error) {
	if s.hw == nil {
		s.writeError(w, r, fmt.Errorf("%w: no simulated hardware", errBadRequest))
		return
	}
	var req weightRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := change(req.Weight); err != nil && !errors.Is(err, device.ErrOverload) {
		s.writeError(w, r, err)
		return
	}
	s.afterDevice(w, r)
}
