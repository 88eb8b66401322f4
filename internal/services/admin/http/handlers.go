// Package http provides the merchant admin endpoints
package http

import (
	stdhttp "net/http"
	"strconv"

	"fraudshield/internal/core/phone"
	"fraudshield/internal/modkit/httpkit"
	perr "fraudshield/internal/platform/errors"
	checkdom "fraudshield/internal/services/check/domain"
	shopsdom "fraudshield/internal/services/shops/domain"
)

// Handlers owns the admin endpoints
type Handlers struct {
	checker checkdom.CheckerPort
	risk    checkdom.RiskPort
	reader  shopsdom.ReaderPort
	writer  shopsdom.WriterPort
}

// New constructs admin handlers
func New(checker checkdom.CheckerPort, risk checkdom.RiskPort, reader shopsdom.ReaderPort, writer shopsdom.WriterPort) *Handlers {
	return &Handlers{checker: checker, risk: risk, reader: reader, writer: writer}
}

// Register mounts admin endpoints on the given router
func Register(r httpkit.Router, h *Handlers) {
	httpkit.Post(r, "/orders/{id}/check", h.manualCheck)
	httpkit.Post(r, "/connection/test", h.testConnection)
	httpkit.Delete(r, "/cache", h.dropCache)
	httpkit.Get(r, "/settings", h.getSettings)
	httpkit.PutJSON[shopsdom.Settings](r, "/settings", h.putSettings)
}

// CheckBody is the manual check response
type CheckBody struct {
	Outcome        string  `json:"outcome"`
	Phone          string  `json:"phone,omitempty"`
	RiskLevel      string  `json:"risk_level,omitempty"`
	RiskLabel      string  `json:"risk_label,omitempty"`
	TotalParcels   int     `json:"total_parcel"`
	SuccessParcels int     `json:"success_parcel"`
	CancelParcels  int     `json:"cancel_parcel"`
	SuccessRatio   float64 `json:"success_ratio"`
	ReportCount    int     `json:"report_count"`
	FromCache      bool    `json:"from_cache"`
	DailyRemaining int     `json:"daily_remaining"`
}

// @Summary Re-check one order now
// @Tags Admin
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} CheckBody "ok"
// @Router /admin/orders/{id}/check [post]
func (h *Handlers) manualCheck(r *stdhttp.Request) (any, error) {
	shop, err := httpkit.RequireShop(r)
	if err != nil {
		return nil, err
	}
	orderID, err := strconv.ParseInt(httpkit.Param(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		return nil, perr.Validationf("order id must be a positive integer")
	}

	res, err := h.checker.Check(r.Context(), shop, orderID, checkdom.TriggerManual)
	if err != nil {
		return nil, err
	}
	return CheckBody{
		Outcome:        res.Outcome.String(),
		Phone:          res.Phone.String(),
		RiskLevel:      res.Tier.String(),
		RiskLabel:      res.Tier.Label(),
		TotalParcels:   res.Risk.TotalParcels,
		SuccessParcels: res.Risk.SuccessParcels,
		CancelParcels:  res.Risk.CancelParcels,
		SuccessRatio:   res.Risk.SuccessRatio,
		ReportCount:    len(res.Risk.Reports),
		FromCache:      res.Risk.FromCache,
		DailyRemaining: res.Risk.Rate.Remaining,
	}, nil
}

// @Summary Verify the risk service credential
// @Tags Admin
// @Produce json
// @Router /admin/connection/test [post]
func (h *Handlers) testConnection(r *stdhttp.Request) (any, error) {
	if _, err := httpkit.RequireShop(r); err != nil {
		return nil, err
	}
	if err := h.risk.TestConnection(r.Context()); err != nil {
		return nil, err
	}
	return map[string]any{"connected": true}, nil
}

// dropCache invalidates one number when ?phone= is given, or flushes
// the whole cache when it is not
//
// @Summary Drop cached risk results
// @Tags Admin
// @Param phone query string false "BD mobile number"
// @Router /admin/cache [delete]
func (h *Handlers) dropCache(r *stdhttp.Request) (any, error) {
	if _, err := httpkit.RequireShop(r); err != nil {
		return nil, err
	}
	raw := r.URL.Query().Get("phone")
	if raw == "" {
		h.risk.FlushCache()
		return map[string]any{"flushed": true, "cached": h.risk.CacheSize()}, nil
	}
	num, ok := phone.Normalize(raw)
	if !ok {
		return nil, perr.InvalidPhonef("%q is not a valid BD mobile number", raw)
	}
	h.risk.Invalidate(num)
	return map[string]any{"invalidated": num.String(), "cached": h.risk.CacheSize()}, nil
}

func (h *Handlers) getSettings(r *stdhttp.Request) (any, error) {
	shop, err := httpkit.RequireShop(r)
	if err != nil {
		return nil, err
	}
	sh, err := h.reader.Get(r.Context(), shop)
	if err != nil {
		return nil, err
	}
	return sh.SettingsOf(), nil
}

func (h *Handlers) putSettings(r *stdhttp.Request, in shopsdom.Settings) (any, error) {
	shop, err := httpkit.RequireShop(r)
	if err != nil {
		return nil, err
	}
	if err := h.writer.UpdateSettings(r.Context(), shop, in); err != nil {
		return nil, err
	}
	return in, nil
}
