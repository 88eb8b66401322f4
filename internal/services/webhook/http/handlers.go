// Package http receives storefront webhooks
//
// Webhooks are authenticated with an HMAC over the raw body and acked
// with a 200 before any real work happens; the platform retries slow or
// failing endpoints aggressively, so the pipeline runs in the
// background queue instead of inline
package http

import (
	"encoding/json"
	"io"
	stdhttp "net/http"

	"fraudshield/internal/core/webhooksig"
	"fraudshield/internal/modkit/httpkit"
	perr "fraudshield/internal/platform/errors"
	"fraudshield/internal/platform/logger"
	checkdom "fraudshield/internal/services/check/domain"
	shopsdom "fraudshield/internal/services/shops/domain"
)

// ShopHeader carries the sender's shop domain
const ShopHeader = "X-Shop-Domain"

// maxBody caps webhook payloads, orders are nowhere near this
const maxBody = 1 << 20

// Handlers owns the webhook endpoints
type Handlers struct {
	secret string
	enq    checkdom.EnqueuerPort
	shops  shopsdom.WriterPort
	log    logger.Logger
}

// New constructs webhook handlers
func New(secret string, enq checkdom.EnqueuerPort, shops shopsdom.WriterPort) *Handlers {
	return &Handlers{
		secret: secret,
		enq:    enq,
		shops:  shops,
		log:    *logger.Named("webhook"),
	}
}

// Register mounts webhook endpoints on the given router
func Register(r httpkit.Router, h *Handlers) {
	r.Post("/orders/create", httpkit.Handle(h.ordersCreate))
	r.Post("/orders/updated", httpkit.Handle(h.ordersUpdated))
	r.Post("/app/uninstalled", httpkit.Handle(h.appUninstalled))
}

type orderEvent struct {
	ID int64 `json:"id"`
}

// authenticate reads and verifies the raw body, returning it with the
// sending shop. Verification failures all collapse to 401 on the wire
func (h *Handlers) authenticate(r *stdhttp.Request) (shop string, body []byte, err error) {
	body, err = io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return "", nil, perr.Unauthorizedf("unreadable webhook body")
	}
	sig := r.Header.Get(webhooksig.Header)
	if err := webhooksig.Verify(body, sig, h.secret); err != nil {
		h.log.Warn().
			Str("shop", r.Header.Get(ShopHeader)).
			Str("path", r.URL.Path).
			Msg("webhook signature rejected")
		return "", nil, err
	}
	shop = r.Header.Get(ShopHeader)
	if shop == "" {
		return "", nil, perr.Unauthorizedf("missing shop header")
	}
	return shop, body, nil
}

func (h *Handlers) orderWebhook(r *stdhttp.Request, trigger checkdom.Trigger) httpkit.Response {
	shop, body, err := h.authenticate(r)
	if err != nil {
		return httpkit.Error(err)
	}
	var ev orderEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.ID == 0 {
		// malformed but authentic, ack so the platform stops retrying
		h.log.Warn().Str("shop", shop).Msg("webhook payload unusable, acked anyway")
		return httpkit.OK(map[string]any{"queued": false})
	}

	// ack-then-work: the enqueue result only affects the response body,
	// never the status
	queued := h.enq.Enqueue(checkdom.Job{
		Shop:    shop,
		OrderID: ev.ID,
		Trigger: trigger,
	})
	return httpkit.OK(map[string]any{"queued": queued})
}

func (h *Handlers) ordersCreate(r *stdhttp.Request) httpkit.Response {
	return h.orderWebhook(r, checkdom.TriggerCreated)
}

func (h *Handlers) ordersUpdated(r *stdhttp.Request) httpkit.Response {
	return h.orderWebhook(r, checkdom.TriggerUpdated)
}

func (h *Handlers) appUninstalled(r *stdhttp.Request) httpkit.Response {
	shop, _, err := h.authenticate(r)
	if err != nil {
		return httpkit.Error(err)
	}
	if err := h.shops.Uninstall(r.Context(), shop); err != nil {
		// ack regardless, the platform will not resend forever
		h.log.Warn().Err(err).Str("shop", shop).Msg("uninstall record failed")
	}
	return httpkit.OK(map[string]any{"uninstalled": true})
}
