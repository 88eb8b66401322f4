package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fraudshield/internal/adapters/riskapi"
	"fraudshield/internal/adapters/storefront"
	"fraudshield/internal/core/risk"
	shopsdom "fraudshield/internal/services/shops/domain"

	"golang.org/x/sync/errgroup"
)

// order field keys under the app namespace
const (
	fieldChecked       = "checked"
	fieldRiskLevel     = "risk_level"
	fieldRiskLabel     = "risk_label"
	fieldTotalParcel   = "total_parcel"
	fieldSuccessParcel = "success_parcel"
	fieldCancelParcel  = "cancel_parcel"
	fieldSuccessRatio  = "success_ratio"
	fieldReportCount   = "report_count"
	fieldCouriers      = "couriers"
	fieldCheckedAt     = "checked_at"
	fieldError         = "error"
)

// order tags
const (
	tagApp      = "FraudShieldBD"
	tagPrefix   = "fsbd:"
	tagReported = tagPrefix + "reported"
)

// annotate writes the verdict onto the order: fields, and when the shop
// opted in, tags and a note. Every write is best effort; a storefront
// hiccup must not undo a completed risk check, so failures are logged
// and skipped
func (s *Service) annotate(ctx context.Context, session storefront.Session, sh shopsdom.Shop, order storefront.Order, tier risk.Tier, res riskapi.Result) {
	fields := verdictFields(tier, res)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for key, value := range fields {
		key, value := key, value
		g.Go(func() error {
			if err := s.platform.SetField(gctx, session, order.ID, key, value); err != nil {
				s.log.Warn().Err(err).Int64("order", order.ID).Str("field", key).Msg("field write failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if sh.Tagging {
		tags := mergeTags(order.Tags, tier, len(res.Reports) > 0)
		if tags != order.Tags {
			if err := s.platform.SetTags(ctx, session, order.ID, tags); err != nil {
				s.log.Warn().Err(err).Int64("order", order.ID).Msg("tag write failed")
			}
		}
	}

	if sh.AddNote {
		note := appendNote(order.Note, noteText(tier, res))
		if err := s.platform.SetNote(ctx, session, order.ID, note); err != nil {
			s.log.Warn().Err(err).Int64("order", order.ID).Msg("note write failed")
		}
	}
}

// recordError marks the order so the update path will not retry forever
// and the merchant can see why there is no verdict
func (s *Service) recordError(ctx context.Context, session storefront.Session, orderID int64, cause error) {
	for key, value := range map[string]string{
		fieldChecked:   "error",
		fieldError:     cause.Error(),
		fieldCheckedAt: s.now().UTC().Format(time.RFC3339),
	} {
		if err := s.platform.SetField(ctx, session, orderID, key, value); err != nil {
			s.log.Warn().Err(err).Int64("order", orderID).Str("field", key).Msg("error-state write failed")
		}
	}
}

func verdictFields(tier risk.Tier, res riskapi.Result) map[string]string {
	couriers, _ := json.Marshal(res.Couriers)
	return map[string]string{
		fieldChecked:       "yes",
		fieldRiskLevel:     tier.String(),
		fieldRiskLabel:     tier.Label(),
		fieldTotalParcel:   strconv.Itoa(res.TotalParcels),
		fieldSuccessParcel: strconv.Itoa(res.SuccessParcels),
		fieldCancelParcel:  strconv.Itoa(res.CancelParcels),
		fieldSuccessRatio:  strconv.FormatFloat(res.SuccessRatio, 'f', 2, 64),
		fieldReportCount:   strconv.Itoa(len(res.Reports)),
		fieldCouriers:      string(couriers),
		fieldCheckedAt:     res.CheckedAt.UTC().Format(time.RFC3339),
	}
}

// mergeTags keeps the merchant's own tags, drops any stale tier tag we
// wrote earlier, and adds the current verdict
func mergeTags(existing string, tier risk.Tier, reported bool) string {
	var out []string
	seen := map[string]bool{}
	for _, t := range strings.Split(existing, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		// stale verdict tags get replaced, the app tag is re-added below
		if t == tagApp || (strings.HasPrefix(t, tagPrefix) && t != tagReported) {
			continue
		}
		if t == tagReported && !reported {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	out = append(out, tagApp, tagPrefix+tier.String())
	if reported && !seen[tagReported] {
		out = append(out, tagReported)
	}
	return strings.Join(out, ", ")
}

func noteText(tier risk.Tier, res riskapi.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)", tier.Icon(), tier.Label(), tagApp)
	if res.TotalParcels == 0 {
		b.WriteString("\nno courier history for this number")
		return b.String()
	}
	fmt.Fprintf(&b, "\n%d/%d parcels delivered, %.0f%% success", res.SuccessParcels, res.TotalParcels, res.SuccessRatio)
	if n := len(res.Reports); n > 0 {
		fmt.Fprintf(&b, "\n%d fraud report(s) on file", n)
	}
	for _, c := range res.Couriers {
		fmt.Fprintf(&b, "\n- %s: %d/%d (%.0f%%)", c.Name, c.Success, c.Total, c.SuccessRatio)
	}
	return b.String()
}

func appendNote(existing, line string) string {
	if strings.TrimSpace(existing) == "" {
		return line
	}
	return existing + "\n" + line
}
