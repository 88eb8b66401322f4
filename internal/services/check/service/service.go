// Package service implements the order check pipeline
package service

import (
	"context"
	"time"

	"fraudshield/internal/adapters/storefront"
	"fraudshield/internal/core/payment"
	"fraudshield/internal/core/phone"
	"fraudshield/internal/core/risk"
	perr "fraudshield/internal/platform/errors"
	"fraudshield/internal/platform/logger"
	checkdom "fraudshield/internal/services/check/domain"
	shopsdom "fraudshield/internal/services/shops/domain"
)

// Config for the check service
type Config struct {
	Thresholds risk.Thresholds
}

// Service implements domain.CheckerPort
type Service struct {
	risk     checkdom.RiskPort
	platform checkdom.PlatformPort
	shops    shopsdom.ReaderPort
	cfg      Config
	log      logger.Logger
	now      func() time.Time
}

// New constructs a check service
func New(riskPort checkdom.RiskPort, platform checkdom.PlatformPort, shops shopsdom.ReaderPort, cfg Config) *Service {
	if cfg.Thresholds == (risk.Thresholds{}) {
		cfg.Thresholds = risk.DefaultThresholds()
	}
	return &Service{
		risk:     riskPort,
		platform: platform,
		shops:    shops,
		cfg:      cfg,
		log:      *logger.Named("check"),
		now:      time.Now,
	}
}

// Check runs the pipeline for one order.
// Skips come back as outcomes with a nil error; a failed risk lookup is
// recorded on the order and returned as both an outcome and an error so
// synchronous callers can surface it
func (s *Service) Check(ctx context.Context, shop string, orderID int64, trigger checkdom.Trigger) (checkdom.CheckResult, error) {
	sh, err := s.shops.Get(ctx, shop)
	if err != nil {
		return checkdom.CheckResult{}, err
	}
	if !sh.Installed() {
		return checkdom.CheckResult{Outcome: checkdom.OutcomeSkippedDisabled}, nil
	}
	if skip := s.gate(sh, trigger); skip {
		return checkdom.CheckResult{Outcome: checkdom.OutcomeSkippedDisabled}, nil
	}

	session := storefront.Session{Shop: sh.Domain, Token: sh.AccessToken}

	order, err := s.platform.GetOrder(ctx, session, orderID)
	if err != nil {
		return checkdom.CheckResult{}, err
	}

	// order updates fire for every edit, only the first check sticks.
	// This gate runs ahead of the COD and phone gates so an edited
	// order never flips to a skip outcome once it carries a verdict
	if trigger == checkdom.TriggerUpdated {
		done, err := s.alreadyChecked(ctx, session, orderID)
		if err != nil {
			s.log.Warn().Err(err).Int64("order", orderID).Msg("checked-state probe failed, proceeding")
		} else if done {
			return checkdom.CheckResult{Outcome: checkdom.OutcomeAlreadyChecked}, nil
		}
	}

	// manual checks run regardless of payment method, the merchant asked
	if trigger != checkdom.TriggerManual && sh.CODOnly && !payment.IsCashOnDelivery(order.Gateways) {
		return checkdom.CheckResult{Outcome: checkdom.OutcomeSkippedNotCOD}, nil
	}

	num, ok := firstPhone(order)
	if !ok {
		if trigger == checkdom.TriggerManual {
			return checkdom.CheckResult{}, perr.InvalidPhonef("order %d has no valid BD mobile number", orderID)
		}
		return checkdom.CheckResult{Outcome: checkdom.OutcomeSkippedNoPhone}, nil
	}

	if trigger == checkdom.TriggerManual {
		s.risk.Invalidate(num)
	}

	res, err := s.risk.Check(ctx, num)
	if err != nil {
		s.recordError(ctx, session, orderID, err)
		return checkdom.CheckResult{Outcome: checkdom.OutcomeErrorRecorded, Phone: num}, err
	}

	tier := risk.Classify(res.TotalParcels, res.SuccessRatio, s.thresholdsFor(sh))
	s.annotate(ctx, session, sh, order, tier, res)

	s.log.Info().
		Str("shop", sh.Domain).
		Int64("order", orderID).
		Str("trigger", trigger.String()).
		Str("tier", tier.String()).
		Bool("cached", res.FromCache).
		Msg("order checked")

	return checkdom.CheckResult{
		Outcome: checkdom.OutcomeAnnotated,
		Phone:   num,
		Tier:    tier,
		Risk:    res,
	}, nil
}

// thresholdsFor prefers the shop's own cutoffs over the service-wide
// ones; the shops service only stores ordered pairs, the zero pair
// means defaults
func (s *Service) thresholdsFor(sh shopsdom.Shop) risk.Thresholds {
	if sh.SafeThreshold > 0 && sh.MediumThreshold < sh.SafeThreshold {
		return risk.Thresholds{Medium: sh.MediumThreshold, Safe: sh.SafeThreshold}
	}
	return s.cfg.Thresholds
}

func (s *Service) gate(sh shopsdom.Shop, trigger checkdom.Trigger) bool {
	switch trigger {
	case checkdom.TriggerCreated:
		return !sh.AutoCheck
	case checkdom.TriggerUpdated:
		return !sh.CheckOnUpdate
	default:
		return false
	}
}

// firstPhone walks the order's phone slots in priority order and
// returns the first that normalizes
func firstPhone(order storefront.Order) (phone.Number, bool) {
	for _, raw := range order.CandidatePhones() {
		if num, ok := phone.Normalize(raw); ok {
			return num, true
		}
	}
	return "", false
}

func (s *Service) alreadyChecked(ctx context.Context, session storefront.Session, orderID int64) (bool, error) {
	fields, err := s.platform.GetFields(ctx, session, orderID)
	if err != nil {
		return false, err
	}
	for _, f := range fields {
		if f.Key == fieldChecked && f.Value != "" {
			return true, nil
		}
	}
	return false, nil
}
