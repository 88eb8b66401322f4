// Package service provides the shops service implementation
package service

import (
	"context"
	"strings"
	"time"

	"fraudshield/internal/modkit/repokit"
	perr "fraudshield/internal/platform/errors"
	"fraudshield/internal/services/shops/domain"
	"fraudshield/internal/services/shops/repo"
)

// Service implements domain.ReaderPort and domain.WriterPort against the PG repo
type Service struct {
	tx     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	now    func() time.Time
}

// New constructs a shops service with a required PG runner
func New(tx repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Service {
	return &Service{tx: tx, binder: binder, now: time.Now}
}

func (s *Service) repo() repo.Repo { return s.binder.Bind(s.tx) }

// Get implements domain.ReaderPort
func (s *Service) Get(ctx context.Context, shop string) (domain.Shop, error) {
	shop = canonDomain(shop)
	if shop == "" {
		return domain.Shop{}, perr.Validationf("shop domain is required")
	}
	return s.repo().Get(ctx, shop)
}

// Upsert implements domain.WriterPort
func (s *Service) Upsert(ctx context.Context, sh domain.Shop) error {
	sh.Domain = canonDomain(sh.Domain)
	if sh.Domain == "" {
		return perr.Validationf("shop domain is required")
	}
	if sh.AccessToken == "" {
		return perr.Validationf("access token is required")
	}
	return s.repo().Upsert(ctx, sh)
}

// Uninstall implements domain.WriterPort
func (s *Service) Uninstall(ctx context.Context, shop string) error {
	shop = canonDomain(shop)
	if shop == "" {
		return perr.Validationf("shop domain is required")
	}
	return s.repo().Uninstall(ctx, shop, s.now().UTC())
}

// UpdateSettings implements domain.WriterPort
func (s *Service) UpdateSettings(ctx context.Context, shop string, st domain.Settings) error {
	shop = canonDomain(shop)
	if shop == "" {
		return perr.Validationf("shop domain is required")
	}
	if err := validThresholds(st); err != nil {
		return err
	}
	return s.repo().UpdateSettings(ctx, shop, st)
}

// validThresholds accepts either the zero pair (service defaults) or a
// strictly ordered medium < safe pair in percent
func validThresholds(st domain.Settings) error {
	if st.MediumThreshold == 0 && st.SafeThreshold == 0 {
		return nil
	}
	if st.MediumThreshold < 0 || st.SafeThreshold > 100 {
		return perr.Validationf("thresholds must stay within 0..100")
	}
	if st.MediumThreshold >= st.SafeThreshold {
		return perr.Validationf("medium threshold must be below safe threshold")
	}
	return nil
}

func canonDomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
