// Package repo provides postgres access for shops
package repo

import (
	"context"
	"time"

	"fraudshield/internal/modkit/repokit"
	perr "fraudshield/internal/platform/errors"
	"fraudshield/internal/services/shops/domain"
)

// Repo is the minimal persistence surface for shops
type Repo interface {
	Get(ctx context.Context, shop string) (domain.Shop, error)
	Upsert(ctx context.Context, s domain.Shop) error
	Uninstall(ctx context.Context, shop string, at time.Time) error
	UpdateSettings(ctx context.Context, shop string, st domain.Settings) error
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Get(ctx context.Context, shop string) (domain.Shop, error) {
	const sql = `
select shop_domain, access_token, auto_check, check_on_update,
       cod_only, tagging, add_note, medium_threshold, safe_threshold,
       installed_at, updated_at, uninstalled_at
from shops
where shop_domain = $1
`
	var s domain.Shop
	err := r.q.QueryRow(ctx, sql, shop).Scan(
		&s.Domain, &s.AccessToken, &s.AutoCheck, &s.CheckOnUpdate,
		&s.CODOnly, &s.Tagging, &s.AddNote, &s.MediumThreshold, &s.SafeThreshold,
		&s.InstalledAt, &s.UpdatedAt, &s.UninstalledAt,
	)
	if err != nil {
		return domain.Shop{}, perr.Wrapf(err, perr.ErrorCodeNotFound, "shop %s not found", shop)
	}
	return s, nil
}

func (r *queries) Upsert(ctx context.Context, s domain.Shop) error {
	const sql = `
insert into shops (shop_domain, access_token, auto_check, check_on_update,
                   cod_only, tagging, add_note, medium_threshold, safe_threshold,
                   installed_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
on conflict (shop_domain) do update set
  access_token = excluded.access_token,
  auto_check = excluded.auto_check,
  check_on_update = excluded.check_on_update,
  cod_only = excluded.cod_only,
  tagging = excluded.tagging,
  add_note = excluded.add_note,
  medium_threshold = excluded.medium_threshold,
  safe_threshold = excluded.safe_threshold,
  updated_at = now(),
  uninstalled_at = null
`
	_, err := r.q.Exec(ctx, sql, s.Domain, s.AccessToken, s.AutoCheck, s.CheckOnUpdate,
		s.CODOnly, s.Tagging, s.AddNote, s.MediumThreshold, s.SafeThreshold)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "upsert shop")
	}
	return nil
}

func (r *queries) Uninstall(ctx context.Context, shop string, at time.Time) error {
	const sql = `
update shops
set uninstalled_at = $2, access_token = '', updated_at = now()
where shop_domain = $1
`
	tag, err := r.q.Exec(ctx, sql, shop, at)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "uninstall shop")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("shop %s not found", shop)
	}
	return nil
}

func (r *queries) UpdateSettings(ctx context.Context, shop string, st domain.Settings) error {
	const sql = `
update shops
set auto_check = $2, check_on_update = $3, cod_only = $4, tagging = $5,
    add_note = $6, medium_threshold = $7, safe_threshold = $8, updated_at = now()
where shop_domain = $1 and uninstalled_at is null
`
	tag, err := r.q.Exec(ctx, sql, shop, st.AutoCheck, st.CheckOnUpdate,
		st.CODOnly, st.Tagging, st.AddNote, st.MediumThreshold, st.SafeThreshold)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "update shop settings")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("shop %s not found", shop)
	}
	return nil
}
