package domain

import (
	"context"

	"fraudshield/internal/adapters/riskapi"
	"fraudshield/internal/adapters/storefront"
	"fraudshield/internal/core/phone"
)

// CheckerPort runs the full check pipeline for one order
type CheckerPort interface {
	Check(ctx context.Context, shop string, orderID int64, trigger Trigger) (CheckResult, error)
}

// EnqueuerPort accepts jobs for background processing.
// Enqueue reports false when the queue is full; the job is dropped
type EnqueuerPort interface {
	Enqueue(job Job) bool
}

// RiskPort is the courier-history risk service surface the pipeline needs
type RiskPort interface {
	Check(ctx context.Context, num phone.Number) (riskapi.Result, error)
	Invalidate(num phone.Number)
	TestConnection(ctx context.Context) error
	FlushCache()
	CacheSize() int
}

// PlatformPort is the storefront admin API surface the pipeline needs
type PlatformPort interface {
	GetOrder(ctx context.Context, s storefront.Session, orderID int64) (storefront.Order, error)
	SetTags(ctx context.Context, s storefront.Session, orderID int64, tags string) error
	SetNote(ctx context.Context, s storefront.Session, orderID int64, note string) error
	GetFields(ctx context.Context, s storefront.Session, orderID int64) ([]storefront.Field, error)
	SetField(ctx context.Context, s storefront.Session, orderID int64, key, value string) error
}
