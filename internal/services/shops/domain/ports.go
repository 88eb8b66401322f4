package domain

import "context"

// ReaderPort reads shop records
type ReaderPort interface {
	Get(ctx context.Context, shop string) (Shop, error)
}

// WriterPort mutates shop records
type WriterPort interface {
	Upsert(ctx context.Context, s Shop) error
	Uninstall(ctx context.Context, shop string) error
	UpdateSettings(ctx context.Context, shop string, st Settings) error
}
