// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyShopDomain ctxKey = "shop_domain"

// WithRequest annotates context with common request scoped ids
func WithRequest(ctx context.Context, reqID, shop string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if shop != "" {
		ctx = context.WithValue(ctx, keyShopDomain, shop)
	}
	return ctx
}

// WithShop annotates context with the calling shop's domain
func WithShop(ctx context.Context, shop string) context.Context {
	if shop != "" {
		ctx = context.WithValue(ctx, keyShopDomain, shop)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// ShopDomain returns the shop domain on the context if present
func ShopDomain(ctx context.Context) string {
	if v, ok := ctx.Value(keyShopDomain).(string); ok {
		return v
	}
	return ""
}
