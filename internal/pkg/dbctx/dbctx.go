package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// New returns a Context without a transaction.
func New(ctx context.Context) Context {
	return Context{Ctx: ctx}
}

// DB returns the transaction when set, otherwise fallback, bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if c.Tx != nil {
		return c.Tx.WithContext(ctx)
	}
	if fallback == nil {
		return nil
	}
	return fallback.WithContext(ctx)
}

// Context returns Ctx or context.Background() when unset.
func (c Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}
