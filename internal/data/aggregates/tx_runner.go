package aggregates

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
)

// TxRunner is the transaction boundary every aggregate write runs inside.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db   *gorm.DB
	opts []*sql.TxOptions
}

// NewGormTxRunner runs writes in gorm transactions. When db is already a transaction the
// write nests through a savepoint. opts is passed to Begin, e.g. a stricter isolation level.
func NewGormTxRunner(db *gorm.DB, opts ...*sql.TxOptions) TxRunner {
	return &gormTxRunner{db: db, opts: opts}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	// A request that is already gone never opens a transaction.
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	}, r.opts...)
}
