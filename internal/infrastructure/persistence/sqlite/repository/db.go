package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"eventgate/internal/ports"
)

// dbFromContext returns the transaction carried by ctx, or the base handle.
func dbFromContext(ctx context.Context, base *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx, ok := ports.TxFrom(ctx)
	if !ok {
		return base.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// inTx runs fn inside the ambient transaction, opening one when ctx has none.
func inTx(ctx context.Context, base *gorm.DB, fn func(db *gorm.DB) error) error {
	if _, ok := ports.TxFrom(ctx); ok {
		db, err := dbFromContext(ctx, base)
		if err != nil {
			return err
		}
		return fn(db)
	}
	return base.WithContext(ctx).Transaction(fn)
}
