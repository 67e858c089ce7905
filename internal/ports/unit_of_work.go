package ports

import "context"

// UnitOfWork groups repository writes into one commit. An error from fn rolls
// everything back. Repositories called with the ctx handed to fn take part in
// the same transaction, and a nested WithTx joins it.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Tx is the storage adapter's transaction handle. Use cases never inspect it.
type Tx any

type txKey struct{}

// ContextWithTx returns ctx carrying tx for repositories to pick up.
func ContextWithTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom returns the transaction carried by ctx, if any.
func TxFrom(ctx context.Context) (Tx, bool) {
	tx := ctx.Value(txKey{})
	return tx, tx != nil
}
