package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions. Mutations that must be
// atomic with their invariant checks (grant changes, visibility upgrades)
// run inside ExecTx so the check and the write commit together.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
