package repository

import (
	"context"
	"fmt"

	"github.com/fyreone/firekb/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner runs a function with all repositories bound to one transaction.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txRepositories{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepositories struct {
	tx pgx.Tx
}

func (t *txRepositories) Documents() service.TxDocumentRepository {
	return NewDocumentRepositoryWithTx(t.tx)
}

func (t *txRepositories) Chunks() service.TxChunkRepository {
	return NewChunkRepositoryWithTx(t.tx)
}

func (t *txRepositories) Jobs() service.TxJobRepository {
	return NewJobRepositoryWithTx(t.tx)
}
