package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/loyalty-platform/internal/model"
)

const transactionColumns = `id, tenant_id, user_id, pos_txn_id, store_id, purchased_at, total_cents,
	currency, lines, attribution, redemption_id, created_at`

func scanTransaction(row pgx.Row) (model.Transaction, error) {
	var t model.Transaction
	err := row.Scan(&t.ID, &t.TenantID, &t.UserID, &t.POSTxnID, &t.StoreID, &t.PurchasedAt,
		&t.TotalCents, &t.Currency, &t.Lines, &t.Attribution, &t.RedemptionID, &t.CreatedAt)
	return t, err
}

// CreateTransaction сохраняет покупку. С одним погашением может быть связана не более чем одна покупка.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.TenantID, t.UserID, t.POSTxnID, t.StoreID, t.PurchasedAt, t.TotalCents,
		t.Currency, t.Lines, t.Attribution, t.RedemptionID, t.CreatedAt,
	)
	return mapError(err, "create transaction")
}

// GetTransaction возвращает покупку тенанта по идентификатору.
func (r *PostgresRepository) GetTransaction(ctx context.Context, tenantID, id string) (*model.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapError(err, "get transaction")
	}
	return &t, nil
}

// GetTransactionByRedemption возвращает покупку, связанную с погашением.
func (r *PostgresRepository) GetTransactionByRedemption(ctx context.Context, tenantID, redemptionID string) (*model.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE tenant_id = $1 AND redemption_id = $2`,
		tenantID, redemptionID))
	if err != nil {
		return nil, mapError(err, "get transaction by redemption")
	}
	return &t, nil
}

// ListTransactions возвращает покупки тенанта, последние первыми.
func (r *PostgresRepository) ListTransactions(ctx context.Context, tenantID string, page model.Page) ([]model.Transaction, error) {
	page = page.Normalize()
	return queryList(ctx, r.pool, "list transactions", scanTransaction,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE tenant_id = $1
		 ORDER BY purchased_at DESC, id
		 LIMIT $2 OFFSET $3`,
		tenantID, page.Limit, page.Offset)
}

// ListTransactionsByUser возвращает покупки пользователя.
func (r *PostgresRepository) ListTransactionsByUser(ctx context.Context, tenantID, userID string) ([]model.Transaction, error) {
	return queryList(ctx, r.pool, "list transactions by user", scanTransaction,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE tenant_id = $1 AND user_id = $2
		 ORDER BY purchased_at DESC, id`,
		tenantID, userID)
}
