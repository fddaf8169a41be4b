package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/loyalty-platform/internal/model"
)

const voucherColumns = `id, tenant_id, offer_id, user_id, code, state, redemption_id, issued_at`

func scanVoucher(row pgx.Row) (model.Voucher, error) {
	var v model.Voucher
	var state string
	err := row.Scan(&v.ID, &v.TenantID, &v.OfferID, &v.UserID, &v.Code, &state,
		&v.RedemptionID, &v.IssuedAt)
	v.State = model.VoucherState(state)
	return v, err
}

// CreateVoucher сохраняет ваучер. Код ваучера уникален во всём хранилище, независимо от тенанта.
func (r *PostgresRepository) CreateVoucher(ctx context.Context, v *model.Voucher) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO vouchers (`+voucherColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		v.ID, v.TenantID, v.OfferID, v.UserID, v.Code, string(v.State), v.RedemptionID, v.IssuedAt,
	)
	return mapError(err, "create voucher")
}

// GetVoucher возвращает ваучер тенанта по идентификатору.
func (r *PostgresRepository) GetVoucher(ctx context.Context, tenantID, id string) (*model.Voucher, error) {
	v, err := scanVoucher(r.pool.QueryRow(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapError(err, "get voucher")
	}
	return &v, nil
}

// GetVoucherByCode возвращает ваучер тенанта по коду. Ваучер другого тенанта не виден.
func (r *PostgresRepository) GetVoucherByCode(ctx context.Context, tenantID, code string) (*model.Voucher, error) {
	v, err := scanVoucher(r.pool.QueryRow(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE tenant_id = $1 AND code = $2`, tenantID, code))
	if err != nil {
		return nil, mapError(err, "get voucher by code")
	}
	return &v, nil
}

// ListVouchersByUser возвращает ваучеры пользователя.
func (r *PostgresRepository) ListVouchersByUser(ctx context.Context, tenantID, userID string) ([]model.Voucher, error) {
	return queryList(ctx, r.pool, "list vouchers by user", scanVoucher,
		`SELECT `+voucherColumns+` FROM vouchers
		 WHERE tenant_id = $1 AND user_id = $2
		 ORDER BY issued_at DESC, id`,
		tenantID, userID)
}

// ListVouchersByOffer возвращает ваучеры, выпущенные по предложению.
func (r *PostgresRepository) ListVouchersByOffer(ctx context.Context, tenantID, offerID string) ([]model.Voucher, error) {
	return queryList(ctx, r.pool, "list vouchers by offer", scanVoucher,
		`SELECT `+voucherColumns+` FROM vouchers
		 WHERE tenant_id = $1 AND offer_id = $2
		 ORDER BY issued_at DESC, id`,
		tenantID, offerID)
}

// UpdateVoucherState меняет состояние ваучера. Если redemptionID не nil, ваучер связывается с погашением,
// иначе текущая связь сохраняется.
func (r *PostgresRepository) UpdateVoucherState(ctx context.Context, tenantID, id string, state model.VoucherState, redemptionID *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE vouchers
		 SET state = $3, redemption_id = COALESCE($4, redemption_id)
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, string(state), redemptionID,
	)
	if err != nil {
		return mapError(err, "update voucher state")
	}
	return expectAffected(tag, "update voucher state")
}

const redemptionColumns = `id, tenant_id, offer_id, user_id, voucher_id, pos_ref, status, reason, redeemed_at`

func scanRedemption(row pgx.Row) (model.Redemption, error) {
	var rd model.Redemption
	var status string
	err := row.Scan(&rd.ID, &rd.TenantID, &rd.OfferID, &rd.UserID, &rd.VoucherID, &rd.POSRef,
		&status, &rd.Reason, &rd.RedeemedAt)
	rd.Status = model.RedemptionStatus(status)
	return rd, err
}

func insertRedemption(ctx context.Context, q querier, rd *model.Redemption) error {
	_, err := q.Exec(ctx,
		`INSERT INTO redemptions (`+redemptionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rd.ID, rd.TenantID, rd.OfferID, rd.UserID, rd.VoucherID, rd.POSRef, string(rd.Status), rd.Reason, rd.RedeemedAt,
	)
	return mapError(err, "create redemption")
}

// CreateRedemption сохраняет погашение без изменения ваучера.
func (r *PostgresRepository) CreateRedemption(ctx context.Context, rd *model.Redemption) error {
	return insertRedemption(ctx, r.pool, rd)
}

// RedeemVoucher атомарно сохраняет погашение и переводит связанный ваучер в состояние state,
// записывая в него идентификатор погашения. Строка ваучера блокируется на время транзакции.
// Правила допустимости погашения здесь не проверяются.
func (r *PostgresRepository) RedeemVoucher(ctx context.Context, rd *model.Redemption, state model.VoucherState) error {
	if rd.VoucherID == nil {
		return fmt.Errorf("redeem voucher: %w: voucher id is empty", ErrReferentialIntegrity)
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx,
			`SELECT id FROM vouchers WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
			rd.TenantID, *rd.VoucherID,
		).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("redeem voucher: %w: voucher %s", ErrReferentialIntegrity, *rd.VoucherID)
			}
			return mapError(err, "lock voucher")
		}

		if err := insertRedemption(ctx, tx, rd); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE vouchers SET state = $3, redemption_id = $4 WHERE tenant_id = $1 AND id = $2`,
			rd.TenantID, *rd.VoucherID, string(state), rd.ID,
		)
		return mapError(err, "link voucher to redemption")
	})
}

// GetRedemption возвращает погашение тенанта по идентификатору.
func (r *PostgresRepository) GetRedemption(ctx context.Context, tenantID, id string) (*model.Redemption, error) {
	rd, err := scanRedemption(r.pool.QueryRow(ctx,
		`SELECT `+redemptionColumns+` FROM redemptions WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapError(err, "get redemption")
	}
	return &rd, nil
}

// GetRedemptionByVoucher возвращает погашение, связанное с ваучером.
func (r *PostgresRepository) GetRedemptionByVoucher(ctx context.Context, tenantID, voucherID string) (*model.Redemption, error) {
	rd, err := scanRedemption(r.pool.QueryRow(ctx,
		`SELECT `+redemptionColumns+` FROM redemptions WHERE tenant_id = $1 AND voucher_id = $2`, tenantID, voucherID))
	if err != nil {
		return nil, mapError(err, "get redemption by voucher")
	}
	return &rd, nil
}

// ListRedemptions возвращает погашения тенанта, последние первыми.
func (r *PostgresRepository) ListRedemptions(ctx context.Context, tenantID string, page model.Page) ([]model.Redemption, error) {
	page = page.Normalize()
	return queryList(ctx, r.pool, "list redemptions", scanRedemption,
		`SELECT `+redemptionColumns+` FROM redemptions
		 WHERE tenant_id = $1
		 ORDER BY redeemed_at DESC, id
		 LIMIT $2 OFFSET $3`,
		tenantID, page.Limit, page.Offset)
}

// ListRedemptionsByOffer возвращает погашения предложения.
func (r *PostgresRepository) ListRedemptionsByOffer(ctx context.Context, tenantID, offerID string) ([]model.Redemption, error) {
	return queryList(ctx, r.pool, "list redemptions by offer", scanRedemption,
		`SELECT `+redemptionColumns+` FROM redemptions
		 WHERE tenant_id = $1 AND offer_id = $2
		 ORDER BY redeemed_at DESC, id`,
		tenantID, offerID)
}

// ListRedemptionsByUser возвращает погашения пользователя.
func (r *PostgresRepository) ListRedemptionsByUser(ctx context.Context, tenantID, userID string) ([]model.Redemption, error) {
	return queryList(ctx, r.pool, "list redemptions by user", scanRedemption,
		`SELECT `+redemptionColumns+` FROM redemptions
		 WHERE tenant_id = $1 AND user_id = $2
		 ORDER BY redeemed_at DESC, id`,
		tenantID, userID)
}

// UpdateRedemptionStatus меняет статус погашения и, если reason не nil, причину.
func (r *PostgresRepository) UpdateRedemptionStatus(ctx context.Context, tenantID, id string, status model.RedemptionStatus, reason *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE redemptions
		 SET status = $3, reason = COALESCE($4, reason)
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, string(status), reason,
	)
	if err != nil {
		return mapError(err, "update redemption status")
	}
	return expectAffected(tag, "update redemption status")
}
