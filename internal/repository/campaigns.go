package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/loyalty-platform/internal/model"
)

const campaignColumns = `id, tenant_id, name, status, target, start_at, end_at, deeplink_url, created_at`

func scanCampaign(row pgx.Row) (model.Campaign, error) {
	var c model.Campaign
	var status string
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &status, &c.Target,
		&c.StartAt, &c.EndAt, &c.DeeplinkURL, &c.CreatedAt)
	c.Status = model.CampaignStatus(status)
	return c, err
}

// CreateCampaign сохраняет кампанию тенанта.
func (r *PostgresRepository) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.TenantID, c.Name, string(c.Status), c.Target, c.StartAt, c.EndAt, c.DeeplinkURL, c.CreatedAt,
	)
	return mapError(err, "create campaign")
}

// GetCampaign возвращает кампанию тенанта по идентификатору.
func (r *PostgresRepository) GetCampaign(ctx context.Context, tenantID, id string) (*model.Campaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapError(err, "get campaign")
	}
	return &c, nil
}

// ListCampaigns возвращает кампании тенанта.
func (r *PostgresRepository) ListCampaigns(ctx context.Context, tenantID string, page model.Page) ([]model.Campaign, error) {
	page = page.Normalize()
	return queryList(ctx, r.pool, "list campaigns", scanCampaign,
		`SELECT `+campaignColumns+` FROM campaigns
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		tenantID, page.Limit, page.Offset)
}

// UpdateCampaignStatus меняет статус кампании. Переходы между статусами не ограничиваются.
func (r *PostgresRepository) UpdateCampaignStatus(ctx context.Context, tenantID, id string, status model.CampaignStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE campaigns SET status = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, string(status),
	)
	if err != nil {
		return mapError(err, "update campaign status")
	}
	return expectAffected(tag, "update campaign status")
}

const offerColumns = `id, tenant_id, campaign_id, type, benefit, limits, applies_to, valid_from, valid_to, created_at`

func scanOffer(row pgx.Row) (model.Offer, error) {
	var o model.Offer
	var offerType string
	err := row.Scan(&o.ID, &o.TenantID, &o.CampaignID, &offerType, &o.Benefit, &o.Limits,
		&o.AppliesTo, &o.ValidFrom, &o.ValidTo, &o.CreatedAt)
	o.Type = model.OfferType(offerType)
	return o, err
}

// CreateOffer сохраняет предложение тенанта.
func (r *PostgresRepository) CreateOffer(ctx context.Context, o *model.Offer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO offers (`+offerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.TenantID, o.CampaignID, string(o.Type), o.Benefit, o.Limits, o.AppliesTo,
		o.ValidFrom, o.ValidTo, o.CreatedAt,
	)
	return mapError(err, "create offer")
}

// GetOffer возвращает предложение тенанта по идентификатору.
func (r *PostgresRepository) GetOffer(ctx context.Context, tenantID, id string) (*model.Offer, error) {
	o, err := scanOffer(r.pool.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapError(err, "get offer")
	}
	return &o, nil
}

// ListOffers возвращает предложения тенанта.
func (r *PostgresRepository) ListOffers(ctx context.Context, tenantID string, page model.Page) ([]model.Offer, error) {
	page = page.Normalize()
	return queryList(ctx, r.pool, "list offers", scanOffer,
		`SELECT `+offerColumns+` FROM offers
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		tenantID, page.Limit, page.Offset)
}

// ListOffersByCampaign возвращает предложения кампании.
func (r *PostgresRepository) ListOffersByCampaign(ctx context.Context, tenantID, campaignID string) ([]model.Offer, error) {
	return queryList(ctx, r.pool, "list offers by campaign", scanOffer,
		`SELECT `+offerColumns+` FROM offers
		 WHERE tenant_id = $1 AND campaign_id = $2
		 ORDER BY created_at DESC, id`,
		tenantID, campaignID)
}

const pushColumns = `id, tenant_id, campaign_id, payload, scheduled_at, sent_at, created_at`

func scanPushNotification(row pgx.Row) (model.PushNotification, error) {
	var n model.PushNotification
	err := row.Scan(&n.ID, &n.TenantID, &n.CampaignID, &n.Payload,
		&n.ScheduledAt, &n.SentAt, &n.CreatedAt)
	return n, err
}

// CreatePushNotification сохраняет push-уведомление.
func (r *PostgresRepository) CreatePushNotification(ctx context.Context, n *model.PushNotification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO push_notifications (`+pushColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.TenantID, n.CampaignID, n.Payload, n.ScheduledAt, n.SentAt, n.CreatedAt,
	)
	return mapError(err, "create push notification")
}

// GetPushNotification возвращает push-уведомление тенанта по идентификатору.
func (r *PostgresRepository) GetPushNotification(ctx context.Context, tenantID, id string) (*model.PushNotification, error) {
	n, err := scanPushNotification(r.pool.QueryRow(ctx,
		`SELECT `+pushColumns+` FROM push_notifications WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapError(err, "get push notification")
	}
	return &n, nil
}

// ListPushNotifications возвращает push-уведомления тенанта.
func (r *PostgresRepository) ListPushNotifications(ctx context.Context, tenantID string, page model.Page) ([]model.PushNotification, error) {
	page = page.Normalize()
	return queryList(ctx, r.pool, "list push notifications", scanPushNotification,
		`SELECT `+pushColumns+` FROM push_notifications
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		tenantID, page.Limit, page.Offset)
}

// ListPushNotificationsByCampaign возвращает push-уведомления кампании.
func (r *PostgresRepository) ListPushNotificationsByCampaign(ctx context.Context, tenantID, campaignID string) ([]model.PushNotification, error) {
	return queryList(ctx, r.pool, "list push notifications by campaign", scanPushNotification,
		`SELECT `+pushColumns+` FROM push_notifications
		 WHERE tenant_id = $1 AND campaign_id = $2
		 ORDER BY created_at DESC, id`,
		tenantID, campaignID)
}

// MarkPushNotificationSent фиксирует время отправки уведомления.
func (r *PostgresRepository) MarkPushNotificationSent(ctx context.Context, tenantID, id string, sentAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE push_notifications SET sent_at = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, sentAt,
	)
	if err != nil {
		return mapError(err, "mark push notification sent")
	}
	return expectAffected(tag, "mark push notification sent")
}
