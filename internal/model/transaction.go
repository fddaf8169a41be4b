package model

import "time"

// DefaultCurrency используется, если валюта покупки не указана.
const DefaultCurrency = "USD"

// TransactionLine — позиция чека.
type TransactionLine struct {
	SKU            string `json:"sku"`
	Qty            int64  `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Extra          Extra  `json:"-"`
}

// Attribution — денормализованная связь покупки с кампанией, предложением и погашением.
type Attribution struct {
	CampaignID   *string `json:"campaign_id,omitempty"`
	OfferID      *string `json:"offer_id,omitempty"`
	RedemptionID *string `json:"redemption_id,omitempty"`
	Extra        Extra   `json:"-"`
}

// Transaction описывает покупку, опционально связанную с погашением.
type Transaction struct {
	ID           string            `json:"id"`
	TenantID     string            `json:"tenant_id"`
	UserID       *string           `json:"user_id,omitempty"`
	POSTxnID     string            `json:"pos_txn_id"`
	StoreID      *string           `json:"store_id,omitempty"`
	PurchasedAt  time.Time         `json:"purchased_at"`
	TotalCents   int64             `json:"total_cents"`
	Currency     string            `json:"currency"`
	Lines        []TransactionLine `json:"lines"`
	Attribution  Attribution       `json:"attribution"`
	RedemptionID *string           `json:"redemption_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
