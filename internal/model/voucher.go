package model

import "time"

// VoucherState описывает состояние ваучера.
type VoucherState string

const (
	VoucherStateIssued   VoucherState = "issued"
	VoucherStateRedeemed VoucherState = "redeemed"
	VoucherStateExpired  VoucherState = "expired"
	VoucherStateVoid     VoucherState = "void"
)

// VoucherStates перечисляет все состояния ваучера.
var VoucherStates = []VoucherState{
	VoucherStateIssued,
	VoucherStateRedeemed,
	VoucherStateExpired,
	VoucherStateVoid,
}

// Voucher — экземпляр предложения для конкретного пользователя. Code уникален во всём хранилище.
type Voucher struct {
	ID           string       `json:"id"`
	TenantID     string       `json:"tenant_id"`
	OfferID      string       `json:"offer_id"`
	UserID       string       `json:"user_id"`
	Code         string       `json:"code"`
	State        VoucherState `json:"state"`
	RedemptionID *string      `json:"redemption_id,omitempty"`
	IssuedAt     time.Time    `json:"issued_at"`
}

// RedemptionStatus описывает исход применения предложения на кассе.
type RedemptionStatus string

const (
	RedemptionApproved RedemptionStatus = "approved"
	RedemptionDenied   RedemptionStatus = "denied"
	RedemptionSettled  RedemptionStatus = "settled"
)

// RedemptionStatuses перечисляет все статусы погашения.
var RedemptionStatuses = []RedemptionStatus{
	RedemptionApproved,
	RedemptionDenied,
	RedemptionSettled,
}

// Redemption — факт применения ваучера или предложения.
type Redemption struct {
	ID         string           `json:"id"`
	TenantID   string           `json:"tenant_id"`
	OfferID    string           `json:"offer_id"`
	UserID     *string          `json:"user_id,omitempty"`
	VoucherID  *string          `json:"voucher_id,omitempty"`
	POSRef     *string          `json:"pos_ref,omitempty"`
	Status     RedemptionStatus `json:"status"`
	Reason     *string          `json:"reason,omitempty"`
	RedeemedAt time.Time        `json:"redeemed_at"`
}
