package model

import "time"

// CampaignStatus описывает этап жизненного цикла кампании.
type CampaignStatus string

const (
	CampaignStatusDraft  CampaignStatus = "draft"
	CampaignStatusActive CampaignStatus = "active"
	CampaignStatusPaused CampaignStatus = "paused"
	CampaignStatusEnded  CampaignStatus = "ended"
)

// CampaignStatuses перечисляет все допустимые статусы кампании.
var CampaignStatuses = []CampaignStatus{
	CampaignStatusDraft,
	CampaignStatusActive,
	CampaignStatusPaused,
	CampaignStatusEnded,
}

// TargetKind определяет вариант аудитории кампании.
type TargetKind string

const (
	TargetAll     TargetKind = "all"
	TargetSegment TargetKind = "segment"
	TargetUsers   TargetKind = "users"
)

// TargetKinds перечисляет все варианты аудитории.
var TargetKinds = []TargetKind{TargetAll, TargetSegment, TargetUsers}

// Target — аудитория кампании: все пользователи, сегмент или явный список идентификаторов.
type Target struct {
	Kind    TargetKind `json:"type"`
	Segment string     `json:"segment,omitempty"`
	UserIDs []string   `json:"ids,omitempty"`
	Extra   Extra      `json:"-"`
}

// Campaign описывает маркетинговую кампанию тенанта.
type Campaign struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	Name        string         `json:"name"`
	Status      CampaignStatus `json:"status"`
	Target      Target         `json:"target"`
	StartAt     *time.Time     `json:"start_at,omitempty"`
	EndAt       *time.Time     `json:"end_at,omitempty"`
	DeeplinkURL *string        `json:"deeplink_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// OfferType различает персональные и групповые предложения.
type OfferType string

const (
	OfferTypePersonal OfferType = "personal"
	OfferTypeGroup    OfferType = "group"
)

// OfferTypes перечисляет все типы предложений.
var OfferTypes = []OfferType{OfferTypePersonal, OfferTypeGroup}

// BenefitKind — вид скидки.
type BenefitKind string

const (
	BenefitPercentage BenefitKind = "percentage"
	BenefitFixed      BenefitKind = "fixed"
)

// BenefitKinds перечисляет все виды скидок.
var BenefitKinds = []BenefitKind{BenefitPercentage, BenefitFixed}

// Benefit — размер скидки: процент либо фиксированная сумма в центах.
type Benefit struct {
	Kind  BenefitKind `json:"kind"`
	Value int64       `json:"value"`
	Extra Extra       `json:"-"`
}

// Limits задаёт ограничения предложения. Пустое поле означает отсутствие ограничения.
type Limits struct {
	PerUser       *int64 `json:"per_user,omitempty"`
	Total         *int64 `json:"total,omitempty"`
	MinSpendCents *int64 `json:"min_spend_cents,omitempty"`
	Extra         Extra  `json:"-"`
}

// Offer описывает правило скидки с окном действия.
type Offer struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	CampaignID *string   `json:"campaign_id,omitempty"`
	Type       OfferType `json:"type"`
	Benefit    Benefit   `json:"benefit"`
	Limits     Limits    `json:"limits"`
	// AppliesTo — список SKU; пустой список означает все товары.
	AppliesTo []string  `json:"applies_to"`
	ValidFrom time.Time `json:"valid_from"`
	ValidTo   time.Time `json:"valid_to"`
	CreatedAt time.Time `json:"created_at"`
}

// PushPayload — содержимое push-уведомления.
type PushPayload struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Deeplink string `json:"deeplink,omitempty"`
	Extra    Extra  `json:"-"`
}

// PushNotification описывает push-уведомление, опционально привязанное к кампании.
type PushNotification struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenant_id"`
	CampaignID  *string     `json:"campaign_id,omitempty"`
	Payload     PushPayload `json:"payload"`
	ScheduledAt *time.Time  `json:"scheduled_at,omitempty"`
	SentAt      *time.Time  `json:"sent_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
