// Package model содержит записи платформы лояльности и их структурированные поля.
package model

import "time"

// Attributes — произвольный набор пар ключ/значение, хранилище не интерпретирует его содержимое.
type Attributes map[string]any

// Tenant представляет организацию-владельца всех остальных записей.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User описывает покупателя, принадлежащего ровно одному тенанту.
type User struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Attributes  Attributes `json:"attributes"`
	ConsentPush bool       `json:"consent_push"`
	ConsentMktg bool       `json:"consent_mktg"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Product описывает товар каталога тенанта. Пара (TenantID, SKU) уникальна.
type Product struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	SKU        string     `json:"sku"`
	Name       string     `json:"name"`
	Category   *string    `json:"category,omitempty"`
	PriceCents int64      `json:"price_cents"`
	Attributes Attributes `json:"attributes"`
	CreatedAt  time.Time  `json:"created_at"`
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// Page задаёт окно выборки для списков.
type Page struct {
	Limit  int
	Offset int
}

// Normalize подставляет значения по умолчанию и ограничивает размер страницы.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
