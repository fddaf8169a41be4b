package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/loyalty-platform/internal/model"
)

const userColumns = `id, tenant_id, email, phone, attributes, consent_push, consent_mktg, created_at`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Phone, &u.Attributes,
		&u.ConsentPush, &u.ConsentMktg, &u.CreatedAt)
	return u, err
}

// CreateUser сохраняет пользователя тенанта.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.TenantID, u.Email, u.Phone, u.Attributes, u.ConsentPush, u.ConsentMktg, u.CreatedAt,
	)
	return mapError(err, "create user")
}

// GetUser возвращает пользователя тенанта по идентификатору.
func (r *PostgresRepository) GetUser(ctx context.Context, tenantID, id string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapError(err, "get user")
	}
	return &u, nil
}

// ListUsers возвращает пользователей тенанта, новые первыми.
func (r *PostgresRepository) ListUsers(ctx context.Context, tenantID string, page model.Page) ([]model.User, error) {
	page = page.Normalize()
	return queryList(ctx, r.pool, "list users", scanUser,
		`SELECT `+userColumns+` FROM users
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		tenantID, page.Limit, page.Offset)
}

const productColumns = `id, tenant_id, sku, name, category, price_cents, attributes, created_at`

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Category,
		&p.PriceCents, &p.Attributes, &p.CreatedAt)
	return p, err
}

// CreateProduct сохраняет товар. Пара (тенант, SKU) уникальна.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.SKU, p.Name, p.Category, p.PriceCents, p.Attributes, p.CreatedAt,
	)
	return mapError(err, "create product")
}

// GetProduct возвращает товар тенанта по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, tenantID, id string) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapError(err, "get product")
	}
	return &p, nil
}

// GetProductBySKU возвращает товар тенанта по SKU.
func (r *PostgresRepository) GetProductBySKU(ctx context.Context, tenantID, sku string) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND sku = $2`, tenantID, sku))
	if err != nil {
		return nil, mapError(err, "get product by sku")
	}
	return &p, nil
}

// ListProducts возвращает товары тенанта.
func (r *PostgresRepository) ListProducts(ctx context.Context, tenantID string, page model.Page) ([]model.Product, error) {
	page = page.Normalize()
	return queryList(ctx, r.pool, "list products", scanProduct,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		tenantID, page.Limit, page.Offset)
}
