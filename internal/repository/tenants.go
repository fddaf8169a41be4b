package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/loyalty-platform/internal/model"
)

const tenantColumns = `id, name, created_at`

func scanTenant(row pgx.Row) (model.Tenant, error) {
	var t model.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.CreatedAt)
	return t, err
}

// CreateTenant сохраняет нового тенанта. Имя тенанта уникально.
func (r *PostgresRepository) CreateTenant(ctx context.Context, t *model.Tenant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, created_at) VALUES ($1, $2, $3)`,
		t.ID, t.Name, t.CreatedAt,
	)
	return mapError(err, "create tenant")
}

// GetTenant возвращает тенанта по идентификатору.
func (r *PostgresRepository) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "get tenant")
	}
	return &t, nil
}

// GetTenantByName возвращает тенанта по уникальному имени.
func (r *PostgresRepository) GetTenantByName(ctx context.Context, name string) (*model.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE name = $1`, name))
	if err != nil {
		return nil, mapError(err, "get tenant by name")
	}
	return &t, nil
}
