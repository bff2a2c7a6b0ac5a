package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/nfc-tracker/internal/model"
)

// TenantRepo reads tenants. Tenants are provisioned out of band, so there
// are no write methods.
type TenantRepo struct{ db *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{db: db} }

// GetByID returns ErrTenantNotFound for an unknown id.
func (r *TenantRepo) GetByID(ctx context.Context, id uint64) (model.Tenant, error) {
	var t model.Tenant
	err := r.db.QueryRowContext(ctx, "SELECT id, nombre FROM empresas WHERE id = ?", id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrTenantNotFound
	}
	return t, err
}
