package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/nfc-tracker/internal/model"
	"github.com/iliyamo/nfc-tracker/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userSelect = `SELECT u.id, u.nombre, u.email, u.password_hash, u.rol_id, r.nombre, u.empresa_id, e.nombre
	FROM usuarios u
	JOIN roles r ON u.rol_id = r.id
	JOIN empresas e ON u.empresa_id = e.id`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID, &u.Role, &u.TenantID, &u.TenantName)
	return u, err
}

// Create hashes password and inserts the user. It returns the new ID or
// ErrDuplicate when the email is taken.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, roleID uint8, tenantID uint64, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO usuarios (nombre, email, password_hash, rol_id, empresa_id) VALUES (?,?,?,?,?)",
		name, email, hash, roleID, tenantID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx, userSelect+" WHERE u.email = ? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// ListByTenant returns the tenant's users ordered by id.
func (r *UserRepo) ListByTenant(ctx context.Context, tenantID uint64) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, userSelect+" WHERE u.empresa_id = ? ORDER BY u.id", tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DeleteForTenant removes user id if it belongs to tenantID.
func (r *UserRepo) DeleteForTenant(ctx context.Context, id, tenantID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM usuarios WHERE id = ? AND empresa_id = ?", id, tenantID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
