package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/nfc-tracker/internal/model"
)

// TagRepo is the tag directory. Lookups by external tag id are exact
// matches with no trimming or case folding, and every call goes to the
// database.
type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

// ResolveTenant returns the tenant owning tagID, or ErrTagNotFound.
func (r *TagRepo) ResolveTenant(ctx context.Context, tagID string) (uint64, error) {
	return resolveTenant(ctx, r.db, tagID)
}

func resolveTenant(ctx context.Context, q querier, tagID string) (uint64, error) {
	var tenantID uint64
	err := q.QueryRowContext(ctx,
		"SELECT empresa_id FROM nfc_tags WHERE tag_id = ? LIMIT 1", tagID).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTagNotFound
		}
		return 0, fmt.Errorf("resolve tenant for tag: %w", err)
	}
	return tenantID, nil
}

// ResolvePublicURL returns the redirect URL stored for tagID exactly as
// stored. A tag whose URL column is NULL yields "" and no error.
func (r *TagRepo) ResolvePublicURL(ctx context.Context, tagID string) (string, error) {
	var u sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT public_url FROM nfc_tags WHERE tag_id = ? LIMIT 1", tagID).Scan(&u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrTagNotFound
		}
		return "", fmt.Errorf("resolve public url: %w", err)
	}
	return u.String, nil
}

// ListByTenant returns the tenant's tags ordered by id.
func (r *TagRepo) ListByTenant(ctx context.Context, tenantID uint64) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, tag_id, data, public_url, empresa_id FROM nfc_tags WHERE empresa_id = ? ORDER BY id",
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := []model.Tag{}
	for rows.Next() {
		var (
			t          model.Tag
			label, url sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.TagID, &label, &url, &t.TenantID); err != nil {
			return nil, err
		}
		t.Label = label.String
		t.PublicURL = url.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a tag and fills its ID. A tag id already registered by
// any tenant yields ErrDuplicate.
func (r *TagRepo) Create(ctx context.Context, t *model.Tag) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO nfc_tags (tag_id, data, public_url, empresa_id) VALUES (?, ?, ?, ?)",
		t.TagID, t.Label, t.PublicURL, t.TenantID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// DeleteForTenant removes the tag row with primary key id if it belongs
// to tenantID. Taps recorded for the tag are left untouched.
func (r *TagRepo) DeleteForTenant(ctx context.Context, id, tenantID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM nfc_tags WHERE id = ? AND empresa_id = ?", id, tenantID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTagNotFound
	}
	return nil
}
