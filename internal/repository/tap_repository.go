package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/nfc-tracker/internal/model"
)

// TapRepo appends and lists tap events. Rows are never updated or
// deleted, and duplicates are not detected: two identical taps are two
// rows.
type TapRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewTapRepo(db *sql.DB) *TapRepo {
	return &TapRepo{db: db, now: time.Now}
}

// Record inserts ev using the tenant the caller supplies. It does not
// check that ev.TagID still belongs to ev.TenantID. Timestamp is set to
// the current UTC time when zero; ID is filled from the insert.
func (r *TapRepo) Record(ctx context.Context, ev *model.TapEvent) error {
	return r.insert(ctx, r.db, ev)
}

// RecordForTag resolves the owning tenant of ev.TagID and inserts the tap
// in a single transaction. It returns ErrTagNotFound, without writing,
// for an unknown tag.
//
// The lookup is a plain non-locking read. Tags are never moved between
// tenants, so the only race is a concurrent delete, which still lets this
// tap through; that is accepted since taps outlive their tags.
func (r *TapRepo) RecordForTag(ctx context.Context, ev *model.TapEvent) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tap tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	tenantID, err := resolveTenant(ctx, tx, ev.TagID)
	if err != nil {
		return err
	}
	ev.TenantID = tenantID
	if err = r.insert(ctx, tx, ev); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tap tx: %w", err)
	}
	return nil
}

func (r *TapRepo) insert(ctx context.Context, q querier, ev *model.TapEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.now().UTC()
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO nfc_taps (tag_id, timestamp, ip_address, user_agent, location_data, empresa_id) VALUES (?, ?, ?, ?, ?, ?)",
		ev.TagID, ev.Timestamp, nullString(ev.IPAddress), nullString(ev.UserAgent), ev.LocationData, ev.TenantID)
	if err != nil {
		return fmt.Errorf("insert tap: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

// ListByTenant returns the taps attributed to tenantID, newest first.
// Attribution uses the tenant stored on each tap, so taps of deleted or
// reassigned tags stay with the tenant that owned the tag at tap time.
func (r *TapRepo) ListByTenant(ctx context.Context, tenantID uint64) ([]model.TapEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tag_id, timestamp, ip_address, user_agent, location_data, empresa_id
		 FROM nfc_taps WHERE empresa_id = ? ORDER BY timestamp DESC, id DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list taps: %w", err)
	}
	defer rows.Close()

	out := []model.TapEvent{}
	for rows.Next() {
		var (
			ev          model.TapEvent
			ip, ua, loc sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.TagID, &ev.Timestamp, &ip, &ua, &loc, &ev.TenantID); err != nil {
			return nil, err
		}
		ev.Timestamp = ev.Timestamp.UTC()
		ev.IPAddress = ip.String
		ev.UserAgent = ua.String
		if loc.Valid {
			s := loc.String
			ev.LocationData = &s
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
