package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

type ArchiveRepository struct{ db *sql.DB }

func NewArchiveRepository(db *sql.DB) *ArchiveRepository { return &ArchiveRepository{db: db} }

// Persist menulis record baru dan menjaga version chain: satu record
// is_latest per file hash.
func (r *ArchiveRepository) Persist(ctx context.Context, rec *domain.ArchiveRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const prevQ = `
SELECT id, version FROM document_validations
WHERE tenant_id=$1 AND file_hash=$2 AND is_latest=TRUE
LIMIT 1 FOR UPDATE;`

	var prevID string
	var prevVersion int
	err = tx.QueryRowContext(ctx, prevQ, rec.TenantID, rec.FileHash).Scan(&prevID, &prevVersion)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		rec.Version = 1
		rec.PreviousVersionID = ""
	case err != nil:
		return fmt.Errorf("lookup latest version: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE document_validations SET is_latest=FALSE WHERE id=$1;`, prevID); err != nil {
			return fmt.Errorf("demote previous version: %w", err)
		}
		rec.Version = prevVersion + 1
		rec.PreviousVersionID = prevID
	}
	rec.IsLatest = true
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	const insQ = `
INSERT INTO document_validations
(id, tenant_id, file_hash, file_name, file_size, mime_type,
 risk_score, status, report_id, report_data,
 version, is_latest, previous_version_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14);`

	prev := sql.NullString{String: rec.PreviousVersionID, Valid: rec.PreviousVersionID != ""}
	_, err = tx.ExecContext(ctx, insQ,
		rec.ID, stringOrDash(rec.TenantID), rec.FileHash, rec.FileName, rec.FileSize, rec.MIMEType,
		rec.RiskScore, string(rec.Status), string(rec.ReportID), rec.ReportData,
		rec.Version, rec.IsLatest, prev, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return tx.Commit()
}

const selectCols = `
SELECT id, tenant_id, file_hash, file_name, file_size, mime_type,
       risk_score, status, report_id, report_data,
       version, is_latest, previous_version_id, created_at
FROM document_validations`

func (r *ArchiveRepository) Versions(ctx context.Context, tenant, fileHash string) ([]*domain.ArchiveRecord, error) {
	const q = selectCols + `
WHERE tenant_id=$1 AND file_hash=$2
ORDER BY version DESC;`
	rows, err := r.db.QueryContext(ctx, q, tenant, fileHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *ArchiveRepository) GetVersion(ctx context.Context, tenant, fileHash string, version int) (*domain.ArchiveRecord, error) {
	const q = selectCols + `
WHERE tenant_id=$1 AND file_hash=$2 AND version=$3
LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, tenant, fileHash, version)
	return scanRecord(row)
}

func (r *ArchiveRepository) History(ctx context.Context, tenant string, latestOnly bool, limit int) ([]*domain.ArchiveRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := selectCols + `
WHERE tenant_id=$1`
	if latestOnly {
		q += " AND is_latest=TRUE"
	}
	q += `
ORDER BY created_at DESC LIMIT $2;`

	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*domain.ArchiveRecord, error) {
	var rec domain.ArchiveRecord
	var prev sql.NullString
	if err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.FileHash, &rec.FileName, &rec.FileSize, &rec.MIMEType,
		&rec.RiskScore, &rec.Status, &rec.ReportID, &rec.ReportData,
		&rec.Version, &rec.IsLatest, &prev, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.PreviousVersionID = prev.String
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*domain.ArchiveRecord, error) {
	var out []*domain.ArchiveRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
