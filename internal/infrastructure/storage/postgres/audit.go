package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "retailpos/internal/core/context"
	"retailpos/internal/core/id"
	"retailpos/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the change payload size above which entries are
// stored zstd-compressed. Invoice line-replace diffs reach it quickly.
const DefaultCompressThreshold = 4 * 1024

var (
	_ audit.Recorder = (*AuditService)(nil)
	_ audit.Reader   = (*AuditService)(nil)
)

// auditRow is one row of sys_audit.
type auditRow struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          string          `db:"entity_id"`
	Action            audit.Action    `db:"action"`
	UserID            string          `db:"user_id"`
	UserEmail         string          `db:"user_email"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditService writes and reads the audit trail inside the caller's transaction.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// LogChange records a change made by the caller in ctx.
func (s *AuditService) LogChange(ctx context.Context, entityType, entityID string, action audit.Action, changes map[string]any) error {
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	row := auditRow{
		ID:              id.New(),
		EntityType:      entityType,
		EntityID:        entityID,
		Action:          action,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}
	if u := appctx.GetUser(ctx); u != nil {
		row.UserID = u.UserID
		row.UserEmail = u.Email
	}
	row.Changes, row.ChangesCompressed, row.CompressionAlgo = s.encode(payload)

	const sql = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, user_email,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		row.ID, row.EntityType, row.EntityID, row.Action, row.UserID, row.UserEmail,
		row.Changes, row.ChangesCompressed, row.CompressionAlgo, row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *AuditService) encode(payload []byte) (json.RawMessage, []byte, CompressionAlgo) {
	if len(payload) <= s.compressThreshold {
		return payload, nil, CompressionNone
	}
	return nil, s.encoder.EncodeAll(payload, nil), CompressionZstd
}

func (s *AuditService) decode(row auditRow) (json.RawMessage, error) {
	if row.CompressionAlgo != CompressionZstd || len(row.ChangesCompressed) == 0 {
		return row.Changes, nil
	}
	out, err := s.decoder.DecodeAll(row.ChangesCompressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress changes: %w", err)
	}
	return out, nil
}

// GetEntityHistory returns up to limit entries for an entity, newest first.
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType, entityID string, limit int) ([]audit.Entry, error) {
	const sql = `
		SELECT id, entity_type, entity_id, action, user_id, user_email,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]audit.Entry, 0)
	for rows.Next() {
		var r auditRow
		if err := rows.Scan(
			&r.ID, &r.EntityType, &r.EntityID, &r.Action, &r.UserID, &r.UserEmail,
			&r.Changes, &r.ChangesCompressed, &r.CompressionAlgo, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		changes, err := s.decode(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, audit.Entry{
			ID:         r.ID.String(),
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Action:     r.Action,
			UserID:     r.UserID,
			Changes:    changes,
			CreatedAt:  r.CreatedAt,
		})
	}
	return entries, rows.Err()
}
