package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"retailpos/internal/core/apperror"
)

const idempotencyTable = "sys_idempotency"

// staleAfter is how long a pending key may sit before another request reclaims it.
const staleAfter = time.Minute

// IdempotencyStatus represents the state of an idempotent request.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

type idempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	UserID      string            `db:"user_id"`
	Operation   string            `db:"operation"`
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"`
	Response    []byte            `db:"response"`
	StatusCode  *int              `db:"response_status"`
	Inserted    bool              `db:"inserted"`
	UpdatedAt   time.Time         `db:"updated_at"`
}

// IdempotencyReplay is a stored HTTP response to send again.
type IdempotencyReplay struct {
	StatusCode int
	Body       []byte
}

// IdempotencyStore remembers the outcome of POSTs carrying an idempotency key,
// so a till retrying a sale after a timeout gets the first answer back.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// AcquireKey claims key for this request. It returns:
//   - (nil, nil) when the caller owns the key and must run the request
//   - (replay, nil) when the request already finished
//   - (nil, err) when the key belongs to a different request or is still running
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now()

	var rec idempotencyRecord
	err := pgxscan.Get(ctx, s.txManager.GetQuerier(ctx), &rec, `
		INSERT INTO `+idempotencyTable+` (idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET expires_at = GREATEST(`+idempotencyTable+`.expires_at, EXCLUDED.expires_at)
		RETURNING idempotency_key, user_id, operation, status, request_hash, response, response_status,
			updated_at, (xmax = 0) AS inserted
	`, key, userID, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if rec.Inserted {
		return nil, nil
	}

	if rec.UserID != userID || rec.Operation != operation || rec.RequestHash != requestHash {
		return nil, apperror.NewConflict("idempotency key was already used for a different request").
			WithDetail("idempotency_key", key)
	}

	switch rec.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return &IdempotencyReplay{StatusCode: replayStatus(rec.StatusCode), Body: rec.Response}, nil
	}

	if now.Sub(rec.UpdatedAt) <= staleAfter {
		return nil, apperror.NewConflict("a request with this idempotency key is still being processed").
			WithDetail("idempotency_key", key)
	}

	res, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE `+idempotencyTable+` SET updated_at = $1
		WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
	`, now, key, IdempotencyStatusPending, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale idempotency key: %w", err)
	}
	if res.RowsAffected() == 0 {
		return nil, apperror.NewConflict("a request with this idempotency key is still being processed").
			WithDetail("idempotency_key", key)
	}
	return nil, nil
}

// CompleteKey stores the response of a request that reached the handler.
// 5xx responses release the key instead, so the client may retry.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, body []byte) error {
	if statusCode >= http.StatusInternalServerError {
		_, err := s.txManager.GetQuerier(ctx).Exec(ctx,
			`DELETE FROM `+idempotencyTable+` WHERE idempotency_key = $1`, key)
		return err
	}

	status := IdempotencyStatusSuccess
	if statusCode >= http.StatusBadRequest {
		status = IdempotencyStatusFailed
	}
	if !json.Valid(body) {
		body = nil
	}
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE `+idempotencyTable+`
		SET status = $1, response = $2, response_status = $3, updated_at = $4
		WHERE idempotency_key = $5
	`, status, body, statusCode, s.now(), key)
	return err
}

// CleanupExpired removes expired records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM `+idempotencyTable+` WHERE expires_at < $1`, s.now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func replayStatus(status *int) int {
	if status == nil || *status == 0 {
		return http.StatusOK
	}
	return *status
}
