package catalog_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailpos/internal/domain/settings"
	"retailpos/internal/infrastructure/storage/postgres"
)

const settingsTable = "system_settings"

var _ settings.Store = (*SettingsRepo)(nil)

type settingRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// SettingsRepo implements settings.Store over a key/value table.
type SettingsRepo struct {
	txm *postgres.TxManager
}

// NewSettingsRepo creates a new settings store.
func NewSettingsRepo(txm *postgres.TxManager) *SettingsRepo {
	return &SettingsRepo{txm: txm}
}

// Get returns the raw value of key.
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	q := postgres.Builder().
		Select("value").
		From(settingsTable).
		Where(squirrel.Eq{"key": key})

	var value string
	if err := r.txm.Get(ctx, &value, q); err != nil {
		if pgxscan.NotFound(err) {
			return "", false, nil
		}
		return "", false, postgres.MapError(err, "get setting", "setting")
	}
	return value, true, nil
}

// Set stores value under key.
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	q := postgres.Builder().
		Insert(settingsTable).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at")

	if _, err := r.txm.Exec(ctx, q); err != nil {
		return postgres.MapError(err, "set setting", "setting")
	}
	return nil
}

// All returns every stored setting.
func (r *SettingsRepo) All(ctx context.Context) (map[string]string, error) {
	var rows []settingRow
	q := postgres.Builder().Select("key", "value").From(settingsTable)
	if err := r.txm.Select(ctx, &rows, q); err != nil {
		return nil, postgres.MapError(err, "list settings", "setting")
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}
