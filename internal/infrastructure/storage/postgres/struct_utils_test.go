package postgres

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"retailpos/internal/core/id"
)

type Stamped struct {
	CreatedAt time.Time `db:"created_at"`
}

type sampleRow struct {
	Stamped
	ID       id.ID           `db:"id"`
	SKU      string          `db:"sku"`
	Total    decimal.Decimal `db:"total_usd"`
	Lines    []string        `db:"-"`
	internal string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[sampleRow]()
	assert.Equal(t, []string{"created_at", "id", "sku", "total_usd"}, cols)

	assert.Equal(t, cols, ExtractDBColumns[*sampleRow]())
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	row := &sampleRow{
		Stamped:  Stamped{CreatedAt: now},
		ID:       id.New(),
		SKU:      "RIDAX-GEN-GEN-NA-00001",
		Total:    decimal.RequireFromString("13.01"),
		Lines:    []string{"ignored"},
		internal: "ignored",
	}

	m := StructToMap(row)
	assert.Len(t, m, 4)
	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "13.01", m["total_usd"].(decimal.Decimal).String())

	picked := PickColumns(m, []string{"id", "sku", "missing"}, "id")
	assert.Equal(t, map[string]any{"sku": row.SKU}, picked)
}
