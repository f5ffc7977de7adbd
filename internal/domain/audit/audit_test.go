package audit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	oldState := map[string]any{
		"customer": "Ana",
		"total":    decimal.RequireFromString("135.00"),
		"note":     "x",
	}
	newState := map[string]any{
		"customer": "Ana",
		"total":    decimal.RequireFromString("100"),
		"seller":   "u2",
	}

	changes := Diff(oldState, newState)

	assert.NotContains(t, changes, "customer")
	assert.Contains(t, changes, "total")
	assert.Equal(t, map[string]any{"old": nil, "new": "u2"}, changes["seller"])
	assert.Equal(t, map[string]any{"old": "x", "new": nil}, changes["note"])
}

func TestDiffNoChanges(t *testing.T) {
	state := map[string]any{"qty": 3}
	assert.Empty(t, Diff(state, map[string]any{"qty": 3}))
}
