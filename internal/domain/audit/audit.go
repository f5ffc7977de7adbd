// Package audit defines the change-log contract used by services that must keep
// a before/after trail (invoices, products).
package audit

import (
	"context"
	"encoding/json"
	"reflect"
	"time"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionReplace    Action = "replace_lines"
	ActionVoid       Action = "void"
	ActionDeactivate Action = "deactivate"
)

// Entry is one recorded change.
type Entry struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     Action          `json:"action"`
	UserID     string          `json:"userId"`
	Changes    json.RawMessage `json:"changes"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Recorder writes audit entries. Implementations join the transaction in ctx.
type Recorder interface {
	LogChange(ctx context.Context, entityType, entityID string, action Action, changes map[string]any) error
}

// Reader returns the recorded history of an entity, newest first.
type Reader interface {
	GetEntityHistory(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error)
}

// Diff calculates the difference between old and new entity states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

// equal compares through JSON so decimals and numbers of different types compare by value.
func equal(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return string(ja) == string(jb)
}

// Nop discards every entry.
type Nop struct{}

func (Nop) LogChange(context.Context, string, string, Action, map[string]any) error { return nil }
