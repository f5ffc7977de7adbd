package settings

import (
	"context"
	"fmt"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/internal/core/security"
	"retailpos/pkg/logger"
)

// Entry is a setting with its effective value.
type Entry struct {
	Definition
	Value string `json:"value"`
}

// Service manages settings for administrators.
type Service struct {
	store Store
}

// NewService creates the settings service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// All returns every known setting with its effective value.
func (s *Service) All(ctx context.Context) ([]Entry, error) {
	if !appctx.HasPermission(ctx, security.PermSettingsView) {
		return nil, apperror.NewForbidden("settings:view permission required")
	}
	stored, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}

	out := make([]Entry, 0, len(definitions))
	for _, d := range definitions {
		v, ok := stored[d.Key]
		if !ok {
			v = d.Default
		}
		out = append(out, Entry{Definition: d, Value: v})
	}
	return out, nil
}

// Get returns one setting.
func (s *Service) Get(ctx context.Context, key string) (Entry, error) {
	if !appctx.HasPermission(ctx, security.PermSettingsView) {
		return Entry{}, apperror.NewForbidden("settings:view permission required")
	}
	d, ok := Lookup(key)
	if !ok {
		return Entry{}, apperror.NewNotFound("setting", key)
	}
	v, found, err := s.store.Get(ctx, key)
	if err != nil {
		return Entry{}, fmt.Errorf("get setting: %w", err)
	}
	if !found {
		v = d.Default
	}
	return Entry{Definition: d, Value: v}, nil
}

// Set validates and stores values. Only administrators may write settings.
func (s *Service) Set(ctx context.Context, values map[string]string) error {
	if !appctx.IsAdmin(ctx) {
		return apperror.NewForbidden("only administrators can change settings")
	}

	normalized := make(map[string]string, len(values))
	for key, raw := range values {
		d, ok := Lookup(key)
		if !ok {
			return apperror.NewValidation("unknown setting").WithDetail("key", key)
		}
		v, valid := d.Normalize(raw)
		if !valid {
			return apperror.NewValidation("invalid setting value").
				WithDetail("key", key).
				WithDetail("kind", d.Kind)
		}
		normalized[key] = v
	}

	for key, v := range normalized {
		if err := s.store.Set(ctx, key, v); err != nil {
			return fmt.Errorf("set setting %s: %w", key, err)
		}
	}

	logger.Info(ctx, "settings updated", "keys", len(normalized))
	return nil
}
