package dto

// UpdateSettingsRequest writes several settings at once.
type UpdateSettingsRequest struct {
	Values map[string]string `json:"values" binding:"required,min=1"`
}
