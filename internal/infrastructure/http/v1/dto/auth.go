package dto

import (
	"time"

	"retailpos/internal/domain/auth"
)

// LoginRequest for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Email: r.Email, Password: r.Password}
}

// LoginResponse carries the token and the logged-in user.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// CreateUserRequest for creating users.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName" binding:"required,max=200"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=admin manager seller"`
}

// ToAuthRequest converts to the domain request.
func (r CreateUserRequest) ToAuthRequest() auth.CreateUserRequest {
	return auth.CreateUserRequest{
		Email:    r.Email,
		FullName: r.FullName,
		Password: r.Password,
		Role:     r.Role,
	}
}

// UserListQuery filters the user directory.
type UserListQuery struct {
	Search     string `form:"search"`
	ActiveOnly bool   `form:"activeOnly"`
	Role       string `form:"role" binding:"omitempty,oneof=admin manager seller"`
}

// UserResponse is a user without secrets.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// FromUser converts a domain user.
func FromUser(u *auth.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Permissions: u.Permissions(),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}
}

// FromUsers converts a list of users.
func FromUsers(users []auth.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, FromUser(&users[i]))
	}
	return out
}
