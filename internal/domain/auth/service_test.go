package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/internal/core/id"
	"retailpos/internal/core/security"
)

type passThroughTx struct{}

func (passThroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memUsers struct {
	byID map[id.ID]*User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[id.ID]*User{}} }

func (m *memUsers) Create(_ context.Context, u *User) error {
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, uid id.ID) (*User, error) {
	u, ok := m.byID[uid]
	if !ok {
		return nil, apperror.NewNotFound("user", uid)
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (m *memUsers) Update(_ context.Context, u *User) error {
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) List(context.Context, UserFilter) ([]User, error) {
	out := make([]User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) Exists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func newTestService() (*Service, *memUsers, *JWTService) {
	repo := newMemUsers()
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret-test-secret-test-secret"))
	return NewService(repo, passThroughTx{}, jwtSvc, DefaultServiceConfig()), repo, jwtSvc
}

func TestLoginIssuesTokenWithRolePermissions(t *testing.T) {
	svc, _, jwtSvc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{Email: " Seller@Shop.io ", FullName: "Ana", Password: "s3cret-pass", Role: security.RoleSeller})
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, Credentials{Email: "seller@shop.io", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NotNil(t, user.LastLoginAt)

	uc, err := jwtSvc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.False(t, uc.IsAdmin)
	assert.True(t, uc.HasPermission(security.PermSalesWrite))
	assert.False(t, uc.HasPermission(security.PermSalesAssignOther))
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, CreateUserRequest{Email: "a@b.c", Password: "correct-horse", Role: security.RoleManager})
	require.NoError(t, err)

	for range DefaultServiceConfig().MaxLoginAttempts {
		_, _, err := svc.Login(ctx, Credentials{Email: "a@b.c", Password: "wrong"})
		assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	}
	assert.True(t, repo.byID[u.ID].IsLocked())

	_, _, err = svc.Login(ctx, Credentials{Email: "a@b.c", Password: "correct-horse"})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, err := svc.Login(context.Background(), Credentials{Email: "nobody@x.y", Password: "whatever1"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestCreateUserRules(t *testing.T) {
	svc, _, _ := newTestService()
	seller := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "s", Role: security.RoleSeller})

	_, err := svc.CreateUser(seller, CreateUserRequest{Email: "x@y.z", Password: "long-enough", Role: security.RoleSeller})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	ctx := context.Background()
	_, err = svc.CreateUser(ctx, CreateUserRequest{Email: "x@y.z", Password: "short", Role: security.RoleSeller})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.CreateUser(ctx, CreateUserRequest{Email: "x@y.z", Password: "long-enough", Role: "owner"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.CreateUser(ctx, CreateUserRequest{Email: "x@y.z", Password: "long-enough", Role: security.RoleSeller})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateUserRequest{Email: "X@y.z", Password: "long-enough", Role: security.RoleSeller})
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
}

func TestGetActiveUser(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, CreateUserRequest{Email: "s@x.y", Password: "long-enough", Role: security.RoleSeller})
	require.NoError(t, err)

	got, err := svc.GetActiveUser(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	repo.byID[u.ID].IsActive = false
	_, err = svc.GetActiveUser(ctx, u.ID.String())
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.GetActiveUser(ctx, "not-a-uuid")
	assert.True(t, apperror.IsNotFound(err))
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-one"))
	verifier := NewJWTService(DefaultJWTConfig("secret-two"))
	u := NewUser("a@b.c", "A", "", security.RoleAdmin)

	token, expiresAt, err := issuer.GenerateAccessToken(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), expiresAt, time.Minute)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)

	uc, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, uc.IsAdmin)
}
