package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/pkg/config"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/service"
	"yalla-business/pkg/utils"
)

func newAuthFixture(t *testing.T, user entities.User) (*AuthService, *memoryCache) {
	t.Helper()
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	user.PasswordHash = hash

	cache := newMemoryCache()
	svc := NewAuthService(
		&fakeUserRepo{users: map[uint64]*entities.User{user.ID: &user}},
		newFakeCompanyRepo(
			entities.Company{ID: 1, Name: "ТОО Тест", Status: entities.CompanyStatusActive},
			entities.Company{ID: 2, Name: "ТОО Блок", Status: entities.CompanyStatusBlocked},
		),
		cache,
		service.NewJWTService("test-secret", 15*time.Minute, 24*time.Hour),
		config.AuthConfig{MaxLoginAttempts: 3, LockoutDuration: 15 * time.Minute},
		zap.NewNop(),
	)
	return svc, cache
}

func adminUser(companyID uint64) entities.User {
	return entities.User{
		ID:        42,
		CompanyID: &companyID,
		FullName:  "Админ",
		Phone:     "+996555000111",
		Email:     utils.ToPtr("admin@example.com"),
		Role:      constants.RoleAdmin,
		IsActive:  true,
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newAuthFixture(t, adminUser(1))

	res, err := svc.Login(context.Background(), dto.LoginDTO{Login: " Admin@Example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)
	assert.Equal(t, uint64(42), res.User.ID)
}

func TestAuthService_Login_LockoutAfterFailedAttempts(t *testing.T) {
	svc, cache := newAuthFixture(t, adminUser(1))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, dto.LoginDTO{Login: "admin@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	locked, _ := cache.Exists(ctx, "lockout:42")
	assert.True(t, locked)

	// даже верный пароль не пускает, пока действует блокировка
	_, err := svc.Login(ctx, dto.LoginDTO{Login: "admin@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, CodeAccountLocked, apperrors.Code(err))
	assert.ErrorIs(t, err, apperrors.ErrAccountLocked)
}

func TestAuthService_Login_SuccessResetsAttempts(t *testing.T) {
	svc, cache := newAuthFixture(t, adminUser(1))
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginDTO{Login: "admin@example.com", Password: "wrong"})
	require.Error(t, err)
	_, err = svc.Login(ctx, dto.LoginDTO{Login: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)

	exists, _ := cache.Exists(ctx, "login_attempts:42")
	assert.False(t, exists)
}

func TestAuthService_Login_Rejections(t *testing.T) {
	inactive := adminUser(1)
	inactive.IsActive = false

	tests := []struct {
		name     string
		user     entities.User
		login    string
		wantCode string
		wantErr  error
	}{
		{name: "неизвестный логин", user: adminUser(1), login: "nobody@example.com", wantErr: apperrors.ErrInvalidCredentials},
		{name: "пользователь деактивирован", user: inactive, login: "admin@example.com", wantCode: CodeUserInactive},
		{name: "компания заблокирована", user: adminUser(2), login: "admin@example.com", wantCode: CodeCompanyBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newAuthFixture(t, tt.user)
			_, err := svc.Login(context.Background(), dto.LoginDTO{Login: tt.login, Password: "secret123"})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, apperrors.Code(err))
			}
		})
	}
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	svc, _ := newAuthFixture(t, adminUser(1))
	ctx := context.Background()

	res, err := svc.Login(ctx, dto.LoginDTO{Login: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Tokens.AccessToken)

	// старый refresh-токен после ротации отозван
	_, err = svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestAuthService_ConcurrentRefreshIssuesOnePair(t *testing.T) {
	svc, _ := newAuthFixture(t, adminUser(1))
	ctx := context.Background()

	res, err := svc.Login(ctx, dto.LoginDTO{Login: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)

	const workers = 16
	var (
		wg       sync.WaitGroup
		issued   atomic.Int32
		rejected atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Refresh(ctx, res.Tokens.RefreshToken)
			switch {
			case err == nil:
				issued.Add(1)
			case errors.Is(err, apperrors.ErrTokenRevoked):
				rejected.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), issued.Load())
	assert.Equal(t, int32(workers-1), rejected.Load())
}

func TestAuthService_RefreshAfterLogout(t *testing.T) {
	svc, _ := newAuthFixture(t, adminUser(1))
	ctx := context.Background()

	res, err := svc.Login(ctx, dto.LoginDTO{Login: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, res.Tokens.RefreshToken))

	_, err = svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}
