package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/config"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/service"
	"yalla-business/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*dto.UserDTO, error)
	ChangePassword(ctx context.Context, payload dto.ChangePasswordDTO) error
}

// AuthResult - пара токенов и профиль. Контроллер кладёт токены и в тело, и в cookies.
type AuthResult struct {
	Tokens *service.TokenPair
	User   *dto.UserDTO
}

type AuthService struct {
	userRepo    repositories.UserRepositoryInterface
	companyRepo repositories.CompanyRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	jwtSvc      service.JWTService
	cfg         config.AuthConfig
	logger      *zap.Logger
	now         func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtSvc service.JWTService,
	cfg config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		cacheRepo:   cacheRepo,
		jwtSvc:      jwtSvc,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

func normalizeLogin(login string) string {
	login = strings.TrimSpace(login)
	if utils.IsEmail(login) {
		return strings.ToLower(login)
	}
	return utils.NormalizePhone(login)
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*AuthResult, error) {
	login := normalizeLogin(payload.Login)
	logger := s.logger.With(zap.String("login", login))

	user, err := s.userRepo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Попытка входа с несуществующим логином")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, user.ID)
	if locked, _ := s.cacheRepo.Exists(ctx, lockoutKey); locked {
		logger.Warn("Вход в заблокированную учётную запись", zap.Uint64("user_id", user.ID))
		return nil, apperrors.NewAppError(http.StatusTooManyRequests, CodeAccountLocked, apperrors.TypeAuth,
			fmt.Sprintf("Слишком много неудачных попыток. Попробуйте через %.0f минут.", s.cfg.LockoutDuration.Minutes()),
			apperrors.ErrAccountLocked)
	}

	if err := utils.ComparePasswords(user.PasswordHash, payload.Password); err != nil {
		s.registerFailedAttempt(ctx, user.ID, logger)
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, errUserInactive()
	}
	if err := s.checkCompanyActive(ctx, user); err != nil {
		return nil, err
	}

	_ = s.cacheRepo.Del(ctx, fmt.Sprintf(constants.CacheKeyLoginAttempts, user.ID))
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		logger.Warn("Не удалось обновить время последнего входа", zap.Error(err))
	}

	tokens, err := s.jwtSvc.GenerateTokens(user.Principal())
	if err != nil {
		return nil, apperrors.NewInternalError("Не удалось создать токены", err)
	}
	logger.Info("Успешный вход", zap.Uint64("user_id", user.ID), zap.String("role", user.Role.String()))
	return &AuthResult{Tokens: tokens, User: userEntityToDTO(user)}, nil
}

// registerFailedAttempt считает неудачные попытки; после лимита ставит блокировку.
func (s *AuthService) registerFailedAttempt(ctx context.Context, userID uint64, logger *zap.Logger) {
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, userID)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		logger.Error("Не удалось увеличить счётчик попыток входа", zap.Error(err))
		return
	}
	if attempts == 1 {
		_, _ = s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)
	}
	logger.Warn("Неверный пароль", zap.Uint64("user_id", userID), zap.Int64("attempts", attempts))

	if s.cfg.MaxLoginAttempts > 0 && attempts >= int64(s.cfg.MaxLoginAttempts) {
		lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, userID)
		if err := s.cacheRepo.Set(ctx, lockoutKey, "1", s.cfg.LockoutDuration); err != nil {
			logger.Error("Не удалось заблокировать учётную запись", zap.Error(err))
		}
		_ = s.cacheRepo.Del(ctx, attemptsKey)
		logger.Warn("Учётная запись временно заблокирована", zap.Uint64("user_id", userID))
	}
}

func (s *AuthService) checkCompanyActive(ctx context.Context, user *entities.User) error {
	if user.CompanyID == nil {
		return nil
	}
	company, err := s.companyRepo.FindByID(ctx, *user.CompanyID)
	if err != nil {
		return notFound(err, "Компания не найдена")
	}
	if company.Status == entities.CompanyStatusBlocked {
		return errCompanyBlocked()
	}
	return nil
}

// Refresh выдаёт новую пару и отзывает старый refresh-токен (ротация).
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, apperrors.ErrEmptyAuthHeader
	}
	claims, err := s.jwtSvc.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken() {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errUserInactive()
	}
	if err := s.checkCompanyActive(ctx, user); err != nil {
		return nil, err
	}

	if err := s.consumeRefresh(ctx, claims); err != nil {
		return nil, err
	}

	tokens, err := s.jwtSvc.GenerateTokens(user.Principal())
	if err != nil {
		return nil, apperrors.NewInternalError("Не удалось создать токены", err)
	}
	return &AuthResult{Tokens: tokens, User: userEntityToDTO(user)}, nil
}

// Logout отзывает refresh-токен. Невалидный или просроченный токен не ошибка.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.jwtSvc.ValidateToken(refreshToken)
	if err != nil || !claims.IsRefreshToken() {
		return nil
	}
	s.revoke(ctx, claims)
	s.logger.Info("Выход из системы", zap.Uint64("user_id", claims.UserID))
	return nil
}

// consumeRefresh отзывает refresh-токен одной командой SET NX. Если ключ уже
// есть, токен использован или отозван раньше: из двух параллельных запросов
// новую пару получает только один.
func (s *AuthService) consumeRefresh(ctx context.Context, claims *service.JwtCustomClaim) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return apperrors.ErrUnauthorized
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return apperrors.ErrUnauthorized
	}
	ok, err := s.cacheRepo.SetNX(ctx, fmt.Sprintf(constants.CacheKeyRevokedJTI, claims.ID), strconv.FormatUint(claims.UserID, 10), ttl)
	if err != nil {
		s.logger.Error("Не удалось отозвать refresh-токен", zap.Error(err))
		return apperrors.NewInternalError("Не удалось обновить токены", err)
	}
	if !ok {
		s.logger.Warn("Повторное использование отозванного refresh-токена", zap.Uint64("user_id", claims.UserID))
		return apperrors.ErrTokenRevoked
	}
	return nil
}

func (s *AuthService) revoke(ctx context.Context, claims *service.JwtCustomClaim) {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.cacheRepo.Set(ctx, fmt.Sprintf(constants.CacheKeyRevokedJTI, claims.ID), strconv.FormatUint(claims.UserID, 10), ttl); err != nil {
		s.logger.Error("Не удалось отозвать refresh-токен", zap.Error(err))
	}
}

func (s *AuthService) Me(ctx context.Context) (*dto.UserDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, notFound(err, "Пользователь не найден")
	}
	return userEntityToDTO(user), nil
}

func (s *AuthService) ChangePassword(ctx context.Context, payload dto.ChangePasswordDTO) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return notFound(err, "Пользователь не найден")
	}
	if err := utils.ComparePasswords(user.PasswordHash, payload.OldPassword); err != nil {
		return apperrors.NewBusinessError("WRONG_PASSWORD", "Текущий пароль указан неверно")
	}
	if payload.OldPassword == payload.NewPassword {
		return apperrors.NewBadRequestError("Новый пароль должен отличаться от текущего")
	}
	hash, err := utils.HashPassword(payload.NewPassword)
	if err != nil {
		return apperrors.NewInternalError("Не удалось сменить пароль", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	s.logger.Info("Пароль изменён", zap.Uint64("user_id", user.ID))
	return nil
}
