package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
)

type AuthController struct {
	authService  services.AuthServiceInterface
	cookieSecure bool
	logger       *zap.Logger
}

func NewAuthController(authService services.AuthServiceInterface, cookieSecure bool, logger *zap.Logger) *AuthController {
	return &AuthController{
		authService:  authService,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return errorResponse(c, err, ctrl.logger)
}

func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.LoginDTO

	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Error("Login: ошибка привязки данных", zap.Error(err))
		return ctrl.errorResponse(c, apperrors.NewBadRequestError("Неверный формат данных для входа"))
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.authService.Login(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Warn("Login: ошибка авторизации", zap.String("login", payload.Login), zap.Error(err))
		return ctrl.errorResponse(c, err)
	}
	return ctrl.respondWithTokens(c, res, "Авторизация прошла успешно")
}

func (ctrl *AuthController) Refresh(c echo.Context) error {
	var payload dto.RefreshTokenDTO
	_ = c.Bind(&payload)

	token := payload.RefreshToken
	if token == "" {
		if cookie, err := c.Cookie(constants.CookieRefreshToken); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return ctrl.errorResponse(c, apperrors.ErrUnauthorized)
	}

	res, err := ctrl.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		ctrl.clearCookies(c)
		return ctrl.errorResponse(c, err)
	}
	return ctrl.respondWithTokens(c, res, "Токены успешно обновлены")
}

func (ctrl *AuthController) Logout(c echo.Context) error {
	var payload dto.RefreshTokenDTO
	_ = c.Bind(&payload)

	token := payload.RefreshToken
	if token == "" {
		if cookie, err := c.Cookie(constants.CookieRefreshToken); err == nil {
			token = cookie.Value
		}
	}
	if token != "" {
		if err := ctrl.authService.Logout(c.Request().Context(), token); err != nil {
			ctrl.logger.Warn("Logout: не удалось отозвать токен", zap.Error(err))
		}
	}
	ctrl.clearCookies(c)
	return api.SuccessOne[any](c, http.StatusOK, "Вы успешно вышли из системы", nil)
}

func (ctrl *AuthController) Me(c echo.Context) error {
	user, err := ctrl.authService.Me(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Профиль пользователя получен", user)
}

func (ctrl *AuthController) ChangePassword(c echo.Context) error {
	var payload dto.ChangePasswordDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.authService.ChangePassword(c.Request().Context(), payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Пароль изменён", nil)
}

func (ctrl *AuthController) respondWithTokens(c echo.Context, res *services.AuthResult, message string) error {
	tokens := res.Tokens
	c.SetCookie(ctrl.cookie(constants.CookieAccessToken, tokens.AccessToken, tokens.AccessExpiresAt))
	c.SetCookie(ctrl.cookie(constants.CookieRefreshToken, tokens.RefreshToken, tokens.RefreshExpiresAt))

	return api.SuccessOne(c, http.StatusOK, message, dto.AuthResponseDTO{
		AccessToken:      tokens.AccessToken,
		RefreshToken:     tokens.RefreshToken,
		AccessExpiresAt:  tokens.AccessExpiresAt.Format(time.RFC3339),
		RefreshExpiresAt: tokens.RefreshExpiresAt.Format(time.RFC3339),
		User:             res.User,
	})
}

func (ctrl *AuthController) clearCookies(c echo.Context) {
	for _, name := range []string{constants.CookieAccessToken, constants.CookieRefreshToken} {
		cookie := ctrl.cookie(name, "", time.Unix(0, 0))
		cookie.MaxAge = -1
		c.SetCookie(cookie)
	}
}

func (ctrl *AuthController) cookie(name, value string, expires time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if ctrl.cookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   ctrl.cookieSecure,
		SameSite: sameSite,
	}
}
