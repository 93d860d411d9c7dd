package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
)

type UserServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.UserDTO], error)
	GetByID(ctx context.Context, id uint64) (*dto.UserDTO, error)
	Create(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserDTO, error)
	Delete(ctx context.Context, id uint64) error
	ResetPassword(ctx context.Context, id uint64, payload dto.ResetPasswordDTO) error
}

type UserService struct {
	userRepo    repositories.UserRepositoryInterface
	projectRepo repositories.ProjectRepositoryInterface
	logger      *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepositoryInterface,
	projectRepo repositories.ProjectRepositoryInterface,
	logger *zap.Logger,
) *UserService {
	return &UserService{userRepo: userRepo, projectRepo: projectRepo, logger: logger}
}

func userEntityToDTO(entity *entities.User) *dto.UserDTO {
	if entity == nil {
		return nil
	}
	return &dto.UserDTO{
		ID:          entity.ID,
		CompanyID:   entity.CompanyID,
		CompanyName: entity.CompanyName,
		ProjectID:   entity.ProjectID,
		FullName:    entity.FullName,
		Phone:       entity.Phone,
		Email:       entity.Email,
		Role:        entity.Role.String(),
		IsActive:    entity.IsActive,
		LastLoginAt: dto.FormatDateTimePtr(entity.LastLoginAt),
		CreatedAt:   dto.FormatDateTime(entity.CreatedAt),
	}
}

func (s *UserService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.UserDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	users, total, err := s.userRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		list = append(list, *userEntityToDTO(&users[i]))
	}
	return &PaginatedResult[dto.UserDTO]{List: list, Total: total}, nil
}

func (s *UserService) load(ctx context.Context, p types.Principal, id uint64) (*entities.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Пользователь не найден")
	}
	if !p.IsSuperAdmin() && (user.CompanyID == nil || *user.CompanyID != p.CompanyIDOrZero()) {
		return nil, apperrors.NewNotFoundError("Пользователь не найден")
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return userEntityToDTO(user), nil
}

// checkProject - проект менеджера должен принадлежать его компании.
func (s *UserService) checkProject(ctx context.Context, companyID, projectID uint64) error {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return notFound(err, "Проект не найден")
	}
	if project.CompanyID != companyID {
		return apperrors.NewNotFoundError("Проект не найден")
	}
	return nil
}

func (s *UserService) Create(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	companyID, err := resolveCompanyID(p, utils.SafeDeref(payload.CompanyID))
	if err != nil {
		return nil, err
	}

	role := constants.Role(payload.Role)
	user := &entities.User{
		CompanyID: &companyID,
		FullName:  strings.TrimSpace(payload.FullName),
		Phone:     utils.NormalizePhone(payload.Phone),
		Role:      role,
		IsActive:  true,
	}
	if payload.Email != nil && *payload.Email != "" {
		email := strings.ToLower(strings.TrimSpace(*payload.Email))
		user.Email = &email
	}
	if role == constants.RoleManager {
		if payload.ProjectID == nil {
			return nil, apperrors.NewBadRequestError("Для менеджера нужно указать проект")
		}
		if err := s.checkProject(ctx, companyID, *payload.ProjectID); err != nil {
			return nil, err
		}
		user.ProjectID = payload.ProjectID
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("Не удалось создать пользователя", err)
	}
	user.PasswordHash = hash

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateLogin) {
			return nil, apperrors.NewConflictError(CodeUserExists, "Пользователь с таким телефоном или email уже существует")
		}
		return nil, err
	}
	s.logger.Info("Пользователь создан", zap.Uint64("id", id), zap.Uint64("company_id", companyID), zap.String("role", payload.Role))
	return s.GetByID(ctx, id)
}

func (s *UserService) Update(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if user.Role == constants.RoleSuperAdmin && !p.IsSuperAdmin() {
		return nil, apperrors.NewForbiddenError("Нельзя изменить супер-администратора")
	}

	if payload.FullName.Valid {
		user.FullName = strings.TrimSpace(payload.FullName.String)
	}
	if payload.Phone.Valid {
		user.Phone = utils.NormalizePhone(payload.Phone.String)
	}
	if payload.Email.Valid {
		email := strings.ToLower(strings.TrimSpace(payload.Email.String))
		user.Email = &email
	}
	if payload.Role.Valid {
		if id == p.UserID {
			return nil, apperrors.NewBadRequestError("Нельзя изменить собственную роль")
		}
		user.Role = constants.Role(payload.Role.String)
	}
	if payload.ProjectID.Valid {
		projectID := payload.ProjectID.Uint64
		user.ProjectID = &projectID
	}
	if payload.IsActive.Valid {
		if id == p.UserID && !payload.IsActive.Bool {
			return nil, apperrors.NewBadRequestError("Нельзя деактивировать самого себя")
		}
		user.IsActive = payload.IsActive.Bool
	}

	if user.Role == constants.RoleManager {
		if user.ProjectID == nil {
			return nil, apperrors.NewBadRequestError("Для менеджера нужно указать проект")
		}
		if err := s.checkProject(ctx, utils.SafeDeref(user.CompanyID), *user.ProjectID); err != nil {
			return nil, err
		}
	} else {
		user.ProjectID = nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateLogin) {
			return nil, apperrors.NewConflictError(CodeUserExists, "Пользователь с таким телефоном или email уже существует")
		}
		return nil, notFound(err, "Пользователь не найден")
	}
	return s.GetByID(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id uint64) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if id == p.UserID {
		return apperrors.NewBadRequestError("Нельзя удалить самого себя")
	}
	user, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if user.Role == constants.RoleSuperAdmin {
		return apperrors.NewForbiddenError("Нельзя удалить супер-администратора")
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return notFound(err, "Пользователь не найден")
	}
	s.logger.Info("Пользователь удалён", zap.Uint64("id", id), zap.Uint64("by", p.UserID))
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, id uint64, payload dto.ResetPasswordDTO) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	user, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if user.Role == constants.RoleSuperAdmin && !p.IsSuperAdmin() {
		return apperrors.NewForbiddenError("Нельзя изменить супер-администратора")
	}
	hash, err := utils.HashPassword(payload.NewPassword)
	if err != nil {
		return apperrors.NewInternalError("Не удалось сбросить пароль", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, id, hash); err != nil {
		return notFound(err, "Пользователь не найден")
	}
	s.logger.Info("Пароль сброшен администратором", zap.Uint64("id", id), zap.Uint64("by", p.UserID))
	return nil
}
