package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
)

type ProjectServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.ProjectDTO], error)
	GetByID(ctx context.Context, id uint64) (*dto.ProjectDTO, error)
	Create(ctx context.Context, payload dto.CreateProjectDTO) (*dto.ProjectDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateProjectDTO) (*dto.ProjectDTO, error)
	Delete(ctx context.Context, id uint64) error
}

type ProjectService struct {
	projectRepo repositories.ProjectRepositoryInterface
	logger      *zap.Logger
}

func NewProjectService(projectRepo repositories.ProjectRepositoryInterface, logger *zap.Logger) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, logger: logger}
}

func projectEntityToDTO(p *entities.Project) *dto.ProjectDTO {
	return &dto.ProjectDTO{
		ID:                p.ID,
		CompanyID:         p.CompanyID,
		Name:              p.Name,
		Address:           p.Address,
		ServiceType:       string(p.ServiceType),
		CutoffTime:        p.CutoffTime,
		CompensationLimit: p.CompensationLimit,
		EmployeesCount:    p.EmployeesCount,
		CreatedAt:         dto.FormatDateTime(p.CreatedAt),
		UpdatedAt:         dto.FormatDateTime(p.UpdatedAt),
	}
}

func (s *ProjectService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.ProjectDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	projects, total, err := s.projectRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.ProjectDTO, 0, len(projects))
	for i := range projects {
		list = append(list, *projectEntityToDTO(&projects[i]))
	}
	return &PaginatedResult[dto.ProjectDTO]{List: list, Total: total}, nil
}

func (s *ProjectService) load(ctx context.Context, p types.Principal, id uint64) (*entities.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Проект не найден")
	}
	if err := checkAccess(p, project.CompanyID, project.ID); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) GetByID(ctx context.Context, id uint64) (*dto.ProjectDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	project, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return projectEntityToDTO(project), nil
}

func (s *ProjectService) Create(ctx context.Context, payload dto.CreateProjectDTO) (*dto.ProjectDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	companyID, err := resolveCompanyID(p, payload.CompanyID)
	if err != nil {
		return nil, err
	}

	project := &entities.Project{
		CompanyID:         companyID,
		Name:              strings.TrimSpace(payload.Name),
		Address:           strings.TrimSpace(payload.Address),
		ServiceType:       constants.ServiceType(payload.ServiceType),
		CutoffTime:        payload.CutoffTime,
		CompensationLimit: payload.CompensationLimit,
	}
	id, err := s.projectRepo.Create(ctx, project)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Проект создан", zap.Uint64("id", id), zap.Uint64("company_id", companyID))
	return s.GetByID(ctx, id)
}

// Update: адрес после создания не меняется, тип обслуживания - только в пустом проекте.
func (s *ProjectService) Update(ctx context.Context, id uint64, payload dto.UpdateProjectDTO) (*dto.ProjectDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	project, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if payload.Address.Valid && strings.TrimSpace(payload.Address.String) != project.Address {
		return nil, errAddressImmutable()
	}

	if payload.ServiceType.Valid && constants.ServiceType(payload.ServiceType.String) != project.ServiceType {
		count, err := s.projectRepo.CountEmployees(ctx, id, false)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errServiceTypeLocked()
		}
		project.ServiceType = constants.ServiceType(payload.ServiceType.String)
	}
	if payload.Name.Valid {
		project.Name = strings.TrimSpace(payload.Name.String)
	}
	if payload.CutoffTime.Valid {
		if payload.CutoffTime.String == "" {
			project.CutoffTime = nil
		} else {
			cutoff := payload.CutoffTime.String
			project.CutoffTime = &cutoff
		}
	}
	if payload.CompensationLimit.Valid {
		project.CompensationLimit = payload.CompensationLimit.Int64
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, notFound(err, "Проект не найден")
	}
	return s.GetByID(ctx, id)
}

func (s *ProjectService) Delete(ctx context.Context, id uint64) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if _, err := s.load(ctx, p, id); err != nil {
		return err
	}
	count, err := s.projectRepo.CountEmployees(ctx, id, true)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflictError(CodeProjectHasEmployees, "В проекте есть активные сотрудники").
			WithDetails(map[string]interface{}{"active_employees": count})
	}
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return notFound(err, "Проект не найден")
	}
	s.logger.Info("Проект удалён", zap.Uint64("id", id))
	return nil
}
