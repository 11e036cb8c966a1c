package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type areaRepository interface {
	FindByID(ctx context.Context, id string) (*models.Area, error)
	List(ctx context.Context) ([]models.Area, error)
	Create(ctx context.Context, area *models.Area) error
	Update(ctx context.Context, area *models.Area) error
	SoftDelete(ctx context.Context, id string) error
}

type careerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Career, error)
	FindDetailByID(ctx context.Context, id string) (*models.CareerDetail, error)
	List(ctx context.Context) ([]models.CareerDetail, error)
	Create(ctx context.Context, career *models.Career) error
	Update(ctx context.Context, career *models.Career) error
	SoftDelete(ctx context.Context, id string) error
}

type cycleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Cycle, error)
	List(ctx context.Context) ([]models.Cycle, error)
	Create(ctx context.Context, cycle *models.Cycle) error
	Update(ctx context.Context, cycle *models.Cycle) error
	SoftDelete(ctx context.Context, id string) error
}

type admissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Admission, error)
	List(ctx context.Context) ([]models.Admission, error)
	Create(ctx context.Context, admission *models.Admission) error
	Update(ctx context.Context, admission *models.Admission) error
	SoftDelete(ctx context.Context, id string) error
}

// NamedRequest carries the single-name payload shared by areas and
// admissions.
type NamedRequest struct {
	Name string `json:"name" validate:"required"`
}

// CareerRequest carries career create/update payloads.
type CareerRequest struct {
	Name   string `json:"name" validate:"required"`
	AreaID string `json:"area_id" validate:"required"`
}

// CycleRequest carries cycle create/update payloads.
type CycleRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// CatalogService manages the academic catalog: areas, careers, cycles and
// admission campaigns.
type CatalogService struct {
	areas      areaRepository
	careers    careerRepository
	cycles     cycleRepository
	admissions admissionRepository
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewCatalogService wires the catalog dependencies.
func NewCatalogService(areas areaRepository, careers careerRepository, cycles cycleRepository, admissions admissionRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		areas:      areas,
		careers:    careers,
		cycles:     cycles,
		admissions: admissions,
		validate:   validator.New(),
		logger:     logger,
	}
}

func notFoundOr(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load "+entity)
}

// Areas.

func (s *CatalogService) CreateArea(ctx context.Context, req NamedRequest) (*models.Area, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid area payload")
	}
	area := &models.Area{Name: req.Name}
	if err := s.areas.Create(ctx, area); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist area")
	}
	return area, nil
}

func (s *CatalogService) FindArea(ctx context.Context, id string) (*models.Area, error) {
	area, err := s.areas.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "area")
	}
	return area, nil
}

func (s *CatalogService) ListAreas(ctx context.Context) ([]models.Area, error) {
	areas, err := s.areas.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list areas")
	}
	return areas, nil
}

func (s *CatalogService) UpdateArea(ctx context.Context, id string, req NamedRequest) (*models.Area, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid area payload")
	}
	area, err := s.FindArea(ctx, id)
	if err != nil {
		return nil, err
	}
	area.Name = req.Name
	if err := s.areas.Update(ctx, area); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update area")
	}
	return area, nil
}

func (s *CatalogService) RemoveArea(ctx context.Context, id string) error {
	if _, err := s.FindArea(ctx, id); err != nil {
		return err
	}
	if err := s.areas.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete area")
	}
	return nil
}

// Careers.

func (s *CatalogService) CreateCareer(ctx context.Context, req CareerRequest) (*models.CareerDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid career payload")
	}
	area, err := s.FindArea(ctx, req.AreaID)
	if err != nil {
		return nil, err
	}
	career := &models.Career{Name: req.Name, AreaID: req.AreaID}
	if err := s.careers.Create(ctx, career); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist career")
	}
	return &models.CareerDetail{Career: *career, AreaName: area.Name}, nil
}

func (s *CatalogService) FindCareer(ctx context.Context, id string) (*models.CareerDetail, error) {
	career, err := s.careers.FindDetailByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "career")
	}
	return career, nil
}

func (s *CatalogService) ListCareers(ctx context.Context) ([]models.CareerDetail, error) {
	careers, err := s.careers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list careers")
	}
	return careers, nil
}

func (s *CatalogService) UpdateCareer(ctx context.Context, id string, req CareerRequest) (*models.CareerDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid career payload")
	}
	career, err := s.careers.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "career")
	}
	if _, err := s.FindArea(ctx, req.AreaID); err != nil {
		return nil, err
	}
	career.Name = req.Name
	career.AreaID = req.AreaID
	if err := s.careers.Update(ctx, career); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update career")
	}
	return s.FindCareer(ctx, id)
}

func (s *CatalogService) RemoveCareer(ctx context.Context, id string) error {
	if _, err := s.careers.FindByID(ctx, id); err != nil {
		return notFoundOr(err, "career")
	}
	if err := s.careers.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete career")
	}
	return nil
}

// Cycles.

func (s *CatalogService) CreateCycle(ctx context.Context, req CycleRequest) (*models.Cycle, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cycle payload")
	}
	cycle := &models.Cycle{Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate}
	if err := s.cycles.Create(ctx, cycle); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist cycle")
	}
	return cycle, nil
}

func (s *CatalogService) FindCycle(ctx context.Context, id string) (*models.Cycle, error) {
	cycle, err := s.cycles.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "cycle")
	}
	return cycle, nil
}

func (s *CatalogService) ListCycles(ctx context.Context) ([]models.Cycle, error) {
	cycles, err := s.cycles.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list cycles")
	}
	return cycles, nil
}

func (s *CatalogService) UpdateCycle(ctx context.Context, id string, req CycleRequest) (*models.Cycle, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cycle payload")
	}
	cycle, err := s.FindCycle(ctx, id)
	if err != nil {
		return nil, err
	}
	cycle.Name = req.Name
	cycle.StartDate = req.StartDate
	cycle.EndDate = req.EndDate
	if err := s.cycles.Update(ctx, cycle); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update cycle")
	}
	return cycle, nil
}

func (s *CatalogService) RemoveCycle(ctx context.Context, id string) error {
	if _, err := s.FindCycle(ctx, id); err != nil {
		return err
	}
	if err := s.cycles.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete cycle")
	}
	return nil
}

// Admissions.

func (s *CatalogService) CreateAdmission(ctx context.Context, req NamedRequest) (*models.Admission, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}
	admission := &models.Admission{Name: req.Name}
	if err := s.admissions.Create(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist admission")
	}
	return admission, nil
}

func (s *CatalogService) FindAdmission(ctx context.Context, id string) (*models.Admission, error) {
	admission, err := s.admissions.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "admission")
	}
	return admission, nil
}

func (s *CatalogService) ListAdmissions(ctx context.Context) ([]models.Admission, error) {
	admissions, err := s.admissions.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list admissions")
	}
	return admissions, nil
}

func (s *CatalogService) UpdateAdmission(ctx context.Context, id string, req NamedRequest) (*models.Admission, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}
	admission, err := s.FindAdmission(ctx, id)
	if err != nil {
		return nil, err
	}
	admission.Name = req.Name
	if err := s.admissions.Update(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update admission")
	}
	return admission, nil
}

func (s *CatalogService) RemoveAdmission(ctx context.Context, id string) error {
	if _, err := s.FindAdmission(ctx, id); err != nil {
		return err
	}
	if err := s.admissions.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete admission")
	}
	return nil
}
