package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type tutorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
	List(ctx context.Context) ([]models.Tutor, error)
	Create(ctx context.Context, tutor *models.Tutor) error
	Update(ctx context.Context, tutor *models.Tutor) error
	SoftDelete(ctx context.Context, id string) error
}

// TutorRequest carries tutor create/update payloads.
type TutorRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Address   *string `json:"address,omitempty"`
}

// TutorService manages guardian master data.
type TutorService struct {
	repo     tutorRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTutorService wires the tutor dependencies.
func NewTutorService(repo tutorRepository, logger *zap.Logger) *TutorService {
	return &TutorService{repo: repo, validate: validator.New(), logger: logger}
}

// Create registers a tutor.
func (s *TutorService) Create(ctx context.Context, req TutorRequest) (*models.Tutor, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tutor payload")
	}
	tutor := &models.Tutor{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
	}
	if err := s.repo.Create(ctx, tutor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist tutor")
	}
	return tutor, nil
}

// Find returns a tutor by ID.
func (s *TutorService) Find(ctx context.Context, id string) (*models.Tutor, error) {
	tutor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load tutor")
	}
	return tutor, nil
}

// List returns all tutors.
func (s *TutorService) List(ctx context.Context) ([]models.Tutor, error) {
	tutors, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list tutors")
	}
	return tutors, nil
}

// Update replaces the mutable fields of a tutor.
func (s *TutorService) Update(ctx context.Context, id string, req TutorRequest) (*models.Tutor, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tutor payload")
	}
	tutor, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	tutor.FirstName = req.FirstName
	tutor.LastName = req.LastName
	tutor.Phone = req.Phone
	tutor.Email = req.Email
	tutor.Address = req.Address
	if err := s.repo.Update(ctx, tutor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update tutor")
	}
	return tutor, nil
}

// Remove soft-deletes a tutor.
func (s *TutorService) Remove(ctx context.Context, id string) error {
	if _, err := s.Find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete tutor")
	}
	return nil
}
