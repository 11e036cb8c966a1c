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

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SoftDelete(ctx context.Context, id string) error
}

type tutorReader interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
}

// StudentRequest carries student create/update payloads.
type StudentRequest struct {
	Code      string     `json:"code" validate:"required"`
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name" validate:"required"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string    `json:"phone,omitempty"`
	Address   *string    `json:"address,omitempty"`
	Gender    string     `json:"gender" validate:"required"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	TutorID   *string    `json:"tutor_id,omitempty"`
}

// StudentService manages student master data.
type StudentService struct {
	repo     studentRepository
	tutors   tutorReader
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStudentService wires the student dependencies.
func NewStudentService(repo studentRepository, tutors tutorReader, logger *zap.Logger) *StudentService {
	return &StudentService{repo: repo, tutors: tutors, validate: validator.New(), logger: logger}
}

func (s *StudentService) checkTutor(ctx context.Context, tutorID *string) error {
	if tutorID == nil || *tutorID == "" {
		return nil
	}
	if _, err := s.tutors.FindByID(ctx, *tutorID); err != nil {
		return collaboratorErr(err, "tutor")
	}
	return nil
}

// Create registers a student.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.checkTutor(ctx, req.TutorID); err != nil {
		return nil, err
	}
	student := &models.Student{
		Code:      req.Code,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Gender:    req.Gender,
		Birthday:  req.Birthday,
		TutorID:   req.TutorID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist student")
	}
	return student, nil
}

// Find returns a student by ID.
func (s *StudentService) Find(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load student")
	}
	return student, nil
}

// List returns students with pagination.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update replaces the mutable fields of a student.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTutor(ctx, req.TutorID); err != nil {
		return nil, err
	}
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Email = req.Email
	student.Phone = req.Phone
	student.Address = req.Address
	student.Gender = req.Gender
	student.Birthday = req.Birthday
	student.TutorID = req.TutorID
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update student")
	}
	return student, nil
}

// Remove soft-deletes a student.
func (s *StudentService) Remove(ctx context.Context, id string) error {
	if _, err := s.Find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete student")
	}
	return nil
}
