package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Soft deletion is expressed through the
// status column, there is no separate deleted_at marker on enrollments.
const (
	EnrollmentStatusActive  EnrollmentStatus = "ACTIVE"
	EnrollmentStatusDeleted EnrollmentStatus = "DELETED"
)

// Enrollment captures a student's registration into a cycle/career/admission
// offering together with its billing economics.
type Enrollment struct {
	ID          string `db:"id" json:"id"`
	StudentID   string `db:"student_id" json:"student_id"`
	CycleID     string `db:"cycle_id" json:"cycle_id"`
	CareerID    string `db:"career_id" json:"career_id"`
	AdmissionID string `db:"admission_id" json:"admission_id"`

	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Modality  string    `db:"modality" json:"modality"`
	Shift     string    `db:"shift" json:"shift"`

	TotalCost       decimal.Decimal `db:"total_cost" json:"total_cost"`
	Discounts       decimal.Decimal `db:"discounts" json:"discounts"`
	InitialPayment  decimal.Decimal `db:"initial_payment" json:"initial_payment"`
	CarnetCost      decimal.Decimal `db:"carnet_cost" json:"carnet_cost"`
	CarnetPrepaid   bool            `db:"carnet_prepaid" json:"carnet_prepaid"`
	Credit          bool            `db:"credit" json:"credit"`
	NumInstallments int             `db:"num_installments" json:"num_installments"`

	Code   *string          `db:"code" json:"code,omitempty"`
	Status EnrollmentStatus `db:"status" json:"status"`
	Notes  *string          `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with collaborator names.
type EnrollmentDetail struct {
	Enrollment
	StudentFirstName string `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string `db:"student_last_name" json:"student_last_name"`
	CycleName        string `db:"cycle_name" json:"cycle_name"`
	CareerName       string `db:"career_name" json:"career_name"`
	AreaName         string `db:"area_name" json:"area_name"`
	AdmissionName    string `db:"admission_name" json:"admission_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID   string
	CycleID     string
	CareerID    string
	AdmissionID string
	Status      EnrollmentStatus
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// EnrollmentPatch carries administrative updates to a persisted enrollment.
// Billing economics are immutable after creation; only descriptive fields
// can change.
type EnrollmentPatch struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Modality  *string    `json:"modality,omitempty"`
	Shift     *string    `json:"shift,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}
