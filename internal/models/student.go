package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID        string     `db:"id" json:"id"`
	Code      string     `db:"code" json:"code"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Address   *string    `db:"address" json:"address,omitempty"`
	Gender    string     `db:"gender" json:"gender"`
	Birthday  *time.Time `db:"birthday" json:"birthday,omitempty"`
	TutorID   *string    `db:"tutor_id" json:"tutor_id,omitempty"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}
