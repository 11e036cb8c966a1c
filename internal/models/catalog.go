package models

import "time"

// Area groups careers under one academic area; its name feeds student code
// generation.
type Area struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Career is a program of study belonging to an area.
type Career struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	AreaID    string     `db:"area_id" json:"area_id"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// CareerDetail joins the career with its area name.
type CareerDetail struct {
	Career
	AreaName string `db:"area_name" json:"area_name"`
}

// Cycle is the academic period an enrollment belongs to.
type Cycle struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   time.Time  `db:"end_date" json:"end_date"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Admission is the intake campaign students enter through; its name is part
// of generated student codes.
type Admission struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
