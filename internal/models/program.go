package models

import "time"

// Program is a promotional campaign with its own prize pool and number range.
type Program struct {
	ID           string     `db:"id" json:"id"`
	Code         string     `db:"code" json:"code"`
	Name         string     `db:"name" json:"name"`
	Description  string     `db:"description" json:"description"`
	NumberFrom   int64      `db:"number_from" json:"numberFrom"`
	NumberTo     int64      `db:"number_to" json:"numberTo"`
	ExtraNumbers string     `db:"extra_numbers" json:"extraNumbers"`
	StartAt      *time.Time `db:"start_at" json:"startAt,omitempty"`
	EndAt        *time.Time `db:"end_at" json:"endAt,omitempty"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// ProgramFilter captures list parameters for programs.
type ProgramFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Prize is one entry of a program's prize pool.
type Prize struct {
	ID        string `db:"id" json:"id"`
	ProgramID string `db:"program_id" json:"programId"`
	Code      string `db:"code" json:"code"`
	Name      string `db:"name" json:"name"`
	Quantity  int    `db:"quantity" json:"quantity"`
	Position  int    `db:"position" json:"position"`
}
