package dto

import (
	"time"

	"github.com/noah-isme/luckydraw-admin-api/pkg/extranumber"
)

// ProgramQuery captures GET /programs parameters.
type ProgramQuery struct {
	Search    string `form:"search"`
	Active    *bool  `form:"active"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// CreateProgramRequest is the payload for POST /programs.
type CreateProgramRequest struct {
	Code        string     `json:"code" validate:"required,max=32,alphanumunicode"`
	Name        string     `json:"name" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=2000"`
	NumberFrom  int64      `json:"numberFrom" validate:"gte=0"`
	NumberTo    int64      `json:"numberTo" validate:"gtefield=NumberFrom"`
	StartAt     *time.Time `json:"startAt"`
	EndAt       *time.Time `json:"endAt"`
	Active      *bool      `json:"active"`
}

// UpdateProgramRequest is the payload for PUT /programs/:id.
type UpdateProgramRequest struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=2000"`
	NumberFrom  int64      `json:"numberFrom" validate:"gte=0"`
	NumberTo    int64      `json:"numberTo" validate:"gtefield=NumberFrom"`
	StartAt     *time.Time `json:"startAt"`
	EndAt       *time.Time `json:"endAt"`
	Active      *bool      `json:"active"`
}

// ExtraNumbersRequest replaces the extra number list of a program.
type ExtraNumbersRequest struct {
	Entries []extranumber.Entry `json:"entries"`
}

// ExtraNumbersResponse returns the decoded list alongside the persisted form.
type ExtraNumbersResponse struct {
	ProgramID string              `json:"programId"`
	Raw       string              `json:"raw"`
	Entries   []extranumber.Entry `json:"entries"`
}

// ExtraNumberRemoval describes the row the console wants to drop.
type ExtraNumberRemoval struct {
	Number    string `form:"-"`
	Repeat    int    `form:"repeat"`
	PrizeCode string `form:"prizeCode"`
	Confirm   bool   `form:"confirm"`
}

// ExtraNumberRemovalResult reports whether the removal touched persisted data.
type ExtraNumberRemovalResult struct {
	Remote  bool                `json:"remote"`
	Raw     string              `json:"raw"`
	Entries []extranumber.Entry `json:"entries"`
}
