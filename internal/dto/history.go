package dto

import (
	"time"

	"github.com/noah-isme/luckydraw-admin-api/pkg/query"
)

// HistoryQuery captures GET /history parameters. Everything stays textual so malformed input degrades instead of failing binding.
type HistoryQuery struct {
	Query     string `form:"q" json:"q"`
	Program   string `form:"program" json:"program"`
	Prize     string `form:"prize" json:"prize"`
	From      string `form:"from" json:"from"`
	To        string `form:"to" json:"to"`
	Tab       string `form:"tab" json:"tab"`
	SortBy    string `form:"sortBy" json:"sortBy"`
	SortOrder string `form:"sortOrder" json:"sortOrder"`
	Page      string `form:"page" json:"page"`
	PageSize  string `form:"pageSize" json:"pageSize"`
}

// HistoryView is one page of draw history plus its summaries.
type HistoryView struct {
	Tab           query.Tab          `json:"tab"`
	Sort          query.Sort         `json:"sort"`
	Records       []query.Record     `json:"records"`
	Page          int                `json:"page"`
	MaxPage       int                `json:"maxPage"`
	PageSize      int                `json:"pageSize"`
	TotalFiltered int                `json:"totalFiltered"`
	TotalAll      int                `json:"totalAll"`
	Prizes        []query.PrizeCount `json:"prizes"`
	State         *query.ViewState   `json:"state,omitempty"`
}

// ViewPatch captures PATCH /history/view. Absent fields leave the stored state untouched.
type ViewPatch struct {
	Filters  *query.Filters `json:"filters,omitempty"`
	Tab      *string        `json:"tab,omitempty"`
	SortBy   *string        `json:"sortBy,omitempty"`
	PageSize *int           `json:"pageSize,omitempty" validate:"omitempty,gte=1"`
	Page     *int           `json:"page,omitempty"`
	Reset    bool           `json:"reset,omitempty"`
}

// ProgramDashboard summarises participation for one program.
type ProgramDashboard struct {
	ProgramID    string             `json:"programId"`
	ProgramCode  string             `json:"programCode"`
	ProgramName  string             `json:"programName"`
	Participants int                `json:"participants"`
	Winners      int                `json:"winners"`
	TopPrizes    []query.PrizeCount `json:"topPrizes"`
	GeneratedAt  time.Time          `json:"generatedAt"`
}
