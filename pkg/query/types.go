package query

import (
	"strings"
	"time"
)

// DefaultPageSize is used whenever a caller asks for a non-positive page size.
const DefaultPageSize = 10

// Record is one participation/win row as served by the platform API.
// Timestamps are kept as raw text because upstream data is not always well formed.
type Record struct {
	ID           string `db:"id" json:"id"`
	ProgramCode  string `db:"program_code" json:"programCode"`
	ProgramName  string `db:"program_name" json:"programName"`
	SubjectName  string `db:"subject_name" json:"subjectName,omitempty"`
	SubjectPhone string `db:"subject_phone" json:"subjectPhone,omitempty"`
	PrizeName    string `db:"prize_name" json:"prizeName,omitempty"`
	DrawnAt      string `db:"drawn_at" json:"drawnAt"`
	WonAt        string `db:"won_at" json:"wonAt,omitempty"`
	Address      string `db:"address" json:"address,omitempty"`
	IDDocument   string `db:"id_document" json:"idDocument,omitempty"`
	Note         string `db:"note" json:"note,omitempty"`
}

// IsWinner reports whether the row carries a win timestamp.
func (r Record) IsWinner() bool {
	return r.WonAt != ""
}

func (r Record) searchText() string {
	return strings.Join([]string{
		r.SubjectName,
		r.SubjectPhone,
		r.ProgramName,
		r.ProgramCode,
		r.PrizeName,
		r.Address,
		r.IDDocument,
		r.Note,
	}, " ")
}

// Tab selects which partition of the record set is displayed.
type Tab string

const (
	TabParticipants Tab = "participants"
	TabWinners      Tab = "winners"
)

// ParseTab maps free text onto a Tab, defaulting to participants.
func ParseTab(raw string) Tab {
	if Tab(strings.ToLower(strings.TrimSpace(raw))) == TabWinners {
		return TabWinners
	}
	return TabParticipants
}

// SortKey names a sortable record field.
type SortKey string

const (
	SortDrawnAt      SortKey = "drawnAt"
	SortWonAt        SortKey = "wonAt"
	SortID           SortKey = "id"
	SortSubjectName  SortKey = "subjectName"
	SortSubjectPhone SortKey = "subjectPhone"
	SortProgramName  SortKey = "programName"
	SortProgramCode  SortKey = "programCode"
	SortPrizeName    SortKey = "prizeName"
)

var sortKeys = map[SortKey]struct{}{
	SortDrawnAt:      {},
	SortWonAt:        {},
	SortID:           {},
	SortSubjectName:  {},
	SortSubjectPhone: {},
	SortProgramName:  {},
	SortProgramCode:  {},
	SortPrizeName:    {},
}

// ParseSortKey returns the key and whether it is one the engine knows how to sort by.
func ParseSortKey(raw string) (SortKey, bool) {
	key := SortKey(strings.TrimSpace(raw))
	_, ok := sortKeys[key]
	return key, ok
}

// IsTimestamp reports whether the key is compared as an epoch value.
func (k SortKey) IsTimestamp() bool {
	return k == SortDrawnAt || k == SortWonAt
}

// Direction is the sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts asc/desc in any case; anything else yields "".
func ParseDirection(raw string) Direction {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case Asc:
		return Asc
	case Desc:
		return Desc
	default:
		return ""
	}
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// DefaultDirection is desc for timestamp keys and asc otherwise.
func DefaultDirection(key SortKey) Direction {
	if key.IsTimestamp() {
		return Desc
	}
	return Asc
}

// Sort is the active sort key and direction.
type Sort struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// Toggle flips the direction when key is already active, otherwise switches
// to key with its default direction.
func (s Sort) Toggle(key SortKey) Sort {
	if key == s.Key {
		return Sort{Key: key, Direction: s.direction().Flip()}
	}
	return Sort{Key: key, Direction: DefaultDirection(key)}
}

func (s Sort) direction() Direction {
	if s.Direction == "" {
		return DefaultDirection(s.Key)
	}
	return s.Direction
}

// Criteria is the full set of view options applied to a record set.
type Criteria struct {
	Query    string
	Program  string
	Prize    string
	From     string
	To       string
	Tab      Tab
	Sort     Sort
	Page     int
	PageSize int
	// Location determines calendar dates for the date range; nil means time.Local.
	Location *time.Location
}

// PrizeCount is one entry of the prize summary.
type PrizeCount struct {
	Prize string `json:"prize"`
	Count int    `json:"count"`
}

// Result is the outcome of Apply.
type Result struct {
	Visible       []Record     `json:"visible"`
	TotalFiltered int          `json:"totalFiltered"`
	TotalAll      int          `json:"totalAll"`
	Page          int          `json:"page"`
	MaxPage       int          `json:"maxPage"`
	PageSize      int          `json:"pageSize"`
	Prizes        []PrizeCount `json:"prizes"`
}
