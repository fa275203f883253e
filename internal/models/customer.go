package models

import (
	"strings"
	"time"
)

// Customer is a participant registered on a program.
type Customer struct {
	ID          string    `db:"id" json:"id"`
	ProgramID   string    `db:"program_id" json:"programId"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Phone       string    `db:"phone" json:"phone"`
	TicketCount int       `db:"ticket_count" json:"ticketCount"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// CustomerFilter captures list parameters for customers of a program.
type CustomerFilter struct {
	ProgramID string
	Search    string
	Page      int
	PageSize  int
}

// MaskPhone hides the middle digits of a phone number, e.g. 0901234567 -> 090****567.
func MaskPhone(phone string) string {
	runes := []rune(strings.TrimSpace(phone))
	if len(runes) <= 6 {
		return string(runes)
	}
	masked := make([]rune, len(runes))
	for i, r := range runes {
		if i < 3 || i >= len(runes)-3 {
			masked[i] = r
			continue
		}
		masked[i] = '*'
	}
	return string(masked)
}
