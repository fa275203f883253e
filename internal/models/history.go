package models

import (
	"fmt"
	"strings"
)

// HistoryFilter is the first-pass narrowing pushed down to the database.
// Date range, sort and paging are applied in memory afterwards.
type HistoryFilter struct {
	Query       string
	Program     string
	Prize       string
	WinnersOnly bool
}

// CacheKey identifies the record set produced by the filter. Program and prize
// match exactly, so only the free-text query is case folded.
func (f HistoryFilter) CacheKey() string {
	scope := "all"
	if f.WinnersOnly {
		scope = "winners"
	}
	return fmt.Sprintf("history:%s:%s:%s:%s",
		scope,
		strings.TrimSpace(f.Program),
		strings.TrimSpace(f.Prize),
		strings.ToLower(strings.TrimSpace(f.Query)),
	)
}
