// Package query filters, sorts and paginates draw history records in memory
// and derives the summary counters shown next to the history tables.
package query

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Apply runs the record set through tab partition, date range, text/program/prize
// filters, sort and pagination, in that order. It never fails: malformed dates
// and numbers degrade instead of aborting.
func Apply(records []Record, c Criteria) Result {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	winners := c.Tab == TabWinners

	base := make([]Record, 0, len(records))
	for _, r := range records {
		if winners && !r.IsWinner() {
			continue
		}
		base = append(base, r)
	}

	needle := strings.ToLower(strings.TrimSpace(c.Query))
	filtered := make([]Record, 0, len(base))
	for _, r := range base {
		if !inDateRange(r, c.From, c.To, winners, loc) {
			continue
		}
		if !matchesText(r, needle) {
			continue
		}
		if !matchesProgram(r, c.Program) {
			continue
		}
		if winners && c.Prize != "" && r.PrizeName != c.Prize {
			continue
		}
		filtered = append(filtered, r)
	}

	SortRecords(filtered, c.Sort, loc)

	page := Paginate(len(filtered), c.Page, c.PageSize)
	visible := make([]Record, page.End-page.Start)
	copy(visible, filtered[page.Start:page.End])

	return Result{
		Visible:       visible,
		TotalFiltered: len(filtered),
		TotalAll:      len(base),
		Page:          page.Number,
		MaxPage:       page.Max,
		PageSize:      page.Size,
		Prizes:        PrizeSummary(filtered),
	}
}

// CalendarDate renders a raw timestamp as YYYY-MM-DD in loc.
func CalendarDate(raw string, loc *time.Location) (string, bool) {
	t, ok := ParseTimestamp(raw, loc)
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func inDateRange(r Record, from, to string, winners bool, loc *time.Location) bool {
	if from == "" && to == "" {
		return true
	}
	raw := r.DrawnAt
	if winners {
		raw = r.WonAt
	}
	date, ok := CalendarDate(raw, loc)
	if !ok {
		return false
	}
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

func matchesText(r Record, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.searchText()), needle)
}

// Upstream rows are inconsistent about which of code/name they carry, so both are accepted.
func matchesProgram(r Record, program string) bool {
	if program == "" {
		return true
	}
	return r.ProgramCode == program || r.ProgramName == program
}

// PrizeSummary counts wins per prize, highest count first.
func PrizeSummary(records []Record) []PrizeCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range records {
		if !r.IsWinner() || r.PrizeName == "" {
			continue
		}
		if _, seen := counts[r.PrizeName]; !seen {
			order = append(order, r.PrizeName)
		}
		counts[r.PrizeName]++
	}
	result := make([]PrizeCount, 0, len(order))
	for _, name := range order {
		result = append(result, PrizeCount{Prize: name, Count: counts[name]})
	}
	col := newCollator()
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return col.CompareString(result[i].Prize, result[j].Prize) < 0
	})
	return result
}

func newCollator() *collate.Collator {
	return collate.New(language.Vietnamese)
}
