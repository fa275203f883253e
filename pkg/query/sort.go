package query

import (
	"sort"
	"strings"
	"time"
)

var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339, Postgres text output and bare dates.
// Zone-less values are read in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func epochMillis(raw string, loc *time.Location) int64 {
	t, ok := ParseTimestamp(raw, loc)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

func stringField(r Record, key SortKey) string {
	switch key {
	case SortID:
		return r.ID
	case SortSubjectName:
		return r.SubjectName
	case SortSubjectPhone:
		return r.SubjectPhone
	case SortProgramName:
		return r.ProgramName
	case SortProgramCode:
		return r.ProgramCode
	case SortPrizeName:
		return r.PrizeName
	default:
		return ""
	}
}

type sortItem struct {
	record Record
	epoch  int64
	text   string
}

// SortRecords orders records in place, stably. An empty key keeps the input order.
func SortRecords(records []Record, s Sort, loc *time.Location) {
	if s.Key == "" || len(records) < 2 {
		return
	}
	if _, ok := sortKeys[s.Key]; !ok {
		return
	}
	sign := 1
	if s.direction() == Desc {
		sign = -1
	}

	items := make([]sortItem, len(records))
	for i, r := range records {
		items[i].record = r
		switch s.Key {
		case SortDrawnAt:
			items[i].epoch = epochMillis(r.DrawnAt, loc)
		case SortWonAt:
			items[i].epoch = epochMillis(r.WonAt, loc)
		default:
			items[i].text = stringField(r, s.Key)
		}
	}

	if s.Key.IsTimestamp() {
		sort.SliceStable(items, func(i, j int) bool {
			return sign*compareInt(items[i].epoch, items[j].epoch) < 0
		})
	} else {
		col := newCollator()
		sort.SliceStable(items, func(i, j int) bool {
			return sign*col.CompareString(items[i].text, items[j].text) < 0
		})
	}

	for i := range items {
		records[i] = items[i].record
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Page describes the slice of a filtered result that is visible.
type Page struct {
	Number int
	Size   int
	Max    int
	Start  int
	End    int
}

// Paginate clamps the requested page into [1, maxPage] and computes slice bounds.
func Paginate(total, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	maxPage := (total + size - 1) / size
	if maxPage < 1 {
		maxPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return Page{Number: page, Size: size, Max: maxPage, Start: start, End: end}
}
