package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortRecordsVietnameseCollation(t *testing.T) {
	records := []Record{
		{ID: "1", SubjectName: "Đào"},
		{ID: "2", SubjectName: "Bình"},
		{ID: "3", SubjectName: "an"},
		{ID: "4", SubjectName: "Dũng"},
	}

	SortRecords(records, Sort{Key: SortSubjectName, Direction: Asc}, time.UTC)

	assert.Equal(t, []string{"3", "2", "4", "1"}, ids(records))
}

func TestSortRecordsTimestampsTreatMissingAsEpochZero(t *testing.T) {
	records := []Record{
		{ID: "new", WonAt: "2024-03-01T00:00:00Z"},
		{ID: "none"},
		{ID: "old", WonAt: "2024-01-01 08:00:00+07"},
		{ID: "broken", WonAt: "yesterday"},
	}

	SortRecords(records, Sort{Key: SortWonAt, Direction: Asc}, time.UTC)
	assert.Equal(t, []string{"none", "broken", "old", "new"}, ids(records))

	SortRecords(records, Sort{Key: SortWonAt, Direction: Desc}, time.UTC)
	assert.Equal(t, []string{"new", "old", "none", "broken"}, ids(records))
}

func TestSortRecordsIsStable(t *testing.T) {
	records := []Record{
		{ID: "a", PrizeName: "Voucher"},
		{ID: "b", PrizeName: "Jackpot"},
		{ID: "c", PrizeName: "Voucher"},
		{ID: "d", PrizeName: ""},
		{ID: "e", PrizeName: "Jackpot"},
	}
	asc := Sort{Key: SortPrizeName, Direction: Asc}

	SortRecords(records, asc, time.UTC)
	first := ids(records)
	assert.Equal(t, []string{"d", "b", "e", "a", "c"}, first)

	SortRecords(records, asc, time.UTC)
	assert.Equal(t, first, ids(records))

	toggled := asc.Toggle(SortPrizeName)
	SortRecords(records, toggled, time.UTC)
	assert.Equal(t, []string{"a", "c", "b", "e", "d"}, ids(records))

	SortRecords(records, toggled.Toggle(SortPrizeName), time.UTC)
	assert.Equal(t, first, ids(records))
}

func TestSortRecordsWithoutKeyKeepsOrder(t *testing.T) {
	records := []Record{{ID: "z"}, {ID: "a"}}

	SortRecords(records, Sort{}, time.UTC)
	SortRecords(records, Sort{Key: "unknown"}, time.UTC)

	assert.Equal(t, []string{"z", "a"}, ids(records))
}

func TestSortToggle(t *testing.T) {
	s := Sort{Key: SortDrawnAt, Direction: Desc}

	s = s.Toggle(SortDrawnAt)
	assert.Equal(t, Sort{Key: SortDrawnAt, Direction: Asc}, s)

	s = s.Toggle(SortSubjectName)
	assert.Equal(t, Sort{Key: SortSubjectName, Direction: Asc}, s)

	s = s.Toggle(SortSubjectName)
	assert.Equal(t, Sort{Key: SortSubjectName, Direction: Desc}, s)

	s = s.Toggle(SortWonAt)
	assert.Equal(t, Sort{Key: SortWonAt, Direction: Desc}, s)
}

func TestParseHelpers(t *testing.T) {
	key, ok := ParseSortKey(" prizeName ")
	assert.True(t, ok)
	assert.Equal(t, SortPrizeName, key)

	_, ok = ParseSortKey("password")
	assert.False(t, ok)

	assert.Equal(t, TabWinners, ParseTab("Winners"))
	assert.Equal(t, TabParticipants, ParseTab("anything"))
	assert.Equal(t, Desc, ParseDirection("DESC"))
	assert.Equal(t, Direction(""), ParseDirection("sideways"))
}

func TestParseTimestampLayouts(t *testing.T) {
	ict := time.FixedZone("ICT", 7*60*60)

	cases := map[string]string{
		"2024-05-01T23:30:00Z":          "2024-05-02",
		"2024-05-01T10:00:00.123+07:00": "2024-05-01",
		"2024-05-01 10:00:00+07":        "2024-05-01",
		"2024-05-01 10:00:00":           "2024-05-01",
		"2024-05-01":                    "2024-05-01",
	}
	for raw, want := range cases {
		got, ok := CalendarDate(raw, ict)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := CalendarDate("01/05/2024", ict)
	assert.False(t, ok)
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		name               string
		total, page, size  int
		wantPage, wantMax  int
		wantStart, wantEnd int
	}{
		{name: "first page", total: 30, page: 1, size: 10, wantPage: 1, wantMax: 3, wantStart: 0, wantEnd: 10},
		{name: "partial last page", total: 25, page: 3, size: 10, wantPage: 3, wantMax: 3, wantStart: 20, wantEnd: 25},
		{name: "beyond last page", total: 25, page: 999, size: 10, wantPage: 3, wantMax: 3, wantStart: 20, wantEnd: 25},
		{name: "empty result", total: 0, page: 4, size: 10, wantPage: 1, wantMax: 1, wantStart: 0, wantEnd: 0},
		{name: "default size", total: 11, page: 2, size: 0, wantPage: 2, wantMax: 2, wantStart: 10, wantEnd: 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Paginate(tc.total, tc.page, tc.size)
			assert.Equal(t, tc.wantPage, p.Number)
			assert.Equal(t, tc.wantMax, p.Max)
			assert.Equal(t, tc.wantStart, p.Start)
			assert.Equal(t, tc.wantEnd, p.End)
		})
	}
}
