package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func sampleRecords() []Record {
	return []Record{
		{ID: "r1", ProgramCode: "TET24", ProgramName: "Tết 2024", SubjectName: "Nguyễn Văn An", SubjectPhone: "0901000001", DrawnAt: "2024-01-01T09:00:00Z"},
		{ID: "r2", ProgramCode: "TET24", ProgramName: "Tết 2024", SubjectName: "Trần Thị Bình", SubjectPhone: "0901000002", PrizeName: "Jackpot", DrawnAt: "2024-01-02T09:00:00Z", WonAt: "2024-01-03T10:00:00Z"},
		{ID: "r3", ProgramCode: "SUM24", ProgramName: "Summer", SubjectName: "Lê Văn Cường", SubjectPhone: "0901000003", PrizeName: "Voucher", DrawnAt: "2024-01-03T09:00:00Z", WonAt: "2024-01-04T10:00:00Z", Address: "12 Lê Lợi, Quận 1"},
		{ID: "r4", ProgramCode: "SUM24", ProgramName: "Summer", SubjectName: "Phạm Dũng", SubjectPhone: "0901000004", PrizeName: "Voucher", DrawnAt: "2024-01-04T09:00:00Z", WonAt: "2024-01-05T10:00:00Z", Note: "VIP"},
		{ID: "r5", ProgramCode: "SUM24", ProgramName: "Summer", SubjectName: "Đỗ Hà", SubjectPhone: "0901000005", DrawnAt: "not-a-date"},
	}
}

func TestApplyWinnersScenario(t *testing.T) {
	records := []Record{
		{ID: "a", DrawnAt: "2024-01-01"},
		{ID: "b", DrawnAt: "2024-01-02", WonAt: "2024-01-03", PrizeName: "Jackpot"},
	}

	result := Apply(records, Criteria{Tab: TabWinners, Location: time.UTC})

	assert.Equal(t, []string{"b"}, ids(result.Visible))
	assert.Equal(t, 1, result.TotalFiltered)
	assert.Equal(t, 1, result.TotalAll)
	assert.Equal(t, []PrizeCount{{Prize: "Jackpot", Count: 1}}, result.Prizes)
}

func TestApplyParticipantsKeepsAllRows(t *testing.T) {
	result := Apply(sampleRecords(), Criteria{Tab: TabParticipants, PageSize: 50, Location: time.UTC})

	assert.Equal(t, 5, result.TotalAll)
	assert.Equal(t, 5, result.TotalFiltered)
	assert.Equal(t, []string{"r1", "r2", "r3", "r4", "r5"}, ids(result.Visible))
}

func TestApplyWinnersAreSubsetOfParticipants(t *testing.T) {
	records := sampleRecords()
	participants := Apply(records, Criteria{PageSize: 100, Location: time.UTC})
	winners := Apply(records, Criteria{Tab: TabWinners, PageSize: 100, Location: time.UTC})

	all := make(map[string]struct{})
	for _, r := range participants.Visible {
		all[r.ID] = struct{}{}
	}
	for _, r := range winners.Visible {
		_, ok := all[r.ID]
		assert.True(t, ok, "winner %s missing from participants", r.ID)
	}
	assert.Equal(t, 3, winners.TotalAll)
}

func TestApplyDateRangeInclusive(t *testing.T) {
	records := sampleRecords()

	result := Apply(records, Criteria{From: "2024-01-01", To: "2024-01-03", Location: time.UTC})
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids(result.Visible))

	result = Apply(records, Criteria{From: "2024-01-02", To: "2024-01-02", Location: time.UTC})
	assert.Equal(t, []string{"r2"}, ids(result.Visible))

	result = Apply(records, Criteria{To: "2024-01-01", Location: time.UTC})
	assert.Equal(t, []string{"r1"}, ids(result.Visible))
}

func TestApplyDateRangeComparesWinTimestampInWinnersTab(t *testing.T) {
	result := Apply(sampleRecords(), Criteria{Tab: TabWinners, From: "2024-01-03", To: "2024-01-03", Location: time.UTC})

	assert.Equal(t, []string{"r2"}, ids(result.Visible))
	assert.Equal(t, 3, result.TotalAll)
	assert.Equal(t, 1, result.TotalFiltered)
}

func TestApplyUnparseableTimestamp(t *testing.T) {
	records := []Record{{ID: "bad", DrawnAt: "garbage"}}

	assert.Equal(t, 1, Apply(records, Criteria{Location: time.UTC}).TotalFiltered)
	assert.Equal(t, 0, Apply(records, Criteria{From: "2024-01-01", Location: time.UTC}).TotalFiltered)
	assert.Equal(t, 0, Apply(records, Criteria{To: "2030-01-01", Location: time.UTC}).TotalFiltered)
}

func TestApplyDateUsesViewerLocation(t *testing.T) {
	ict := time.FixedZone("ICT", 7*60*60)
	records := []Record{{ID: "late", DrawnAt: "2024-01-01T20:00:00Z"}}

	assert.Equal(t, 0, Apply(records, Criteria{From: "2024-01-02", Location: time.UTC}).TotalFiltered)
	assert.Equal(t, 1, Apply(records, Criteria{From: "2024-01-02", To: "2024-01-02", Location: ict}).TotalFiltered)
}

func TestApplyFreeTextSearch(t *testing.T) {
	records := sampleRecords()

	cases := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"r1", "r2", "r3", "r4", "r5"}},
		{query: "  BÌNH ", want: []string{"r2"}},
		{query: "0901000003", want: []string{"r3"}},
		{query: "lê lợi", want: []string{"r3"}},
		{query: "vip", want: []string{"r4"}},
		{query: "voucher", want: []string{"r3", "r4"}},
		{query: "sum24", want: []string{"r3", "r4", "r5"}},
		{query: "nobody", want: []string{}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("query %q", tc.query), func(t *testing.T) {
			result := Apply(records, Criteria{Query: tc.query, Location: time.UTC})
			assert.Equal(t, tc.want, ids(result.Visible))
		})
	}
}

func TestApplyProgramMatchesCodeOrName(t *testing.T) {
	records := sampleRecords()

	byCode := Apply(records, Criteria{Program: "TET24", Location: time.UTC})
	byName := Apply(records, Criteria{Program: "Tết 2024", Location: time.UTC})

	assert.Equal(t, []string{"r1", "r2"}, ids(byCode.Visible))
	assert.Equal(t, ids(byCode.Visible), ids(byName.Visible))
	assert.Equal(t, 5, byCode.TotalAll)
}

func TestApplyPrizeFilterOnlyInWinnersTab(t *testing.T) {
	records := sampleRecords()

	participants := Apply(records, Criteria{Prize: "Voucher", Location: time.UTC})
	assert.Equal(t, 5, participants.TotalFiltered)

	winners := Apply(records, Criteria{Tab: TabWinners, Prize: "Voucher", Location: time.UTC})
	assert.Equal(t, []string{"r3", "r4"}, ids(winners.Visible))
	assert.Equal(t, []PrizeCount{{Prize: "Voucher", Count: 2}}, winners.Prizes)
}

func TestApplyPageClamping(t *testing.T) {
	records := make([]Record, 25)
	for i := range records {
		records[i] = Record{ID: fmt.Sprintf("id-%02d", i), DrawnAt: "2024-01-01"}
	}

	result := Apply(records, Criteria{Page: 999, PageSize: 10, Location: time.UTC})
	require.Equal(t, 3, result.MaxPage)
	assert.Equal(t, 3, result.Page)
	assert.Equal(t, []string{"id-20", "id-21", "id-22", "id-23", "id-24"}, ids(result.Visible))

	result = Apply(records, Criteria{Page: -4, PageSize: 10, Location: time.UTC})
	assert.Equal(t, 1, result.Page)
	assert.Len(t, result.Visible, 10)

	result = Apply(records, Criteria{Page: 2, Location: time.UTC})
	assert.Equal(t, DefaultPageSize, result.PageSize)
	assert.Equal(t, "id-10", result.Visible[0].ID)
}

func TestApplyEmptyRecordSet(t *testing.T) {
	result := Apply(nil, Criteria{Page: 5, Tab: TabWinners})

	assert.Empty(t, result.Visible)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 1, result.MaxPage)
	assert.Equal(t, 0, result.TotalAll)
	assert.Empty(t, result.Prizes)
}

func TestApplyTotalsInvariants(t *testing.T) {
	records := sampleRecords()
	criteria := []Criteria{
		{},
		{Tab: TabWinners},
		{Query: "summer", PageSize: 1},
		{From: "2024-01-02", Tab: TabWinners, PageSize: 2, Page: 2},
		{Program: "SUM24", Prize: "Voucher", Tab: TabWinners},
		{To: "2023-01-01"},
	}
	for i, c := range criteria {
		c.Location = time.UTC
		result := Apply(records, c)
		assert.LessOrEqual(t, result.TotalFiltered, result.TotalAll, "case %d", i)
		assert.LessOrEqual(t, result.TotalAll, len(records), "case %d", i)
		assert.LessOrEqual(t, len(result.Visible), result.PageSize, "case %d", i)
		assert.LessOrEqual(t, len(result.Visible), result.TotalFiltered, "case %d", i)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	Apply(records, Criteria{Sort: Sort{Key: SortSubjectName, Direction: Desc}, Location: time.UTC})

	assert.Equal(t, []string{"r1", "r2", "r3", "r4", "r5"}, ids(records))
}

func TestPrizeSummaryOrdersByCount(t *testing.T) {
	records := []Record{
		{ID: "1", PrizeName: "Xe máy", WonAt: "2024-01-01"},
		{ID: "2", PrizeName: "Áo thun", WonAt: "2024-01-01"},
		{ID: "3", PrizeName: "Áo thun", WonAt: "2024-01-01"},
		{ID: "4", PrizeName: "Bình nước", WonAt: "2024-01-01"},
		{ID: "5", PrizeName: "Áo thun"},
		{ID: "6", WonAt: "2024-01-01"},
	}

	summary := PrizeSummary(records)

	assert.Equal(t, []PrizeCount{
		{Prize: "Áo thun", Count: 2},
		{Prize: "Bình nước", Count: 1},
		{Prize: "Xe máy", Count: 1},
	}, summary)
}
