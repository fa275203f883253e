package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "090****567", MaskPhone("0901234567"))
	assert.Equal(t, "+84******567", MaskPhone(" +84901234567 "))
	assert.Equal(t, "12345", MaskPhone("12345"))
	assert.Equal(t, "", MaskPhone(""))
}

func TestHistoryFilterCacheKey(t *testing.T) {
	a := HistoryFilter{Program: " TET24 ", WinnersOnly: true}
	b := HistoryFilter{Program: "TET24", WinnersOnly: true}

	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), HistoryFilter{Program: "TET24"}.CacheKey())
	assert.NotEqual(t, b.CacheKey(), HistoryFilter{Program: "tet24", WinnersOnly: true}.CacheKey())
	assert.NotEqual(t, HistoryFilter{Prize: "Jackpot", WinnersOnly: true}.CacheKey(), HistoryFilter{Prize: "jackpot", WinnersOnly: true}.CacheKey())
	assert.Equal(t, HistoryFilter{Query: "Bình"}.CacheKey(), HistoryFilter{Query: "bình "}.CacheKey())
	assert.Equal(t, "history:all:::", HistoryFilter{}.CacheKey())
}

func TestExportParamsRoundTrip(t *testing.T) {
	params := ExportParams{Format: ExportFormatXLSX, Tab: "winners", Program: "TET24", MaskPhone: true}

	value, err := params.Value()
	require.NoError(t, err)

	var scanned ExportParams
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, params, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Equal(t, ExportParams{}, scanned)
	assert.Error(t, scanned.Scan(42))
}

func TestExportFormat(t *testing.T) {
	assert.True(t, ExportFormatPDF.Valid())
	assert.False(t, ExportFormat("docx").Valid())
	assert.Equal(t, "application/pdf", ExportFormatPDF.ContentType())
}
