package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"ID", "Name", "Phone"},
		Rows: []map[string]string{
			{"ID": "r1", "Name": "Nguyễn Văn An", "Phone": "090****001"},
			{"ID": "r2", "Name": "Đỗ Hà"},
		},
	}
}

func TestCSVExporter(t *testing.T) {
	data, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "Name", "Phone"},
		{"r1", "Nguyễn Văn An", "090****001"},
		{"r2", "Đỗ Hà", ""},
	}, records)

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestXLSXExporter(t *testing.T) {
	data, err := NewXLSXExporter("History").Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows("History")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Name", "Phone"}, rows[0])
	assert.Equal(t, "Nguyễn Văn An", rows[1][1])
	assert.Equal(t, "r2", rows[2][0])
	assert.Equal(t, "Đỗ Hà", rows[2][1])
}

func TestPDFExporter(t *testing.T) {
	data, err := NewPDFExporter().Render(sampleDataset(), "Lịch sử quay số")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "Nguyen Van Duc", Fold("Nguyễn Văn Đức"))
	assert.Equal(t, "Tet 2024", Fold("Tết 2024"))
	assert.Equal(t, "plain", Fold("plain"))
}
