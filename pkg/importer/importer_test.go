package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	input := "\xEF\xBB\xBFName, Phone ,customer_code,TICKET_COUNT,extra\n" +
		"Nguyễn Văn An,0901000001,C001,3,x\n" +
		",,,\n" +
		"Trần Bình,0901000002,C002\n"

	rows, err := Parse("customers.CSV", strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, Row{Line: 2, Name: "Nguyễn Văn An", Phone: "0901000001", CustomerCode: "C001", TicketCount: "3"}, rows[0])
	assert.Equal(t, Row{Line: 4, Name: "Trần Bình", Phone: "0901000002", CustomerCode: "C002"}, rows[1])
}

func TestParseMissingColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("name,phone\nAn,0901\n"))

	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "customer_code, ticket_count")
}

func TestParseEmpty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse("customers.txt", strings.NewReader("name"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"customer_code", "name", "phone", "ticket_count"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"C009", "Lê Cường", "0901000009", "2"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rows, err := Parse("upload.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, Row{Line: 2, Name: "Lê Cường", Phone: "0901000009", CustomerCode: "C009", TicketCount: "2"}, rows[0])
}
