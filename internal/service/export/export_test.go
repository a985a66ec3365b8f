package export

import (
	"bytes"
	"testing"
	"time"

	"retention-service/internal/domain/customer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestWriteXLSX(t *testing.T) {
	visit := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	pkg := "ORO"
	rows := []customer.Customer{
		{ID: 1, Serial: "ABC123", Model: "Aveo", Year: 2019, InvoiceName: "Ana", Cellphone: "5.512345678E9", Agency: "Centro", Package: &pkg, LastVisit: &visit, DaysSinceVisit: 10},
		{ID: 2, Serial: "XYZ789", Model: "Spark", Agency: "Norte", DaysSinceVisit: 500},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExportService(zap.NewNop()).WriteXLSX(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Headers, got[0])

	assert.Equal(t, "ABC123", got[1][1])
	assert.Equal(t, "2019", got[1][3])
	assert.Equal(t, "+5512345678", got[1][6])
	assert.Equal(t, "ORO", got[1][11])
	assert.Equal(t, "09/03/2024", got[1][15])

	assert.Equal(t, "XYZ789", got[2][1])
	assert.Equal(t, "-", got[2][6])
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExportService(zap.NewNop()).WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "clientes_Gasme_20240102_150405.xlsx", FileName("Gasme", at))
}
