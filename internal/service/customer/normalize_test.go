package customer

import (
	"testing"
	"time"

	"retention-service/internal/domain/agency"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var granAuto = agency.Agency{
	Name:   "Gran Auto",
	Source: agency.SourceBigQuery,
	Mapping: agency.FieldMapping{
		Model:       "Modelo",
		InvoiceName: "NOMBRE_FAC",
		Agency:      "AGENCI",
		LastVisit:   "ULT_VISITA",
	},
}

func TestNormalize_MapsFields(t *testing.T) {
	rows := []Row{{
		"SERIE":          "3G1TA5AF0CL123456",
		"Modelo":         "Aveo",
		"NOMBRE_FAC":     "Juan Perez",
		"CONTACTO":       "Juan",
		"AGENCI":         "  Gran Auto Centro ",
		"CELULAR":        float64(521810000000),
		"TELEFONO":       "8112345678",
		"PAQUETE":        "Oro",
		"ORDEN":          "1542",
		"TOTAL":          float64(3500.5),
		"NOMBRE_ASESOR":  "Luis",
		"ANIO_VIN":       "2020",
		"ULT_VISITA":     "05/03/2024",
		"DIAS_SIN_VENIR": "42",
	}}

	out := Normalize(rows, granAuto, zap.NewNop())
	require.Len(t, out, 1)
	c := out[0]

	assert.Equal(t, 1, c.ID)
	assert.Equal(t, "3G1TA5AF0CL123456", c.Serial)
	assert.Equal(t, "Aveo", c.Model)
	assert.Equal(t, "Juan Perez", c.InvoiceName)
	assert.Equal(t, "Gran Auto Centro", c.Agency)
	assert.Equal(t, "521810000000", c.Cellphone)
	assert.Equal(t, "8112345678", c.Landline)
	assert.Empty(t, c.Office)
	require.NotNil(t, c.Package)
	assert.Equal(t, "Oro", *c.Package)
	require.NotNil(t, c.OrderNumber)
	assert.Equal(t, 1542.0, *c.OrderNumber)
	require.NotNil(t, c.Total)
	assert.Equal(t, 3500.5, *c.Total)
	assert.Equal(t, "Luis", c.Advisor)
	assert.Equal(t, 2020, c.Year)
	require.NotNil(t, c.LastVisit)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *c.LastVisit)
	assert.Equal(t, 42, c.DaysSinceVisit)
}

func TestNormalize_Fallbacks(t *testing.T) {
	rows := []Row{
		{"MODELO": "Onix", "NOMBRE_FACT": "Maria", "AGENCIA": "Norte", "AnioVeh_": float64(2018)},
		{"SERIE": "X"},
	}
	out := Normalize(rows, granAuto, zap.NewNop())

	assert.Equal(t, "Onix", out[0].Model)
	assert.Equal(t, "Maria", out[0].InvoiceName)
	assert.Equal(t, "Norte", out[0].Agency)
	assert.Equal(t, 2018, out[0].Year)

	assert.Equal(t, 2, out[1].ID)
	assert.Equal(t, "Gran Auto", out[1].Agency)
	assert.Nil(t, out[1].Package)
	assert.Nil(t, out[1].OrderNumber)
	assert.Nil(t, out[1].LastVisit)
	assert.Zero(t, out[1].Year)
	assert.Zero(t, out[1].DaysSinceVisit)
}

func TestNormalize_PackageStates(t *testing.T) {
	rows := []Row{{"PAQUETE": ""}, {"PAQUETE": "null"}, {"PAQUETE": nil}, {}}
	out := Normalize(rows, granAuto, zap.NewNop())

	require.NotNil(t, out[0].Package)
	assert.Equal(t, "", *out[0].Package)
	require.NotNil(t, out[1].Package)
	assert.Equal(t, "null", *out[1].Package)
	assert.Nil(t, out[2].Package)
	assert.Nil(t, out[3].Package)
	for _, c := range out {
		assert.False(t, c.HasPackage())
	}
}

func TestNormalize_Year(t *testing.T) {
	tests := []struct {
		raw  any
		want int
	}{
		{"2019", 2019},
		{"2019.0", 2019},
		{" 2017abc", 2017},
		{"abc", 0},
		{"", 0},
		{float64(2022), 2022},
		{int64(2015), 2015},
	}
	for _, tt := range tests {
		out := Normalize([]Row{{"ANIO_VIN": tt.raw, "AnioVeh_": "1999"}}, granAuto, zap.NewNop())
		assert.Equal(t, tt.want, out[0].Year, "raw %v", tt.raw)
	}
}

func TestNormalize_Days(t *testing.T) {
	tests := []struct {
		raw  any
		want int
	}{
		{"15", 15},
		{float64(15.9), 15},
		{int64(7), 7},
		{"-3", 0},
		{"abc", 0},
		{nil, 0},
		{"", 0},
		{"1e6", 1000000},
		{float64(1e20), 0},
		{"9.3e18", 0},
	}
	for _, tt := range tests {
		out := Normalize([]Row{{"DIAS_SIN_VENIR": tt.raw}}, granAuto, zap.NewNop())
		assert.Equal(t, tt.want, out[0].DaysSinceVisit, "raw %v", tt.raw)
	}
}

func TestParseDate(t *testing.T) {
	native := time.Date(2024, 2, 1, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		raw  any
		want *time.Time
	}{
		{"31/12/2023", date(2023, 12, 31)},
		{"1/2/2024", date(2024, 2, 1)},
		{"2024-02-01", date(2024, 2, 1)},
		{"2024-02-01T10:30:00Z", &native},
		{"2024-02-01 10:30:00", &native},
		{native, &native},
		{"31/12", nil},
		{"aa/bb/cccc", nil},
		{"not a date", nil},
		{"2024-13-45", nil},
		{float64(45000), nil},
		{time.Time{}, nil},
	}
	for _, tt := range tests {
		got := parseDate(tt.raw)
		if tt.want == nil {
			assert.Nil(t, got, "raw %v", tt.raw)
			continue
		}
		require.NotNil(t, got, "raw %v", tt.raw)
		assert.True(t, tt.want.Equal(*got), "raw %v: got %v", tt.raw, got)
	}
}

func TestNormalize_LastVisitColumnPerAgency(t *testing.T) {
	gasme := agency.Agency{Name: "Gasme", Mapping: agency.FieldMapping{LastVisit: "FECHA_FAC"}}
	out := Normalize([]Row{{"FECHA_FAC": "2024-05-06", "ULT_VISITA": "01/01/2020"}}, gasme, zap.NewNop())

	require.NotNil(t, out[0].LastVisit)
	assert.Equal(t, 2024, out[0].LastVisit.Year())
}
