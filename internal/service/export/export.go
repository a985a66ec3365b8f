// internal/service/export/export.go
package export

import (
	"fmt"
	"io"
	"time"

	"retention-service/internal/domain/customer"
	customersvc "retention-service/internal/service/customer"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	SheetName   = "Clientes"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var Headers = []string{
	"ID", "Serie", "Modelo", "Año", "Nombre Factura", "Contacto",
	"Número de Contacto", "Celular", "Teléfono", "Oficina", "Agencia",
	"Paquete", "Orden", "Total", "Asesor", "Última Visita", "Días sin Venir",
}

type ExportService struct {
	logger *zap.Logger
}

func NewExportService(logger *zap.Logger) *ExportService {
	return &ExportService{logger: logger}
}

// FileName builds the download name for an agency export.
func FileName(agencyName string, at time.Time) string {
	return fmt.Sprintf("clientes_%s_%s.xlsx", agencyName, at.Format("20060102_150405"))
}

// WriteXLSX writes one sheet with a header row followed by rows in order.
func (s *ExportService) WriteXLSX(w io.Writer, rows []customer.Customer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, rowValues(&rows[i])); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Debug("xlsx export written", zap.Int("rows", len(rows)))
	return nil
}

func rowValues(c *customer.Customer) []any {
	var pkg, order, total, lastVisit any
	if c.Package != nil {
		pkg = *c.Package
	}
	if c.OrderNumber != nil {
		order = *c.OrderNumber
	}
	if c.Total != nil {
		total = *c.Total
	}
	if c.LastVisit != nil {
		lastVisit = c.LastVisit.Format("02/01/2006")
	}
	var year any
	if c.Year > 0 {
		year = c.Year
	}

	return []any{
		c.ID,
		c.Serial,
		c.Model,
		year,
		c.InvoiceName,
		c.Contact,
		customersvc.ContactNumber(c),
		c.Cellphone,
		c.Landline,
		c.Office,
		c.Agency,
		pkg,
		order,
		total,
		c.Advisor,
		lastVisit,
		c.DaysSinceVisit,
	}
}
