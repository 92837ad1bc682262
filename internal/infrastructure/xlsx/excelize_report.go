// Package xlsx genera el reporte mensual de ventas por sucursal como planilla Excel.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
)

// ExcelizeReportRenderer implementa ports.ReportRenderer con excelize.
type ExcelizeReportRenderer struct{}

// NewExcelizeReportRenderer construye el renderizador.
func NewExcelizeReportRenderer() *ExcelizeReportRenderer { return &ExcelizeReportRenderer{} }

var _ ports.ReportRenderer = (*ExcelizeReportRenderer)(nil)

func (r *ExcelizeReportRenderer) Format() string { return "xlsx" }
func (r *ExcelizeReportRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Render escribe una hoja con una fila por sucursal y una fila final de totales.
// Los montos van como número con dos decimales para que la planilla pueda sumarlos.
func (r *ExcelizeReportRenderer) Render(report dto.MonthlyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := fmt.Sprintf("Ventas %04d-%02d", report.Year, report.Month)
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return nil, fmt.Errorf("xlsx: nombre de hoja: %w", err)
	}

	header := []interface{}{"Sucursal ID", "Sucursal", "Año", "Mes", "Ventas", "Total", "Cerrado"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: encabezado: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "G1", bold); err != nil {
		return nil, fmt.Errorf("xlsx: estilo encabezado: %w", err)
	}

	row := 2
	for _, rr := range report.Rows {
		closed := "No"
		if rr.IsClosed {
			closed = "Sí"
		}
		values := []interface{}{rr.BranchID, rr.BranchName, rr.Year, rr.Month, rr.SalesCount, rr.TotalAmount.InexactFloat64(), closed}
		if err := setRow(f, sheet, row, values); err != nil {
			return nil, err
		}
		row++
	}

	totals := []interface{}{"", "TOTAL", report.Year, report.Month, report.TotalCount, report.TotalAmount.InexactFloat64(), ""}
	if err := setRow(f, sheet, row, totals); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "F2", fmt.Sprintf("F%d", row), money); err != nil {
		return nil, fmt.Errorf("xlsx: estilo montos: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "B", 28); err != nil {
		return nil, fmt.Errorf("xlsx: ancho de columnas: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: celda: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: fila %d: %w", row, err)
	}
	return nil
}
