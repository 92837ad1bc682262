package xlsx_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/xlsx"
)

func TestRender_FilasYTotales(t *testing.T) {
	out, err := xlsx.NewExcelizeReportRenderer().Render(dto.MonthlyReport{
		Year: 2026, Month: 3, GeneratedAt: time.Now(),
		Rows: []dto.MonthlySalesResponse{
			{BranchID: "b2", BranchName: "Centro", Year: 2026, Month: 3, TotalAmount: decimal.Zero},
			{BranchID: "b1", BranchName: "Norte", Year: 2026, Month: 3, TotalAmount: decimal.RequireFromString("12.50"), SalesCount: 1, IsClosed: true},
		},
		TotalAmount: decimal.RequireFromString("12.50"),
		TotalCount:  1,
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Ventas 2026-03")
	require.NoError(t, err)
	require.Len(t, rows, 4, "encabezado + 2 sucursales + totales")
	assert.Equal(t, "Sucursal", rows[0][1])
	assert.Equal(t, "Centro", rows[1][1])
	assert.Equal(t, "Sí", rows[2][6])
	assert.Equal(t, "TOTAL", rows[3][1])

	raw, err := f.GetCellValue("Ventas 2026-03", "F3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "12.5", raw)
}
