// Package pdf genera el reporte mensual de ventas por sucursal en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + período     │  Fecha de generación         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Sucursal | Ventas | Total | Estado                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: cantidad de ventas / monto total                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// ── Renderer ──────────────────────────────────────────────────────────────────

// MarotoReportRenderer implementa ports.ReportRenderer usando Maroto v2.
type MarotoReportRenderer struct{}

// NewMarotoReportRenderer construye el renderizador.
func NewMarotoReportRenderer() *MarotoReportRenderer { return &MarotoReportRenderer{} }

var _ ports.ReportRenderer = (*MarotoReportRenderer)(nil)

func (r *MarotoReportRenderer) Format() string      { return "pdf" }
func (r *MarotoReportRenderer) ContentType() string { return "application/pdf" }

// Render genera el PDF y devuelve sus bytes.
func (r *MarotoReportRenderer) Render(report dto.MonthlyReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte mensual de ventas", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(report.Rows)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report dto.MonthlyReport) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New("REPORTE MENSUAL DE VENTAS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Período: "+periodLabel(report.Year, report.Month), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Sucursal", 5, align.Left),
		h("Ventas", 2, align.Center),
		h("Total", 3, align.Right),
		h("Estado", 2, align.Center),
	)
}

// tableRows: una fila por sucursal, incluidas las que no vendieron.
func tableRows(rows []dto.MonthlySalesResponse) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		state := "Abierto"
		if r.IsClosed {
			state = "Cerrado"
		}
		result = append(result, row.New(7).Add(
			col.New(5).Add(text.New(r.BranchName, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(strconv.FormatInt(r.SalesCount, 10), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New("$"+formatMoney(r.TotalAmount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(state, props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
	}
	return result
}

func totalsRow(report dto.MonthlyReport) core.Row {
	bold := func(s string, a align.Type) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 10, Align: a, Color: colorPrimary, Top: 2, Right: 1})
	}
	return row.New(10).Add(
		col.New(5).Add(bold("TOTAL", align.Left)),
		col.New(2).Add(bold(strconv.FormatInt(report.TotalCount, 10), align.Center)),
		col.New(3).Add(bold("$"+formatMoney(report.TotalAmount), align.Right)),
		col.New(2),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func periodLabel(year, month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("%02d/%04d", month, year)
	}
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

// formatMoney formatea con puntos de miles y coma decimal a dos cifras.
// Ej: 1234567.5 → "1.234.567,50"
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+4)
	if d.IsNegative() {
		buf = append(buf, '-')
	}
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	buf = append(buf, ',')
	buf = append(buf, frac...)
	return string(buf)
}
