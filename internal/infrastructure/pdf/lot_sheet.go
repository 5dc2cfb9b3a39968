// Package pdf genera la ficha de trazabilidad de un lote.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Lote + Producto     │  Dictamen + Estado            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: Ingreso / Proveedor / Cantidades / Origen            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  BULTOS: N° | Inicial | Actual | Estado | Trazas             │
//	│  ANÁLISIS: N° | Solicitud | Dictamen | Vencimiento           │
//	│  MOVIMIENTOS: Fecha | Tipo | Motivo | Cantidad | Usuario     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el código del lote + emisión                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/report"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

var _ report.LotSheetGenerator = (*LotSheetGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 92, Blue: 75}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// LotSheetGenerator implementa report.LotSheetGenerator usando Maroto v2.
type LotSheetGenerator struct {
	// Company aparece como autor del documento.
	Company string
}

// NewLotSheetGenerator construye el generador.
func NewLotSheetGenerator(company string) *LotSheetGenerator {
	return &LotSheetGenerator{Company: company}
}

// GenerateLotSheet genera el PDF y devuelve sus bytes.
func (g *LotSheetGenerator) GenerateLotSheet(_ context.Context, sheet report.LotSheet) ([]byte, error) {
	lot := sheet.Lot
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Ficha de trazabilidad "+lot.Code, true).
		WithAuthor(nonEmpty(g.Company, "Trazabilidad"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(sheet))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(detailRows(lot)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionRow("BULTOS"))
	m.AddRows(packageRows(lot.Packages)...)

	if len(lot.Analyses) > 0 {
		m.AddRows(sectionRow("ANÁLISIS"))
		m.AddRows(analysisRows(lot.Analyses)...)
	}

	m.AddRows(sectionRow("MOVIMIENTOS"))
	m.AddRows(movementRows(lot.Movements)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(sheet))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: lote + producto (izq) y dictamen + estado (der).
func headerRow(sheet report.LotSheet) core.Row {
	lot := sheet.Lot
	verdictColor := colorPrimary
	if !lot.Active {
		verdictColor = colorAlert
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("LOTE "+lot.Code, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s (%s)", sheet.ProductName, lot.ProductCode), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("DICTAMEN", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(lot.Verdict, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6, Color: verdictColor,
			}),
			text.New("Estado: "+lot.Status, props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// detailRows: datos de ingreso y cantidades.
func detailRows(lot dto.LotResponse) []core.Row {
	origin := "-"
	if lot.OriginLotCode != "" {
		origin = lot.OriginLotCode
	}
	traces := "-"
	if lot.InitialTraceNumber > 0 {
		traces = fmt.Sprintf("desde %d", lot.InitialTraceNumber)
	}
	return []core.Row{
		keyValueRow(
			"Ingreso", lot.IntakeDate,
			"Proveedor", nonEmpty(lot.Supplier, "-"),
		),
		keyValueRow(
			"Fabricante", nonEmpty(lot.Manufacturer, "-"),
			"Lote de origen", origin,
		),
		keyValueRow(
			"Cantidad inicial", lot.InitialQuantity.String()+" "+lot.Unit,
			"Cantidad actual", fmt.Sprintf("%s %s (%s %s)",
				lot.CurrentQuantity.String(), lot.Unit, lot.DisplayQuantity.String(), lot.DisplayUnit),
		),
		keyValueRow(
			"Bultos", fmt.Sprintf("%d", len(lot.Packages)),
			"Trazas", traces,
		),
	}
}

func keyValueRow(k1, v1, k2, v2 string) core.Row {
	key := func(s string) core.Component {
		return text.New(s+":", props.Text{Style: fontstyle.Bold, Size: 8, Top: 1})
	}
	val := func(s string) core.Component {
		return text.New(s, props.Text{Size: 8, Top: 1, Color: colorGray})
	}
	return row.New(6).Add(
		col.New(2).Add(key(k1)), col.New(4).Add(val(v1)),
		col.New(2).Add(key(k2)), col.New(4).Add(val(v2)),
	)
}

func sectionRow(title string) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 3}),
	))
}

type column struct {
	label string
	size  int
	align align.Type
}

func tableHeader(cols ...column) core.Row {
	r := row.New(6)
	for _, c := range cols {
		r.Add(col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: c.align, Top: 1, Left: 1, Right: 1,
		})))
	}
	return r
}

func tableRow(cols []column, values ...string) core.Row {
	r := row.New(5)
	for i, c := range cols {
		r.Add(col.New(c.size).Add(text.New(values[i], props.Text{
			Size: 7.5, Align: c.align, Top: 0.5, Left: 1, Right: 1,
		})))
	}
	return r
}

var packageCols = []column{
	{"N°", 1, align.Center},
	{"Inicial", 2, align.Right},
	{"Actual", 2, align.Right},
	{"Estado", 2, align.Left},
	{"Trazas activas", 5, align.Left},
}

func packageRows(packages []dto.PackageResponse) []core.Row {
	rows := []core.Row{tableHeader(packageCols...)}
	for _, p := range packages {
		rows = append(rows, tableRow(packageCols,
			fmt.Sprintf("%d", p.Seq),
			p.InitialQuantity.String()+" "+p.Unit,
			p.CurrentQuantity.String()+" "+p.Unit,
			p.Status,
			traceSummary(p.Traces),
		))
	}
	return rows
}

var analysisCols = []column{
	{"N°", 3, align.Left},
	{"Solicitud", 2, align.Center},
	{"Realizado", 2, align.Center},
	{"Dictamen", 3, align.Left},
	{"Vencimiento", 2, align.Center},
}

func analysisRows(analyses []dto.AnalysisResponse) []core.Row {
	rows := []core.Row{tableHeader(analysisCols...)}
	for _, a := range analyses {
		number := a.Number
		if !a.Active {
			number += " (anulado)"
		}
		rows = append(rows, tableRow(analysisCols,
			number,
			a.RequestedAt,
			nonEmpty(a.PerformedAt, "-"),
			nonEmpty(a.Verdict, "en curso"),
			nonEmpty(a.ExpiryDate, "-"),
		))
	}
	return rows
}

var movementCols = []column{
	{"Fecha", 2, align.Center},
	{"Tipo", 2, align.Left},
	{"Motivo", 3, align.Left},
	{"Cantidad", 2, align.Right},
	{"Registró", 3, align.Left},
}

func movementRows(movements []dto.MovementResponse) []core.Row {
	rows := []core.Row{tableHeader(movementCols...)}
	for _, m := range movements {
		qty := "-"
		if m.Quantity != nil {
			qty = m.Quantity.String() + " " + m.Unit
		}
		reason := m.Reason
		if m.DerivedLotCode != "" {
			reason += " → " + m.DerivedLotCode
		}
		rows = append(rows, tableRow(movementCols, m.Date, m.Kind, reason, qty, shortID(m.RecordedBy)))
	}
	return rows
}

// footerRow: QR con el código del lote y datos de emisión.
func footerRow(sheet report.LotSheet) core.Row {
	issued := fmt.Sprintf("Emitida %s", sheet.GeneratedAt.Format("02/01/2006 15:04"))
	if sheet.GeneratedBy != "" {
		issued += " por " + shortID(sheet.GeneratedBy)
	}
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(sheet.Lot.Code, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Escanee el código QR para identificar el lote.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New(issued, props.Text{Size: 8, Top: 12, Left: 3, Color: colorGray}),
			text.New("FICHA DE TRAZABILIDAD DE LOTE", props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 22, Left: 3, Color: colorPrimary,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// traceSummary agrupa números de traza vigentes consecutivos: 101-105, 108.
func traceSummary(traces []dto.TraceResponse) string {
	var parts []string
	start, prev := int64(-1), int64(-1)
	flush := func() {
		if start < 0 {
			return
		}
		if start == prev {
			parts = append(parts, fmt.Sprintf("%d", start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, t := range traces {
		if entity.IsTerminal(entity.Status(t.Status)) {
			continue
		}
		if start >= 0 && t.Number == prev+1 {
			prev = t.Number
			continue
		}
		flush()
		start, prev = t.Number, t.Number
	}
	flush()
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// shortID recorta identificadores largos (UUID) a sus primeros 8 caracteres.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
