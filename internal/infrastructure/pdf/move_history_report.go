// Package pdf genera el reporte de historial de movimientos de un lote.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Lote (dispatchId) + Orden │ Fecha de emisión + QR  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ETAPAS: Etapa | Estado | Completada | Fecha límite          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MOVIMIENTOS por etapa: Fecha | Movido | Restante | Detalle  │
//	│  + verificación de cuadre contra la cantidad original        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

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
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	appprod "github.com/jhoicas/produccion-flow/internal/application/production"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorDanger  = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ appprod.ReportGenerator = (*MarotoReportGenerator)(nil)

// MarotoReportGenerator implementa production.ReportGenerator usando Maroto v2.
type MarotoReportGenerator struct {
	numbers *message.Printer
}

// NewMarotoReportGenerator construye el generador. Las cantidades se formatean con
// separador de miles en español ("1.000").
func NewMarotoReportGenerator() *MarotoReportGenerator {
	return &MarotoReportGenerator{numbers: message.NewPrinter(language.Spanish)}
}

// GenerateMoveHistoryPDF genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateMoveHistoryPDF(_ context.Context, report appprod.MoveHistoryReport) ([]byte, error) {
	b := report.Batch
	if b == nil {
		return nil, fmt.Errorf("pdf: lote vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Historial de movimientos "+b.DispatchID, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionTitle("ETAPAS"))
	m.AddRows(tableHeader([]string{"Etapa", "Estado", "Completada", "Fecha límite"}, []int{4, 3, 2, 3}))
	for _, r := range stageRows(b) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitle("MOVIMIENTOS"))
	if len(report.Ledgers) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("El lote no registra movimientos parciales.", props.Text{Size: 8, Color: colorGray, Top: 2}),
		)))
	}
	for _, def := range production.Stages() {
		entries, ok := report.Ledgers[def.ID]
		if !ok {
			continue
		}
		for _, r := range g.ledgerRows(def.ID, entries) {
			m.AddRows(r)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: lote y orden (izq), fecha de emisión y QR con el dispatchId (der).
func (g *MarotoReportGenerator) headerRow(report appprod.MoveHistoryReport) core.Row {
	b := report.Batch
	return row.New(24).Add(
		col.New(8).Add(
			text.New("HISTORIAL DE MOVIMIENTOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(b.DispatchID, props.Text{
				Style: fontstyle.Bold, Size: 13, Top: 6,
			}),
			text.New(fmt.Sprintf("Orden: %s   |   Tipo: %s   |   Cantidad original: %s   |   Vigente: %s",
				nonEmpty(b.UniqueID, "-"), b.OrderType,
				g.numbers.Sprintf("%d", b.Quantity),
				g.numbers.Sprintf("%d", b.EffectiveQuantity()),
			), props.Text{Size: 8, Top: 15, Color: colorGray}),
		),
		col.New(2).Add(
			text.New("Emitido: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 7, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
		col.New(2).Add(code.NewQr(b.DispatchID, props.Rect{Percent: 90, Center: true})),
	)
}

func sectionTitle(label string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

// tableHeader: cabecera de tabla; sizes debe sumar 12.
func tableHeader(labels []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		cols = append(cols, col.New(sizes[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		})).WithStyle(&props.Cell{BackgroundColor: colorPrimary}))
	}
	return row.New(8).Add(cols...)
}

// stageRows: una fila por etapa con campo, las omitidas por el tipo de orden en gris.
func stageRows(b *entity.Batch) []core.Row {
	var rows []core.Row
	for _, def := range production.Stages() {
		if def.Field == "" {
			continue
		}
		raw, _ := b.StageStatus(def.ID)
		sd := production.Decode(raw)
		style := props.Text{Size: 8, Top: 1, Left: 1}
		status := sd.Status
		if !production.AppliesTo(def.ID, b.OrderType) {
			style.Color = colorGray
			status = "N/A"
		}
		rows = append(rows, row.New(6).Add(
			col.New(4).Add(text.New(def.ID.Label(), style)),
			col.New(3).Add(text.New(status, style)),
			col.New(2).Add(text.New(nonEmpty(sd.CompletionDate, "-"), style)),
			col.New(3).Add(text.New(nonEmpty(sd.DueDate, "-"), style)),
		))
	}
	return rows
}

// ledgerRows: movimientos de una etapa y verificación de cuadre contra la cantidad con la
// que el lote entró a la etapa (movido + restante de la primera entrada).
func (g *MarotoReportGenerator) ledgerRows(stage entity.StageID, entries []entity.SplitEntry) []core.Row {
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(text.New(stage.Label(), props.Text{
			Style: fontstyle.Bold, Size: 9, Top: 2,
		}))),
		tableHeader([]string{"Fecha", "Movido", "Restante", "Detalle"}, []int{2, 2, 2, 6}),
	}
	for _, e := range entries {
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(text.New(e.Date, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(g.numbers.Sprintf("%d", e.QuantityMoved), props.Text{Size: 8, Top: 1, Align: align.Right, Right: 2})),
			col.New(2).Add(text.New(g.numbers.Sprintf("%d", e.QuantityRemaining), props.Text{Size: 8, Top: 1, Align: align.Right, Right: 2})),
			col.New(6).Add(text.New(nonEmpty(e.Details, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
		))
	}
	check := props.Text{Size: 7, Top: 1, Color: colorGray}
	entered := entries[0].QuantityMoved + entries[0].QuantityRemaining
	msg := g.numbers.Sprintf("Cuadre correcto: %d unidades al entrar a la etapa.", entered)
	if err := production.VerifyLedger(entries, entered); err != nil {
		check.Color = colorDanger
		msg = "Descuadre: " + err.Error()
	}
	rows = append(rows, row.New(6).Add(col.New(12).Add(text.New(msg, check))))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
