// Package pdf genera el albarán de entrega de un pedido de reposición.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Obrador + Tienda   │  N° Pedido + Fechas            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Pedido | Lote | Enviado                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES por producto                                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el id del pedido + firmas                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/obrador-api/internal/application/replenishment"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

var _ replenishment.DeliveryNoteGenerator = (*DeliveryNoteGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 120, Green: 60, Blue: 20}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

const dateLayout = "02/01/2006"

// DeliveryNoteGenerator albarán con Maroto v2.
type DeliveryNoteGenerator struct {
	plantName string
}

// NewDeliveryNoteGenerator construye el generador. plantName aparece en la cabecera.
func NewDeliveryNoteGenerator(plantName string) *DeliveryNoteGenerator {
	return &DeliveryNoteGenerator{plantName: plantName}
}

// GenerateDeliveryNote genera el PDF del pedido y devuelve sus bytes.
func (g *DeliveryNoteGenerator) GenerateDeliveryNote(req *entity.StockRequest) ([]byte, error) {
	if len(req.DeliveryManifest) == 0 {
		return nil, fmt.Errorf("pdf: el pedido %s no tiene manifiesto", req.ID)
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Albarán de entrega", true).
		WithAuthor(g.plantName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.plantName, req))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(req) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(req))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(req))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(plantName string, req *entity.StockRequest) core.Row {
	return row.New(22).Add(
		col.New(7).Add(
			text.New(plantName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Tienda: "+req.StoreID, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
			text.New("Estado: "+req.State, props.Text{
				Size: 8, Top: 15, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("ALBARÁN DE ENTREGA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(shortID(req.ID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New("Pedido: "+req.CreatedAt.Format(dateLayout), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
			text.New("Envío: "+formatOptionalDate(req.SentAt), props.Text{
				Size: 8, Align: align.Right, Top: 17, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 5, align.Left),
		h("Pedido", 2, align.Right),
		h("Lote", 3, align.Center),
		h("Enviado", 2, align.Right),
	)
}

// tableDetailRows una fila por lote asignado; producto y cantidad pedida solo en la primera.
func tableDetailRows(req *entity.StockRequest) []core.Row {
	var result []core.Row
	for _, e := range req.DeliveryManifest {
		item := lineItem(req, e.ProductID)
		for i, a := range e.LotAllocations {
			name, ordered := "", ""
			if i == 0 {
				name = nonEmpty(item.ProductName, e.ProductID)
				ordered = formatQty(item.Quantity, item.Unit)
			}
			result = append(result, row.New(7).Add(
				col.New(5).Add(text.New(name, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
				col.New(2).Add(text.New(ordered, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
				col.New(3).Add(text.New(a.ProductionDate.Format(dateLayout), props.Text{Size: 8, Align: align.Center, Top: 1})),
				col.New(2).Add(text.New(formatQty(a.Quantity, item.Unit), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			))
		}
	}
	return result
}

func totalsRow(req *entity.StockRequest) core.Row {
	total := decimal.Zero
	lots := 0
	for _, e := range req.DeliveryManifest {
		total = total.Add(e.Total())
		lots += len(e.LotAllocations)
	}
	return row.New(12).Add(
		col.New(6),
		col.New(3).Add(
			text.New("Productos / lotes:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2}),
			text.New("TOTAL UNIDADES:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 5,
			}),
		),
		col.New(3).Add(
			text.New(fmt.Sprintf("%d / %d", len(req.DeliveryManifest), lots), props.Text{Size: 9, Align: align.Right, Right: 1}),
			text.New(total.String(), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 5,
			}),
		),
	)
}

func footerRow(req *entity.StockRequest) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(req.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New(req.ID, props.Text{Size: 7, Top: 2, Left: 3, Color: colorGray}),
			text.New(nonEmpty(req.Notes, ""), props.Text{Size: 8, Top: 8, Left: 3}),
			text.New("Firma repartidor: ____________________     Firma tienda: ____________________", props.Text{
				Size: 8, Top: 28, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func lineItem(req *entity.StockRequest, productID string) entity.LineItem {
	for _, it := range req.Items {
		if it.ProductID == productID {
			return it
		}
	}
	return entity.LineItem{ProductID: productID}
}

func formatQty(q decimal.Decimal, unit string) string {
	if unit == "" {
		return q.String()
	}
	return q.String() + " " + unit
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// shortID primeros 8 caracteres del uuid, como número visible del albarán.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
