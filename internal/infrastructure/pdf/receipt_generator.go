// Package pdf genera el comprobante imprimible de una solicitud de activo.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa             │  Comprobante N° + Fecha      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMPLEADO: Nombre + Email                                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Activo | Tipo | Estado | Aprobado | Devuelto        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el ID + leyenda de devolución               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
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

	"github.com/assetverse/assetverse-api/internal/application/request"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 24, Green: 90, Blue: 157}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

const dateLayout = "02/01/2006"

// ── Generator ─────────────────────────────────────────────────────────────────

var _ request.ReceiptGenerator = (*ReceiptGenerator)(nil)

// ReceiptGenerator implementa request.ReceiptGenerator usando Maroto v2.
type ReceiptGenerator struct{}

// NewReceiptGenerator construye el generador.
func NewReceiptGenerator() *ReceiptGenerator { return &ReceiptGenerator{} }

// GenerateReceipt genera el PDF y devuelve sus bytes. asset puede ser nil (activo borrado):
// el comprobante usa los datos copiados en la solicitud.
func (g *ReceiptGenerator) GenerateReceipt(_ context.Context, req *entity.AssetRequest, asset *entity.Asset) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de asignación de activo", true).
		WithAuthor(req.CompanyName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(req))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(employeeRow(req))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(detailRow(req, asset))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(req))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(req *entity.AssetRequest) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(req.CompanyName, "—"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("HR: "+req.HREmail, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("COMPROBANTE DE ASIGNACIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(shortID(req.ID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Solicitado: "+req.RequestDate.Format(dateLayout), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func employeeRow(req *entity.AssetRequest) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("EMPLEADO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(req.EmployeeName, req.EmployeeEmail), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New("Email: "+req.EmployeeEmail, props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Activo", 4, align.Left),
		h("Tipo", 2, align.Center),
		h("Estado", 2, align.Center),
		h("Aprobado", 2, align.Center),
		h("Devuelto", 2, align.Center),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func detailRow(req *entity.AssetRequest, asset *entity.Asset) core.Row {
	name := req.ProductName
	if asset != nil && asset.ProductName != "" {
		name = asset.ProductName
	}
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	return row.New(7).Add(
		cell(name, 4, align.Left),
		cell(string(req.ProductType), 2, align.Center),
		cell(string(req.Status), 2, align.Center),
		cell(formatDate(req.ActionDate), 2, align.Center),
		cell(formatDate(req.ReturnDate), 2, align.Center),
	)
}

func footerRow(req *entity.AssetRequest) core.Row {
	legend := "Activo no retornable: queda en poder del empleado."
	if req.ProductType == entity.ProductReturnable {
		legend = "Activo retornable: debe devolverse a la empresa al finalizar su uso."
	}
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(req.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("ID de solicitud: "+req.ID, props.Text{Size: 7, Top: 4, Left: 3, Color: colorGray}),
			text.New(legend, props.Text{Style: fontstyle.Bold, Size: 9, Top: 14, Left: 3, Color: colorPrimary}),
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

func formatDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format(dateLayout)
}

// shortID primeros 8 caracteres del ID, suficientes para referencia humana.
func shortID(id string) string {
	if len(id) > 8 {
		return "N° " + id[:8]
	}
	return "N° " + id
}
