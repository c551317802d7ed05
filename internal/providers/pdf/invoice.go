package pdf

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"github.com/teblo/teblo/internal/invoice/domain"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, view domain.InvoiceView) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, documentTitle(view.Status), props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	metaHeight := 16.0
	metaCol := col.New(6).Add(
		text.New("Number: "+view.Number, props.Text{Top: 0}),
		text.New("Date of issue: "+formatDate(view.IssuedAt), props.Text{Top: 4}),
	)
	if view.DueAt != nil {
		metaCol.Add(text.New("Date due: "+formatDate(*view.DueAt), props.Text{Top: 8}))
	}
	m.AddRow(metaHeight, metaCol, col.New(6))

	if view.Status == domain.InvoiceStatusCancelled {
		m.AddRow(8,
			text.NewCol(12, "CANCELLED", props.Text{
				Size:  12,
				Style: fontstyle.Bold,
			}),
		)
	}

	m.AddRow(40,
		col.New(6).Add(
			text.New(view.Company.Name, props.Text{Style: fontstyle.Bold}),
			text.New(view.Company.Address, props.Text{Top: 5}),
			text.New(view.Company.TaxID, props.Text{Top: 13}),
			text.New(view.Company.Email, props.Text{Top: 17}),
			text.New(view.Company.Phone, props.Text{Top: 21}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(view.Client.Name, props.Text{Top: 5}),
			text.New(view.Client.Address, props.Text{Top: 9}),
			text.New(view.Client.TaxID, props.Text{Top: 17}),
			text.New(view.Client.Email, props.Text{Top: 21}),
		),
	)

	m.AddRow(10,
		text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "VAT %", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range view.Items {
		m.AddRow(10,
			text.NewCol(5, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Quantity.String(), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, item.VATRate.String(), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.Total), props.Text{Size: 9, Align: align.Right}),
		)
	}

	addTotalRow(m, "Subtotal", view.Currency, view.Subtotal, false)
	addTotalRow(m, "VAT", view.Currency, view.Tax, false)
	addTotalRow(m, "Total", view.Currency, view.Total, true)
	if view.TotalPaid.IsPositive() {
		addTotalRow(m, "Paid", view.Currency, view.TotalPaid, false)
		addTotalRow(m, "Amount due", view.Currency, view.Pending, true)
	}

	if view.Notes != "" {
		m.AddRow(20,
			text.NewCol(12, view.Notes, props.Text{Size: 9, Top: 6}),
		)
	}
	if view.Company.Footnote != "" {
		m.AddRow(15,
			text.NewCol(12, view.Company.Footnote, props.Text{Size: 8, Top: 4}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func addTotalRow(m core.Maroto, label, currency string, amount decimal.Decimal, bold bool) {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	m.AddRow(8,
		col.New(7),
		text.NewCol(3, label, props.Text{Size: 9, Style: style}),
		text.NewCol(2, formatAmount(amount)+" "+currency, props.Text{Size: 9, Style: style, Align: align.Right}),
	)
}

func documentTitle(status domain.InvoiceStatus) string {
	if status == domain.InvoiceStatusProForma {
		return "Pro Forma Invoice"
	}
	return "Invoice"
}

// formatAmount rounds for display. This is the only place amounts are
// rounded; everything upstream carries full precision.
func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
