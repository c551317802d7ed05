// Package pdf renders invoice documents. It is a pure presentation layer:
// it formats the figures it is given and never recomputes them.
package pdf

import (
	"context"
	"io"

	"github.com/teblo/teblo/internal/invoice/domain"
	"go.uber.org/fx"
)

type Provider interface {
	GenerateInvoice(ctx context.Context, view domain.InvoiceView) (io.Reader, error)
}

var Module = fx.Provide(New)
