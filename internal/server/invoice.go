package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/teblo/teblo/internal/invoice/domain"
)

type LineItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
}

type CreateInvoiceRequest struct {
	ClientID string            `json:"client_id"`
	ProForma bool              `json:"pro_forma"`
	DueAt    *time.Time        `json:"due_at"`
	Notes    string            `json:"notes"`
	Items    []LineItemRequest `json:"items"`
}

type ReplaceInvoiceItemsRequest struct {
	Items []LineItemRequest `json:"items"`
}

type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    *time.Time      `json:"paid_at"`
	Type      string          `json:"type"`
	Note      string          `json:"note"`
	Reference string          `json:"reference"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		ClientID: req.ClientID,
		ProForma: req.ProForma,
		DueAt:    req.DueAt,
		Notes:    req.Notes,
		Items:    toLineItemInputs(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListInvoices(c *gin.Context) {
	req := invoicedomain.ListInvoiceRequest{
		PageToken: c.Query("page_token"),
		ClientID:  c.Query("client_id"),
	}

	if pageSize, err := parseOptionalInt32(c.Query("page_size")); err != nil {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid page size"))
		return
	} else if pageSize != nil {
		req.PageSize = *pageSize
	}

	if raw := c.Query("status"); raw != "" {
		status := invoicedomain.InvoiceStatus(raw)
		if !status.Valid() {
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
			return
		}
		req.Status = &status
	}

	issuedFrom, err := parseOptionalTime(c.Query("issued_from"), false)
	if err != nil {
		AbortWithError(c, newValidationError("issued_from", "invalid_time", "invalid time"))
		return
	}
	req.IssuedFrom = issuedFrom

	issuedTo, err := parseOptionalTime(c.Query("issued_to"), true)
	if err != nil {
		AbortWithError(c, newValidationError("issued_to", "invalid_time", "invalid time"))
		return
	}
	req.IssuedTo = issuedTo

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ReplaceInvoiceItems(c *gin.Context) {
	var req ReplaceInvoiceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.ReplaceItems(c.Request.Context(), invoicedomain.ReplaceItemsRequest{
		ID:    c.Param("id"),
		Items: toLineItemInputs(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) RecordInvoicePayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	domainReq := invoicedomain.RecordPaymentRequest{
		InvoiceID: c.Param("id"),
		Amount:    req.Amount,
		Type:      invoicedomain.PaymentType(req.Type),
		Note:      req.Note,
		Reference: req.Reference,
	}
	if req.PaidAt != nil {
		domainReq.PaidAt = *req.PaidAt
	}

	resp, err := s.invoiceSvc.RecordPayment(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) CancelInvoice(c *gin.Context) {
	invoice, err := s.invoiceSvc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) ConvertInvoice(c *gin.Context) {
	invoice, err := s.invoiceSvc.ConvertToDefinitive(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	view, err := s.invoiceSvc.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdfProvider.GenerateInvoice(c.Request.Context(), view)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.DataFromReader(http.StatusOK, -1, "application/pdf", doc, map[string]string{
		"Content-Disposition": `inline; filename="` + view.Number + `.pdf"`,
	})
}

func toLineItemInputs(items []LineItemRequest) []invoicedomain.LineItemInput {
	inputs := make([]invoicedomain.LineItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, invoicedomain.LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
		})
	}
	return inputs
}
