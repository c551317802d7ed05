package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	settingsdomain "github.com/teblo/teblo/internal/settings/domain"
)

type UpdateSettingsRequest struct {
	CompanyName    *string          `json:"company_name"`
	Address        *string          `json:"address"`
	TaxID          *string          `json:"tax_id"`
	Email          *string          `json:"email"`
	Phone          *string          `json:"phone"`
	Currency       *string          `json:"currency"`
	InvoicePrefix  *string          `json:"invoice_prefix"`
	ProFormaPrefix *string          `json:"pro_forma_prefix"`
	DefaultVATRate *decimal.Decimal `json:"default_vat_rate"`
	PaymentTerms   *string          `json:"payment_terms"`
}

func (s *Server) GetSettings(c *gin.Context) {
	settings, err := s.settingsSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (s *Server) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	settings, err := s.settingsSvc.Update(c.Request.Context(), settingsdomain.UpdateSettingsRequest{
		CompanyName:    req.CompanyName,
		Address:        req.Address,
		TaxID:          req.TaxID,
		Email:          req.Email,
		Phone:          req.Phone,
		Currency:       req.Currency,
		InvoicePrefix:  req.InvoicePrefix,
		ProFormaPrefix: req.ProFormaPrefix,
		DefaultVATRate: req.DefaultVATRate,
		PaymentTerms:   req.PaymentTerms,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}
