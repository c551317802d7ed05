package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/teblo/teblo/internal/client/domain"
)

type CreateClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id"`
	Phone   string `json:"phone"`
}

type UpdateClientRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	TaxID   *string `json:"tax_id"`
	Phone   *string `json:"phone"`
}

func (s *Server) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	client, err := s.clientSvc.Create(c.Request.Context(), clientdomain.CreateClientRequest{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		TaxID:   req.TaxID,
		Phone:   req.Phone,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, client)
}

func (s *Server) GetClientByID(c *gin.Context) {
	client, err := s.clientSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, client)
}

func (s *Server) ListClients(c *gin.Context) {
	req := clientdomain.ListClientRequest{
		PageToken: c.Query("page_token"),
		Name:      c.Query("name"),
		Email:     c.Query("email"),
	}

	if pageSize, err := parseOptionalInt32(c.Query("page_size")); err != nil {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid page size"))
		return
	} else if pageSize != nil {
		req.PageSize = *pageSize
	}

	resp, err := s.clientSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateClient(c *gin.Context) {
	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	client, err := s.clientSvc.Update(c.Request.Context(), clientdomain.UpdateClientRequest{
		ID:      c.Param("id"),
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		TaxID:   req.TaxID,
		Phone:   req.Phone,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, client)
}

func (s *Server) DeleteClient(c *gin.Context) {
	if err := s.clientSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
