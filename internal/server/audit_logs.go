package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/teblo/teblo/internal/audit/domain"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	req := auditdomain.ListAuditLogRequest{
		Action:     c.Query("action"),
		TargetType: c.Query("target_type"),
		TargetID:   c.Query("target_id"),
	}
	req.PageToken = c.Query("page_token")

	if pageSize, err := parseOptionalInt32(c.Query("page_size")); err != nil {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid page size"))
		return
	} else if pageSize != nil {
		req.PageSize = int(*pageSize)
	}

	startAt, err := parseOptionalTime(c.Query("start_at"), false)
	if err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_time", "invalid time"))
		return
	}
	req.StartAt = startAt

	endAt, err := parseOptionalTime(c.Query("end_at"), true)
	if err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_time", "invalid time"))
		return
	}
	req.EndAt = endAt

	resp, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
