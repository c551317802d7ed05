package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/teblo/teblo/internal/userctx"
)

const contextUserIDKey = "user_id"

// AuthRequired verifies the bearer token and puts the resolved user ID on
// the request context; downstream services read it from there.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := s.verifier.Verify(bearerToken(c))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Request = c.Request.WithContext(userctx.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
