package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quick-ledger/ottero/internal/interfaces/http/dto"
)

// BodyLimit rejects requests whose body exceeds maxBytes. Bodies without a
// declared length are cut off by http.MaxBytesReader while being read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
