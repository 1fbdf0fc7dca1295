// Package httputil provides response helpers shared by the API handlers and
// middleware.
package httputil

import "github.com/gin-gonic/gin"

// RespondError writes the standard error envelope {code, message, request_id}
// and aborts the request. The request id is attached when the request id
// middleware has run; unauthenticated probes rejected earlier still get the
// code and message.
func RespondError(c *gin.Context, status int, code, message string) {
	var requestID string
	if rid, exists := c.Get("request_id"); exists {
		if s, ok := rid.(string); ok {
			requestID = s
		}
	}

	resp := map[string]string{
		"code":    code,
		"message": message,
	}

	if requestID != "" {
		resp["request_id"] = requestID
	}

	c.AbortWithStatusJSON(status, resp)
}
