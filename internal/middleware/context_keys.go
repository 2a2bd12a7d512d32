package middleware

import "github.com/gin-gonic/gin"

// operatorIDKey is the key used to store the authenticated operator's ID.
const operatorIDKey = contextKey("operatorID")

// GetOperatorIDFromContext retrieves the authenticated operator ID from the request context.
// It returns the ID and a boolean indicating if it was found.
func GetOperatorIDFromContext(c *gin.Context) (string, bool) {
	operatorID, ok := c.Request.Context().Value(operatorIDKey).(string)
	if !ok || operatorID == "" {
		return "", false
	}
	return operatorID, true
}
