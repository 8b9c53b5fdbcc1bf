package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CronSecret guards the scheduled-trigger endpoint with a shared bearer
// secret. An empty secret leaves the endpoint open, matching local setups.
func CronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" && c.GetHeader("Authorization") != "Bearer "+secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
