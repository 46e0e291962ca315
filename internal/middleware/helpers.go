// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, ok := GetClaims(c)
	return ok
}

// IsAdmin checks if user is an admin
func IsAdmin(c *gin.Context) bool {
	claims, ok := GetClaims(c)
	return ok && claims.IsAdmin()
}

// IsAgent checks if the user is an agent with a bound agent scope
func IsAgent(c *gin.Context) bool {
	claims, ok := GetClaims(c)
	return ok && claims.IsAgent()
}
