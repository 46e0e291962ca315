// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims
type Claims struct {
	IdentityID int64    `json:"identity_id"`
	Roles      []string `json:"roles,omitempty"`
	AgentID    string   `json:"agent_id,omitempty"` // set for agent tokens, scopes dashboard data
	Device     string   `json:"device,omitempty"`
	jwt.RegisteredClaims
}

// HasRole checks if the claims contain a specific role
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is an admin
func (c *Claims) IsAdmin() bool {
	return c.HasRole("admin")
}

// IsAgent checks if user is an agent with a scoped view
func (c *Claims) IsAgent() bool {
	return c.HasRole("agent") && c.AgentID != ""
}
