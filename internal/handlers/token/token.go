// internal/handlers/token/token.go
package token

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"junketops-service/internal/pkg/jwt"
	"junketops-service/internal/pkg/response"
)

// TokenHandler mints development tokens. Production deployments issue
// tokens from the main backend; this endpoint is only mounted when
// dev tokens are enabled in configuration.
type TokenHandler struct {
	generator *jwt.Generator
	logger    *zap.Logger
}

func NewTokenHandler(generator *jwt.Generator, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		generator: generator,
		logger:    logger,
	}
}

type mintRequest struct {
	IdentityID int64  `json:"identity_id" binding:"required"`
	Role       string `json:"role" binding:"required,oneof=admin agent"`
	AgentID    string `json:"agent_id"`
	Device     string `json:"device"`
}

type mintResponse struct {
	Token     string `json:"token"`
	TokenID   string `json:"token_id"`
	ExpiresIn int64  `json:"expires_in"`
}

// Mint issues a signed token for the requested role. Agent tokens must
// name the agent whose book they are scoped to.
func (h *TokenHandler) Mint(c *gin.Context) {
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	device := req.Device
	if device == "" {
		device = "dev"
	}

	var (
		token string
		jti   string
		err   error
	)
	switch req.Role {
	case "admin":
		token, jti, err = h.generator.GenerateAdminToken(req.IdentityID, device)
	case "agent":
		if req.AgentID == "" {
			response.Error(c, http.StatusBadRequest, "agent_id is required for agent tokens", nil)
			return
		}
		token, jti, err = h.generator.GenerateAgentToken(req.IdentityID, req.AgentID, device)
	}
	if err != nil {
		h.logger.Error("failed to mint dev token", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to mint token", err)
		return
	}

	h.logger.Info("dev token minted",
		zap.Int64("identity_id", req.IdentityID),
		zap.String("role", req.Role),
		zap.String("agent_id", req.AgentID))

	response.Success(c, http.StatusCreated, "token minted", mintResponse{
		Token:     token,
		TokenID:   jti,
		ExpiresIn: int64(h.generator.Ttl.Seconds()),
	})
}
