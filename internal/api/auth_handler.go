package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/msa-market-engine/internal/auth"
	"github.com/ajharbinger/msa-market-engine/internal/errors"
	"github.com/ajharbinger/msa-market-engine/internal/logger"
)

// AuthHandler exchanges an API key for a bearer token
type AuthHandler struct {
	jwt        *auth.JWTService
	apiKeyHash string
	logger     logger.Logger
}

// NewAuthHandler creates a new auth handler. A nil jwt service disables
// token issuance.
func NewAuthHandler(jwt *auth.JWTService, apiKeyHash string, log logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AuthHandler{jwt: jwt, apiKeyHash: apiKeyHash, logger: log}
}

// TokenRequest represents a token request
type TokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
	Client string `json:"client"`
	Scope  string `json:"scope"`
}

// Token validates the API key and issues a signed token
func (h *AuthHandler) Token(c *gin.Context) {
	if h.jwt == nil || h.apiKeyHash == "" {
		respondError(c, errors.ServiceUnavailable("authentication is not configured", nil))
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	scope := strings.ToLower(strings.TrimSpace(req.Scope))
	switch scope {
	case "":
		scope = auth.ScopeRead
	case auth.ScopeRead, auth.ScopeWrite:
	default:
		respondError(c, errors.InvalidInput("scope must be read or write", nil).WithDetails(req.Scope))
		return
	}

	client := strings.TrimSpace(req.Client)
	if client == "" {
		client = "api"
	}

	if !auth.CheckAPIKey(req.APIKey, h.apiKeyHash) {
		h.logger.Warn("Rejected token request", "client", client, "client_ip", c.ClientIP())
		respondError(c, errors.Unauthorized("Invalid API key", nil))
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(client, scope)
	if err != nil {
		respondError(c, errors.InternalError("failed to issue token", err))
		return
	}

	h.logger.Info("Issued token", "client", client, "scope", scope)
	respond(c, http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   expiresAt,
		"scope":        scope,
	})
}
