package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldtrack/internal/middleware"
	"fieldtrack/internal/models"
)

type tokenInput struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// AuthController mints development tokens. Identity lives in a separate
// service in production; this endpoint only exists behind the
// ENABLE_DEV_TOKENS flag so local clients can obtain claims.
type AuthController struct{}

func NewAuthController() *AuthController {
	return &AuthController{}
}

// IssueToken signs a JWT for the given user id and role.
// POST /auth/token
func (ac *AuthController) IssueToken(c *gin.Context) {
	var input tokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch input.Role {
	case models.RoleDriver, models.RoleSalesRep, models.RoleDispatcher:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown role %q", input.Role)})
		return
	}

	token, err := middleware.GenerateToken(input.UserID, input.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": input.UserID, "role": input.Role})
}
