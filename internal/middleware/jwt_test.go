package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(7, "dispatcher")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "dispatcher", claims.Role)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestRequireAuthWithRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/zones", RequireAuthWithRole("dispatcher"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/zones", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do(""))

	driverToken, err := GenerateToken(7, "driver")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(driverToken))

	dispatcherToken, err := GenerateToken(8, "dispatcher")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, do(dispatcherToken))
}
