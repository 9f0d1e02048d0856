package testutil

import (
	"net/http"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/artisan-marketplace-api/middleware"
	"github.com/kendall-kelly/artisan-marketplace-api/models"
)

// TestUserHeader names the request header HeaderAuth reads the Auth0 subject from
const TestUserHeader = "X-Test-User"

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, userType models.UserType) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			UserType: string(userType),
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID string, issuer string, userType models.UserType) {
	claims := MockValidatedClaims(userID, issuer, userType)
	c.Set("user_id", userID)
	c.Set("validated_claims", claims)
	c.Set("access_token", "mock-token")
}

// HeaderAuth stands in for the JWT middleware. The caller's Auth0 subject is
// taken from the X-Test-User header so one router can serve several actors.
// Requests without the header are rejected the way an invalid token is.
func HeaderAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetHeader(TestUserHeader)
		if subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate JWT.",
				},
			})
			return
		}
		SetMockAuthContext(c, subject, "https://test.auth0.com/", "")
		c.Next()
	}
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}
