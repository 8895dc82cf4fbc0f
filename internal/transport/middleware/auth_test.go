package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Auth(testSecret), func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func TestAuth(t *testing.T) {
	validClaims := jwt.MapClaims{
		"user_id": 42,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "valid token",
			header:     "Bearer " + signToken(t, testSecret, validClaims),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer scheme",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong signing secret",
			header:     "Bearer " + signToken(t, "other-secret", validClaims),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"user_id": 42,
				"iat":     time.Now().Add(-2 * time.Hour).Unix(),
				"exp":     time.Now().Add(-time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "token without user_id claim",
			header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	r := authRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"user_id": 42}`, w.Body.String())
			}
		})
	}
}
