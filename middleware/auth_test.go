package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		expected   string
	}{
		{name: "valid bearer token", authHeader: "Bearer test-token-123", expected: "test-token-123"},
		{name: "missing bearer prefix", authHeader: "test-token-123", expected: ""},
		{name: "empty header", authHeader: "", expected: ""},
		{name: "bearer with empty token", authHeader: "Bearer ", expected: ""},
		{name: "wrong scheme", authHeader: "Basic abc123", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractToken(tt.authHeader); got != tt.expected {
				t.Errorf("extractToken(%q) = %q, want %q", tt.authHeader, got, tt.expected)
			}
		})
	}
}

func TestJWTVerifier(t *testing.T) {
	secret := "test-secret"
	verifier := NewJWTVerifier(secret)

	signToken := func(secret, sub string) string {
		claims := jwt.MapClaims{
			"sub": sub,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return signed
	}

	t.Run("valid token", func(t *testing.T) {
		userID, err := verifier.Verify(signToken(secret, "operator-7"))
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if userID != "operator-7" {
			t.Errorf("expected operator-7, got %s", userID)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := verifier.Verify(signToken("other-secret", "operator-7")); err == nil {
			t.Error("expected verification failure for wrong secret")
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, _ := token.SignedString([]byte(secret))
		if _, err := verifier.Verify(signed); err == nil {
			t.Error("expected verification failure without subject")
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := verifier.Verify("not-a-jwt"); err == nil {
			t.Error("expected verification failure for garbage token")
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verifier := NewStaticVerifier(map[string]string{"good-token": "operator-7"})

	router := gin.New()
	router.Use(AuthMiddleware(verifier))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserIDFromContext(c)})
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "valid token", authHeader: "Bearer good-token", wantStatus: http.StatusOK},
		{name: "unknown token", authHeader: "Bearer bad-token", wantStatus: http.StatusUnauthorized},
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "malformed header", authHeader: "good-token", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
