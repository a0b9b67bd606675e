package services

import (
	"testing"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/config"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/models"
)

func testAuthService(expiryHours int) *AuthService {
	return NewAuthService(nil, &config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenExpiry:   expiryHours,
		RefreshExpiry: 24,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	s := testAuthService(1)
	user := &models.User{ID: 42, Email: "staff@example.com", Username: "staff", Type: "admin"}

	resp, err := s.GenerateTokens(user)
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("unexpected auth response: %+v", resp)
	}

	claims, err := s.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "staff@example.com" || claims.Type != "admin" {
		t.Fatalf("claims = %+v, want user 42 / admin", claims)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	resp, err := testAuthService(1).GenerateTokens(&models.User{ID: 1, Type: "staff"})
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	other := NewAuthService(nil, &config.AuthConfig{JWTSecret: "different", TokenExpiry: 1, RefreshExpiry: 24})
	if _, err := other.ValidateToken(resp.AccessToken); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	resp, err := testAuthService(-1).GenerateTokens(&models.User{ID: 1, Type: "staff"})
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}
	if _, err := testAuthService(1).ValidateToken(resp.AccessToken); err == nil {
		t.Fatal("expired token must not validate")
	}
}

func TestValidateGarbageToken(t *testing.T) {
	if _, err := testAuthService(1).ValidateToken("not-a-jwt"); err == nil {
		t.Fatal("garbage token must not validate")
	}
}
