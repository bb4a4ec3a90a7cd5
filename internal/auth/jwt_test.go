package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-123")
	token, err := mgr.GenerateAccessToken("client-42")
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := mgr.ValidateToken(token, KindAccess)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.ClientID != "client-42" {
		t.Errorf("expected client_id=client-42, got %s", claims.ClientID)
	}
	if claims.Subject != "client-42" {
		t.Errorf("expected subject=client-42, got %s", claims.Subject)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-123")
	refresh, err := mgr.GenerateRefreshToken("client-99")
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}
	if _, err := mgr.ValidateToken(refresh, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	claims, err := mgr.ValidateToken(refresh, KindRefresh)
	if err != nil {
		t.Fatalf("validate refresh token: %v", err)
	}
	if claims.ClientID != "client-99" {
		t.Errorf("expected client_id=client-99, got %s", claims.ClientID)
	}
}

func TestGenerateTokenPair(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-123")
	pair, err := mgr.GenerateTokenPair("client-7")
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("expected non-empty tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Error("access and refresh tokens should be different")
	}
	if pair.ExpiresIn != 900 {
		t.Errorf("expected expires_in=900, got %d", pair.ExpiresIn)
	}
}

func TestRefresh(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	pair, err := mgr.GenerateTokenPair("client-7")
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}
	next, err := mgr.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := mgr.ValidateToken(next.AccessToken, KindAccess)
	if err != nil || claims.ClientID != "client-7" {
		t.Errorf("refreshed access token: %+v, %v", claims, err)
	}
	if _, err := mgr.Refresh(pair.AccessToken); err == nil {
		t.Error("expected access token to be refused for refresh")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	mgr1 := NewJWTManager("secret-one")
	mgr2 := NewJWTManager("secret-two")

	token, err := mgr1.GenerateAccessToken("client-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := mgr2.ValidateToken(token, KindAccess); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	if _, err := mgr.ValidateToken("not-a-jwt", KindAccess); err == nil {
		t.Error("expected error for garbage token")
	}
	if _, err := mgr.ValidateToken("", KindAccess); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestExpiredToken(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	issued := time.Now()
	mgr.now = func() time.Time { return issued }
	token, err := mgr.GenerateAccessToken("client-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	mgr.now = func() time.Time { return issued.Add(16 * time.Minute) }
	if _, err := mgr.ValidateToken(token, KindAccess); err == nil {
		t.Error("expected error for expired token")
	}
}
