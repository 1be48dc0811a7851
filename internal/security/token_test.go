package security

import (
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyState(t *testing.T) {
	signed := SignState("abc123", "state-key")
	if !strings.HasPrefix(signed, "abc123.") {
		t.Fatalf("unexpected signed state format: %q", signed)
	}

	state, ok := VerifySignedState(signed, "state-key")
	if !ok || state != "abc123" {
		t.Fatalf("expected valid state, got %q ok=%v", state, ok)
	}

	if _, ok := VerifySignedState(signed, "other-key"); ok {
		t.Fatal("expected verification failure with wrong key")
	}
	if _, ok := VerifySignedState("tampered.sig", "state-key"); ok {
		t.Fatal("expected verification failure for bogus signature")
	}
	if _, ok := VerifySignedState("nodot", "state-key"); ok {
		t.Fatal("expected verification failure without separator")
	}
}

func TestHashRefreshTokenPepperMatters(t *testing.T) {
	a := HashRefreshToken("tok", "pepper-a")
	b := HashRefreshToken("tok", "pepper-b")
	if a == b {
		t.Fatal("expected different digests for different peppers")
	}
	if a != HashRefreshToken("tok", "pepper-a") {
		t.Fatal("expected stable digest for same inputs")
	}
}

func TestJWTManagerRoundTrip(t *testing.T) {
	mgr := NewJWTManager("steward", "steward-admin", "access-secret", "refresh-secret")

	access, tokenID, err := mgr.SignAccessToken(42, "op@example.com", []string{"content_editor"}, time.Minute)
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	if tokenID == "" {
		t.Fatal("expected a token id")
	}
	claims, err := mgr.ParseAccessToken(access)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Subject != "42" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Email != "op@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "content_editor" {
		t.Fatalf("unexpected roles %v", claims.Roles)
	}
	if claims.ID != tokenID {
		t.Fatalf("expected claims jti %q to match returned token id %q", claims.ID, tokenID)
	}

	if _, err := mgr.ParseRefreshToken(access); err == nil {
		t.Fatal("access token must not verify against refresh secret")
	}

	refresh, err := mgr.SignRefreshToken(42, time.Minute)
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}
	if _, err := mgr.ParseRefreshToken(refresh); err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
}
