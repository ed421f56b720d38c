package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/medibook/medibook-backend/pkg/config"
	"github.com/medibook/medibook-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "medibook-auth"}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, 30*time.Minute, AccessTokenPayload{
		UserID: "patient-42",
		Role:   enums.ActorRolePatient,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != "patient-42" {
		t.Fatalf("expected user_id patient-42, got %s", claims.UserID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be generated")
	}
	if claims.CartOwner() != "patient-42" {
		t.Fatalf("expected patient to own cart, got %s", claims.CartOwner())
	}
}

func TestCaregiverActsForPatient(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{
		UserID:    "carer-1",
		Role:      enums.ActorRoleCaregiver,
		PatientID: "patient-7",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.CartOwner() != "patient-7" {
		t.Fatalf("expected caregiver to act on patient cart, got %s", claims.CartOwner())
	}
}

func TestParseRejectsWrongIssuerAndExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{UserID: "u", Role: enums.ActorRolePatient})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch error")
	}

	expired, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Minute, AccessTokenPayload{UserID: "u", Role: enums.ActorRolePatient})
	if err != nil {
		t.Fatalf("mint expired: %v", err)
	}
	if _, err := ParseAccessToken(cfg, expired); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestMintValidatesPayload(t *testing.T) {
	cfg := testJWTConfig()
	if _, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{Role: enums.ActorRolePatient}); err == nil {
		t.Fatal("expected missing user id error")
	}
	if _, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{UserID: "u", Role: "vendor"}); err == nil {
		t.Fatal("expected invalid role error")
	}
	if _, err := MintAccessToken(config.JWTConfig{Issuer: "x"}, time.Now(), time.Minute, AccessTokenPayload{UserID: "u", Role: enums.ActorRolePatient}); err == nil {
		t.Fatal("expected missing secret error")
	}
}
