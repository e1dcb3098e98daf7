package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Configure("test-secret", time.Hour)

	userID, teamID := uuid.New(), uuid.New()
	token, err := GenerateToken(userID, teamID, "staff@example.com", "Staff A", "STAFF", []string{"opname:count"}, "v1")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != userID || claims.TeamID != teamID {
		t.Fatalf("claims do not round trip ids: %+v", claims)
	}
	if claims.TokenVersion != "v1" || len(claims.Privileges) != 1 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	Configure("secret-a", time.Hour)
	token, err := GenerateToken(uuid.New(), uuid.New(), "a@example.com", "A", "STAFF", nil, "v1")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	Configure("secret-b", time.Hour)
	if _, err := ValidateToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
