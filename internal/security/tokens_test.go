package security

import (
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	userID, deviceID := "u1", "d1"

	token, jti, exp, err := p.IssueAccess(userID, deviceID)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" || jti == "" {
		t.Fatal("access token or jti empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	uid, did, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if uid != userID || did != deviceID {
		t.Errorf("ValidateAccess: got userID=%q deviceID=%q", uid, did)
	}
}

func TestTokenProvider_ValidateAccessInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	_, _, err = p.ValidateAccess("invalid-token")
	if err != ErrInvalidToken {
		t.Errorf("ValidateAccess invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_RejectsForeignIssuer(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, _, err := p.IssueAccess("u1", "d1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	other := *p
	other.issuer = "someone-else"
	if _, _, err := other.ValidateAccess(token); err != ErrInvalidToken {
		t.Errorf("ValidateAccess with wrong issuer: want ErrInvalidToken, got %v", err)
	}
}
