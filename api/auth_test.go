package api

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func totpCodeNow(secret string) (string, error) {
	return totp.GenerateCode(secret, time.Now())
}

func TestIssueAndVerifySessionRoundTrips(t *testing.T) {
	a := Auth{JWTSecret: []byte("round-trip-secret"), SessionTTL: time.Minute}
	tok, err := a.issueSession("operator")
	if err != nil {
		t.Fatal(err)
	}
	sub, err := a.verifySession(tok)
	if err != nil {
		t.Fatal(err)
	}
	if sub != "operator" {
		t.Fatalf("expected subject %q, got %q", "operator", sub)
	}
}

func TestVerifySessionRejectsWrongSecret(t *testing.T) {
	a := Auth{JWTSecret: []byte("secret-a"), SessionTTL: time.Minute}
	tok, _ := a.issueSession("operator")
	b := Auth{JWTSecret: []byte("secret-b")}
	if _, err := b.verifySession(tok); err == nil {
		t.Fatal("expected verification to fail against a different secret")
	}
}

func TestVerifySessionRejectsExpiredToken(t *testing.T) {
	a := Auth{JWTSecret: []byte("expiry-secret"), SessionTTL: -time.Minute}
	tok, err := a.issueSession("operator")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.verifySession(tok); err == nil {
		t.Fatal("expected verification to fail for an already-expired token")
	}
}

func TestVerifyTOTPAcceptsCurrentCode(t *testing.T) {
	a := Auth{TOTPSecret: "JBSWY3DPEHPK3PXP"}
	code, err := totpCodeNow(a.TOTPSecret)
	if err != nil {
		t.Fatal(err)
	}
	if !a.verifyTOTP(code) {
		t.Fatal("expected the current totp code to verify")
	}
}

func TestVerifyTOTPRejectsWrongCode(t *testing.T) {
	a := Auth{TOTPSecret: "JBSWY3DPEHPK3PXP"}
	if a.verifyTOTP("000000") {
		t.Fatal("expected an arbitrary code not to verify")
	}
}
