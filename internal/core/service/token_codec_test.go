package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/capachica/turismo-api/internal/core/domain"
)

func TestTokenCodec_IssueVerify(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)

	token, exp, err := codec.Issue("acc-1", domain.RoleSet{domain.RoleCustomer, domain.RoleEntrepreneur})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %v", exp)
	}

	s, ok := codec.Verify(token)
	if !ok {
		t.Fatalf("expected token to verify")
	}
	if s.AccountID != "acc-1" {
		t.Fatalf("unexpected account id %q", s.AccountID)
	}
	if !s.Roles.Has(domain.RoleEntrepreneur) || !s.Roles.Has(domain.RoleCustomer) || len(s.Roles) != 2 {
		t.Fatalf("unexpected roles %v", s.Roles)
	}
}

func TestTokenCodec_UniquePerIssue(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)
	a, _, _ := codec.Issue("acc-1", nil)
	b, _, _ := codec.Issue("acc-1", nil)
	if a == b {
		t.Fatalf("expected distinct tokens for separate sessions")
	}
}

func TestTokenCodec_Expired(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)
	issued := time.Now()
	codec.now = func() time.Time { return issued }

	token, _, err := codec.Issue("acc-1", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	codec.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, ok := codec.Verify(token); ok {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	token, _, _ := NewTokenCodec("secret", time.Hour).Issue("acc-1", nil)
	if _, ok := NewTokenCodec("other", time.Hour).Verify(token); ok {
		t.Fatalf("expected signature mismatch to be rejected")
	}
}

func TestTokenCodec_Tampered(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)
	token, _, _ := codec.Issue("acc-1", domain.RoleSet{domain.RoleCustomer})

	parts := strings.Split(token, ".")
	forged, _, _ := NewTokenCodec("secret", time.Hour).Issue("acc-1", domain.RoleSet{domain.RoleAdmin})
	parts[1] = strings.Split(forged, ".")[1]

	if _, ok := codec.Verify(strings.Join(parts, ".")); ok {
		t.Fatalf("expected tampered payload to be rejected")
	}
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{"sub": "acc-1", "exp": time.Now().Add(time.Hour).Unix()}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}

	codec := NewTokenCodec("secret", time.Hour)
	for name, tok := range map[string]string{"none": none, "hs512": hs512, "garbage": "not-a-token", "empty": ""} {
		if _, ok := codec.Verify(tok); ok {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

func TestTokenCodec_RequiresExpiry(t *testing.T) {
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "acc-1"}).SignedString([]byte("secret"))
	if _, ok := NewTokenCodec("secret", time.Hour).Verify(tok); ok {
		t.Fatalf("expected token without exp to be rejected")
	}
}

func TestTokenCodec_ExpiryOf(t *testing.T) {
	codec := NewTokenCodec("secret", 30*time.Minute)
	token, exp, _ := codec.Issue("acc-1", nil)

	got, ok := codec.ExpiryOf(token)
	if !ok {
		t.Fatalf("expected expiry to be readable")
	}
	if got.Unix() != exp.Unix() {
		t.Fatalf("expected %v, got %v", exp, got)
	}
	if _, ok := codec.ExpiryOf("garbage"); ok {
		t.Fatalf("expected garbage to have no expiry")
	}
}
