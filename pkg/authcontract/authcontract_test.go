package authcontract

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
)

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: []byte(secret)}, nil)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	sig, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	token, err := sig.CompactSerialize()
	if err != nil {
		t.Fatalf("CompactSerialize: %v", err)
	}
	return token
}

func TestDecodeValidToken(t *testing.T) {
	claims := Claims{
		Subject:   uuid.New(),
		Username:  "alice",
		Role:      "admin",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	token := sign(t, "shared-secret-that-is-long-enough-for-hs256", claims)

	v := NewVerifier("shared-secret-that-is-long-enough-for-hs256")
	got, err := v.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Username != "alice" || got.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", got)
	}
	if got.Expired(time.Now()) {
		t.Fatal("expected token to not be expired")
	}
}

func TestDecodeWrongSecret(t *testing.T) {
	token := sign(t, "right-secret-that-is-long-enough-for-hs256", Claims{Username: "bob"})

	v := NewVerifier("wrong-secret-that-is-long-enough-for-hs256")
	if _, err := v.Decode(token); err == nil {
		t.Fatal("expected verification to fail with wrong secret")
	}
}

func TestExpired(t *testing.T) {
	c := Claims{ExpiresAt: time.Now().Add(-time.Hour).Unix()}
	if !c.Expired(time.Now()) {
		t.Fatal("expected claims to be expired")
	}
}
