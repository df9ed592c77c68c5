package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"
)

func hs256Config() Config {
	return Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "aaa-test",
	}
}

func TestSignAndParseRoundTrip(t *testing.T) {
	codec, err := NewCodec(hs256Config())
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	signed, issued, err := codec.Sign("user-1", "student", "fam-1", TypeAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if issued.ID == "" {
		t.Fatal("expected a jti to be assigned")
	}

	claims, err := codec.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != "student" || claims.FamilyID != "fam-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TokenType != TypeAccess {
		t.Fatalf("expected access type, got %q", claims.TokenType)
	}
	if claims.ID != issued.ID {
		t.Fatalf("jti mismatch: %q vs %q", claims.ID, issued.ID)
	}
	if remaining := claims.ExpiresIn(); remaining <= 0 || remaining > 15*time.Minute {
		t.Fatalf("unexpected remaining lifetime %v", remaining)
	}
}

func TestSignAssignsUniqueJTIs(t *testing.T) {
	codec, err := NewCodec(hs256Config())
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		_, claims, err := codec.Sign("user-1", "student", "fam-1", TypeRefresh)
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		if seen[claims.ID] {
			t.Fatalf("duplicate jti %q", claims.ID)
		}
		seen[claims.ID] = true
	}
}

func TestParseExpired(t *testing.T) {
	cfg := hs256Config()
	cfg.AccessTTL = time.Millisecond
	codec, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	signed, _, err := codec.Sign("user-1", "student", "fam-1", TypeAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := codec.Parse(signed); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestParseMalformed(t *testing.T) {
	codec, err := NewCodec(hs256Config())
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	cases := []string{
		"",
		"not-a-token",
		"aaaa.bbbb.cccc",
	}
	for _, raw := range cases {
		if _, err := codec.Parse(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %q, got %v", raw, err)
		}
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	codec, err := NewCodec(hs256Config())
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	other := hs256Config()
	other.PrivateKey = []byte("ffffffffffffffffffffffffffffffff")
	foreign, err := NewCodec(other)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	signed, _, err := foreign.Sign("user-1", "admin", "fam-1", TypeAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := codec.Parse(signed); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for foreign signature, got %v", err)
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	codec, err := NewCodec(Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	signed, _, err := codec.Sign("user-2", "admin", "fam-2", TypeRefresh)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := codec.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.TokenType != TypeRefresh || claims.Subject != "user-2" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestNewCodecRejectsBadConfig(t *testing.T) {
	cfg := hs256Config()
	cfg.AccessTTL = 0
	if _, err := NewCodec(cfg); err == nil {
		t.Fatal("expected zero access TTL to be rejected")
	}

	cfg = hs256Config()
	cfg.RefreshTTL = time.Minute
	cfg.AccessTTL = time.Hour
	if _, err := NewCodec(cfg); err == nil {
		t.Fatal("expected refresh TTL shorter than access TTL to be rejected")
	}

	cfg = hs256Config()
	cfg.PrivateKey = nil
	if _, err := NewCodec(cfg); err == nil {
		t.Fatal("expected missing hs256 key to be rejected")
	}
}
