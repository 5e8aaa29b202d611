package linksign

import (
	"bytes"
	"testing"
	"time"
)

func TestSignerLifecycle(t *testing.T) {
	signer, err := NewSigner("test-secret", time.Minute*30)
	if err != nil {
		t.Fatalf("unexpected error creating signer: %v", err)
	}

	token, expiresAt, err := signer.Sign("https://cdn.example/img123.png")
	if err != nil {
		t.Fatalf("unexpected error signing: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("expected future expiry time")
	}

	imageURL, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error verifying: %v", err)
	}
	if imageURL != "https://cdn.example/img123.png" {
		t.Fatalf("expected original url, got %s", imageURL)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner("   ", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewDerivedSigner("", time.Hour); err == nil {
		t.Fatal("expected error for empty key material")
	}
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	signer, _ := NewSigner("secret-a", time.Minute)
	other, _ := NewSigner("secret-b", time.Minute)

	token, _, err := other.Sign("https://cdn.example/img.png")
	if err != nil {
		t.Fatalf("unexpected error signing: %v", err)
	}
	if _, err := signer.Verify(token); err == nil {
		t.Fatal("expected error for token signed with another key")
	}

	issued := time.Now().Add(-time.Hour)
	signer.now = func() time.Time { return issued }
	expired, _, err := signer.Sign("https://cdn.example/img.png")
	if err != nil {
		t.Fatalf("unexpected error signing: %v", err)
	}
	signer.now = time.Now
	if _, err := signer.Verify(expired); err == nil {
		t.Fatal("expected error for expired token")
	}

	if _, err := signer.Verify("not-a-token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestSignRejectsNonHTTPURLs(t *testing.T) {
	signer, _ := NewSigner("secret", time.Minute)
	for _, raw := range []string{"file:///etc/passwd", "ftp://host/x.png", "relative/path.png", ""} {
		if _, _, err := signer.Sign(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestDeriveKeyIsStable(t *testing.T) {
	a, err := DeriveKey("r8_token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := DeriveKey("r8_token")
	c, _ := DeriveKey("r8_other")
	if len(a) != keySize {
		t.Fatalf("expected %d byte key, got %d", keySize, len(a))
	}
	if !bytes.Equal(a, b) {
		t.Fatal("expected identical keys for identical material")
	}
	if bytes.Equal(a, c) {
		t.Fatal("expected different keys for different material")
	}
	if bytes.Equal(a, []byte("r8_token")) {
		t.Fatal("derived key must differ from the raw material")
	}
}
