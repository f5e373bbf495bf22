package auth

import "testing"

func TestTokenVerifierArgon2id(t *testing.T) {
	hash, err := HashToken("secret-token")
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	v := NewTokenVerifier(hash)

	ok, err := v.Verify("secret-token")
	if err != nil || !ok {
		t.Fatalf("expected valid token to verify, ok=%v err=%v", ok, err)
	}

	ok, err = v.Verify("wrong-token")
	if err != nil || ok {
		t.Fatalf("expected invalid token to fail verification, ok=%v err=%v", ok, err)
	}
}

func TestTokenVerifierSHA256Legacy(t *testing.T) {
	hash := sha256Hex("legacy-token")
	v := NewTokenVerifier(hash)

	ok, err := v.Verify("legacy-token")
	if err != nil || !ok {
		t.Fatalf("expected legacy hash to verify, ok=%v err=%v", ok, err)
	}
}

func TestTokenVerifierUnknownHashType(t *testing.T) {
	v := NewTokenVerifier("not-a-recognized-hash")
	_, err := v.Verify("anything")
	if err != ErrUnknownHashType {
		t.Fatalf("expected ErrUnknownHashType, got %v", err)
	}
}

func TestTokenVerifierMalformedArgon2idDoesNotPanic(t *testing.T) {
	v := NewTokenVerifier("$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA")
	_, err := v.Verify("anything")
	if err == nil {
		t.Fatal("expected error for malformed argon2id parameters")
	}
}
