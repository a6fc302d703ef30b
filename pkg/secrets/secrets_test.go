package secrets

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := New("my-secret-encryption-key-32bytes")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	original := "my-secret-token"
	encrypted, err := svc.Encrypt(original)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if encrypted == original {
		t.Fatal("ciphertext should not equal plaintext")
	}

	decrypted, err := svc.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted != original {
		t.Fatalf("decrypted = %q, want %q", decrypted, original)
	}
}

func TestEncryptProducesDifferentCiphertexts(t *testing.T) {
	svc, err := New("short-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a, err := svc.Encrypt("same-plaintext")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Encrypt("same-plaintext")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("expected different ciphertexts for the same plaintext due to random nonces")
	}
}

func TestDecryptRejectsTamperedData(t *testing.T) {
	svc, err := New("another-key")
	if err != nil {
		t.Fatal(err)
	}
	encrypted, err := svc.Encrypt("hello")
	if err != nil {
		t.Fatal(err)
	}

	tampered := []byte(encrypted)
	tampered[len(tampered)-1] ^= 0xff
	if _, err := svc.Decrypt(string(tampered)); err == nil {
		t.Fatal("expected tampered ciphertext to fail decryption")
	}
}
