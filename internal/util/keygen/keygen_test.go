package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestGenerateRSAKeyPair(t *testing.T) {
	t.Parallel()

	keyPair, err := GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair failed: %v", err)
	}

	block, _ := pem.Decode(keyPair.PrivateKey)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		t.Fatalf("expected an RSA PRIVATE KEY PEM block, got %v", block)
	}
	if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err != nil {
		t.Fatalf("private key is not PKCS#1: %v", err)
	}

	if !strings.HasPrefix(string(keyPair.PublicKey), "ssh-rsa ") {
		t.Errorf("expected authorized_keys format, got %q", keyPair.PublicKey)
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey(keyPair.PublicKey); err != nil {
		t.Errorf("public key does not parse: %v", err)
	}
}

func TestGenerateRSAKeyPair_InvalidBits(t *testing.T) {
	t.Parallel()

	if _, err := GenerateRSAKeyPair(0); err == nil {
		t.Fatal("expected error for zero bit size")
	}
}

func TestEncryptPassword(t *testing.T) {
	t.Parallel()

	keyPair, err := GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair failed: %v", err)
	}

	encrypted, err := EncryptPassword(keyPair.PublicKey, "s3cret!")
	if err != nil {
		t.Fatalf("EncryptPassword failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		t.Fatalf("result is not base64: %v", err)
	}
	key, err := ssh.ParseRawPrivateKey(keyPair.PrivateKey)
	if err != nil {
		t.Fatalf("failed to parse private key: %v", err)
	}
	plain, err := rsa.DecryptPKCS1v15(rand.Reader, key.(*rsa.PrivateKey), raw)
	if err != nil {
		t.Fatalf("failed to decrypt: %v", err)
	}
	if string(plain) != "s3cret!" {
		t.Errorf("expected s3cret!, got %q", plain)
	}
}

func TestEncryptPassword_InvalidKey(t *testing.T) {
	t.Parallel()

	if _, err := EncryptPassword([]byte("not a key"), "x"); err == nil {
		t.Fatal("expected error for invalid public key")
	}
}
