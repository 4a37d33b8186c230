package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSigningKey_InlinePEM(t *testing.T) {
	signer, err := LoadSigningKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("LoadSigningKey: %v", err)
	}
	if _, ok := signer.Public().(*rsa.PublicKey); !ok {
		t.Errorf("public key type: %T, want *rsa.PublicKey", signer.Public())
	}
}

func TestLoadSigningKey_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, []byte(testPrivateKeyPEM), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	if _, err := LoadSigningKey(path); err != nil {
		t.Errorf("LoadSigningKey from file: %v", err)
	}
}

func TestLoadSigningKey_RejectsBadMaterial(t *testing.T) {
	if _, err := LoadSigningKey(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty value: got %v, want ErrInvalidKey", err)
	}
	// A public block is not signing material.
	if _, err := LoadSigningKey(testPublicKeyPEM); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("public block: got %v, want ErrInvalidKey", err)
	}
}

func TestLoadSigningKey_RejectsUnsupportedCurve(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
	if _, err := LoadSigningKey(pemStr); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("P-384 key: got %v, want ErrInvalidKey", err)
	}
}

func TestLoadVerifyKey(t *testing.T) {
	pub, err := LoadVerifyKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("LoadVerifyKey: %v", err)
	}
	if _, ok := pub.(*rsa.PublicKey); !ok {
		t.Errorf("key type: %T, want *rsa.PublicKey", pub)
	}
	if _, err := LoadVerifyKey(testPrivateKeyPEM); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("private block: got %v, want ErrInvalidKey", err)
	}
}
