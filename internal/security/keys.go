package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalidKey is returned when key material cannot be decoded or the key
// type cannot sign the tokens this backend issues.
var ErrInvalidKey = errors.New("invalid key")

// LoadSigningKey parses the token-signing private key. The value may be
// inline PEM or a path to a PEM file. RSA keys sign RS256 tokens and P-256
// keys ES256; anything else is rejected here so a misconfigured key fails at
// startup rather than on the first login.
func LoadSigningKey(value string) (crypto.Signer, error) {
	block, err := decodeKeyMaterial(value)
	if err != nil {
		return nil, err
	}
	var key any
	switch block.Type {
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unsupported PEM block %q", ErrInvalidKey, block.Type)
	}
	if err != nil {
		return nil, err
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, ErrInvalidKey
	}
	if err := checkTokenKey(signer.Public()); err != nil {
		return nil, err
	}
	return signer, nil
}

// LoadVerifyKey parses the public half used to validate tokens. The value may
// be inline PEM or a path to a PEM file; when the config leaves it empty the
// caller derives it from the signing key instead.
func LoadVerifyKey(value string) (crypto.PublicKey, error) {
	block, err := decodeKeyMaterial(value)
	if err != nil {
		return nil, err
	}
	var pub crypto.PublicKey
	switch block.Type {
	case "PUBLIC KEY":
		pub, err = x509.ParsePKIXPublicKey(block.Bytes)
	case "RSA PUBLIC KEY":
		pub, err = x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unsupported PEM block %q", ErrInvalidKey, block.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := checkTokenKey(pub); err != nil {
		return nil, err
	}
	return pub, nil
}

// decodeKeyMaterial accepts inline PEM or a file path and returns the first
// PEM block.
func decodeKeyMaterial(value string) (*pem.Block, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrInvalidKey
	}
	raw := []byte(value)
	if !strings.HasPrefix(value, "-----BEGIN") {
		b, err := os.ReadFile(value)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, ErrInvalidKey
	}
	return block, nil
}

// checkTokenKey rejects keys no supported signing method covers.
func checkTokenKey(pub crypto.PublicKey) error {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return nil
	case *ecdsa.PublicKey:
		if k.Curve != elliptic.P256() {
			return fmt.Errorf("%w: ECDSA curve %s, want P-256", ErrInvalidKey, k.Curve.Params().Name)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported key type %T", ErrInvalidKey, pub)
	}
}
