package security

import "testing"

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(4) // min cost keeps the test fast
	hash, err := h.Hash([]byte("correct horse battery"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "correct horse battery" {
		t.Fatal("hash empty or equal to plaintext")
	}
	if err := h.Compare(hash, []byte("correct horse battery")); err != nil {
		t.Errorf("Compare matching password: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong password")); err == nil {
		t.Error("Compare wrong password: want error, got nil")
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if h := NewHasher(0); h.Cost <= 0 {
		t.Errorf("zero cost not defaulted: %d", h.Cost)
	}
	if h := NewHasher(99); h.Cost > 31 {
		t.Errorf("cost not clamped: %d", h.Cost)
	}
}
