package util

import "testing"

func TestGenTempID(t *testing.T) {
	a, b := GenTempID(), GenTempID()
	if a == b {
		t.Fatalf("Expected distinct ids, got %s twice", a)
	}
	if !IsTempID(a) {
		t.Errorf("Expected %s to be a temporary id", a)
	}
	if IsTempID(GenUUID()) {
		t.Errorf("Plain uuid must not be a temporary id")
	}
}

func TestRandomString(t *testing.T) {
	s, err := RandomString(32)
	if err != nil {
		t.Fatalf("Error generating random string: %v", err)
	}
	if len(s) != 32 {
		t.Errorf("Expected length 32, got %d", len(s))
	}
}

func TestHasPrefixes(t *testing.T) {
	if !HasPrefixes("/api/books/1", "/api/auth", "/api/books") {
		t.Error("Expected prefix match")
	}
	if HasPrefixes("/healthcheck", "/api") {
		t.Error("Unexpected prefix match")
	}
}
