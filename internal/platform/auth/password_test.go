package auth

import "testing"

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPassword(hash, "s3cret!") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestHashPassword_Empty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	if CheckPassword("not-a-bcrypt-hash", "anything") {
		t.Error("expected malformed hash to fail")
	}
}
