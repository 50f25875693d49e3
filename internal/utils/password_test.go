package utils

import "testing"

func TestPasswordHashAndCheck(t *testing.T) {
    hash, err := HashPassword("s3cret", 4)
    if err != nil {
        t.Fatalf("HashPassword: %v", err)
    }
    if hash == "s3cret" {
        t.Fatalf("hash must not equal the plaintext")
    }
    if err := CheckPassword(hash, "s3cret"); err != nil {
        t.Fatalf("CheckPassword should match: %v", err)
    }
    if err := CheckPassword(hash, "wrong"); err == nil {
        t.Fatalf("CheckPassword should reject a wrong password")
    }
}
