package utils

import (
    "encoding/hex"
    "testing"
)

func TestNewCheckInToken(t *testing.T) {
    tok, err := NewCheckInToken()
    if err != nil {
        t.Fatalf("NewCheckInToken: %v", err)
    }
    if len(tok) != 64 {
        t.Errorf("token length = %d, want 64", len(tok))
    }
    if _, err := hex.DecodeString(tok); err != nil {
        t.Errorf("token is not valid hex: %v", err)
    }
}

func TestNewCheckInTokenUnique(t *testing.T) {
    seen := make(map[string]struct{})
    for i := 0; i < 100; i++ {
        tok, err := NewCheckInToken()
        if err != nil {
            t.Fatalf("NewCheckInToken: %v", err)
        }
        if _, dup := seen[tok]; dup {
            t.Fatalf("duplicate token after %d draws", i)
        }
        seen[tok] = struct{}{}
    }
}
