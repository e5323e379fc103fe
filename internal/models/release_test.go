package models

import "testing"

func TestValidTicket(t *testing.T) {
	valid := []string{"BWD-123", "A-1", "ABCDEFGHIJ-999"}
	for _, s := range valid {
		if !ValidTicket(s) {
			t.Errorf("ValidTicket(%q) = false, want true", s)
		}
	}

	invalid := []string{
		"bwd-123",
		"BWD123",
		"BWD-",
		"-123",
		"ABCDEFGHIJK-123", // 11-letter prefix
		"BWD-12a",
		"BWD 123",
		"",
	}
	for _, s := range invalid {
		if ValidTicket(s) {
			t.Errorf("ValidTicket(%q) = true, want false", s)
		}
	}
}
