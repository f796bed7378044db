package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeMaterialKey(t *testing.T) {
	cases := map[string]string{
		"Vinilo 106":   "vinilo106",
		"VINILO-106":   "vinilo106",
		"vinilo_106":   "vinilo106",
		"  lona 320  ": "lona320",
		"":             "",
		"   ":          "",
	}
	for input, want := range cases {
		if got := NormalizeMaterialKey(input); got != want {
			t.Errorf("NormalizeMaterialKey(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("cliente@example.com") {
		t.Error("valid address rejected")
	}
	for _, bad := range []string{"", "no-at-sign", "a@", "@example.com"} {
		if IsValidEmail(bad) {
			t.Errorf("IsValidEmail(%q) = true, want false", bad)
		}
	}
}

func TestTruncateErrorMessage(t *testing.T) {
	if got := TruncateErrorMessage(nil, 10); got != "" {
		t.Fatalf("nil error should truncate to empty, got %q", got)
	}
	short := errors.New("boom")
	if got := TruncateErrorMessage(short, 10); got != "boom" {
		t.Fatalf("got %q, want boom", got)
	}
	long := errors.New(strings.Repeat("x", 2000))
	if got := TruncateErrorMessage(long, 1000); len(got) != 1000 {
		t.Fatalf("got %d chars, want 1000", len(got))
	}
}

func TestDereferencePtr(t *testing.T) {
	v := 42
	if got := DereferencePtr(&v, 0); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	if got := DereferencePtr[int](nil, 7); got != 7 {
		t.Fatalf("got %d, want default 7", got)
	}
}
