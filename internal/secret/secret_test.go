package secret

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return NewSealer(key)
}

func TestSealOpen(t *testing.T) {
	s := newTestSealer(t)
	sealed, err := s.Seal("Admin@2024!Complex")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if strings.Contains(sealed, "Admin@2024") {
		t.Fatalf("sealed value carries plaintext: %s", sealed)
	}
	again, _ := s.Seal("Admin@2024!Complex")
	if again == sealed {
		t.Fatalf("nonce reused: identical ciphertexts")
	}
	plain, err := s.Open(sealed)
	if err != nil || plain != "Admin@2024!Complex" {
		t.Fatalf("open = %q, %v", plain, err)
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	sealed, _ := newTestSealer(t).Seal("123456")
	if _, err := newTestSealer(t).Open(sealed); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if _, err := newTestSealer(t).Open("not base64!"); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen for garbage, got %v", err)
	}
}

func TestParseKey(t *testing.T) {
	key, _ := GenerateKey()
	parsed, err := ParseKey(EncodeKey(key))
	if err != nil || parsed != key {
		t.Fatalf("base64 round trip failed: %v", err)
	}
	hexKey := strings.Repeat("ab", 32)
	if _, err := ParseKey(hexKey); err != nil {
		t.Fatalf("hex key rejected: %v", err)
	}
	for _, bad := range []string{"short", strings.Repeat("ab", 16)} {
		if _, err := ParseKey(bad); err == nil {
			t.Fatalf("bad key %q accepted", bad)
		}
	}
}

func TestFromConfig(t *testing.T) {
	if _, ephemeral, err := FromConfig(""); err != nil || !ephemeral {
		t.Fatalf("empty key: ephemeral=%v err=%v", ephemeral, err)
	}
	key, _ := GenerateKey()
	if _, ephemeral, err := FromConfig(EncodeKey(key)); err != nil || ephemeral {
		t.Fatalf("configured key: ephemeral=%v err=%v", ephemeral, err)
	}
}

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"123456":                  "****",
		"summer2023":              "s...3",
		"AIzaSyD-EXAMPLE-KEY-1234": "AIza...1234",
		"çãoçãoçã":                 "****",
		"ésenha-forteñ":            "é...ñ",
		"пароль-очень-длинный":     "паро...нный",
	}
	for in, want := range cases {
		got := Redact(in)
		if got != want {
			t.Fatalf("Redact(%q) = %q, want %q", in, got, want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("Redact(%q) produced invalid UTF-8 %q", in, got)
		}
	}
}

func TestSealedKey(t *testing.T) {
	if !SealedKey("gemini_api_key") || SealedKey("theme") {
		t.Fatalf("unexpected SealedKey classification")
	}
}

func TestSealReportsNonceFailure(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	s := NewSealerWithReader(key, strings.NewReader("short"))
	if _, err := s.Seal("x"); err == nil || !strings.Contains(err.Error(), "read nonce") {
		t.Fatalf("expected nonce error, got %v", err)
	}
}
