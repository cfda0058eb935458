package token_test

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aidosbek/loginlink/internal/token"
)

func newCodec() *token.Codec {
	return token.NewCodec(token.Default())
}

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	c := newCodec()
	alphabet := regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	for i := 0; i < 100; i++ {
		raw, err := c.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(raw) != 16 {
			t.Fatalf("len = %d, want 16 (token %q)", len(raw), raw)
		}
		if !alphabet.MatchString(raw) {
			t.Fatalf("token %q contains characters outside the URL-safe alphabet", raw)
		}
	}
}

func TestGenerate_NoDuplicates(t *testing.T) {
	c := newCodec()
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		raw, err := c.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, dup := seen[raw]; dup {
			t.Fatalf("duplicate token %q after %d generations", raw, i)
		}
		seen[raw] = struct{}{}
	}
}

func TestHash_DeterministicHex(t *testing.T) {
	c := newCodec()
	raw := "AAAAAAAAAAAAAAAA"

	h1 := c.Hash(raw)
	h2 := c.Hash(raw)
	if h1 != h2 {
		t.Fatalf("hash not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("digest length = %d, want 64", len(h1))
	}
	if h1 != strings.ToLower(h1) {
		t.Fatalf("digest %q is not lowercase hex", h1)
	}
	if c.Hash("BBBBBBBBBBBBBBBB") == h1 {
		t.Fatal("different inputs produced the same digest")
	}
}

func TestValidFormat(t *testing.T) {
	c := newCodec()

	valid := []string{
		"AAAAAAAAAAAAAAAA",
		"abcdefghijklmnop",
		"0123456789_-aBcD",
	}
	for _, s := range valid {
		if !c.ValidFormat(s) {
			t.Errorf("ValidFormat(%q) = false, want true", s)
		}
	}

	// 15 chars, 17 chars, standard-base64 alphabet, padding, whitespace,
	// control char
	invalid := []string{
		"",
		"AAAAAAAAAAAAAAA",
		"AAAAAAAAAAAAAAAAA",
		"AAAAAAAAAAAAAAA+",
		"AAAAAAAAAAAAAAA/",
		"AAAAAAAAAAAAAAA=",
		"AAAAAAA AAAAAAAA",
		"AAAAAAAAAAAAAAA\n",
	}
	for _, s := range invalid {
		if c.ValidFormat(s) {
			t.Errorf("ValidFormat(%q) = true, want false", s)
		}
	}
}

func TestValidFormat_AcceptsEveryGeneratedToken(t *testing.T) {
	c := newCodec()
	for i := 0; i < 100; i++ {
		raw, err := c.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !c.ValidFormat(raw) {
			t.Fatalf("generated token %q rejected by ValidFormat", raw)
		}
	}
}

func TestMatches(t *testing.T) {
	c := newCodec()
	raw, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !c.Matches(raw, c.Hash(raw)) {
		t.Fatal("Matches rejected the token's own digest")
	}
	if c.Matches(raw, c.Hash("AAAAAAAAAAAAAAAA")) {
		t.Fatal("Matches accepted a foreign digest")
	}
}

func TestNewCodec_ZeroParamsFallBackToDefault(t *testing.T) {
	c := token.NewCodec(token.Params{})
	if c.RawLen() != 16 {
		t.Fatalf("RawLen = %d, want 16", c.RawLen())
	}
	if c.Params().DefaultTTL != time.Hour {
		t.Fatalf("DefaultTTL = %v, want 1h", c.Params().DefaultTTL)
	}
}

func TestNewCodec_AlternateEntropy(t *testing.T) {
	c := token.NewCodec(token.Params{EntropyBytes: 24})
	raw, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("len = %d, want 32 for 24 entropy bytes", len(raw))
	}
	if !c.ValidFormat(raw) {
		t.Fatal("codec rejects its own output")
	}
}
