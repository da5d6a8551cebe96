package main

import (
	"strings"
	"testing"
)

func TestGenerateMnemonicBitsValidation(t *testing.T) {
	if _, err := generateMnemonic(129); err == nil {
		t.Fatalf("expected invalid mnemonic bits error")
	}
	if _, err := generateMnemonic(128); err != nil {
		t.Fatalf("expected valid mnemonic bits, got %v", err)
	}
}

func TestGenerateMnemonicWordCount(t *testing.T) {
	tests := []struct {
		bits  int
		words int
	}{
		{128, 12},
		{160, 15},
		{192, 18},
		{224, 21},
		{256, 24},
	}
	for _, tt := range tests {
		mnemonic, err := generateMnemonic(tt.bits)
		if err != nil {
			t.Fatalf("generate mnemonic %d: %v", tt.bits, err)
		}
		if got := len(strings.Fields(mnemonic)); got != tt.words {
			t.Fatalf("mnemonic words for %d bits: have %d want %d", tt.bits, got, tt.words)
		}
	}
}

func TestRandomKeyShape(t *testing.T) {
	key := randomKey()
	if len(key) != 64 {
		t.Fatalf("key length = %d, want 64 hex chars", len(key))
	}
	if key == randomKey() {
		t.Fatal("two generated keys match")
	}
}

func TestDeriveKeyFromPassDeterministic(t *testing.T) {
	first := deriveKeyFromPass("correct horse battery staple", "tenebra", 4096)
	second := deriveKeyFromPass("correct horse battery staple", "tenebra", 4096)
	if first != second {
		t.Fatal("passphrase derivation is not deterministic")
	}
	if other := deriveKeyFromPass("correct horse battery staple", "other", 4096); other == first {
		t.Fatal("salt does not change the derived key")
	}
}

func TestDeriveKeyFromPassNormalizesUnicode(t *testing.T) {
	// U+00E9 and U+0065 U+0301 spell the same passphrase.
	composed := deriveKeyFromPass("café", "tenebra", 4096)
	decomposed := deriveKeyFromPass("café", "tenebra", 4096)
	if composed != decomposed {
		t.Fatal("unicode normalization not applied before stretching")
	}
}
