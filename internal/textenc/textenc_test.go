package textenc

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestDecodeUTF8Passthrough(t *testing.T) {
	for _, s := range []string{
		"Иванов Иван Иванович",
		"plain ascii text",
		"mixed: Иванов and latin",
	} {
		if got := Decode([]byte(s)); got != s {
			t.Errorf("Decode(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestDecodeWindows1251(t *testing.T) {
	const text = "ФИО: Иванов Иван Иванович"
	raw, err := charmap.Windows1251.NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	if got := Decode(raw); got != text {
		t.Errorf("Decode(cp1251 bytes) = %q, want %q", got, text)
	}
}

func TestDecodeCodePage866(t *testing.T) {
	// cp866 encodes lowercase Cyrillic in a range cp1251 maps to letters
	// too, so decoding recovers readable letters rather than the exact
	// original; the requirement is letters out, not byte fidelity
	const text = "иванов иван"
	raw, err := charmap.CodePage866.NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	if got := Decode(raw); !HasLetters(got) {
		t.Errorf("Decode(cp866 bytes) = %q, want letters", got)
	}
}

func TestDecodeUndecodableReturnsInput(t *testing.T) {
	const s = "12345 --- !!!"
	if got := Decode([]byte(s)); got != s {
		t.Errorf("Decode(%q) = %q, want the input back", s, got)
	}
}

func TestHasLetters(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Иванов", true},
		{"abc", true},
		{"12345", false},
		{"", false},
		{"  \n\t", false},
		{"!!! ??? 42", false},
		// invalid UTF-8 decodes to replacement runes, which are not letters
		{string([]byte{0xC8, 0xE2, 0xE0}), false},
	}
	for _, c := range cases {
		if got := HasLetters(c.in); got != c.want {
			t.Errorf("HasLetters(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
