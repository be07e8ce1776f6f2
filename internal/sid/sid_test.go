package sid_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/eykd/booktree-go/internal/sid"
)

func repeat(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestNew_FromBytes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "zeros", input: repeat(0, sid.Length), want: "AAAAAAAAAAAA"},
		{name: "sequential", input: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, want: "ABCDEFGHIJKL"},
		{name: "last character", input: repeat(61, sid.Length), want: "999999999999"},
		{name: "wraps at alphabet size", input: repeat(62, sid.Length), want: "AAAAAAAAAAAA"},
		{name: "largest accepted byte", input: repeat(247, sid.Length), want: "999999999999"},
		{name: "248 rejected", input: append([]byte{248}, repeat(0, sid.Length)...), want: "AAAAAAAAAAAA"},
		{name: "rejections interleaved", input: []byte{255, 0, 250, 1, 249, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, want: "ABCDEFGHIJKL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sid.New(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("New() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Short reads and rejected bytes both leave the ID partly filled; New keeps
// reading until it is complete.
func TestNew_ShortReads(t *testing.T) {
	input := append(repeat(255, 5), []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}...)

	got, err := sid.New(iotest.OneByteReader(bytes.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ABCDEFGHIJKL" {
		t.Errorf("New() = %q, want %q", got, "ABCDEFGHIJKL")
	}
}

func TestNew_ReaderErrors(t *testing.T) {
	errRead := errors.New("read failed")
	tests := []struct {
		name    string
		r       io.Reader
		wantErr error
	}{
		{name: "reader fails", r: iotest.ErrReader(errRead), wantErr: errRead},
		{name: "too few usable bytes", r: bytes.NewReader([]byte{0, 1, 2, 3, 4, 5}), wantErr: io.ErrUnexpectedEOF},
		{name: "only rejected bytes", r: bytes.NewReader(repeat(255, 5*sid.Length)), wantErr: io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sid.New(tt.r)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "upper", in: "ABCDEFGHIJKL", want: true},
		{name: "mixed", in: "a1b2c3d4e5f6", want: true},
		{name: "digits", in: "012345678901", want: true},
		{name: "too short", in: "ABCDEFGHIJK", want: false},
		{name: "too long", in: "ABCDEFGHIJKLM", want: false},
		{name: "hyphen", in: "ABCDEF-HIJKL", want: false},
		{name: "underscore", in: "ABCDEFGHIJK_", want: false},
		{name: "multibyte letter", in: "ÀBCDEFGHIJ", want: false},
		{name: "slug", in: "introduction", want: true},
		{name: "hyphenated slug", in: "intro-duct10", want: false},
		{name: "empty", in: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sid.Valid(tt.in); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_RandomIDs(t *testing.T) {
	const n = 1000
	seen := make(map[string]bool, n)
	chars := make(map[rune]bool)
	for i := range n {
		got, err := sid.New(rand.Reader)
		if err != nil {
			t.Fatalf("unexpected error on iteration %d: %v", i, err)
		}
		if !sid.Valid(got) {
			t.Fatalf("New() = %q is not Valid", got)
		}
		if seen[got] {
			t.Fatalf("duplicate ID on iteration %d: %q", i, got)
		}
		seen[got] = true
		for _, c := range got {
			chars[c] = true
		}
	}
	if len(chars) != 62 {
		t.Errorf("%d distinct characters in %d IDs, want 62", len(chars), n)
	}
}
