package mmarket

import (
	"errors"
	"strings"
	"testing"
)

const sampleFile = `%%MatrixMarket matrix coordinate pattern general
% generated by hand
%
5 5 4
1 2
2 3 0.5
3 4
4 5
`

func TestDecoderSample(t *testing.T) {
	dec, err := NewDecoder(strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}

	h := dec.Header()
	if h.Rows != 5 || h.Cols != 5 || h.NonZeros != 4 {
		t.Fatalf("Header() = %+v, want {5 5 4}", h)
	}
	if !h.Square() {
		t.Error("Square() = false, want true")
	}

	var edges [][2]uint
	err = dec.Edges(func(i, j uint) error {
		edges = append(edges, [2]uint{i, j})
		return nil
	})
	if err != nil {
		t.Fatalf("Edges failed: %v", err)
	}

	want := [][2]uint{{1, 2}, {2, 3}, {3, 4}, {4, 5}}
	if len(edges) != len(want) {
		t.Fatalf("got %d edges, want %d", len(edges), len(want))
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("edge %d = %v, want %v", i, edges[i], want[i])
		}
	}
}

func TestDecoderNonSquare(t *testing.T) {
	input := "%%MatrixMarket matrix coordinate pattern general\n3 5 1\n1 2\n"
	dec, err := NewDecoder(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	if dec.Header().Square() {
		t.Error("Square() = true for a 3 x 5 matrix")
	}
}

func TestDecoderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty input", "", ErrBadBanner},
		{"wrong banner", "%%MatrixMarket matrix array real general\n5 5 4\n", ErrBadBanner},
		{"not a banner at all", "hello world\n", ErrBadBanner},
		{"missing size line", "%%MatrixMarket matrix coordinate pattern general\n% only comments\n", ErrBadSize},
		{"garbled size line", "%%MatrixMarket matrix coordinate pattern general\nfive by five\n", ErrBadSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDecoder(strings.NewReader(tt.input)); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewDecoder error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecoderBadEntry(t *testing.T) {
	input := "%%MatrixMarket matrix coordinate pattern general\n2 2 2\n1 2\nnot an entry\n"
	dec, err := NewDecoder(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	err = dec.Edges(func(i, j uint) error { return nil })
	if err == nil {
		t.Fatal("Edges accepted a malformed entry line")
	}
}

func TestDecoderCallbackError(t *testing.T) {
	sentinel := errors.New("stop")
	dec, err := NewDecoder(strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}

	calls := 0
	err = dec.Edges(func(i, j uint) error {
		calls++
		if calls == 2 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Edges error = %v, want sentinel", err)
	}
	if calls != 2 {
		t.Errorf("callback ran %d times after requesting stop, want 2", calls)
	}
}
