package sheet

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestTextReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "byte order mark dropped",
			input: append([]byte{0xEF, 0xBB, 0xBF}, "id,name"...),
			want:  "id,name",
		},
		{
			name:  "no byte order mark",
			input: []byte("id,name"),
			want:  "id,name",
		},
		{
			name:  "empty",
			input: []byte{},
			want:  "",
		},
		{
			name:  "only byte order mark",
			input: []byte{0xEF, 0xBB, 0xBF},
			want:  "",
		},
		{
			name:  "partial byte order mark replaced",
			input: []byte{0xEF, 0xBB, 'a'},
			want:  "��a",
		},
		{
			name:  "multibyte text untouched",
			input: []byte("Zürich,東京"),
			want:  "Zürich,東京",
		},
		{
			name:  "invalid byte replaced",
			input: []byte{'a', 0x80, 'b'},
			want:  "a�b",
		},
		{
			name:  "truncated sequence at end",
			input: []byte{'a', 0xE6, 0x9D},
			want:  "a��",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newTextReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextReader_SmallReads(t *testing.T) {
	input := "größe,東京\n" + string([]byte{0xFF}) + ",x\n"
	want := "größe,東京\n�,x\n"

	// One byte at a time from the source, two bytes at a time to the caller.
	r := newTextReader(iotest.OneByteReader(strings.NewReader(input)))
	var out bytes.Buffer
	buf := make([]byte, 2)
	for {
		n, err := r.Read(buf)
		out.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestCountingReader(t *testing.T) {
	cr := &countingReader{r: strings.NewReader("hello world")}
	if _, err := io.ReadAll(cr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cr.n != 11 {
		t.Errorf("n = %d, want 11", cr.n)
	}
}
