package sheet

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textReader cleans delimited text before it reaches encoding/csv: a leading
// UTF-8 byte order mark is dropped and every invalid byte becomes U+FFFD.
type textReader struct {
	src     *bufio.Reader
	checked bool

	// Encoded rune bytes that did not fit in the caller's buffer.
	carry []byte
}

func newTextReader(r io.Reader) *textReader {
	return &textReader{src: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (t *textReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !t.checked {
		t.checked = true
		if head, err := t.src.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = t.src.Discard(len(utf8BOM))
		}
	}

	n := 0
	for n < len(p) {
		if len(t.carry) > 0 {
			k := copy(p[n:], t.carry)
			t.carry = t.carry[k:]
			n += k
			continue
		}

		// Don't block for more input once something is ready to return.
		if n > 0 && t.src.Buffered() == 0 {
			break
		}

		r, size, err := t.src.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}

		if r < utf8.RuneSelf && size == 1 {
			p[n] = byte(r)
			n++
			continue
		}

		// ReadRune reports invalid bytes as RuneError of size 1, which
		// encodes to the three byte replacement character.
		var buf [utf8.UTFMax]byte
		k := utf8.EncodeRune(buf[:], r)
		t.carry = append(t.carry[:0], buf[:k]...)
	}
	return n, nil
}

// countingReader tracks how many bytes pass through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
