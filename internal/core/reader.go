package core

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// utf8BOM is the byte order mark some spreadsheet exports prepend to UTF-8
// files. The CSV parser would otherwise fold it into the first header name.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sanitizedReader wraps a source file and yields clean UTF-8: a leading BOM
// is dropped and invalid byte sequences are replaced with '?'. The single
// byte '?' is used instead of utf8.RuneError so sanitizing never grows the
// data beyond the caller's buffer.
type sanitizedReader struct {
	src *bufio.Reader

	checkedBOM bool
}

func newSanitizedReader(r io.Reader) *sanitizedReader {
	return &sanitizedReader{src: bufio.NewReader(r)}
}

func (s *sanitizedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !s.checkedBOM {
		s.checkedBOM = true
		head, err := s.src.Peek(len(utf8BOM))
		if err == nil && head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
			s.src.Discard(len(utf8BOM))
		}
	}

	n := 0
	for n < len(p) {
		r, size, err := s.src.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}
		if n+size > len(p) {
			s.src.UnreadRune()
			return n, nil
		}
		n += utf8.EncodeRune(p[n:], r)
	}
	return n, nil
}
