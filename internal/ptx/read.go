package ptx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrBinary is returned for content that looks like a binary object
	// (cubin, fatbin) rather than PTX text.
	ErrBinary = errors.New("binary content")

	// ErrInvalidUTF8 is returned for content that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// binaryCheckSize is how much leading content is probed for NUL bytes.
const binaryCheckSize = 1024

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Read reads all of r and splits it into a Module.
// A UTF-8 byte order mark is stripped and UTF-16 content with a byte
// order mark is decoded. Lines end at "\n", "\r\n" or a lone "\r";
// terminators are not part of the line and a final terminator does not
// start an empty line.
func Read(r io.Reader, name, path string) (*Module, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return &Module{name: name, path: path, lines: SplitLines(text)}, nil
}

// Decode converts raw module bytes into text.
func Decode(raw []byte) (string, error) {
	if !bytes.HasPrefix(raw, bomUTF16LE) && !bytes.HasPrefix(raw, bomUTF16BE) {
		probe := raw[:min(len(raw), binaryCheckSize)]
		if bytes.IndexByte(probe, 0) >= 0 {
			return "", ErrBinary
		}
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w at byte %d", ErrInvalidUTF8, firstInvalid(raw))
		}
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// SplitLines splits text into lines without terminators.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func firstInvalid(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
