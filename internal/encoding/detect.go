// Package encoding decodes uploaded text files of unknown charset to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names the encoding a reader was decoded from.
type Charset string

const (
	UTF8        Charset = "UTF-8"
	UTF16LE     Charset = "UTF-16LE"
	UTF16BE     Charset = "UTF-16BE"
	Windows1252 Charset = "windows-1252"
	ISO88599    Charset = "ISO-8859-9"
	ISO885915   Charset = "ISO-8859-15"
)

const sniffLen = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// chardet names mapped to the decoders we trust for catalog files.
var detected = map[string]struct {
	charset Charset
	enc     encoding.Encoding
}{
	"ISO-8859-1":   {Windows1252, charmap.Windows1252},
	"windows-1252": {Windows1252, charmap.Windows1252},
	"ISO-8859-9":   {ISO88599, charmap.ISO8859_9},
	"ISO-8859-15":  {ISO885915, charmap.ISO8859_15},
}

// NewUTF8Reader returns a reader that yields r as UTF-8, and the charset it
// decided r was in.
//
// A BOM wins. Otherwise valid UTF-8 passes through, chardet gets a guess
// among the single-byte charsets above, and anything else is read as
// Windows-1252.
func NewUTF8Reader(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peeking input: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, UTF8, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return decode(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), UTF16LE, nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return decode(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)), UTF16BE, nil
	}

	if utf8.Valid(trimPartialRune(buf)) {
		return br, UTF8, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		if d, ok := detected[result.Charset]; ok {
			return decode(br, d.enc), d.charset, nil
		}
	}

	return decode(br, charmap.Windows1252), Windows1252, nil
}

func decode(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}

// trimPartialRune drops a multi-byte sequence cut off by the peek window.
func trimPartialRune(buf []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(buf); i++ {
		if utf8.RuneStart(buf[len(buf)-i]) {
			if !utf8.FullRune(buf[len(buf)-i:]) {
				return buf[:len(buf)-i]
			}

			break
		}
	}

	return buf
}
