package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	sniffSize = 8 << 10
	// Fallback is used when detection is inconclusive.
	Fallback = "windows-1252"
)

var boms = []struct {
	prefix  []byte
	charset string
}{
	{[]byte{0xEF, 0xBB, 0xBF}, "UTF-8"},
	{[]byte{0xFF, 0xFE}, "UTF-16LE"},
	{[]byte{0xFE, 0xFF}, "UTF-16BE"},
}

// charsets maps chardet names to decoders. Bank exports in this corpus are
// mostly Western European or Cyrillic single-byte code pages.
var charsets = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8,
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"iso-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"iso-8859-9":   charmap.ISO8859_9,
	"iso-8859-15":  charmap.ISO8859_15,
	"iso-8859-5":   charmap.ISO8859_5,
	"windows-1251": charmap.Windows1251,
	"koi8-r":       charmap.KOI8R,
	"koi8-u":       charmap.KOI8U,
}

// ForCharset returns the decoder for a charset name, or nil when unsupported.
func ForCharset(name string) encoding.Encoding {
	return charsets[strings.ToLower(name)]
}

// Decode sniffs the input's charset and returns a UTF-8 reader plus the charset
// name that was used.
//
// Detection order:
//  1. Byte order mark (a UTF-8 BOM is stripped)
//  2. Valid UTF-8 is passed through
//  3. chardet's best guess, if it is a supported charset
//  4. Fallback
func Decode(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	buf, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	for _, bom := range boms {
		if !bytes.HasPrefix(buf, bom.prefix) {
			continue
		}

		if bom.charset == "UTF-8" {
			_, _ = br.Discard(len(bom.prefix))
			return br, bom.charset, nil
		}

		return transform.NewReader(br, ForCharset(bom.charset).NewDecoder()), bom.charset, nil
	}

	if utf8.Valid(trimPartialRune(buf)) {
		return br, "UTF-8", nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		if enc := ForCharset(result.Charset); enc != nil {
			if enc == unicode.UTF8 {
				return br, result.Charset, nil
			}

			return transform.NewReader(br, enc.NewDecoder()), result.Charset, nil
		}
	}

	return transform.NewReader(br, ForCharset(Fallback).NewDecoder()), Fallback, nil
}

// trimPartialRune drops a multi-byte sequence cut off by the sniff window.
func trimPartialRune(buf []byte) []byte {
	if len(buf) < sniffSize {
		return buf
	}

	for i := 1; i <= utf8.UTFMax && i <= len(buf); i++ {
		if utf8.RuneStart(buf[len(buf)-i]) {
			if !utf8.FullRune(buf[len(buf)-i:]) {
				return buf[:len(buf)-i]
			}

			break
		}
	}

	return buf
}
