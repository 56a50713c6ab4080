package field

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// asciiSub is substituted for characters that cannot be represented in the
// target encoding by the default encoder.
const asciiSub = "\x1a"

// Encoder represents the character encoding function used by this package to
// transform text supplied in native unicode format into the character set
// named by charset.
//
// If the target charset is not supported, bytes should be returned as nil
// and an error should be returned.
type Encoder func(charset, s string) ([]byte, error)

// Decoder represents the character decoding function used by this package
// for transforming parsed octets in arbitrary text encodings into native
// unicode.
//
// If the source charset is not supported, an empty string should be returned
// along with an error.
type Decoder func(charset string, b []byte) (string, error)

var (
	// CharsetEncoder is the Encoder used for outputting unicode strings as
	// octets in the target character set. You may replace this with a custom
	// encoder. To get an encoder that handles every charset in the IANA
	// registry, import the encoding package:
	//
	//	import _ "github.com/josusky/vmime/message/header/encoding"
	CharsetEncoder Encoder = DefaultCharsetEncoder

	// CharsetDecoder is the Decoder used for transforming input octets into
	// unicode. You may replace this with a custom decoder. To get a decoder
	// that handles every charset in the IANA registry, import the encoding
	// package:
	//
	//	import _ "github.com/josusky/vmime/message/header/encoding"
	CharsetDecoder Decoder = DefaultCharsetDecoder
)

// DefaultCharsetEncoder is the default encoder. It handles us-ascii, utf-8,
// and iso-8859-1 only. Anything else results in an error.
//
// When outputting us-ascii or iso-8859-1, any character that does not fit in
// the target set is replaced with the ASCII SUB character.
func DefaultCharsetEncoder(charset, s string) ([]byte, error) {
	switch strings.ToLower(charset) {
	case "us-ascii", "ascii", "":
		var out strings.Builder
		for _, c := range s {
			if c < 128 {
				out.WriteRune(c)
			} else {
				out.WriteString(asciiSub)
			}
		}
		return []byte(out.String()), nil
	case "utf-8", "utf8":
		return []byte(s), nil
	case "iso-8859-1", "latin1":
		out := make([]byte, 0, len(s))
		for _, c := range s {
			if c < 256 {
				out = append(out, byte(c))
			} else {
				out = append(out, asciiSub[0])
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", charset)
}

// DefaultCharsetDecoder is the default decoder. It handles us-ascii, utf-8,
// and iso-8859-1 only. Anything else results in an error. Octets invalid in
// the source set decode to unicode.ReplacementChar.
func DefaultCharsetDecoder(charset string, b []byte) (string, error) {
	switch strings.ToLower(charset) {
	case "us-ascii", "ascii", "":
		var out strings.Builder
		for _, c := range b {
			if c < 128 {
				out.WriteByte(c)
			} else {
				out.WriteRune(unicode.ReplacementChar)
			}
		}
		return out.String(), nil
	case "utf-8", "utf8":
		if !utf8.Valid(b) {
			return string(bytes2runes(b)), nil
		}
		return string(b), nil
	case "iso-8859-1", "latin1":
		var out strings.Builder
		for _, c := range b {
			out.WriteRune(rune(c))
		}
		return out.String(), nil
	}
	return "", fmt.Errorf("unsupported charset %q", charset)
}

// bytes2runes replaces invalid utf-8 sequences with replacement characters.
func bytes2runes(b []byte) []rune {
	out := make([]rune, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out = append(out, r)
		b = b[size:]
	}
	return out
}
