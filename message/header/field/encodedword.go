package field

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxEncodedWordLength is the longest an encoded word may be, per RFC 2047,
// including the charset and encoding framing.
const maxEncodedWordLength = 75

// encodeCharset is the character set used when generating encoded words.
const encodeCharset = "utf-8"

// Word is a run of header text in a single character set. A header body
// parses into a sequence of words: encoded words carry the charset they
// declare, plain text runs carry us-ascii. Content holds the decoded octets
// in the word's charset.
type Word struct {
	Charset string
	Content []byte
}

// Text decodes the word's content into native unicode using the configured
// CharsetDecoder. If the charset is unknown, the raw octets are returned as
// a string.
func (w Word) Text() string {
	s, err := CharsetDecoder(w.Charset, w.Content)
	if err != nil {
		return string(w.Content)
	}
	return s
}

// Words is an ordered sequence of Word values. Concatenating the words
// yields the logical text of the header body.
type Words []Word

// String returns the logical text of the word sequence.
func (ws Words) String() string {
	var out strings.Builder
	for _, w := range ws {
		out.WriteString(w.Text())
	}
	return out.String()
}

// ConvertedText returns the logical text of the word sequence transcoded
// into the named character set using the configured CharsetEncoder.
func (ws Words) ConvertedText(charset string) ([]byte, error) {
	return CharsetEncoder(charset, ws.String())
}

// DecodeWords splits a header body into its Words. Any `=?charset?Q|B?x?=`
// token decodes into a word carrying its declared charset. Whitespace
// between two adjacent encoded words is discarded, per RFC 2047. A token
// that fails to decode is kept as-is in a us-ascii word.
func DecodeWords(body string) Words {
	ws := make(Words, 0, 1)
	var plain bytes.Buffer
	flushPlain := func() {
		if plain.Len() > 0 {
			content := make([]byte, plain.Len())
			copy(content, plain.Bytes())
			ws = append(ws, Word{"us-ascii", content})
			plain.Reset()
		}
	}

	lastEncoded := false
	i := 0
	for i < len(body) {
		start := strings.Index(body[i:], "=?")
		if start < 0 {
			plain.WriteString(body[i:])
			break
		}
		start += i

		charset, content, consumed := decodeEncodedWord(body[start:])
		if consumed == 0 {
			// not actually an encoded word, pass the marker through
			plain.WriteString(body[i : start+2])
			i = start + 2
			lastEncoded = false
			continue
		}

		run := body[i:start]
		discard := lastEncoded && plain.Len() == 0 && strings.Trim(run, " \t") == ""
		if !discard {
			plain.WriteString(run)
		}
		flushPlain()

		ws = append(ws, Word{charset, content})
		i = start + consumed
		lastEncoded = true
	}
	flushPlain()

	return ws
}

// decodeEncodedWord attempts to decode a single encoded word at the start of
// s, which must begin with "=?". It returns the declared charset, the
// decoded octets, and the number of input bytes consumed. A zero consumed
// count means s does not start with a decodable encoded word.
func decodeEncodedWord(s string) (string, []byte, int) {
	rest := s[2:]

	q1 := strings.Index(rest, "?")
	if q1 <= 0 {
		return "", nil, 0
	}

	charset := rest[:q1]
	if strings.ContainsAny(charset, " \t\r\n\"") {
		return "", nil, 0
	}
	// RFC 2231 permits a language tag after the charset
	if ix := strings.Index(charset, "*"); ix >= 0 {
		charset = charset[:ix]
	}
	if charset == "" {
		return "", nil, 0
	}

	if len(rest) < q1+3 || rest[q1+2] != '?' {
		return "", nil, 0
	}
	enc := rest[q1+1]

	textStart := q1 + 3
	end := strings.Index(rest[textStart:], "?=")
	if end < 0 {
		return "", nil, 0
	}
	text := rest[textStart : textStart+end]

	var content []byte
	var err error
	switch enc {
	case 'q', 'Q':
		content, err = decodeQ(text)
	case 'b', 'B':
		content, err = base64.StdEncoding.DecodeString(text)
	default:
		return "", nil, 0
	}
	if err != nil {
		return "", nil, 0
	}

	// consumed covers "=?" + charset + "?" + enc + "?" + text + "?="
	return charset, content, 2 + textStart + end + 2
}

// decodeQ decodes the Q encoding: "_" is a space and "=HH" is the octet with
// hex value HH. Any other use of "=" is an error, which causes the caller to
// keep the whole token undecoded.
func decodeQ(text string) ([]byte, error) {
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '_':
			out = append(out, ' ')
		case '=':
			if i+2 >= len(text) {
				return nil, fmt.Errorf("truncated Q escape %q", text[i:])
			}
			hi, okHi := unhex(text[i+1])
			lo, okLo := unhex(text[i+2])
			if !okHi || !okLo {
				return nil, fmt.Errorf("bad Q escape %q", text[i:i+3])
			}
			out = append(out, hi<<4|lo)
			i += 2
		default:
			out = append(out, c)
		}
	}
	return out, nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

const upperhex = "0123456789ABCDEF"

// qSafe reports whether an octet may appear literally in Q-encoded text.
func qSafe(c byte) bool {
	return c >= '!' && c <= '~' && c != '=' && c != '?' && c != '_'
}

// encodeQ encodes octets using the Q encoding.
func encodeQ(b []byte) string {
	var out strings.Builder
	for _, c := range b {
		switch {
		case c == ' ':
			out.WriteByte('_')
		case qSafe(c):
			out.WriteByte(c)
		default:
			out.WriteByte('=')
			out.WriteByte(upperhex[c>>4])
			out.WriteByte(upperhex[c&0x0f])
		}
	}
	return out.String()
}

// Decode transforms a single header field body, decoding any encoded words
// found in it into native unicode.
func Decode(body string) (string, error) {
	if !strings.Contains(body, "=?") {
		return body, nil
	}
	return DecodeWords(body).String(), nil
}

// Encode transforms a single header field body for output. Bodies that are
// printable ASCII pass through unchanged. Anything else is emitted as a
// sequence of utf-8 encoded words, using the Q encoding when most of the
// payload is ASCII and the B encoding when more than a third of the payload
// octets would need quoting.
func Encode(body string) string {
	if isCleanASCII(body) {
		return body
	}

	data := []byte(body)

	quotable := 0
	for _, c := range data {
		if c != ' ' && !qSafe(c) {
			quotable++
		}
	}

	if quotable*3 > len(data) {
		return encodeWordsB(data)
	}
	return encodeWordsQ(data)
}

// isCleanASCII reports whether the body can be emitted without encoded
// words: printable ASCII (plus tab) with no encoded-word marker.
func isCleanASCII(body string) bool {
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\t' && (c < ' ' || c > '~') {
			return false
		}
	}
	return !strings.Contains(body, "=?")
}

// encodeWordsB splits data on rune boundaries into chunks that keep each
// encoded word within maxEncodedWordLength and emits B-encoded words joined
// by single spaces.
func encodeWordsB(data []byte) string {
	// frame is =?charset?B?...?=, leaving this much room for base64 text
	payload := maxEncodedWordLength - len(encodeCharset) - 7
	chunkLen := payload / 4 * 3

	words := make([]string, 0, len(data)/chunkLen+1)
	for len(data) > 0 {
		n := chunkLen
		if n > len(data) {
			n = len(data)
		}
		// don't split a utf-8 sequence across words
		for n < len(data) && n > 0 && !utf8.RuneStart(data[n]) {
			n--
		}
		if n == 0 {
			n = len(data)
		}
		words = append(words, fmt.Sprintf("=?%s?B?%s?=",
			encodeCharset, base64.StdEncoding.EncodeToString(data[:n])))
		data = data[n:]
	}
	return strings.Join(words, " ")
}

// encodeWordsQ splits data on rune boundaries into chunks that keep each
// encoded word within maxEncodedWordLength and emits Q-encoded words joined
// by single spaces.
func encodeWordsQ(data []byte) string {
	payload := maxEncodedWordLength - len(encodeCharset) - 7

	words := make([]string, 0, 1)
	var chunk strings.Builder
	flush := func() {
		if chunk.Len() > 0 {
			words = append(words, fmt.Sprintf("=?%s?Q?%s?=", encodeCharset, chunk.String()))
			chunk.Reset()
		}
	}

	for len(data) > 0 {
		_, size := utf8.DecodeRune(data)
		enc := encodeQ(data[:size])
		if chunk.Len()+len(enc) > payload {
			flush()
		}
		chunk.WriteString(enc)
		data = data[size:]
	}
	flush()

	return strings.Join(words, " ")
}
