package message

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/josusky/vmime/internal/scanner"
	"github.com/josusky/vmime/message/header"
	"github.com/josusky/vmime/message/header/field"
	"github.com/josusky/vmime/message/transfer"
)

// Constants related to Parse() options.
const (
	// DefaultMaxMultipartDepth is the default depth the parser will recurse
	// into a message.
	DefaultMaxMultipartDepth = 10

	// DefaultChunkSize is the default size of chunks to read from the input
	// while splitting the message into header and body.
	DefaultChunkSize = 16_384

	// DefaultMaxHeaderLength is the default maximum byte length to scan
	// before giving up on finding the end of the header.
	DefaultMaxHeaderLength = bufio.MaxScanTokenSize

	// DefaultMaxPartLength is the default maximum byte length to scan before
	// giving up on scanning a message part at any given level.
	DefaultMaxPartLength = bufio.MaxScanTokenSize
)

// Errors that occur during parsing.
var (
	// ErrLargeHeader is returned by Parse when the header is longer than the
	// configured WithMaxHeaderLength option (or the default,
	// DefaultMaxHeaderLength).
	ErrLargeHeader = errors.New("the header exceeds the maximum parse length")

	// ErrLargePart is returned by Parse when a part is longer than the
	// configured WithMaxPartLength option (or the default,
	// DefaultMaxPartLength).
	ErrLargePart = errors.New("a message part exceeds the maximum parse length")
)

// The header/body splits we accept, in the order we check for them. The
// first half of each split is the line break in use.
var splits = [][]byte{
	[]byte("\x0d\x0a\x0d\x0a"), // \r\n\r\n
	[]byte("\x0a\x0d\x0a\x0d"), // \n\r\n\r, extremely unlikely, possibly never
	[]byte("\x0a\x0a"),         // \n\n
	[]byte("\x0d\x0d"),         // \r\r
}

type parser struct {
	maxHeaderLen int
	maxPartLen   int
	maxDepth     int
	chunkSize    int
	decode       bool
}

func (pr *parser) clone() *parser {
	p := *pr
	return &p
}

var defaultParser = &parser{
	maxHeaderLen: DefaultMaxHeaderLength,
	maxPartLen:   DefaultMaxPartLength,
	maxDepth:     DefaultMaxMultipartDepth,
	chunkSize:    DefaultChunkSize,
	decode:       false,
}

// ParseOption refers to options that may be passed to the Parse function to
// modify how the parser works.
type ParseOption func(pr *parser)

// WithMaxHeaderLength is a ParseOption that sets the maximum size the buffer
// is allowed to reach before parsing exits with an ErrLargeHeader error.
// This setting prevents bad input from resulting in an out of memory error.
// Setting this to a value less than or equal to 0 removes the limit. The
// default value is DefaultMaxHeaderLength.
func WithMaxHeaderLength(n int) ParseOption {
	return func(pr *parser) { pr.maxHeaderLen = n }
}

// WithMaxPartLength is a ParseOption that sets the maximum size the buffer
// is allowed to reach while scanning for message parts at any level. If a
// part gets too large, Parse will fail with an ErrLargePart error.
func WithMaxPartLength(n int) ParseOption {
	return func(pr *parser) { pr.maxPartLen = n }
}

// DecodeTransferEncoding is a ParseOption that enables the decoding of
// Content-transfer-encoding. By default, Content-transfer-encoding will not
// be decoded, which allows for safer round-tripping of messages. However,
// if you want to display or process the message body, you will want to
// enable this.
func DecodeTransferEncoding() ParseOption {
	return func(pr *parser) { pr.decode = true }
}

// WithChunkSize is a ParseOption that controls how many bytes to read at a
// time while parsing a message. The default chunk size is DefaultChunkSize.
func WithChunkSize(chunkSize int) ParseOption {
	return func(pr *parser) { pr.chunkSize = chunkSize }
}

// WithMaxDepth is a ParseOption that controls how deep the parser will go in
// recursively parsing a multipart message. This is set to
// DefaultMaxMultipartDepth by default.
func WithMaxDepth(maxDepth int) ParseOption {
	return func(pr *parser) { pr.maxDepth = maxDepth }
}

// WithoutMultipart is a ParseOption that will not allow parsing of any
// multipart messages. The message returned from Parse() will always be
// *Opaque.
//
// You should use this option if all you are interested in is the top-level
// headers. For large messages, use of this option can grant extreme
// improvements to memory performance, because only a single chunk of the
// body will have been read and the rest of the input io.Reader is left
// unread.
func WithoutMultipart() ParseOption {
	return func(pr *parser) { pr.maxDepth = 0 }
}

// WithoutRecursion is a ParseOption that will only allow a single level of
// multipart parsing.
func WithoutRecursion() ParseOption {
	return func(pr *parser) { pr.maxDepth = 1 }
}

// WithUnlimitedRecursion is a ParseOption that will allow the parser to
// parse sub-parts of any depth.
func WithUnlimitedRecursion() ParseOption {
	return func(pr *parser) { pr.maxDepth = -1 }
}

// searchForSplit looks for a header/body split. Returns -1, nil if none is
// found. If the header/body split is found, it returns the location of the
// split (including the split newlines) and the line break to use with the
// header as a slice of bytes.
func searchForSplit(buf []byte, subpart bool) (pos int, crlf []byte) {
	if subpart {
		// if the header is empty, the first char might be a line break,
		// indicating an empty header. It happens.
		for _, s := range splits {
			if testPos := bytes.Index(buf, s[0:len(s)/2]); testPos == 0 {
				pos = testPos + len(s)/2
				crlf = s[0 : len(s)/2]
				return
			}
		}
	}

	// Find the split between header/body
	pos = -1
	for _, s := range splits {
		if testPos := bytes.Index(buf, s); testPos > -1 {
			pos = testPos + len(s)
			crlf = s[0 : len(s)/2]
			return
		}
	}
	return
}

// splitHeadFromBody will detect the index of the split between the message
// header and the message body as well as the line break the message is
// using. It returns the header octets, the line break, and a reader holding
// the body.
func (pr *parser) splitHeadFromBody(r io.Reader, subpart bool) ([]byte, []byte, io.Reader, error) {
	p := make([]byte, pr.chunkSize)
	buf := &bytes.Buffer{}
	searched := 0
	for {
		// read in some bytes
		n, err := r.Read(p)

		// check to see if the header is too long
		if pr.maxHeaderLen > 0 && n+buf.Len() > pr.maxHeaderLen {
			return nil, nil, nil, ErrLargeHeader
		}

		isEof := false
		if errors.Is(err, io.EOF) {
			isEof = true
		} else if err != nil {
			return nil, nil, nil, err
		}

		// add that to our buffer
		_, err = buf.Write(p[:n])
		if err != nil {
			return nil, nil, nil, err
		}

		// check the tail of the buffer for end of header
		pos, crlf := searchForSplit(buf.Bytes()[searched:], subpart)
		if pos >= 0 {
			pos += searched
			// we found the split, header is bytes up to the split
			hdr := make([]byte, pos)
			for hdrRead, n := 0, 0; hdrRead < pos; hdrRead += n {
				n, err = buf.Read(hdr[hdrRead:])
				if err != nil {
					return nil, nil, nil, err
				}
			}

			// the rest is the body
			var body io.Reader
			if _, isBytesReader := r.(*bytes.Reader); isBytesReader {
				// We treat bytes.Reader special because this is what we use
				// internally to parse each part of a multipart message. This
				// pulls the data out of the bytes.Reader and attaches it to
				// the end of the bytes.Buffer we've been building, which
				// lets the header bytes already consumed be discarded.
				_, err = buf.ReadFrom(r)
				if err != nil {
					return nil, nil, nil, err
				}
				body = bytes.NewReader(buf.Bytes())
			} else {
				// If it's something else, we will leave the remainder unread
				// as we must be reading an original input io.Reader. By not
				// consuming it, we can improve the memory performance of
				// Opaque messages.
				body = &remainder{buf.Bytes(), r}
			}
			return hdr, crlf, body, nil
		}

		// No split found and EOF? Let's break out and then we'll process as
		// if the entire message is just header.
		if isEof {
			break
		}

		// The last 3 bytes might be the prefix to the split point
		searched = buf.Len() - 3
		if searched < 0 {
			searched = 0
		}
	}

	// If we're here, we were unable to find a header/body split. We will
	// just assume the message is all header, no body. Let's see if we can
	// find what to use as a break.
	for _, s := range splits {
		crlf := s[0 : len(s)/2]
		if bytes.Contains(buf.Bytes(), crlf) {
			return buf.Bytes(), crlf, nil, nil
		}
	}

	// Or the ultimate fallback is...
	return buf.Bytes(), []byte("\x0d"), nil, nil
}

// parseToOpaque turns a reader into an Opaque.
func (pr *parser) parseToOpaque(r io.Reader, subpart bool) (*Opaque, error) {
	hdr, crlf, body, err := pr.splitHeadFromBody(r, subpart)
	if err != nil {
		return nil, err
	}

	head, err := header.Parse(hdr, header.Break(crlf))
	if err != nil {
		var badStart *field.BadStartError
		if !errors.As(err, &badStart) {
			return nil, err
		}
	}

	if pr.decode {
		body = transfer.ApplyTransferDecoding(head, body)
	}

	return &Opaque{*head, body, !pr.decode}, nil
}

// Parse will consume input from the given reader and return a Generic
// message containing the parsed content. Parse proceeds in two or three
// phases.
//
// During the first phase, the given io.Reader will be read in a chunk at a
// time, as set by the WithChunkSize() option. Each chunk will be checked
// for a double line break of some kind (e.g., "\r\n\r\n" or "\n\n" are the
// most common). Once found, that line break is used to determine what line
// break the message uses for breaking up the header into fields. The fields
// will be parsed from the accumulated header chunks. The rest of the input
// makes up the body content of an *Opaque message. If the accumulated
// header grows past the WithMaxHeaderLength() option while searching, Parse
// fails with ErrLargeHeader.
//
// If the first phase completes successfully, the *Opaque message created
// may be transformed during the second phase, if the message is structured:
//
//   - If the Content-type is a multipart/* type with a boundary parameter
//     and the depth options permit, the body is scanned and broken into
//     parts on that boundary, each part parsed through the same phases.
//     Parts must be smaller than the WithMaxPartLength() option or the
//     parse fails with ErrLargePart. A multipart/* part whose Content-type
//     carries no boundary parameter is left as an *Opaque leaf carrying the
//     original body octets; this is deliberate, as recovering the content
//     matters more than the broken structure.
//
//   - If the Content-type is message/rfc822, the body is parsed as a
//     complete nested message and an *Encapsulated is returned.
//
// If the DecodeTransferEncoding() option is passed, a third phase of
// parsing is performed and parts that have a Content-transfer-encoding
// header are decoded. This is not the default behavior because one of the
// goals of this library is to preserve the original bytes as-is, and
// decoding the transfer encoding and then re-encoding it is very likely to
// modify them slightly.
//
// Errors at any point may lead to a completely failed parse, especially
// ErrLargeHeader or ErrLargePart. However, whenever possible, the partially
// parsed message object is returned instead: a message with a broken
// multipart structure comes back as the best tree we could make of it.
//
// The original io.Reader may or may not be completely read upon return. If
// you either read all the message body contents of all sub-parts or use the
// WriteTo() method on the returned message object, the io.Reader will be
// completely consumed.
func Parse(r io.Reader, opts ...ParseOption) (Generic, error) {
	pr := defaultParser.clone()
	for _, opt := range opts {
		opt(pr)
	}

	msg, err := pr.parseToOpaque(r, false)
	if err != nil {
		return msg, err
	}

	return pr.parse(msg, 0)
}

// parse transforms an *Opaque into a *Multipart or *Encapsulated when its
// media type calls for it and the depth limits permit.
func (pr *parser) parse(msg *Opaque, depth int) (Generic, error) {
	// we're too deep: stop here and just return the original
	if pr.maxDepth >= 0 && depth >= pr.maxDepth {
		return msg, nil
	}

	// lookup the Content-type header; absent means the default type, which
	// is not structured
	pv, err := msg.GetParamValue(header.ContentType)
	if err != nil {
		return msg, nil
	}

	typ := strings.ToLower(pv.Type())
	if typ == "message" && strings.EqualFold(pv.Subtype(), "rfc822") {
		return pr.parseEncapsulated(msg, depth)
	}

	// if this is not a multipart, don't parse it
	if typ != "multipart" {
		return msg, nil
	}

	// a multipart type without a boundary parameter cannot be split into
	// parts; degrade to a leaf keeping the original content
	if pv.Boundary() == "" {
		return msg, nil
	}

	return pr.parseMultipart(msg, pv.Boundary(), depth)
}

// parseEncapsulated parses the body of a message/rfc822 part as a complete
// message and wraps it. If the nested message cannot be parsed, the part is
// left as an opaque leaf.
func (pr *parser) parseEncapsulated(msg *Opaque, depth int) (Generic, error) {
	if msg.Reader == nil {
		return msg, nil
	}

	// read the nested message so the original can be recovered on error
	body, err := io.ReadAll(msg.Reader)
	if err != nil {
		return nil, err
	}
	msg.Reader = bytes.NewReader(body)

	innerOp, err := pr.parseToOpaque(bytes.NewReader(body), true)
	if err != nil {
		return msg, nil
	}

	inner, err := pr.parse(innerOp, depth+1)
	if err != nil {
		return msg, nil
	}

	return &Encapsulated{msg.Header, inner}, nil
}

// parseMultipart scans the body of a multipart message for the boundary
// delimiters and parses each part found between them.
func (pr *parser) parseMultipart(msg *Opaque, boundary string, depth int) (Generic, error) {
	// The initial boundary is like --boundary and the final boundary is like
	// --boundary-- and these must be on their own line. This means that
	// every boundary but the very first must begin with a newline, but the
	// first might not have one. We search without a newline until the first
	// boundary is found, then prefix it with the newline for subsequent
	// searches.
	//
	// Newline handling is nuanced in order to preserve the original message
	// for round-tripping. The newline before the start boundary (if any)
	// belongs to the prefix. The newline after the final boundary (if any)
	// belongs to the suffix. The newlines before and after the middle
	// boundaries belong to the boundary and are not included with the part.
	sb := []byte(fmt.Sprintf("--%s%s", boundary, msg.Break()))
	mb := []byte(fmt.Sprintf("%s--%s%s", msg.Break(), boundary, msg.Break()))
	eb := []byte(fmt.Sprintf("%s--%s--%s", msg.Break(), boundary, msg.Break()))
	fb := []byte(fmt.Sprintf("%s--%s--", msg.Break(), boundary))

	// The split function works in two states. While the preamble has not
	// been located yet, everything consumed belongs to the prefix; after
	// that, the spans between interior boundaries come back as part tokens.
	// The closing delimiter is only looked for once the input has been
	// exhausted, which is also where a missing initial or closing delimiter
	// is recorded (as a nil prefix or suffix) so that generation can
	// reproduce the malformed original.
	sc := bufio.NewScanner(msg.Reader)
	sc.Buffer(make([]byte, pr.chunkSize), pr.maxPartLen)
	brk := msg.Break().Bytes()
	var prefix, suffix []byte
	awaitingPrefix := true
	sc.Split(scanner.DrainAtEOF(
		func(data []byte, atEOF bool) (int, []byte, error) {
			if awaitingPrefix {
				// the preamble is empty when the body opens on the boundary
				if bytes.HasPrefix(data, sb) {
					prefix = []byte{}
					awaitingPrefix = false
					return len(sb), nil, nil
				}
				if !atEOF && len(data) < len(sb) {
					// not enough input to rule the empty preamble in or out
					return 0, nil, nil
				}

				if ix := bytes.Index(data, mb); ix >= 0 {
					// a non-empty preamble runs through the line break ahead
					// of the first boundary
					prefix = append([]byte{}, data[:ix+len(brk)]...)
					awaitingPrefix = false
					return ix + len(mb), nil, nil
				}
				if !atEOF {
					return 0, nil, nil
				}

				// no initial delimiter anywhere; note that for round-trip
				// and treat the rest of the input as the only part
				prefix = nil
			} else {
				if ix := bytes.Index(data, mb); ix >= 0 {
					return ix + len(mb), data[:ix], nil
				}
				if !atEOF {
					return 0, nil, nil
				}
			}

			// end of input: emit the final part, splitting off the epilogue
			// at the closing delimiter
			if ix := bytes.Index(data, eb); ix >= 0 {
				// the line break after the closing delimiter belongs to the
				// epilogue
				suffix = append([]byte{}, data[ix+len(fb):]...)
				return len(data), data[:ix], bufio.ErrFinalToken
			}
			if ix := bytes.Index(data, fb); ix >= 0 && ix == len(data)-len(fb) {
				// closing delimiter with no final line break, so the
				// epilogue is empty
				suffix = []byte{}
				return len(data), data[:ix], bufio.ErrFinalToken
			}

			// the closing delimiter never arrives; a nil epilogue keeps the
			// final boundary out of the round-tripped output too
			suffix = nil
			return len(data), data, bufio.ErrFinalToken
		},
	))

	// This function recovers the original message if we get an error parsing
	// a sub-part.
	parts := make([][]byte, 0, 10)
	originalMessage := func() (*Opaque, error) {
		// finish accumulating the parts and find the suffix (if any)
		for sc.Scan() {
			part := sc.Bytes()
			parts = append(parts, part)
		}

		if err := sc.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return nil, ErrLargePart
			}
			return nil, err
		}

		r := &bytes.Buffer{}
		if prefix != nil {
			r.Write(prefix)
			r.Write(sb)
		}
		r.Write(bytes.Join(parts, mb))
		if suffix != nil {
			// the suffix already carries any line break that followed the
			// final boundary
			r.Write(fb)
			r.Write(suffix)
		}

		return &Opaque{
			Header: msg.Header,
			Reader: r,
		}, nil
	}

	// All returned tokens are parts
	msgParts := make([]Generic, 0, 10)
	for sc.Scan() {
		part := make([]byte, len(sc.Bytes()))
		copy(part, sc.Bytes())
		parts = append(parts, part)

		// parse each part as a simple message first
		opMsg, err := pr.parseToOpaque(bytes.NewReader(part), true)
		if err != nil {
			orig, _ := originalMessage()
			return orig, err
		}

		pMsg, err := pr.parse(opMsg, depth+1)
		if err != nil {
			orig, _ := originalMessage()
			return orig, err
		}

		msgParts = append(msgParts, pMsg)
	}

	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, ErrLargePart
		}
		orig, _ := originalMessage()
		return orig, err
	}

	return &Multipart{
		Header: msg.Header,
		prefix: prefix,
		suffix: suffix,
		parts:  msgParts,
	}, nil
}
