// Package transfer implements the Content-transfer-encodings of RFC 2045 as
// pairs of encoding writers and decoding readers, along with a chooser that
// picks an appropriate encoding for a body of known content.
package transfer

import (
	"io"
	"strings"

	"github.com/josusky/vmime/message/header"
)

// The Content-transfer-encoding tokens this package knows.
const (
	None            = ""                 // bytes will be left as-is
	Bit7            = "7bit"             // bytes will be left as-is
	Bit8            = "8bit"             // bytes will be left as-is
	Binary          = "binary"           // bytes will be left as-is
	QuotedPrintable = "quoted-printable" // bytes transformed per RFC 2045 §6.7
	Base64          = "base64"           // bytes transformed per RFC 2045 §6.8
)

// writer makes wrapping io.Writer values with an optional close easier.
type writer struct {
	io.Writer
	io.Closer
}

// Close will close the nested writer if one was provided.
func (w *writer) Close() error {
	if w.Closer != nil {
		return w.Closer.Close()
	}
	return nil
}

// Transcoding is a pair of functions that can be used to transform to and
// from a transfer encoding.
type Transcoding struct {
	// Encoder returns an io.WriteCloser, which will encode binary data and
	// write the encoded form to the given io.Writer. You must call Close()
	// on the returned io.WriteCloser when you are finished.
	Encoder func(io.Writer) io.WriteCloser

	// Decoder returns an io.Reader, which will read from the given io.Reader
	// when read and decode the encoded data back into binary form.
	Decoder func(io.Reader) io.Reader
}

// AsIsTranscoder is just a shortcut to a no-op encoder/decoder.
var AsIsTranscoder = Transcoding{NewAsIsEncoder, NewAsIsDecoder}

// Transcodings defines the supported Content-transfer-encodings and how to
// handle them. An encoding token missing from this table is left as-is: the
// body of a part with an unimplemented encoding surfaces as raw octets.
var Transcodings = map[string]Transcoding{
	None:            AsIsTranscoder,
	Bit7:            AsIsTranscoder,
	Bit8:            AsIsTranscoder,
	Binary:          AsIsTranscoder,
	QuotedPrintable: {NewQuotedPrintableEncoder, NewQuotedPrintableDecoder},
	Base64:          {NewBase64Encoder, NewBase64Decoder},
}

// ForEncoding looks up the Transcoding for an encoding token,
// case-insensitively. The second return is false when the token is unknown,
// in which case the as-is transcoder is returned.
func ForEncoding(cte string) (Transcoding, bool) {
	tc, hasCode := Transcodings[strings.ToLower(strings.TrimSpace(cte))]
	if !hasCode {
		return AsIsTranscoder, false
	}
	return tc, true
}

// ApplyTransferEncoding is a helper that will check the given header to see
// if transfer encoding ought to be performed. It will return an
// io.WriteCloser that will write the encoding (or just pass data through if
// no encoding is necessary).
//
// You must call Close() on the returned io.WriteCloser when you are finished
// writing.
func ApplyTransferEncoding(h *header.Header, w io.Writer) io.WriteCloser {
	cte, err := h.GetTransferEncoding()
	if err != nil {
		return &writer{w, nil}
	}

	tc, hasCode := ForEncoding(cte)
	if hasCode {
		return tc.Encoder(w)
	}

	return &writer{w, nil}
}

// ApplyTransferDecoding returns an io.Reader that will modify incoming bytes
// according to the transfer encoding detected from the given header. (Or the
// io.Reader will leave the bytes as-is if there's no transfer encoding or
// the transfer encoding is one that is interpreted as-is.)
func ApplyTransferDecoding(h *header.Header, r io.Reader) io.Reader {
	// multipart/* types are not permitted to have an encoded body; the
	// encoding belongs to the nested parts
	ct, err := h.GetContentType()
	if err == nil && ct != nil && ct.Type() == "multipart" {
		return r
	}

	cte, err := h.GetTransferEncoding()
	if err != nil {
		return r
	}

	tc, hasCode := ForEncoding(cte)
	if hasCode {
		return tc.Decoder(r)
	}

	return r
}
