package transfer

import (
	"io"
	"mime/quotedprintable"
)

// NewQuotedPrintableEncoder will transform all bytes written to the returned
// io.WriteCloser into quoted-printable form and write them to the given
// io.Writer.
func NewQuotedPrintableEncoder(w io.Writer) io.WriteCloser {
	qpw := quotedprintable.NewWriter(w)
	return &writer{qpw, qpw}
}

// NewQuotedPrintableDecoder will read bytes from the given io.Reader and
// return them from the returned io.Reader after decoding them from
// quoted-printable format. Soft line breaks are consumed and malformed
// escapes pass through as literal octets.
func NewQuotedPrintableDecoder(r io.Reader) io.Reader {
	return quotedprintable.NewReader(r)
}
