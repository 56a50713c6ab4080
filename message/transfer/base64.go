package transfer

import (
	"encoding/base64"
	"io"
)

const defaultBase64LineLength = 76

var defaultBase64LineBreak = []byte("\r\n")

// newlineWriter inserts a line break into the output every fixed number of
// octets, as RFC 2045 requires of base64 bodies.
type newlineWriter struct {
	every int
	acc   int
	lbr   []byte
	w     io.Writer
}

func (nw *newlineWriter) Write(b []byte) (int, error) {
	ix, n := 0, 0
	for len(b[ix:])+nw.acc > nw.every {
		ln, err := nw.w.Write(b[ix : ix+(nw.every-nw.acc)])
		n += ln
		if err != nil {
			return n, err
		}

		_, err = nw.w.Write(nw.lbr)
		if err != nil {
			return n, err
		}

		ix += nw.every - nw.acc
		nw.acc = 0
	}

	ln, err := nw.w.Write(b[ix:])
	n += ln
	if err != nil {
		return n, err
	}

	nw.acc += len(b[ix:])

	return n, nil
}

func (nw *newlineWriter) Close() error {
	var err error
	if nw.acc > 0 {
		_, err = nw.w.Write(nw.lbr)
		nw.acc = 0
	}
	if wc, isCloser := nw.w.(io.Closer); isCloser {
		cerr := wc.Close()
		if cerr != nil {
			return cerr
		}
	}
	return err
}

// NewBase64Encoder will translate all bytes written to the returned
// io.WriteCloser into base64 encoding and write those to the given
// io.Writer, breaking lines at 76 octets.
func NewBase64Encoder(w io.Writer) io.WriteCloser {
	nw := &newlineWriter{
		every: defaultBase64LineLength,
		lbr:   defaultBase64LineBreak,
		w:     w,
	}
	enc := base64.NewEncoder(base64.StdEncoding, nw)
	return &writer{enc, &base64Closer{enc, nw}}
}

// base64Closer flushes the base64 encoder and then finishes the
// newlineWriter behind it.
type base64Closer struct {
	enc io.Closer
	nw  *newlineWriter
}

func (c *base64Closer) Close() error {
	if err := c.enc.Close(); err != nil {
		return err
	}
	return c.nw.Close()
}

// NewBase64Decoder will translate all bytes read from the given io.Reader as
// base64 and return the binary data from the returned io.Reader. Line breaks
// in the input are skipped.
func NewBase64Decoder(r io.Reader) io.Reader {
	return base64.NewDecoder(base64.StdEncoding, &linebreakSkipper{r: r})
}

// linebreakSkipper removes CR and LF octets from the stream so that wrapped
// base64 bodies decode cleanly.
type linebreakSkipper struct {
	r io.Reader
}

func (ls *linebreakSkipper) Read(p []byte) (int, error) {
	n, err := ls.r.Read(p)
	out := 0
	for i := 0; i < n; i++ {
		if p[i] == '\r' || p[i] == '\n' {
			continue
		}
		p[out] = p[i]
		out++
	}
	return out, err
}
