package message

import (
	"io"
	"os"
	"path/filepath"

	"github.com/josusky/vmime/message/header"
	"github.com/josusky/vmime/message/transfer"
)

// Opaque is the base-level message part. It is simply a header and an
// uninterpreted message body.
type Opaque struct {
	// Header will contain the header of the message. A top-level message
	// must have several headers to be correct. A message part should have
	// one or more headers as well.
	header.Header

	// Reader will contain the body content of the message. If the content
	// is zero bytes long, then Reader should be set to nil.
	io.Reader

	// encoded tracks whether the body still has the
	// content-transfer-encoding applied:
	//
	// - parsing leaves encoding in place by default (unless the
	// DecodeTransferEncoding() option is specified)
	//
	// - creating an opaque with a Buffer will leave this false unless the
	// object is constructed using OpaqueAlreadyEncoded
	encoded bool
}

// WriteTo writes the Opaque header and body to the destination io.Writer.
//
// If the bytes held in the io.Reader have had the Content-transfer-encoding
// decoded, this will encode the data as it is being written.
//
// This can only be safely called once as it will consume the io.Reader.
func (m *Opaque) WriteTo(w io.Writer) (int64, error) {
	var tw io.WriteCloser
	if !m.encoded {
		tw = transfer.ApplyTransferEncoding(&m.Header, w)
		defer func() { _ = tw.Close() }()
	}

	total, err := m.Header.WriteTo(w)
	if err != nil {
		return total, err
	}

	if tw != nil {
		w = tw
	}

	if m.Reader != nil {
		bn, err := io.Copy(w, m.Reader)
		total += bn
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// IsMultipart always returns false.
func (m *Opaque) IsMultipart() bool {
	return false
}

// IsEncoded returns true if the Content-transfer-encoding has not been
// decoded for the bytes returned by the associated io.Reader. It returns
// false if that decoding has been performed.
//
// Be aware that a false value here does not mean any actual changes to the
// bytes have been made. If the Content-transfer-encoding is set to
// something like "8bit", the transfer encoding returns the bytes as-is and
// no transformation of the data is performed anyway.
//
// However, if this returns true, then reading the data from the io.Reader
// will return exactly the same bytes as would be written via WriteTo().
func (m *Opaque) IsEncoded() bool {
	return m.encoded
}

// GetHeader returns the header for the message.
func (m *Opaque) GetHeader() *header.Header {
	return &m.Header
}

// GetReader returns the reader containing the body of the message.
//
// If IsEncoded() returns false, the data returned by reading this io.Reader
// may differ from the data that would be written via WriteTo(). This is
// because the data here will have been decoded, but WriteTo() will encode
// the data anew as it writes.
func (m *Opaque) GetReader() io.Reader {
	return m.Reader
}

// GetParts always returns nil.
func (m *Opaque) GetParts() []Part {
	return nil
}

// NewOpaque constructs a leaf part from a header and a content reader. The
// content is expected to be in decoded form; WriteTo will apply whatever
// Content-transfer-encoding the header declares.
func NewOpaque(h header.Header, r io.Reader) *Opaque {
	return &Opaque{h, r, false}
}

// NewOpaqueEncoded constructs a leaf part from a header and a content
// reader whose octets already have the declared Content-transfer-encoding
// applied. WriteTo will emit them untouched.
func NewOpaqueEncoded(h header.Header, r io.Reader) *Opaque {
	return &Opaque{h, r, true}
}

// AttachmentFile is a constructor that will create an Opaque from the given
// filename and MIME type. This will open the given file path, make that
// filename the name of an attachment, and return it. It will return an
// error if there's a problem opening the file.
//
// The last argument is the transfer encoding to use. Use transfer.None if
// you do not want to set a transfer encoding.
func AttachmentFile(fn, mt, te string) (*Opaque, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}

	m := &Opaque{}
	m.Reader = f
	m.SetMediaType(mt)
	m.SetPresentation("attachment")
	_ = m.SetFilename(filepath.Base(fn))

	if te != transfer.None {
		m.SetTransferEncoding(te)
	}

	return m, nil
}
