package message

import (
	"io"

	"github.com/josusky/vmime/message/header"
)

// Encapsulated is a message/rfc822 part: an outer header enclosing exactly
// one complete nested message. The nested message is available from
// GetParts() as the single sub-part.
type Encapsulated struct {
	// Header is the header of the enclosing part, which normally carries
	// the message/rfc822 Content-type.
	header.Header

	// inner is the enclosed message.
	inner Generic
}

// NewEncapsulated wraps a complete message in a message/rfc822 envelope
// carrying the given header.
func NewEncapsulated(h header.Header, inner Generic) *Encapsulated {
	return &Encapsulated{h, inner}
}

// WriteTo writes the envelope header followed by the complete nested
// message.
//
// This may only be safely called one time because it consumes the body
// readers of the nested message.
func (em *Encapsulated) WriteTo(w io.Writer) (int64, error) {
	n, err := em.Header.WriteTo(w)
	if err != nil {
		return n, err
	}

	in, err := em.inner.WriteTo(w)
	n += in
	return n, err
}

// IsMultipart returns true: an encapsulated part has a nested structure
// rather than leaf content. Use KindOf to tell it apart from a *Multipart.
func (em *Encapsulated) IsMultipart() bool {
	return true
}

// IsEncoded always returns false.
func (em *Encapsulated) IsEncoded() bool {
	return false
}

// GetHeader returns the header of the enclosing part.
func (em *Encapsulated) GetHeader() *header.Header {
	return &em.Header
}

// GetReader always returns nil.
func (em *Encapsulated) GetReader() io.Reader {
	return nil
}

// GetParts returns the nested message as a single-element slice.
func (em *Encapsulated) GetParts() []Part {
	return []Part{em.inner}
}

// GetMessage returns the nested message.
func (em *Encapsulated) GetMessage() Generic {
	return em.inner
}
