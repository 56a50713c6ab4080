package message

import (
	"fmt"
	"io"

	"github.com/josusky/vmime/message/header"
)

// Part is an interface defining the parts of a message tree. Each Part is
// a leaf, a multipart container, or an encapsulated message.
//
// A container Part is one that has sub-parts. In this case, the
// IsMultipart() method will return true. The GetParts() method is available,
// but GetReader() must not be called.
//
// A leaf Part is one that contains content. In this case, the IsMultipart()
// method will return false and GetReader() will return a reader for reading
// the content of the part.
//
// It should be noted that it is possible for a Part to contain content that
// is a multipart MIME message even when IsMultipart() returns false, when
// the sub-parts have been serialized such that the parts are not provided
// separately. This is perfectly legal.
//
// Use KindOf to distinguish a multipart container from an encapsulated
// message/rfc822 part, which also reports IsMultipart() as true and carries
// its single nested message in GetParts().
type Part interface {
	io.WriterTo

	// IsMultipart will return true if this Part is a container with nested
	// parts. You may call the GetParts() method to process the parts only if
	// this returns true. If it returns false, this Part is a leaf and you
	// may call GetReader() to read its content.
	IsMultipart() bool

	// IsEncoded will return true if the io.Reader returned from GetReader()
	// returns the original bytes with the Content-transfer-encoding still
	// applied. It returns false if that decoding has been performed.
	//
	// This method must return false if IsMultipart() returns true, as
	// transfer encodings cannot be applied to parts with sub-parts.
	IsEncoded() bool

	// GetHeader is available on all Part objects.
	GetHeader() *header.Header

	// GetReader provides the content of the message, but only if
	// IsMultipart() returns false. This must return nil if IsMultipart()
	// returns true.
	GetReader() io.Reader

	// GetParts provides the sub-parts of a container. This should only be
	// called when IsMultipart() returns true. This must return nil if
	// IsMultipart() is false.
	GetParts() []Part
}

// Generic is just an alias for Part, which is intended to convey additional
// semantics:
//
// 1. The message returned is not necessarily a sub-part of a message.
//
// 2. The returned message is guaranteed to be a *Opaque, a *Multipart, or an
// *Encapsulated. Therefore, it is safe to use this in a type-switch and only
// look for those three objects.
type Generic = Part

// PartKind names the structural variant of a Part.
type PartKind int

const (
	// KindLeaf is a part holding opaque content.
	KindLeaf PartKind = iota

	// KindMultipart is a part holding an ordered sequence of sub-parts.
	KindMultipart

	// KindEncapsulated is a message/rfc822 part holding a single nested
	// message.
	KindEncapsulated
)

// KindOf returns the structural variant of the given part.
func KindOf(p Part) PartKind {
	switch p.(type) {
	case *Multipart:
		return KindMultipart
	case *Encapsulated:
		return KindEncapsulated
	}
	return KindLeaf
}

// Multipart is a multipart MIME message. The MIME type set in the
// Content-type header should always start with multipart/* and carry a
// boundary parameter.
type Multipart struct {
	// Header is the header for the message.
	header.Header

	// prefix and suffix are the multipart preamble and epilogue. They are
	// kept so a parsed message can round-trip byte-for-byte.
	//
	// Some special semantics:
	//
	// * If prefix is nil, the original had no initial boundary at all. When
	// round-tripping, no initial boundary will be output. The prefix MUST
	// end in a newline if it is anything but the empty string or else the
	// message produced will not be correct.
	//
	// * If suffix is nil, the message lacks a final boundary. When
	// round-tripping, no final boundary will be output. The suffix MUST
	// start with a newline if it is anything but the empty string or else
	// the message will not be correct.
	prefix, suffix []byte

	// parts holds this layer's parts
	parts []Part
}

// NewMultipart constructs a multipart message from a header and parts. The
// preamble is empty and the closing delimiter will be emitted.
func NewMultipart(h header.Header, parts ...Part) *Multipart {
	return &Multipart{
		Header: h,
		prefix: []byte{},
		suffix: []byte{},
		parts:  parts,
	}
}

// WriteTo writes the header and parts to the destination io.Writer. This
// method fails with header.ErrNoSuchField if the message does not have a
// Content-type boundary parameter set. It may return an error on an IO
// error as well.
//
// This may only be safely called one time because it will consume all the
// bytes from all the io.Reader objects associated with all the Opaque
// objects within.
func (mm *Multipart) WriteTo(w io.Writer) (int64, error) {
	boundary, err := mm.GetBoundary()
	if err != nil {
		return 0, err
	}

	br := mm.Break()

	n, err := mm.Header.WriteTo(w)
	if err != nil {
		return n, err
	}

	pn, err := w.Write(mm.prefix)
	n += int64(pn)
	if err != nil {
		return n, err
	}

	if len(mm.parts) > 0 {
		hadContent := false
		for i, part := range mm.parts {
			if hadContent {
				bn, err := fmt.Fprint(w, br)
				n += int64(bn)
				if err != nil {
					return n, err
				}
			}

			// a nil prefix means the original had no opening delimiter
			if i > 0 || mm.prefix != nil {
				bn, err := fmt.Fprintf(w, "--%s%s", boundary, br)
				n += int64(bn)
				if err != nil {
					return n, err
				}
			}

			// only insert a newline if there are some bytes in here...
			hadContent = part.IsMultipart() || part.GetReader() != nil

			pn, err := part.WriteTo(w)
			n += pn
			if err != nil {
				return n, err
			}
		}

		if mm.suffix != nil {
			bn, err := fmt.Fprintf(w, "%s--%s--", br, boundary)
			n += int64(bn)
			if err != nil {
				return n, err
			}
		}
	}

	sn, err := w.Write(mm.suffix)
	n += int64(sn)
	if err != nil {
		return n, err
	}

	return n, nil
}

// IsMultipart always returns true.
func (mm *Multipart) IsMultipart() bool {
	return true
}

// IsEncoded always returns false.
func (mm *Multipart) IsEncoded() bool {
	return false
}

// GetHeader returns the header for the message.
func (mm *Multipart) GetHeader() *header.Header {
	return &mm.Header
}

// GetReader always returns nil.
func (mm *Multipart) GetReader() io.Reader {
	return nil
}

// GetParts returns the sub-parts of this message or nil if there aren't
// any.
func (mm *Multipart) GetParts() []Part {
	return mm.parts
}

// AddPart appends a part to the end of this message's parts.
func (mm *Multipart) AddPart(p Part) {
	mm.parts = append(mm.parts, p)
}

// GetPreamble returns the octets between the header and the first boundary
// delimiter.
func (mm *Multipart) GetPreamble() []byte {
	return mm.prefix
}

// GetEpilogue returns the octets after the closing boundary delimiter. A nil
// epilogue means the original message had no closing delimiter at all.
func (mm *Multipart) GetEpilogue() []byte {
	return mm.suffix
}
