package message

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/josusky/vmime/message/header"
)

const (
	// DefaultMultipartContentType is the Content-type to use with a
	// multipart message when no explicit Content-type header has been set.
	DefaultMultipartContentType = "multipart/mixed"
)

// BufferMode describes how a Buffer has been used so far.
type BufferMode int

const (
	// ModeUnset indicates that the Buffer has not yet been modified.
	ModeUnset BufferMode = iota

	// ModeSingle indicates that the Buffer has been used as an io.Writer.
	ModeSingle

	// ModeMultipart indicates that the Buffer has had parts added.
	ModeMultipart
)

var (
	// ErrPartsBuffer is returned by Write() if that method is called after
	// calling the Add() method.
	ErrPartsBuffer = errors.New("message buffer is in parts mode")

	// ErrOpaqueBuffer is returned by Add() if that method is called after
	// calling the Write() method.
	ErrOpaqueBuffer = errors.New("message buffer is in opaque mode")

	// ErrModeUnset is the value Opaque() and Multipart() panic with when
	// they are called before anything has been written to the current
	// buffer.
	ErrModeUnset = errors.New("no message has been built")

	// ErrParsesAsNotMultipart is returned by Multipart() when the Buffer is
	// in ModeSingle and the message is not at all a *Multipart message.
	ErrParsesAsNotMultipart = errors.New("cannot parse non-multipart message as multipart")
)

// Buffer provides tools for constructing messages. It can operate in either
// of two modes, depending on how you want to construct your message.
//
// * Opaque mode. When you use the Buffer as an io.Writer by calling the
// Write() method, you have chosen to treat the message as a collection of
// bytes.
//
// * Multipart mode. When you use the Buffer to manipulate parts, such as by
// calling the Add() method, you have chosen to treat the message as a
// collection of sub-parts.
//
// You may not use a Buffer in both modes. If you call the Write() method
// first, then any subsequent call to the Add() method will panic with
// ErrOpaqueBuffer, and vice versa with ErrPartsBuffer.
//
// Whatever the mode is, you may call either Opaque() or Multipart() to get
// the constructed message at the end.
type Buffer struct {
	header.Header
	parts []Part
	buf   *bytes.Buffer
}

// Mode returns a constant that indicates what mode the Buffer is in. Until a
// modification method is called, this will return ModeUnset.
func (b *Buffer) Mode() BufferMode {
	if b.parts != nil {
		return ModeMultipart
	} else if b.buf != nil {
		return ModeSingle
	}
	return ModeUnset
}

// SetMultipart sets the Mode of the buffer to ModeMultipart and
// pre-allocates the capacity of the internal slice used to hold parts. This
// will panic if the mode is already ModeSingle.
func (b *Buffer) SetMultipart(capacity int) {
	err := b.initParts(capacity)
	if err != nil {
		panic(err)
	}
}

// SetSingle sets the Mode of the buffer to ModeSingle. This is useful during
// message transformation, especially if the message content is to be empty.
// This will panic if the mode is already ModeMultipart.
func (b *Buffer) SetSingle() {
	err := b.initBuffer()
	if err != nil {
		panic(err)
	}
}

func (b *Buffer) initBuffer() error {
	if b.parts != nil {
		return ErrPartsBuffer
	}
	if b.buf == nil {
		b.buf = &bytes.Buffer{}
	}
	return nil
}

func (b *Buffer) initParts(capacity int) error {
	if capacity == 0 {
		capacity = 10
	}
	if b.buf != nil {
		return ErrOpaqueBuffer
	}
	if b.parts == nil {
		b.parts = make([]Part, 0, capacity)
	}
	return nil
}

// Add will add one or more parts to the message. It will panic if you
// attempt to call this function after already using this object as an
// io.Writer.
func (b *Buffer) Add(msgs ...Part) {
	if err := b.initParts(0); err != nil {
		panic(err)
	}
	b.parts = append(b.parts, msgs...)
}

// Write implements io.Writer so you can write the message body to this
// buffer. This will panic if you attempt to call this method after calling
// Add.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.initBuffer(); err != nil {
		panic(err)
	}
	return b.buf.Write(p)
}

// snapshotContent reads every leaf reader in the given parts into memory,
// replacing each with an equivalent in-memory reader, and accumulates the
// bodies and headers into buf. This gives the boundary check a full view of
// the content that will be emitted without consuming anything.
func snapshotContent(parts []Part, buf *bytes.Buffer) error {
	for _, p := range parts {
		buf.Write(p.GetHeader().Bytes())
		if p.IsMultipart() {
			if err := snapshotContent(p.GetParts(), buf); err != nil {
				return err
			}
			continue
		}

		op, isOpaque := p.(*Opaque)
		if !isOpaque || op.Reader == nil {
			continue
		}

		data, err := io.ReadAll(op.Reader)
		if err != nil {
			return err
		}
		buf.Write(data)
		op.Reader = bytes.NewReader(data)
	}
	return nil
}

// prepareForMultipartOutput fills in the Content-type and boundary when
// missing and replaces a boundary that collides with the content of any
// part. A multipart message is only emitted with a boundary that does not
// appear as a line prefix anywhere within its parts.
func (b *Buffer) prepareForMultipartOutput() error {
	if _, err := b.GetMediaType(); errors.Is(err, header.ErrNoSuchField) {
		b.SetMediaType(DefaultMultipartContentType)
	}

	content := &bytes.Buffer{}
	if err := snapshotContent(b.parts, content); err != nil {
		return err
	}

	boundary, err := b.GetBoundary()
	if err != nil || boundary == "" || boundaryCollides(content.Bytes(), boundary) {
		_ = b.SetBoundary(GenerateSafeBoundary(content.String()))
	}

	return nil
}

// Opaque will return an Opaque message based upon the content written to
// the Buffer. The behavior of this method depends on which mode the Buffer
// is in.
//
// This method will panic if the BufferMode is ModeUnset.
//
// If the BufferMode is ModeSingle, the Header and the bytes written to the
// internal buffer will be returned in the *Opaque.
//
// If the BufferMode is ModeMultipart, the parts will be serialized into a
// byte buffer and that will be attached with the Header to the returned
// *Opaque object. In that case, you should set the Content-type header
// yourself to one of the multipart/* types; if you do not, this method will
// set it to DefaultMultipartContentType. The Content-type boundary is
// chosen, or replaced, such that it cannot collide with the part content.
//
// After this method is called, the Buffer should be disposed of and no
// longer used.
func (b *Buffer) Opaque() (*Opaque, error) {
	switch b.Mode() {
	case ModeSingle:
		return &Opaque{
			Header: b.Header,
			Reader: b.buf,
		}, nil
	case ModeMultipart:
		if err := b.prepareForMultipartOutput(); err != nil {
			return nil, err
		}
		boundary, _ := b.GetBoundary()

		buf := &bytes.Buffer{}
		if len(b.parts) > 0 {
			for i, part := range b.parts {
				if i > 0 {
					_, _ = fmt.Fprint(buf, b.Break())
				}
				_, _ = fmt.Fprintf(buf, "--%s%s", boundary, b.Break())
				_, _ = part.WriteTo(buf)
			}
			_, _ = fmt.Fprintf(buf, "%s--%s--%s", b.Break(), boundary, b.Break())
		}

		return &Opaque{
			Header: b.Header,
			Reader: buf,
		}, nil
	case ModeUnset:
		panic(ErrModeUnset)
	}
	panic("unknown error")
}

// OpaqueAlreadyEncoded works just like Opaque(), but marks the object as
// already having the Content-transfer-encoding applied. Use this when you
// write a message body in encoded form.
//
// NOTE: This does not perform any encoding! If you want the output to be
// automatically encoded, you actually want to call Opaque() and then
// WriteTo() on the returned object will perform encoding. This method is
// for indicating that you have already performed the required encoding.
func (b *Buffer) OpaqueAlreadyEncoded() (*Opaque, error) {
	msg, err := b.Opaque()
	if msg != nil {
		msg.encoded = true
	}
	return msg, err
}

// Multipart will return a Multipart message based upon the content written
// to the Buffer. This method will fail with an error if there's a problem.
// The behavior of this method depends on which mode the Buffer is in when
// called.
//
// If the BufferMode is ModeSingle, the bytes that have been written to the
// buffer must be parsed in order to generate the returned *Multipart. The
// Parse() function will be called with the WithoutRecursion() option. If
// the content does not parse as a multipart message, this method returns
// nil with ErrParsesAsNotMultipart.
//
// If the BufferMode is ModeMultipart, the Header and collected parts will
// be returned in the returned *Multipart. The boundary is chosen, or
// replaced, such that it cannot collide with the part content.
//
// If the BufferMode is ModeUnset, this method will panic.
//
// After this method is called, the Buffer should be disposed of and no
// longer used.
func (b *Buffer) Multipart() (*Multipart, error) {
	switch b.Mode() {
	case ModeSingle:
		if err := b.prepareForMultipartOutput(); err != nil {
			return nil, err
		}
		msg := &Opaque{b.Header, b.buf, false}
		pr := defaultParser.clone()
		WithoutRecursion()(pr)
		gmsg, err := pr.parse(msg, 0)
		switch vmsg := gmsg.(type) {
		case *Opaque:
			if err != nil {
				return nil, err
			}
			return nil, ErrParsesAsNotMultipart
		case *Multipart:
			return vmsg, err
		}
		return nil, errors.New("generic message came back as something other than Opaque or Multipart")
	case ModeMultipart:
		if err := b.prepareForMultipartOutput(); err != nil {
			return nil, err
		}
		return &Multipart{
			Header: b.Header,
			prefix: []byte{},
			suffix: []byte{},
			parts:  b.parts,
		}, nil
	case ModeUnset:
		panic(ErrModeUnset)
	}
	panic("unknown error")
}
