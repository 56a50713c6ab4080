// Package attachment detects, collects, and adds message attachments
// without making any assumption about how the message tree is structured.
package attachment

import (
	"strings"

	"github.com/josusky/vmime/message"
	"github.com/josusky/vmime/message/header"
	"github.com/josusky/vmime/message/walker"
)

// contentFields are the header fields that describe the content of a part
// rather than the message around it. When a flat message is promoted to
// multipart/mixed, these migrate from the root onto the new inner part.
var contentFields = []string{
	header.ContentType,
	header.ContentTransferEncoding,
	header.ContentDisposition,
	header.ContentID,
}

// IsAttachment reports whether the given part is an attachment: a leaf part
// that either declares Content-disposition attachment or carries a media
// type outside text/*, multipart/*, and message/*.
func IsAttachment(part message.Part) bool {
	if message.KindOf(part) != message.KindLeaf {
		return false
	}

	h := part.GetHeader()
	if pres, err := h.GetPresentation(); err == nil && strings.EqualFold(pres, "attachment") {
		return true
	}

	switch strings.ToLower(h.EffectiveContentType().Type()) {
	case "text", "multipart", "message":
		return false
	}
	return true
}

// Find walks the message depth-first and collects every attachment leaf, in
// the order the parts occur in the message.
func Find(msg message.Generic) []*message.Opaque {
	atts := make([]*message.Opaque, 0, 4)
	_ = walker.Func(func(_, _ int, part message.Part) error {
		if IsAttachment(part) {
			if op, isOpaque := part.(*message.Opaque); isOpaque {
				atts = append(atts, op)
			}
		}
		return nil
	}).Walk(msg)
	return atts
}

// Add attaches a part to a message, restructuring the message as needed,
// and returns the resulting message.
//
// If the message root is already multipart/mixed, the attachment is simply
// appended to its parts. Otherwise the root is promoted: a new
// multipart/mixed root takes over the original header, the original content
// becomes the first part carrying the migrated Content-type,
// Content-transfer-encoding, Content-disposition, and Content-id fields,
// and the attachment becomes the second part. Addressing and every other
// header field stay on the root.
func Add(msg message.Generic, att message.Part) (message.Generic, error) {
	if mp, isMulti := msg.(*message.Multipart); isMulti &&
		strings.EqualFold(mp.EffectiveContentType().MediaType(), "multipart/mixed") {
		mp.AddPart(att)
		return mp, nil
	}

	rootHdr := msg.GetHeader().Clone()

	innerHdr := header.Header{}
	innerHdr.SetBreak(msg.GetHeader().Break())
	for _, name := range contentFields {
		bodies, err := rootHdr.GetAll(name)
		if err != nil {
			continue
		}
		innerHdr.SetAll(name, bodies...)
		rootHdr.Delete(name)
	}

	var inner message.Part
	switch v := msg.(type) {
	case *message.Opaque:
		if v.IsEncoded() {
			inner = message.NewOpaqueEncoded(innerHdr, v.Reader)
		} else {
			inner = message.NewOpaque(innerHdr, v.Reader)
		}
	case *message.Multipart:
		v.Header = innerHdr
		inner = v
	case *message.Encapsulated:
		v.Header = innerHdr
		inner = v
	default:
		inner = msg
	}

	buf := &message.Buffer{Header: *rootHdr}
	buf.SetMultipart(2)
	buf.Add(inner, att)
	buf.SetMediaType(message.DefaultMultipartContentType)

	return buf.Multipart()
}
