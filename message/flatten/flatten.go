// Package flatten reduces any legal MIME tree to the two things mail
// clients actually present: text parts and attachments. It understands the
// structural idioms of multipart/alternative (pick the best
// representation), multipart/related (primary document plus embedded
// objects), and multipart/mixed (independent items).
package flatten

import (
	"bytes"
	"io"
	"strings"

	"github.com/josusky/vmime/message"
	"github.com/josusky/vmime/message/header/field"
	"github.com/josusky/vmime/message/transfer"
)

// TextPart is either a *PlainText or an *HTML.
type TextPart interface {
	textPart()
}

// PlainText is a plain text body with its character set.
type PlainText struct {
	// Text is the body decoded into native unicode.
	Text string

	// Charset is the declared character set of the source part.
	Charset string

	// Part is the leaf this text came from.
	Part *message.Opaque
}

func (*PlainText) textPart() {}

// HTML is an HTML body, its optional plain text alternative, and the
// objects embedded in it by Content-ID or Content-Location reference.
type HTML struct {
	// HTML is the markup decoded into native unicode.
	HTML string

	// Charset is the declared character set of the source part.
	Charset string

	// Alternative is the plain text counterpart of this HTML body, when the
	// message carried one in a multipart/alternative.
	Alternative *PlainText

	// Embedded holds the objects this HTML references (or that were grouped
	// with it in a multipart/related).
	Embedded []*Object

	// Part is the leaf the markup came from.
	Part *message.Opaque
}

func (*HTML) textPart() {}

// Object is a non-text part embedded in an HTML body.
type Object struct {
	// ID is the Content-ID of the part, without angle brackets. An HTML
	// body references it as "cid:" + ID.
	ID string

	// Location is the Content-location of the part, if any.
	Location string

	// MediaType is the effective media type of the part.
	MediaType string

	// Data is the decoded content.
	Data []byte

	// Part is the leaf the object came from.
	Part *message.Opaque
}

// Message is the flattened view of a message.
type Message struct {
	// TextParts holds the displayable bodies found in the message, in
	// order.
	TextParts []TextPart

	// Attachments holds every leaf that is neither structure nor
	// displayable text.
	Attachments []*message.Opaque
}

// Flatten classifies every part of the given message and returns the
// flattened view. The message's body readers are consumed in the process.
//
// The classification follows the usual structural idioms:
//
//   - multipart/alternative: the richest displayable representation wins,
//     HTML over plain text; the plain text alternative is attached to the
//     HTML part; other alternatives become attachments.
//   - multipart/related: the part named by the start parameter (or the
//     first part) is the primary content and the remaining parts become
//     embedded objects of it.
//   - multipart/mixed and any other multipart: parts are processed
//     individually.
//   - message/rfc822: becomes an attachment holding the nested message.
//   - leaves: a part with an attachment disposition is always an
//     attachment; inline text/plain and text/html are text parts; any
//     other inline part becomes an embedded object when some HTML body
//     references it and an attachment otherwise.
func Flatten(msg message.Generic) (*Message, error) {
	fl := &flattener{out: &Message{}}
	if err := fl.classify(msg); err != nil {
		return nil, err
	}
	fl.resolvePending()
	return fl.out, nil
}

type flattener struct {
	out     *Message
	htmls   []*HTML
	pending []*Object
}

func (fl *flattener) classify(part message.Part) error {
	switch message.KindOf(part) {
	case message.KindEncapsulated:
		return fl.addEncapsulated(part.(*message.Encapsulated))
	case message.KindMultipart:
		mp := part.(*message.Multipart)
		ct := mp.EffectiveContentType()
		switch strings.ToLower(ct.Subtype()) {
		case "alternative":
			return fl.classifyAlternative(mp)
		case "related":
			return fl.classifyRelated(mp)
		default:
			for _, sub := range mp.GetParts() {
				if err := fl.classify(sub); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return fl.classifyLeaf(part.(*message.Opaque))
}

// classifyLeaf buckets a single content-bearing part.
func (fl *flattener) classifyLeaf(op *message.Opaque) error {
	pres, err := op.GetPresentation()
	if err != nil {
		pres = ""
	}
	if strings.EqualFold(pres, "attachment") {
		fl.out.Attachments = append(fl.out.Attachments, op)
		return nil
	}

	ct := op.EffectiveContentType()
	typ := strings.ToLower(ct.Type())
	sub := strings.ToLower(ct.Subtype())

	switch {
	case typ == "text" && sub == "html":
		h, err := fl.makeHTML(op)
		if err != nil {
			return err
		}
		fl.addHTML(h)
		return nil
	case typ == "text":
		p, err := makePlain(op)
		if err != nil {
			return err
		}
		fl.out.TextParts = append(fl.out.TextParts, p)
		return nil
	case typ == "message":
		fl.out.Attachments = append(fl.out.Attachments, op)
		return nil
	}

	// a non-text inline part may yet be an embedded object if some HTML
	// body references it
	id, _ := op.GetContentID()
	loc, _ := op.GetContentLocation()
	if id != "" || loc != "" {
		obj, err := makeObject(op)
		if err != nil {
			return err
		}
		fl.pending = append(fl.pending, obj)
		return nil
	}

	fl.out.Attachments = append(fl.out.Attachments, op)
	return nil
}

// classifyAlternative picks the best displayable representation from the
// parts of a multipart/alternative.
func (fl *flattener) classifyAlternative(mp *message.Multipart) error {
	var best message.Part
	var plain *message.Opaque
	others := make([]message.Part, 0, 2)

	for _, sub := range mp.GetParts() {
		switch {
		case isHTMLCapable(sub):
			if best != nil {
				others = append(others, best)
			}
			best = sub
		case isPlainLeaf(sub):
			if plain != nil {
				others = append(others, plain)
			}
			plain = sub.(*message.Opaque)
		default:
			others = append(others, sub)
		}
	}

	switch {
	case best != nil:
		before := len(fl.htmls)
		if err := fl.classify(best); err != nil {
			return err
		}
		if plain != nil && len(fl.htmls) > before {
			p, err := makePlain(plain)
			if err != nil {
				return err
			}
			fl.htmls[len(fl.htmls)-1].Alternative = p
		} else if plain != nil {
			others = append(others, plain)
		}
	case plain != nil:
		p, err := makePlain(plain)
		if err != nil {
			return err
		}
		fl.out.TextParts = append(fl.out.TextParts, p)
	}

	for _, o := range others {
		if err := fl.addAsAttachment(o); err != nil {
			return err
		}
	}
	return nil
}

// classifyRelated processes a multipart/related: the start part (or the
// first part) is the primary content, the rest become embedded objects.
func (fl *flattener) classifyRelated(mp *message.Multipart) error {
	parts := mp.GetParts()
	if len(parts) == 0 {
		return nil
	}

	rootIx := 0
	if startID := mp.EffectiveContentType().StartID(); startID != "" {
		for i, sub := range parts {
			if id, err := sub.GetHeader().GetContentID(); err == nil && id == startID {
				rootIx = i
				break
			}
		}
	}

	before := len(fl.htmls)
	if err := fl.classify(parts[rootIx]); err != nil {
		return err
	}

	var owner *HTML
	if len(fl.htmls) > before {
		owner = fl.htmls[len(fl.htmls)-1]
	}

	for i, sub := range parts {
		if i == rootIx {
			continue
		}

		op, isLeaf := sub.(*message.Opaque)
		if !isLeaf {
			if err := fl.addAsAttachment(sub); err != nil {
				return err
			}
			continue
		}

		obj, err := makeObject(op)
		if err != nil {
			return err
		}
		if owner != nil {
			owner.Embedded = append(owner.Embedded, obj)
		} else {
			fl.pending = append(fl.pending, obj)
		}
	}
	return nil
}

// addEncapsulated turns a message/rfc822 part into an attachment holding
// the serialized nested message.
func (fl *flattener) addEncapsulated(em *message.Encapsulated) error {
	buf := &bytes.Buffer{}
	if _, err := em.GetMessage().WriteTo(buf); err != nil {
		return err
	}
	att := message.NewOpaqueEncoded(*em.GetHeader().Clone(), buf)
	fl.out.Attachments = append(fl.out.Attachments, att)
	return nil
}

// addAsAttachment coerces any part into an attachment entry.
func (fl *flattener) addAsAttachment(part message.Part) error {
	switch v := part.(type) {
	case *message.Opaque:
		fl.out.Attachments = append(fl.out.Attachments, v)
		return nil
	case *message.Encapsulated:
		return fl.addEncapsulated(v)
	}

	// serialize a structured part into an opaque attachment
	buf := &bytes.Buffer{}
	for _, sub := range part.GetParts() {
		if _, err := sub.WriteTo(buf); err != nil {
			return err
		}
	}
	att := message.NewOpaqueEncoded(*part.GetHeader().Clone(), buf)
	fl.out.Attachments = append(fl.out.Attachments, att)
	return nil
}

// addHTML appends an HTML text part to the results.
func (fl *flattener) addHTML(h *HTML) {
	fl.out.TextParts = append(fl.out.TextParts, h)
	fl.htmls = append(fl.htmls, h)
}

// resolvePending matches leftover inline objects against the collected HTML
// bodies. An object referenced by some body becomes embedded in it; the
// rest become attachments.
func (fl *flattener) resolvePending() {
	for _, obj := range fl.pending {
		referenced := false
		for _, h := range fl.htmls {
			if obj.ID != "" && strings.Contains(h.HTML, "cid:"+obj.ID) {
				h.Embedded = append(h.Embedded, obj)
				referenced = true
				break
			}
			if obj.Location != "" && strings.Contains(h.HTML, obj.Location) {
				h.Embedded = append(h.Embedded, obj)
				referenced = true
				break
			}
		}
		if !referenced {
			fl.out.Attachments = append(fl.out.Attachments, obj.Part)
		}
	}
	fl.pending = nil
}

// isHTMLCapable reports whether an alternative part can render as HTML: a
// text/html leaf or a multipart/related wrapping one.
func isHTMLCapable(part message.Part) bool {
	ct := part.GetHeader().EffectiveContentType()
	if message.KindOf(part) == message.KindMultipart {
		return strings.EqualFold(ct.Subtype(), "related")
	}
	return strings.EqualFold(ct.MediaType(), "text/html")
}

// isPlainLeaf reports whether an alternative part is a plain text leaf.
func isPlainLeaf(part message.Part) bool {
	if message.KindOf(part) != message.KindLeaf {
		return false
	}
	return strings.EqualFold(part.GetHeader().EffectiveContentType().MediaType(), "text/plain")
}

// readDecoded reads the full content of a leaf with its
// Content-transfer-encoding removed.
func readDecoded(op *message.Opaque) ([]byte, error) {
	r := op.GetReader()
	if r == nil {
		return []byte{}, nil
	}
	if op.IsEncoded() {
		r = transfer.ApplyTransferDecoding(op.GetHeader(), r)
	}
	return io.ReadAll(r)
}

// decodeText converts decoded octets into native unicode text per the
// part's declared charset.
func decodeText(op *message.Opaque, data []byte) (text, charset string) {
	charset = op.EffectiveContentType().Charset()
	if charset == "" {
		charset = "us-ascii"
	}
	text, err := field.CharsetDecoder(charset, data)
	if err != nil {
		text = string(data)
	}
	return text, charset
}

func makePlain(op *message.Opaque) (*PlainText, error) {
	data, err := readDecoded(op)
	if err != nil {
		return nil, err
	}
	text, charset := decodeText(op, data)
	return &PlainText{Text: text, Charset: charset, Part: op}, nil
}

func (fl *flattener) makeHTML(op *message.Opaque) (*HTML, error) {
	data, err := readDecoded(op)
	if err != nil {
		return nil, err
	}
	text, charset := decodeText(op, data)
	return &HTML{HTML: text, Charset: charset, Part: op}, nil
}

func makeObject(op *message.Opaque) (*Object, error) {
	data, err := readDecoded(op)
	if err != nil {
		return nil, err
	}

	id, _ := op.GetContentID()
	loc, _ := op.GetContentLocation()

	return &Object{
		ID:        id,
		Location:  loc,
		MediaType: op.EffectiveContentType().MediaType(),
		Data:      data,
		Part:      op,
	}, nil
}
