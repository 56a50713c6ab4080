// Package build assembles complete, correctly structured messages from
// logical inputs: addressing, a subject, text and HTML bodies, inline
// objects, and attachments. The MIME tree is chosen from what is present:
//
//	plain only                  -> single text leaf
//	plain + html                -> multipart/alternative
//	html + objects              -> multipart/related
//	plain + html + objects      -> multipart/alternative{plain, multipart/related}
//	anything + attachments      -> multipart/mixed wrapping the above
package build

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/zostay/go-addr/pkg/addr"

	"github.com/josusky/vmime/message"
	"github.com/josusky/vmime/message/header"
	"github.com/josusky/vmime/message/header/param"
	"github.com/josusky/vmime/message/transfer"
)

// Errors returned by Construct when the builder inputs violate its
// preconditions. Construction is strict: a builder in a bad state produces
// no message at all.
var (
	// ErrNoExpeditor is returned when no From mailbox has been set.
	ErrNoExpeditor = errors.New("message builder has no expeditor")

	// ErrNoRecipients is returned when no To recipient has been set.
	ErrNoRecipients = errors.New("message builder has no recipients")

	// ErrObjectsWithoutHTML is returned when embedded objects were added
	// but no HTML body was set to reference them.
	ErrObjectsWithoutHTML = errors.New("embedded objects require an HTML body")

	// ErrDanglingReference is returned when the HTML body references a
	// cid: URI for which no embedded object was added.
	ErrDanglingReference = errors.New("HTML body references an object that is not embedded")
)

// Object is content to embed in the HTML body, referenced from the markup
// as "cid:" + ID.
type Object struct {
	// ID is the Content-ID the object will carry, without angle brackets.
	ID string

	// MediaType is the media type of the object, e.g. "image/jpeg".
	MediaType string

	// Data is the raw content of the object.
	Data []byte
}

// Builder accumulates the logical pieces of a message and constructs a
// correct MIME tree from them. The zero value is usable; Now may be
// replaced to control the Date header in tests.
type Builder struct {
	from        addr.AddressList
	to, cc, bcc addr.AddressList
	subject     string
	plain       string
	html        string
	hasPlain    bool
	embedded    []*Object
	attachments []message.Part

	// Now provides the clock used for the Date header and the Message-id.
	// When nil, time.Now is used.
	Now func() time.Time
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// asAddressList converts a mix of strings and addr.Address values into an
// address list, strictly parsing the strings.
func asAddressList(as []any) (addr.AddressList, error) {
	al := make(addr.AddressList, 0, len(as))
	for _, a := range as {
		switch v := a.(type) {
		case string:
			add, err := addr.ParseEmailAddress(v)
			if err != nil {
				return nil, err
			}
			al = append(al, add)
		case addr.Address:
			al = append(al, v)
		default:
			return nil, header.ErrWrongAddressType
		}
	}
	return al, nil
}

// SetFrom sets the expeditor of the message from a string or an
// addr.Address.
func (b *Builder) SetFrom(a any) error {
	al, err := asAddressList([]any{a})
	if err != nil {
		return err
	}
	b.from = al
	return nil
}

// AddTo adds recipients from strings or addr.Address values.
func (b *Builder) AddTo(a ...any) error {
	al, err := asAddressList(a)
	if err != nil {
		return err
	}
	b.to = append(b.to, al...)
	return nil
}

// AddCc adds copy recipients from strings or addr.Address values.
func (b *Builder) AddCc(a ...any) error {
	al, err := asAddressList(a)
	if err != nil {
		return err
	}
	b.cc = append(b.cc, al...)
	return nil
}

// AddBcc adds blind copy recipients from strings or addr.Address values.
func (b *Builder) AddBcc(a ...any) error {
	al, err := asAddressList(a)
	if err != nil {
		return err
	}
	b.bcc = append(b.bcc, al...)
	return nil
}

// SetSubject sets the subject of the message.
func (b *Builder) SetSubject(s string) {
	b.subject = s
}

// SetText sets the plain text body of the message.
func (b *Builder) SetText(text string) {
	b.plain = text
	b.hasPlain = true
}

// SetHTML sets the HTML body of the message.
func (b *Builder) SetHTML(html string) {
	b.html = html
}

// Embed adds an object to be embedded in the HTML body. The markup should
// reference it as "cid:" + id.
func (b *Builder) Embed(id, mediaType string, data []byte) {
	b.embedded = append(b.embedded, &Object{id, mediaType, data})
}

// Attach adds an already built part as an attachment.
func (b *Builder) Attach(part message.Part) {
	b.attachments = append(b.attachments, part)
}

// AttachData adds an attachment from raw content. The transfer encoding is
// chosen from the content.
func (b *Builder) AttachData(filename, mediaType string, data []byte) error {
	buf := &message.Buffer{}
	buf.SetMediaType(mediaType)
	buf.SetPresentation("attachment")
	if filename != "" {
		if err := buf.SetFilename(filename); err != nil {
			return err
		}
	}
	buf.SetTransferEncoding(transfer.Choose(data))
	if _, err := buf.Write(data); err != nil {
		return err
	}

	att, err := buf.Opaque()
	if err != nil {
		return err
	}
	b.attachments = append(b.attachments, att)
	return nil
}

// AttachFile adds an attachment streamed from the given file path.
func (b *Builder) AttachFile(fn, mediaType string) error {
	att, err := message.AttachmentFile(fn, mediaType, transfer.Base64)
	if err != nil {
		return err
	}
	b.attachments = append(b.attachments, att)
	return nil
}

// now returns the builder's clock value.
func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Construct validates the builder state and produces the message. The
// resulting tree follows the decision table in the package documentation
// and the outermost header carries Date, From, To, Cc, Bcc, Subject,
// MIME-Version, and a generated Message-id.
func (b *Builder) Construct() (message.Generic, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	root, err := b.contentPart()
	if err != nil {
		return nil, err
	}

	if len(b.attachments) > 0 {
		buf := &message.Buffer{}
		buf.SetMultipart(len(b.attachments) + 1)
		buf.SetMediaType(message.DefaultMultipartContentType)
		buf.Add(root)
		buf.Add(b.attachments...)
		root, err = buf.Multipart()
		if err != nil {
			return nil, err
		}
	}

	b.stampEnvelope(root.GetHeader())

	return root, nil
}

// validate checks the construction preconditions.
func (b *Builder) validate() error {
	if len(b.from) == 0 {
		return ErrNoExpeditor
	}
	if len(b.to) == 0 {
		return ErrNoRecipients
	}
	if len(b.embedded) > 0 && b.html == "" {
		return ErrObjectsWithoutHTML
	}

	ids := make(map[string]bool, len(b.embedded))
	for _, o := range b.embedded {
		ids[o.ID] = true
	}
	for _, ref := range cidReferences(b.html) {
		if !ids[ref] {
			return fmt.Errorf("%w: cid:%s", ErrDanglingReference, ref)
		}
	}

	return nil
}

// contentPart builds the text portion of the tree, before any attachments
// are considered.
func (b *Builder) contentPart() (message.Generic, error) {
	if b.html == "" {
		return b.textLeaf("text/plain", b.plain)
	}

	htmlPart, err := b.textLeaf("text/html", b.html)
	if err != nil {
		return nil, err
	}

	var rich message.Generic = htmlPart
	if len(b.embedded) > 0 {
		rich, err = b.relatedPart(htmlPart)
		if err != nil {
			return nil, err
		}
	}

	if !b.hasPlain {
		return rich, nil
	}

	plainPart, err := b.textLeaf("text/plain", b.plain)
	if err != nil {
		return nil, err
	}

	buf := &message.Buffer{}
	buf.SetMultipart(2)
	buf.SetMediaType("multipart/alternative")
	buf.Add(plainPart, rich)
	return buf.Multipart()
}

// textLeaf builds a text/* leaf in utf-8 with a transfer encoding chosen
// from the content.
func (b *Builder) textLeaf(mediaType, body string) (*message.Opaque, error) {
	buf := &message.Buffer{}
	buf.SetMediaType(mediaType)
	_ = buf.SetCharset("utf-8")
	buf.SetTransferEncoding(transfer.Choose([]byte(body)))
	if _, err := io.WriteString(buf, body); err != nil {
		return nil, err
	}
	return buf.Opaque()
}

// relatedPart wraps the HTML leaf and the embedded objects into a
// multipart/related.
func (b *Builder) relatedPart(htmlPart *message.Opaque) (*message.Multipart, error) {
	buf := &message.Buffer{}
	buf.SetMultipart(len(b.embedded) + 1)
	buf.SetContentType(param.NewWithParams(
		"multipart/related",
		param.Parameter{Name: "type", Value: "text/html"},
	))
	buf.Add(htmlPart)

	for _, o := range b.embedded {
		obj, err := objectLeaf(o)
		if err != nil {
			return nil, err
		}
		buf.Add(obj)
	}

	return buf.Multipart()
}

// objectLeaf builds the leaf for one embedded object.
func objectLeaf(o *Object) (*message.Opaque, error) {
	buf := &message.Buffer{}
	buf.SetMediaType(o.MediaType)
	buf.SetContentID(o.ID)
	buf.SetPresentation("inline")
	buf.SetTransferEncoding(transfer.Choose(o.Data))
	if _, err := buf.Write(o.Data); err != nil {
		return nil, err
	}
	return buf.Opaque()
}

// stampEnvelope prepends the message envelope fields onto the outermost
// header, ahead of the content fields the construction added.
func (b *Builder) stampEnvelope(h *header.Header) {
	now := b.now()

	fields := make([][2]string, 0, 8)
	fields = append(fields,
		[2]string{header.Date, now.Format(time.RFC1123Z)},
		[2]string{header.From, b.from.String()},
		[2]string{header.To, b.to.String()},
	)
	if len(b.cc) > 0 {
		fields = append(fields, [2]string{header.Cc, b.cc.String()})
	}
	if len(b.bcc) > 0 {
		fields = append(fields, [2]string{header.Bcc, b.bcc.String()})
	}
	fields = append(fields,
		[2]string{header.Subject, b.subject},
		[2]string{header.MIMEVersion, "1.0"},
		[2]string{header.MessageID, generateMessageID(now, b.from)},
	)

	for i := len(fields) - 1; i >= 0; i-- {
		h.InsertBeforeField(0, fields[i][0], fields[i][1])
	}
}

var idLetters = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

// generateMessageID produces a unique message identifier using the clock
// and the expeditor's domain.
func generateMessageID(now time.Time, from addr.AddressList) string {
	token := make([]rune, 16)
	for i := range token {
		token[i] = idLetters[rand.Intn(len(idLetters))]
	}

	return fmt.Sprintf("<%s.%d@%s>", string(token), now.Unix(), domainOf(from))
}

// domainOf digs the domain out of the first address in the list, falling
// back to "localhost" when there isn't one to find.
func domainOf(al addr.AddressList) string {
	if len(al) == 0 {
		return "localhost"
	}

	s := al[0].Address()
	at := strings.LastIndexByte(s, '@')
	if at < 0 {
		return "localhost"
	}

	domain := s[at+1:]
	domain = strings.TrimRight(domain, ">")
	if domain == "" {
		return "localhost"
	}
	return domain
}

// cidReferences extracts the identifiers of every cid: URI in the markup.
func cidReferences(html string) []string {
	refs := make([]string, 0, 2)
	rest := html
	for {
		ix := strings.Index(rest, "cid:")
		if ix < 0 {
			break
		}
		rest = rest[ix+4:]

		end := strings.IndexFunc(rest, func(c rune) bool {
			switch c {
			case '"', '\'', ' ', '\t', '\r', '\n', ')', '>', '<':
				return true
			}
			return false
		})
		if end < 0 {
			end = len(rest)
		}
		if end > 0 {
			refs = append(refs, rest[:end])
		}
		rest = rest[end:]
	}
	return refs
}
