package header_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zostay/go-addr/pkg/addr"

	"github.com/josusky/vmime/message/header"
	"github.com/josusky/vmime/message/header/field"
	"github.com/josusky/vmime/message/header/param"
)

const basicHeader = "Date: Mon, 5 Dec 2022 16:46:38 -0500\r\n" +
	"From: Vincent <vincent@vmime.org>\r\n" +
	"To: you@vmime.org\r\n" +
	"Subject: Hello from VMime!\r\n" +
	"Received: one\r\n" +
	"Received: two\r\n" +
	"Content-type: text/plain; charset=us-ascii\r\n" +
	"\r\n"

func parseBasic(t *testing.T) *header.Header {
	t.Helper()
	h, err := header.Parse([]byte(basicHeader), header.CRLF)
	require.NoError(t, err)
	return h
}

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	h := parseBasic(t)

	buf := &bytes.Buffer{}
	_, err := h.WriteTo(buf)
	assert.NoError(t, err)
	assert.Equal(t, basicHeader, buf.String())
}

func TestHeader_Get(t *testing.T) {
	t.Parallel()

	h := parseBasic(t)

	s, err := h.Get("subject")
	assert.NoError(t, err)
	assert.Equal(t, "Hello from VMime!", s)

	_, err = h.Get("X-Missing")
	assert.ErrorIs(t, err, header.ErrNoSuchField)

	r, err := h.Get("Received")
	assert.ErrorIs(t, err, header.ErrManyFields)
	assert.Equal(t, "one", r)

	rs, err := h.GetAll("Received")
	assert.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, rs)
}

func TestHeader_FieldOrderPreserved(t *testing.T) {
	t.Parallel()

	h := parseBasic(t)

	names := make([]string, 0, h.Len())
	for _, f := range h.ListFields() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{
		"Date", "From", "To", "Subject", "Received", "Received", "Content-type",
	}, names)
}

func TestHeader_GetDate(t *testing.T) {
	t.Parallel()

	h := parseBasic(t)

	d, err := h.GetDate()
	assert.NoError(t, err)
	assert.Equal(t, 2022, d.Year())
	assert.Equal(t, time.December, d.Month())
	assert.Equal(t, 5, d.Day())
}

func TestParseTime_ObsoleteForms(t *testing.T) {
	t.Parallel()

	// two-digit year, obsolete zone name
	d, err := header.ParseTime("5 Dec 99 16:46 EST")
	assert.NoError(t, err)
	assert.Equal(t, 1999, d.Year())

	d, err = header.ParseTime("5 Dec 22 16:46 GMT")
	assert.NoError(t, err)
	assert.Equal(t, 2022, d.Year())

	_, err = header.ParseTime("certainly not a date")
	assert.Error(t, err)
}

func TestHeader_Addresses(t *testing.T) {
	t.Parallel()

	h := parseBasic(t)

	from, err := h.GetFrom()
	assert.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "Vincent <vincent@vmime.org>", from.String())

	to, err := h.GetTo()
	assert.NoError(t, err)
	assert.Equal(t, "you@vmime.org", to.String())
}

func TestParseAddressList_NeverFails(t *testing.T) {
	t.Parallel()

	// garbage still produces something usable
	al := header.ParseAddressList("Some Person some.person(comment)")
	assert.NotEmpty(t, al)
}

func TestHeader_SetAndReplace(t *testing.T) {
	t.Parallel()

	h := parseBasic(t)

	h.SetSubject("Replaced")
	s, err := h.GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "Replaced", s)

	// setting collapses repeated fields down to one
	h.Set("Received", "three")
	rs, err := h.GetAll("Received")
	assert.NoError(t, err)
	assert.Equal(t, []string{"three"}, rs)
}

func TestHeader_Delete(t *testing.T) {
	t.Parallel()

	h := parseBasic(t)

	h.Delete("Received")
	_, err := h.Get("Received")
	assert.ErrorIs(t, err, header.ErrNoSuchField)

	// deleting a missing field is fine
	h.Delete("X-Missing")
}

func TestHeader_ContentType(t *testing.T) {
	t.Parallel()

	h := parseBasic(t)

	mt, err := h.GetMediaType()
	assert.NoError(t, err)
	assert.Equal(t, "text/plain", mt)

	cs, err := h.GetCharset()
	assert.NoError(t, err)
	assert.Equal(t, "us-ascii", cs)

	_, err = h.GetBoundary()
	assert.ErrorIs(t, err, header.ErrNoSuchFieldParameter)

	h.SetMediaType("text/html")
	mt, err = h.GetMediaType()
	assert.NoError(t, err)
	assert.Equal(t, "text/html", mt)

	// parameters survive a media type change
	cs, err = h.GetCharset()
	assert.NoError(t, err)
	assert.Equal(t, "us-ascii", cs)
}

func TestHeader_EffectiveContentType(t *testing.T) {
	t.Parallel()

	h := &header.Header{}
	ct := h.EffectiveContentType()
	assert.Equal(t, "text/plain", ct.MediaType())
	assert.Equal(t, "us-ascii", ct.Charset())

	h.SetMediaType("image/png")
	assert.Equal(t, "image/png", h.EffectiveContentType().MediaType())
}

func TestHeader_ContentID(t *testing.T) {
	t.Parallel()

	h := &header.Header{}
	h.SetContentID("logo@example")

	raw, err := h.Get(header.ContentID)
	assert.NoError(t, err)
	assert.Equal(t, "<logo@example>", raw)

	id, err := h.GetContentID()
	assert.NoError(t, err)
	assert.Equal(t, "logo@example", id)
}

func TestHeader_GetWords(t *testing.T) {
	t.Parallel()

	h, err := header.Parse([]byte("Subject: =?utf-8?Q?caf=C3=A9?= time\r\n\r\n"), header.CRLF)
	require.NoError(t, err)

	ws, err := h.GetWords("Subject")
	assert.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, "utf-8", ws[0].Charset)
	assert.Equal(t, "café time", ws.String())

	latin1, err := h.GetConvertedText("Subject", "iso-8859-1")
	assert.NoError(t, err)
	assert.Equal(t, []byte("caf\xe9 time"), latin1)
}

func TestHeader_GetTyped(t *testing.T) {
	t.Parallel()

	h, err := header.Parse([]byte(
		"Date: Mon, 5 Dec 2022 16:46:38 -0500\r\n"+
			"From: vincent@vmime.org\r\n"+
			"Message-id: <abc@vmime.org>\r\n"+
			"References: <one@vmime.org> <two@vmime.org>\r\n"+
			"Content-type: text/plain; charset=utf-8\r\n"+
			"Content-transfer-encoding: Quoted-Printable\r\n"+
			"Keywords: alpha, beta\r\n"+
			"X-Custom: anything\r\n"+
			"\r\n"), header.CRLF)
	require.NoError(t, err)

	v, err := h.GetTyped(header.Date)
	assert.NoError(t, err)
	assert.IsType(t, time.Time{}, v)

	v, err = h.GetTyped(header.From)
	assert.NoError(t, err)
	assert.IsType(t, addr.AddressList{}, v)

	v, err = h.GetTyped(header.MessageID)
	assert.NoError(t, err)
	assert.Equal(t, "abc@vmime.org", v)

	v, err = h.GetTyped(header.References)
	assert.NoError(t, err)
	assert.Equal(t, []string{"one@vmime.org", "two@vmime.org"}, v)

	v, err = h.GetTyped(header.ContentType)
	assert.NoError(t, err)
	assert.IsType(t, &param.Value{}, v)

	v, err = h.GetTyped(header.ContentTransferEncoding)
	assert.NoError(t, err)
	assert.Equal(t, "quoted-printable", v)

	v, err = h.GetTyped(header.Keywords)
	assert.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, v)

	// unregistered names fall back to the raw body
	v, err = h.GetTyped("X-Custom")
	assert.NoError(t, err)
	assert.Equal(t, "anything", v)
}

func TestHeader_TypedParseFailureLeavesRawField(t *testing.T) {
	t.Parallel()

	h, err := header.Parse([]byte("Content-type: ;;;\r\nSubject: ok\r\n\r\n"), header.CRLF)
	require.NoError(t, err)

	// the typed view fails
	_, err = h.GetContentType()
	assert.Error(t, err)

	// but the raw view is intact and the rest of the header works
	raw, err := h.Get(header.ContentType)
	assert.NoError(t, err)
	assert.Equal(t, ";;;", raw)

	s, err := h.GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "ok", s)
}

func TestRegistry_Freeze(t *testing.T) {
	t.Parallel()

	r := header.NewRegistry()
	assert.NoError(t, r.Register("X-Priority", header.KindText))
	assert.Equal(t, header.KindText, r.Kind("x-priority"))

	r.Freeze()
	assert.ErrorIs(t, r.Register("X-Other", header.KindText), header.ErrRegistryFrozen)

	// the default registry is frozen at initialization
	assert.ErrorIs(t, header.DefaultRegistry.Register("X-Nope", header.KindText), header.ErrRegistryFrozen)
	assert.Equal(t, header.KindAddressList, header.DefaultRegistry.Kind("TO"))
	assert.Equal(t, header.KindRaw, header.DefaultRegistry.Kind("X-Unknown"))
}

func TestHeader_SetFoldEncoding(t *testing.T) {
	t.Parallel()

	h := &header.Header{}
	h.SetBreak(header.CRLF)
	h.Set("Subject", "short")
	h.SetFoldEncoding(field.DoNotFoldEncoding)

	buf := &bytes.Buffer{}
	_, err := h.WriteTo(buf)
	assert.NoError(t, err)
	assert.Equal(t, "Subject: short\r\n\r\n", buf.String())
}

func TestHeader_Clone(t *testing.T) {
	t.Parallel()

	h := parseBasic(t)
	c := h.Clone()

	c.SetSubject("changed")

	s, err := h.GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "Hello from VMime!", s)

	s, err = c.GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "changed", s)
}
