package message_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josusky/vmime/message"
)

const helloMessage = "Date: Mon, 5 Dec 2022 16:46:38 -0500\r\n" +
	"From: Vincent <vincent@vmime.org>\r\n" +
	"To: you@vmime.org\r\n" +
	"Subject: Hello from VMime!\r\n" +
	"\r\n" +
	"A simple message to test VMime"

func TestParse_Simple(t *testing.T) {
	t.Parallel()

	m, err := message.Parse(strings.NewReader(helloMessage))
	require.NoError(t, err)

	op, isOpaque := m.(*message.Opaque)
	require.True(t, isOpaque)
	assert.Equal(t, message.KindLeaf, message.KindOf(m))
	assert.False(t, m.IsMultipart())

	s, err := op.GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "Hello from VMime!", s)

	from, err := op.GetFrom()
	assert.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "Vincent <vincent@vmime.org>", from.String())

	body, err := io.ReadAll(op.GetReader())
	assert.NoError(t, err)
	assert.Equal(t, "A simple message to test VMime", string(body))
}

func TestParse_SimpleRoundTrip(t *testing.T) {
	t.Parallel()

	m, err := message.Parse(strings.NewReader(helloMessage))
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	_, err = m.WriteTo(buf)
	assert.NoError(t, err)
	assert.Equal(t, helloMessage, buf.String())
}

const multipartMessage = "Subject: parts\r\n" +
	"Content-type: multipart/mixed; boundary=abc\r\n" +
	"\r\n" +
	"--abc\r\n" +
	"Content-type: text/plain\r\n" +
	"\r\n" +
	"first part\r\n" +
	"--abc\r\n" +
	"Content-type: text/plain\r\n" +
	"\r\n" +
	"second part\r\n" +
	"--abc--\r\n"

func TestParse_Multipart(t *testing.T) {
	t.Parallel()

	m, err := message.Parse(strings.NewReader(multipartMessage))
	require.NoError(t, err)

	mp, isMultipart := m.(*message.Multipart)
	require.True(t, isMultipart)
	assert.Equal(t, message.KindMultipart, message.KindOf(m))
	assert.True(t, m.IsMultipart())
	assert.Nil(t, m.GetReader())

	parts := mp.GetParts()
	require.Len(t, parts, 2)

	b0, err := io.ReadAll(parts[0].GetReader())
	assert.NoError(t, err)
	assert.Equal(t, "first part", string(b0))

	b1, err := io.ReadAll(parts[1].GetReader())
	assert.NoError(t, err)
	assert.Equal(t, "second part", string(b1))
}

func TestParse_MultipartRoundTrip(t *testing.T) {
	t.Parallel()

	m, err := message.Parse(strings.NewReader(multipartMessage))
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	_, err = m.WriteTo(buf)
	assert.NoError(t, err)
	assert.Equal(t, multipartMessage, buf.String())
}

func TestParse_MultipartPreambleEpilogue(t *testing.T) {
	t.Parallel()

	const msg = "Content-type: multipart/mixed; boundary=abc\r\n" +
		"\r\n" +
		"This is the preamble.\r\n" +
		"--abc\r\n" +
		"\r\n" +
		"content\r\n" +
		"--abc--\r\n" +
		"This is the epilogue.\r\n"

	m, err := message.Parse(strings.NewReader(msg))
	require.NoError(t, err)

	mp, isMultipart := m.(*message.Multipart)
	require.True(t, isMultipart)
	assert.Equal(t, "This is the preamble.\r\n", string(mp.GetPreamble()))
	assert.Equal(t, "\r\nThis is the epilogue.\r\n", string(mp.GetEpilogue()))

	buf := &bytes.Buffer{}
	_, err = m.WriteTo(buf)
	assert.NoError(t, err)
	assert.Equal(t, msg, buf.String())
}

func TestParse_MultipartMissingBoundaryParameter(t *testing.T) {
	t.Parallel()

	const msg = "Content-type: multipart/mixed\r\n" +
		"\r\n" +
		"all of this is kept as-is\r\n"

	m, err := message.Parse(strings.NewReader(msg))
	require.NoError(t, err)

	// degrades to a single leaf carrying the original bytes
	op, isOpaque := m.(*message.Opaque)
	require.True(t, isOpaque)

	body, err := io.ReadAll(op.GetReader())
	assert.NoError(t, err)
	assert.Equal(t, "all of this is kept as-is\r\n", string(body))
}

func TestParse_MultipartUnterminated(t *testing.T) {
	t.Parallel()

	const msg = "Content-type: multipart/mixed; boundary=abc\r\n" +
		"\r\n" +
		"--abc\r\n" +
		"\r\n" +
		"no closing delimiter here"

	m, err := message.Parse(strings.NewReader(msg))
	require.NoError(t, err)

	mp, isMultipart := m.(*message.Multipart)
	require.True(t, isMultipart)

	parts := mp.GetParts()
	require.Len(t, parts, 1)

	body, err := io.ReadAll(parts[0].GetReader())
	assert.NoError(t, err)
	assert.Equal(t, "no closing delimiter here", string(body))

	// no closing delimiter seen, none invented on output
	assert.Nil(t, mp.GetEpilogue())

	buf := &bytes.Buffer{}
	_, err = m.WriteTo(buf)
	assert.NoError(t, err)
	assert.Equal(t, msg, buf.String())
}

func TestParse_PartLinesStartingWithDashes(t *testing.T) {
	t.Parallel()

	const msg = "Content-type: multipart/mixed; boundary=abc\r\n" +
		"\r\n" +
		"--abc\r\n" +
		"\r\n" +
		"--not-a-boundary\r\n" +
		"--abcd is close but not it\r\n" +
		"--abc--\r\n"

	m, err := message.Parse(strings.NewReader(msg))
	require.NoError(t, err)

	mp, isMultipart := m.(*message.Multipart)
	require.True(t, isMultipart)

	parts := mp.GetParts()
	require.Len(t, parts, 1)

	body, err := io.ReadAll(parts[0].GetReader())
	assert.NoError(t, err)
	assert.Equal(t, "--not-a-boundary\r\n--abcd is close but not it", string(body))
}

func TestParse_NestedMultipart(t *testing.T) {
	t.Parallel()

	const msg = "Content-type: multipart/mixed; boundary=outer\r\n" +
		"\r\n" +
		"--outer\r\n" +
		"Content-type: multipart/alternative; boundary=inner\r\n" +
		"\r\n" +
		"--inner\r\n" +
		"Content-type: text/plain\r\n" +
		"\r\n" +
		"plain\r\n" +
		"--inner\r\n" +
		"Content-type: text/html\r\n" +
		"\r\n" +
		"<p>html</p>\r\n" +
		"--inner--\r\n" +
		"--outer--\r\n"

	m, err := message.Parse(strings.NewReader(msg))
	require.NoError(t, err)

	mp, isMultipart := m.(*message.Multipart)
	require.True(t, isMultipart)
	require.Len(t, mp.GetParts(), 1)

	inner, isMultipart := mp.GetParts()[0].(*message.Multipart)
	require.True(t, isMultipart)
	require.Len(t, inner.GetParts(), 2)

	buf := &bytes.Buffer{}
	_, err = m.WriteTo(buf)
	assert.NoError(t, err)
	assert.Equal(t, msg, buf.String())
}

func TestParse_WithoutMultipartOption(t *testing.T) {
	t.Parallel()

	m, err := message.Parse(strings.NewReader(multipartMessage), message.WithoutMultipart())
	require.NoError(t, err)

	_, isOpaque := m.(*message.Opaque)
	assert.True(t, isOpaque)
}

func TestParse_Encapsulated(t *testing.T) {
	t.Parallel()

	const msg = "Subject: outer\r\n" +
		"Content-type: message/rfc822\r\n" +
		"\r\n" +
		"Subject: inner\r\n" +
		"\r\n" +
		"the nested body"

	m, err := message.Parse(strings.NewReader(msg))
	require.NoError(t, err)

	em, isEncapsulated := m.(*message.Encapsulated)
	require.True(t, isEncapsulated)
	assert.Equal(t, message.KindEncapsulated, message.KindOf(m))

	s, err := em.GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "outer", s)

	inner := em.GetMessage()
	s, err = inner.GetHeader().GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "inner", s)

	body, err := io.ReadAll(inner.GetReader())
	assert.NoError(t, err)
	assert.Equal(t, "the nested body", string(body))
}

func TestParse_EncapsulatedRoundTrip(t *testing.T) {
	t.Parallel()

	const msg = "Content-type: message/rfc822\r\n" +
		"\r\n" +
		"Subject: inner\r\n" +
		"\r\n" +
		"the nested body"

	m, err := message.Parse(strings.NewReader(msg))
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	_, err = m.WriteTo(buf)
	assert.NoError(t, err)
	assert.Equal(t, msg, buf.String())
}

func TestParse_BareLFMessage(t *testing.T) {
	t.Parallel()

	const msg = "Subject: unix style\n" +
		"Content-type: multipart/mixed; boundary=abc\n" +
		"\n" +
		"--abc\n" +
		"\n" +
		"part content\n" +
		"--abc--\n"

	m, err := message.Parse(strings.NewReader(msg))
	require.NoError(t, err)

	mp, isMultipart := m.(*message.Multipart)
	require.True(t, isMultipart)
	require.Len(t, mp.GetParts(), 1)

	body, err := io.ReadAll(mp.GetParts()[0].GetReader())
	assert.NoError(t, err)
	assert.Equal(t, "part content", string(body))
}

func TestParse_EmptyBody(t *testing.T) {
	t.Parallel()

	m, err := message.Parse(strings.NewReader("Subject: empty\r\n\r\n"))
	require.NoError(t, err)

	op, isOpaque := m.(*message.Opaque)
	require.True(t, isOpaque)

	body, err := io.ReadAll(op.GetReader())
	assert.NoError(t, err)
	assert.Empty(t, body)
}

func TestParse_HeaderOnly(t *testing.T) {
	t.Parallel()

	m, err := message.Parse(strings.NewReader("Subject: no body at all\r\n"))
	require.NoError(t, err)

	op, isOpaque := m.(*message.Opaque)
	require.True(t, isOpaque)

	s, err := op.GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "no body at all", s)
	assert.Nil(t, op.GetReader())
}

func TestParse_LargeHeaderFails(t *testing.T) {
	t.Parallel()

	big := "Subject: " + strings.Repeat("x", 4096) + "\r\n\r\nbody"
	_, err := message.Parse(strings.NewReader(big), message.WithMaxHeaderLength(1024))
	assert.ErrorIs(t, err, message.ErrLargeHeader)
}
