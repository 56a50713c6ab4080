package transfer_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josusky/vmime/message/header"
	"github.com/josusky/vmime/message/transfer"
)

func encodeAll(t *testing.T, mk func(io.Writer) io.WriteCloser, data []byte) string {
	t.Helper()
	buf := &bytes.Buffer{}
	w := mk(buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.String()
}

func decodeAll(t *testing.T, mk func(io.Reader) io.Reader, data string) []byte {
	t.Helper()
	out, err := io.ReadAll(mk(strings.NewReader(data)))
	require.NoError(t, err)
	return out
}

func TestBase64_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := [][]byte{
		[]byte(""),
		[]byte("hello world"),
		{0x00, 0x01, 0x02, 0xfe, 0xff},
		bytes.Repeat([]byte{0xab, 0xcd, 0xef}, 100),
	}
	for _, c := range cases {
		enc := encodeAll(t, transfer.NewBase64Encoder, c)
		dec := decodeAll(t, transfer.NewBase64Decoder, enc)
		assert.Equal(t, c, dec)
	}
}

func TestBase64_LineLength(t *testing.T) {
	t.Parallel()

	enc := encodeAll(t, transfer.NewBase64Encoder, bytes.Repeat([]byte{0xab}, 300))
	for _, line := range strings.Split(strings.TrimRight(enc, "\r\n"), "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
}

func TestQuotedPrintable_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"plain ascii text\r\n",
		"I \xe2\x9d\xa4 email!\r\n",
		"trailing space \r\nand = signs == here\r\n",
	}
	for _, c := range cases {
		enc := encodeAll(t, transfer.NewQuotedPrintableEncoder, []byte(c))
		dec := decodeAll(t, transfer.NewQuotedPrintableDecoder, enc)
		assert.Equal(t, []byte(c), dec)
	}
}

func TestQuotedPrintable_IllegalEscapePassesThrough(t *testing.T) {
	t.Parallel()

	dec := decodeAll(t, transfer.NewQuotedPrintableDecoder, "literal =ZZ stays\r\n")
	assert.Equal(t, "literal =ZZ stays\r\n", string(dec))
}

func TestQuotedPrintable_SoftBreakConsumed(t *testing.T) {
	t.Parallel()

	dec := decodeAll(t, transfer.NewQuotedPrintableDecoder, "one =\r\nline\r\n")
	assert.Equal(t, "one line\r\n", string(dec))
}

func TestForEncoding(t *testing.T) {
	t.Parallel()

	_, known := transfer.ForEncoding("BASE64")
	assert.True(t, known)

	_, known = transfer.ForEncoding(" quoted-printable ")
	assert.True(t, known)

	_, known = transfer.ForEncoding("x-uuencode")
	assert.False(t, known)
}

func TestApplyTransferDecoding(t *testing.T) {
	t.Parallel()

	h, err := header.Parse([]byte("Content-transfer-encoding: base64\r\n\r\n"), header.CRLF)
	require.NoError(t, err)

	r := transfer.ApplyTransferDecoding(h, strings.NewReader("aGVsbG8="))
	out, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	// multipart bodies are never decoded
	h, err = header.Parse([]byte(
		"Content-type: multipart/mixed; boundary=x\r\n"+
			"Content-transfer-encoding: base64\r\n\r\n"), header.CRLF)
	require.NoError(t, err)

	r = transfer.ApplyTransferDecoding(h, strings.NewReader("aGVsbG8="))
	out, err = io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", string(out))

	// unknown encodings surface the raw bytes
	h, err = header.Parse([]byte("Content-transfer-encoding: x-strange\r\n\r\n"), header.CRLF)
	require.NoError(t, err)

	r = transfer.ApplyTransferDecoding(h, strings.NewReader("raw?bytes"))
	out, err = io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "raw?bytes", string(out))
}

func TestChoose(t *testing.T) {
	t.Parallel()

	assert.Equal(t, transfer.Bit7, transfer.Choose([]byte("plain ascii\r\nwith lines\r\n")))

	// a sprinkle of 8-bit stays readable in quoted-printable
	assert.Equal(t, transfer.QuotedPrintable,
		transfer.Choose([]byte("almost all ascii but caf\xc3\xa9 is here\r\n")))

	// dense binary goes to base64
	assert.Equal(t, transfer.Base64, transfer.Choose(bytes.Repeat([]byte{0xff, 0x00}, 50)))

	// a 7-bit body with an overlong line cannot travel as 7bit
	long := append([]byte("x: "), bytes.Repeat([]byte{'a'}, 1100)...)
	assert.NotEqual(t, transfer.Bit7, transfer.Choose(long))
}
