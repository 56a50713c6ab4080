package param_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josusky/vmime/message/header/param"
)

func TestParse_Simple(t *testing.T) {
	t.Parallel()

	pv, err := param.Parse("text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", pv.MediaType())
	assert.Equal(t, "text", pv.Type())
	assert.Equal(t, "plain", pv.Subtype())
	assert.Equal(t, "utf-8", pv.Charset())
}

func TestParse_QuotedString(t *testing.T) {
	t.Parallel()

	pv, err := param.Parse(`attachment; filename="semi;colon.pdf"`)
	require.NoError(t, err)
	assert.Equal(t, "attachment", pv.Disposition())
	assert.Equal(t, "semi;colon.pdf", pv.Filename())

	pv, err = param.Parse(`attachment; filename="back\\slash \"quote\".txt"`)
	require.NoError(t, err)
	assert.Equal(t, `back\slash "quote".txt`, pv.Filename())
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := param.Parse("")
	assert.ErrorIs(t, err, param.ErrEmptyValue)

	_, err = param.Parse("text/plain; charset")
	assert.ErrorIs(t, err, param.ErrBadParameter)
}

func TestParse_CaseInsensitiveNames(t *testing.T) {
	t.Parallel()

	pv, err := param.Parse("multipart/mixed; BOUNDARY=abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", pv.Boundary())
	assert.Equal(t, "abc123", pv.Parameter("Boundary"))
}

func TestParse_ParameterOrderPreserved(t *testing.T) {
	t.Parallel()

	pv, err := param.Parse("multipart/related; type=text/html; boundary=b; start=root")
	require.NoError(t, err)

	ps := pv.Parameters()
	require.Len(t, ps, 3)
	assert.Equal(t, "type", ps[0].Name)
	assert.Equal(t, "boundary", ps[1].Name)
	assert.Equal(t, "start", ps[2].Name)
}

func TestParse_Rfc2231Continuations(t *testing.T) {
	t.Parallel()

	// the example from RFC 2231 §4.1, mixed extended and plain segments
	pv, err := param.Parse("message/external-body; access-type=URL;" +
		" URL*0=\"ftp://\";" +
		" URL*1=\"cnri.reston.va.us/in-notes/rfc1766.txt\"")
	require.NoError(t, err)
	assert.Equal(t, "ftp://cnri.reston.va.us/in-notes/rfc1766.txt", pv.Parameter("url"))

	pv, err = param.Parse("application/x-stuff;" +
		" title*0*=us-ascii'en'This%20is%20even%20more%20;" +
		" title*1*=%2A%2A%2Afun%2A%2A%2A%20;" +
		" title*2=\"isn't it!\"")
	require.NoError(t, err)
	assert.Equal(t, "This is even more ***fun*** isn't it!", pv.Parameter("title"))
}

func TestParse_Rfc2231Charset(t *testing.T) {
	t.Parallel()

	pv, err := param.Parse("attachment; filename*=utf-8''na%C3%AFve%20plan.txt")
	require.NoError(t, err)
	assert.Equal(t, "naïve plan.txt", pv.Filename())

	pv, err = param.Parse("attachment; filename*=iso-8859-1''caf%E9.txt")
	require.NoError(t, err)
	assert.Equal(t, "café.txt", pv.Filename())
}

func TestParse_Rfc2231FourSegmentsMixedCharset(t *testing.T) {
	t.Parallel()

	pv, err := param.Parse("application/x-stuff;" +
		" name*0*=utf-8''caf%C3%A9%20;" +
		" name*1=plain;" +
		" name*2*=%20r%C3%A9sum%C3%A9;" +
		" name*3=\".txt\"")
	require.NoError(t, err)
	assert.Equal(t, "café plain résumé.txt", pv.Parameter("name"))
}

func TestString_Simple(t *testing.T) {
	t.Parallel()

	pv := param.New("text/plain")
	assert.Equal(t, "text/plain", pv.String())

	pv = param.Modify(pv, param.Set("charset", "utf-8"))
	assert.Equal(t, "text/plain; charset=utf-8", pv.String())
}

func TestString_QuotesWhenNeeded(t *testing.T) {
	t.Parallel()

	pv := param.NewWithParams("multipart/related",
		param.Parameter{Name: "type", Value: "text/html"},
		param.Parameter{Name: "boundary", Value: "simple-boundary"},
	)
	assert.Equal(t, `multipart/related; type="text/html"; boundary=simple-boundary`, pv.String())
}

func TestString_Rfc2231RoundTrip(t *testing.T) {
	t.Parallel()

	pv := param.NewWithParams("attachment",
		param.Parameter{Name: "filename", Value: "naïve plan.txt"},
	)

	reparsed, err := param.Parse(pv.String())
	require.NoError(t, err)
	assert.Equal(t, "naïve plan.txt", reparsed.Filename())
}

func TestString_Rfc2231LongValueContinuations(t *testing.T) {
	t.Parallel()

	long := "résumé résumé résumé résumé résumé résumé résumé résumé.txt"
	pv := param.NewWithParams("attachment",
		param.Parameter{Name: "filename", Value: long},
	)

	reparsed, err := param.Parse(pv.String())
	require.NoError(t, err)
	assert.Equal(t, long, reparsed.Filename())
}

func TestModify(t *testing.T) {
	t.Parallel()

	pv, err := param.Parse("multipart/mixed; boundary=abc123; charset=latin1")
	require.NoError(t, err)

	nv := param.Modify(pv,
		param.Change("multipart/alternative"),
		param.Set("charset", "utf-8"),
		param.Delete("boundary"),
	)

	// the original is untouched
	assert.Equal(t, "multipart/mixed", pv.MediaType())
	assert.Equal(t, "abc123", pv.Boundary())

	assert.Equal(t, "multipart/alternative", nv.MediaType())
	assert.Equal(t, "", nv.Boundary())
	assert.Equal(t, "utf-8", nv.Charset())
}

func TestStartID(t *testing.T) {
	t.Parallel()

	pv, err := param.Parse(`multipart/related; start="<root@example>"`)
	require.NoError(t, err)
	assert.Equal(t, "root@example", pv.StartID())
}
