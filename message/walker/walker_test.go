package walker_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josusky/vmime/message"
	"github.com/josusky/vmime/message/walker"
)

const nestedMessage = "Content-type: multipart/mixed; boundary=outer\r\n" +
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
	"--outer\r\n" +
	"Content-type: application/pdf\r\n" +
	"\r\n" +
	"PDF\r\n" +
	"--outer--\r\n"

func parseNested(t *testing.T) message.Generic {
	t.Helper()
	m, err := message.Parse(strings.NewReader(nestedMessage), message.WithUnlimitedRecursion())
	require.NoError(t, err)
	return m
}

func mediaType(part message.Part) string {
	return part.GetHeader().EffectiveContentType().MediaType()
}

func TestFunc_Walk(t *testing.T) {
	t.Parallel()

	types := make([]string, 0, 5)
	err := walker.Func(func(depth, i int, part message.Part) error {
		types = append(types, mediaType(part))
		return nil
	}).Walk(parseNested(t))
	assert.NoError(t, err)

	// depth-first, parents before children
	assert.Equal(t, []string{
		"multipart/mixed",
		"multipart/alternative",
		"text/plain",
		"text/html",
		"application/pdf",
	}, types)
}

func TestFunc_DepthAndIndex(t *testing.T) {
	t.Parallel()

	type visit struct {
		depth, i int
		mt       string
	}
	visits := make([]visit, 0, 5)
	err := walker.Func(func(depth, i int, part message.Part) error {
		visits = append(visits, visit{depth, i, mediaType(part)})
		return nil
	}).Walk(parseNested(t))
	assert.NoError(t, err)

	assert.Equal(t, []visit{
		{0, 0, "multipart/mixed"},
		{1, 0, "multipart/alternative"},
		{2, 0, "text/plain"},
		{2, 1, "text/html"},
		{1, 1, "application/pdf"},
	}, visits)
}

func TestFunc_WalkLeaves(t *testing.T) {
	t.Parallel()

	types := make([]string, 0, 3)
	err := walker.Func(func(depth, i int, part message.Part) error {
		types = append(types, mediaType(part))
		return nil
	}).WalkLeaves(parseNested(t))
	assert.NoError(t, err)

	assert.Equal(t, []string{"text/plain", "text/html", "application/pdf"}, types)
}

func TestFunc_WalkContainers(t *testing.T) {
	t.Parallel()

	types := make([]string, 0, 2)
	err := walker.Func(func(depth, i int, part message.Part) error {
		types = append(types, mediaType(part))
		return nil
	}).WalkContainers(parseNested(t))
	assert.NoError(t, err)

	assert.Equal(t, []string{"multipart/mixed", "multipart/alternative"}, types)
}

func TestFunc_ErrorStopsWalk(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	count := 0
	err := walker.Func(func(depth, i int, part message.Part) error {
		count++
		if count == 2 {
			return boom
		}
		return nil
	}).Walk(parseNested(t))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, count)
}

func TestFunc_Prune(t *testing.T) {
	t.Parallel()

	// pruning the alternative keeps the walk out of its text parts
	types := make([]string, 0, 3)
	err := walker.Func(func(depth, i int, part message.Part) error {
		types = append(types, mediaType(part))
		if mediaType(part) == "multipart/alternative" {
			return walker.ErrPrune
		}
		return nil
	}).Walk(parseNested(t))
	assert.NoError(t, err)

	assert.Equal(t, []string{
		"multipart/mixed",
		"multipart/alternative",
		"application/pdf",
	}, types)
}

func TestProcess(t *testing.T) {
	t.Parallel()

	depths := make([]int, 0, 5)
	tops := make([]string, 0, 5)
	err := walker.Process(func(part message.Part, parents []message.Part) error {
		depths = append(depths, len(parents))
		if len(parents) > 0 {
			tops = append(tops, mediaType(parents[0]))
		}
		return nil
	}, parseNested(t))
	assert.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 2, 1}, depths)

	// the outermost ancestor is always the root
	for _, mt := range tops {
		assert.Equal(t, "multipart/mixed", mt)
	}
}
