package scanner_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josusky/vmime/internal/scanner"
)

// semiSplit emits the text between semicolons, consuming each semicolon as
// a token-less advance. That shape mirrors how the multipart boundary
// scanner consumes its delimiters.
func semiSplit(data []byte, atEOF bool) (int, []byte, error) {
	if len(data) == 0 {
		return 0, nil, nil
	}
	if data[0] == ';' {
		return 1, nil, nil
	}
	if ix := bytes.IndexByte(data, ';'); ix >= 0 {
		return ix, data[:ix], nil
	}
	if atEOF {
		return len(data), data, bufio.ErrFinalToken
	}
	return 0, nil, nil
}

func TestDrainAtEOF(t *testing.T) {
	t.Parallel()

	sc := bufio.NewScanner(strings.NewReader("a;;b;;;c"))
	sc.Split(scanner.DrainAtEOF(semiSplit))

	tokens := make([]string, 0, 3)
	for sc.Scan() {
		tokens = append(tokens, sc.Text())
	}
	assert.NoError(t, sc.Err())
	assert.Equal(t, []string{"a", "b", "c"}, tokens)
}

func TestDrainAtEOF_Stall(t *testing.T) {
	t.Parallel()

	// a split function that refuses to finish the input
	stall := func(data []byte, atEOF bool) (int, []byte, error) {
		return 0, nil, nil
	}

	sc := bufio.NewScanner(strings.NewReader("xyz"))
	sc.Split(scanner.DrainAtEOF(stall))

	count := 0
	for sc.Scan() {
		count++
	}
	assert.Zero(t, count)
	assert.ErrorIs(t, sc.Err(), scanner.ErrStall)
}
