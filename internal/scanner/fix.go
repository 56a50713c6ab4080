// Package scanner works around a bufio.Scanner termination rule that the
// multipart boundary scanner trips over.
//
// The boundary split function consumes delimiters without emitting them:
// the opening boundary line and the preamble produce an advance but no
// token. bufio.Scanner handles that fine while input is still arriving,
// but once EOF is recorded, a call that advances without producing a token
// ends the scan, silently dropping every part still sitting in the buffer.
package scanner

import (
	"bufio"
	"errors"
)

// ErrStall is reported when, at EOF, the wrapped split function neither
// consumes input nor produces a token nor fails. Without it, a split
// function bug of that kind would spin forever.
var ErrStall = errors.New("split function stalled at end of input")

// DrainAtEOF wraps a split function that may consume input without
// producing a token, such as the multipart boundary scanner. Before EOF the
// split function is used as-is. At EOF, where bufio.Scanner would otherwise
// stop on the first token-less advance, the wrapper keeps re-running the
// split function over the remaining buffered input until it produces a
// token, finishes the input, or fails, and reports the combined advance.
func DrainAtEOF(split bufio.SplitFunc) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if !atEOF {
			return split(data, atEOF)
		}

		total := 0
		for {
			advance, token, err := split(data, atEOF)
			total += advance

			if token != nil || err != nil {
				return total, token, err
			}
			if advance == 0 {
				if len(data) > 0 {
					return total, nil, ErrStall
				}
				return total, nil, nil
			}

			data = data[advance:]
		}
	}
}
