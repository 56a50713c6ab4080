package header

import (
	"errors"

	"github.com/josusky/vmime/message/header/field"
)

// Parse will parse the given slice of bytes into a message header using the
// given line break. It will assume the entire input given represents the
// header to be parsed.
//
// Individual fields are not interpreted at this point; typed access through
// the Header methods parses a field body on first use, and a field whose
// body fails its typed parse simply stays available in its raw form.
//
// The parsed header will have field.DoNotFoldEncoding set so the code can
// round-trip without modifying the original. Use SetFoldEncoding() if this
// is something you would like to change.
//
// A header whose first lines are not field lines parses anyway; the skipped
// octets come back inside a *field.BadStartError, which callers may treat as
// a warning.
func Parse(m []byte, lb Break) (*Header, error) {
	lines, err := field.ParseLines(m, lb.Bytes())

	var badStartErr *field.BadStartError // recoverable
	var finalErr error
	if errors.As(err, &badStartErr) {
		finalErr = badStartErr
	} else if err != nil {
		return nil, err
	}

	fields := make([]*field.Field, len(lines))
	for i, line := range lines {
		fields[i] = field.Parse(line, lb.Bytes())
	}

	h := &Header{
		Base: Base{
			lbr:    lb,
			vf:     field.DoNotFoldEncoding,
			fields: fields,
		},
	}

	return h, finalErr
}
