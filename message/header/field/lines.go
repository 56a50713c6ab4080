package field

import (
	"bytes"
)

// BadStartError is returned when the header begins with junk text that does
// not appear to be a header field. The skipped octets are preserved in the
// error object, the rest of the header parses normally.
type BadStartError struct {
	BadStart []byte // the text skipped at the start of header
}

// Error returns the error message.
func (err *BadStartError) Error() string {
	return "header starts with text that does not appear to be a header"
}

// Line represents the unparsed content for a complete header field line,
// including any folded continuation lines.
type Line []byte

// Lines represents the unparsed content for zero or more header field
// lines.
type Lines []Line

// opensField reports whether a header line starts a new field. A field line
// must not begin with folding whitespace and must carry its colon before
// any whitespace, since a field name is a single token. Anything else is
// folding continuation, however illegal.
func opensField(line []byte) bool {
	if len(line) == 0 || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	for _, c := range line {
		switch c {
		case ':':
			return true
		case ' ', '\t':
			return false
		}
	}
	return false
}

// ParseLines splits the given header octets into one entry per field. Each
// entry covers the line that opened the field and every continuation line
// that followed it, so the returned Lines are contiguous slices of the
// input sharing its backing array.
//
// This does not follow RFC 5322 precisely. It accepts input that would be
// rejected by the specification as part of the effort this library makes in
// attempting to be liberal in what it accepts, but strict in what it
// generates: a malformed line inside the header simply rides along with the
// field before it.
//
// Continuation lines ahead of the first field have no field to ride with.
// They are skipped, and come back to the caller inside a BadStartError
// alongside the parsed lines.
func ParseLines(m, lb []byte) (Lines, error) {
	h := make(Lines, 0, bytes.Count(m, lb))

	fieldAt := -1 // offset of the field being accumulated
	junkEnd := 0  // end of the leading junk, if any

	flush := func(end int) {
		if fieldAt >= 0 {
			h = append(h, Line(m[fieldAt:end]))
		}
	}

	pos := 0
	for pos < len(m) {
		next := len(m)
		eol := next
		if ix := bytes.Index(m[pos:], lb); ix >= 0 {
			eol = pos + ix
			next = eol + len(lb)
		}

		switch {
		case opensField(m[pos:eol]):
			flush(pos)
			fieldAt = pos
		case fieldAt < 0:
			// a continuation with no field to continue
			junkEnd = next
		}

		pos = next
	}
	flush(len(m))

	if junkEnd > 0 {
		return h, &BadStartError{m[:junkEnd]}
	}
	return h, nil
}

// Parse builds a Field from the raw octets of a single field, including any
// folded continuation lines. The original octets are kept in the field's
// Raw value; the Base holds the logical form, with the name and body
// unfolded and any encoded words in the body decoded.
func Parse(f Line, lb []byte) *Field {
	octets := bytes.TrimRight(f, string(lb))

	name := octets
	var rawBody []byte
	if ix := bytes.IndexByte(octets, ':'); ix >= 0 {
		name = octets[:ix]
		rawBody = octets[ix+1:]
	}

	body := string(bytes.TrimSpace(DefaultFoldEncoding.Unfold(rawBody)))
	if dec, err := Decode(body); err == nil {
		body = dec
	}

	return &Field{
		Base: Base{string(DefaultFoldEncoding.Unfold(name)), body},
		Raw:  &Raw{octets: octets, name: name, body: rawBody},
	}
}
