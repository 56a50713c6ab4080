package header

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/josusky/vmime/message/header/field"
)

var (
	// ErrIndexOutOfRange is returned when an attempt is made to access a
	// header field index that is too large or too small.
	ErrIndexOutOfRange = errors.New("header field index is out of range")
)

// Base represents a basic message header. It is a low-level interface to an
// ordered sequence of fields, with the ability to apply field folding during
// output. Field names compare case-insensitively; the same name may appear
// any number of times, and field order is preserved.
type Base struct {
	lbr    Break
	vf     *field.FoldEncoding
	fields []*field.Field
}

// initBase initializes the Break and fields values lazily.
func (h *Base) initBase() {
	if h.lbr == "" {
		h.lbr = CRLF
	}
	if h.fields == nil {
		h.fields = make([]*field.Field, 0, 10)
	}
}

// Clone returns a deep copy of the header. The fields are copied; their raw
// octets, being immutable, are shared.
func (h *Base) Clone() *Base {
	fields := make([]*field.Field, len(h.fields))
	for i, f := range h.fields {
		fields[i] = f.Clone()
	}
	return &Base{h.lbr, h.vf, fields}
}

// FoldEncoding returns the value folder used by this header during
// rendering.
func (h *Base) FoldEncoding() *field.FoldEncoding {
	if h.vf == nil {
		h.vf = field.DefaultFoldEncoding
	}
	return h.vf
}

// SetFoldEncoding changes the value folder used by this header during
// rendering.
func (h *Base) SetFoldEncoding(vf *field.FoldEncoding) {
	h.vf = vf
}

// Break returns the line break used to separate header fields and terminate
// the header.
func (h *Base) Break() Break {
	if h.lbr == "" {
		h.lbr = CRLF
	}
	return h.lbr
}

// SetBreak changes the line break to use with this header.
func (h *Base) SetBreak(lbr Break) {
	h.lbr = lbr
}

// Len returns the number of header fields in the header.
func (h *Base) Len() int {
	return len(h.fields)
}

// GetField returns the nth field or nil if out of range.
func (h *Base) GetField(n int) *field.Field {
	if n < 0 || n >= len(h.fields) {
		return nil
	}
	return h.fields[n]
}

// GetFieldNamed returns the nth (0-indexed) field with the given name or nil
// if no such header field is set.
func (h *Base) GetFieldNamed(name string, n int) *field.Field {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name(), name) {
			if n == 0 {
				return f
			}
			n--
		}
	}
	return nil
}

// GetAllFieldsNamed returns all the fields with the given name in order.
func (h *Base) GetAllFieldsNamed(name string) []*field.Field {
	fs := make([]*field.Field, 0, 10)
	for _, f := range h.fields {
		if strings.EqualFold(f.Name(), name) {
			fs = append(fs, f)
		}
	}
	return fs
}

// GetIndexesNamed returns the indexes of fields with the given name.
func (h *Base) GetIndexesNamed(name string) []int {
	is := make([]int, 0, 10)
	for i, f := range h.fields {
		if strings.EqualFold(f.Name(), name) {
			is = append(is, i)
		}
	}
	return is
}

// ListFields returns all the fields in the header.
func (h *Base) ListFields() []*field.Field {
	fs := make([]*field.Field, len(h.fields))
	copy(fs, h.fields)
	return fs
}

// WriteTo writes the header to the given io.Writer, folding each field and
// terminating the header with an empty line.
func (h *Base) WriteTo(w io.Writer) (int64, error) {
	h.initBase()

	var total int64
	for _, f := range h.fields {
		n, err := h.FoldEncoding().Fold(w, f.Bytes(), field.Break(h.lbr.Bytes()))
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err := w.Write(h.lbr.Bytes())
	total += int64(n)
	return total, err
}

// Bytes returns the header as a slice of bytes.
func (h *Base) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = h.WriteTo(&buf)
	return buf.Bytes()
}

// String returns the header as a string.
func (h *Base) String() string {
	return string(h.Bytes())
}

// InsertBeforeField will insert a field with the given name and body into
// the header immediately before the given index.
func (h *Base) InsertBeforeField(n int, name, body string) {
	h.initBase()

	if n < 0 {
		n = 0
	}
	if n > len(h.fields) {
		n = len(h.fields)
	}

	f := field.New(name, body)
	h.fields = append(h.fields, nil)
	copy(h.fields[n+1:], h.fields[n:])
	h.fields[n] = f
}

// DeleteField removes the nth field from the header. It returns
// ErrIndexOutOfRange if no such field exists.
func (h *Base) DeleteField(n int) error {
	if n < 0 || n >= len(h.fields) {
		return ErrIndexOutOfRange
	}
	h.fields = append(h.fields[:n], h.fields[n+1:]...)
	return nil
}
